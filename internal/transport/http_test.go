package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	path      string
	requestID string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.path = r.URL.Path
	h.requestID = middleware.GetReqID(r.Context())
	w.WriteHeader(http.StatusAccepted)
}

func TestRouter_MCP(t *testing.T) {
	handler := &recordingHandler{}
	server := httptest.NewServer(NewRouter(handler, nil))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, "/mcp", handler.path)
	require.NotEmpty(t, handler.requestID)

	resp, err = http.Post(server.URL+"/mcp/extra", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, "/mcp/extra", handler.path)
}

func TestRouter_Health(t *testing.T) {
	server := httptest.NewServer(NewRouter(&recordingHandler{}, nil))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_UnknownPath(t *testing.T) {
	handler := &recordingHandler{}
	server := httptest.NewServer(NewRouter(handler, nil))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/admin")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Empty(t, handler.path)
}

func TestRouter_RecoversPanics(t *testing.T) {
	server := httptest.NewServer(NewRouter(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), nil))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
