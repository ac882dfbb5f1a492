package mcp

import (
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestFormatPayload(t *testing.T) {
	require.Equal(t, "<nil>", formatPayload(nil))
	require.Equal(t, `{"a":1}`, formatPayload(map[string]int{"a": 1}))
	require.Equal(t, "func()", formatPayload(func() {}))

	long := formatPayload(strings.Repeat("x", 3*payloadLimit))
	require.Len(t, long, payloadLimit+3)
	require.True(t, strings.HasSuffix(long, "..."))
}

func TestMetaSessionID(t *testing.T) {
	require.Empty(t, metaSessionID(nil))

	var typedNil *sdkmcp.CallToolParamsRaw
	require.Empty(t, metaSessionID(typedNil))

	params := &sdkmcp.CallToolParamsRaw{Name: ToolScoreDataset}
	params.SetMeta(map[string]any{"session_id": "s-1"})
	require.Equal(t, "s-1", metaSessionID(params))
}
