package quality_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/rpggio/ckanflow/internal/domain/quality"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newScorer(opts ...quality.Option) *quality.Scorer {
	opts = append([]quality.Option{quality.WithClock(func() time.Time { return fixedNow })}, opts...)
	return quality.NewScorer(quality.DefaultConfig(), opts...)
}

func tags(n int) []ckan.Tag {
	out := make([]ckan.Tag, n)
	for i := range out {
		out[i] = ckan.Tag{Name: "tag" + string(rune('a'+i))}
	}
	return out
}

func daysAgo(days int) string {
	return fixedNow.AddDate(0, 0, -days).Format(time.RFC3339)
}

// scenarioDataset is fully documented except for geographic and temporal
// coverage.
func scenarioDataset() ckan.Dataset {
	return ckan.Dataset{
		Title:        "T",
		Notes:        strings.Repeat("x", 250),
		Name:         "t",
		LicenseID:    "cc-by",
		Author:       "A",
		AuthorEmail:  "a@b.co",
		Organization: &ckan.Organization{},
		Tags:         tags(5),
		Extras:       []ckan.Extra{{Key: "frequency", Value: "daily"}},
		Resources: []ckan.Resource{{
			Format:          "CSV",
			URL:             "http://x",
			Description:     "d",
			DatastoreActive: true,
		}},
		MetadataModified: fixedNow.AddDate(0, 0, -30).Format("2006-01-02T15:04:05Z"),
	}
}

func TestScore_Scenario(t *testing.T) {
	report := newScorer().Score(scenarioDataset())

	require.Equal(t, quality.Breakdown{
		Completeness: 27,
		Richness:     22,
		Resources:    30,
		Freshness:    10,
	}, report.Breakdown)
	require.Equal(t, 89, report.Score)
	require.Equal(t, quality.LevelExcellent, report.Level)
	require.Empty(t, report.Issues)
}

func TestScore_ResourcesUnboundedWhenCapDisabled(t *testing.T) {
	cfg := quality.DefaultConfig()
	cfg.Caps.Resources = 0
	scorer := quality.NewScorer(cfg, quality.WithClock(func() time.Time { return fixedNow }))

	report := scorer.Score(scenarioDataset())
	require.Equal(t, 32, report.Breakdown.Resources)
	require.Equal(t, 91, report.Score)
}

func TestScore_BestPossibleDataset(t *testing.T) {
	ds := scenarioDataset()
	ds.Extras = append(ds.Extras,
		ckan.Extra{Key: "spatial", Value: `{"type":"Point"}`},
		ckan.Extra{Key: "temporal_start", Value: "2020-01-01"},
	)

	report := newScorer().Score(ds)
	require.Equal(t, quality.Breakdown{Completeness: 30, Richness: 25, Resources: 30, Freshness: 10}, report.Breakdown)
	require.Equal(t, 95, report.Score)
	require.Equal(t, quality.LevelExcellent, report.Level)
	require.NotNil(t, report.Issues)
	require.Empty(t, report.Issues)
}

func TestScore_EmptyDataset(t *testing.T) {
	report := newScorer().Score(ckan.Dataset{})

	require.Equal(t, 0, report.Score)
	require.Equal(t, quality.LevelPoor, report.Level)
	require.Equal(t, []string{
		"Missing title",
		"Missing description",
		"Missing identifier",
		"Missing license",
		"Missing author/maintainer",
		"Missing contact email",
		"Not assigned to organization",
		"Very short or missing description",
		"No tags",
		"No resources",
		"No last modified date",
	}, report.Issues)
}

func TestScore_Idempotent(t *testing.T) {
	scorer := newScorer()
	ds := scenarioDataset()
	require.Equal(t, scorer.Score(ds), scorer.Score(ds))
}

func TestScore_MaintainerCountsAsAuthor(t *testing.T) {
	ds := scenarioDataset()
	ds.Author, ds.AuthorEmail = "", ""
	ds.Maintainer, ds.MaintainerEmail = "M", "m@b.co"

	report := newScorer().Score(ds)
	require.Equal(t, 27, report.Breakdown.Completeness)
}

func TestScore_DescriptionTiers(t *testing.T) {
	cases := []struct {
		length int
		points int
		issue  bool
	}{
		{0, 0, true},
		{1, 2, false},
		{100, 2, false},
		{101, 5, false},
		{200, 5, false},
		{201, 10, false},
	}
	for _, tc := range cases {
		ds := ckan.Dataset{Notes: strings.Repeat("é", tc.length), Tags: tags(1)}
		report := newScorer().Score(ds)
		require.Equal(t, tc.points+3, report.Breakdown.Richness, "length %d", tc.length)
		require.Equal(t, tc.issue, contains(report.Issues, quality.IssueShortDescription), "length %d", tc.length)
	}
}

func TestScore_TagTiers(t *testing.T) {
	expected := map[int]int{0: 0, 1: 3, 2: 3, 3: 6, 4: 6, 5: 10, 9: 10}
	for n, points := range expected {
		report := newScorer().Score(ckan.Dataset{Tags: tags(n)})
		require.Equal(t, points, report.Breakdown.Richness, "tags %d", n)
		require.Equal(t, n == 0, contains(report.Issues, quality.IssueNoTags), "tags %d", n)
	}
}

func TestScore_AddingTagsNeverLowersRichness(t *testing.T) {
	scorer := newScorer()
	ds := scenarioDataset()
	ds.Tags = tags(3)
	before := scorer.Score(ds).Breakdown.Richness

	ds.Tags = tags(5)
	after := scorer.Score(ds).Breakdown.Richness
	require.GreaterOrEqual(t, after, before)
	require.Equal(t, 4, after-before)
}

func TestScore_Extras(t *testing.T) {
	scorer := newScorer()

	ds := ckan.Dataset{Extras: []ckan.Extra{{Key: "temporal_end", Value: ""}}}
	require.Equal(t, 3, scorer.Score(ds).Breakdown.Richness)

	ds = ckan.Dataset{Extras: []ckan.Extra{{Key: "update_frequency", Value: ""}}}
	require.Equal(t, 0, scorer.Score(ds).Breakdown.Richness)

	ds = ckan.Dataset{Extras: []ckan.Extra{{Key: "update_frequency", Value: "monthly"}}}
	require.Equal(t, 2, scorer.Score(ds).Breakdown.Richness)

	ds = ckan.Dataset{Extras: []ckan.Extra{{Key: "geographic_coverage", Value: "Roma"}}}
	report := scorer.Score(ds)
	require.Equal(t, 3, report.Breakdown.Completeness)
}

func TestScore_ResourceChecks(t *testing.T) {
	scorer := newScorer()

	t.Run("closed format and bad url", func(t *testing.T) {
		report := scorer.Score(ckan.Dataset{Resources: []ckan.Resource{{Format: "PDF", URL: "ftp://x"}}})
		require.Equal(t, 5, report.Breakdown.Resources)
		require.True(t, contains(report.Issues, quality.IssueNoOpenFormats))
		require.True(t, contains(report.Issues, quality.IssueInvalidURLs))
	})

	t.Run("partial coverage", func(t *testing.T) {
		report := scorer.Score(ckan.Dataset{Resources: []ckan.Resource{
			{Format: "json", URL: "https://x/a.json", Description: "d"},
			{Format: "PDF"},
		}})
		require.Equal(t, 5+10+2+2, report.Breakdown.Resources)
		require.False(t, contains(report.Issues, quality.IssueNoOpenFormats))
		require.False(t, contains(report.Issues, quality.IssueInvalidURLs))
	})

	t.Run("lowercase csv earns bonus", func(t *testing.T) {
		report := scorer.Score(ckan.Dataset{Resources: []ckan.Resource{{Format: "csv", URL: "http://x"}}})
		require.Equal(t, 5+10+2+5, report.Breakdown.Resources)
	})
}

func TestScore_Freshness(t *testing.T) {
	cases := []struct {
		days   int
		points int
	}{
		{0, 10}, {89, 10}, {90, 7}, {179, 7}, {180, 5}, {364, 5}, {365, 3}, {729, 3}, {730, 1},
	}
	for _, tc := range cases {
		report := newScorer().Score(ckan.Dataset{MetadataModified: daysAgo(tc.days)})
		require.Equal(t, tc.points, report.Breakdown.Freshness, "days %d", tc.days)
	}

	report := newScorer().Score(ckan.Dataset{MetadataModified: daysAgo(1000)})
	require.Equal(t, "Last updated 1000 days ago", report.Issues[len(report.Issues)-1])
}

func TestScore_TimestampFormats(t *testing.T) {
	scorer := newScorer()
	for _, value := range []string{
		"2025-12-20T10:00:00Z",
		"2025-12-20T10:00:00.123456",
		"2025-12-20T10:00:00+01:00",
		"2025-12-20 10:00:00",
		"2025-12-20",
	} {
		report := scorer.Score(ckan.Dataset{MetadataModified: value})
		require.Equal(t, 10, report.Breakdown.Freshness, value)
		require.False(t, contains(report.Issues, quality.IssueInvalidDate), value)
	}

	report := scorer.Score(ckan.Dataset{MetadataModified: "last tuesday"})
	require.Equal(t, 0, report.Breakdown.Freshness)
	require.Equal(t, quality.IssueInvalidDate, report.Issues[len(report.Issues)-1])
}

func TestScore_NaiveTimestampUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+12", 12*3600)
	modified := fixedNow.AddDate(0, 0, -90).In(loc).Format("2006-01-02T15:04:05")

	require.Equal(t, 7, newScorer(quality.WithLocation(loc)).Score(ckan.Dataset{MetadataModified: modified}).Breakdown.Freshness)
	require.Equal(t, 10, newScorer().Score(ckan.Dataset{MetadataModified: modified}).Breakdown.Freshness)
}

func TestLevel(t *testing.T) {
	scorer := newScorer()
	require.Equal(t, quality.LevelExcellent, scorer.Level(80))
	require.Equal(t, quality.LevelGood, scorer.Level(79))
	require.Equal(t, quality.LevelGood, scorer.Level(60))
	require.Equal(t, quality.LevelAcceptable, scorer.Level(40))
	require.Equal(t, quality.LevelPoor, scorer.Level(39))

	cfg := quality.DefaultConfig()
	cfg.Levels = quality.Levels{Excellent: 90, Good: 70, Acceptable: 50}
	retuned := quality.NewScorer(cfg)
	require.Equal(t, quality.LevelGood, retuned.Level(89))
	require.Equal(t, quality.LevelPoor, retuned.Level(49))
}

func TestScoreAll_PreservesOrder(t *testing.T) {
	scorer := newScorer()
	datasets := []ckan.Dataset{scenarioDataset(), {}, {Title: "only title"}, scenarioDataset()}

	sequential, err := scorer.ScoreAll(context.Background(), datasets, 1)
	require.NoError(t, err)
	parallel, err := scorer.ScoreAll(context.Background(), datasets, 3)
	require.NoError(t, err)

	require.Equal(t, sequential, parallel)
	require.Equal(t, 89, parallel[0].Score)
	require.Equal(t, 0, parallel[1].Score)
	require.Equal(t, 5, parallel[2].Score)
}

func TestScoreAll_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScorer().ScoreAll(ctx, []ckan.Dataset{{}, {}}, 2)
	require.ErrorIs(t, err, context.Canceled)
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
