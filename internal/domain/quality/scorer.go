// Package quality scores CKAN dataset metadata for completeness, richness,
// resource quality and freshness.
package quality

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rpggio/ckanflow/internal/ckan"
	"golang.org/x/sync/errgroup"
)

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Scorer computes quality reports. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	cfg  Config
	now  func() time.Time
	loc  *time.Location
	open map[string]bool
}

// Option customizes a Scorer.
type Option func(*Scorer)

// WithClock fixes the reference time used for freshness.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithLocation sets the zone used for timestamps without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Scorer) { s.loc = loc }
}

// NewScorer creates a scorer for cfg.
func NewScorer(cfg Config, opts ...Option) *Scorer {
	s := &Scorer{
		cfg:  cfg,
		now:  time.Now,
		loc:  time.UTC,
		open: make(map[string]bool, len(cfg.OpenFormats)),
	}
	for _, f := range cfg.OpenFormats {
		s.open[strings.ToUpper(f)] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the scorer was built with.
func (s *Scorer) Config() Config {
	return s.cfg
}

// ScoreDataset scores d with the default configuration and the wall clock.
func ScoreDataset(d ckan.Dataset) Report {
	return NewScorer(DefaultConfig()).Score(d)
}

// Score computes the report for one dataset. It never fails: missing or
// malformed metadata scores zero and adds an issue.
func (s *Scorer) Score(d ckan.Dataset) Report {
	issues := make([]string, 0)
	breakdown := Breakdown{
		Completeness: clamp(s.completeness(d, &issues), s.cfg.Caps.Completeness),
		Richness:     clamp(s.richness(d, &issues), s.cfg.Caps.Richness),
		Resources:    clamp(s.resources(d, &issues), s.cfg.Caps.Resources),
		Freshness:    clamp(s.freshness(d, &issues), s.cfg.Caps.Freshness),
	}
	total := breakdown.Total()
	return Report{
		Score:     total,
		Level:     s.Level(total),
		Breakdown: breakdown,
		Issues:    issues,
	}
}

// ScoreAll scores datasets with at most concurrency workers. Reports keep the
// order of the input.
func (s *Scorer) ScoreAll(ctx context.Context, datasets []ckan.Dataset, concurrency int) ([]Report, error) {
	reports := make([]Report, len(datasets))
	if concurrency <= 1 {
		for i, d := range datasets {
			reports[i] = s.Score(d)
		}
		return reports, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range datasets {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			reports[i] = s.Score(datasets[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring datasets: %w", err)
	}
	return reports, nil
}

// Level maps a score to its band, highest threshold first.
func (s *Scorer) Level(score int) Level {
	switch {
	case score >= s.cfg.Levels.Excellent:
		return LevelExcellent
	case score >= s.cfg.Levels.Good:
		return LevelGood
	case score >= s.cfg.Levels.Acceptable:
		return LevelAcceptable
	default:
		return LevelPoor
	}
}

func (s *Scorer) completeness(d ckan.Dataset, issues *[]string) int {
	w := s.cfg.Weights
	score := 0

	score += check(d.Title != "", w.RequiredField, IssueMissingTitle, issues)
	score += check(d.Notes != "", w.RequiredField, IssueMissingDescription, issues)
	score += check(d.Name != "", w.RequiredField, IssueMissingIdentifier, issues)

	score += check(d.LicenseID != "", w.RecommendedField, IssueMissingLicense, issues)
	score += check(d.Author != "" || d.Maintainer != "", w.RecommendedField, IssueMissingAuthor, issues)
	score += check(d.AuthorEmail != "" || d.MaintainerEmail != "", w.RecommendedField, IssueMissingEmail, issues)
	score += check(d.Organization != nil, w.RecommendedField, IssueNoOrganization, issues)

	if d.HasExtra("spatial", "geographic_coverage") {
		score += w.GeoCoverage
	}
	return score
}

func (s *Scorer) richness(d ckan.Dataset, issues *[]string) int {
	w := s.cfg.Weights
	score := 0

	notesLen := utf8.RuneCountInString(d.Notes)
	points, ok := 0, false
	for _, tier := range s.cfg.DescriptionTiers {
		if notesLen > tier.Above {
			points, ok = tier.Points, true
			break
		}
	}
	if !ok {
		*issues = append(*issues, IssueShortDescription)
	}
	score += points

	points, ok = 0, false
	for _, tier := range s.cfg.TagTiers {
		if len(d.Tags) >= tier.AtLeast {
			points, ok = tier.Points, true
			break
		}
	}
	if !ok {
		*issues = append(*issues, IssueNoTags)
	}
	score += points

	if d.HasExtra("temporal_start", "temporal_end") {
		score += w.TemporalCoverage
	}
	if extraSet(d, "frequency") || extraSet(d, "update_frequency") {
		score += w.UpdateFrequency
	}
	return score
}

func (s *Scorer) resources(d ckan.Dataset, issues *[]string) int {
	w := s.cfg.Weights
	if len(d.Resources) == 0 {
		*issues = append(*issues, IssueNoResources)
		return 0
	}
	score := w.ResourceBaseline

	formats := make(map[string]bool, len(d.Resources))
	described, validURLs, datastore := 0, 0, false
	for _, r := range d.Resources {
		formats[strings.ToUpper(r.Format)] = true
		if r.Description != "" {
			described++
		}
		if r.DatastoreActive {
			datastore = true
		}
		if strings.HasPrefix(r.URL, "http") {
			validURLs++
		}
	}

	hasOpen := false
	for f := range formats {
		if s.open[f] {
			hasOpen = true
			break
		}
	}
	if hasOpen {
		score += w.OpenFormat
		if formats["CSV"] {
			score += w.CSVBonus
		}
	} else {
		*issues = append(*issues, IssueNoOpenFormats)
	}

	// Partial description coverage earns points without an issue.
	switch {
	case described == len(d.Resources):
		score += w.AllDescribed
	case described > 0:
		score += w.SomeDescribed
	}

	if datastore {
		score += w.Datastore
	}

	switch {
	case validURLs == len(d.Resources):
		score += w.AllURLsValid
	case validURLs > 0:
		score += w.SomeURLsValid
	default:
		*issues = append(*issues, IssueInvalidURLs)
	}
	return score
}

func (s *Scorer) freshness(d ckan.Dataset, issues *[]string) int {
	if d.MetadataModified == "" {
		*issues = append(*issues, IssueNoModifiedDate)
		return 0
	}
	modified, err := s.parseTimestamp(d.MetadataModified)
	if err != nil {
		*issues = append(*issues, IssueInvalidDate)
		return 0
	}

	now := s.now().In(modified.Location())
	days := int(math.Floor(now.Sub(modified).Hours() / 24))
	for _, tier := range s.cfg.FreshnessTiers {
		if days < tier.Under {
			return tier.Points
		}
	}
	*issues = append(*issues, fmt.Sprintf(issueStaleFormat, days))
	return s.cfg.Weights.StaleFreshness
}

func (s *Scorer) parseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, value, s.loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func check(ok bool, points int, issue string, issues *[]string) int {
	if ok {
		return points
	}
	*issues = append(*issues, issue)
	return 0
}

// clamp bounds score by ceiling; a zero ceiling leaves it unbounded.
func clamp(score, ceiling int) int {
	if ceiling > 0 && score > ceiling {
		return ceiling
	}
	return score
}

// extraSet reports whether the extra named key carries a non-empty value.
func extraSet(d ckan.Dataset, key string) bool {
	v, ok := d.ExtraValue(key)
	if !ok {
		return false
	}
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
