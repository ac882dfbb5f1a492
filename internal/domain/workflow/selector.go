package workflow

import (
	"fmt"
	"strings"
)

// Selector names accepted by SelectorByName.
const (
	SelectorFirst       = "first"
	SelectorBestQuality = "best_quality"
)

// FirstSelector picks the first candidate.
type FirstSelector struct{}

func (FirstSelector) Select(candidates []ScoredDataset) (ScoredDataset, bool) {
	if len(candidates) == 0 {
		return ScoredDataset{}, false
	}
	return candidates[0], true
}

// BestQualitySelector picks the highest scoring candidate, keeping the
// earliest on ties. Unscored candidates rank below every scored one.
type BestQualitySelector struct{}

func (BestQualitySelector) Select(candidates []ScoredDataset) (ScoredDataset, bool) {
	best := -1
	for i, c := range candidates {
		if best < 0 || score(c) > score(candidates[best]) {
			best = i
		}
	}
	if best < 0 {
		return ScoredDataset{}, false
	}
	return candidates[best], true
}

func score(d ScoredDataset) int {
	if d.Quality == nil {
		return -1
	}
	return d.Quality.Score
}

// NameSelector picks the candidate whose name or id matches.
type NameSelector struct {
	Name string
}

func (n NameSelector) Select(candidates []ScoredDataset) (ScoredDataset, bool) {
	for _, c := range candidates {
		if c.Name == n.Name || (c.ID != "" && c.ID == n.Name) {
			return c, true
		}
	}
	return ScoredDataset{}, false
}

// SelectorByName resolves "first", "best_quality" or "name:<dataset>". An
// empty name means first.
func SelectorByName(name string) (Selector, error) {
	switch name = strings.TrimSpace(name); {
	case name == "" || name == SelectorFirst:
		return FirstSelector{}, nil
	case name == SelectorBestQuality:
		return BestQualitySelector{}, nil
	case strings.HasPrefix(name, "name:") && len(name) > len("name:"):
		return NameSelector{Name: strings.TrimPrefix(name, "name:")}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSelector, name)
	}
}
