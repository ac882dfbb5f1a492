package quality

// Levels holds the minimum score for each quality level. Scores below
// Acceptable are poor.
type Levels struct {
	Excellent  int `json:"excellent" yaml:"excellent"`
	Good       int `json:"good" yaml:"good"`
	Acceptable int `json:"acceptable" yaml:"acceptable"`
}

// LengthTier awards Points when the description is longer than Above
// characters.
type LengthTier struct {
	Above  int
	Points int
}

// CountTier awards Points when there are at least AtLeast items.
type CountTier struct {
	AtLeast int
	Points  int
}

// AgeTier awards Points when the dataset is younger than Under days.
type AgeTier struct {
	Under  int
	Points int
}

// Weights are the point values of individual checks.
type Weights struct {
	RequiredField    int
	RecommendedField int
	GeoCoverage      int

	TemporalCoverage int
	UpdateFrequency  int

	ResourceBaseline int
	OpenFormat       int
	CSVBonus         int
	AllDescribed     int
	SomeDescribed    int
	Datastore        int
	AllURLsValid     int
	SomeURLsValid    int

	StaleFreshness int
}

// Caps bound each section of the breakdown. Zero means unbounded.
type Caps struct {
	Completeness int
	Richness     int
	Resources    int
	Freshness    int
}

// Config holds every tunable of the scorer.
type Config struct {
	Levels           Levels
	Weights          Weights
	Caps             Caps
	DescriptionTiers []LengthTier // highest first
	TagTiers         []CountTier  // highest first
	FreshnessTiers   []AgeTier    // youngest first
	OpenFormats      []string     // uppercase
}

// DefaultConfig returns the standard 100-point scheme.
func DefaultConfig() Config {
	return Config{
		Levels: Levels{Excellent: 80, Good: 60, Acceptable: 40},
		Weights: Weights{
			RequiredField:    5,
			RecommendedField: 3,
			GeoCoverage:      3,
			TemporalCoverage: 3,
			UpdateFrequency:  2,
			ResourceBaseline: 5,
			OpenFormat:       10,
			CSVBonus:         2,
			AllDescribed:     5,
			SomeDescribed:    2,
			Datastore:        5,
			AllURLsValid:     5,
			SomeURLsValid:    2,
			StaleFreshness:   1,
		},
		Caps: Caps{Completeness: 30, Richness: 30, Resources: 30, Freshness: 10},
		DescriptionTiers: []LengthTier{
			{Above: 200, Points: 10},
			{Above: 100, Points: 5},
			{Above: 0, Points: 2},
		},
		TagTiers: []CountTier{
			{AtLeast: 5, Points: 10},
			{AtLeast: 3, Points: 6},
			{AtLeast: 1, Points: 3},
		},
		FreshnessTiers: []AgeTier{
			{Under: 90, Points: 10},
			{Under: 180, Points: 7},
			{Under: 365, Points: 5},
			{Under: 730, Points: 3},
		},
		OpenFormats: []string{"CSV", "JSON", "GEOJSON", "XML", "RDF", "JSONLD"},
	}
}
