package quality

// Level is the qualitative band of a score.
type Level string

const (
	LevelExcellent  Level = "excellent"
	LevelGood       Level = "good"
	LevelAcceptable Level = "acceptable"
	LevelPoor       Level = "poor"
)

// Breakdown holds the four section scores.
type Breakdown struct {
	Completeness int `json:"completeness"`
	Richness     int `json:"richness"`
	Resources    int `json:"resources"`
	Freshness    int `json:"freshness"`
}

// Total sums the sections.
func (b Breakdown) Total() int {
	return b.Completeness + b.Richness + b.Resources + b.Freshness
}

// Report is the outcome of scoring one dataset.
type Report struct {
	Score     int       `json:"score"`
	Level     Level     `json:"level"`
	Breakdown Breakdown `json:"breakdown"`
	Issues    []string  `json:"issues"`
}

// Issue messages recorded while scoring.
const (
	IssueMissingTitle       = "Missing title"
	IssueMissingDescription = "Missing description"
	IssueMissingIdentifier  = "Missing identifier"
	IssueMissingLicense     = "Missing license"
	IssueMissingAuthor      = "Missing author/maintainer"
	IssueMissingEmail       = "Missing contact email"
	IssueNoOrganization     = "Not assigned to organization"
	IssueShortDescription   = "Very short or missing description"
	IssueNoTags             = "No tags"
	IssueNoResources        = "No resources"
	IssueNoOpenFormats      = "No open formats (CSV/JSON/XML)"
	IssueInvalidURLs        = "Invalid or missing resource URLs"
	IssueNoModifiedDate     = "No last modified date"
	IssueInvalidDate        = "Invalid date format"
	issueStaleFormat        = "Last updated %d days ago"
)
