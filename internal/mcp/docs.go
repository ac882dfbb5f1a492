package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `ckanflow scores CKAN open-data metadata and runs small exploration workflows against a CKAN portal.

Tools:
- score_dataset(dataset): 0-100 quality score with completeness/richness/resources/freshness breakdown, level and issues. Pure; no catalog access.
- classify_resource(resource): datastore | csv | unknown. A DataStore-backed resource is always "datastore".
- run_quality_pipeline(query, rows?, threshold?): search -> quality filter -> CSV resource list.
- run_exploration(query, rows?, selector?, quality_filter?, threshold?): search -> select dataset -> select first resource -> DataStore sample, CSV description, or skip.

Workflow results are run states. When "error" is set the run stopped at that step; earlier results are kept.

Docs:
- ckanflow://docs/scoring (rubric and levels)
- ckanflow://docs/workflows (steps, routing, errors)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "ckanflow://docs/scoring",
		Name:        "docs_scoring",
		Title:       "Metadata quality rubric",
		Description: "How score_dataset awards points and which issues it reports.",
		Content: `# Metadata quality rubric

Score = completeness (max 30) + richness (max 30) + resources (max 30) + freshness (max 10).

## Completeness
- title, notes, name: 5 each ("Missing title", "Missing description", "Missing identifier")
- license_id, author or maintainer, author_email or maintainer_email, organization: 3 each
- extras key spatial or geographic_coverage: +3, no issue when absent

## Richness
- notes longer than 200 characters: 10; longer than 100: 5; any: 2; else "Very short or missing description"
- 5+ tags: 10; 3+: 6; 1+: 3; else "No tags"
- extras temporal_start or temporal_end: +3
- extras frequency or update_frequency with a value: +2

## Resources
- none: 0 and "No resources"
- at least one: 5
- any of CSV, JSON, GEOJSON, XML, RDF, JSONLD: 10, plus 2 when CSV is present; else "No open formats (CSV/JSON/XML)"
- every resource described: 5; some: 2
- any DataStore-backed resource: 5
- every URL starts with http: 5; some: 2; none: "Invalid or missing resource URLs"
- the section is capped at 30

## Freshness (metadata_modified)
- under 90 days: 10; 180: 7; 365: 5; 730: 3; older: 1 and "Last updated N days ago"
- missing: "No last modified date"; unparseable: "Invalid date format"

## Levels
excellent >= 80, good >= 60, acceptable >= 40, otherwise poor. Thresholds are server configuration.
`,
	},
	{
		URI:         "ckanflow://docs/workflows",
		Name:        "docs_workflows",
		Title:       "Workflow steps",
		Description: "Steps, routing and failure handling of run_quality_pipeline and run_exploration.",
		Content: `# Workflows

## run_quality_pipeline
search -> filter -> extract_csv

- filter attaches each report under "_quality" and keeps datasets scoring at least the threshold.
- extract_csv looks at the first filtered datasets and lists CSV resources with their dataset name and title.

## run_exploration
search -> [filter] -> select_dataset -> select_resource -> analyze_datastore | analyze_csv | skip_analysis

- selector: "first" (default), "best_quality", or "name:<dataset name or id>".
- select_resource takes the first resource and classifies it.
- analyze_datastore samples a few DataStore rows and lists the field ids.
- analyze_csv reports url and format without downloading.
- skip_analysis marks unknown formats.

## Failures
A step that fails sets "error" and every later step passes the state through unchanged. Typical errors:
- the catalog's own error message (for example "Server not found: ...")
- "Unexpected response structure"
- "No datasets available", "No resources available"
- "DataStore query failed"

The "steps" list shows which steps ran.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
