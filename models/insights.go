package models

// SectionSummary counts the items of one report section per source.
type SectionSummary struct {
	Name     string
	Total    int
	BySource map[Source]int
}

// InsightReport is the end-of-run summary printed to the console.
type InsightReport struct {
	TotalItems  int
	BySource    map[Source]int
	Sections    []SectionSummary
	LabelCounts map[string]int
	Top         []*TrendItem
	RateLimited int
	Partial     bool
}
