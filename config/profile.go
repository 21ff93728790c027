package config

import (
	"fmt"
	"sort"
	"strings"

	"tstrend/models"
)

// SortKey names the ordering applied to every report section.
type SortKey string

const (
	SortTrend     SortKey = "trend"
	SortStars     SortKey = "stars"
	SortStarsDate SortKey = "stars-date"
)

// RuleSet selects the tag table the analyzer evaluates.
type RuleSet string

const (
	RulesCapability RuleSet = "capability"
	RulesMethods    RuleSet = "methods"
)

// Mode selects the scan loop.
type Mode string

const (
	// ModeCategories queries every source once per catalog category.
	ModeCategories Mode = "categories"
	// ModePapers scans one arXiv query and keeps only papers that link to code.
	ModePapers Mode = "papers"
)

// Profile bundles everything that distinguishes one report flavour from another.
type Profile struct {
	Name     string
	Title    string
	Subtitle string
	Mode     Mode
	Layout   models.Layout
	Sort     SortKey
	Rules    RuleSet
	Scored   bool
	Dedup    bool

	ArXivAuthors int

	DefaultLimit  int
	DefaultDays   int
	DefaultOutput string
	DefaultQuery  string

	Catalog func() []models.Category
}

var profiles = map[string]Profile{
	"advanced": {
		Name:          "advanced",
		Title:         "TS Trend Advanced",
		Subtitle:      "Metrics & SOTA & Env",
		Mode:          ModeCategories,
		Layout:        models.LayoutTabs,
		Sort:          SortTrend,
		Rules:         RulesCapability,
		Scored:        true,
		ArXivAuthors:  2,
		DefaultLimit:  15,
		DefaultDays:   365,
		DefaultOutput: "ts_trend_advanced_report.html",
		Catalog:       AdvancedCatalog,
	},
	"methods": {
		Name:          "methods",
		Title:         "TS Trend Hunter",
		Subtitle:      "Integrated Edition",
		Mode:          ModeCategories,
		Layout:        models.LayoutTabs,
		Sort:          SortStars,
		Rules:         RulesMethods,
		ArXivAuthors:  2,
		DefaultLimit:  20,
		DefaultDays:   365,
		DefaultOutput: "ts_trend_integrated_report.html",
		Catalog:       MethodsCatalog,
	},
	"papers": {
		Name:          "papers",
		Title:         "ArXiv Trend Report",
		Mode:          ModePapers,
		Layout:        models.LayoutCards,
		Sort:          SortStarsDate,
		Rules:         RulesCapability,
		Dedup:         true,
		ArXivAuthors:  3,
		DefaultLimit:  500,
		DefaultDays:   365,
		DefaultOutput: "arxiv_trending_timeseries.html",
		DefaultQuery:  `all:"time series" OR all:"time-series" OR all:"forecasting" OR all:"temporal"`,
	},
}

// LookupProfile returns the named profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (want one of %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames lists the registered profiles alphabetically.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
