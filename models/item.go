package models

import (
	"sort"
	"strconv"
	"time"
)

// Source identifies the platform a result was fetched from.
type Source string

const (
	SourceGitHub    Source = "GitHub"
	SourceHFModel   Source = "HF Model"
	SourceHFDataset Source = "HF Dataset"
	SourceArXiv     Source = "ArXiv"
)

// IsHuggingFace reports whether the source is a Hugging Face listing.
func (s Source) IsHuggingFace() bool {
	return s == SourceHFModel || s == SourceHFDataset
}

// DatePlaceholder is used when a source exposes no usable date.
const DatePlaceholder = "Recent"

// RawItem holds an unprocessed search result exactly as a searcher produced it.
// Extra carries text used only for analysis (abstract, README, pipeline tag).
type RawItem struct {
	Source      Source
	Title       string
	URL         string
	Stars       int
	Date        string
	Description string
	Author      string
	Topics      []string
	Extra       string
	Comment     string
	Code        *CodeLink
}

// TrendItem is the analyzed, immutable record rendered into the report.
type TrendItem struct {
	Source      Source
	Title       string
	URL         string
	Stars       int
	Date        string
	Description string
	Author      string
	Topics      []string
	Labels      []string
	Score       float64
	Code        *CodeLink
}

// HasLabel reports whether the derived label set contains label.
func (t *TrendItem) HasLabel(label string) bool {
	i := sort.SearchStrings(t.Labels, label)
	return i < len(t.Labels) && t.Labels[i] == label
}

// Popularity returns the value used for popularity ordering. Items whose code
// link could not be resolved (rate limited) sort below every known count.
func (t *TrendItem) Popularity() int {
	if t.Code != nil {
		if t.Code.Popularity.State == RateLimited {
			return -1
		}
		return t.Code.Popularity.Stars
	}
	return t.Stars
}

// StarsDisplay renders the popularity shown next to the item: the code link's
// star count in papers mode, the item's own count otherwise.
func (t *TrendItem) StarsDisplay() string {
	if t.Code != nil {
		return t.Code.Popularity.Display()
	}
	return strconv.Itoa(t.Stars)
}

// LookupState is the outcome of resolving a repository's popularity.
type LookupState int

const (
	NotFound LookupState = iota
	Found
	RateLimited
)

func (s LookupState) String() string {
	switch s {
	case Found:
		return "found"
	case RateLimited:
		return "rate_limited"
	default:
		return "not_found"
	}
}

// Popularity is a tri-state star count: Found(n), RateLimited or NotFound.
type Popularity struct {
	State LookupState
	Stars int
}

// Valid reports whether the link points at something that exists, even if its
// star count is unknown.
func (p Popularity) Valid() bool {
	return p.State == Found || p.State == RateLimited
}

// Display renders the star count, or N/A when it is unknown.
func (p Popularity) Display() string {
	if p.State != Found {
		return "N/A"
	}
	return strconv.Itoa(p.Stars)
}

// CodeKind tells which platform a paper's code link points to.
type CodeKind string

const (
	CodeGitHub      CodeKind = "GitHub"
	CodeHuggingFace CodeKind = "HuggingFace"
)

// CodeLink is the best code repository found for a paper.
type CodeLink struct {
	URL        string
	Kind       CodeKind
	Popularity Popularity
}

// Category is one entry of the query catalog.
type Category struct {
	Name        string `yaml:"name"`
	GitHub      string `yaml:"github"`
	HuggingFace string `yaml:"huggingface"`
	ArXiv       string `yaml:"arxiv"`
}

// Section is one tab of the report.
type Section struct {
	Name  string
	Items []*TrendItem
}

// Layout selects how the report is rendered.
type Layout string

const (
	LayoutTabs  Layout = "tabs"
	LayoutCards Layout = "cards"
)

// Report is the aggregated data handed to the renderer.
type Report struct {
	Title       string
	Subtitle    string
	Layout      Layout
	RunID       string
	GeneratedAt time.Time
	Query       string
	Limit       int
	Labels      []string
	// SortKey is the order sections arrive in: "trend", "stars" or "date".
	SortKey  string
	Partial  bool
	Sections []*Section
}

// TotalItems counts items across all sections.
func (r *Report) TotalItems() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Items)
	}
	return n
}
