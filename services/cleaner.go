package services

import (
	"strings"
	"unicode"

	"tstrend/models"
	"tstrend/utils"
)

// Cleaner normalises raw results before analysis.
type Cleaner struct {
	logger *utils.Logger
	dedup  bool
}

// NewCleaner creates a Cleaner. With dedup set, later results whose URL was
// already seen are dropped.
func NewCleaner(logger *utils.Logger, dedup bool) *Cleaner {
	return &Cleaner{logger: logger, dedup: dedup}
}

// Clean trims text fields, fills a missing date and drops results without a URL.
func (c *Cleaner) Clean(raw []models.RawItem) []models.RawItem {
	seen := utils.NewURLSet()
	result := make([]models.RawItem, 0, len(raw))

	for _, r := range raw {
		r.URL = strings.TrimSpace(r.URL)
		if r.URL == "" {
			c.logger.Warn("[cleaner] Dropping result with empty URL: %s", r.Title)
			continue
		}

		if !seen.Add(r.URL) && c.dedup {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", r.URL)
			continue
		}

		r.Title = normaliseText(r.Title)
		r.Description = normaliseText(r.Description)
		r.Author = normaliseText(r.Author)
		if strings.TrimSpace(r.Date) == "" {
			r.Date = models.DatePlaceholder
		}

		result = append(result, r)
	}

	if dropped := len(raw) - len(result); dropped > 0 {
		c.logger.Debug("[cleaner] Cleaned %d → %d results (dropped %d)", len(raw), len(result), dropped)
	}
	return result
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
