package services

import (
	"sort"

	"tstrend/config"
	"tstrend/models"
	"tstrend/utils"
)

// Aggregator orders analyzed items into report sections.
type Aggregator struct {
	logger *utils.Logger
	key    config.SortKey
	dedup  bool
	seen   *utils.URLSet
}

// NewAggregator creates an Aggregator ordering by key. With dedup set an item
// URL appears at most once across the whole report.
func NewAggregator(logger *utils.Logger, key config.SortKey, dedup bool) *Aggregator {
	return &Aggregator{
		logger: logger,
		key:    key,
		dedup:  dedup,
		seen:   utils.NewURLSet(),
	}
}

// Section builds one report section from items in source order.
func (a *Aggregator) Section(name string, items []*models.TrendItem) *models.Section {
	if a.dedup {
		kept := items[:0:0]
		for _, it := range items {
			if a.seen.Add(it.URL) {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	SortItems(items, a.key)
	a.logger.Debug("[aggregator] %s: %d items sorted by %s", name, len(items), a.key)
	return &models.Section{Name: name, Items: items}
}

// SortItems sorts in place, highest first. Equal keys keep their input order.
func SortItems(items []*models.TrendItem, key config.SortKey) {
	sort.SliceStable(items, func(i, j int) bool {
		return greater(items[i], items[j], key)
	})
}

func greater(a, b *models.TrendItem, key config.SortKey) bool {
	switch key {
	case config.SortTrend:
		return a.Score > b.Score
	case config.SortStarsDate:
		pa, pb := a.Popularity(), b.Popularity()
		if pa != pb {
			return pa > pb
		}
		return a.Date > b.Date
	default:
		return a.Popularity() > b.Popularity()
	}
}
