package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"tstrend/config"
	"tstrend/models"
)

// Analyzer derives labels and the trend score for raw results.
type Analyzer struct {
	rules   RuleTable
	scored  bool
	weights config.ScoreWeights
	now     func() time.Time
}

// NewAnalyzer creates an Analyzer. When scored is false every item scores 0.
func NewAnalyzer(rules RuleTable, scored bool, weights config.ScoreWeights) *Analyzer {
	return &Analyzer{
		rules:   rules,
		scored:  scored,
		weights: weights,
		now:     time.Now,
	}
}

// Build turns a raw result into its final TrendItem.
func (a *Analyzer) Build(raw models.RawItem) *models.TrendItem {
	item := &models.TrendItem{
		Source:      raw.Source,
		Title:       raw.Title,
		URL:         raw.URL,
		Stars:       raw.Stars,
		Date:        raw.Date,
		Description: raw.Description,
		Author:      raw.Author,
		Topics:      raw.Topics,
		Code:        raw.Code,
	}
	item.Labels = a.Labels(analysisText(raw))
	if a.scored {
		item.Score = a.Score(raw.Source, raw.Stars, raw.Date, item.HasLabel(LabelSOTA))
	}
	return item
}

// BuildAll analyzes items in order.
func (a *Analyzer) BuildAll(raw []models.RawItem) []*models.TrendItem {
	out := make([]*models.TrendItem, 0, len(raw))
	for _, r := range raw {
		out = append(out, a.Build(r))
	}
	return out
}

// Labels returns the sorted, unique labels asserted on text. Matching is
// plain containment, so partial-word hits count.
func (a *Analyzer) Labels(text string) []string {
	text = strings.ToLower(text)
	seen := make(map[string]struct{}, len(a.rules))
	labels := make([]string, 0, len(a.rules))
	for _, r := range a.rules {
		if _, ok := seen[r.Label]; ok {
			continue
		}
		if r.Pattern.MatchString(text) {
			seen[r.Label] = struct{}{}
			labels = append(labels, r.Label)
		}
	}
	sort.Strings(labels)
	return labels
}

// Score computes the trend score:
//
//	velocity = stars / days_old * 100
//	score    = (stars*0.3 + velocity*0.7) * (1.2 if sota)
//
// arXiv papers carry no stars, so they get a fixed base and a velocity that
// only depends on age.
func (a *Analyzer) Score(source models.Source, stars int, date string, sota bool) float64 {
	w := a.weights
	days := a.daysOld(date)

	s := float64(stars)
	velocity := s / float64(days) * 100
	if source == models.SourceArXiv {
		s = float64(w.ArXivStars)
		velocity = w.ArXivVelocity / float64(days)
	}

	score := s*w.StarWeight + velocity*w.VelocityWeight
	if sota {
		score *= w.SOTABoost
	}
	return math.Round(score*10) / 10
}

func (a *Analyzer) daysOld(date string) int {
	now := a.now()
	d, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return max(1, a.weights.UnknownAgeDays)
	}
	return max(1, int(now.Sub(d).Hours()/24))
}

func analysisText(raw models.RawItem) string {
	return raw.Title + " " + raw.Description + " " + strings.Join(raw.Topics, " ") + " " + raw.Extra
}
