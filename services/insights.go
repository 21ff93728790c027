package services

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/cli/go-gh/v2/pkg/text"

	"tstrend/config"
	"tstrend/models"
	"tstrend/utils"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

// sourceOrder fixes the summary column order.
var sourceOrder = []models.Source{
	models.SourceGitHub, models.SourceHFModel, models.SourceHFDataset, models.SourceArXiv,
}

type InsightService struct {
	logger *utils.Logger
	key    config.SortKey
	topN   int
}

func NewInsightService(logger *utils.Logger, key config.SortKey) *InsightService {
	return &InsightService{logger: logger, key: key, topN: 5}
}

func (s *InsightService) Generate(r *models.Report) *models.InsightReport {
	out := &models.InsightReport{
		BySource:    make(map[models.Source]int),
		LabelCounts: make(map[string]int),
		Partial:     r.Partial,
	}

	var all []*models.TrendItem
	for _, sec := range r.Sections {
		sum := models.SectionSummary{Name: sec.Name, BySource: make(map[models.Source]int)}
		for _, it := range sec.Items {
			sum.Total++
			sum.BySource[it.Source]++
			out.BySource[it.Source]++
			for _, l := range it.Labels {
				out.LabelCounts[l]++
			}
			if it.Code != nil && it.Code.Popularity.State == models.RateLimited {
				out.RateLimited++
			}
			all = append(all, it)
		}
		out.TotalItems += sum.Total
		out.Sections = append(out.Sections, sum)
	}

	top := make([]*models.TrendItem, len(all))
	copy(top, all)
	SortItems(top, s.key)
	if len(top) > s.topN {
		top = top[:s.topN]
	}
	out.Top = top

	return out
}

// Print writes the summary tables. width bounds the table on a terminal.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport, isTTY bool, width int) error {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("TREND SCAN SUMMARY"))
	if r.Partial {
		fmt.Fprintln(w, warnStyle.Render("Interrupted: report holds partial results"))
	}
	fmt.Fprintln(w, subtleStyle.Render(fmt.Sprintf("%s collected", text.Pluralize(r.TotalItems, "item"))))
	fmt.Fprintln(w)

	tp := tableprinter.New(w, isTTY, width)
	header := []string{"SECTION"}
	for _, src := range sourceOrder {
		header = append(header, string(src))
	}
	header = append(header, "TOTAL")
	tp.AddHeader(header)

	for _, sec := range r.Sections {
		tp.AddField(sec.Name)
		for _, src := range sourceOrder {
			tp.AddField(strconv.Itoa(sec.BySource[src]))
		}
		tp.AddField(strconv.Itoa(sec.Total))
		tp.EndRow()
	}
	if err := tp.Render(); err != nil {
		return fmt.Errorf("render section table: %w", err)
	}

	if len(r.Top) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Top %d", len(r.Top))))
		top := tableprinter.New(w, isTTY, width)
		top.AddHeader([]string{"#", "TITLE", "SOURCE", "STARS", "SCORE"})
		for i, it := range r.Top {
			top.AddField(strconv.Itoa(i + 1))
			top.AddField(it.Title)
			top.AddField(string(it.Source))
			top.AddField(it.StarsDisplay())
			top.AddField(strconv.FormatFloat(it.Score, 'f', 1, 64))
			top.EndRow()
		}
		if err := top.Render(); err != nil {
			return fmt.Errorf("render top table: %w", err)
		}
	}

	if len(r.LabelCounts) > 0 {
		labels := make([]string, 0, len(r.LabelCounts))
		for l := range r.LabelCounts {
			labels = append(labels, l)
		}
		sort.Slice(labels, func(i, j int) bool {
			ci, cj := r.LabelCounts[labels[i]], r.LabelCounts[labels[j]]
			if ci != cj {
				return ci > cj
			}
			return labels[i] < labels[j]
		})

		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Labels"))
		for _, l := range labels {
			fmt.Fprintf(w, "  %-18s %d\n", l, r.LabelCounts[l])
		}
	}

	if r.RateLimited > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf(
			"%s hit the GitHub rate limit; set GITHUB_TOKEN for star counts",
			text.Pluralize(r.RateLimited, "repository lookup"))))
	}
	fmt.Fprintln(w)
	return nil
}
