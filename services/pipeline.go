package services

import (
	"context"
	"time"

	"tstrend/config"
	"tstrend/models"
	"tstrend/utils"
)

// GitHubSource searches repositories and resolves repository popularity.
type GitHubSource interface {
	Search(ctx context.Context, query string, limit, days int) []models.RawItem
	RepoLookup
}

// HubSource searches Hugging Face.
type HubSource interface {
	Search(ctx context.Context, query string, limit int) []models.RawItem
}

// PaperSource searches arXiv. Scan delivers results page by page so papers
// can be processed while the rest are still being fetched.
type PaperSource interface {
	Search(ctx context.Context, query string, limit int) []models.RawItem
	Scan(ctx context.Context, query string, limit int, onPage func([]models.RawItem)) int
}

// Pipeline runs one scan according to the configured profile.
type Pipeline struct {
	cfg        *config.Config
	logger     *utils.Logger
	github     GitHubSource
	hub        HubSource
	papers     PaperSource
	cleaner    *Cleaner
	analyzer   *Analyzer
	aggregator *Aggregator
	now        func() time.Time
}

func NewPipeline(cfg *config.Config, logger *utils.Logger, gh GitHubSource, hub HubSource, papers PaperSource) *Pipeline {
	p := cfg.Profile
	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		github:     gh,
		hub:        hub,
		papers:     papers,
		cleaner:    NewCleaner(logger, p.Dedup),
		analyzer:   NewAnalyzer(RulesFor(p.Rules), p.Scored, cfg.Weights),
		aggregator: NewAggregator(logger, p.Sort, p.Dedup),
		now:        time.Now,
	}
}

// Run scans every source and returns the report. Cancelling ctx stops the
// scan early; the report then holds what was collected and Partial is set.
func (p *Pipeline) Run(ctx context.Context, runID string) *models.Report {
	prof := p.cfg.Profile
	report := &models.Report{
		Title:       prof.Title,
		Subtitle:    prof.Subtitle,
		Layout:      prof.Layout,
		RunID:       runID,
		GeneratedAt: p.now(),
		Query:       p.cfg.Query,
		Limit:       p.cfg.Limit,
		Labels:      RulesFor(prof.Rules).Labels(),
		SortKey:     reportSort(prof.Sort),
	}

	switch prof.Mode {
	case config.ModePapers:
		report.Sections = []*models.Section{p.scanPapers(ctx)}
	default:
		report.Sections = p.scanCategories(ctx)
	}

	report.Partial = ctx.Err() != nil
	if report.Partial {
		p.logger.Warn("[pipeline] Interrupted, generating report with %d items collected so far", report.TotalItems())
	}
	return report
}

func (p *Pipeline) scanCategories(ctx context.Context) []*models.Section {
	p.logger.Info("[pipeline] Scanning %d categories (last %d days, limit %d)",
		len(p.cfg.Catalog), p.cfg.Days, p.cfg.Limit)

	sections := make([]*models.Section, 0, len(p.cfg.Catalog))
	for i, cat := range p.cfg.Catalog {
		if ctx.Err() != nil {
			break
		}
		p.logger.Info("[pipeline] [%d/%d] %s", i+1, len(p.cfg.Catalog), cat.Name)

		var raw []models.RawItem
		if cat.GitHub != "" {
			gh := p.github.Search(ctx, cat.GitHub, p.cfg.Limit, p.cfg.Days)
			p.logger.Info("[pipeline]   GitHub: %d", len(gh))
			raw = append(raw, gh...)
			if err := utils.Pause(ctx, p.cfg.SourceInterval); err != nil {
				sections = append(sections, p.section(cat.Name, raw))
				break
			}
		}
		if cat.HuggingFace != "" && ctx.Err() == nil {
			hf := p.hub.Search(ctx, cat.HuggingFace, p.cfg.Limit)
			p.logger.Info("[pipeline]   Hugging Face: %d", len(hf))
			raw = append(raw, hf...)
		}
		if cat.ArXiv != "" && ctx.Err() == nil {
			ax := p.papers.Search(ctx, cat.ArXiv, p.cfg.Limit)
			p.logger.Info("[pipeline]   arXiv: %d", len(ax))
			raw = append(raw, ax...)
		}

		sections = append(sections, p.section(cat.Name, raw))
	}
	return sections
}

func (p *Pipeline) scanPapers(ctx context.Context) *models.Section {
	p.logger.Info("[pipeline] Starting arXiv scan")
	p.logger.Info("[pipeline] Query: %s", p.cfg.Query)
	p.logger.Info("[pipeline] Limit: %d papers", p.cfg.Limit)

	finder := NewLinkFinder(p.github, utils.NewThrottle(p.cfg.LookupInterval), p.logger)

	// Links are checked between pages, so an interrupt keeps every paper
	// already resolved.
	withCode := make([]models.RawItem, 0)
	checked := 0
	fetched := p.papers.Scan(ctx, p.cfg.Query, p.cfg.Limit, func(page []models.RawItem) {
		for _, paper := range page {
			if ctx.Err() != nil {
				return
			}
			checked++
			if checked%50 == 0 {
				p.logger.Info("[pipeline] Checking links... %d/%d", checked, p.cfg.Limit)
			}

			links := ExtractLinks(paper.Title + " " + paper.Description + " " + paper.Comment)
			if len(links) == 0 {
				continue
			}
			best := finder.Best(ctx, links)
			if best == nil {
				continue
			}

			paper.Code = best
			withCode = append(withCode, paper)
			p.logger.Debug("[pipeline] Found: %d papers (latest: %s)", len(withCode), truncate(paper.Title, 20))
		}
	})

	p.logger.Info("[pipeline] Checked %d of %d fetched papers", checked, fetched)
	p.logger.Info("[pipeline] Total papers with code found: %d", len(withCode))
	return p.section("Papers with code", withCode)
}

func (p *Pipeline) section(name string, raw []models.RawItem) *models.Section {
	items := p.analyzer.BuildAll(p.cleaner.Clean(raw))
	return p.aggregator.Section(name, items)
}

// reportSort maps the profile's sort key to the report's sort control.
func reportSort(key config.SortKey) string {
	if key == config.SortTrend {
		return "trend"
	}
	return "stars"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
