package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"tstrend/config"
	"tstrend/models"
	"tstrend/utils"
)

const (
	hubBase  = "https://huggingface.co"
	platform = "huggingface"

	// TagPrefix marks a query as a comma-separated list of Hub tags, e.g.
	// "tag:time-series,time-series-forecasting".
	TagPrefix = "tag:"
)

// hubQuery is either a free-text search or a set of tag filters.
type hubQuery struct {
	search string
	tags   []string
}

func parseQuery(query string) hubQuery {
	query = strings.TrimSpace(query)
	rest, ok := strings.CutPrefix(query, TagPrefix)
	if !ok {
		return hubQuery{search: query}
	}
	var tags []string
	for _, tag := range strings.Split(rest, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return hubQuery{tags: tags}
}

func (q hubQuery) empty() bool {
	return q.search == "" && len(q.tags) == 0
}

// forDatasets keeps only the first tag of a tag query for the dataset listing.
func (q hubQuery) forDatasets() hubQuery {
	if len(q.tags) > 1 {
		return hubQuery{tags: q.tags[:1]}
	}
	return q
}

func (q hubQuery) params(limit int) url.Values {
	params := url.Values{}
	if q.search != "" {
		params.Set("search", q.search)
	}
	for _, tag := range q.tags {
		params.Add("filter", tag)
	}
	params.Set("sort", "likes")
	params.Set("direction", "-1")
	params.Set("limit", fmt.Sprint(limit))
	return params
}

// Searcher lists models and datasets from the Hugging Face Hub, most liked first.
type Searcher struct {
	cfg     *config.Config
	logger  *utils.Logger
	metrics *utils.Metrics
	http    *http.Client
	baseURL string
}

// New creates a Searcher. HF_TOKEN, when set, is sent as a bearer token.
func New(cfg *config.Config, logger *utils.Logger, metrics *utils.Metrics) *Searcher {
	client := &http.Client{}
	if cfg.HFToken != "" {
		client = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.HFToken,
			TokenType:   "Bearer",
		}))
	}
	return &Searcher{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		http:    client,
		baseURL: hubBase,
	}
}

type hubEntry struct {
	ID          string   `json:"id"`
	ModelID     string   `json:"modelId"`
	Author      string   `json:"author"`
	Likes       *int     `json:"likes"`
	PipelineTag string   `json:"pipeline_tag"`
	Tags        []string `json:"tags"`
}

func (e hubEntry) name() string {
	if e.ModelID != "" {
		return e.ModelID
	}
	return e.ID
}

func (e hubEntry) author() string {
	if e.Author != "" {
		return e.Author
	}
	owner, _, _ := strings.Cut(e.name(), "/")
	return owner
}

func (e hubEntry) likes() int {
	if e.Likes == nil {
		return 0
	}
	return *e.Likes
}

// Search returns up to limit models for query, followed by up to limit/2
// datasets when datasets are enabled. A query starting with TagPrefix filters
// by Hub tags instead of searching text.
func (s *Searcher) Search(ctx context.Context, query string, limit int) []models.RawItem {
	q := parseQuery(query)
	if q.empty() || limit <= 0 {
		return nil
	}

	items := s.searchModels(ctx, query, q, limit)
	if s.cfg.Datasets && limit/2 > 0 && ctx.Err() == nil {
		items = append(items, s.searchDatasets(ctx, query, q.forDatasets(), limit/2)...)
	}

	s.metrics.AddItems(platform, len(items))
	s.logger.Debug("[huggingface] %q -> %d entries", query, len(items))
	return items
}

func (s *Searcher) searchModels(ctx context.Context, query string, q hubQuery, limit int) []models.RawItem {
	entries, err := s.list(ctx, "/api/models", q, limit)
	if err != nil {
		s.logger.Warn("[huggingface] Model search %q failed: %v", query, err)
		return nil
	}

	items := make([]models.RawItem, 0, len(entries))
	for _, e := range entries {
		pipeline := e.PipelineTag
		if pipeline == "" {
			pipeline = "unknown"
		}
		items = append(items, models.RawItem{
			Source:      models.SourceHFModel,
			Title:       e.name(),
			URL:         hubBase + "/" + e.name(),
			Stars:       e.likes(),
			Date:        models.DatePlaceholder,
			Description: "Task: " + pipeline,
			Author:      e.author(),
			Topics:      e.Tags,
			Extra:       e.PipelineTag,
		})
	}
	return items
}

func (s *Searcher) searchDatasets(ctx context.Context, query string, q hubQuery, limit int) []models.RawItem {
	entries, err := s.list(ctx, "/api/datasets", q, limit)
	if err != nil {
		s.logger.Warn("[huggingface] Dataset search %q failed: %v", query, err)
		return nil
	}

	items := make([]models.RawItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.RawItem{
			Source:      models.SourceHFDataset,
			Title:       e.name(),
			URL:         hubBase + "/datasets/" + e.name(),
			Stars:       e.likes(),
			Date:        models.DatePlaceholder,
			Description: "Time Series Dataset",
			Author:      e.author(),
			Topics:      e.Tags,
		})
	}
	return items
}

func (s *Searcher) list(ctx context.Context, endpoint string, q hubQuery, limit int) ([]hubEntry, error) {
	params := q.params(limit)

	if s.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SearchTimeout)
		defer cancel()
	}

	start := time.Now()
	entries, err := s.fetch(ctx, s.baseURL+endpoint+"?"+params.Encode())
	outcome := utils.OutcomeOK
	if err != nil {
		outcome = utils.OutcomeError
	}
	s.metrics.ObserveRequest(platform, outcome, time.Since(start))
	if err != nil {
		return nil, err
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Searcher) fetch(ctx context.Context, rawURL string) ([]hubEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var entries []hubEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return entries, nil
}
