package arxiv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"tstrend/config"
	"tstrend/models"
	"tstrend/utils"
)

const (
	apiURL   = "http://export.arxiv.org/api/query"
	platform = "arxiv"
	pageSize = 100
)

// Searcher queries the arXiv Atom API, newest submissions first.
type Searcher struct {
	cfg      *config.Config
	logger   *utils.Logger
	metrics  *utils.Metrics
	http     *http.Client
	endpoint string
	pages    *utils.Throttle
}

// New creates a Searcher. Consecutive result pages are spaced three seconds
// apart as the arXiv API terms ask.
func New(cfg *config.Config, logger *utils.Logger, metrics *utils.Metrics) *Searcher {
	return &Searcher{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		http:     &http.Client{},
		endpoint: apiURL,
		pages:    utils.NewThrottle(3 * time.Second),
	}
}

// Search returns up to limit papers for query. Interruption or a failed page
// ends the scan and the papers fetched so far are returned.
func (s *Searcher) Search(ctx context.Context, query string, limit int) []models.RawItem {
	var items []models.RawItem
	s.Scan(ctx, query, limit, func(page []models.RawItem) {
		items = append(items, page...)
	})
	return items
}

// Scan fetches up to limit papers for query and hands each page to onPage as
// soon as it is parsed, before the next page is requested. It returns the
// number of papers delivered.
func (s *Searcher) Scan(ctx context.Context, query string, limit int, onPage func([]models.RawItem)) int {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return 0
	}

	total := 0
	for start := 0; total < limit; start += pageSize {
		if err := s.pages.Wait(ctx); err != nil {
			s.logger.Warn("[arxiv] Scan of %q interrupted at %d papers", query, total)
			break
		}

		want := min(pageSize, limit-total)
		feed, err := s.fetchPage(ctx, query, start, want)
		if err != nil {
			s.logger.Warn("[arxiv] Query %q (offset %d) failed: %v", query, start, err)
			break
		}

		page := make([]models.RawItem, 0, len(feed.Items))
		for _, entry := range feed.Items {
			if total+len(page) >= limit {
				break
			}
			page = append(page, s.toRawItem(entry))
		}
		total += len(page)
		if len(page) > 0 {
			onPage(page)
		}

		if len(feed.Items) < want {
			break
		}
		if start > 0 || limit > pageSize {
			s.logger.Info("[arxiv] Scanning... %d/%d", total, limit)
		}
	}

	s.metrics.AddItems(platform, total)
	s.logger.Debug("[arxiv] %q -> %d papers", query, total)
	return total
}

func (s *Searcher) fetchPage(ctx context.Context, query string, start, count int) (*gofeed.Feed, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", fmt.Sprint(start))
	params.Set("max_results", fmt.Sprint(count))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	if s.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SearchTimeout)
		defer cancel()
	}

	parser := gofeed.NewParser()
	parser.Client = s.http

	begin := time.Now()
	feed, err := parser.ParseURLWithContext(s.endpoint+"?"+params.Encode(), ctx)
	outcome := utils.OutcomeOK
	if err != nil {
		outcome = utils.OutcomeError
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
			outcome = utils.OutcomeRateLimited
		}
	}
	s.metrics.ObserveRequest(platform, outcome, time.Since(begin))
	return feed, err
}

func (s *Searcher) toRawItem(entry *gofeed.Item) models.RawItem {
	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if a == nil || a.Name == "" {
			continue
		}
		if s.cfg.Profile.ArXivAuthors > 0 && len(authors) == s.cfg.Profile.ArXivAuthors {
			break
		}
		authors = append(authors, a.Name)
	}

	date := models.DatePlaceholder
	if entry.PublishedParsed != nil {
		date = entry.PublishedParsed.Format("2006-01-02")
	}

	link := entry.GUID
	if link == "" {
		link = entry.Link
	}

	comment := extension(entry, "arxiv", "comment")

	return models.RawItem{
		Source:      models.SourceArXiv,
		Title:       collapse(entry.Title),
		URL:         link,
		Date:        date,
		Description: collapse(entry.Description),
		Author:      strings.Join(authors, ", "),
		Topics:      entry.Categories,
		Extra:       comment,
		Comment:     comment,
	}
}

func extension(entry *gofeed.Item, ns, name string) string {
	byName, ok := entry.Extensions[ns]
	if !ok {
		return ""
	}
	for _, e := range byName[name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return collapse(v)
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
