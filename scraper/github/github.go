package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/go-shiori/go-readability"

	"tstrend/config"
	"tstrend/models"
	"tstrend/utils"
)

const (
	apiBase   = "https://api.github.com/"
	platform  = "github"
	userAgent = "tstrend (+https://github.com)"
	maxPage   = 100
)

var (
	// ErrRateLimited is returned when GitHub answers 403.
	ErrRateLimited = errors.New("github: rate limited")
	// ErrNotFound is returned when a repository does not exist.
	ErrNotFound = errors.New("github: not found")
)

// restClient is satisfied by *api.RESTClient and by the anonymous client used
// when no token is configured.
type restClient interface {
	RequestWithContext(ctx context.Context, method, path string, body io.Reader) (*http.Response, error)
}

// Searcher queries GitHub repository search and repository details.
type Searcher struct {
	cfg     *config.Config
	logger  *utils.Logger
	metrics *utils.Metrics
	client  restClient
	baseURL string
	now     func() time.Time
	readme  func(pageURL string, timeout time.Duration) (string, error)
}

// New creates a Searcher. With a token the go-gh REST client is used,
// otherwise requests go out unauthenticated under the 60 req/h limit.
func New(cfg *config.Config, logger *utils.Logger, metrics *utils.Metrics) (*Searcher, error) {
	s := &Searcher{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		readme:  fetchReadme,
	}

	if cfg.GitHubToken != "" {
		client, err := api.NewRESTClient(api.ClientOptions{
			Host:      "github.com",
			AuthToken: cfg.GitHubToken,
		})
		if err != nil {
			return nil, fmt.Errorf("github: init client: %w", err)
		}
		s.client = client
		logger.Info("[github] Token set (%s), rate limit is 5000 req/h", maskToken(cfg.GitHubToken))
	} else {
		s.client = &anonymousClient{http: &http.Client{}}
		s.baseURL = apiBase
		logger.Warn("[github] No token set, rate limit is 60 req/h and stars may show as N/A")
	}
	return s, nil
}

type repository struct {
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Stars       int      `json:"stargazers_count"`
	CreatedAt   string   `json:"created_at"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type searchResponse struct {
	Items []repository `json:"items"`
}

// Search returns up to limit repositories matching query created within the
// last days, most starred first. Failures end the scan and whatever was
// collected is returned.
func (s *Searcher) Search(ctx context.Context, query string, limit, days int) []models.RawItem {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil
	}

	since := s.now().AddDate(0, 0, -days).Format("2006-01-02")
	perPage := min(limit, maxPage)
	items := make([]models.RawItem, 0, limit)

	for page := 1; len(items) < limit; page++ {
		params := url.Values{}
		params.Set("q", query+" created:>"+since)
		params.Set("sort", "stars")
		params.Set("order", "desc")
		params.Set("per_page", fmt.Sprint(perPage))
		params.Set("page", fmt.Sprint(page))

		var resp searchResponse
		start := time.Now()
		err := s.get(ctx, s.cfg.SearchTimeout, "search/repositories?"+params.Encode(), &resp)
		s.metrics.ObserveRequest(platform, outcomeOf(err), time.Since(start))
		if err != nil {
			switch {
			case errors.Is(err, ErrRateLimited):
				s.logger.Warn("[github] Rate limited on page %d of %q, keeping %d items", page, query, len(items))
			case ctx.Err() != nil:
				s.logger.Warn("[github] Search %q interrupted, keeping %d items", query, len(items))
			default:
				s.logger.Warn("[github] Search %q page %d failed: %v", query, page, err)
			}
			break
		}
		if len(resp.Items) == 0 {
			break
		}

		for _, r := range resp.Items {
			if len(items) >= limit {
				break
			}
			items = append(items, r.toRawItem())
		}
		if len(resp.Items) < perPage {
			break
		}
	}

	if s.cfg.Readme {
		s.enrich(ctx, items)
	}

	s.metrics.AddItems(platform, len(items))
	s.logger.Debug("[github] %q -> %d repositories", query, len(items))
	return items
}

// LookupRepo resolves the star count of a repository URL.
func (s *Searcher) LookupRepo(ctx context.Context, repoURL string) models.Popularity {
	owner, repo, ok := splitRepoURL(repoURL)
	if !ok {
		return models.Popularity{State: models.NotFound}
	}

	var r repository
	start := time.Now()
	err := s.get(ctx, s.cfg.LookupTimeout, "repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo), &r)
	s.metrics.ObserveRequest(platform, outcomeOf(err), time.Since(start))

	switch {
	case err == nil:
		return models.Popularity{State: models.Found, Stars: r.Stars}
	case errors.Is(err, ErrRateLimited):
		s.logger.Warn("[github] API limit hit for %s", repoURL)
		return models.Popularity{State: models.RateLimited}
	case errors.Is(err, ErrNotFound):
		s.logger.Debug("[github] %s does not exist", repoURL)
	default:
		s.logger.Debug("[github] Lookup %s failed: %v", repoURL, err)
	}
	return models.Popularity{State: models.NotFound}
}

// enrich fills Extra with README text. Pages are fetched from github.com, not
// the API, so a few run at once.
func (s *Searcher) enrich(ctx context.Context, items []models.RawItem) {
	pool := utils.NewWorkerPool(s.cfg.ReadmeWorkers, 200*time.Millisecond)
	for i := range items {
		i := i
		ok := pool.Submit(ctx, func() {
			text, err := s.readme(items[i].URL, s.cfg.SearchTimeout)
			if err != nil {
				s.logger.Debug("[github] README for %s unavailable: %v", items[i].URL, err)
				return
			}
			items[i].Extra = text
		})
		if !ok {
			break
		}
	}
	pool.Wait()
}

func (s *Searcher) get(ctx context.Context, timeout time.Duration, path string, v any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := s.client.RequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusForbidden:
				return fmt.Errorf("%w: %s", ErrRateLimited, httpErr.Message)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrNotFound, path)
			}
		}
		return fmt.Errorf("github: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("github: decode %s: %w", path, err)
	}
	return nil
}

func (r repository) toRawItem() models.RawItem {
	date := r.CreatedAt
	if len(date) >= 10 {
		date = date[:10]
	}
	return models.RawItem{
		Source:      models.SourceGitHub,
		Title:       r.FullName,
		URL:         r.HTMLURL,
		Stars:       r.Stars,
		Date:        date,
		Description: r.Description,
		Author:      r.Owner.Login,
		Topics:      r.Topics,
	}
}

// splitRepoURL extracts owner and repository from a github.com URL.
func splitRepoURL(repoURL string) (owner, repo string, ok bool) {
	i := strings.Index(repoURL, "github.com/")
	if i < 0 {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(repoURL[i+len("github.com/"):], "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return utils.OutcomeOK
	case errors.Is(err, ErrRateLimited):
		return utils.OutcomeRateLimited
	case errors.Is(err, ErrNotFound):
		return utils.OutcomeNotFound
	default:
		return utils.OutcomeError
	}
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func fetchReadme(pageURL string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(pageURL, timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// anonymousClient mirrors RESTClient.RequestWithContext for unauthenticated use.
type anonymousClient struct {
	http *http.Client
}

func (c *anonymousClient) RequestWithContext(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return resp, api.HandleHTTPError(resp)
	}
	return resp, nil
}
