package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/rs/zerolog"

	"tstrend/config"
	"tstrend/models"
	"tstrend/utils"
)

func newTestLogger() *utils.Logger {
	return utils.NewLoggerTo(io.Discard, zerolog.Disabled)
}

func newTestSearcher(srvURL string) *Searcher {
	return &Searcher{
		cfg: &config.Config{
			SearchTimeout: 2 * time.Second,
			LookupTimeout: 2 * time.Second,
		},
		logger:  newTestLogger(),
		client:  &anonymousClient{http: &http.Client{}},
		baseURL: srvURL + "/",
		now:     func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
		readme:  func(string, time.Duration) (string, error) { return "", errors.New("disabled") },
	}
}

func repoJSON(i int) map[string]any {
	return map[string]any{
		"full_name":        fmt.Sprintf("owner/repo%d", i),
		"html_url":         fmt.Sprintf("https://github.com/owner/repo%d", i),
		"stargazers_count": 1000 - i,
		"created_at":       "2024-11-02T08:15:00Z",
		"description":      "forecasting toolkit",
		"topics":           []string{"time-series"},
		"owner":            map[string]any{"login": "owner"},
	}
}

func TestSearch_RateLimitedFirstPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"message":"API rate limit exceeded"}`)
	}))
	defer srv.Close()

	s := newTestSearcher(srv.URL)
	items := s.Search(context.Background(), "time series", 10, 30)
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

func TestSearch_QueryAndFields(t *testing.T) {
	var q, sort, order, perPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/repositories" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q = r.URL.Query().Get("q")
		sort = r.URL.Query().Get("sort")
		order = r.URL.Query().Get("order")
		perPage = r.URL.Query().Get("per_page")
		json.NewEncoder(w).Encode(map[string]any{"items": []any{repoJSON(1)}})
	}))
	defer srv.Close()

	s := newTestSearcher(srv.URL)
	items := s.Search(context.Background(), "time series forecasting", 5, 30)

	if q != "time series forecasting created:>2025-02-08" {
		t.Errorf("q = %q", q)
	}
	if sort != "stars" || order != "desc" || perPage != "5" {
		t.Errorf("sort=%q order=%q per_page=%q", sort, order, perPage)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	want := models.RawItem{
		Source:      models.SourceGitHub,
		Title:       "owner/repo1",
		URL:         "https://github.com/owner/repo1",
		Stars:       999,
		Date:        "2024-11-02",
		Description: "forecasting toolkit",
		Author:      "owner",
	}
	got := items[0]
	if got.Source != want.Source || got.Title != want.Title || got.URL != want.URL ||
		got.Stars != want.Stars || got.Date != want.Date || got.Description != want.Description ||
		got.Author != want.Author {
		t.Errorf("item = %+v, want %+v", got, want)
	}
	if len(got.Topics) != 1 || got.Topics[0] != "time-series" {
		t.Errorf("topics = %v", got.Topics)
	}
}

func TestSearch_Paginates(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		repos := make([]any, 0, perPage)
		for i := 0; i < perPage; i++ {
			repos = append(repos, repoJSON((page-1)*perPage+i))
		}
		json.NewEncoder(w).Encode(map[string]any{"items": repos})
	}))
	defer srv.Close()

	s := newTestSearcher(srv.URL)
	items := s.Search(context.Background(), "ts", 250, 30)

	if len(items) != 250 {
		t.Fatalf("got %d items, want 250", len(items))
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("made %d requests, want 3", n)
	}
	if items[0].Title != "owner/repo0" || items[249].Title != "owner/repo249" {
		t.Errorf("unexpected order: %s ... %s", items[0].Title, items[249].Title)
	}
}

func TestSearch_KeepsItemsWhenLaterPageFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"message":"secondary rate limit"}`)
			return
		}
		repos := make([]any, 0, 100)
		for i := 0; i < 100; i++ {
			repos = append(repos, repoJSON(i))
		}
		json.NewEncoder(w).Encode(map[string]any{"items": repos})
	}))
	defer srv.Close()

	items := newTestSearcher(srv.URL).Search(context.Background(), "ts", 150, 30)
	if len(items) != 100 {
		t.Errorf("got %d items, want 100", len(items))
	}
}

func TestSearch_StopsOnEmptyPage(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, `{"items":[]}`)
	}))
	defer srv.Close()

	items := newTestSearcher(srv.URL).Search(context.Background(), "ts", 50, 30)
	if len(items) != 0 || atomic.LoadInt32(&calls) != 1 {
		t.Errorf("items=%d calls=%d", len(items), calls)
	}
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if items := newTestSearcher(srv.URL).Search(context.Background(), "ts", 5, 30); len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

func TestSearch_Readme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{repoJSON(1), repoJSON(2)}})
	}))
	defer srv.Close()

	s := newTestSearcher(srv.URL)
	s.cfg.Readme = true
	s.readme = func(pageURL string, _ time.Duration) (string, error) {
		if strings.HasSuffix(pageURL, "repo2") {
			return "", errors.New("boom")
		}
		return "pip install repo1", nil
	}

	items := s.Search(context.Background(), "ts", 2, 30)
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Extra != "pip install repo1" {
		t.Errorf("extra = %q", items[0].Extra)
	}
	if items[1].Extra != "" {
		t.Errorf("failed README should leave extra empty, got %q", items[1].Extra)
	}
}

func TestLookupRepo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/foo/bar":
			io.WriteString(w, `{"full_name":"foo/bar","stargazers_count":42}`)
		case "/repos/foo/limited":
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"message":"API rate limit exceeded"}`)
		case "/repos/foo/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"Not Found"}`)
		}
	}))
	defer srv.Close()

	s := newTestSearcher(srv.URL)

	tests := []struct {
		url  string
		want models.Popularity
	}{
		{"https://github.com/foo/bar", models.Popularity{State: models.Found, Stars: 42}},
		{"https://github.com/foo/limited", models.Popularity{State: models.RateLimited}},
		{"https://github.com/foo/missing", models.Popularity{State: models.NotFound}},
		{"https://github.com/foo/broken", models.Popularity{State: models.NotFound}},
		{"https://github.com/onlyowner", models.Popularity{State: models.NotFound}},
		{"https://example.com/foo/bar", models.Popularity{State: models.NotFound}},
	}

	for _, tt := range tests {
		if got := s.LookupRepo(context.Background(), tt.url); got != tt.want {
			t.Errorf("LookupRepo(%s) = %+v, want %+v", tt.url, got, tt.want)
		}
	}
}

func TestLookupRepo_TokenClient(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		io.WriteString(w, `{"stargazers_count":7}`)
	}))
	defer srv.Close()

	client, err := api.NewRESTClient(api.ClientOptions{
		Host:      "github.com",
		AuthToken: "secret-token",
		Transport: rewriteTransport{target: srv.URL},
	})
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSearcher(srv.URL)
	s.client = client
	s.baseURL = ""

	got := s.LookupRepo(context.Background(), "https://github.com/foo/bar")
	if got != (models.Popularity{State: models.Found, Stars: 7}) {
		t.Errorf("got %+v", got)
	}
	if !strings.Contains(auth, "secret-token") {
		t.Errorf("authorization header = %q", auth)
	}
}

// rewriteTransport sends api.github.com requests to a local test server.
type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	u := *req.URL
	u.Scheme = "http"
	u.Host = strings.TrimPrefix(rt.target, "http://")
	r.URL = &u
	r.Host = u.Host
	return http.DefaultTransport.RoundTrip(r)
}

func TestSplitRepoURL(t *testing.T) {
	tests := []struct {
		in          string
		owner, repo string
		ok          bool
	}{
		{"https://github.com/foo/bar", "foo", "bar", true},
		{"github.com/foo/bar/", "foo", "bar", true},
		{"https://www.github.com/foo/bar/tree/main", "foo", "bar", true},
		{"https://github.com/foo", "", "", false},
		{"https://huggingface.co/foo/bar", "", "", false},
	}
	for _, tt := range tests {
		owner, repo, ok := splitRepoURL(tt.in)
		if owner != tt.owner || repo != tt.repo || ok != tt.ok {
			t.Errorf("splitRepoURL(%q) = %q, %q, %v", tt.in, owner, repo, ok)
		}
	}
}

func TestMaskToken(t *testing.T) {
	if got := maskToken("ghp_abcdefgh1234"); got != "ghp_...1234" {
		t.Errorf("maskToken = %q", got)
	}
	if got := maskToken("short"); got != "****" {
		t.Errorf("maskToken(short) = %q", got)
	}
}
