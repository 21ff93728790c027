package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tstrend/config"
	"tstrend/models"
	"tstrend/utils"
)

func newTestLogger() *utils.Logger {
	return utils.NewLoggerTo(io.Discard, zerolog.Disabled)
}

func newTestSearcher(srvURL string, authors int) *Searcher {
	cfg := &config.Config{
		SearchTimeout: 2 * time.Second,
		Profile:       config.Profile{ArXivAuthors: authors},
	}
	s := New(cfg, newTestLogger(), nil)
	s.endpoint = srvURL + "/api/query"
	s.pages = utils.NewThrottle(0)
	return s
}

const feedHead = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/query</id>
  <updated>2025-03-10T00:00:00-05:00</updated>
`

const sampleEntry = `
  <entry>
    <id>http://arxiv.org/abs/2503.01234v1</id>
    <updated>2025-03-08T17:00:00Z</updated>
    <published>2025-03-08T17:00:00Z</published>
    <title>Chronos-2: Zero-Shot
  Forecasting at Scale</title>
    <summary>  We present a foundation model.
Code is at https://github.com/amazon-science/chronos-forecasting.
</summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <author><name>Grace Hopper</name></author>
    <author><name>Edsger Dijkstra</name></author>
    <arxiv:comment>Accepted at ICML 2025; code: huggingface.co/amazon/chronos-2</arxiv:comment>
    <link href="http://arxiv.org/abs/2503.01234v1" rel="alternate" type="text/html"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
`

func TestSearch_ParsesEntry(t *testing.T) {
	var params map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params = map[string]string{
			"search_query": q.Get("search_query"),
			"start":        q.Get("start"),
			"max_results":  q.Get("max_results"),
			"sortBy":       q.Get("sortBy"),
			"sortOrder":    q.Get("sortOrder"),
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		io.WriteString(w, feedHead+sampleEntry+"</feed>")
	}))
	defer srv.Close()

	items := newTestSearcher(srv.URL, 3).Search(context.Background(), `all:"time series"`, 5)

	want := map[string]string{
		"search_query": `all:"time series"`,
		"start":        "0",
		"max_results":  "5",
		"sortBy":       "submittedDate",
		"sortOrder":    "descending",
	}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("param %s = %q, want %q", k, params[k], v)
		}
	}

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	it := items[0]

	if it.Source != models.SourceArXiv || it.Stars != 0 {
		t.Errorf("source/stars = %s/%d", it.Source, it.Stars)
	}
	if it.Title != "Chronos-2: Zero-Shot Forecasting at Scale" {
		t.Errorf("title = %q", it.Title)
	}
	if it.URL != "http://arxiv.org/abs/2503.01234v1" {
		t.Errorf("url = %q", it.URL)
	}
	if it.Date != "2025-03-08" {
		t.Errorf("date = %q", it.Date)
	}
	if strings.Contains(it.Description, "\n") || !strings.HasPrefix(it.Description, "We present a foundation model. Code is at") {
		t.Errorf("description = %q", it.Description)
	}
	if it.Author != "Ada Lovelace, Alan Turing, Grace Hopper" {
		t.Errorf("author = %q", it.Author)
	}
	if it.Comment != "Accepted at ICML 2025; code: huggingface.co/amazon/chronos-2" {
		t.Errorf("comment = %q", it.Comment)
	}
	if len(it.Topics) != 1 || it.Topics[0] != "cs.LG" {
		t.Errorf("topics = %v", it.Topics)
	}
}

func TestSearch_AuthorLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, feedHead+sampleEntry+"</feed>")
	}))
	defer srv.Close()

	items := newTestSearcher(srv.URL, 2).Search(context.Background(), "q", 5)
	if len(items) != 1 || items[0].Author != "Ada Lovelace, Alan Turing" {
		t.Errorf("items = %+v", items)
	}
}

func entries(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<entry><id>http://arxiv.org/abs/%d</id><title>Paper %d</title>
<published>2025-01-01T00:00:00Z</published><summary>s</summary></entry>`, start+i, start+i)
	}
	return b.String()
}

func TestSearch_Pages(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		n, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
		io.WriteString(w, feedHead+entries(start, n)+"</feed>")
	}))
	defer srv.Close()

	items := newTestSearcher(srv.URL, 2).Search(context.Background(), "q", 230)
	if len(items) != 230 {
		t.Fatalf("got %d items, want 230", len(items))
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("made %d requests, want 3", calls)
	}
	if items[229].URL != "http://arxiv.org/abs/229" {
		t.Errorf("last url = %q", items[229].URL)
	}
}

func TestSearch_ShortPageEndsScan(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, feedHead+entries(0, 7)+"</feed>")
	}))
	defer srv.Close()

	items := newTestSearcher(srv.URL, 2).Search(context.Background(), "q", 500)
	if len(items) != 7 || atomic.LoadInt32(&calls) != 1 {
		t.Errorf("items=%d calls=%d", len(items), calls)
	}
}

func TestSearch_FailureKeepsEarlierPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") != "0" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, feedHead+entries(0, 100)+"</feed>")
	}))
	defer srv.Close()

	items := newTestSearcher(srv.URL, 2).Search(context.Background(), "q", 300)
	if len(items) != 100 {
		t.Errorf("got %d items, want 100", len(items))
	}
}

func TestSearch_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected after cancellation")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if items := newTestSearcher(srv.URL, 2).Search(ctx, "q", 10); len(items) != 0 {
		t.Errorf("got %d items", len(items))
	}
}

func TestScan_DeliversEachPageBeforeNextRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		n, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
		io.WriteString(w, feedHead+entries(start, n)+"</feed>")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pages []int
	got := newTestSearcher(srv.URL, 2).Scan(ctx, "q", 250, func(page []models.RawItem) {
		pages = append(pages, len(page))
		if made := atomic.LoadInt32(&calls); int(made) != len(pages) {
			t.Errorf("page %d delivered after %d requests", len(pages), made)
		}
		// interrupt while the second page is pending
		cancel()
	})

	if got != 100 || len(pages) != 1 || pages[0] != 100 {
		t.Errorf("delivered %d papers in pages %v, want one page of 100", got, pages)
	}
	if made := atomic.LoadInt32(&calls); made != 1 {
		t.Errorf("made %d requests after interrupt, want 1", made)
	}
}
