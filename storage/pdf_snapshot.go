package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"tstrend/utils"
)

// PDFSnapshotter prints a rendered report to PDF with headless Chrome.
type PDFSnapshotter struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
	retry     *utils.RetryConfig
}

// NewPDFSnapshotter creates a snapshotter. chromeBin may be empty, in which
// case the usual install locations are searched.
func NewPDFSnapshotter(chromeBin string, maxRetries int, logger *utils.Logger) *PDFSnapshotter {
	return &PDFSnapshotter{
		chromeBin: chromeBin,
		timeout:   30 * time.Second,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Snapshot loads htmlPath in the browser and writes the printed PDF to outPath.
func (p *PDFSnapshotter) Snapshot(ctx context.Context, htmlPath, outPath string) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("pdf: resolve %q: %w", htmlPath, err)
	}
	pageURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()

	chromeBin := findChromeBinary(p.chromeBin)
	p.logger.Info("[pdf] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	var pdf []byte
	err = p.retry.Do(ctx, "pdf snapshot", func() error {
		// Suppress chromedp log noise
		tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancelTab()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, p.timeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.ActionFunc(func(ctx context.Context) error {
				data, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
				if err != nil {
					return err
				}
				pdf = data
				return nil
			}),
		)
	})
	if err != nil {
		return fmt.Errorf("pdf: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("pdf: create output dir: %w", err)
	}
	if err := os.WriteFile(outPath, pdf, 0644); err != nil {
		return fmt.Errorf("pdf: write %q: %w", outPath, err)
	}
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
