package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cli/go-gh/v2/pkg/browser"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/google/uuid"

	"tstrend/config"
	"tstrend/models"
	"tstrend/scraper/arxiv"
	"tstrend/scraper/github"
	"tstrend/scraper/huggingface"
	"tstrend/services"
	"tstrend/storage"
	"tstrend/utils"
)

func main() {
	logger := utils.NewLogger()

	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, config.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	// First interrupt stops the scan; after that the default handler is
	// restored so a second one kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	runID := uuid.NewString()
	metrics := utils.NewMetrics()

	logger.Info("=== %s starting (profile %s, run %s) ===", cfg.Profile.Title, cfg.Profile.Name, runID)
	logger.Info("Config: limit: %d | days: %d | output: %s", cfg.Limit, cfg.Days, cfg.Output)

	gh, err := github.New(cfg, logger, metrics)
	if err != nil {
		logger.Error("Failed to create GitHub client: %v", err)
		os.Exit(1)
	}
	hub := huggingface.New(cfg, logger, metrics)
	papers := arxiv.New(cfg, logger, metrics)

	pipeline := services.NewPipeline(cfg, logger, gh, hub, papers)
	report := pipeline.Run(ctx, runID)

	// Outputs are produced even after an interrupt.
	outCtx := context.WithoutCancel(ctx)

	htmlWriter := storage.NewHTMLWriter(cfg.Output)
	if err := htmlWriter.Write(report); err != nil {
		logger.Error("Report write failed: %v", err)
		os.Exit(1)
	}
	reportPath := htmlWriter.Path()
	fmt.Printf("\n[Done] Report saved to: %s\n", reportPath)

	if cfg.CSVOutputPath != "" {
		writeCSV(cfg.CSVOutputPath, report, logger)
	}

	if cfg.PDFOutputPath != "" {
		pdfCtx, cancel := context.WithTimeout(outCtx, 2*time.Minute)
		var snap storage.Snapshotter = storage.NewPDFSnapshotter(cfg.ChromeBin, cfg.MaxRetries, logger)
		if err := snap.Snapshot(pdfCtx, reportPath, cfg.PDFOutputPath); err != nil {
			logger.Error("PDF snapshot failed: %v", err)
		} else {
			logger.Info("PDF snapshot saved to %s", cfg.PDFOutputPath)
		}
		cancel()
	}

	if cfg.S3Bucket != "" {
		publish(outCtx, cfg, runID, reportPath, logger)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("Metrics write failed: %v", err)
		} else {
			logger.Info("Metrics written to %s", cfg.MetricsFile)
		}
	}

	insightSvc := services.NewInsightService(logger, cfg.Profile.Sort)
	t := term.FromEnv()
	width, _, err := t.Size()
	if err != nil || width <= 0 {
		width = 100
	}
	if err := insightSvc.Print(os.Stdout, insightSvc.Generate(report), t.IsTerminalOutput(), width); err != nil {
		logger.Warn("Summary print failed: %v", err)
	}

	if !cfg.NoBrowser {
		fileURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(reportPath)}).String()
		if err := browser.New("", os.Stdout, os.Stderr).Browse(fileURL); err != nil {
			logger.Warn("Could not open browser: %v", err)
		}
	}
}

func writeCSV(path string, report *models.Report, logger *utils.Logger) {
	csvWriter, err := storage.NewCSVWriter(path)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		return
	}
	defer csvWriter.Close()

	if err := csvWriter.Write(report); err != nil {
		logger.Error("CSV write failed: %v", err)
		return
	}
	logger.Info("Rows exported to %s", path)
}

func publish(ctx context.Context, cfg *config.Config, runID, reportPath string, logger *utils.Logger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	var publisher storage.Publisher
	publisher, err := storage.NewS3Publisher(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
	if err != nil {
		logger.Error("S3 setup failed: %v", err)
		return
	}
	uri, err := publisher.Publish(ctx, runID, reportPath)
	if err != nil {
		logger.Error("S3 upload failed: %v", err)
		return
	}
	logger.Info("Report uploaded to %s", uri)
}
