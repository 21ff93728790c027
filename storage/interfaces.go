package storage

import (
	"context"

	"tstrend/models"
)

// ReportWriter is the interface every report output must satisfy.
type ReportWriter interface {
	Write(report *models.Report) error
}

// Publisher copies a rendered report file somewhere outside the local disk.
type Publisher interface {
	Publish(ctx context.Context, runID, path string) (string, error)
}

// Snapshotter turns a rendered HTML report into another document format.
type Snapshotter interface {
	Snapshot(ctx context.Context, htmlPath, outPath string) error
}

var (
	_ ReportWriter = (*HTMLWriter)(nil)
	_ ReportWriter = (*CSVWriter)(nil)
	_ Publisher    = (*S3Publisher)(nil)
	_ Snapshotter  = (*PDFSnapshotter)(nil)
)
