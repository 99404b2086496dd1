package inventory

import (
	"context"
	"time"
)

// Inventorier defines the interface for bucket inventory operations.
type Inventorier interface {
	// ScanFolder lists all objects under a folder prefix.
	ScanFolder(ctx context.Context, prefix string) ([]File, error)
	// GenerateReport scans every configured folder and assembles the
	// inventory document.
	GenerateReport(ctx context.Context) (*Report, error)
	// SaveReport writes the inventory document to a JSON file.
	SaveReport(report *Report, outputPath string) error
	// MostRecentUpload returns the creation time of the newest object
	// under a prefix.
	MostRecentUpload(ctx context.Context, prefix string) (time.Time, error)
	// AvailableVideos lists the video files under a prefix, newest first.
	AvailableVideos(ctx context.Context, prefix string) ([]File, error)
}

// Ensure Service implements the Inventorier interface
var _ Inventorier = (*Service)(nil)
