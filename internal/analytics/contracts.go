package analytics

import "context"

// Collector defines the interface for Instagram analytics collection.
type Collector interface {
	// AccountInfo fetches the business account profile and follower counts.
	AccountInfo(ctx context.Context) (*AccountInfo, error)
	// RecentMedia fetches the most recent posts with engagement counts.
	RecentMedia(ctx context.Context, limit int) ([]MediaItem, error)
	// Collect assembles the full analytics report.
	Collect(ctx context.Context) (*Report, error)
	// SaveReport writes the analytics document to a JSON file.
	SaveReport(report *Report, outputPath string) error
}

// Ensure Client implements the Collector interface
var _ Collector = (*Client)(nil)
