package inventory

import (
	"context"
	"fmt"
	"math"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/autopotter/autopotter/internal/config"
	"github.com/autopotter/autopotter/internal/utils"

	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// Category groups stored objects by what the draft prompt can do with them.
type Category string

const (
	CategoryVideos Category = "videos"
	CategoryImages Category = "images"
	CategoryMusic  Category = "music"
	CategoryOther  Category = "other"
)

var categoryExtensions = map[Category][]string{
	CategoryVideos: {".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm", ".m4v"},
	CategoryImages: {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp", ".svg"},
	CategoryMusic:  {".mp3", ".wav", ".m4a", ".aac", ".flac", ".ogg", ".wma", ".aiff"},
}

// Categorize maps a file name to its category by extension.
func Categorize(name string) Category {
	lower := strings.ToLower(name)
	for category, extensions := range categoryExtensions {
		for _, ext := range extensions {
			if strings.HasSuffix(lower, ext) {
				return category
			}
		}
	}
	return CategoryOther
}

// File is one object found in the bucket.
type File struct {
	Name      string            `json:"name"`
	SizeMB    float64           `json:"size_mb"`
	PublicURL string            `json:"public_url"`
	Created   time.Time         `json:"created,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// CollectionInfo records when and by what the inventory was collected.
type CollectionInfo struct {
	CollectedAt string `json:"collected_at"`
	Source      string `json:"source"`
	Version     string `json:"collection_version"`
}

// Summary aggregates counts across all scanned folders.
type Summary struct {
	TotalFiles  int     `json:"total_files"`
	TotalSizeMB float64 `json:"total_size_mb"`
}

// Report is the inventory document fed into the draft prompt context.
type Report struct {
	CollectionInfo CollectionInfo      `json:"collection_info"`
	FilesByFolder  map[string][]string `json:"files_by_folder"`
	Summary        Summary             `json:"summary"`
}

// Service scans a GCS bucket and builds inventory reports.
type Service struct {
	svc     *storage.Service
	bucket  string
	folders []string
}

// NewService creates a bucket scanner for the configured bucket and folders.
// Extra client options override the configured credentials file, which lets
// tests point the client at a fake endpoint.
func NewService(ctx context.Context, cfg config.GCSConfig, opts ...option.ClientOption) (*Service, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("GCS bucket is not configured")
	}
	if len(opts) == 0 {
		if cfg.CredentialsPath == "" {
			return nil, fmt.Errorf("GCS credentials path is not configured")
		}
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	utils.LogVerbose("Inventory scanner initialized for bucket %s", cfg.Bucket)
	return &Service{
		svc:     svc,
		bucket:  cfg.Bucket,
		folders: cfg.Folders,
	}, nil
}

// ScanFolder lists all objects under a folder prefix, skipping folder
// markers and goog-reserved metadata.
func (s *Service) ScanFolder(ctx context.Context, prefix string) ([]File, error) {
	utils.LogVerbose("Scanning folder %s", prefix)

	var files []File
	call := s.svc.Objects.List(s.bucket).Prefix(prefix)
	err := call.Pages(ctx, func(page *storage.Objects) error {
		for _, obj := range page.Items {
			if strings.HasSuffix(obj.Name, "/") {
				continue
			}
			file := File{
				Name:      obj.Name,
				SizeMB:    roundMB(obj.Size),
				PublicURL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, obj.Name),
			}
			if created, err := time.Parse(time.RFC3339, obj.TimeCreated); err == nil {
				file.Created = created
			}
			for key, value := range obj.Metadata {
				if strings.HasPrefix(key, "goog-reserved-") {
					continue
				}
				if file.Metadata == nil {
					file.Metadata = make(map[string]string)
				}
				file.Metadata[key] = value
			}
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder %s: %w", prefix, err)
	}

	utils.LogVerbose("Found %d files in %s", len(files), prefix)
	return files, nil
}

// GenerateReport scans every configured folder and assembles the inventory
// document. A folder that fails to scan is logged and skipped so one bad
// prefix does not sink the whole report.
func (s *Service) GenerateReport(ctx context.Context) (*Report, error) {
	utils.LogInfo("Generating bucket inventory for %s", s.bucket)

	report := &Report{
		CollectionInfo: CollectionInfo{
			CollectedAt: time.Now().Format(time.RFC3339),
			Source:      "inventory",
			Version:     "2.1",
		},
		FilesByFolder: make(map[string][]string),
	}

	for _, folder := range s.folders {
		files, err := s.ScanFolder(ctx, folder)
		if err != nil {
			utils.LogError("Skipping folder %s: %v", folder, err)
			continue
		}
		if len(files) == 0 {
			continue
		}

		folderURL := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, strings.TrimSuffix(folder, "/")+"/")
		names := make([]string, 0, len(files))
		for _, file := range files {
			names = append(names, path.Base(file.Name))
			report.Summary.TotalFiles++
			report.Summary.TotalSizeMB += file.SizeMB
		}
		report.FilesByFolder[folderURL] = names
	}

	report.Summary.TotalSizeMB = round2(report.Summary.TotalSizeMB)
	utils.LogSuccess("Inventory collected: %d files, %.2f MB", report.Summary.TotalFiles, report.Summary.TotalSizeMB)
	return report, nil
}

// SaveReport writes the inventory document to a JSON file.
func (s *Service) SaveReport(report *Report, outputPath string) error {
	if err := utils.WriteJSONFile(outputPath, report); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}
	utils.LogInfo("Inventory saved to %s", outputPath)
	return nil
}

// MostRecentUpload returns the creation time of the newest object under a
// prefix. The zero time means the prefix holds no files.
func (s *Service) MostRecentUpload(ctx context.Context, prefix string) (time.Time, error) {
	files, err := s.ScanFolder(ctx, prefix)
	if err != nil {
		return time.Time{}, err
	}

	var newest time.Time
	for _, file := range files {
		if file.Created.After(newest) {
			newest = file.Created
		}
	}
	return newest, nil
}

// AvailableVideos lists the video files under a prefix, newest first.
func (s *Service) AvailableVideos(ctx context.Context, prefix string) ([]File, error) {
	files, err := s.ScanFolder(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var videos []File
	for _, file := range files {
		if Categorize(file.Name) == CategoryVideos {
			videos = append(videos, file)
		}
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].Created.After(videos[j].Created)
	})
	return videos, nil
}

func roundMB(sizeBytes uint64) float64 {
	return round2(float64(sizeBytes) / (1024 * 1024))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
