package artifact

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RetentionConfig defines retention policy for completed articles.
// Articles still in progress are never touched.
type RetentionConfig struct {
	ArchiveAfter     time.Duration // Age before a completed article is archived
	Retention        time.Duration // Age before a completed article is deleted
	ArchiveRetention time.Duration // Age before an archive is deleted
	KeepMin          int           // Minimum completed articles to keep unarchived
}

// DefaultRetentionConfig returns the default policy.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		ArchiveAfter:     7 * 24 * time.Hour,
		Retention:        30 * 24 * time.Hour,
		ArchiveRetention: 90 * 24 * time.Hour,
		KeepMin:          10,
	}
}

// LifecycleManager handles artifact lifecycle
type LifecycleManager struct {
	baseDir string
	config  RetentionConfig
	now     func() time.Time
}

// NewLifecycleManager creates a lifecycle manager
func NewLifecycleManager(baseDir string, config RetentionConfig) *LifecycleManager {
	return &LifecycleManager{
		baseDir: baseDir,
		config:  config,
		now:     time.Now,
	}
}

// CleanupResult summarizes cleanup actions
type CleanupResult struct {
	Archived   []string `json:"archived"`
	Deleted    []string `json:"deleted"`
	Kept       []string `json:"kept"`
	Errors     []string `json:"errors,omitempty"`
	SpaceSaved int64    `json:"spaceSaved"`
}

// Cleanup applies the retention policy. With dryRun it only reports.
func (m *LifecycleManager) Cleanup(dryRun bool) (*CleanupResult, error) {
	result := &CleanupResult{
		Archived: make([]string, 0),
		Deleted:  make([]string, 0),
		Kept:     make([]string, 0),
	}

	articlesDir := filepath.Join(m.baseDir, "articles")
	entries, err := os.ReadDir(articlesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, err
	}

	now := m.now()
	archiveThreshold := now.Add(-m.config.ArchiveAfter)
	deleteThreshold := now.Add(-m.config.Retention)

	type articleInfo struct {
		id   string
		meta *Metadata
		size int64
	}

	var completed []articleInfo

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		dir := filepath.Join(articlesDir, id)

		meta, err := loadMetadata(dir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("load %s: %v", id, err))
			continue
		}
		if meta.Status != StatusCompleted {
			result.Kept = append(result.Kept, id)
			continue
		}
		completed = append(completed, articleInfo{id: id, meta: meta, size: dirSize(dir)})
	}

	// Oldest first
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].meta.UpdatedAt.Before(completed[j].meta.UpdatedAt)
	})

	removed := 0
	for _, a := range completed {
		if len(completed)-removed-1 < m.config.KeepMin {
			result.Kept = append(result.Kept, a.id)
			continue
		}

		switch {
		case a.meta.UpdatedAt.Before(deleteThreshold):
			if !dryRun {
				if err := os.RemoveAll(filepath.Join(articlesDir, a.id)); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", a.id, err))
					continue
				}
			}
			result.Deleted = append(result.Deleted, a.id)
			result.SpaceSaved += a.size
			removed++

		case a.meta.UpdatedAt.Before(archiveThreshold):
			if !dryRun {
				if err := m.archive(a.id, a.meta.UpdatedAt); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("archive %s: %v", a.id, err))
					continue
				}
			}
			result.Archived = append(result.Archived, a.id)
			result.SpaceSaved += a.size / 2 // rough estimate
			removed++

		default:
			result.Kept = append(result.Kept, a.id)
		}
	}

	return result, nil
}

// archive compresses an article directory to archive/<YYYY-MM>/<id>.tar.gz
// and removes the original.
func (m *LifecycleManager) archive(articleID string, updated time.Time) error {
	srcDir := filepath.Join(m.baseDir, "articles", articleID)
	archiveDir := filepath.Join(m.baseDir, "archive", updated.UTC().Format("2006-01"))
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return err
	}

	archivePath := filepath.Join(archiveDir, articleID+".tar.gz")
	if err := writeTarGz(archivePath, srcDir, articleID); err != nil {
		os.Remove(archivePath)
		return err
	}

	return os.RemoveAll(srcDir)
}

func writeTarGz(archivePath, srcDir, prefix string) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(srcDir, path)
		header.Name = filepath.ToSlash(filepath.Join(prefix, rel))

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// RestoreArchive restores an archived article.
func (m *LifecycleManager) RestoreArchive(articleID string) error {
	archivePath := m.findArchive(articleID)
	if archivePath == "" {
		return fmt.Errorf("archive not found: %s", articleID)
	}

	dest := filepath.Join(m.baseDir, "articles")
	if _, err := os.Stat(filepath.Join(dest, articleID)); err == nil {
		return fmt.Errorf("article artifacts already exist: %s", articleID)
	}

	if err := extractArchive(archivePath, dest); err != nil {
		return err
	}
	return os.Remove(archivePath)
}

// ListArchives returns all archived article IDs
func (m *LifecycleManager) ListArchives() ([]string, error) {
	var archives []string

	err := filepath.Walk(filepath.Join(m.baseDir, "archive"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".tar.gz") {
			archives = append(archives, strings.TrimSuffix(info.Name(), ".tar.gz"))
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	sort.Strings(archives)
	return archives, nil
}

func (m *LifecycleManager) findArchive(articleID string) string {
	var found string
	filepath.Walk(filepath.Join(m.baseDir, "archive"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Name() == articleID+".tar.gz" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func extractArchive(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	cleanDest := filepath.Clean(destDir) + string(os.PathSeparator)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, filepath.FromSlash(header.Name))
		if !strings.HasPrefix(filepath.Clean(target)+string(os.PathSeparator), cleanDest) {
			return fmt.Errorf("invalid path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}

	return nil
}

// CleanupArchives removes archives older than the archive retention.
func (m *LifecycleManager) CleanupArchives(dryRun bool) (*CleanupResult, error) {
	result := &CleanupResult{
		Deleted: make([]string, 0),
		Kept:    make([]string, 0),
	}

	threshold := m.now().Add(-m.config.ArchiveRetention)

	err := filepath.Walk(filepath.Join(m.baseDir, "archive"), func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(info.Name(), ".tar.gz") {
			return nil
		}

		id := strings.TrimSuffix(info.Name(), ".tar.gz")
		if !info.ModTime().Before(threshold) {
			result.Kept = append(result.Kept, id)
			return nil
		}
		if !dryRun {
			if err := os.Remove(path); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("delete archive %s: %v", id, err))
				return nil
			}
		}
		result.Deleted = append(result.Deleted, id)
		result.SpaceSaved += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return result, nil
}

// DiskUsageStats contains disk usage statistics
type DiskUsageStats struct {
	ArticleCount int   `json:"articleCount"`
	ArchiveCount int   `json:"archiveCount"`
	ActiveSize   int64 `json:"activeSize"`
	ArchiveSize  int64 `json:"archiveSize"`
	TotalSize    int64 `json:"totalSize"`
}

// DiskUsage returns disk usage statistics
func (m *LifecycleManager) DiskUsage() (*DiskUsageStats, error) {
	stats := &DiskUsageStats{}

	articlesDir := filepath.Join(m.baseDir, "articles")
	if entries, err := os.ReadDir(articlesDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				stats.ArticleCount++
				stats.ActiveSize += dirSize(filepath.Join(articlesDir, entry.Name()))
			}
		}
	}

	filepath.Walk(filepath.Join(m.baseDir, "archive"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".tar.gz") {
			stats.ArchiveSize += info.Size()
			stats.ArchiveCount++
		}
		return nil
	})

	stats.TotalSize = stats.ActiveSize + stats.ArchiveSize
	return stats, nil
}

func loadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func dirSize(path string) int64 {
	var size int64
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}
