package artifact

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrArtifactNotFound is returned when a named artifact does not exist.
var ErrArtifactNotFound = errors.New("artifact not found")

// Standard artifact names
const (
	ArtifactBrief    = "research.md"
	ArtifactResearch = "research.json"
	ArtifactFinal    = "final.md"
	metadataFile     = "metadata.json"
)

// DraftName returns the artifact name of the n-th drafting pass (0-based).
func DraftName(pass int) string { return fmt.Sprintf("draft-%d.md", pass+1) }

// ReviewName returns the artifact name of the n-th review (0-based).
func ReviewName(pass int) string { return fmt.Sprintf("review-%d.json", pass+1) }

// ScreenshotName returns a timestamped screenshot artifact name.
func ScreenshotName(at time.Time) string {
	return "publish-" + at.UTC().Format("20060102-150405") + ".png"
}

// Config holds configuration for artifact management
type Config struct {
	BaseDir       string // Base directory for storage (default: ".noteflow/artifacts")
	CompressAbove int64  // Compress artifacts larger than this (default: 10KB)
}

// Manager stores artifacts per article under <BaseDir>/articles/<id>.
type Manager struct {
	baseDir       string
	compressAbove int64
}

// Info contains metadata about a stored artifact
type Info struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Compressed bool      `json:"compressed"`
	CreatedAt  time.Time `json:"createdAt"`
	Type       string    `json:"type"`
}

// Metadata is the per-article record the lifecycle manager reads.
type Metadata struct {
	ArticleID string    `json:"articleId"`
	Phase     string    `json:"phase"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Article statuses recorded in Metadata.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Type describes an artifact type
type Type struct {
	Name         string
	Extensions   []string
	Compressible bool
}

// KnownTypes maps type names to their definitions
var KnownTypes = map[string]Type{
	"markdown": {"markdown", []string{".md"}, true},
	"json":     {"json", []string{".json"}, true},
	"html":     {"html", []string{".html"}, true},
	"text":     {"text", []string{".txt", ".log"}, true},
	"image":    {"image", []string{".png", ".jpg", ".jpeg", ".webp"}, false},
}

// NewManager creates an artifact manager with the given config
func NewManager(cfg Config) *Manager {
	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Join(".noteflow", "artifacts")
	}
	if cfg.CompressAbove == 0 {
		cfg.CompressAbove = 10 * 1024
	}
	return &Manager{
		baseDir:       cfg.BaseDir,
		compressAbove: cfg.CompressAbove,
	}
}

// ArticleDir returns the directory holding an article's artifacts.
func (m *Manager) ArticleDir(articleID string) string {
	return filepath.Join(m.baseDir, "articles", articleID)
}

// Save saves an artifact, gzip-compressing compressible ones above the threshold.
func (m *Manager) Save(articleID, name string, data []byte) error {
	path := filepath.Join(m.ArticleDir(articleID), name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if m.shouldCompress(InferType(name), int64(len(data))) {
		os.Remove(path)
		return saveCompressed(path+".gz", data)
	}
	os.Remove(path + ".gz")
	return os.WriteFile(path, data, 0644)
}

// Load loads an artifact, transparently decompressing.
func (m *Manager) Load(articleID, name string) ([]byte, error) {
	path := filepath.Join(m.ArticleDir(articleID), name)

	if data, err := loadCompressed(path + ".gz"); err == nil {
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	return data, nil
}

// SaveJSON marshals v and saves it as an artifact.
func (m *Manager) SaveJSON(articleID, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return m.Save(articleID, name, data)
}

// LoadJSON loads an artifact into v.
func (m *Manager) LoadJSON(articleID, name string, v any) error {
	data, err := m.Load(articleID, name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Has reports whether the artifact exists, compressed or not.
func (m *Manager) Has(articleID, name string) bool {
	path := filepath.Join(m.ArticleDir(articleID), name)
	if _, err := os.Stat(path); err == nil {
		return true
	}
	_, err := os.Stat(path + ".gz")
	return err == nil
}

// List returns the artifacts of an article sorted by name.
func (m *Manager) List(articleID string) ([]Info, error) {
	entries, err := os.ReadDir(m.ArticleDir(articleID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == metadataFile {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		name := entry.Name()
		compressed := strings.HasSuffix(name, ".gz")
		name = strings.TrimSuffix(name, ".gz")
		infos = append(infos, Info{
			Name:       name,
			Size:       fi.Size(),
			Compressed: compressed,
			CreatedAt:  fi.ModTime(),
			Type:       InferType(name).Name,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a single artifact.
func (m *Manager) Delete(articleID, name string) error {
	path := filepath.Join(m.ArticleDir(articleID), name)
	err1 := os.Remove(path)
	err2 := os.Remove(path + ".gz")
	if os.IsNotExist(err1) && os.IsNotExist(err2) {
		return ErrArtifactNotFound
	}
	return nil
}

// Touch records the article's phase so retention can tell finished
// articles from ones still in progress.
func (m *Manager) Touch(articleID, phase string, completed bool) error {
	meta := Metadata{
		ArticleID: articleID,
		Phase:     phase,
		Status:    StatusActive,
		UpdatedAt: time.Now().UTC(),
	}
	if completed {
		meta.Status = StatusCompleted
	}
	dir := m.ArticleDir(articleID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metadataFile), data, 0644)
}

// BaseDir returns the base directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

func (m *Manager) shouldCompress(t Type, size int64) bool {
	return t.Compressible && size >= m.compressAbove
}

func saveCompressed(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func loadCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// InferType infers the artifact type from filename
func InferType(filename string) Type {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, t := range KnownTypes {
		for _, e := range t.Extensions {
			if e == ext {
				return t
			}
		}
	}
	return Type{Name: "unknown", Compressible: true}
}
