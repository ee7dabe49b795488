package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_SaveLoad(t *testing.T) {
	mgr := NewManager(Config{BaseDir: t.TempDir()})

	if err := mgr.Save("art-1", ArtifactBrief, []byte("# Brief")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := mgr.Load("art-1", ArtifactBrief)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "# Brief" {
		t.Errorf("Load = %q, want %q", data, "# Brief")
	}
	if !mgr.Has("art-1", ArtifactBrief) {
		t.Error("Has should report the saved artifact")
	}
}

func TestManager_Compression(t *testing.T) {
	mgr := NewManager(Config{BaseDir: t.TempDir(), CompressAbove: 16})
	body := strings.Repeat("本文です。", 100)

	if err := mgr.Save("art-1", DraftName(0), []byte(body)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gz := filepath.Join(mgr.ArticleDir("art-1"), "draft-1.md.gz")
	if _, err := os.Stat(gz); err != nil {
		t.Errorf("expected compressed file: %v", err)
	}

	data, err := mgr.Load("art-1", "draft-1.md")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != body {
		t.Error("decompressed content differs")
	}

	infos, err := mgr.List("art-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "draft-1.md" || !infos[0].Compressed {
		t.Errorf("List = %+v, want one compressed draft-1.md", infos)
	}
}

func TestManager_ImagesNotCompressed(t *testing.T) {
	mgr := NewManager(Config{BaseDir: t.TempDir(), CompressAbove: 1})
	name := ScreenshotName(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))

	if name != "publish-20260301-093000.png" {
		t.Errorf("ScreenshotName = %q", name)
	}
	if err := mgr.Save("art-1", name, []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(mgr.ArticleDir("art-1"), name)); err != nil {
		t.Errorf("image should be stored as-is: %v", err)
	}
}

func TestManager_JSON(t *testing.T) {
	mgr := NewManager(Config{BaseDir: t.TempDir()})

	in := map[string]int{"score": 84}
	if err := mgr.SaveJSON("art-1", ReviewName(0), in); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	var out map[string]int
	if err := mgr.LoadJSON("art-1", "review-1.json", &out); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if out["score"] != 84 {
		t.Errorf("score = %d, want 84", out["score"])
	}
}

func TestManager_NotFound(t *testing.T) {
	mgr := NewManager(Config{BaseDir: t.TempDir()})

	if _, err := mgr.Load("art-1", "missing.md"); err != ErrArtifactNotFound {
		t.Errorf("Load missing = %v, want ErrArtifactNotFound", err)
	}
	if err := mgr.Delete("art-1", "missing.md"); err != ErrArtifactNotFound {
		t.Errorf("Delete missing = %v, want ErrArtifactNotFound", err)
	}
	if infos, err := mgr.List("nobody"); err != nil || infos != nil {
		t.Errorf("List unknown article = %v, %v", infos, err)
	}
}

func writeMeta(t *testing.T, base, id, status string, updated time.Time) {
	t.Helper()
	dir := filepath.Join(base, "articles", id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(Metadata{ArticleID: id, Status: status, UpdatedAt: updated})
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0644); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "final.md"), []byte("# done"), 0644)
}

func TestLifecycle_Cleanup(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	writeMeta(t, base, "art-old", StatusCompleted, now.Add(-40*24*time.Hour))
	writeMeta(t, base, "art-mid", StatusCompleted, now.Add(-10*24*time.Hour))
	writeMeta(t, base, "art-new", StatusCompleted, now.Add(-time.Hour))
	writeMeta(t, base, "art-busy", StatusActive, now.Add(-100*24*time.Hour))

	lm := NewLifecycleManager(base, RetentionConfig{
		ArchiveAfter:     7 * 24 * time.Hour,
		Retention:        30 * 24 * time.Hour,
		ArchiveRetention: 90 * 24 * time.Hour,
	})
	lm.now = func() time.Time { return now }

	dry, err := lm.Cleanup(true)
	if err != nil {
		t.Fatalf("Cleanup dry: %v", err)
	}
	if len(dry.Deleted) != 1 || len(dry.Archived) != 1 {
		t.Errorf("dry run = %+v", dry)
	}
	if _, err := os.Stat(filepath.Join(base, "articles", "art-old")); err != nil {
		t.Error("dry run must not delete")
	}

	res, err := lm.Cleanup(false)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if len(res.Deleted) != 1 || res.Deleted[0] != "art-old" {
		t.Errorf("Deleted = %v, want [art-old]", res.Deleted)
	}
	if len(res.Archived) != 1 || res.Archived[0] != "art-mid" {
		t.Errorf("Archived = %v, want [art-mid]", res.Archived)
	}

	kept := strings.Join(res.Kept, ",")
	if !strings.Contains(kept, "art-busy") || !strings.Contains(kept, "art-new") {
		t.Errorf("Kept = %v, want art-busy and art-new", res.Kept)
	}

	archives, _ := lm.ListArchives()
	if len(archives) != 1 || archives[0] != "art-mid" {
		t.Errorf("ListArchives = %v", archives)
	}

	if err := lm.RestoreArchive("art-mid"); err != nil {
		t.Fatalf("RestoreArchive: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(base, "articles", "art-mid", "final.md"))
	if err != nil || string(data) != "# done" {
		t.Errorf("restored final.md = %q, %v", data, err)
	}
}

func TestLifecycle_KeepMin(t *testing.T) {
	base := t.TempDir()
	now := time.Now()
	writeMeta(t, base, "art-a", StatusCompleted, now.Add(-60*24*time.Hour))
	writeMeta(t, base, "art-b", StatusCompleted, now.Add(-50*24*time.Hour))

	cfg := DefaultRetentionConfig()
	cfg.KeepMin = 1
	lm := NewLifecycleManager(base, cfg)

	res, err := lm.Cleanup(false)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if len(res.Deleted) != 1 || res.Deleted[0] != "art-a" {
		t.Errorf("Deleted = %v, want only the oldest", res.Deleted)
	}
	if len(res.Kept) != 1 || res.Kept[0] != "art-b" {
		t.Errorf("Kept = %v, want [art-b]", res.Kept)
	}
}

func TestManager_Touch(t *testing.T) {
	mgr := NewManager(Config{BaseDir: t.TempDir()})

	if err := mgr.Touch("art-1", "completed", true); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	meta, err := loadMetadata(mgr.ArticleDir("art-1"))
	if err != nil {
		t.Fatalf("loadMetadata: %v", err)
	}
	if meta.Status != StatusCompleted || meta.Phase != "completed" {
		t.Errorf("meta = %+v", meta)
	}

	usage, _ := NewLifecycleManager(mgr.BaseDir(), DefaultRetentionConfig()).DiskUsage()
	if usage.ArticleCount != 1 {
		t.Errorf("ArticleCount = %d, want 1", usage.ArticleCount)
	}
}
