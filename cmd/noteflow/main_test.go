package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/noteflow/article"
	"github.com/randalmurphal/noteflow/artifact"
	"github.com/randalmurphal/noteflow/config"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/notify"
	"github.com/randalmurphal/noteflow/publish"
	"github.com/randalmurphal/noteflow/scoring"
	"github.com/randalmurphal/noteflow/store"
	"github.com/randalmurphal/noteflow/testutil"
	"github.com/randalmurphal/noteflow/vector"
)

// env is an isolated project directory with its own config file.
type env struct {
	dir   string
	local string
	cli   *cli

	// configure runs on every app the commands open.
	configure func(*app)
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{dir: dir, local: filepath.Join(dir, ".noteflow.yaml")}
	yaml := strings.Join([]string{
		"db_path: " + filepath.Join(dir, "noteflow.db"),
		"artifact_dir: " + filepath.Join(dir, "artifacts"),
		"transcript_dir: " + filepath.Join(dir, "transcripts"),
		"tavily_api_key: test",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(e.local, []byte(yaml), 0o644))

	e.cli = &cli{
		resolver: config.NewNoteflowResolverWithPaths(filepath.Join(dir, "global.yaml"), e.local),
		newApp: func(s *config.Settings, l *slog.Logger) (*app, error) {
			a, err := openApp(s, l)
			if err == nil && e.configure != nil {
				e.configure(a)
			}
			return a, err
		},
	}
	return e
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := buildRootCmd(e.cli)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(testutil.TestContext(t))
	return out.String(), err
}

// seed stores st in the env's database.
func (e *env) seed(t *testing.T, st *article.State) {
	t.Helper()
	db, err := store.Open(filepath.Join(e.dir, "noteflow.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Save(context.Background(), st))
}

func (e *env) load(t *testing.T, id string) *article.State {
	t.Helper()
	db, err := store.Open(filepath.Join(e.dir, "noteflow.db"))
	require.NoError(t, err)
	defer db.Close()
	st, err := db.Load(context.Background(), id)
	require.NoError(t, err)
	return st
}

// fakeStages replaces every external collaborator of the engine.
func fakeStages(judgments ...scoring.Judgment) (func(*app), *testutil.FakeGenerator) {
	gen := testutil.NewFakeGenerator(judgments...)
	return func(a *app) {
		a.gen = gen
		a.web = &testutil.FakeSearcher{}
		a.index = vector.NewMemoryIndex()
	}, gen
}

func TestRun_StopsForInputThenResume(t *testing.T) {
	e := newEnv(t)
	e.configure, _ = fakeStages()

	out, err := e.run(t, "run", "--id", "art-cli", "--persona", "経理担当", "予算管理", "中小企業")
	require.NoError(t, err)
	assert.Contains(t, out, "noteflow essence art-cli")

	st := e.load(t, "art-cli")
	assert.Equal(t, article.PhaseWaitingForInput, st.Phase)
	assert.Equal(t, "予算管理 中小企業", st.SEOKeywords)
	assert.Equal(t, "経理担当", st.Persona)

	out, err = e.run(t, "essence", "art-cli", "--category", "Failure", "--content", "予算を使い切った")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")

	out, err = e.run(t, "resume", "art-cli")
	require.NoError(t, err)
	assert.Contains(t, out, "Title:")

	st = e.load(t, "art-cli")
	assert.Equal(t, article.PhaseCompleted, st.Phase)
	assert.Equal(t, 85, st.ReviewScore)
	assert.Len(t, st.Essences, 1)
}

func TestRun_ForcedCompletionShowsFeedback(t *testing.T) {
	e := newEnv(t)
	e.configure, _ = fakeStages(testutil.Judgment(20, 30, 20))

	out, err := e.run(t, "run", "--id", "art-low", "--auto-confirm", "予算管理")
	require.NoError(t, err)
	assert.Contains(t, out, "below the pass threshold")
	assert.Contains(t, out, "Total score: 70/100")
}

func TestRun_SuggestsInternalLinks(t *testing.T) {
	e := newEnv(t)
	e.configure, _ = fakeStages()
	prev := testutil.NewState(t, "art-prev", article.PhaseCompleted)
	prev.PublishedURL = "https://note.example/n/prev"
	e.seed(t, prev)

	out, err := e.run(t, "run", "--id", "art-new", "--auto-confirm", "予算管理")
	require.NoError(t, err)
	assert.Contains(t, out, "Related articles to link:")
	assert.Contains(t, out, "予算管理の基本 (https://note.example/n/prev")

	st := e.load(t, "art-new")
	require.NotNil(t, st.Draft)
	require.Len(t, st.Draft.InternalLinks, 1)
	assert.Equal(t, "art-prev", st.Draft.InternalLinks[0].ArticleID)
}

func TestPropose(t *testing.T) {
	e := newEnv(t)
	var gen *testutil.FakeGenerator
	e.configure, gen = fakeStages()

	out, err := e.run(t, "propose", "予算管理", "--persona", "CFO", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, `Themes for "予算管理":`)
	assert.Contains(t, out, "1. 予算実績差異を読む3つの視点 [hybrid 0.90]")
	assert.Contains(t, out, "2. 中小企業の予算管理を90日で立ち上げる [knowledge_base 0.70]")
	assert.Contains(t, out, "Ranking now: 予算管理とは / 事業計画の作り方")

	require.Len(t, gen.ProposeCalls, 1)
	assert.Equal(t, 5, gen.ProposeCalls[0].Count)
	assert.Equal(t, "CFO", gen.ProposeCalls[0].Persona)
}

func TestPropose_GenerationFailure(t *testing.T) {
	e := newEnv(t)
	var gen *testutil.FakeGenerator
	e.configure, gen = fakeStages()
	gen.ProposeErr = testutil.ErrInjected

	_, err := e.run(t, "propose", "予算管理")
	require.Error(t, err)
	assert.True(t, nferrors.IsGeneration(err))
}

func TestEssence_Errors(t *testing.T) {
	e := newEnv(t)
	e.seed(t, testutil.NewState(t, "art-draft", article.PhaseDrafting))

	_, err := e.run(t, "essence", "art-draft", "--category", "gossip", "--content", "x")
	require.Error(t, err)
	assert.True(t, nferrors.IsInputValidation(err))

	_, err = e.run(t, "essence", "art-draft", "--category", "tech", "--content", "x")
	require.Error(t, err)
	var cliErr *nferrors.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.True(t, nferrors.IsInputValidation(err))

	_, err = e.run(t, "essence", "missing", "--category", "tech", "--content", "x")
	assert.True(t, nferrors.IsNotFound(err))
}

func TestStatus(t *testing.T) {
	e := newEnv(t)
	e.seed(t, testutil.NewState(t, "art-a", article.PhaseCompleted))
	e.seed(t, testutil.NewState(t, "art-b", article.PhaseWaitingForInput))

	out, err := e.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "art-a")
	assert.Contains(t, out, "art-b")

	out, err = e.run(t, "status", "--phase", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "art-a")
	assert.NotContains(t, out, "art-b")

	out, err = e.run(t, "status", "art-a")
	require.NoError(t, err)
	assert.Contains(t, out, "85/100")
	assert.Contains(t, out, "Check:")

	_, err = e.run(t, "status", "nope")
	assert.True(t, nferrors.IsNotFound(err))
}

// stubPublisher returns a fixed result.
type stubPublisher struct {
	res *publish.Result
	err error
	req publish.Request
}

func (s *stubPublisher) Publish(_ context.Context, req publish.Request) (*publish.Result, error) {
	s.req = req
	return s.res, s.err
}

func TestPublish(t *testing.T) {
	t.Run("marks uploaded on success", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t, testutil.NewState(t, "art-1", article.PhaseCompleted))
		pub := &stubPublisher{res: &publish.Result{Success: true, URL: "https://example.com/n/1"}}
		e.configure = func(a *app) { a.publisher = pub }

		out, err := e.run(t, "publish", "art-1")
		require.NoError(t, err)
		assert.Contains(t, out, "https://example.com/n/1")
		assert.NotEmpty(t, pub.req.Title)

		st := e.load(t, "art-1")
		assert.True(t, st.IsUploaded)
		assert.Equal(t, "https://example.com/n/1", st.PublishedURL)
	})

	t.Run("failure leaves article untouched", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t, testutil.NewState(t, "art-1", article.PhaseCompleted))
		pub := &stubPublisher{
			res: &publish.Result{ErrorMessage: "editor timeout", ScreenshotRef: "publish-x.png"},
			err: nferrors.Lookup("publish", errors.New("editor timeout")),
		}
		e.configure = func(a *app) { a.publisher = pub }

		out, err := e.run(t, "publish", "art-1")
		require.Error(t, err)
		assert.Contains(t, out, "publish-x.png")
		assert.False(t, e.load(t, "art-1").IsUploaded)
	})

	t.Run("only completed articles", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t, testutil.NewState(t, "art-1", article.PhaseReview))
		pub := &stubPublisher{res: &publish.Result{Success: true}}
		e.configure = func(a *app) { a.publisher = pub }

		_, err := e.run(t, "publish", "art-1")
		assert.True(t, nferrors.IsInputValidation(err))
		assert.Empty(t, pub.req.ArticleID, "publisher must not be called")
	})

	t.Run("dry run never marks uploaded", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t, testutil.NewState(t, "art-1", article.PhaseCompleted))

		out, err := e.run(t, "publish", "--dry-run", "art-1")
		require.NoError(t, err)
		assert.Contains(t, out, publish.PreviewName)
		assert.False(t, e.load(t, "art-1").IsUploaded)
	})
}

func TestConfig(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "config", "set", "tavily_profile", "evidence")
	require.NoError(t, err)
	assert.Contains(t, out, "tavily_profile = evidence")

	out, err = e.run(t, "config", "get", "tavily_profile")
	require.NoError(t, err)
	assert.Equal(t, "evidence\n", out)

	out, err = e.run(t, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "tavily_profile")
	assert.Contains(t, out, "(local)")
	assert.Contains(t, out, "****", "api keys are masked")

	_, err = e.run(t, "config", "set", "colour", "blue")
	assert.True(t, nferrors.IsInputValidation(err))

	_, err = e.run(t, "config", "get", "colour")
	assert.Error(t, err)
}

func TestConfig_WorksWithInvalidSettings(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "config", "set", "stage_timeout", "soon")
	require.NoError(t, err)

	_, err = e.run(t, "status")
	assert.True(t, nferrors.IsInputValidation(err))

	_, err = e.run(t, "config", "set", "stage_timeout", "60s")
	require.NoError(t, err)
	_, err = e.run(t, "status")
	assert.NoError(t, err)
}

func TestPrune_DryRun(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "prune", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would be")
}

func TestPrune_ListAndRestoreArchives(t *testing.T) {
	e := newEnv(t)
	base := filepath.Join(e.dir, "artifacts")
	dir := filepath.Join(base, "articles", "art-old")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	meta, err := json.Marshal(artifact.Metadata{
		ArticleID: "art-old",
		Status:    artifact.StatusCompleted,
		UpdatedAt: time.Now().Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), meta, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "final.md"), []byte("# done"), 0o644))

	lm := artifact.NewLifecycleManager(base, artifact.RetentionConfig{
		ArchiveAfter:     time.Hour,
		Retention:        720 * time.Hour,
		ArchiveRetention: 720 * time.Hour,
	})
	res, err := lm.Cleanup(false)
	require.NoError(t, err)
	require.Equal(t, []string{"art-old"}, res.Archived)

	out, err := e.run(t, "prune", "--list-archives")
	require.NoError(t, err)
	assert.Equal(t, "art-old\n", out)

	out, err = e.run(t, "prune", "--restore", "art-old")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored artifacts of art-old")
	assert.FileExists(t, filepath.Join(dir, "final.md"))

	out, err = e.run(t, "prune", "--list-archives")
	require.NoError(t, err)
	assert.Contains(t, out, "No archived articles.")

	_, err = e.run(t, "prune", "--restore", "art-missing")
	assert.True(t, nferrors.IsInputValidation(err))
}

func TestTranscripts(t *testing.T) {
	e := newEnv(t)
	e.configure, _ = fakeStages()

	_, err := e.run(t, "run", "--id", "art-tr", "--auto-confirm", "予算管理")
	require.NoError(t, err)

	out, err := e.run(t, "transcripts", "stats", "--article", "art-tr")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, err = e.run(t, "transcripts", "list", "--article", "art-tr")
	require.NoError(t, err)
	assert.Contains(t, out, "run-")
}

func TestKnowledge_RequiresChroma(t *testing.T) {
	e := newEnv(t)
	doc := filepath.Join(e.dir, "note.md")
	require.NoError(t, os.WriteFile(doc, []byte("# 予算\n本文"), 0o644))

	_, err := e.run(t, "knowledge", "add", doc)
	assert.True(t, nferrors.IsInputValidation(err))
}

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "plain.txt")
	empty := filepath.Join(dir, "empty.md")
	require.NoError(t, os.WriteFile(a, []byte("# 予算の立て方\n本文"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("見出しなし"), 0o644))
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))

	docs, err := readDocuments([]string{a, b, empty})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "予算の立て方", docs[0].Metadata["title"])
	assert.Equal(t, "plain", docs[1].Metadata["title"])
	assert.Equal(t, "a.md", docs[0].ID)
}

func TestBuildNotifier(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	n := buildNotifier(&config.Settings{}, logger)
	assert.IsType(t, &notify.LogNotifier{}, n)

	n = buildNotifier(&config.Settings{
		WebhookURL:      "https://hooks.example.com/noteflow",
		WebhookSecret:   "s3cret",
		SlackWebhookURL: "https://hooks.slack.com/services/x",
	}, logger)
	assert.IsType(t, &notify.MultiNotifier{}, n)
}
