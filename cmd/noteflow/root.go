package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/noteflow/config"
	nferrors "github.com/randalmurphal/noteflow/errors"
)

// version is set at build time via -ldflags.
var version = "dev"

// cli holds state shared by every command of one invocation.
type cli struct {
	flags struct {
		dbPath   string
		logLevel string
	}

	resolver *config.Resolver
	settings *config.Settings
	logger   *slog.Logger

	// newApp is replaced in tests.
	newApp func(*config.Settings, *slog.Logger) (*app, error)
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&cli{newApp: openApp})
}

func buildRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "noteflow",
		Short: "Draft, review and publish articles from SEO keywords",
		Long: "noteflow researches a keyword set, collects the author's own experience,\n" +
			"drafts an article, scores it and revises it once if it falls short.",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.flags.dbPath, "db", "", "Article database path (default from config)")
	f.StringVar(&c.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(c),
		newProposeCmd(c),
		newEssenceCmd(c),
		newResumeCmd(c),
		newStatusCmd(c),
		newPublishCmd(c),
		newPruneCmd(c),
		newConfigCmd(c),
		newTranscriptsCmd(c),
		newKnowledgeCmd(c),
	)
	return root
}

// load resolves settings and sets up logging.
func (c *cli) load(cmd *cobra.Command, _ []string) error {
	if c.resolver == nil {
		c.resolver = config.NewNoteflowResolver()
	}
	resolved := c.resolver.ResolveWithFlags(map[string]string{
		config.KeyDBPath:   c.flags.dbPath,
		config.KeyLogLevel: c.flags.logLevel,
	})
	settings, warnings, err := config.LoadSettings(resolved)
	if err != nil {
		return nferrors.ForCLI(err)
	}
	c.settings = settings
	c.logger = newLogger(cmd.ErrOrStderr(), settings.LogLevel)
	slog.SetDefault(c.logger)
	for _, w := range warnings {
		c.logger.Warn(w)
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// open builds the application services for a command.
func (c *cli) open() (*app, error) {
	if c.settings == nil {
		return nil, fmt.Errorf("settings not loaded")
	}
	return c.newApp(c.settings, c.logger)
}

// fail converts err for display, naming the article when known.
func fail(err error, articleID string) error {
	if err == nil {
		return nil
	}
	return nferrors.ForCLI(err, nferrors.WithArticleID(articleID))
}
