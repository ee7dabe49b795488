// Package noteflow drafts articles from SEO keywords in a bounded workflow:
// research, a pause for the author's own experience, drafting, and a scored
// review that may send the draft back for one revision.
//
// The package is organized into subpackages by domain:
//
//   - article: Article state, phases, essences and review results
//   - workflow: The engine that advances articles phase by phase
//   - research, draft, review: The stages the engine runs
//   - propose: Article theme suggestions for a seed keyword
//   - links: Internal link suggestions attached to drafts
//   - generator: Prompted LLM calls behind the stages
//   - scoring: The review rubric and pre-review checks
//   - search, vector: Web search and similarity lookups for research
//   - store: Article persistence (SQLite)
//   - publish: Browser and dry-run publishing of completed articles
//   - transcript, artifact: Generator transcripts and per-article files
//   - notify: Notification services (log, Slack, webhook)
//   - config: Layered settings
//   - context: Service dependency injection
//   - prompt, task, markdown, http, auth, errors: Shared utilities
//   - testutil: Test utilities and fixtures
//
// # Quick Start
//
//	import (
//	    "github.com/randalmurphal/noteflow/workflow"
//	    "github.com/randalmurphal/noteflow/store"
//	)
//
//	db, _ := store.Open("noteflow.db")
//	engine := workflow.New(db, researchStage, draftStage, reviewStage)
//
//	// Stops at waiting_for_input until essences are submitted.
//	st, err := engine.Run(ctx, article.NewID(), "予算管理 中小企業")
//	st, err = engine.SubmitEssences(ctx, st.ID, essence)
//	st, err = engine.Confirm(ctx, st.ID)
//
// The noteflow command in cmd/noteflow wires these together.
package noteflow
