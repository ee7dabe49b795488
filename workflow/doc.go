// Package workflow drives an article from planning to a reviewed draft.
//
// The phases and the edges between them are data: Transitions lists every
// edge with its trigger and guard, and Fire is the only way a phase
// changes.
//
//	planning --keywords_confirmed--> researching --research_completed--> waiting_input
//	waiting_input --input_confirmed--> drafting --draft_produced--> review
//	review --review_passed--> completed
//	review --review_failed--> drafting      (once; retry_count becomes 1)
//	review --review_exhausted--> completed  (below threshold, feedback kept)
//
// # Commit boundary
//
// Each transition, together with the stage result it depends on, is applied
// to a copy of the article, saved, and only then adopted. A failed save
// leaves the caller's state at its previous phase and returns an error
// matching errors.ErrPersistence.
//
// # Concurrency
//
// One Run, Resume, Confirm or SubmitEssences may be in flight per article.
// A second call on the same article fails with errors.ErrArticleBusy.
//
// # Usage
//
//	engine := workflow.New(db, researchStage, draftStage, reviewStage,
//	    workflow.WithNotifier(notifier),
//	    workflow.WithArtifacts(artifacts),
//	)
//	st, err := engine.Run(ctx, "", "予算管理 中小企業") // stops at waiting_input
//	st, err = engine.SubmitEssences(ctx, st.ID, essence)
//	st, err = engine.Confirm(ctx, st.ID) // drafts, reviews, completes
package workflow
