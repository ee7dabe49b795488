// Package article defines the unit of work for the content workflow.
//
// State carries an article from keyword confirmation to a reviewed draft.
// It is a plain value: stages read it, the workflow engine mutates a clone,
// and the clone replaces the original only after it has been persisted.
//
//	st := article.New("EPM SaaS onboarding")
//	if err := st.Validate(article.RequireKeywords); err != nil {
//	    return err
//	}
//
// Phases advance in declaration order, with one permitted step back from
// PhaseReview to PhaseDrafting, bounded by MaxRetries.
package article
