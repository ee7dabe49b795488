package workflow

import (
	"github.com/randalmurphal/noteflow/article"
	"github.com/randalmurphal/noteflow/artifact"
)

// Artifact writes are best effort. The store is the record; artifacts are
// for people reading along.

func (e *Engine) saveResearch(st *article.State) {
	if e.artifacts == nil || st.Research == nil {
		return
	}
	e.saveArtifact(st.ID, artifact.ArtifactBrief, []byte(st.Research.SummaryText))
	e.saveArtifactJSON(st.ID, artifact.ArtifactResearch, st.Research)
}

func (e *Engine) saveDraft(st *article.State) {
	if e.artifacts == nil || st.Draft == nil {
		return
	}
	e.saveArtifact(st.ID, artifact.DraftName(st.RetryCount), []byte(st.Draft.ContentMD))
}

func (e *Engine) saveReview(st *article.State, r *article.ReviewResult) {
	if e.artifacts == nil {
		return
	}
	// RetryCount was already advanced when the review failed with a retry left.
	pass := st.RetryCount
	if st.Phase == article.PhaseDrafting {
		pass--
	}
	e.saveArtifactJSON(st.ID, artifact.ReviewName(pass), r)
}

func (e *Engine) saveFinal(st *article.State) {
	if e.artifacts == nil || st.Draft == nil {
		return
	}
	e.saveArtifact(st.ID, artifact.ArtifactFinal, []byte(st.Draft.ContentMD))
}

func (e *Engine) touchArtifacts(st *article.State) {
	if e.artifacts == nil {
		return
	}
	if err := e.artifacts.Touch(st.ID, string(st.Phase), st.Phase == article.PhaseCompleted); err != nil {
		e.logger.Warn("failed to update artifact metadata", "article_id", st.ID, "error", err)
	}
}

func (e *Engine) saveArtifact(articleID, name string, data []byte) {
	if err := e.artifacts.Save(articleID, name, data); err != nil {
		e.logger.Warn("failed to save artifact", "article_id", articleID, "name", name, "error", err)
	}
}

func (e *Engine) saveArtifactJSON(articleID, name string, v any) {
	if err := e.artifacts.SaveJSON(articleID, name, v); err != nil {
		e.logger.Warn("failed to save artifact", "article_id", articleID, "name", name, "error", err)
	}
}
