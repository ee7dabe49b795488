package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/randalmurphal/noteflow/article"
	nferrors "github.com/randalmurphal/noteflow/errors"
	"github.com/randalmurphal/noteflow/notify"
)

// emit sends an event to the engine's notifier, or to one injected in the
// context when the engine has none. Notification errors never fail the
// workflow.
func (e *Engine) emit(ctx context.Context, event notify.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	n := e.notifier
	if _, nop := n.(notify.NopNotifier); nop {
		if injected := notify.NotifierFromContext(ctx); injected != nil {
			n = injected
		}
	}
	if err := n.Notify(ctx, event); err != nil {
		e.logger.Warn("notification failed", "type", event.Type, "article_id", event.ArticleID, "error", err)
	}
}

func phaseEvent(st *article.State, runID string, t Transition) notify.Event {
	return notify.Event{
		Type:      notify.EventPhaseChanged,
		ArticleID: st.ID,
		RunID:     runID,
		From:      string(t.From),
		To:        string(t.To),
		Trigger:   string(t.Trigger),
		Message:   fmt.Sprintf("%s -> %s", t.From, t.To),
		Severity:  notify.SeverityInfo,
		Metadata:  buildMetadata(st),
	}
}

func completedEvent(st *article.State, runID string) notify.Event {
	event := notify.Event{
		Type:      notify.EventRunCompleted,
		ArticleID: st.ID,
		RunID:     runID,
		To:        string(st.Phase),
		Severity:  notify.SeverityInfo,
		Message:   fmt.Sprintf("article completed with score %d", st.ReviewScore),
		Metadata:  buildMetadata(st),
	}
	if st.ForcedCompletion() {
		event.Severity = notify.SeverityWarning
		event.Message = fmt.Sprintf("article completed below threshold with score %d", st.ReviewScore)
	}
	return event
}

func failedEvent(st *article.State, runID string, err error) notify.Event {
	meta := buildMetadata(st)
	meta["errorKind"] = string(nferrors.KindOf(err))
	return notify.Event{
		Type:      notify.EventRunFailed,
		ArticleID: st.ID,
		RunID:     runID,
		From:      string(st.Phase),
		Severity:  notify.SeverityError,
		Message:   err.Error(),
		Metadata:  meta,
	}
}

// buildMetadata builds notification metadata from state
func buildMetadata(st *article.State) map[string]any {
	meta := make(map[string]any)

	meta["phase"] = string(st.Phase)
	meta["keywords"] = st.SEOKeywords
	if st.Title != "" {
		meta["title"] = st.Title
	}
	if len(st.Essences) > 0 {
		meta["essences"] = len(st.Essences)
	}
	if st.Draft != nil {
		meta["draftTitle"] = st.Draft.Title()
		meta["draftPass"] = st.Draft.Pass
	}
	if st.ReviewMeaningful() && st.Draft != nil && st.ReviewScore > 0 {
		meta["score"] = st.ReviewScore
		meta["breakdown"] = st.Breakdown.String()
	}
	meta["retries"] = st.RetryCount

	return meta
}
