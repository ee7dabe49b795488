// Package transcript records the generator exchanges of each workflow stage.
//
// A run covers one stage execution for one article. Every prompt sent to the
// generator and every completion it returned is kept as a turn, with token
// usage, so a reviewer can see exactly what produced a draft or a score.
//
//	store, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: ".noteflow/transcripts"})
//	err = store.StartRun(runID, transcript.RunMetadata{ArticleID: id, Phase: "drafting"})
//	err = transcript.RecordExchange(store, runID, transcript.Exchange{Task: "draft", Prompt: p, Response: r})
//	err = store.EndRun(runID, transcript.RunStatusCompleted)
package transcript
