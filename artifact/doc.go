// Package artifact stores the files an article accumulates on its way
// through the workflow: the research brief, every draft, every review, the
// final markdown and publish screenshots.
//
// Artifacts live under <BaseDir>/articles/<article-id>/. Large text
// artifacts are gzip-compressed transparently. LifecycleManager archives
// and eventually deletes the artifacts of completed articles.
//
//	mgr := artifact.NewManager(artifact.Config{BaseDir: ".noteflow/artifacts"})
//	err := mgr.Save(id, artifact.DraftName(0), []byte(draft.ContentMD))
//	data, err := mgr.Load(id, artifact.ArtifactBrief)
package artifact
