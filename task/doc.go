// Package task maps generation roles to LLM models.
//
// Each call the generator makes plays a role: drafting and revising are
// writing work, scoring is judgment, outlining and summarizing are cheap
// extraction. Roles map to llmkit tiers, and a selector built from those
// tiers picks the concrete model.
//
//	selector := task.NewSelector(model.WithTaskOverride(task.Score, model.ModelSonnet))
//	m := selector.Select(task.Draft)
package task
