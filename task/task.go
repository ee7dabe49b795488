package task

import (
	"github.com/randalmurphal/llmkit/model"
)

// Type represents the generation role an LLM call plays in the workflow.
// This determines which model tier is appropriate.
type Type string

const (
	// Judging needs the strongest reasoning.
	Score Type = "score"

	// Writing tasks - default tier
	Draft   Type = "draft"
	Revise  Type = "revise"
	Propose Type = "propose"

	// Fast tasks - can use smaller models
	Outline   Type = "outline"
	Summarize Type = "summarize"
)

// Types lists every known role.
var Types = []Type{Score, Draft, Revise, Propose, Outline, Summarize}

// DefaultModelMap maps task types to default models.
var DefaultModelMap = map[Type]model.ModelName{
	Score:     model.ModelOpus,
	Draft:     model.ModelSonnet,
	Revise:    model.ModelSonnet,
	Propose:   model.ModelSonnet,
	Outline:   model.ModelHaiku,
	Summarize: model.ModelHaiku,
}

// TierForTask returns the appropriate tier for a task type.
func TierForTask(t Type) model.Tier {
	switch t {
	case Score:
		return model.TierThinking
	case Outline, Summarize:
		return model.TierFast
	default:
		return model.TierDefault
	}
}

// NewSelector creates a model selector configured for workflow roles.
// It uses the standard task-to-tier mapping.
func NewSelector(opts ...model.SelectorOption) *model.Selector {
	allOpts := append([]model.SelectorOption{
		model.WithTierFunc(func(task any) model.Tier {
			if t, ok := task.(Type); ok {
				return TierForTask(t)
			}
			return model.TierDefault
		}),
	}, opts...)

	return model.NewSelector(allOpts...)
}

// SelectorFor builds a selector honoring a single configured model.
// An empty name keeps the per-role defaults.
func SelectorFor(name string) *model.Selector {
	if name == "" {
		return NewSelector()
	}
	return NewSelector(model.WithGlobalOverride(model.ModelName(name)))
}

// SelectModel selects the appropriate model for a task type.
// Uses the default model map unless overridden.
func SelectModel(t Type) model.ModelName {
	if m, ok := DefaultModelMap[t]; ok {
		return m
	}
	switch TierForTask(t) {
	case model.TierThinking:
		return model.ModelOpus
	case model.TierFast:
		return model.ModelHaiku
	default:
		return model.ModelSonnet
	}
}
