// Package prompt loads the generator's prompt templates.
//
// Templates are text/template files named <name>.txt. Project overrides in
// .noteflow/prompts/ or prompts/ win over the embedded defaults:
//
//	draft-system   role and house style for the writer
//	draft          first drafting pass
//	revise         correction pass with review feedback
//	review-system  role for the reviewer
//	review         rubric scoring request
//	outline        content gaps and suggested outline
//
// Example usage:
//
//	loader := prompt.NewLoader(projectDir)
//	if err := loader.Validate(); err != nil { ... }
//	text, err := loader.LoadWithVars(string(prompt.Draft), map[string]any{
//	    "Keywords": "EPM SaaS onboarding",
//	    "Outline":  []string{"導入", "まとめ"},
//	})
//
// Builder assembles ad-hoc markdown documents such as the research brief.
package prompt
