package errors

import (
	"strings"
)

// CLIError wraps an error with user-friendly context and suggestions.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message is a user-friendly description of what went wrong
	Message string

	// Suggestion is an actionable hint for the user
	Suggestion string

	// Details provides additional context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// ErrorMessenger provides customizable error messages.
// Implement this interface to customize suggestions for your CLI.
type ErrorMessenger interface {
	InputValidationMessage() (message, suggestion string)
	ExternalLookupMessage(connection bool) (message, suggestion string)
	GenerationMessage() (message, suggestion string)
	ScoringContractMessage() (message, suggestion string)
	PersistenceMessage() (message, suggestion string)
	BusyMessage(articleID string) (message, suggestion string)
	NotFoundMessage(articleID string) (message, suggestion string)
}

// DefaultMessenger provides default error messages.
type DefaultMessenger struct{}

func (m DefaultMessenger) InputValidationMessage() (string, string) {
	return "The input was rejected.", "Check the keywords and essence fields and try again."
}

func (m DefaultMessenger) ExternalLookupMessage(connection bool) (string, string) {
	if connection {
		return "A research service could not be reached.",
			"Check that:\n  - The service URL is correct\n  - Your network connection is working\nThen run resume again."
	}
	return "A research lookup failed.", "Check the search and knowledge base credentials, then run resume again."
}

func (m DefaultMessenger) GenerationMessage() (string, string) {
	return "The text generator failed.", "The phase was not advanced. Run resume again once the generator is available."
}

func (m DefaultMessenger) ScoringContractMessage() (string, string) {
	return "The reviewer returned scores that break the rubric.",
		"This is not retried automatically. Inspect the transcript for the review and report it."
}

func (m DefaultMessenger) PersistenceMessage() (string, string) {
	return "The article could not be saved.", "Check that the database path is writable, then run resume again."
}

func (m DefaultMessenger) BusyMessage(articleID string) (string, string) {
	return "Article " + articleID + " is already being processed.", "Wait for the other run to finish."
}

func (m DefaultMessenger) NotFoundMessage(articleID string) (string, string) {
	return "Article " + articleID + " does not exist.", "List articles with 'noteflow status'."
}

// WrapConfig configures error wrapping behavior.
type WrapConfig struct {
	Messenger ErrorMessenger
	ArticleID string
}

// Option configures WrapConfig.
type Option func(*WrapConfig)

// WithMessenger sets a custom error messenger.
func WithMessenger(m ErrorMessenger) Option {
	return func(c *WrapConfig) {
		c.Messenger = m
	}
}

// WithArticleID names the article in busy and not-found messages.
func WithArticleID(id string) Option {
	return func(c *WrapConfig) {
		c.ArticleID = id
	}
}

func getConfig(opts []Option) *WrapConfig {
	cfg := &WrapConfig{
		Messenger: DefaultMessenger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ForCLI converts a workflow error into a CLIError with guidance.
// Errors outside the taxonomy are returned unchanged.
func ForCLI(err error, opts ...Option) error {
	if err == nil {
		return nil
	}
	cfg := getConfig(opts)
	m := cfg.Messenger

	var msg, suggestion string
	switch KindOf(err) {
	case KindInputValidation:
		msg, suggestion = m.InputValidationMessage()
	case KindExternalLookup:
		msg, suggestion = m.ExternalLookupMessage(IsConnectionError(err))
	case KindGeneration:
		msg, suggestion = m.GenerationMessage()
	case KindScoringContract:
		msg, suggestion = m.ScoringContractMessage()
	case KindPersistence:
		msg, suggestion = m.PersistenceMessage()
	case KindBusy:
		msg, suggestion = m.BusyMessage(cfg.ArticleID)
	case KindNotFound:
		msg, suggestion = m.NotFoundMessage(cfg.ArticleID)
	default:
		return err
	}
	return &CLIError{
		Err:        err,
		Message:    msg,
		Suggestion: suggestion,
		Details:    err.Error(),
	}
}
