package generator

import (
	"context"
	"errors"
	"sync"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/randalmurphal/flowgraph/pkg/flowgraph/llm"
	"github.com/randalmurphal/llmkit/model"

	"github.com/randalmurphal/noteflow/task"
)

// CompleteRequest is one prompt sent to a model backend.
type CompleteRequest struct {
	Task   task.Type
	System string
	Prompt string
}

// Completion is a backend's answer.
type Completion struct {
	Content   string
	TokensIn  int
	TokensOut int
	Model     string
}

// Completer is a single-shot text completion backend.
type Completer interface {
	Complete(ctx context.Context, req CompleteRequest) (*Completion, error)
}

// =============================================================================
// flowgraph backend
// =============================================================================

// FlowgraphCompleter sends prompts through a flowgraph llm.Client. The model
// is a property of the client, so one client is kept per selected model.
type FlowgraphCompleter struct {
	selector  *model.Selector
	newClient func(modelName string) llm.Client

	mu      sync.Mutex
	fixed   llm.Client
	clients map[string]llm.Client
}

// NewFlowgraphCompleter wraps a fixed client. Every task uses it.
func NewFlowgraphCompleter(client llm.Client) *FlowgraphCompleter {
	return &FlowgraphCompleter{fixed: client}
}

// NewClaudeCompleter creates Claude CLI clients on demand, one per model the
// selector picks.
func NewClaudeCompleter(workdir string, selector *model.Selector) *FlowgraphCompleter {
	if selector == nil {
		selector = task.NewSelector()
	}
	if workdir == "" {
		workdir = "."
	}
	return &FlowgraphCompleter{
		selector: selector,
		newClient: func(modelName string) llm.Client {
			return llm.NewClaudeCLI(
				llm.WithModel(modelName),
				llm.WithWorkdir(workdir),
				llm.WithDangerouslySkipPermissions(), // Non-interactive mode for automation
			)
		},
		clients: make(map[string]llm.Client),
	}
}

func (c *FlowgraphCompleter) client(t task.Type) (llm.Client, string) {
	if c.fixed != nil {
		return c.fixed, ""
	}
	name := string(c.selector.Select(t))

	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.clients[name]
	if !ok {
		cl = c.newClient(name)
		c.clients[name] = cl
	}
	return cl, name
}

// Complete implements Completer.
func (c *FlowgraphCompleter) Complete(ctx context.Context, req CompleteRequest) (*Completion, error) {
	client, modelName := c.client(req.Task)
	resp, err := client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: req.System,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: req.Prompt}},
	})
	if err != nil {
		return nil, err
	}
	return &Completion{
		Content:   resp.Content,
		TokensIn:  resp.Usage.InputTokens,
		TokensOut: resp.Usage.OutputTokens,
		Model:     modelName,
	}, nil
}

// =============================================================================
// OpenAI backend
// =============================================================================

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o"

// OpenAIConfig configures NewOpenAICompleter.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional, for compatible gateways
	Model   string // default: DefaultOpenAIModel
}

// OpenAICompleter sends prompts to the chat completions API.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter validates cfg and builds the client.
func NewOpenAICompleter(cfg OpenAIConfig) (*OpenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set openai_api_key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAICompleter{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Complete implements Completer. The task does not change the model.
func (c *OpenAICompleter) Complete(ctx context.Context, req CompleteRequest) (*Completion, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty choices")
	}
	return &Completion{
		Content:   resp.Choices[0].Message.Content,
		TokensIn:  int(resp.Usage.PromptTokens),
		TokensOut: int(resp.Usage.CompletionTokens),
		Model:     c.model,
	}, nil
}
