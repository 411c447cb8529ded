// Package openai implements the llm.Provider contract over OpenAI-compatible
// chat-completion APIs, using native tool calling for action requests.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/entrhq/webpilot/pkg/llm"
	"github.com/entrhq/webpilot/pkg/tools"
	"github.com/entrhq/webpilot/pkg/types"
)

// DefaultBaseURL is the standard OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider implements llm.Provider for OpenAI-compatible APIs.
type Provider struct {
	client      openai.Client
	model       string
	temperature float64
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model used for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ProviderOption {
	return func(p *Provider) {
		p.temperature = temperature
	}
}

// NewProvider creates a provider. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable; an empty baseURL to OPENAI_BASE_URL,
// then to the standard endpoint. Custom base URLs enable Azure, local
// gateways, and other compatible services.
func NewProvider(apiKey, baseURL string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY)")
	}
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	p := &Provider{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
		),
		model: "gpt-4o",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Infer sends the conversation with the declared action surface and
// classifies the response into an llm.Decision. A response without tool
// calls is the completion signal.
func (p *Provider) Infer(ctx context.Context, history []*types.Message, specs []tools.ActionSpec) (*llm.Decision, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    convertMessages(history),
		Temperature: openai.Float(p.temperature),
	}
	if len(specs) > 0 {
		params.Tools = convertSpecs(specs)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	msg := resp.Choices[0].Message
	decision := &llm.Decision{Content: msg.Content}

	for _, tc := range msg.ToolCalls {
		action := tools.Action{
			ID:   tc.ID,
			Name: tc.Function.Name,
		}
		if action.ID == "" {
			action.ID = uuid.New().String()
		}
		if tc.Function.Arguments != "" {
			args := make(map[string]any)
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to decode arguments for %s: %w", action.Name, err)
			}
			action.Args = args
		}
		decision.Actions = append(decision.Actions, action)
	}

	if len(decision.Actions) == 0 {
		decision.Done = true
	}
	// The API contract makes multi-call responses independent, so a batch of
	// two or more carries the parallel-dispatch hint.
	decision.Parallel = len(decision.Actions) > 1

	return decision, nil
}

// Complete runs a single-prompt completion without tools.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// convertMessages maps webpilot history onto the chat-completion wire shape,
// preserving assistant tool calls and tool results so the model sees the
// same structure it produced.
func convertMessages(history []*types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case types.RoleAssistant:
			if len(msg.Actions) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, action := range msg.Actions {
				args, err := json.Marshal(action.Args)
				if err != nil {
					args = []byte("{}")
				}
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: action.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      action.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case types.RoleTool:
			if msg.Result != nil && msg.Result.ActionID != "" {
				out = append(out, openai.ToolMessage(msg.Content, msg.Result.ActionID))
				continue
			}
			// Summaries and synthesized records without an action id are
			// replayed as user context.
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// convertSpecs maps the executor's action surface onto tool definitions.
func convertSpecs(specs []tools.ActionSpec) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(specs))
	for _, spec := range specs {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  openai.FunctionParameters(spec.Parameters),
			},
		})
	}
	return out
}
