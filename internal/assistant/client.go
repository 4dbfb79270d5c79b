package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Vibebros/sgkb-clanky/internal/assistant/tools"
	"github.com/Vibebros/sgkb-clanky/internal/llm"
)

// maxToolRounds caps the advisor's tool-calling loop so a confused model
// cannot spin forever against the store.
const maxToolRounds = 5

// AgentClient submits prompts to the configured LLM provider under a given
// persona. Constructed once at startup and injected into the engine; it
// holds no mutable state, so concurrent orchestrations share it freely.
type AgentClient struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
}

// NewAgentClient creates a client over the given provider and model.
func NewAgentClient(provider llm.Provider, model string) *AgentClient {
	return &AgentClient{
		provider:    provider,
		model:       model,
		temperature: 0.7,
		maxTokens:   2000,
	}
}

// Invoke sends a prompt to the persona's agent and returns the raw reply
// text. No JSON validity is guaranteed; callers parse defensively.
func (c *AgentClient) Invoke(ctx context.Context, persona Persona, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "assistant.invoke",
		trace.WithAttributes(attribute.String("agent.name", persona.Name)))
	defer span.End()

	resp, err := c.provider.Generate(ctx, &llm.Request{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: persona.Instructions},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("invoking agent %s: %w", persona.Name, err)
	}
	return resp.Content, nil
}

// InvokeWithTools runs the persona with access to the registered tools,
// executing tool calls until the model produces a final text reply. Tool
// execution errors abort the run; soft failures are the tool's own job to
// report inside its payload.
func (c *AgentClient) InvokeWithTools(ctx context.Context, persona Persona, prompt string, registry *tools.Registry) (string, error) {
	ctx, span := tracer.Start(ctx, "assistant.invoke_with_tools",
		trace.WithAttributes(attribute.String("agent.name", persona.Name)))
	defer span.End()

	var toolDefs []llm.Tool
	for _, t := range registry.List() {
		toolDefs = append(toolDefs, llm.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: persona.Instructions},
		{Role: llm.RoleUser, Content: prompt},
	}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := c.provider.Generate(ctx, &llm.Request{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
			Tools:       toolDefs,
		})
		if err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("invoking agent %s: %w", persona.Name, err)
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result, err := c.executeToolCall(ctx, registry, call)
			if err != nil {
				return "", err
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    string(result),
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("agent %s exceeded %d tool rounds without a final reply", persona.Name, maxToolRounds)
}

func (c *AgentClient) executeToolCall(ctx context.Context, registry *tools.Registry, call llm.ToolCall) (json.RawMessage, error) {
	tool, ok := registry.Get(call.Name)
	if !ok {
		// Unknown tool names go back to the model as an error payload so it
		// can correct itself instead of killing the whole advisor run.
		log.Warn().Str("tool", call.Name).Msg("unknown_tool_requested")
		return json.Marshal(map[string]string{"error": "unknown tool: " + call.Name})
	}

	log.Debug().Str("tool", call.Name).Msg("tool_call_started")
	result, err := tool.Execute(ctx, json.RawMessage(call.Arguments))
	if err != nil {
		return nil, fmt.Errorf("executing tool %s: %w", call.Name, err)
	}
	return result, nil
}
