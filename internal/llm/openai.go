package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/trace"

	chemotel "github.com/triggsmt67-cmd/unitedformulas-chemist/internal/otel"
)

var tracer = chemotel.Tracer("github.com/triggsmt67-cmd/unitedformulas-chemist/internal/llm")

// classifyTemperature pins the routing call to deterministic output.
const classifyTemperature = 0

// OpenAIProvider implements the Provider interface for OpenAI-compatible APIs.
type OpenAIProvider struct {
	client        *openai.Client
	classifyModel string
	chatModel     string
}

// NewOpenAIProvider creates an OpenAI provider with the given API key.
// classifyModel serves the one-shot routing call, chatModel the answering call.
func NewOpenAIProvider(apiKey, classifyModel, chatModel string) *OpenAIProvider {
	return &OpenAIProvider{
		client:        openai.NewClient(apiKey),
		classifyModel: classifyModel,
		chatModel:     chatModel,
	}
}

// NewOpenAIProviderWithBaseURL creates an OpenAI provider with a custom base URL
// (e.g. for tests pointing at a mock server). baseURL should be the scheme+host
// without path; the client appends /v1 as needed.
func NewOpenAIProviderWithBaseURL(apiKey, baseURL, classifyModel, chatModel string) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"
	return &OpenAIProvider{
		client:        openai.NewClientWithConfig(config),
		classifyModel: classifyModel,
		chatModel:     chatModel,
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Classify sends a one-shot completion request and returns the raw text.
// The router is responsible for parsing it into a retrieval decision.
func (p *OpenAIProvider) Classify(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "gen_ai.classify",
		trace.WithAttributes(
			chemotel.GenAISystem.String("openai"),
			chemotel.GenAIRequestModel.String(p.classifyModel),
			chemotel.GenAIRequestTemperature.Float64(classifyTemperature),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, TimeoutClassify)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.classifyModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: classifyTemperature,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("openai classify call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai classify call: %w", ErrEmptyResponse)
	}

	span.SetAttributes(
		chemotel.GenAIUsageInputTokens.Int(resp.Usage.PromptTokens),
		chemotel.GenAIUsageOutputTokens.Int(resp.Usage.CompletionTokens),
		chemotel.GenAIResponseFinishReason.String(string(resp.Choices[0].FinishReason)),
	)
	return resp.Choices[0].Message.Content, nil
}

// Chat sends the system instruction, prior turns, and the new user message.
// Callers must ensure turns open on a user turn; the answer invoker strips
// leading assistant turns before calling.
func (p *OpenAIProvider) Chat(ctx context.Context, system string, turns []Message, message string) (string, error) {
	ctx, span := tracer.Start(ctx, "gen_ai.chat",
		trace.WithAttributes(
			chemotel.GenAISystem.String("openai"),
			chemotel.GenAIRequestModel.String(p.chatModel),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, TimeoutChat)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.chatModel,
		Messages: messages,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("openai chat call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat call: %w", ErrEmptyResponse)
	}

	span.SetAttributes(
		chemotel.GenAIUsageInputTokens.Int(resp.Usage.PromptTokens),
		chemotel.GenAIUsageOutputTokens.Int(resp.Usage.CompletionTokens),
		chemotel.GenAIResponseFinishReason.String(string(resp.Choices[0].FinishReason)),
	)
	return resp.Choices[0].Message.Content, nil
}
