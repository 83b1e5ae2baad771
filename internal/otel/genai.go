package otel

import (
	"go.opentelemetry.io/otel/attribute"
)

// GenAI Semantic Conventions for LLM observability
// Based on OpenTelemetry GenAI SIG conventions

const (
	GenAISystem       = attribute.Key("gen_ai.system")
	GenAIRequestModel = attribute.Key("gen_ai.request.model")

	GenAIRequestTemperature = attribute.Key("gen_ai.request.temperature")

	GenAIUsageInputTokens  = attribute.Key("gen_ai.usage.input_tokens")
	GenAIUsageOutputTokens = attribute.Key("gen_ai.usage.output_tokens")

	GenAIResponseFinishReason = attribute.Key("gen_ai.response.finish_reason")
)
