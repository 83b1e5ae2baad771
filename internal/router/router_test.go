package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/conversation"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/llm"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/metadata"
)

// fakeProvider returns a canned classification response and captures prompts.
type fakeProvider struct {
	response string
	err      error
	prompt   string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Classify(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeProvider) Chat(ctx context.Context, system string, turns []llm.Message, message string) (string, error) {
	return "", nil
}

func testSnapshot() *metadata.Snapshot {
	snap := &metadata.Snapshot{
		FileIndex: []string{
			"grounding__delta-green__v1.txt",
			"grounding__ace__v1.txt",
		},
		CatalogGuide: "Degreasers, detergents, disinfectants.",
		UseCases:     []metadata.UseCase{{Problem: "greasy workshop floor", Solution: "Delta Green 1:40"}},
	}
	return snap
}

func route(t *testing.T, response, message string) Decision {
	t.Helper()
	r := New(&fakeProvider{response: response})
	d, err := r.Route(context.Background(), message, nil, testSnapshot())
	require.NoError(t, err)
	return d
}

func TestRoute_DecisionTokens(t *testing.T) {
	assert.Equal(t, KindClarify, route(t, "CLARIFY", "is it toxic").Kind)
	assert.Equal(t, KindDelivery, route(t, "DELIVERY", "do you deliver to 33101").Kind)
	assert.Equal(t, KindUseCase, route(t, "USE_CASE", "my floor is greasy").Kind)
	assert.Equal(t, KindGeneral, route(t, "GENERAL", "what time is it").Kind)
	assert.Equal(t, KindNone, route(t, "NONE", "do you sell MegaShine").Kind)
}

func TestRoute_DocumentIdentifier(t *testing.T) {
	d := route(t, "grounding__delta-green__v1.txt", "tell me about delta green")
	assert.Equal(t, KindDocument, d.Kind)
	assert.Equal(t, "grounding__delta-green__v1.txt", d.Document)
}

func TestRoute_NormalizesFencesAndQuotes(t *testing.T) {
	d := route(t, "```\n\"grounding__ace__v1.txt\"\n```", "tell me about ace")
	assert.Equal(t, KindDocument, d.Kind)
	assert.Equal(t, "grounding__ace__v1.txt", d.Document)
}

func TestRoute_DecisionPriorityOverDocument(t *testing.T) {
	d := route(t, "NONE grounding__ace__v1.txt", "something")
	assert.Equal(t, KindNone, d.Kind)
}

func TestRoute_FirstKeywordOccurrenceWins(t *testing.T) {
	d := route(t, "GUIDE or maybe NONE", "something")
	assert.Equal(t, KindGuide, d.Kind)
}

func TestRoute_KeywordOverride(t *testing.T) {
	// The spec-level guard: fuzzy category search misread as NONE.
	d := route(t, "NONE", "do you have a floor degreaser")
	assert.Equal(t, KindGuide, d.Kind)

	// Misspellings count too.
	d = route(t, "GENERAL", "need a degresser for my garage")
	assert.Equal(t, KindGuide, d.Kind)
}

func TestRoute_KeywordOverrideDoesNotTouchProtectedKinds(t *testing.T) {
	assert.Equal(t, KindDelivery, route(t, "DELIVERY", "deliver degreaser to 33101").Kind)
	assert.Equal(t, KindUseCase, route(t, "USE_CASE", "degreaser for oily floor").Kind)
	assert.Equal(t, KindClarify, route(t, "CLARIFY", "is the degreaser toxic").Kind)
}

func TestRoute_RunawayResponseFallsBack(t *testing.T) {
	runaway := "I think the customer is asking about our catalog of cleaning products, so I would say..."

	d := route(t, runaway, "do you have a floor degreaser")
	assert.Equal(t, KindGuide, d.Kind, "keyword hit falls back to the guide")

	d = route(t, runaway, "tell me about MegaShine")
	assert.Equal(t, KindNone, d.Kind, "no keyword falls back to NONE")
}

func TestRoute_ShortUnknownTokenPassesThrough(t *testing.T) {
	d := route(t, "grounding__mystery__v9.txt", "tell me about mystery")
	assert.Equal(t, KindDocument, d.Kind)
	assert.Equal(t, "grounding__mystery__v9.txt", d.Document, "assembler owns the existence check")
}

func TestRoute_EmptyResponseFallsBack(t *testing.T) {
	assert.Equal(t, KindNone, route(t, "", "tell me about MegaShine").Kind)
}

func TestRoute_ClassifierErrorPropagates(t *testing.T) {
	r := New(&fakeProvider{err: errors.New("model down")})
	_, err := r.Route(context.Background(), "hello", nil, testSnapshot())
	assert.Error(t, err)
}

func TestBuildPrompt_IncludesSources(t *testing.T) {
	p := &fakeProvider{response: "CLARIFY"}
	r := New(p)
	history := []conversation.Turn{
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello, how can I help?"},
	}
	_, err := r.Route(context.Background(), "is it toxic", history, testSnapshot())
	require.NoError(t, err)

	assert.Contains(t, p.prompt, "grounding__delta-green__v1.txt")
	assert.Contains(t, p.prompt, "greasy workshop floor")
	assert.Contains(t, p.prompt, "Degreasers, detergents")
	assert.Contains(t, p.prompt, "assistant: hello, how can I help?")
	assert.Contains(t, p.prompt, "is it toxic")
}
