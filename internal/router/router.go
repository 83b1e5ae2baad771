package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/conversation"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/llm"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/metadata"
)

// Category and problem substrings that signal fuzzy catalog-search intent,
// including common misspellings seen in production traffic. Matching is
// case-insensitive substring containment.
var categoryKeywords = []string{
	"degreaser", "degresser", "degreser", "desgreaser",
	"detergent", "detergant", "deterjent",
	"disinfectant", "desinfectant", "disenfectant",
	"sanitizer", "sanitiser",
	"descaler", "de-scaler",
	"stripper", "sealer", "polish", "wax",
	"bleach", "solvent", "soap",
	"floor cleaner", "glass cleaner", "all purpose", "all-purpose",
}

// A normalized classifier output longer than this, or containing whitespace,
// is a runaway conversational reply rather than a vocabulary token.
const maxPlausibleToken = 64

// recent history turns included in the classification prompt.
const promptHistoryTurns = 6

// Router maps a user turn onto one retrieval decision using the one-shot
// classification call.
type Router struct {
	provider llm.Provider
}

// New creates a Router on the given model provider.
func New(provider llm.Provider) *Router {
	return &Router{provider: provider}
}

// Route classifies the message plus recent history into exactly one
// retrieval decision. A failed classification call fails the whole request;
// routing failure is not independently recovered.
func (r *Router) Route(ctx context.Context, message string, history []conversation.Turn, snap *metadata.Snapshot) (Decision, error) {
	raw, err := r.provider.Classify(ctx, buildPrompt(message, history, snap))
	if err != nil {
		return Decision{}, fmt.Errorf("classification call: %w", err)
	}

	keywordHit := containsCategoryKeyword(message)
	decision, parsed := parseResponse(raw, snap)

	if !parsed {
		token := normalizeResponse(raw)
		if token == "" || len(token) > maxPlausibleToken || strings.ContainsAny(token, " \t") {
			// Runaway conversational reply instead of a token.
			if keywordHit {
				log.Debug().Str("raw", token).Msg("router_fallback_guide")
				return Decision{Kind: KindGuide}, nil
			}
			log.Debug().Str("raw", token).Msg("router_fallback_none")
			return Decision{Kind: KindNone}, nil
		}
		// A short unknown token is treated as a document identifier; the
		// assembler's file-index check handles absence.
		return Decision{Kind: KindDocument, Document: token}, nil
	}

	if keywordHit {
		switch decision.Kind {
		case KindUseCase, KindDelivery, KindClarify:
		default:
			// The model under-recognizes fuzzy or typo'd category search
			// intent; a category keyword in the message forces the guide.
			log.Debug().Str("decision", decision.String()).Msg("router_keyword_override")
			return Decision{Kind: KindGuide}, nil
		}
	}

	return decision, nil
}

// parseResponse normalizes the raw model output and parses it into a
// decision. Decision keywords take priority over document identifiers when
// both appear.
func parseResponse(raw string, snap *metadata.Snapshot) (Decision, bool) {
	line := normalizeResponse(raw)
	if line == "" {
		return Decision{}, false
	}

	if d, ok := scanDecisionToken(line); ok {
		return d, true
	}

	if snap.HasFile(line) {
		return Decision{Kind: KindDocument, Document: line}, true
	}
	for _, name := range snap.FileIndex {
		if strings.Contains(line, name) {
			return Decision{Kind: KindDocument, Document: name}, true
		}
	}

	return Decision{}, false
}

// normalizeResponse strips code fences and quoting and returns the first
// non-empty line.
func normalizeResponse(raw string) string {
	s := strings.ReplaceAll(raw, "```", "")
	for _, line := range strings.Split(s, "\n") {
		line = strings.Trim(line, " \t\"'`")
		if line != "" {
			return line
		}
	}
	return ""
}

func containsCategoryKeyword(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// buildPrompt assembles the classification request: recent history, the user
// message, the catalog guide, the use-case problems, and the file index,
// instructing the model to emit exactly one vocabulary token or a listed
// document name.
func buildPrompt(message string, history []conversation.Turn, snap *metadata.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("You route customer questions for a chemical products store to one knowledge source.\n")
	sb.WriteString("Reply with EXACTLY ONE token and nothing else:\n")
	sb.WriteString("- CLARIFY: the question needs a specific product but none is identified yet\n")
	sb.WriteString("- GUIDE: the customer is browsing or searching the catalog by category\n")
	sb.WriteString("- DELIVERY: the question is about delivery areas, shipping, or zip codes\n")
	sb.WriteString("- USE_CASE: the customer describes a cleaning problem and wants a product recommendation\n")
	sb.WriteString("- GENERAL: the question is unrelated to our products or services\n")
	sb.WriteString("- NONE: a specific product is named but it is not in the document list below\n")
	sb.WriteString("- or the exact filename of ONE document from the list when the question is about that product\n\n")

	if len(snap.FileIndex) > 0 {
		sb.WriteString("Documents:\n")
		for _, name := range snap.FileIndex {
			sb.WriteString("- ")
			sb.WriteString(name)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(snap.UseCases) > 0 {
		sb.WriteString("Known problems:\n")
		for _, uc := range snap.UseCases {
			sb.WriteString("- ")
			sb.WriteString(uc.Problem)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if snap.CatalogGuide != "" {
		sb.WriteString("Catalog guide:\n")
		sb.WriteString(snap.CatalogGuide)
		sb.WriteString("\n\n")
	}

	recent := history
	if len(recent) > promptHistoryTurns {
		recent = recent[len(recent)-promptHistoryTurns:]
	}
	if len(recent) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, t := range recent {
			sb.WriteString(t.Role)
			sb.WriteString(": ")
			sb.WriteString(t.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Customer message: ")
	sb.WriteString(message)
	sb.WriteString("\n\nToken:")
	return sb.String()
}
