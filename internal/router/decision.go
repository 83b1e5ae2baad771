// Package router classifies a user turn plus recent history into exactly one
// retrieval action from a closed vocabulary.
package router

import "strings"

// Kind is the closed set of retrieval actions.
type Kind int

const (
	// KindClarify: no product identified; the answer must ask for the
	// product before giving technical detail.
	KindClarify Kind = iota
	// KindGuide: answer from the full catalog guide.
	KindGuide
	// KindDelivery: answer from structured delivery-zone data.
	KindDelivery
	// KindUseCase: answer from the problem→solution map.
	KindUseCase
	// KindGeneral: out-of-domain question; answer deflects politely.
	KindGeneral
	// KindNone: a product was referenced but not found.
	KindNone
	// KindDocument: answer from a named grounding document.
	KindDocument
)

// Decision is one retrieval action. Document is set only for KindDocument.
type Decision struct {
	Kind     Kind
	Document string
}

// decision token vocabulary, as emitted by the classifier.
const (
	tokenClarify  = "CLARIFY"
	tokenGuide    = "GUIDE"
	tokenDelivery = "DELIVERY"
	tokenUseCase  = "USE_CASE"
	tokenGeneral  = "GENERAL"
	tokenNone     = "NONE"
)

var tokenKinds = []struct {
	token string
	kind  Kind
}{
	{tokenClarify, KindClarify},
	{tokenGuide, KindGuide},
	{tokenDelivery, KindDelivery},
	{tokenUseCase, KindUseCase},
	{tokenGeneral, KindGeneral},
	{tokenNone, KindNone},
}

// String returns the vocabulary token, or the document identifier.
func (d Decision) String() string {
	switch d.Kind {
	case KindClarify:
		return tokenClarify
	case KindGuide:
		return tokenGuide
	case KindDelivery:
		return tokenDelivery
	case KindUseCase:
		return tokenUseCase
	case KindGeneral:
		return tokenGeneral
	case KindNone:
		return tokenNone
	case KindDocument:
		return d.Document
	}
	return "UNKNOWN"
}

// scanDecisionToken finds the earliest occurrence of any decision keyword in
// the uppercased line. Decisions take priority over document identifiers, so
// this runs before any file-index lookup.
func scanDecisionToken(line string) (Decision, bool) {
	upper := strings.ToUpper(line)
	best := -1
	var bestKind Kind
	for _, tk := range tokenKinds {
		if idx := strings.Index(upper, tk.token); idx >= 0 && (best == -1 || idx < best) {
			best = idx
			bestKind = tk.kind
		}
	}
	if best == -1 {
		return Decision{}, false
	}
	return Decision{Kind: bestKind}, true
}
