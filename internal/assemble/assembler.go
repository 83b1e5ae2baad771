// Package assemble turns a retrieval decision into the grounding context
// block injected into the answering call.
package assemble

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/blob"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/doctext"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/metadata"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/premium"
	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/router"
)

// Status markers surfaced in context blocks. The answering model keys its
// behavior off these.
const (
	MarkerNoProductNamed  = "STATUS: NO_PRODUCT_NAMED"
	MarkerProductNotFound = "STATUS: PRODUCT_NOT_FOUND"
	MarkerOutOfDomain     = "STATUS: OUT_OF_DOMAIN"
	MarkerDocUnreadable   = "[technical record could not be loaded]"
)

// Fixed logistics policy appended to every delivery context.
const logisticsPolicy = "Orders ship within 2 business days inside listed zones. " +
	"Hazmat-classified products ship ground only. Minimum order for free delivery is $75."

// Generic placeholders used when no curated record field is available.
const (
	placeholderCategory    = "(uncategorized)"
	placeholderDescription = "(no curated description available)"
)

var zipPattern = regexp.MustCompile(`\b\d{5}\b`)

// Assembler composes context blocks from the snapshot, the blob store, and
// the curated premium dataset.
type Assembler struct {
	store       blob.Store
	extractor   *doctext.Extractor
	records     premium.Records
	maxDocChars int
}

// New creates an Assembler. records may be nil when no curated dataset is
// loaded; document contexts then fall back to generic placeholders.
func New(store blob.Store, extractor *doctext.Extractor, records premium.Records, maxDocChars int) *Assembler {
	return &Assembler{
		store:       store,
		extractor:   extractor,
		records:     records,
		maxDocChars: maxDocChars,
	}
}

// Assemble produces the grounding text block for one retrieval decision.
// The result is always a non-empty string; document read failures degrade to
// an explicit marker rather than failing the request.
func (a *Assembler) Assemble(ctx context.Context, d router.Decision, message string, snap *metadata.Snapshot) string {
	switch d.Kind {
	case router.KindClarify:
		return a.clarifyContext()
	case router.KindGuide:
		return a.guideContext(snap)
	case router.KindDelivery:
		return a.deliveryContext(message, snap)
	case router.KindUseCase:
		return a.useCaseContext(snap)
	case router.KindGeneral:
		return a.generalContext()
	case router.KindNone:
		return a.noneContext(message)
	case router.KindDocument:
		return a.documentContext(ctx, d.Document, snap)
	}
	// Unreachable with a well-formed decision.
	return a.clarifyContext()
}

func (a *Assembler) clarifyContext() string {
	return MarkerNoProductNamed + "\n" +
		"No specific product has been identified yet. Ask the customer which " +
		"product they mean before giving any technical or safety detail."
}

func (a *Assembler) guideContext(snap *metadata.Snapshot) string {
	if snap.CatalogGuide == "" {
		return "The catalog guide is currently unavailable. Apologize and offer to " +
			"help once the customer names a specific product."
	}
	return "Catalog guide:\n" + snap.CatalogGuide
}

func (a *Assembler) deliveryContext(message string, snap *metadata.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("Delivery coverage:\n")
	for _, z := range snap.DeliveryZones {
		fmt.Fprintf(&sb, "- %s: %s, %s\n", z.Zip, z.City, z.County)
	}

	for _, zip := range zipPattern.FindAllString(message, -1) {
		matched := false
		for _, z := range snap.DeliveryZones {
			if z.Zip == zip {
				fmt.Fprintf(&sb, "Matched zone for %s: %s, %s.\n", zip, z.City, z.County)
				matched = true
				break
			}
		}
		if !matched {
			fmt.Fprintf(&sb, "No delivery zone match found for %s.\n", zip)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(logisticsPolicy)
	return sb.String()
}

func (a *Assembler) useCaseContext(snap *metadata.Snapshot) string {
	if len(snap.UseCases) == 0 {
		return "No use-case data is available. Ask the customer to describe the " +
			"surface and soil type so a human can follow up."
	}
	var sb strings.Builder
	sb.WriteString("Problem to solution map. Surface the pair matching the customer's problem:\n")
	for _, uc := range snap.UseCases {
		fmt.Fprintf(&sb, "- %s → %s\n", uc.Problem, uc.Solution)
	}
	return sb.String()
}

func (a *Assembler) generalContext() string {
	return MarkerOutOfDomain + "\n" +
		"The question is outside our product and delivery domain. Deflect " +
		"politely and steer back to cleaning products."
}

func (a *Assembler) noneContext(message string) string {
	return MarkerProductNotFound + "\n" +
		"The customer referenced a product we could not find. Echo the product " +
		"name exactly as the customer wrote it and say it is not in our catalog.\n" +
		"Customer message: " + message
}

// documentContext downloads the grounding document, extracts text for binary
// formats, and composes the premium block ahead of the technical record.
func (a *Assembler) documentContext(ctx context.Context, name string, snap *metadata.Snapshot) string {
	var sb strings.Builder

	rec := premium.Resolve(name, a.records)
	if rec != nil {
		fmt.Fprintf(&sb, "Product: %s\n", rec.DisplayName)
		category := rec.Category
		if category == "" {
			category = placeholderCategory
		}
		fmt.Fprintf(&sb, "Category: %s\n", category)
		description := rec.Description
		if description == "" {
			description = placeholderDescription
		}
		fmt.Fprintf(&sb, "Description: %s\n", description)
		if len(rec.Variants) > 0 {
			fmt.Fprintf(&sb, "Variants: %s\n", strings.Join(rec.Variants, ", "))
		}
	} else {
		fmt.Fprintf(&sb, "Product: %s\n", premium.Slug(name))
		fmt.Fprintf(&sb, "Category: %s\n", placeholderCategory)
		fmt.Fprintf(&sb, "Description: %s\n", placeholderDescription)
	}

	sb.WriteString("\nTechnical record:\n")
	sb.WriteString(a.technicalText(ctx, name, snap))
	return sb.String()
}

// technicalText returns the capped document text, or the unreadable marker
// on any failure. This is a recoverable degradation, not a fatal error.
func (a *Assembler) technicalText(ctx context.Context, name string, snap *metadata.Snapshot) string {
	if !snap.HasFile(name) {
		log.Warn().Str("document", name).Msg("document_not_in_index")
		return MarkerDocUnreadable
	}

	data, err := a.store.Download(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("document", name).Msg("document_download_failed")
		return MarkerDocUnreadable
	}

	text, err := a.extractor.Extract(name, data)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warn().Err(err).Str("document", name).Msg("document_extract_failed")
		return MarkerDocUnreadable
	}

	runes := []rune(text)
	if len(runes) > a.maxDocChars {
		text = string(runes[:a.maxDocChars])
	}
	return text
}
