package premium

import (
	"path"
	"strings"
)

// Filename prefixes the harvesting scripts prepend to grounding documents.
var knownPrefixes = []string{"grounding__", "datasheet__", "tech__"}

// Extensions stripped during slug derivation.
var knownExtensions = []string{".txt", ".md", ".pdf", ".html", ".htm", ".csv", ".json"}

// Slug derives the canonical matching key from a document identifier:
// strip any path prefix, known filename prefixes and extensions, take the
// segment before the "__" marker, normalize underscores and spaces to
// hyphens, and lowercase.
func Slug(identifier string) string {
	s := path.Base(identifier)
	lower := strings.ToLower(s)
	for _, p := range knownPrefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			break
		}
	}
	lower = strings.ToLower(s)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(lower, ext) {
			s = s[:len(s)-len(ext)]
			break
		}
	}
	if before, _, found := strings.Cut(s, "__"); found {
		s = before
	}
	return normalizeSlug(s)
}

// normalizeSlug lowercases and maps underscores/spaces to hyphens.
func normalizeSlug(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

// Resolve maps a document identifier to a curated record, or nil when no
// record matches. A nil result means "no curated description available",
// never an error. Match order: exact key, variant equality, then
// bidirectional prefix containment (bridges concentrate/base-family naming;
// known false-positive risk for families whose names prefix unrelated
// products).
func Resolve(identifier string, records Records) *Record {
	if len(records) == 0 {
		return nil
	}
	slug := Slug(identifier)
	if slug == "" {
		return nil
	}

	if rec, ok := records[slug]; ok {
		return &rec
	}

	for _, rec := range records {
		for _, v := range rec.Variants {
			if normalizeSlug(v) == slug {
				r := rec
				return &r
			}
		}
	}

	for key, rec := range records {
		if strings.HasPrefix(key, slug) || strings.HasPrefix(slug, key) {
			r := rec
			return &r
		}
	}

	return nil
}
