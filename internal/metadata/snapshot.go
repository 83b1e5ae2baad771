// Package metadata owns the time-limited snapshot of remote dataset listings:
// the grounding-document index, catalog guide, delivery zones, and use-case
// map. Snapshots are rebuilt wholesale on expiry and never partially mutated.
package metadata

import "time"

// Reserved dataset objects in the bucket. Everything else is a grounding
// document and belongs to the file index.
const (
	ObjectCatalogGuide  = "catalog_guide.md"
	ObjectDeliveryZones = "delivery_zones.json"
	ObjectUseCases      = "use_cases.json"
)

// Zone is one delivery coverage row.
type Zone struct {
	Zip    string `json:"zip"`
	City   string `json:"city"`
	County string `json:"county"`
}

// UseCase maps a customer problem to the product solution.
type UseCase struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}

// Snapshot is the immutable bundle of cached remote metadata valid for one
// cache epoch. Fields degraded by a failed fetch hold their zero value.
type Snapshot struct {
	FileIndex     []string
	CatalogGuide  string
	DeliveryZones []Zone
	UseCases      []UseCase
	FetchedAt     time.Time

	index map[string]struct{}
}

// HasFile reports whether the named document is present in the file index.
func (s *Snapshot) HasFile(name string) bool {
	if s.index == nil {
		for _, n := range s.FileIndex {
			if n == name {
				return true
			}
		}
		return false
	}
	_, ok := s.index[name]
	return ok
}

func (s *Snapshot) buildIndex() {
	s.index = make(map[string]struct{}, len(s.FileIndex))
	for _, name := range s.FileIndex {
		s.index[name] = struct{}{}
	}
}
