package service

import (
	"sync"

	"github.com/knowak/carmarket-financing-go/internal/domain"
)

// Session is the server-side counterpart of one financing widget: it
// owns the selection state for a single vehicle and visitor. The failed
// set only ever grows; a product that failed a remote calculation is
// never retried within the session.
type Session struct {
	mu sync.Mutex

	ID           string
	Price        float64
	Category     domain.Category
	SpecialOffer domain.SpecialOffer
	Vehicle      domain.VehicleInfo

	failed   map[string]bool
	selected *domain.FinancingProduct
	params   domain.Parameters

	// generation implements cancellation-by-relevance: every update
	// bumps it, and a resolution only commits if the generation it
	// captured is still current. A slow partner response for an old
	// parameter set can therefore never clobber newer state.
	generation uint64

	lastOffer *domain.Offer
}

func newSession(id string, req *domain.SessionRequest) *Session {
	return &Session{
		ID:           id,
		Price:        req.Price,
		Category:     req.Category,
		SpecialOffer: req.SpecialOffer,
		Vehicle:      req.Vehicle,
		failed:       make(map[string]bool),
	}
}

// snapshot copies the mutable selection state for a resolution run so
// the session lock is not held across remote calls.
func (s *Session) snapshot() *resolveState {
	failed := make(map[string]bool, len(s.failed))
	for id := range s.failed {
		failed[id] = true
	}
	return &resolveState{
		price:        s.Price,
		category:     s.Category,
		specialOffer: s.SpecialOffer,
		vehicle:      s.Vehicle,
		failed:       failed,
		selected:     s.selected,
		params:       s.params,
	}
}

// absorbFailures folds the failures a resolution learned into the
// session. The failed set only ever grows, so failures are kept even
// when the resolution itself is discarded: a provider that failed for
// a superseded parameter set must not be retried by a later update.
func (s *Session) absorbFailures(st *resolveState) {
	for id := range st.failed {
		s.failed[id] = true
	}
}

// commit merges a finished resolution back into the session.
func (s *Session) commit(st *resolveState, offer *domain.Offer) {
	s.absorbFailures(st)
	s.selected = st.selected
	s.params = st.params
	s.lastOffer = offer
}
