// Package service contains the financing orchestration layer: catalog
// caching, product selection with the remote-failure cascade, session
// state and parameter defaulting.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/knowak/carmarket-financing-go/internal/engine"
	"github.com/knowak/carmarket-financing-go/internal/infra/observability"
	"github.com/knowak/carmarket-financing-go/internal/port"
)

var tracer = otel.Tracer("service")

const catalogCacheKey = "catalog"

// FinancingService resolves financing offers against the product
// catalog and partner calculation providers.
type FinancingService struct {
	catalog    port.CatalogFetcher
	calculator port.InstallmentCalculator

	catalogCache port.Cache[*domain.Catalog]
	sessions     port.Cache[*Session]
	group        singleflight.Group

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewFinancingService creates the financing service.
func NewFinancingService(
	catalog port.CatalogFetcher,
	calculator port.InstallmentCalculator,
	catalogCache port.Cache[*domain.Catalog],
	sessions port.Cache[*Session],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *FinancingService {
	return &FinancingService{
		catalog:      catalog,
		calculator:   calculator,
		catalogCache: catalogCache,
		sessions:     sessions,
		metrics:      metrics,
		logger:       logger,
	}
}

// GetCatalog returns the product catalog, served from cache when fresh.
// Concurrent misses are collapsed into a single upstream fetch.
func (s *FinancingService) GetCatalog(ctx context.Context) (*domain.Catalog, error) {
	ctx, span := tracer.Start(ctx, "FinancingService.GetCatalog")
	defer span.End()

	if catalog, ok := s.catalogCache.Get(catalogCacheKey); ok {
		s.metrics.IncrCacheHit("catalog")
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return catalog, nil
	}
	s.metrics.IncrCacheMiss("catalog")

	v, err, _ := s.group.Do(catalogCacheKey, func() (interface{}, error) {
		catalog, err := s.catalog.GetCatalog(ctx)
		if err != nil {
			return nil, err
		}
		s.catalogCache.Set(catalogCacheKey, catalog)
		return catalog, nil
	})
	if err != nil {
		s.logger.Error("catalog fetch failed", zap.Error(err))
		return nil, err
	}
	return v.(*domain.Catalog), nil
}

// Quote resolves a one-shot offer with no session state. Optional
// parameter overrides are applied on top of the product defaults and
// clamped into the product's bounds.
func (s *FinancingService) Quote(ctx context.Context, req *domain.QuoteRequest) (*domain.Offer, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "FinancingService.Quote")
	defer span.End()
	defer func() { s.metrics.RecordRequestDuration("quote", time.Since(start)) }()

	if err := validatePriceCategory(req.Price, req.Category); err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	st := &resolveState{
		price:        req.Price,
		category:     req.Category,
		specialOffer: req.SpecialOffer,
		vehicle:      req.Vehicle,
		failed:       make(map[string]bool),
		overrides: &domain.ParameterUpdate{
			Months:                req.Months,
			InitialPaymentPercent: req.InitialPaymentPercent,
			FinalPaymentPercent:   req.FinalPaymentPercent,
		},
	}
	resolved, err := s.resolve(ctx, st)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}
	s.metrics.IncrRequest("success")
	return resolved, nil
}

// OffersByCategory resolves one offer per category concurrently, for
// the tabbed storefront widget. Resolution failures in one category do
// not sink the others; the failing tab comes back unavailable.
func (s *FinancingService) OffersByCategory(ctx context.Context, price float64, offer domain.SpecialOffer, vehicle domain.VehicleInfo) ([]domain.CategoryOffer, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "FinancingService.OffersByCategory")
	defer span.End()
	defer func() { s.metrics.RecordRequestDuration("offers", time.Since(start)) }()

	if price <= 0 {
		s.metrics.IncrRequest("error")
		return nil, &domain.ErrValidation{Field: "price", Message: "must be positive"}
	}

	// Warm the catalog once so the per-category goroutines hit cache.
	if _, err := s.GetCatalog(ctx); err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	results := make([]domain.CategoryOffer, len(domain.Categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range domain.Categories {
		i, cat := i, cat
		g.Go(func() error {
			st := &resolveState{
				price:        price,
				category:     cat,
				specialOffer: offer,
				vehicle:      vehicle,
				failed:       make(map[string]bool),
			}
			resolved, err := s.resolve(gctx, st)
			if err != nil {
				s.logger.Warn("category offer resolution failed",
					zap.String("category", string(cat)),
					zap.Error(err))
				resolved = &domain.Offer{Available: false}
			}
			results[i] = domain.CategoryOffer{Category: cat, Offer: resolved}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}
	s.metrics.IncrRequest("success")
	return results, nil
}

// CreateSession opens a financing session and resolves its first offer.
func (s *FinancingService) CreateSession(ctx context.Context, req *domain.SessionRequest) (*domain.SessionResponse, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "FinancingService.CreateSession")
	defer span.End()
	defer func() { s.metrics.RecordRequestDuration("session_create", time.Since(start)) }()

	if err := validatePriceCategory(req.Price, req.Category); err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	sess := newSession(uuid.NewString(), req)

	sess.mu.Lock()
	st := sess.snapshot()
	sess.mu.Unlock()

	offer, err := s.resolve(ctx, st)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}
	s.metrics.IncrRequest("success")

	sess.mu.Lock()
	sess.commit(st, offer)
	sess.mu.Unlock()

	s.sessions.Set(sess.ID, sess)
	s.logger.Info("financing session created",
		zap.String("sessionId", sess.ID),
		zap.String("category", string(req.Category)),
		zap.Float64("price", req.Price))

	return &domain.SessionResponse{SessionID: sess.ID, Offer: offer}, nil
}

// GetSession returns the last resolved offer for a session.
func (s *FinancingService) GetSession(ctx context.Context, id string) (*domain.SessionResponse, error) {
	_, span := tracer.Start(ctx, "FinancingService.GetSession")
	defer span.End()

	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "session", ID: id}
	}
	sess.mu.Lock()
	offer := sess.lastOffer
	sess.mu.Unlock()
	return &domain.SessionResponse{SessionID: id, Offer: offer}, nil
}

// UpdateParameters applies slider or category changes to a session and
// re-resolves the offer. Each update bumps the session generation; if a
// newer update lands while this one is waiting on a remote provider,
// the finished result is discarded rather than committed.
func (s *FinancingService) UpdateParameters(ctx context.Context, id string, upd *domain.ParameterUpdate) (*domain.SessionResponse, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "FinancingService.UpdateParameters")
	defer span.End()
	defer func() { s.metrics.RecordRequestDuration("session_update", time.Since(start)) }()

	sess, ok := s.sessions.Get(id)
	if !ok {
		s.metrics.IncrRequest("error")
		return nil, &domain.ErrNotFound{Resource: "session", ID: id}
	}
	if upd.Category != nil && !upd.Category.Valid() {
		s.metrics.IncrRequest("error")
		return nil, &domain.ErrValidation{Field: "category", Message: fmt.Sprintf("unknown category %q", *upd.Category)}
	}

	sess.mu.Lock()
	if upd.Category != nil && *upd.Category != sess.Category {
		sess.Category = *upd.Category
		// Crossing categories always lands on a different product, so
		// the stale selection must not pin its parameters.
		sess.selected = nil
	}
	if upd.Months != nil {
		sess.params.Months = *upd.Months
	}
	if upd.InitialPaymentPercent != nil {
		sess.params.InitialPaymentPercent = *upd.InitialPaymentPercent
	}
	if upd.FinalPaymentPercent != nil {
		sess.params.FinalPaymentPercent = *upd.FinalPaymentPercent
	}
	sess.generation++
	gen := sess.generation
	st := sess.snapshot()
	sess.mu.Unlock()

	offer, err := s.resolve(ctx, st)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	// Failures learned during the run are kept no matter how it ended.
	sess.absorbFailures(st)
	if err != nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}
	if sess.generation != gen {
		s.logger.Debug("discarding superseded calculation",
			zap.String("sessionId", id),
			zap.Uint64("generation", gen),
			zap.Uint64("current", sess.generation))
		productID := ""
		if st.selected != nil {
			productID = st.selected.ID
		}
		s.metrics.IncrRequest("error")
		return nil, &domain.ErrStaleCalculation{ProductID: productID}
	}
	sess.commit(st, offer)
	s.metrics.IncrRequest("success")
	return &domain.SessionResponse{SessionID: id, Offer: offer}, nil
}

// Schedule produces the month-by-month amortization table for a
// session's current offer. Only in-house products expose one; partner
// providers return a bare installment and keep their amortization
// internal.
func (s *FinancingService) Schedule(ctx context.Context, id string) (*domain.ScheduleResponse, error) {
	_, span := tracer.Start(ctx, "FinancingService.Schedule")
	defer span.End()

	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "session", ID: id}
	}

	sess.mu.Lock()
	product := sess.selected
	params := sess.params
	price := sess.Price
	sess.mu.Unlock()

	if product == nil {
		return nil, &domain.ErrNotFound{Resource: "offer", ID: id}
	}
	if !product.IsOwn() {
		return nil, &domain.ErrScheduleUnavailable{Provider: product.Provider}
	}

	entries := engine.Schedule(product, price, params.Months, params.InitialPaymentPercent, params.FinalPaymentPercent)
	return &domain.ScheduleResponse{
		ProductID:    product.ID,
		Currency:     product.Currency,
		Entries:      entries,
		FinalPayment: engine.FinalPaymentAmount(price, params.FinalPaymentPercent),
	}, nil
}

// GetFinancingMetrics returns the service-level counters snapshot.
func (s *FinancingService) GetFinancingMetrics(ctx context.Context) (*domain.FinancingMetrics, error) {
	_, span := tracer.Start(ctx, "FinancingService.GetFinancingMetrics")
	defer span.End()
	return s.metrics.GetFinancingSnapshot(), nil
}

// ============================================================
// Offer resolution
// ============================================================

// resolveState is the working set of one resolution run. For sessions
// it is a snapshot taken under the session lock; for quotes it is
// ephemeral.
type resolveState struct {
	price        float64
	category     domain.Category
	specialOffer domain.SpecialOffer
	vehicle      domain.VehicleInfo

	failed   map[string]bool
	selected *domain.FinancingProduct
	params   domain.Parameters

	// overrides, when set, re-apply on every product change so a
	// one-shot quote honors explicit knobs across the cascade.
	overrides *domain.ParameterUpdate
}

// resolve runs the selection cascade: pick the best eligible product,
// re-default parameters when the product identity changes, compute the
// installment in-house or through the partner API, and on any remote
// failure exclude the product and select again. The loop is bounded:
// every pass either converges, removes a product from contention, or
// switches the selection, so 2*len(catalog)+2 passes always suffice.
func (s *FinancingService) resolve(ctx context.Context, st *resolveState) (*domain.Offer, error) {
	ctx, span := tracer.Start(ctx, "FinancingService.resolve")
	defer span.End()

	catalog, err := s.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	maxPasses := 2*len(catalog.Products) + 2
	for pass := 0; pass < maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		amount := engine.AmountToFinance(st.price, st.params.InitialPaymentPercent)
		product := engine.SelectProduct(catalog, st.category, amount, st.failed)
		if product == nil {
			s.metrics.IncrSelection(observability.OutcomeUnavailable)
			s.logger.Info("no financing product available",
				zap.String("category", string(st.category)),
				zap.Float64("amountToFinance", amount))
			st.selected = nil
			// Failures that emptied a populated category keep the
			// widget visible without a number; a category with no
			// products at all hides it.
			exhausted := false
			for _, p := range catalog.ByCategory(st.category) {
				if st.failed[p.ID] {
					exhausted = true
					break
				}
			}
			return &domain.Offer{Available: false, Estimated: exhausted}, nil
		}

		if st.selected == nil || st.selected.ID != product.ID {
			// New product: its defaults replace whatever the sliders
			// held, then the changed down payment feeds back into the
			// amount to finance on the next pass.
			st.selected = product
			st.params = engine.DefaultParameters(product, st.specialOffer)
			applyOverrides(&st.params, st.overrides)
			st.params = engine.ClampParameters(product, st.params)
			continue
		}
		st.selected = product
		st.params = engine.ClampParameters(product, st.params)

		if product.IsOwn() {
			return s.buildOwnOffer(st, product, amount), nil
		}

		offer, err := s.calculateRemote(ctx, st, product)
		if err != nil {
			st.failed[product.ID] = true
			s.metrics.IncrRemoteFailure(product.Provider)
			s.logger.Warn("remote calculation failed, excluding product",
				zap.String("productId", product.ID),
				zap.String("provider", product.Provider),
				zap.Error(err))
			st.selected = nil
			continue
		}
		return offer, nil
	}

	// The cascade did not converge, which takes a catalog whose down
	// payment defaults flip eligibility back and forth. Surface the
	// last selection as an estimate rather than an error.
	s.logger.Warn("offer resolution did not converge",
		zap.String("category", string(st.category)),
		zap.Int("passes", maxPasses))
	return s.buildEstimatedOffer(st), nil
}

func (s *FinancingService) buildOwnOffer(st *resolveState, product *domain.FinancingProduct, amount float64) *domain.Offer {
	b := engine.ComputeInstallment(product, st.price, st.params.Months, st.params.InitialPaymentPercent, st.params.FinalPaymentPercent)
	s.recordSelection(product, amount)

	params := st.params
	bounds := engine.Bounds(product)
	return &domain.Offer{
		Available:            true,
		Product:              summarize(product),
		Parameters:           &params,
		Bounds:               &bounds,
		Price:                st.price,
		InitialPaymentAmount: b.InitialPaymentAmount,
		FinalPaymentAmount:   b.FinalPaymentAmount,
		AmountToFinance:      b.AmountToFinance,
		Installment:          &b.Installment,
		AnnualRate:           &b.AnnualRate,
		CommissionAmount:     &b.CommissionAmount,
	}
}

func (s *FinancingService) calculateRemote(ctx context.Context, st *resolveState, product *domain.FinancingProduct) (*domain.Offer, error) {
	amount := engine.AmountToFinance(st.price, st.params.InitialPaymentPercent)
	resp, err := s.calculator.Calculate(ctx, &domain.RemoteCalculationRequest{
		ProductID:           product.ID,
		Price:               st.price,
		DownPaymentAmount:   engine.InitialPaymentAmount(st.price, st.params.InitialPaymentPercent),
		Period:              st.params.Months,
		InitialFeePercent:   st.params.InitialPaymentPercent,
		FinalPaymentPercent: st.params.FinalPaymentPercent,
		ManufacturingYear:   st.vehicle.ManufacturingYear,
		MileageKm:           st.vehicle.MileageKm,
	})
	if err != nil {
		return nil, err
	}
	s.recordSelection(product, amount)

	params := st.params
	bounds := engine.Bounds(product)
	installment := resp.MonthlyInstallment
	return &domain.Offer{
		Available:            true,
		Product:              summarize(product),
		Parameters:           &params,
		Bounds:               &bounds,
		Price:                st.price,
		InitialPaymentAmount: engine.InitialPaymentAmount(st.price, st.params.InitialPaymentPercent),
		FinalPaymentAmount:   engine.FinalPaymentAmount(st.price, st.params.FinalPaymentPercent),
		AmountToFinance:      amount,
		Installment:          &installment,
	}, nil
}

// buildEstimatedOffer renders the current selection without an
// installment figure.
func (s *FinancingService) buildEstimatedOffer(st *resolveState) *domain.Offer {
	if st.selected == nil {
		return &domain.Offer{Available: false}
	}
	params := st.params
	bounds := engine.Bounds(st.selected)
	return &domain.Offer{
		Available:            true,
		Estimated:            true,
		Product:              summarize(st.selected),
		Parameters:           &params,
		Bounds:               &bounds,
		Price:                st.price,
		InitialPaymentAmount: engine.InitialPaymentAmount(st.price, st.params.InitialPaymentPercent),
		FinalPaymentAmount:   engine.FinalPaymentAmount(st.price, st.params.FinalPaymentPercent),
		AmountToFinance:      engine.AmountToFinance(st.price, st.params.InitialPaymentPercent),
	}
}

func (s *FinancingService) recordSelection(product *domain.FinancingProduct, amount float64) {
	if product.AmountEligible(amount) {
		s.metrics.IncrSelection(observability.OutcomeSelected)
	} else {
		s.metrics.IncrSelection(observability.OutcomeFallback)
	}
}

func summarize(p *domain.FinancingProduct) *domain.ProductSummary {
	return &domain.ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Provider: p.Provider,
		Currency: p.Currency,
	}
}

func applyOverrides(params *domain.Parameters, upd *domain.ParameterUpdate) {
	if upd == nil {
		return
	}
	if upd.Months != nil {
		params.Months = *upd.Months
	}
	if upd.InitialPaymentPercent != nil {
		params.InitialPaymentPercent = *upd.InitialPaymentPercent
	}
	if upd.FinalPaymentPercent != nil {
		params.FinalPaymentPercent = *upd.FinalPaymentPercent
	}
}

func validatePriceCategory(price float64, category domain.Category) error {
	if price <= 0 {
		return &domain.ErrValidation{Field: "price", Message: "must be positive"}
	}
	if !category.Valid() {
		return &domain.ErrValidation{Field: "category", Message: fmt.Sprintf("unknown category %q", category)}
	}
	return nil
}
