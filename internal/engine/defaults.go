package engine

import "github.com/knowak/carmarket-financing-go/internal/domain"

// Parameter defaults applied whenever selection lands on a new product.
const (
	defaultMonths     = 36
	defaultInitialPct = 10
	defaultFinalPct   = 20

	// VEHIS rejects a zero balloon; its floor is 1% whenever the
	// product allows a balloon of at least that much.
	vehisFinalFloor = 1
)

// DefaultParameters derives the initial slider positions for a freshly
// selected product. The special-offer discount, when present, seeds the
// down payment percent; an explicit offer initial payment amount > 0
// means the discount was already taken off the price, so the down
// payment defaults to 0 instead.
func DefaultParameters(product *domain.FinancingProduct, offer domain.SpecialOffer) domain.Parameters {
	months := clampInt(defaultMonths, product.MinInstallments, product.MaxInstallments)

	initialPct := float64(defaultInitialPct)
	switch {
	case offer.InitialPayment > 0:
		initialPct = 0
	case offer.DiscountPercent != nil:
		initialPct = *offer.DiscountPercent
	}
	initialPct = clampFloat(initialPct, 0, product.MaxInitialPayment)

	return domain.Parameters{
		Months:                months,
		InitialPaymentPercent: initialPct,
		FinalPaymentPercent:   clampFloat(defaultFinalPct, FinalPaymentFloor(product), maxFinalPct(product)),
	}
}

// ClampParameters forces user-chosen values into the product's valid
// ranges. It never resets anything: user edits survive re-renders as
// long as the product identity is unchanged.
func ClampParameters(product *domain.FinancingProduct, params domain.Parameters) domain.Parameters {
	return domain.Parameters{
		Months:                clampInt(params.Months, product.MinInstallments, product.MaxInstallments),
		InitialPaymentPercent: clampFloat(params.InitialPaymentPercent, 0, product.MaxInitialPayment),
		FinalPaymentPercent:   clampFloat(params.FinalPaymentPercent, FinalPaymentFloor(product), maxFinalPct(product)),
	}
}

// Bounds exposes the slider ranges for a product.
func Bounds(product *domain.FinancingProduct) domain.ParameterBounds {
	return domain.ParameterBounds{
		MinMonths:                product.MinInstallments,
		MaxMonths:                product.MaxInstallments,
		MaxInitialPaymentPercent: product.MaxInitialPayment,
		MinFinalPaymentPercent:   FinalPaymentFloor(product),
		MaxFinalPaymentPercent:   maxFinalPct(product),
	}
}

// FinalPaymentFloor returns the provider-specific minimum balloon
// percentage.
func FinalPaymentFloor(product *domain.FinancingProduct) float64 {
	if !product.HasBalloonPayment {
		return 0
	}
	if product.Provider == domain.ProviderVehis && product.MaxFinalPayment >= vehisFinalFloor {
		return vehisFinalFloor
	}
	return 0
}

func maxFinalPct(product *domain.FinancingProduct) float64 {
	if !product.HasBalloonPayment {
		return 0
	}
	return product.MaxFinalPayment
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
