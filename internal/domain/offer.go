package domain

// ============================================================
// Offers, Parameters, Calculation DTOs
// ============================================================

// Parameters are the three user-adjustable financing knobs.
type Parameters struct {
	Months                int     `json:"months"`
	InitialPaymentPercent float64 `json:"initialPaymentPercent"`
	FinalPaymentPercent   float64 `json:"finalPaymentPercent"`
}

// ParameterBounds are the valid ranges for the sliders, derived from
// the selected product.
type ParameterBounds struct {
	MinMonths                int     `json:"minMonths"`
	MaxMonths                int     `json:"maxMonths"`
	MaxInitialPaymentPercent float64 `json:"maxInitialPaymentPercent"`
	MinFinalPaymentPercent   float64 `json:"minFinalPaymentPercent"`
	MaxFinalPaymentPercent   float64 `json:"maxFinalPaymentPercent"`
}

// SpecialOffer is the externally supplied discount signal consumed by
// parameter defaulting. A positive InitialPayment amount means the
// discount is already applied and forces the default down payment to 0.
type SpecialOffer struct {
	DiscountPercent *float64 `json:"discountPercent,omitempty"`
	InitialPayment  float64  `json:"initialPayment,omitempty"`
}

// VehicleInfo is passed through to remote providers that price by
// vehicle age and mileage.
type VehicleInfo struct {
	ManufacturingYear int `json:"manufacturingYear,omitempty"`
	MileageKm         int `json:"mileageKm,omitempty"`
}

// RemoteCalculationRequest is the body sent to a partner provider's
// calculation endpoint.
type RemoteCalculationRequest struct {
	ProductID           string  `json:"productId"`
	Price               float64 `json:"price"`
	DownPaymentAmount   float64 `json:"downPaymentAmount"`
	Period              int     `json:"period"`
	InitialFeePercent   float64 `json:"initialFeePercent"`
	FinalPaymentPercent float64 `json:"finalPaymentPercent"`
	ManufacturingYear   int     `json:"manufacturingYear,omitempty"`
	MileageKm           int     `json:"mileageKm,omitempty"`
}

// RemoteCalculationResponse is the provider's answer.
type RemoteCalculationResponse struct {
	MonthlyInstallment float64 `json:"monthlyInstallment"`
	Provider           string  `json:"provider"`
}

// ProductSummary is the slice of a product the offer payload exposes.
type ProductSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Category Category `json:"category"`
	Provider string   `json:"provider"`
	Currency string   `json:"currency"`
}

// Offer is the resolved financing proposition for one price/category/
// parameter combination. Available false with Estimated false means the
// category has no products and the widget is hidden. Available false
// with Estimated true means remote failures exhausted a populated
// category with no in-house product to fall back on: the widget stays
// visible without an installment number. When both are true the
// selection exists but no installment could be computed.
type Offer struct {
	Available bool `json:"available"`
	Estimated bool `json:"estimated"`

	Product    *ProductSummary  `json:"product,omitempty"`
	Parameters *Parameters      `json:"parameters,omitempty"`
	Bounds     *ParameterBounds `json:"bounds,omitempty"`

	Price                float64  `json:"price,omitempty"`
	InitialPaymentAmount float64  `json:"initialPaymentAmount,omitempty"`
	FinalPaymentAmount   float64  `json:"finalPaymentAmount,omitempty"`
	AmountToFinance      float64  `json:"amountToFinance,omitempty"`
	Installment          *float64 `json:"installment,omitempty"`

	// OWN products only.
	AnnualRate       *float64 `json:"annualRate,omitempty"`
	CommissionAmount *float64 `json:"commissionAmount,omitempty"`
}

// QuoteRequest resolves a one-shot offer without session state.
type QuoteRequest struct {
	Price        float64      `json:"price"`
	Category     Category     `json:"category"`
	SpecialOffer SpecialOffer `json:"specialOffer,omitempty"`
	Vehicle      VehicleInfo  `json:"vehicle,omitempty"`

	// Optional overrides; when nil the product defaults apply.
	Months                *int     `json:"months,omitempty"`
	InitialPaymentPercent *float64 `json:"initialPaymentPercent,omitempty"`
	FinalPaymentPercent   *float64 `json:"finalPaymentPercent,omitempty"`
}

// SessionRequest creates a financing session.
type SessionRequest struct {
	Price        float64      `json:"price"`
	Category     Category     `json:"category"`
	SpecialOffer SpecialOffer `json:"specialOffer,omitempty"`
	Vehicle      VehicleInfo  `json:"vehicle,omitempty"`
}

// ParameterUpdate adjusts a session. Nil fields are left untouched.
type ParameterUpdate struct {
	Category              *Category `json:"category,omitempty"`
	Months                *int      `json:"months,omitempty"`
	InitialPaymentPercent *float64  `json:"initialPaymentPercent,omitempty"`
	FinalPaymentPercent   *float64  `json:"finalPaymentPercent,omitempty"`
}

// SessionResponse wraps an offer with its session handle.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Offer     *Offer `json:"offer"`
}

// CategoryOffer pairs a category tab with its resolved offer.
type CategoryOffer struct {
	Category Category `json:"category"`
	Offer    *Offer   `json:"offer"`
}

// ScheduleEntry is one month of an amortization schedule.
type ScheduleEntry struct {
	Period           int     `json:"period"`
	Payment          float64 `json:"payment"`
	Principal        float64 `json:"principal"`
	Interest         float64 `json:"interest"`
	RemainingBalance float64 `json:"remainingBalance"`
}

// ScheduleResponse is returned by the session schedule endpoint.
type ScheduleResponse struct {
	ProductID    string          `json:"productId"`
	Currency     string          `json:"currency"`
	Entries      []ScheduleEntry `json:"entries"`
	FinalPayment float64         `json:"finalPayment,omitempty"`
}
