package domain

import "fmt"

// Error types for consistent error handling across the financing BFF.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrStaleCalculation indicates a remote calculation result arrived
// after its session already moved to a different product/parameter
// combination. The result is discarded, never surfaced.
type ErrStaleCalculation struct {
	ProductID string
}

func (e *ErrStaleCalculation) Error() string {
	return fmt.Sprintf("stale calculation discarded for product: %s", e.ProductID)
}

// ErrScheduleUnavailable indicates an amortization schedule was
// requested for a product priced by a remote provider.
type ErrScheduleUnavailable struct {
	Provider string
}

func (e *ErrScheduleUnavailable) Error() string {
	return fmt.Sprintf("amortization schedule unavailable for provider: %s", e.Provider)
}
