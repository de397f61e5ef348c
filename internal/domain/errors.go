package domain

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrInvalidGoalAmount  = errors.New("goal amount must be a positive finite number")
	ErrInvalidTimeHorizon = errors.New("time horizon must be greater than zero")
	ErrInvalidLumpsum     = errors.New("lumpsum must be between zero and the goal amount")
	ErrMissingAllocation  = errors.New("custom risk profile requires an allocation")
	ErrInvalidWeight      = errors.New("asset weight out of range")
	ErrInvalidStartDate   = errors.New("start date must be formatted YYYY-MM-DD")
)

// Asset precondition errors
var (
	ErrNonPositiveRate    = errors.New("expected return rate must be estimated and positive")
	ErrMissingStartDate   = errors.New("start date is required")
	ErrNonPositiveHorizon = errors.New("total months must be positive")
	ErrSeriesNotLoaded    = errors.New("historical series not loaded")
)

// ErrEmptyComposite is returned when no asset contributes a historical series
var ErrEmptyComposite = errors.New("composite series is empty")

// ErrGoalAlreadyMet is terminal, not a defect: the lumpsum's own growth reaches the goal.
var ErrGoalAlreadyMet = errors.New("lumpsum alone reaches the goal")

// UnknownRiskProfileError is returned for a risk profile missing from the allocation table
type UnknownRiskProfileError struct {
	Profile string
	Valid   []string
}

func (e *UnknownRiskProfileError) Error() string {
	return fmt.Sprintf("invalid risk profile %q, expected one of %v", e.Profile, e.Valid)
}

// WeightSumError is returned when asset weights do not sum to 1
type WeightSumError struct {
	Sum float64
}

func (e *WeightSumError) Error() string {
	return fmt.Sprintf("asset weights sum to %.10f, expected 1", e.Sum)
}

// InvalidModeError is returned for an estimation statistic outside the known set
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid return calculation mode %q, valid modes are median, mean, pessimistic, optimistic", e.Mode)
}

// DataUnavailableError is returned when no historical series exists for an asset
type DataUnavailableError struct {
	AssetID string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("no historical data for asset %q", e.AssetID)
}

// InsufficientHistoryError is returned when a series is too short for one full window
type InsufficientHistoryError struct {
	Asset     string
	Available int
	Required  int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %q: found %d monthly observations, need at least %d",
		e.Asset, e.Available, e.Required)
}

// MisalignedDatesError is returned when price and exchange-rate calendars differ
type MisalignedDatesError struct {
	Currency string
}

func (e *MisalignedDatesError) Error() string {
	return fmt.Sprintf("price dates do not match %s exchange rate dates", e.Currency)
}

// RateComputationError wraps an IRR solver failure
type RateComputationError struct {
	Err error
}

func (e *RateComputationError) Error() string {
	return fmt.Sprintf("rate computation failed: %v", e.Err)
}

func (e *RateComputationError) Unwrap() error { return e.Err }

// NonPositiveDefiniteCovarianceError is returned when the return covariance cannot be Cholesky-factored
type NonPositiveDefiniteCovarianceError struct {
	Assets       []string
	Observations int
}

func (e *NonPositiveDefiniteCovarianceError) Error() string {
	return fmt.Sprintf("covariance of %v over %d observations is not positive definite", e.Assets, e.Observations)
}

// IsClientFault reports whether err is a validation or data error, i.e. caused by the request
// or by data the caller must supply. Everything else is an internal fault.
func IsClientFault(err error) bool {
	if err == nil {
		return false
	}

	for _, target := range []error{
		ErrInvalidGoalAmount,
		ErrInvalidTimeHorizon,
		ErrInvalidLumpsum,
		ErrMissingAllocation,
		ErrInvalidWeight,
		ErrInvalidStartDate,
		ErrEmptyComposite,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	var (
		profileErr *UnknownRiskProfileError
		weightErr  *WeightSumError
		dataErr    *DataUnavailableError
		historyErr *InsufficientHistoryError
		datesErr   *MisalignedDatesError
		modeErr    *InvalidModeError
	)
	return errors.As(err, &profileErr) ||
		errors.As(err, &weightErr) ||
		errors.As(err, &dataErr) ||
		errors.As(err, &historyErr) ||
		errors.As(err, &datesErr) ||
		errors.As(err, &modeErr)
}
