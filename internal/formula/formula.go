// Package formula implements the closed-form financial formulas behind the
// calculators: the fixed-rate annuity payment and the future value of a lump
// sum plus an ordinary annuity.
//
// Every function is pure. Callers are expected to validate amounts against
// the calculator configuration before calling in.
package formula

import (
	"errors"
	"math"
)

const (
	// MonthsPerYear converts loan and savings terms from years to periods.
	MonthsPerYear = 12
	// PercentageMultiplier converts annual percentage rates to fractions.
	PercentageMultiplier = 100
	// IncomeMultiplier encodes "the payment must not exceed 40% of income".
	IncomeMultiplier = 2.5
	// PayoutYears is the assumed length of the pension payout phase.
	PayoutYears = 20
)

var (
	// ErrZeroRate is returned when the interest rate is zero or negative.
	// Both formulas divide by the periodic rate.
	ErrZeroRate = errors.New("interest rate must be positive")
	// ErrInvalidTerm is returned for terms shorter than one year.
	ErrInvalidTerm = errors.New("term must be at least one year")
	// ErrOutOfRange is returned when the rate and term compound past what a
	// float64 can hold.
	ErrOutOfRange = errors.New("result is out of range for this rate and term")
)

// LoanResult is the outcome of an amortizing loan calculation.
type LoanResult struct {
	LoanAmount     float64 `json:"loanAmount"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalPayment   float64 `json:"totalPayment"`
	RequiredIncome float64 `json:"requiredIncome"`
	InterestRate   float64 `json:"interestRate"`
}

// PensionResult is the outcome of a pension accumulation calculation.
type PensionResult struct {
	TotalSavings       float64 `json:"totalSavings"`
	MonthlyPension     float64 `json:"monthlyPension"`
	InterestRate       float64 `json:"interestRate"`
	TotalContributions float64 `json:"totalContributions"`
}

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualRate float64) float64 {
	return annualRate / MonthsPerYear / PercentageMultiplier
}

// Amortize computes the level monthly payment of a fixed-rate loan.
//
// loanAmount is the financed principal (price minus down payment for
// mortgages and car loans), annualRate is a percentage and termYears the
// loan duration.
func Amortize(loanAmount, annualRate float64, termYears int) (LoanResult, error) {
	if annualRate <= 0 {
		return LoanResult{}, ErrZeroRate
	}
	if termYears < 1 {
		return LoanResult{}, ErrInvalidTerm
	}

	periods := termYears * MonthsPerYear
	monthlyRate := MonthlyRate(annualRate)
	growth := math.Pow(1+monthlyRate, float64(periods))
	payment := loanAmount * monthlyRate * growth / (growth - 1)
	if !finite(payment, payment*float64(periods)) {
		return LoanResult{}, ErrOutOfRange
	}

	return LoanResult{
		LoanAmount:     loanAmount,
		MonthlyPayment: payment,
		TotalPayment:   payment * float64(periods),
		RequiredIncome: payment * IncomeMultiplier,
		InterestRate:   annualRate,
	}, nil
}

// Accumulate computes pension savings from an initial deposit and equal
// monthly contributions compounded monthly over termYears.
func Accumulate(initialDeposit, monthlyContribution, annualRate float64, termYears int) (PensionResult, error) {
	if annualRate <= 0 {
		return PensionResult{}, ErrZeroRate
	}
	if termYears < 1 {
		return PensionResult{}, ErrInvalidTerm
	}

	months := termYears * MonthsPerYear
	monthlyRate := MonthlyRate(annualRate)
	growth := math.Pow(1+monthlyRate, float64(months))

	fvInitial := initialDeposit * growth
	fvMonthly := monthlyContribution * (growth - 1) / monthlyRate
	total := fvInitial + fvMonthly
	if !finite(total) {
		return PensionResult{}, ErrOutOfRange
	}

	return PensionResult{
		TotalSavings:       total,
		MonthlyPension:     total / (PayoutYears * MonthsPerYear),
		InterestRate:       annualRate,
		TotalContributions: initialDeposit + monthlyContribution*float64(months),
	}, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
