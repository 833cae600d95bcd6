package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/formula"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/atinyakov/loancalc/internal/validation"
)

// ConfigSource resolves the configuration a calculation runs against.
type ConfigSource interface {
	ActiveConfig(ctx context.Context, t models.CalculatorType) (*models.Calculator, error)
}

// PensionCalculation is a pension result with the ages the caller supplied.
type PensionCalculation struct {
	formula.PensionResult
	CurrentAge    *int `json:"currentAge,omitempty"`
	RetirementAge *int `json:"retirementAge,omitempty"`
}

// CalculationService validates calculation inputs against the active
// configuration of their type and runs the formula.
type CalculationService struct {
	configs  ConfigSource
	validate *validation.Validator
}

func NewCalculationService(configs ConfigSource) *CalculationService {
	return &CalculationService{configs: configs, validate: validation.New()}
}

// Mortgage finances the property price minus the down payment.
func (s *CalculationService) Mortgage(ctx context.Context, in models.MortgageInput) (*formula.LoanResult, error) {
	return s.priced(ctx, models.Mortgage, in, "propertyPrice", "the property price", in.PropertyPrice, in.DownPayment, in.Term)
}

// CarLoan finances the car price minus the down payment.
func (s *CalculationService) CarLoan(ctx context.Context, in models.CarLoanInput) (*formula.LoanResult, error) {
	return s.priced(ctx, models.CarLoan, in, "carPrice", "the car price", in.CarPrice, in.DownPayment, in.Term)
}

// ConsumerLoan finances the requested amount as is.
func (s *CalculationService) ConsumerLoan(ctx context.Context, in models.ConsumerLoanInput) (*formula.LoanResult, error) {
	cfg, err := s.configs.ActiveConfig(ctx, models.ConsumerLoan)
	if err != nil {
		return nil, err
	}

	ve := s.validate.Struct(in)
	failed := failedFields(ve)
	if in.LoanAmount != nil && !failed["loanAmount"] {
		checkAmount(ve, "loanAmount", *in.LoanAmount, cfg)
	}
	if in.Term != nil && !failed["term"] {
		checkTerm(ve, *in.Term, cfg)
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	return amortize(*in.LoanAmount, cfg.InterestRate, *in.Term)
}

// Pension accumulates the deposit and contributions over the term. Only the
// term is bounded by the configuration.
func (s *CalculationService) Pension(ctx context.Context, in models.PensionInput) (*PensionCalculation, error) {
	cfg, err := s.configs.ActiveConfig(ctx, models.Pension)
	if err != nil {
		return nil, err
	}

	ve := s.validate.Struct(in)
	failed := failedFields(ve)
	if in.Term != nil && !failed["term"] {
		checkTerm(ve, *in.Term, cfg)
	}
	if in.CurrentAge != nil && in.RetirementAge != nil && *in.RetirementAge < *in.CurrentAge {
		ve.Add("retirementAge", "must not be less than currentAge")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	res, err := formula.Accumulate(*in.InitialDeposit, *in.MonthlyContribution, cfg.InterestRate, *in.Term)
	if err != nil {
		return nil, formulaErr(err)
	}
	return &PensionCalculation{
		PensionResult: res,
		CurrentAge:    in.CurrentAge,
		RetirementAge: in.RetirementAge,
	}, nil
}

func (s *CalculationService) priced(ctx context.Context, t models.CalculatorType, in any,
	priceField, priceName string, price, down *float64, term *int) (*formula.LoanResult, error) {
	cfg, err := s.configs.ActiveConfig(ctx, t)
	if err != nil {
		return nil, err
	}

	ve := s.validate.Struct(in)
	failed := failedFields(ve)
	if price != nil && !failed[priceField] {
		checkAmount(ve, priceField, *price, cfg)
	}
	if down != nil && !failed["downPayment"] {
		switch {
		case *down < cfg.MinDownPayment:
			ve.Add("downPayment", "must be at least "+formatNumber(cfg.MinDownPayment))
		case price != nil && *down >= *price:
			ve.Add("downPayment", "must be less than "+priceName)
		}
	}
	if term != nil && !failed["term"] {
		checkTerm(ve, *term, cfg)
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	return amortize(*price-*down, cfg.InterestRate, *term)
}

func amortize(amount, rate float64, term int) (*formula.LoanResult, error) {
	res, err := formula.Amortize(amount, rate, term)
	if err != nil {
		return nil, formulaErr(err)
	}
	return &res, nil
}

// formulaErr reports formula preconditions as validation failures.
func formulaErr(err error) error {
	switch {
	case errors.Is(err, formula.ErrZeroRate):
		return common.NewValidationError(common.FieldError{Field: "interestRate", Msg: err.Error()})
	case errors.Is(err, formula.ErrInvalidTerm), errors.Is(err, formula.ErrOutOfRange):
		return common.NewValidationError(common.FieldError{Field: "term", Msg: err.Error()})
	default:
		return fmt.Errorf("calculate: %w", err)
	}
}

func failedFields(ve *common.ValidationError) map[string]bool {
	failed := make(map[string]bool, len(ve.Fields))
	for _, f := range ve.Fields {
		failed[f.Field] = true
	}
	return failed
}

func checkAmount(ve *common.ValidationError, field string, v float64, cfg *models.Calculator) {
	if v < cfg.MinAmount || v > cfg.MaxAmount {
		ve.Add(field, fmt.Sprintf("must be between %s and %s", formatNumber(cfg.MinAmount), formatNumber(cfg.MaxAmount)))
	}
}

func checkTerm(ve *common.ValidationError, v int, cfg *models.Calculator) {
	if v < cfg.MinTerm || v > cfg.MaxTerm {
		ve.Add("term", fmt.Sprintf("must be between %d and %d years", cfg.MinTerm, cfg.MaxTerm))
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
