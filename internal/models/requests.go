package models

// Inputs for the calculation endpoints. Numeric fields are pointers so that a
// missing value can be told apart from zero; a value of the wrong JSON type is
// left nil by the decoder and reported with its own message.

// MortgageInput is the body of POST /api/calculators/calculate/mortgage.
type MortgageInput struct {
	PropertyPrice *float64 `json:"propertyPrice" validate:"required,gt=0"`
	DownPayment   *float64 `json:"downPayment" validate:"required,gte=0"`
	Term          *int     `json:"term" validate:"required,gte=1"`
}

// CarLoanInput is the body of POST /api/calculators/calculate/carLoan.
type CarLoanInput struct {
	CarPrice    *float64 `json:"carPrice" validate:"required,gt=0"`
	DownPayment *float64 `json:"downPayment" validate:"required,gte=0"`
	Term        *int     `json:"term" validate:"required,gte=1"`
}

// ConsumerLoanInput is the body of POST /api/calculators/calculate/consumerLoan.
type ConsumerLoanInput struct {
	LoanAmount *float64 `json:"loanAmount" validate:"required,gt=0"`
	Term       *int     `json:"term" validate:"required,gte=1"`
}

// PensionInput is the body of POST /api/calculators/calculate/pension.
// CurrentAge and RetirementAge are echoed back but take no part in the formula.
type PensionInput struct {
	InitialDeposit      *float64 `json:"initialDeposit" validate:"required,gte=0"`
	MonthlyContribution *float64 `json:"monthlyContribution" validate:"required,gte=0"`
	Term                *int     `json:"term" validate:"required,gte=1"`
	CurrentAge          *int     `json:"currentAge,omitempty" validate:"omitnil,gte=0"`
	RetirementAge       *int     `json:"retirementAge,omitempty" validate:"omitnil,gte=0"`
}

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmailInput is the body of POST /api/calculators/email.
type EmailInput struct {
	Email              string         `json:"email" validate:"required,email"`
	Subject            string         `json:"subject"`
	CalculationType    string         `json:"calculationType" validate:"required"`
	CalculationResults map[string]any `json:"calculationResults" validate:"required,min=1"`
}
