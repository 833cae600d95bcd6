// Package models defines the core data structures for users, calculator
// configurations and calculation requests.
package models

import "time"

// Role defines the set of valid user roles.
type Role string

const (
	// RoleUser is assigned to every self-registered account.
	RoleUser Role = "user"
	// RoleAdmin grants access to catalog mutation.
	RoleAdmin Role = "admin"
)

// User represents an application account.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name chosen at registration.
	Name string `json:"name"`
	// Email is the unique login of the user.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the password. It is never serialized.
	PasswordHash []byte `json:"-"`
	// Role decides which routes the user may call.
	Role Role `json:"role"`
	// CreatedAt is the registration time.
	CreatedAt time.Time `json:"createdAt"`
}

// CalculatorType defines the set of valid calculator product identifiers.
type CalculatorType string

const (
	// Mortgage is an amortizing loan secured by a property, with a down payment.
	Mortgage CalculatorType = "mortgage"
	// CarLoan is an amortizing loan for a vehicle, with a down payment.
	CarLoan CalculatorType = "carLoan"
	// ConsumerLoan is an amortizing loan without a down payment.
	ConsumerLoan CalculatorType = "consumerLoan"
	// Pension is a savings plan with an initial deposit and monthly contributions.
	Pension CalculatorType = "pension"
)

// CalculatorTypes lists every supported calculator type.
var CalculatorTypes = []CalculatorType{Mortgage, CarLoan, ConsumerLoan, Pension}

// Valid reports whether t is one of the supported calculator types.
func (t CalculatorType) Valid() bool {
	for _, ct := range CalculatorTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// Calculator is the persisted configuration of one loan or savings product.
type Calculator struct {
	// ID is the unique identifier for the configuration.
	ID string `json:"id"`
	// Name is unique across the catalog.
	Name string `json:"name"`
	// Type selects the formula applied by the calculator.
	Type CalculatorType `json:"type"`
	// Description is shown next to the calculator form.
	Description string `json:"description"`
	// InterestRate is the annual rate in percent.
	InterestRate float64 `json:"interestRate"`
	// MinAmount and MaxAmount bound the principal (or price) in currency units.
	MinAmount float64 `json:"minAmount"`
	MaxAmount float64 `json:"maxAmount"`
	// MinTerm and MaxTerm bound the term in whole years.
	MinTerm int `json:"minTerm"`
	MaxTerm int `json:"maxTerm"`
	// MinDownPayment is the smallest accepted down payment in currency units.
	MinDownPayment float64 `json:"minDownPayment"`
	// IsActive excludes the configuration from listing and calculation when false.
	IsActive bool `json:"isActive"`
	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"createdAt"`
}

// CalculatorInput is the payload for creating a calculator configuration.
type CalculatorInput struct {
	Name           string         `json:"name" validate:"required"`
	Type           CalculatorType `json:"type" validate:"required,oneof=mortgage carLoan consumerLoan pension"`
	Description    string         `json:"description" validate:"required"`
	InterestRate   *float64       `json:"interestRate" validate:"required,gt=0"`
	MinAmount      *float64       `json:"minAmount" validate:"required,gte=0"`
	MaxAmount      *float64       `json:"maxAmount" validate:"required,gte=0"`
	MinTerm        *int           `json:"minTerm" validate:"required,gte=1"`
	MaxTerm        *int           `json:"maxTerm" validate:"required,gte=1"`
	MinDownPayment *float64       `json:"minDownPayment" validate:"omitnil,gte=0"`
	IsActive       *bool          `json:"isActive"`
}

// CalculatorPatch is the payload for a partial update. Nil fields are left
// unchanged.
type CalculatorPatch struct {
	Name           *string         `json:"name" validate:"omitnil,min=1"`
	Type           *CalculatorType `json:"type" validate:"omitnil,oneof=mortgage carLoan consumerLoan pension"`
	Description    *string         `json:"description" validate:"omitnil,min=1"`
	InterestRate   *float64        `json:"interestRate" validate:"omitnil,gt=0"`
	MinAmount      *float64        `json:"minAmount" validate:"omitnil,gte=0"`
	MaxAmount      *float64        `json:"maxAmount" validate:"omitnil,gte=0"`
	MinTerm        *int            `json:"minTerm" validate:"omitnil,gte=1"`
	MaxTerm        *int            `json:"maxTerm" validate:"omitnil,gte=1"`
	MinDownPayment *float64        `json:"minDownPayment" validate:"omitnil,gte=0"`
	IsActive       *bool           `json:"isActive"`
}

// Identity is the verified caller of a request, decoded from its auth token.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
