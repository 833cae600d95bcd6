package db

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/loancalc/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the part of the user repository the seeder needs.
type UserStore interface {
	UserExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// CalculatorStore is the part of the calculator repository the seeder needs.
type CalculatorStore interface {
	CountCalculators(ctx context.Context) (int, error)
	CreateCalculator(ctx context.Context, c *models.Calculator) error
}

// AdminAccount describes the administrator created on first boot.
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

// DefaultCalculators returns the catalog installed into an empty store.
func DefaultCalculators() []models.Calculator {
	return []models.Calculator{
		{
			Name:         "Mortgage calculator",
			Type:         models.Mortgage,
			Description:  "Monthly payment for a home loan after the down payment",
			InterestRate: 9.6,
			MinAmount:    300000,
			MaxAmount:    30000000,
			MinTerm:      1,
			MaxTerm:      30,
		},
		{
			Name:         "Car loan",
			Type:         models.CarLoan,
			Description:  "Monthly payment for a vehicle loan after the down payment",
			InterestRate: 3.5,
			MinAmount:    100000,
			MaxAmount:    10000000,
			MinTerm:      1,
			MaxTerm:      7,
		},
		{
			Name:         "Consumer loan",
			Type:         models.ConsumerLoan,
			Description:  "Monthly payment for an unsecured loan",
			InterestRate: 14.5,
			MinAmount:    50000,
			MaxAmount:    3000000,
			MinTerm:      1,
			MaxTerm:      7,
		},
		{
			Name:         "Pension savings",
			Type:         models.Pension,
			Description:  "Savings and monthly pension from regular contributions",
			InterestRate: 7,
			MinAmount:    10000,
			MaxAmount:    10000000,
			MinTerm:      1,
			MaxTerm:      40,
		},
	}
}

// Seed creates the admin account when it is missing and installs the default
// catalog when no calculator exists. Running it again changes nothing.
func Seed(ctx context.Context, users UserStore, calcs CalculatorStore, admin AdminAccount, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	exists, err := users.UserExists(ctx, admin.Email)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if !exists {
		hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed admin: hash password: %w", err)
		}
		name := admin.Name
		if name == "" {
			name = "Admin"
		}
		err = users.CreateUser(ctx, &models.User{
			ID:           uuid.NewString(),
			Name:         name,
			Email:        admin.Email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		log.Info("admin account created", zap.String("email", admin.Email))
	}

	n, err := calcs.CountCalculators(ctx)
	if err != nil {
		return fmt.Errorf("seed calculators: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Creation times are spaced so that the catalog keeps its listing order.
	base := time.Now().UTC()
	for i, c := range DefaultCalculators() {
		c.ID = uuid.NewString()
		c.IsActive = true
		c.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		if err := calcs.CreateCalculator(ctx, &c); err != nil {
			return fmt.Errorf("seed calculator %q: %w", c.Name, err)
		}
	}
	log.Info("default calculators created", zap.Int("count", len(DefaultCalculators())))
	return nil
}
