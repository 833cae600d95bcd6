package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/google/uuid"
)

// PostgresCalculatorRepository implements catalog operations against a PostgreSQL database.
type PostgresCalculatorRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresCalculatorRepository creates a new PostgresCalculatorRepository using the provided *sql.DB.
func NewPostgresCalculatorRepository(db *sql.DB) *PostgresCalculatorRepository {
	return &PostgresCalculatorRepository{DB: db}
}

const calculatorColumns = `id, name, type, description, interest_rate, min_amount, max_amount, min_term, max_term, min_down_payment, is_active, created_at`

// ListCalculators returns calculator configurations ordered by creation time.
// With activeOnly set, inactive configurations are skipped.
func (r *PostgresCalculatorRepository) ListCalculators(ctx context.Context, activeOnly bool) ([]models.Calculator, error) {
	query := `SELECT ` + calculatorColumns + ` FROM calculators`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListCalculators: %w", err)
	}
	defer rows.Close()

	return collectCalculators(rows)
}

// FindActiveByType returns every active configuration of the given type,
// oldest first.
func (r *PostgresCalculatorRepository) FindActiveByType(ctx context.Context, t models.CalculatorType) ([]models.Calculator, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+calculatorColumns+` FROM calculators
		WHERE type = $1 AND is_active = true
		ORDER BY created_at, id
	`, string(t))
	if err != nil {
		return nil, fmt.Errorf("FindActiveByType: %w", err)
	}
	defer rows.Close()

	return collectCalculators(rows)
}

// GetCalculatorByID retrieves a configuration regardless of its active flag.
// An id that is not a UUID cannot exist and yields common.ErrNotFound.
func (r *PostgresCalculatorRepository) GetCalculatorByID(ctx context.Context, id string) (*models.Calculator, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("GetCalculatorByID: %w", common.ErrNotFound)
	}

	row := r.DB.QueryRowContext(ctx, `SELECT `+calculatorColumns+` FROM calculators WHERE id = $1`, id)
	c, err := scanCalculator(row)
	if err != nil {
		return nil, fmt.Errorf("GetCalculatorByID: %w", err)
	}
	return c, nil
}

// CreateCalculator inserts a configuration. A duplicate name is reported as
// common.ErrConflict.
func (r *PostgresCalculatorRepository) CreateCalculator(ctx context.Context, c *models.Calculator) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO calculators (`+calculatorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID, c.Name, string(c.Type), c.Description, c.InterestRate,
		c.MinAmount, c.MaxAmount, c.MinTerm, c.MaxTerm, c.MinDownPayment,
		c.IsActive, c.CreatedAt)
	if err != nil {
		return wrapWriteErr("CreateCalculator", err)
	}
	return nil
}

// UpdateCalculator sets only the supplied fields of patch and returns the
// updated configuration. An empty patch returns the stored row unchanged.
func (r *PostgresCalculatorRepository) UpdateCalculator(ctx context.Context, id string, patch models.CalculatorPatch) (*models.Calculator, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("UpdateCalculator: %w", common.ErrNotFound)
	}

	sets, args := patchAssignments(patch)
	if len(sets) == 0 {
		return r.GetCalculatorByID(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE calculators SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + calculatorColumns

	c, err := scanCalculator(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("UpdateCalculator: %w", err)
	}
	if err != nil {
		return nil, wrapWriteErr("UpdateCalculator", err)
	}
	return c, nil
}

// DeleteCalculator removes a configuration and returns its type.
func (r *PostgresCalculatorRepository) DeleteCalculator(ctx context.Context, id string) (models.CalculatorType, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("DeleteCalculator: %w", common.ErrNotFound)
	}

	var t string
	err := r.DB.QueryRowContext(ctx, `DELETE FROM calculators WHERE id = $1 RETURNING type`, id).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("DeleteCalculator: %w", common.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("DeleteCalculator: %w", err)
	}
	return models.CalculatorType(t), nil
}

// CountCalculators returns the number of stored configurations.
func (r *PostgresCalculatorRepository) CountCalculators(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM calculators`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountCalculators: %w", err)
	}
	return n, nil
}

// ActiveDuplicates returns, per type, the number of active configurations
// for every type that has more than one.
func (r *PostgresCalculatorRepository) ActiveDuplicates(ctx context.Context) (map[models.CalculatorType]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM calculators
		WHERE is_active = true
		GROUP BY type HAVING COUNT(*) > 1
	`)
	if err != nil {
		return nil, fmt.Errorf("ActiveDuplicates: %w", err)
	}
	defer rows.Close()

	out := make(map[models.CalculatorType]int)
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out[models.CalculatorType(t)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ActiveDuplicates: %w", err)
	}
	return out, nil
}

func patchAssignments(p models.CalculatorPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Type != nil {
		add("type", string(*p.Type))
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.InterestRate != nil {
		add("interest_rate", *p.InterestRate)
	}
	if p.MinAmount != nil {
		add("min_amount", *p.MinAmount)
	}
	if p.MaxAmount != nil {
		add("max_amount", *p.MaxAmount)
	}
	if p.MinTerm != nil {
		add("min_term", *p.MinTerm)
	}
	if p.MaxTerm != nil {
		add("max_term", *p.MaxTerm)
	}
	if p.MinDownPayment != nil {
		add("min_down_payment", *p.MinDownPayment)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	return sets, args
}

func collectCalculators(rows *sql.Rows) ([]models.Calculator, error) {
	calculators := []models.Calculator{}
	for rows.Next() {
		c, err := scanCalculator(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		calculators = append(calculators, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return calculators, nil
}

func scanCalculator(row rowScanner) (*models.Calculator, error) {
	var (
		c models.Calculator
		t string
	)
	err := row.Scan(&c.ID, &c.Name, &t, &c.Description, &c.InterestRate,
		&c.MinAmount, &c.MaxAmount, &c.MinTerm, &c.MaxTerm, &c.MinDownPayment,
		&c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Type = models.CalculatorType(t)
	return &c, nil
}
