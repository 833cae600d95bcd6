package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/loancalc/internal/cache"
	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/atinyakov/loancalc/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CalculatorRepository defines the persistence operations needed by the
// CatalogService.
type CalculatorRepository interface {
	// ListCalculators returns configurations ordered by creation time.
	ListCalculators(ctx context.Context, activeOnly bool) ([]models.Calculator, error)
	// FindActiveByType returns the active configurations of a type, oldest first.
	FindActiveByType(ctx context.Context, t models.CalculatorType) ([]models.Calculator, error)
	GetCalculatorByID(ctx context.Context, id string) (*models.Calculator, error)
	CreateCalculator(ctx context.Context, c *models.Calculator) error
	UpdateCalculator(ctx context.Context, id string, patch models.CalculatorPatch) (*models.Calculator, error)
	// DeleteCalculator returns the type of the removed configuration.
	DeleteCalculator(ctx context.Context, id string) (models.CalculatorType, error)
}

// ConfigCache holds the active configurations of each type.
type ConfigCache interface {
	Get(ctx context.Context, t models.CalculatorType) ([]models.Calculator, bool)
	Set(ctx context.Context, t models.CalculatorType, cs []models.Calculator) error
	Invalidate(ctx context.Context, types ...models.CalculatorType) error
}

// defaultCacheTTL applies when NewCatalogService builds its own cache.
const defaultCacheTTL = 5 * time.Minute

// CatalogService manages calculator configurations.
type CatalogService struct {
	repo     CalculatorRepository
	cache    ConfigCache
	validate *validation.Validator
	logger   *zap.Logger

	// genMu guards gens and orders cache fills against invalidations. A fill
	// is stored only if no invalidation of its type ran since the read began.
	genMu sync.Mutex
	gens  map[models.CalculatorType]uint64

	now   func() time.Time
	newID func() string
}

// NewCatalogService constructs a CatalogService. A nil cache keeps active
// configurations in process memory; a nil logger discards output.
func NewCatalogService(repo CalculatorRepository, c ConfigCache, logger *zap.Logger) *CatalogService {
	if c == nil {
		c = cache.NewMemory(defaultCacheTTL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		repo:     repo,
		cache:    c,
		validate: validation.New(),
		logger:   logger,
		gens:     make(map[models.CalculatorType]uint64),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// List returns the active configurations.
func (s *CatalogService) List(ctx context.Context) ([]models.Calculator, error) {
	return s.repo.ListCalculators(ctx, true)
}

// ListAll returns every configuration, including inactive ones.
func (s *CatalogService) ListAll(ctx context.Context) ([]models.Calculator, error) {
	return s.repo.ListCalculators(ctx, false)
}

// Get returns one configuration whether it is active or not.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Calculator, error) {
	return s.repo.GetCalculatorByID(ctx, id)
}

// ActiveConfig returns the configuration used to calculate type t. When more
// than one is active the oldest wins.
func (s *CatalogService) ActiveConfig(ctx context.Context, t models.CalculatorType) (*models.Calculator, error) {
	active, ok := s.cache.Get(ctx, t)
	if !ok {
		gen := s.generation(t)
		var err error
		active, err = s.repo.FindActiveByType(ctx, t)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, t, gen, active)
	}

	if len(active) == 0 {
		return nil, fmt.Errorf("no active %s calculator: %w", t, common.ErrNotFound)
	}
	if len(active) > 1 {
		s.logger.Warn("several active calculators of one type, using the oldest",
			zap.String("type", string(t)),
			zap.Int("count", len(active)),
			zap.String("id", active[0].ID),
		)
	}
	c := active[0]
	return &c, nil
}

// Create stores a new configuration. A taken name is reported as a
// validation error on the name field.
func (s *CatalogService) Create(ctx context.Context, in models.CalculatorInput) (*models.Calculator, error) {
	ve := s.validate.Struct(in)
	if in.MinAmount != nil && in.MaxAmount != nil && *in.MinAmount > *in.MaxAmount {
		ve.Add("maxAmount", "must not be less than minAmount")
	}
	if in.MinTerm != nil && in.MaxTerm != nil && *in.MinTerm > *in.MaxTerm {
		ve.Add("maxTerm", "must not be less than minTerm")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	c := &models.Calculator{
		ID:           s.newID(),
		Name:         in.Name,
		Type:         in.Type,
		Description:  in.Description,
		InterestRate: *in.InterestRate,
		MinAmount:    *in.MinAmount,
		MaxAmount:    *in.MaxAmount,
		MinTerm:      *in.MinTerm,
		MaxTerm:      *in.MaxTerm,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if in.MinDownPayment != nil {
		c.MinDownPayment = *in.MinDownPayment
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	if err := s.repo.CreateCalculator(ctx, c); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, nameTaken()
		}
		return nil, err
	}

	s.invalidate(ctx, c.Type)
	s.logger.Info("calculator created", zap.String("id", c.ID), zap.String("type", string(c.Type)))
	return c, nil
}

// Update changes only the supplied fields of a configuration.
func (s *CatalogService) Update(ctx context.Context, id string, patch models.CalculatorPatch) (*models.Calculator, error) {
	if err := s.validate.Struct(patch).Err(); err != nil {
		return nil, err
	}

	before, err := s.repo.GetCalculatorByID(ctx, id)
	if err != nil {
		return nil, err
	}

	after, err := s.repo.UpdateCalculator(ctx, id, patch)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, nameTaken()
		}
		return nil, err
	}

	s.invalidate(ctx, before.Type, after.Type)
	s.logger.Info("calculator updated", zap.String("id", id))
	return after, nil
}

// Delete removes a configuration.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	t, err := s.repo.DeleteCalculator(ctx, id)
	if err != nil {
		return err
	}

	s.invalidate(ctx, t)
	s.logger.Info("calculator deleted", zap.String("id", id))
	return nil
}

func (s *CatalogService) generation(t models.CalculatorType) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[t]
}

// fill caches active unless t was invalidated after gen was taken.
func (s *CatalogService) fill(ctx context.Context, t models.CalculatorType, gen uint64, active []models.Calculator) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	if s.gens[t] != gen {
		return
	}
	if err := s.cache.Set(ctx, t, active); err != nil {
		s.logger.Warn("cache set failed", zap.String("type", string(t)), zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context, types ...models.CalculatorType) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	for _, t := range types {
		s.gens[t]++
	}
	if err := s.cache.Invalidate(ctx, types...); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func nameTaken() error {
	return common.NewValidationError(common.FieldError{Field: "name", Msg: "calculator with this name already exists"})
}
