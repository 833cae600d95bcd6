package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/atinyakov/loancalc/internal/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationService emails calculation results.
type NotificationService struct {
	mailer   Mailer
	validate *validation.Validator
	logger   *zap.Logger
}

func NewNotificationService(mailer Mailer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{mailer: mailer, validate: validation.New(), logger: logger}
}

// SendResults mails the results to in.Email. Delivery is attempted once;
// a failure is returned wrapped in common.ErrUpstream.
func (s *NotificationService) SendResults(ctx context.Context, in models.EmailInput) error {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in).Err(); err != nil {
		return err
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = "Calculation results: " + in.CalculationType
	}
	body := ComposeResults(in.CalculationType, in.CalculationResults)

	if err := s.mailer.Send(ctx, in.Email, subject, body); err != nil {
		s.logger.Error("email delivery failed", zap.String("type", in.CalculationType), zap.Error(err))
		return fmt.Errorf("%w: %w", common.ErrUpstream, err)
	}
	return nil
}

// ComposeResults renders one "key: value" line per result, in key order.
// Numbers are shown with two decimals.
func ComposeResults(calcType string, results map[string]any) string {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Calculation results (%s):\n", calcType)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, formatValue(results[k]))
	}
	return b.String()
}

func formatValue(v any) string {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n).StringFixed(2)
	case float32:
		return decimal.NewFromFloat32(n).StringFixed(2)
	case int:
		return decimal.NewFromInt(int64(n)).StringFixed(2)
	case int64:
		return decimal.NewFromInt(n).StringFixed(2)
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return n.String()
		}
		return d.StringFixed(2)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
