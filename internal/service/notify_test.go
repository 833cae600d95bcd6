package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	SendFunc func(ctx context.Context, to, subject, body string) error
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.SendFunc(ctx, to, subject, body)
}

func TestComposeResults(t *testing.T) {
	body := ComposeResults("mortgage", map[string]any{
		"monthlyPayment": 14080.065264,
		"loanAmount":     1500000.0,
		"term":           json.Number("20"),
		"note":           "fixed rate",
	})

	want := "Calculation results (mortgage):\n" +
		"loanAmount: 1500000.00\n" +
		"monthlyPayment: 14080.07\n" +
		"note: fixed rate\n" +
		"term: 20.00\n"
	assert.Equal(t, want, body)
}

func TestSendResults_DefaultSubject(t *testing.T) {
	var gotTo, gotSubject, gotBody string
	svc := NewNotificationService(&mockMailer{SendFunc: func(ctx context.Context, to, subject, body string) error {
		gotTo, gotSubject, gotBody = to, subject, body
		return nil
	}}, nil)

	err := svc.SendResults(context.Background(), models.EmailInput{
		Email:              "ann@example.com",
		CalculationType:    "pension",
		CalculationResults: map[string]any{"totalSavings": 3008507.184},
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", gotTo)
	assert.Equal(t, "Calculation results: pension", gotSubject)
	assert.Contains(t, gotBody, "totalSavings: 3008507.18\n")
}

func TestSendResults_CustomSubject(t *testing.T) {
	var gotSubject string
	svc := NewNotificationService(&mockMailer{SendFunc: func(ctx context.Context, to, subject, body string) error {
		gotSubject = subject
		return nil
	}}, nil)

	err := svc.SendResults(context.Background(), models.EmailInput{
		Email:              "ann@example.com",
		Subject:            "My mortgage",
		CalculationType:    "mortgage",
		CalculationResults: map[string]any{"x": 1.0},
	})
	require.NoError(t, err)
	assert.Equal(t, "My mortgage", gotSubject)
}

func TestSendResults_Validation(t *testing.T) {
	sent := false
	svc := NewNotificationService(&mockMailer{SendFunc: func(ctx context.Context, to, subject, body string) error {
		sent = true
		return nil
	}}, nil)

	err := svc.SendResults(context.Background(), models.EmailInput{
		Email:              "not-an-email",
		CalculationResults: map[string]any{},
	})
	assert.ElementsMatch(t, []string{"email", "calculationType", "calculationResults"}, fieldsOf(t, err))
	assert.False(t, sent)
}

func TestSendResults_DeliveryFailure(t *testing.T) {
	relayErr := errors.New("connection refused")
	svc := NewNotificationService(&mockMailer{SendFunc: func(ctx context.Context, to, subject, body string) error {
		return relayErr
	}}, nil)

	err := svc.SendResults(context.Background(), models.EmailInput{
		Email:              "ann@example.com",
		CalculationType:    "carLoan",
		CalculationResults: map[string]any{"x": 1.0},
	})
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.ErrorIs(t, err, relayErr)
}
