package validation

import (
	"testing"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(ve *common.ValidationError) []string {
	out := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		out = append(out, f.Field)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestStruct_Valid(t *testing.T) {
	v := New()
	ve := v.Struct(models.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	assert.NoError(t, ve.Err())
}

func TestStruct_EnumeratesEveryField(t *testing.T) {
	v := New()
	ve := v.Struct(models.RegisterInput{Name: "", Email: "not-an-email", Password: "123"})

	require.Error(t, ve.Err())
	assert.ElementsMatch(t, []string{"name", "email", "password"}, fields(ve))
	for _, f := range ve.Fields {
		if f.Field == "password" {
			assert.Equal(t, "must be at least 6 characters long", f.Msg)
		}
	}
}

func TestStruct_MissingNumbers(t *testing.T) {
	v := New()
	ve := v.Struct(models.MortgageInput{DownPayment: ptr(-1.0)})

	require.Error(t, ve.Err())
	assert.ElementsMatch(t, []string{"propertyPrice", "downPayment", "term"}, fields(ve))
}

func TestStruct_ZeroPointerIsPresent(t *testing.T) {
	v := New()
	ve := v.Struct(models.PensionInput{
		InitialDeposit:      ptr(0.0),
		MonthlyContribution: ptr(0.0),
		Term:                ptr(10),
	})
	assert.NoError(t, ve.Err())
}

func TestStruct_PatchSkipsNil(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(models.CalculatorPatch{}).Err())

	bad := models.CalculatorType("savings")
	ve := v.Struct(models.CalculatorPatch{Type: &bad, InterestRate: ptr(0.0)})
	require.Error(t, ve.Err())
	assert.ElementsMatch(t, []string{"type", "interestRate"}, fields(ve))
}

func TestStruct_EmailResultsRequired(t *testing.T) {
	v := New()
	ve := v.Struct(models.EmailInput{Email: "a@b.co", CalculationType: "mortgage", CalculationResults: map[string]any{}})
	require.Error(t, ve.Err())
	assert.Equal(t, []string{"calculationResults"}, fields(ve))
}
