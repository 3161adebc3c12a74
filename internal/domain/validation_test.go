package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{Name: "Pen", Description: "Blue ink", Price: "2", Discount: "0"}
}

func TestValidateAcceptsAndNormalizes(t *testing.T) {
	p, err := Validate(Draft{Name: "  Pen ", Description: "Blue ink", Price: " 2.50", Discount: "15"})
	require.NoError(t, err)

	assert.Equal(t, "Pen", p.Name)
	assert.Equal(t, "Blue ink", p.Description)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, p.Discount.Equal(decimal.NewFromInt(15)))
	assert.Empty(t, p.ID)
}

func TestValidateBoundaries(t *testing.T) {
	for _, discount := range []string{"0", "100", "99.99", "0.5"} {
		d := validDraft()
		d.Discount = discount
		_, err := Validate(d)
		assert.NoError(t, err, "discount %q", discount)
	}

	for _, price := range []string{"0.01", "0.00000000000000000001", "999999999999999"} {
		d := validDraft()
		d.Price = price
		p, err := Validate(d)
		require.NoError(t, err, "price %q", price)
		assert.True(t, p.Price.IsPositive())
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Draft)
		field   string
		message string
	}{
		{"empty name", func(d *Draft) { d.Name = "" }, FieldName, "is required"},
		{"blank name", func(d *Draft) { d.Name = "   " }, FieldName, "is required"},
		{"empty description", func(d *Draft) { d.Description = "" }, FieldDescription, "is required"},
		{"non numeric price", func(d *Draft) { d.Price = "abc" }, FieldPrice, "must be a number"},
		{"empty price", func(d *Draft) { d.Price = "" }, FieldPrice, "must be a number"},
		{"zero price", func(d *Draft) { d.Price = "0" }, FieldPrice, "must be greater than 0"},
		{"negative price", func(d *Draft) { d.Price = "-3" }, FieldPrice, "must be greater than 0"},
		{"non numeric discount", func(d *Draft) { d.Discount = "ten" }, FieldDiscount, "must be a number"},
		{"empty discount", func(d *Draft) { d.Discount = "" }, FieldDiscount, "must be a number"},
		{"negative discount", func(d *Draft) { d.Discount = "-1" }, FieldDiscount, "must be between 0 and 100"},
		{"discount over 100", func(d *Draft) { d.Discount = "100.5" }, FieldDiscount, "must be between 0 and 100"},
		{"nan price", func(d *Draft) { d.Price = "NaN" }, FieldPrice, "must be a number"},
		{"discount just over 100", func(d *Draft) { d.Discount = "100.00000000000000001" }, FieldDiscount, "must be between 0 and 100"},
		{"discount over 100 in exponent form", func(d *Draft) { d.Discount = "1.0000000000000001e2" }, FieldDiscount, "must be between 0 and 100"},
		{"tiny negative price", func(d *Draft) { d.Price = "-0.00000000000000000001" }, FieldPrice, "must be greater than 0"},
		{"price below smallest unit", func(d *Draft) { d.Price = "1e-400" }, FieldPrice, "is out of range"},
		{"huge price", func(d *Draft) { d.Price = "1e16" }, FieldPrice, "is out of range"},
		{"discount with huge scale", func(d *Draft) { d.Discount = "1e-50000000" }, FieldDiscount, "is out of range"},
		{"zero discount with huge scale", func(d *Draft) { d.Discount = "0e-50000000" }, FieldDiscount, "is out of range"},
		{"overlong price", func(d *Draft) { d.Price = "1." + strings.Repeat("0", 40) }, FieldPrice, "must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			_, err := Validate(d)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Len(t, ve.Errors, 1)

			msg, ok := ve.Field(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.message, msg)
		})
	}
}

func TestValidateReportsEveryFieldInFormOrder(t *testing.T) {
	_, err := Validate(Draft{Price: "x", Discount: "200"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	fields := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{FieldName, FieldDescription, FieldPrice, FieldDiscount}, fields)
	assert.Contains(t, err.Error(), "price must be a number")
}

func TestValidateProduct(t *testing.T) {
	p := Product{ID: "1", Name: "Pen", Description: "Blue ink", Price: decimal.NewFromInt(2)}
	assert.NoError(t, ValidateProduct(p))

	p.Discount = decimal.NewFromInt(101)
	var ve *ValidationError
	require.ErrorAs(t, ValidateProduct(p), &ve)
	_, ok := ve.Field(FieldDiscount)
	assert.True(t, ok)
}

func TestValidateHugeExponentIsFast(t *testing.T) {
	start := time.Now()
	for _, v := range []string{"1e-50000000", "1e50000000", "9e-2147483648"} {
		d := validDraft()
		d.Discount = v
		_, err := Validate(d)
		assert.Error(t, err, v)
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestValidateProductRejectsOutOfRangeRecord(t *testing.T) {
	p := Product{ID: "1", Name: "Pen", Description: "Blue ink",
		Price:    decimal.NewFromInt(2),
		Discount: decimal.New(1, -50000000),
	}

	var ve *ValidationError
	require.ErrorAs(t, ValidateProduct(p), &ve)
	msg, _ := ve.Field(FieldDiscount)
	assert.Equal(t, "is out of range", msg)
}
