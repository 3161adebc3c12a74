package domain

import (
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationNotice is the message shown to the user when a draft is rejected.
const ValidationNotice = "Please fill in all required fields and ensure valid values for Price and Discount."

// Numeric input limits. Values outside them are rejected before any
// arithmetic that would have to expand the exponent.
const (
	maxNumberLength  = 32
	maxScale         = 20
	maxIntegerDigits = 15
)

var fieldOrder = []string{FieldName, FieldDescription, FieldPrice, FieldDiscount}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names so errors line up with form fields.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// FieldError describes a single rejected form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a draft or record breaks a field rule.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message recorded for field, if any.
func (e *ValidationError) Field(name string) (string, bool) {
	for _, fe := range e.Errors {
		if fe.Field == name {
			return fe.Message, true
		}
	}
	return "", false
}

// Validate checks a draft and returns the normalized product. Text fields are
// trimmed, price and discount are parsed as decimals.
func Validate(d Draft) (Product, error) {
	failed := make(map[string]string)

	p := Product{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
	}

	if price, err := parseNumber(d.Price); err != nil {
		failed[FieldPrice] = "must be a number"
	} else {
		p.Price = price
	}

	if discount, err := parseNumber(d.Discount); err != nil {
		failed[FieldDiscount] = "must be a number"
	} else {
		p.Discount = discount
	}

	if err := checkRules(p, failed); err != nil {
		return Product{}, err
	}
	if len(failed) > 0 {
		return Product{}, newValidationError(failed)
	}
	return p, nil
}

// ValidateProduct applies the field rules to an already numeric record, such
// as a canonical record returned by the backend.
func ValidateProduct(p Product) error {
	failed := make(map[string]string)
	if err := checkRules(p, failed); err != nil {
		return err
	}
	if len(failed) > 0 {
		return newValidationError(failed)
	}
	return nil
}

// checkRules applies the text rules through the validator and the numeric
// bounds on the decimals themselves.
func checkRules(p Product, failed map[string]string) error {
	checkBounds(FieldPrice, p.Price, failed, func(d decimal.Decimal) bool {
		return d.IsPositive()
	}, "must be greater than 0")
	checkBounds(FieldDiscount, p.Discount, failed, func(d decimal.Decimal) bool {
		return !d.IsNegative() && d.LessThanOrEqual(hundred)
	}, "must be between 0 and 100")

	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errors.Wrap(err, "validate product")
	}

	for _, fe := range ve {
		field := fe.Field()
		if _, seen := failed[field]; seen {
			continue
		}
		failed[field] = ruleMessage(fe)
	}
	return nil
}

func ruleMessage(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return "is required"
	}
	return "is invalid"
}

func checkBounds(field string, d decimal.Decimal, failed map[string]string, ok func(decimal.Decimal) bool, message string) {
	if _, seen := failed[field]; seen {
		return
	}
	switch {
	case !inRange(d):
		failed[field] = "is out of range"
	case !ok(d):
		failed[field] = message
	}
}

// inRange reports whether d has at most maxScale decimal places and
// maxIntegerDigits integer digits.
func inRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	return exp >= -maxScale && exp+int64(d.NumDigits()) <= maxIntegerDigits
}

func newValidationError(failed map[string]string) *ValidationError {
	out := &ValidationError{}
	for _, field := range fieldOrder {
		if msg, ok := failed[field]; ok {
			out.Errors = append(out.Errors, FieldError{Field: field, Message: msg})
		}
	}
	return out
}

func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, errors.New("empty number")
	}
	if len(s) > maxNumberLength {
		return decimal.Decimal{}, errors.Errorf("number longer than %d characters", maxNumberLength)
	}
	return decimal.NewFromString(s)
}
