package domain

import (
	"strings"

	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var hundred = decimal.NewFromInt(100)

// ProductID is the server-assigned identifier of a product. It is opaque and
// only compared for equality. Backends emit it either as a JSON string or a
// JSON number; both decode to the same textual form.
type ProductID string

// UnmarshalJSON accepts string, number and null ids.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*id = ""
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "decode product id")
		}
		*id = ProductID(s)
		return nil
	default:
		if _, err := decimal.NewFromString(raw); err != nil {
			return errors.Errorf("product id %q is neither a string nor a number", raw)
		}
		*id = ProductID(raw)
		return nil
	}
}

func (id ProductID) String() string {
	return string(id)
}

// Product represents a validated product record
type Product struct {
	ID          ProductID       `json:"id,omitempty"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
}

// FinalPrice returns the discounted price of the product.
func (p Product) FinalPrice() decimal.Decimal {
	return FinalPrice(p.Price, p.Discount)
}

// Draft returns the product fields as editable form text.
func (p Product) Draft() Draft {
	return Draft{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Discount:    p.Discount.String(),
	}
}

// FinalPrice computes price - price*discount/100. It is a display value only.
func FinalPrice(price, discount decimal.Decimal) decimal.Decimal {
	return price.Sub(price.Mul(discount).Div(hundred))
}

// Draft holds unvalidated product fields as typed by the user.
type Draft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Discount    string `json:"discount"`
}

// Draft field names, as used by SetField.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldDiscount    = "discount"
)

// With returns a copy of the draft with one field replaced.
func (d Draft) With(field, value string) (Draft, error) {
	switch field {
	case FieldName:
		d.Name = value
	case FieldDescription:
		d.Description = value
	case FieldPrice:
		d.Price = value
	case FieldDiscount:
		d.Discount = value
	default:
		return d, errors.Wrapf(ErrUnknownField, "field %q", field)
	}
	return d, nil
}

// IsEmpty reports whether every field is blank.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}
