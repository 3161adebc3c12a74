package dto

import (
	"time"

	"github.com/mrops-br/products-form/internal/domain"
	"github.com/shopspring/decimal"
)

// Form modes
const (
	ModeCreate = "create"
	ModeEdit   = "edit"
)

// FormView represents the state of the product form
type FormView struct {
	Mode         string           `json:"mode"`
	Title        string           `json:"title"`
	SubmitLabel  string           `json:"submit_label"`
	EditTargetID domain.ProductID `json:"edit_target_id,omitempty"`
	Draft        domain.Draft     `json:"draft"`
	Submitting   bool             `json:"submitting"`
	Notice       *NoticeResponse  `json:"notice,omitempty"`
}

// NewFormView builds the form view for the given state
func NewFormView(draft domain.Draft, editTarget domain.ProductID, submitting bool, notice *domain.Notice) *FormView {
	view := &FormView{
		Mode:        ModeCreate,
		Title:       "Add Product",
		SubmitLabel: "Add Product",
		Draft:       draft,
		Submitting:  submitting,
		Notice:      ToNoticeResponse(notice),
	}
	if editTarget != "" {
		view.Mode = ModeEdit
		view.Title = "Edit Product"
		view.SubmitLabel = "Update Product"
		view.EditTargetID = editTarget
	}
	return view
}

// NoticeResponse represents a user-facing notification
type NoticeResponse struct {
	Level   string              `json:"level"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
	Time    time.Time           `json:"time"`
}

// ToNoticeResponse converts a domain Notice, nil stays nil
func ToNoticeResponse(n *domain.Notice) *NoticeResponse {
	if n == nil {
		return nil
	}
	return &NoticeResponse{
		Level:   string(n.Level),
		Message: n.Message,
		Fields:  n.Fields,
		Time:    n.Time,
	}
}

// SetFieldsRequest maps form field names to their new text
type SetFieldsRequest map[string]string

// PaginationRequest changes the list window. PageSize takes precedence and
// always returns to the first page.
type PaginationRequest struct {
	Page     *int `json:"page,omitempty"`
	PageSize *int `json:"page_size,omitempty"`
}

// ProductResponse represents a table row
type ProductResponse struct {
	ID          domain.ProductID `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Discount    decimal.Decimal  `json:"discount"`
	FinalPrice  decimal.Decimal  `json:"final_price"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Discount:    p.Discount,
		FinalPrice:  p.FinalPrice(),
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

// PageResponse represents one window of the product table
type PageResponse struct {
	Items           []*ProductResponse `json:"items"`
	Page            int                `json:"page"`
	PageSize        int                `json:"page_size"`
	PageCount       int                `json:"page_count"`
	Total           int                `json:"total"`
	PageSizeOptions []int              `json:"page_size_options"`
}

// SubmitResponse is returned after a successful create or update
type SubmitResponse struct {
	Product *ProductResponse `json:"product"`
	Form    *FormView        `json:"form"`
}
