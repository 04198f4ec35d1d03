package billing

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvoiceNotFound indicates the invoice does not exist in the store.
var ErrInvoiceNotFound = errors.New("billing: invoice not found")

// MutationError wraps a failed write to the invoice store. No broadcast is
// published when the write fails; the caller rolls back any optimistic state.
type MutationError struct {
	InvoiceID string
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("billing: mutate invoice %s: %v", e.InvoiceID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Invoice is one billed repair order. Instances held by views are mutated in
// place only through the broadcast protocol, never by a silent re-fetch
// racing a pending mutation.
type Invoice struct {
	ID         string    `json:"id"`
	WorkshopID int64     `json:"workshop_id"`
	Number     string    `json:"number"`
	Amount     float64   `json:"amount"`
	IssueDate  time.Time `json:"issue_date"`
	Collected  bool      `json:"collected"`
	Concept    string    `json:"concept"`
	ClientID   string    `json:"client_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateInvoiceInput carries the validated fields for a new invoice.
type CreateInvoiceInput struct {
	WorkshopID int64     `validate:"required"`
	Amount     float64   `validate:"gt=0"`
	IssueDate  time.Time `validate:"required"`
	Concept    string    `validate:"required"`
	ClientID   string    `validate:"required"`
}

// ListInvoicesRequest scopes an invoice listing. Page and PerPage apply only
// to the paged HTTP listing; view hydration fetches the full collection.
type ListInvoicesRequest struct {
	WorkshopID int64
	Collected  *bool
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}
