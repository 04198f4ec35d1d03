package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tallerix/tallerix/internal/bus"
	"github.com/tallerix/tallerix/internal/platform/httpx"
)

// RepositoryPort defines the data access the billing service relies on.
type RepositoryPort interface {
	CreateInvoice(ctx context.Context, inv Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	CountInvoices(ctx context.Context, req ListInvoicesRequest) (int, error)
	SetCollected(ctx context.Context, id string, collected bool, updatedAt time.Time) error
}

// CacheInvalidator lets a mutation advance the KPI cache generation so other
// processes drop aggregates derived from the old record state.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service handles invoice reads and the collected-status mutation.
type Service struct {
	repo  RepositoryPort
	bus   *bus.Bus
	cache CacheInvalidator
	clock func() time.Time
}

// NewService wires a repository with the broadcast bus. cache may be nil.
func NewService(repo RepositoryPort, b *bus.Bus, cache CacheInvalidator) *Service {
	return &Service{
		repo:  repo,
		bus:   b,
		cache: cache,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// CreateInvoice validates, persists, and returns a new invoice.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if input.WorkshopID == 0 {
		return nil, fmt.Errorf("billing: workshop ID required")
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("billing: amount must be positive")
	}
	if input.ClientID == "" {
		return nil, fmt.Errorf("billing: client ID required")
	}
	now := s.clock()
	inv := Invoice{
		ID:         uuid.NewString(),
		WorkshopID: input.WorkshopID,
		Number:     invoiceNumber(input.IssueDate, uuid.NewString()),
		Amount:     input.Amount,
		IssueDate:  input.IssueDate,
		Concept:    input.Concept,
		ClientID:   input.ClientID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvoices returns the invoices matching the request, for view hydration.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, req)
}

// ListInvoicesPage returns one page of invoices plus pagination metadata.
func (s *Service) ListInvoicesPage(ctx context.Context, req ListInvoicesRequest) ([]Invoice, httpx.Pagination, error) {
	if req.PerPage <= 0 {
		req.PerPage = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	total, err := s.repo.CountInvoices(ctx, req)
	if err != nil {
		return nil, httpx.Pagination{}, err
	}
	invoices, err := s.repo.ListInvoices(ctx, req)
	if err != nil {
		return nil, httpx.Pagination{}, err
	}
	return invoices, httpx.NewPagination(req.Page, req.PerPage, total), nil
}

// GetInvoice returns one invoice.
func (s *Service) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// SetCollected writes the collected flag through to the store, then
// broadcasts the mutation so every mounted view reconciles its local copy
// without another read. On a failed write nothing is published and the error
// is returned for the caller to roll back its optimistic state. The new
// value is echoed back on success.
func (s *Service) SetCollected(ctx context.Context, id string, collected bool) (bool, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return false, &MutationError{InvoiceID: id, Err: err}
	}
	if inv == nil {
		return false, &MutationError{InvoiceID: id, Err: ErrInvoiceNotFound}
	}
	if err := s.repo.SetCollected(ctx, id, collected, s.clock()); err != nil {
		return false, &MutationError{InvoiceID: id, Err: err}
	}
	if s.bus != nil {
		s.bus.Publish(bus.NewCollectedMutation(id, collected, bus.InvoiceSnapshot{
			WorkshopID: inv.WorkshopID,
			Amount:     inv.Amount,
			Concept:    inv.Concept,
			ClientID:   inv.ClientID,
		}))
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			// Stale cross-process caches expire on TTL; the local views are
			// already reconciled, so the mutation itself still succeeded.
			return collected, nil
		}
	}
	return collected, nil
}

// CurrentPeriodSummary fetches the workshop's invoices and summarizes the
// calendar month containing now. Used for the summary cards' first render;
// afterwards the mounted views keep the figure current via the bus.
func (s *Service) CurrentPeriodSummary(ctx context.Context, workshopID int64) (PeriodSummary, error) {
	invoices, err := s.repo.ListInvoices(ctx, ListInvoicesRequest{WorkshopID: workshopID})
	if err != nil {
		return PeriodSummary{}, err
	}
	start, end := CurrentPeriod(s.clock())
	return Summarize(invoices, start, end), nil
}

func invoiceNumber(issueDate time.Time, seed string) string {
	if len(seed) > 8 {
		seed = seed[:8]
	}
	return fmt.Sprintf("FA-%s-%s", issueDate.Format("200601"), seed)
}
