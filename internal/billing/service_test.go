package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallerix/tallerix/internal/bus"
)

type memoryInvoiceRepo struct {
	invoices  map[string]*Invoice
	updateErr error
	listCalls int
	getCalls  int
}

func newMemoryInvoiceRepo(invoices ...Invoice) *memoryInvoiceRepo {
	repo := &memoryInvoiceRepo{invoices: make(map[string]*Invoice)}
	for i := range invoices {
		inv := invoices[i]
		repo.invoices[inv.ID] = &inv
	}
	return repo
}

func (r *memoryInvoiceRepo) CreateInvoice(ctx context.Context, inv Invoice) error {
	r.invoices[inv.ID] = &inv
	return nil
}

func (r *memoryInvoiceRepo) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	r.getCalls++
	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *memoryInvoiceRepo) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	r.listCalls++
	var out []Invoice
	for _, inv := range r.invoices {
		if req.WorkshopID != 0 && inv.WorkshopID != req.WorkshopID {
			continue
		}
		if req.Collected != nil && inv.Collected != *req.Collected {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (r *memoryInvoiceRepo) CountInvoices(ctx context.Context, req ListInvoicesRequest) (int, error) {
	invoices, err := r.ListInvoices(ctx, req)
	return len(invoices), err
}

func (r *memoryInvoiceRepo) SetCollected(ctx context.Context, id string, collected bool, updatedAt time.Time) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	inv, ok := r.invoices[id]
	if !ok {
		return ErrInvoiceNotFound
	}
	inv.Collected = collected
	inv.UpdatedAt = updatedAt
	return nil
}

func testClock() time.Time {
	return time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)
}

func TestCreateInvoice(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := NewService(repo, nil, nil).WithClock(testClock)

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		WorkshopID: 1,
		Amount:     120,
		IssueDate:  time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		Concept:    "Bodywork repair",
		ClientID:   "C-9",
	})
	require.NoError(t, err)
	require.NotEmpty(t, inv.ID)
	require.Contains(t, inv.Number, "FA-202505-")
	require.False(t, inv.Collected)
	require.Equal(t, testClock(), inv.CreatedAt)
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), nil, nil)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{Amount: 100, ClientID: "C-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "workshop ID required")

	_, err = svc.CreateInvoice(context.Background(), CreateInvoiceInput{WorkshopID: 1, ClientID: "C-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "amount must be positive")

	_, err = svc.CreateInvoice(context.Background(), CreateInvoiceInput{WorkshopID: 1, Amount: 100})
	require.Error(t, err)
	require.Contains(t, err.Error(), "client ID required")
}

func TestSetCollectedPublishesAfterSuccessfulWrite(t *testing.T) {
	repo := newMemoryInvoiceRepo(Invoice{
		ID: "F1", WorkshopID: 1, Amount: 120,
		IssueDate: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	b := bus.New(nil)
	svc := NewService(repo, b, nil).WithClock(testClock)

	var events []bus.InvoiceMutation
	b.Subscribe(func(ev bus.InvoiceMutation) { events = append(events, ev) })

	collected, err := svc.SetCollected(context.Background(), "F1", true)
	require.NoError(t, err)
	require.True(t, collected, "new value is echoed back")

	require.Len(t, events, 1)
	require.Equal(t, "F1", events[0].InvoiceID)
	require.True(t, events[0].Collected)
	require.InDelta(t, 120.0, events[0].Snapshot.Amount, 1e-9)

	stored, err := repo.GetInvoice(context.Background(), "F1")
	require.NoError(t, err)
	require.True(t, stored.Collected)
}

func TestSetCollectedFailedWritePublishesNothing(t *testing.T) {
	repo := newMemoryInvoiceRepo(Invoice{ID: "F1", WorkshopID: 1, Amount: 120})
	repo.updateErr = errors.New("store down")
	b := bus.New(nil)
	svc := NewService(repo, b, nil).WithClock(testClock)

	published := 0
	b.Subscribe(func(bus.InvoiceMutation) { published++ })

	_, err := svc.SetCollected(context.Background(), "F1", true)
	require.Error(t, err)
	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)
	require.Equal(t, "F1", mutErr.InvoiceID)
	require.Zero(t, published, "no broadcast on failure")
}

func TestSetCollectedUnknownInvoice(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), bus.New(nil), nil).WithClock(testClock)

	_, err := svc.SetCollected(context.Background(), "missing", true)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestCurrentPeriodSummary(t *testing.T) {
	repo := newMemoryInvoiceRepo(
		Invoice{ID: "F1", WorkshopID: 1, Amount: 120, IssueDate: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), Collected: true},
		Invoice{ID: "F2", WorkshopID: 1, Amount: 300, IssueDate: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), Collected: true},
		Invoice{ID: "F3", WorkshopID: 2, Amount: 999, IssueDate: time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC), Collected: true},
	)
	svc := NewService(repo, nil, nil).WithClock(testClock)

	summary, err := svc.CurrentPeriodSummary(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Count, "april and other workshops excluded")
	require.InDelta(t, 120.0, summary.CollectedTotal, 1e-9)
}

func TestListInvoicesPageMetadata(t *testing.T) {
	repo := newMemoryInvoiceRepo(
		Invoice{ID: "F1", WorkshopID: 1, Amount: 10},
		Invoice{ID: "F2", WorkshopID: 1, Amount: 20},
		Invoice{ID: "F3", WorkshopID: 1, Amount: 30},
	)
	svc := NewService(repo, nil, nil)

	_, pagination, err := svc.ListInvoicesPage(context.Background(), ListInvoicesRequest{
		WorkshopID: 1, Page: 2, PerPage: 2,
	})
	require.NoError(t, err)
	require.Equal(t, 3, pagination.Total)
	require.Equal(t, 2, pagination.TotalPages)
	require.Equal(t, 2, pagination.Page)
}

type bumpRecorder struct {
	bumps int
}

func (b *bumpRecorder) Bump(ctx context.Context) error {
	b.bumps++
	return nil
}

func TestSetCollectedBumpsKpiCache(t *testing.T) {
	repo := newMemoryInvoiceRepo(Invoice{ID: "F1", WorkshopID: 1, Amount: 120})
	recorder := &bumpRecorder{}
	svc := NewService(repo, bus.New(nil), recorder).WithClock(testClock)

	_, err := svc.SetCollected(context.Background(), "F1", true)
	require.NoError(t, err)
	require.Equal(t, 1, recorder.bumps)
}
