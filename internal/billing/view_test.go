package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallerix/tallerix/internal/bus"
)

func TestThreeViewsReconcileFromOneBroadcast(t *testing.T) {
	fixture := []Invoice{
		{ID: "F1", WorkshopID: 1, Amount: 120, IssueDate: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "F2", WorkshopID: 1, Amount: 80, IssueDate: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), Collected: true},
	}
	repo := newMemoryInvoiceRepo(fixture...)
	b := bus.New(nil)
	svc := NewService(repo, b, nil).WithClock(testClock)

	listing := NewView(testClock)
	stats := NewView(testClock)
	cards := NewView(testClock)
	views := []*View{listing, stats, cards}

	for _, v := range views {
		v.Mount(b)
		invoices, err := svc.ListInvoices(context.Background(), ListInvoicesRequest{WorkshopID: 1})
		require.NoError(t, err)
		v.Hydrate(invoices)
	}
	listsBefore := repo.listCalls
	getsBefore := repo.getCalls

	before := listing.Summary()
	require.Equal(t, 1, before.CollectedCount)
	require.InDelta(t, 80.0, before.CollectedTotal, 1e-9)

	collected, err := svc.SetCollected(context.Background(), "F1", true)
	require.NoError(t, err)
	require.True(t, collected)

	for _, v := range views {
		inv, ok := v.Invoice("F1")
		require.True(t, ok)
		require.True(t, inv.Collected, "every mounted view reconciled the record")

		after := v.Summary()
		require.Equal(t, before.CollectedCount+1, after.CollectedCount)
		require.InDelta(t, before.CollectedTotal+120, after.CollectedTotal, 1e-9)
	}

	// The mutation itself reads the record once; the views stay current
	// without any further store round trip.
	require.Equal(t, listsBefore, repo.listCalls, "no view re-fetched its collection")
	require.Equal(t, getsBefore+1, repo.getCalls)
}

func TestViewIgnoresUnknownInvoiceEvent(t *testing.T) {
	v := NewView(testClock)
	v.Mount(bus.New(nil))
	v.Hydrate([]Invoice{{ID: "F1", Amount: 50, IssueDate: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)}})

	v.apply(bus.NewCollectedMutation("ghost", true, bus.InvoiceSnapshot{}))

	require.Equal(t, 0, v.Summary().CollectedCount)
	inv, ok := v.Invoice("F1")
	require.True(t, ok)
	require.False(t, inv.Collected)
}

func TestUnmountedViewDiscardsDeliveries(t *testing.T) {
	b := bus.New(nil)
	v := NewView(testClock)
	v.Mount(b)
	v.Hydrate([]Invoice{{ID: "F1", Amount: 50, IssueDate: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)}})
	v.Unmount()

	b.Publish(bus.NewCollectedMutation("F1", true, bus.InvoiceSnapshot{Amount: 50}))

	inv, ok := v.Invoice("F1")
	require.True(t, ok)
	require.False(t, inv.Collected, "stale view keeps its hydrated state")
	require.Zero(t, b.Subscribers())
}

func TestUnmountedViewDiscardsLateHydration(t *testing.T) {
	v := NewView(testClock)
	v.Mount(bus.New(nil))
	v.Unmount()

	// A fetch that was in flight when the view unmounted resolves now.
	v.Hydrate([]Invoice{{ID: "F1", Amount: 50}})

	require.Empty(t, v.Invoices())
}

func TestViewDoubleMountIsIdempotent(t *testing.T) {
	b := bus.New(nil)
	v := NewView(testClock)
	v.Mount(b)
	v.Mount(b)
	require.Equal(t, 1, b.Subscribers())

	v.Unmount()
	require.Zero(t, b.Subscribers())
}
