package billing

import (
	"sync"
	"time"

	"github.com/tallerix/tallerix/internal/bus"
)

// View is one independently rendered invoice view (listing, statistics panel,
// summary cards) holding its own local copy of the collection. Views stay
// consistent after a partial mutation by reconciling broadcast events against
// the local copy instead of re-fetching.
type View struct {
	clock func() time.Time

	mu       sync.Mutex
	mounted  bool
	invoices []Invoice
	summary  PeriodSummary
	sub      *bus.Subscription
}

// NewView constructs an unmounted view. A nil clock defaults to time.Now.
func NewView(clock func() time.Time) *View {
	if clock == nil {
		clock = time.Now
	}
	return &View{clock: clock}
}

// Mount subscribes the view to the broadcast bus. The returned view discards
// any event or fetch result that arrives after Unmount.
func (v *View) Mount(b *bus.Bus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mounted {
		return
	}
	v.mounted = true
	if b != nil {
		v.sub = b.Subscribe(v.apply)
	}
}

// Unmount detaches the view from the bus and marks it stale.
func (v *View) Unmount() {
	v.mu.Lock()
	sub := v.sub
	v.sub = nil
	v.mounted = false
	v.mu.Unlock()
	sub.Unsubscribe()
}

// Hydrate replaces the local collection with a freshly fetched snapshot and
// recomputes the period summary. Results resolving after the view unmounted
// are discarded rather than applied.
func (v *View) Hydrate(invoices []Invoice) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}
	v.invoices = make([]Invoice, len(invoices))
	copy(v.invoices, invoices)
	v.recompute()
}

// Invoices returns a copy of the local collection.
func (v *View) Invoices() []Invoice {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Invoice, len(v.invoices))
	copy(out, v.invoices)
	return out
}

// Invoice returns the local copy of one record.
func (v *View) Invoice(id string) (Invoice, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, inv := range v.invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return Invoice{}, false
}

// Summary returns the last computed billing period summary.
func (v *View) Summary() PeriodSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.summary
}

// apply reconciles one broadcast event: locate the record, replace the
// mutated field in place, and recompute the derived summary from the whole
// local collection. Cross-record values (totals, percentages) depend on the
// full set, so patching only the changed record's contribution would drift.
// Events for records not loaded locally are ignored; the view converges on
// its own next full fetch.
func (v *View) apply(ev bus.InvoiceMutation) {
	if ev.Field != bus.FieldCollected {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}
	for i := range v.invoices {
		if v.invoices[i].ID != ev.InvoiceID {
			continue
		}
		v.invoices[i].Collected = ev.Collected
		v.recompute()
		return
	}
}

// recompute rebuilds the current-period summary. Caller holds the lock.
func (v *View) recompute() {
	start, end := CurrentPeriod(v.clock())
	v.summary = Summarize(v.invoices, start, end)
}
