// Package bus carries single-field mutation notifications between the
// independently rendered invoice views of one process. Delivery is
// synchronous, in subscription order, and fire-and-forget: the publisher
// never waits on an acknowledgement and no event is persisted.
package bus

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// FieldCollected is the only invoice field mutated through the bus today.
const FieldCollected = "collected"

// InvoiceSnapshot carries the partial record state alongside a mutation so
// subscribers that keep denormalized copies can refresh adjacent fields.
type InvoiceSnapshot struct {
	WorkshopID int64
	Amount     float64
	Concept    string
	ClientID   string
}

// InvoiceMutation describes one single-field change to one invoice record.
type InvoiceMutation struct {
	EventID   string
	InvoiceID string
	Field     string
	Collected bool
	Snapshot  InvoiceSnapshot
}

// NewCollectedMutation builds the event for a collected-status flip.
func NewCollectedMutation(invoiceID string, collected bool, snap InvoiceSnapshot) InvoiceMutation {
	return InvoiceMutation{
		EventID:   uuid.NewString(),
		InvoiceID: invoiceID,
		Field:     FieldCollected,
		Collected: collected,
		Snapshot:  snap,
	}
}

// Handler consumes a mutation event. Handlers must not block; they run on the
// publisher's goroutine.
type Handler func(InvoiceMutation)

// Subscription is the disposable handle returned by Subscribe. Unsubscribe
// detaches the handler; it is safe to call more than once.
type Subscription struct {
	bus *Bus
	id  uint64
}

// Unsubscribe removes the handler from the bus.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.id)
	s.bus = nil
}

type entry struct {
	id      uint64
	handler Handler
}

// Bus is the process-wide mutation broadcast channel. The zero value is not
// usable; construct with New.
type Bus struct {
	logger    *slog.Logger
	onDeliver func()

	mu      sync.Mutex
	nextID  uint64
	entries []entry
}

// New constructs a bus. The logger records recovered handler panics; nil
// falls back to the default logger.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// WithDeliveryCounter installs a hook invoked once per handler delivery,
// used to feed the observability counters.
func (b *Bus) WithDeliveryCounter(fn func()) *Bus {
	b.onDeliver = fn
	return b
}

// Subscribe attaches a handler and returns its disposable handle. Callers
// must tie Unsubscribe to the owning view's teardown so handlers never
// outlive the view they update.
func (b *Bus) Subscribe(handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.entries = append(b.entries, entry{id: b.nextID, handler: handler})
	return &Subscription{bus: b, id: b.nextID}
}

// Publish delivers the event to every current subscriber, in subscription
// order, on the calling goroutine. A panicking handler is recovered and
// logged so it cannot take down the bus or starve later subscribers. There
// is no ordering guarantee across independently published events; each
// subscriber observes last-write-wins.
func (b *Bus) Publish(ev InvoiceMutation) {
	b.mu.Lock()
	handlers := make([]entry, len(b.entries))
	copy(handlers, b.entries)
	b.mu.Unlock()

	for _, e := range handlers {
		b.deliver(e, ev)
	}
}

func (b *Bus) deliver(e entry, ev InvoiceMutation) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("mutation handler panic",
				slog.Any("panic", r),
				slog.String("event_id", ev.EventID),
				slog.String("invoice_id", ev.InvoiceID))
		}
	}()
	if b.onDeliver != nil {
		b.onDeliver()
	}
	e.handler(ev)
}

// Subscribers reports the number of attached handlers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}
