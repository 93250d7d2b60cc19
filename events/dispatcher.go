package events

import (
	"sync"

	"github.com/dineboard/table-order-app/utils"
)

// Event names
const (
	EventSessionOpened = "session_opened"
	EventSessionClosed = "session_closed"
	EventOrderPlaced   = "order_placed"
	EventOrdersMerged  = "orders_merged"
	EventOrderSplit    = "order_split"
	EventOrderUpdated  = "order_updated"
	EventTableReleased = "table_released"
	EventMenuChanged   = "menu_changed"
)

type Event struct {
	Name    string
	Payload interface{}
}

type Handler func(Event)

// Dispatcher is an in-process pub/sub. Delivery is fire-and-forget after a
// successful write and at-least-once: handlers must be idempotent.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Dispatch delivers each event to its subscribers on separate goroutines.
// A panicking handler is logged and never fails the caller.
func (d *Dispatcher) Dispatch(evts ...Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, evt := range evts {
		for _, h := range d.handlers[evt.Name] {
			go deliver(h, evt)
		}
	}
}

func deliver(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil && utils.ErrorLogger != nil {
			utils.ErrorLogger.Printf("event handler panic on %s: %v", evt.Name, r)
		}
	}()
	h(evt)
}

// Recorder collects the events of one unit of work so they can be dispatched
// only after the writes commit.
type Recorder struct {
	pending []Event
}

func (r *Recorder) Record(name string, payload interface{}) {
	r.pending = append(r.pending, Event{Name: name, Payload: payload})
}

// Flush hands the collected events to the dispatcher and resets the recorder.
func (r *Recorder) Flush(d *Dispatcher) {
	if d == nil || len(r.pending) == 0 {
		r.pending = nil
		return
	}
	d.Dispatch(r.pending...)
	r.pending = nil
}
