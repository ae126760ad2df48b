package types

// LifecycleEvent names a point in a record's persistence lifecycle.
type LifecycleEvent string

// Lifecycle events a host may publish.
const (
	EventBeforeValidate LifecycleEvent = "before:validate"
	EventBeforeInsert   LifecycleEvent = "before:insert"
	EventBeforeUpdate   LifecycleEvent = "before:update"
	EventAfterInsert    LifecycleEvent = "after:insert"
	EventAfterUpdate    LifecycleEvent = "after:update"
	EventAfterDelete    LifecycleEvent = "after:delete"
)

// Event is delivered to lifecycle handlers.
type Event struct {
	Name   LifecycleEvent
	Record Record

	// ChangedAttributes maps each attribute modified by the save to its
	// value before the save. Only set for after-insert and after-update.
	ChangedAttributes map[string]any
}

// Changed reports whether attribute was modified by the save and returns
// its previous value.
func (e *Event) Changed(attribute string) (old any, ok bool) {
	if e == nil || e.ChangedAttributes == nil {
		return nil, false
	}
	old, ok = e.ChangedAttributes[attribute]
	return old, ok
}

// EventHandler handles a lifecycle event. A non-nil error returned from a
// before-* handler aborts the operation.
type EventHandler func(e *Event) error

// LifecycleNotifier is implemented by hosts that let services subscribe to
// lifecycle events. Hosts without it get no automatic hooks; services are
// then driven manually.
type LifecycleNotifier interface {
	On(event LifecycleEvent, handler EventHandler)
}
