package recordcache

// Event names passed to the events callback. The callback is advisory
// instrumentation only and never affects control flow.
const (
	EventHit        = "hit"
	EventMiss       = "miss"
	EventStore      = "store"
	EventInvalidate = "invalidate"
)

// EventFunc receives instrumentation events with the schema they concern.
// The callback runs inline on the calling goroutine; keep it cheap.
type EventFunc func(event string, schema *Schema)

// emit reports an event to the configured callback, if any.
func (l *Layer) emit(event string, schema *Schema) {
	if l.events != nil {
		l.events(event, schema)
	}
}
