package core

import "time"

// Event is a structured lifecycle notification emitted by the pipeline.
// Events are purely observational and never affect control flow.
// SessionId correlates all events from one engine instance, OperationId
// from one ingest/retrieve/rerank/delete call, and SpanId from one unit
// of work inside an operation (a single asset or embedding batch).
type Event struct {
	Name        string
	SessionId   string
	OperationId string
	SpanId      string
	Time        time.Time
	Fields      map[string]any
}

// EventSink receives pipeline lifecycle events. Implementations are called
// synchronously from pipeline goroutines and must be safe for concurrent
// use. A panicking sink never aborts the pipeline; see Emit.
type EventSink interface {
	OnEvent(event Event)
}

// EventScope carries the correlation ids shared by every event of one
// operation.
type EventScope struct {
	SessionId   string
	OperationId string
}

// NewEvent builds an event carrying this scope's correlation ids.
func (s EventScope) NewEvent(name, spanId string, fields map[string]any) Event {
	return Event{
		Name:        name,
		SessionId:   s.SessionId,
		OperationId: s.OperationId,
		SpanId:      spanId,
		Fields:      fields,
	}
}

// Emit delivers an event to the sink, tolerating a nil sink and
// recovering from a panicking one.
func Emit(sink EventSink, event Event) {
	if sink == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	sink.OnEvent(event)
}
