// Package audit implements async event dispatching for account lifecycle operations.
//
// # Components
//
//   - [Sink]: interface for event consumers, generic over the event type.
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit. The Manager does that.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goAccount or any sibling internal package.
package audit
