package leptons

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ConfigurationError is raised while building the analysis, before any
// event is read. It always aborts the run.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s=%q: %s", e.Field, e.Value, e.Reason)
}

// MissingAttributeError represents a required column absent from an event.
type MissingAttributeError struct {
	Collection string
	Attribute  string
}

func (e *MissingAttributeError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("missing column %q", e.Attribute)
	}
	return fmt.Sprintf("missing column %q", e.Collection+"_"+e.Attribute)
}

// EventError ties a processing failure to the event and collection that
// produced it.
type EventError struct {
	EventID    uint64
	Collection string
	Err        error
}

func (e *EventError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("event %d: %v", e.EventID, e.Err)
	}
	return fmt.Sprintf("event %d, collection %s: %v", e.EventID, e.Collection, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }
