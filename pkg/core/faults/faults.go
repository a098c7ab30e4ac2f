// Package faults defines the error kinds surfaced by the new-listings
// pipeline. Every stage fails eagerly with one of these types; the
// entrypoint classifies the propagated error with errors.As and exits.
package faults

import (
	"errors"
	"fmt"
)

// TransportError reports a failed HTTP exchange: the request never
// completed, or the server answered with a non-2xx status.
type TransportError struct {
	URL    string
	Status int // 0 when the request never reached the server
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request to %s returned status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigError reports an unreachable or malformed configuration
// document. Stage names the step or document path that failed, so a
// dead entry page is distinguishable from a broken JSON payload.
type ConfigError struct {
	Stage string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("configuration %s failed", e.Stage)
	}
	return fmt.Sprintf("configuration %s failed: %v", e.Stage, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NotFoundError reports an expected marker, control, or link that was
// absent from an otherwise well-formed document.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// DataError reports malformed payload data, such as an empty years
// list or a report list that is not valid JSON.
type DataError struct {
	Msg string
	Err error
}

func (e *DataError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// Kind returns a short label for the outermost known error type in
// err's chain, for structured logging.
func Kind(err error) string {
	var (
		transport *TransportError
		config    *ConfigError
		notFound  *NotFoundError
		data      *DataError
	)
	// Config and data errors wrap transport and not-found causes, so
	// they are checked first to label the chain by its outermost kind.
	switch {
	case errors.As(err, &config):
		return "config"
	case errors.As(err, &data):
		return "data"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &transport):
		return "transport"
	default:
		return "unknown"
	}
}
