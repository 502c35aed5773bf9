package scraper

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies scrape failures so they stay distinguishable after
// being reduced to a log line.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindSession means the browser session could not be created. Fatal.
	KindSession
	// KindNavigation covers page loads that failed or timed out.
	KindNavigation
	// KindParse covers markup that could not be parsed into a tree.
	KindParse
	// KindElement covers a single row, card or tab that was malformed.
	KindElement
	// KindTimeout covers explicit waits for an element that never showed.
	KindTimeout
	// KindOutput covers failures writing an artifact.
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindNavigation:
		return "navigation"
	case KindParse:
		return "parse"
	case KindElement:
		return "element"
	case KindTimeout:
		return "timeout"
	case KindOutput:
		return "output"
	}
	return "unknown"
}

// Error wraps a failure with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err as an *Error of the given kind. Nil stays nil.
func Wrap(kind Kind, op, url string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, URL: url, Err: err}
}

// KindOf reports the Kind of err. Context deadline errors that were not
// wrapped count as timeouts.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// IsFatal reports whether the run cannot continue after err.
func IsFatal(err error) bool {
	return KindOf(err) == KindSession
}
