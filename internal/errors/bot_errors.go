package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
)

// ErrorCategory groups failures by how the bot reacts to them
type ErrorCategory string

const (
	// Abort startup
	ErrorCategoryCredentials   ErrorCategory = "CREDENTIALS"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"

	// Skip the current cycle or token
	ErrorCategoryNetwork     ErrorCategory = "NETWORK"
	ErrorCategoryTimeout     ErrorCategory = "TIMEOUT"
	ErrorCategoryRateLimit   ErrorCategory = "RATE_LIMIT"
	ErrorCategoryUpstream    ErrorCategory = "UPSTREAM"
	ErrorCategoryInvariant   ErrorCategory = "INVARIANT"
	ErrorCategoryPersistence ErrorCategory = "PERSISTENCE"
)

// Position book violations. They are rejected without a state change and
// never abort a loop.
var (
	ErrPositionExists   = stderrors.New("position already open")
	ErrMaxPositions     = stderrors.New("maximum simultaneous positions reached")
	ErrPositionNotFound = stderrors.New("position not found")
	ErrSwapFailed       = stderrors.New("swap returned no fill")
)

// BotError is a failure tagged with where it happened and how to treat it
type BotError struct {
	Category  ErrorCategory
	Component string
	Operation string
	Message   string
	Err       error
	Retryable bool
}

func (e *BotError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] %s", e.Category, e.Component, e.Operation)
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *BotError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error should stop the process at startup
func (e *BotError) IsFatal() bool {
	return e.Category == ErrorCategoryCredentials || e.Category == ErrorCategoryConfiguration
}

func newError(category ErrorCategory, component, operation, message string, err error) *BotError {
	return &BotError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Err:       err,
		Retryable: category == ErrorCategoryNetwork || category == ErrorCategoryTimeout || category == ErrorCategoryRateLimit,
	}
}

// Wrap tags err with a category. A nil err stays nil.
func Wrap(err error, category ErrorCategory, component, operation string) *BotError {
	if err == nil {
		return nil
	}
	return newError(category, component, operation, "", err)
}

func NewPersistenceError(component, operation string, err error) *BotError {
	return Wrap(err, ErrorCategoryPersistence, component, operation)
}

func NewConfigurationError(component, operation, message string) *BotError {
	return newError(ErrorCategoryConfiguration, component, operation, message, nil)
}

func NewCredentialsError(component, operation, message string) *BotError {
	return newError(ErrorCategoryCredentials, component, operation, message, nil)
}

// CategorizeError returns the BotError already in err's chain, or guesses a
// category from the sentinel or the message text.
func CategorizeError(err error, component, operation string) *BotError {
	if err == nil {
		return nil
	}

	var botErr *BotError
	if stderrors.As(err, &botErr) {
		return botErr
	}

	switch {
	case stderrors.Is(err, ErrPositionExists), stderrors.Is(err, ErrMaxPositions), stderrors.Is(err, ErrPositionNotFound):
		return Wrap(err, ErrorCategoryInvariant, component, operation)
	case stderrors.Is(err, ErrSwapFailed):
		return Wrap(err, ErrorCategoryUpstream, component, operation)
	case stderrors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrorCategoryTimeout, component, operation)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return Wrap(err, ErrorCategoryTimeout, component, operation)
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return Wrap(err, ErrorCategoryRateLimit, component, operation)
	case strings.Contains(msg, "connection"), strings.Contains(msg, "dial"), strings.Contains(msg, "dns"),
		strings.Contains(msg, "circuit breaker"):
		return Wrap(err, ErrorCategoryNetwork, component, operation)
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "forbidden"):
		return Wrap(err, ErrorCategoryCredentials, component, operation)
	}
	return Wrap(err, ErrorCategoryUpstream, component, operation)
}

// Tally counts errors per category and keeps the latest message of each
type Tally struct {
	mu     sync.Mutex
	counts map[ErrorCategory]int
	last   map[ErrorCategory]string
}

func NewTally() *Tally {
	return &Tally{
		counts: make(map[ErrorCategory]int),
		last:   make(map[ErrorCategory]string),
	}
}

// Record adds err to the tally; nil is ignored
func (t *Tally) Record(err *BotError) {
	if err == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[err.Category]++
	t.last[err.Category] = err.Error()
}

// Counts returns a copy of the per-category totals
func (t *Tally) Counts() map[ErrorCategory]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[ErrorCategory]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// Last returns the most recent message recorded for category
func (t *Tally) Last(category ErrorCategory) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last[category]
}

func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, v := range t.counts {
		n += v
	}
	return n
}
