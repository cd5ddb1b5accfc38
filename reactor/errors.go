package reactor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyRegistered is returned by AddTransport when the fd is
	// already present in the reactor's registry.
	ErrAlreadyRegistered = errors.New("reactor: transport already registered")
	// ErrReactorClosed is returned once the reactor has been closed.
	ErrReactorClosed = errors.New("reactor: closed")
	// ErrUnsupportedBackend is returned by every backend constructor on
	// non-unix platforms. On unix platforms a backend whose syscall is
	// missing has no constructor at all (NewKqueue is not built on Linux,
	// NewEPoll is not built on BSD/Darwin).
	ErrUnsupportedBackend = errors.New("reactor: backend unsupported on this platform")
)

// CleanupErrors aggregates the per-transport failures encountered while a
// Reactor closes. Close still attempts Cleanup on every registered
// transport even if earlier ones fail.
type CleanupErrors struct {
	Errors []error
}

func (e *CleanupErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("reactor: %d cleanup error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap enables errors.Is/errors.As against any of the aggregated causes.
func (e *CleanupErrors) Unwrap() []error { return e.Errors }
