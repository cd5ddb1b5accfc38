//go:build unix

package transport

import "github.com/joeycumines/logiface"

// Logger is the structured logger type threaded through this package,
// mirroring the reactor package's convention: a nil *Logger disables
// logging entirely rather than panicking.
type Logger = *logiface.Logger[logiface.Event]

type socketOptions struct {
	logger  Logger
	handler Handler
}

// Option configures a SocketTransport at construction time. A Server is
// configured with ServerOption instead.
type Option interface{ apply(*socketOptions) }

type optionFunc func(*socketOptions)

func (f optionFunc) apply(o *socketOptions) { f(o) }

// WithLogger attaches a structured logger. Connect resolution, transport
// close, and swallowed EAGAIN/EINTR are logged at Debug; a nil logger
// disables logging.
func WithLogger(logger Logger) Option {
	return optionFunc(func(o *socketOptions) { o.logger = logger })
}

// WithHandler binds the Handler a transport dispatches lifecycle events to.
func WithHandler(h Handler) Option {
	return optionFunc(func(o *socketOptions) { o.handler = h })
}

func resolveOptions(opts []Option) *socketOptions {
	o := &socketOptions{}
	for _, opt := range opts {
		opt.apply(o)
	}
	return o
}

func (o *socketOptions) debug(msg string, fields func(b *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event]) {
	if o.logger == nil {
		return
	}
	b := o.logger.Debug()
	if fields != nil {
		b = fields(b)
	}
	b.Log(msg)
}
