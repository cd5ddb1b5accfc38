package reactor

import "github.com/joeycumines/logiface"

// Logger is the structured logger accepted by every constructor in this
// package. A nil Logger (the default) disables logging entirely.
type Logger = *logiface.Logger[logiface.Event]

type reactorOptions struct {
	logger Logger
}

// Option configures a Reactor backend at construction time.
type Option interface {
	apply(*reactorOptions)
}

type optionFunc func(*reactorOptions)

func (f optionFunc) apply(o *reactorOptions) { f(o) }

// WithLogger attaches a structured logger. Backend selection, interrupt
// handshakes, and swallowed EINTRs are logged at Debug.
func WithLogger(logger Logger) Option {
	return optionFunc(func(o *reactorOptions) { o.logger = logger })
}

func resolveOptions(opts []Option) *reactorOptions {
	o := &reactorOptions{}
	for _, opt := range opts {
		opt.apply(o)
	}
	return o
}

func (o *reactorOptions) debug(msg string, fields func(b *logiface.Builder[logiface.Event]) *logiface.Builder[logiface.Event]) {
	if o == nil || o.logger == nil {
		return
	}
	b := o.logger.Debug()
	if fields != nil {
		b = fields(b)
	}
	b.Log(msg)
}
