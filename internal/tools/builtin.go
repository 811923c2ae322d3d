package tools

import (
	"log/slog"
	"time"

	"mcp-toolbox/internal/storage"
)

// Option configures the builtin tool set.
type Option func(*options)

type options struct {
	logger *slog.Logger
	probe  SystemProbe
	now    func() time.Time
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSystemProbe replaces the host probe used by system_info.
func WithSystemProbe(p SystemProbe) Option {
	return func(o *options) { o.probe = p }
}

// WithClock sets the time source used by echo.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Builtin returns a Registry holding the standard tools, in their listing order.
func Builtin(store *storage.Store, opts ...Option) (*Registry, error) {
	o := applyOptions(opts)
	r := NewRegistry()
	if err := registerCalculator(r); err != nil {
		return nil, err
	}
	if err := registerStorage(r, store); err != nil {
		return nil, err
	}
	if err := registerSystemInfo(r, o.probe); err != nil {
		return nil, err
	}
	if err := registerEcho(r, o.now); err != nil {
		return nil, err
	}
	return r, nil
}

// New builds the builtin registry over store and returns its Dispatcher.
func New(store *storage.Store, opts ...Option) (*Dispatcher, error) {
	r, err := Builtin(store, opts...)
	if err != nil {
		return nil, err
	}
	return NewDispatcher(r, applyOptions(opts).logger), nil
}

func applyOptions(opts []Option) options {
	o := options{
		probe: HostProbe(time.Now()),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
