//go:build !ios && !android && (amd64 || arm64)

// Package sckit captures screen content through the native ScreenCaptureKit
// bridge library without cgo.
//
// A Session owns the connection to the native runtime. From it, callers
// enumerate ShareableContent, build a ContentFilter and StreamConfiguration,
// and run a Stream whose frames arrive through a FrameHandler or a
// FrameQueue. Screenshots, recording outputs and the system content picker
// hang off the same Session.
//
// Every object returned by this package that wraps a native reference must
// be released exactly once with Release or Close. Values borrowed from a
// parent (a Display of a ShareableContent, the pixels of a Frame) stop
// working when the parent is released.
package sckit

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/sckit/bridge"
	"github.com/obinnaokechukwu/sckit/internal/bindings"
)

// Option configures Open.
type Option func(*options)

type options struct {
	rt         bridge.Runtime
	log        *zap.Logger
	cfg        *Config
	registerer prometheus.Registerer
}

// WithRuntime uses rt instead of loading the native library. Tests pass a
// bridgetest.Runtime here.
func WithRuntime(rt bridge.Runtime) Option {
	return func(o *options) { o.rt = rt }
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithConfig sets the session configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithRegisterer exports session metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// Session is a connection to the native runtime. It is safe for concurrent
// use.
type Session struct {
	id      uuid.UUID
	cfg     Config
	log     *zap.Logger
	rt      bridge.Runtime
	d       *bridge.Dispatcher
	metrics *Metrics

	pickerOnce sync.Once
	picker     *Picker

	mu     sync.Mutex
	closed bool
}

// Open creates a session. Without WithRuntime it loads the native bridge
// library, searching Config.LibraryDir first.
func Open(opts ...Option) (*Session, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := DefaultConfig()
	if o.cfg != nil {
		cfg = *o.cfg
		cfg.applyDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{id: uuid.New(), cfg: cfg}
	s.log = o.log
	if s.log == nil {
		s.log = Logger()
	}
	s.log = s.log.With(zap.String("session", s.id.String()))

	rt := o.rt
	if rt == nil {
		bindings.SetLogger(s.log.Named("bindings"))
		native, err := bindings.New(cfg.LibraryDir)
		if err != nil {
			return nil, err
		}
		rt = native
	}
	s.rt = rt

	var hooks bridge.Hooks
	if o.registerer != nil {
		s.metrics = NewMetrics(o.registerer, s.id.String())
		hooks = s.metrics
	}
	s.d = bridge.NewDispatcher(rt, s.log.Named("bridge"), hooks)

	s.log.Debug("session opened")
	return s, nil
}

// ID returns the session identity used in logs and metric labels.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Runtime returns the native runtime the session is bound to.
func (s *Session) Runtime() bridge.Runtime {
	return s.rt
}

// Metrics returns the session metrics, or nil without WithRegisterer.
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// PendingCompletions returns the number of native completions still
// outstanding, including ones whose waiter gave up.
func (s *Session) PendingCompletions() int {
	return s.d.PendingCompletions()
}

// PendingObservers returns the number of picker requests not yet resolved
// or cancelled.
func (s *Session) PendingObservers() int {
	return s.d.PendingObservers()
}

// Close marks the session closed. New operations fail with ErrClosed;
// objects already created keep working until released.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Debug("session closed", zap.Int("pending", s.d.PendingCompletions()))
	return nil
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// withTimeout applies the configured completion timeout when ctx has no
// deadline of its own.
func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.cfg.CompletionTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.CompletionTimeout)
}

// unit starts a native operation without a result value. call receives the
// completion ctx and must issue exactly one native call.
func (s *Session) unit(op string, kind bridge.ErrorKind, call func(ctx uintptr) error) *bridge.Pending[struct{}] {
	if err := s.checkOpen(); err != nil {
		return bridge.Failed[struct{}](op, err)
	}
	p, ctx := bridge.BeginUnit(s.d, op, kind)
	if err := call(ctx); err != nil {
		s.d.Abandon(ctx)
		return bridge.Failed[struct{}](op, err)
	}
	return p
}

// value starts a native operation producing an owned handle of kind k.
func value[T any](s *Session, op string, kind bridge.ErrorKind, k bridge.Kind,
	wrap func(*bridge.Ref) (T, error), call func(ctx uintptr) error) *bridge.Pending[T] {
	if err := s.checkOpen(); err != nil {
		return bridge.Failed[T](op, err)
	}
	p, ctx := bridge.BeginValue(s.d, op, kind, k, wrap)
	if err := call(ctx); err != nil {
		s.d.Abandon(ctx)
		return bridge.Failed[T](op, err)
	}
	return p
}

// await waits for p under the session timeout.
func await[T any](ctx context.Context, s *Session, p *bridge.Pending[T]) (T, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return p.Wait(ctx)
}
