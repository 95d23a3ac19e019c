// File: environment.go
package switchboard

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-metrics"
)

// Dependency pairs a component with the identifier it is registered under.
type Dependency struct {
	ID        Id
	Component Component
}

type dependency struct {
	id        Id
	pid       Pid
	component Component
}

// Environment owns a main component and its dependencies and moves messages
// between them. It polls every component for finished background work with
// async-check messages and answers request-dependency lookups itself.
//
// An Environment is single-threaded: Start runs the loop on the calling
// goroutine and never calls two components concurrently.
type Environment[M Component] struct {
	main     M
	registry Dependencies
	deps     []dependency
	byPid    map[Pid]int

	mailbox *mailbox
	tracker *asyncTracker

	cfg     *config
	logger  *slog.Logger
	metrics *metrics.Metrics
	started bool
}

var _ Component = (*Environment[Component])(nil)

// New builds an Environment. Dependencies get addresses from
// FirstDependencyPid upwards, in the order given.
func New[M Component](main M, deps []Dependency, opts ...Option) (*Environment[M], error) {
	if any(main) == nil {
		return nil, fmt.Errorf("%w: main", ErrNilComponent)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	m, err := newMetrics(cfg.metricSink)
	if err != nil {
		return nil, fmt.Errorf("switchboard: metrics: %w", err)
	}

	e := &Environment[M]{
		main:     main,
		registry: make(Dependencies, len(deps)),
		deps:     make([]dependency, 0, len(deps)),
		byPid:    make(map[Pid]int, len(deps)),
		mailbox:  newMailbox(),
		cfg:      cfg,
		logger:   cfg.logger,
		metrics:  m,
	}

	tracked := []Pid{PidEnvironment, PidMain}
	for i, dep := range deps {
		if dep.Component == nil {
			return nil, fmt.Errorf("%w: dependency %q", ErrNilComponent, dep.ID)
		}
		pid := DependencyPid(i)
		if prev, ok := e.registry[dep.ID]; ok {
			e.logger.Warn("dependency identifier registered twice, keeping the latest",
				LabelDependency.L(string(dep.ID)),
				slog.String("previous", prev.String()),
				LabelPid.L(pid.String()),
			)
		}
		e.registry[dep.ID] = pid
		e.byPid[pid] = len(e.deps)
		e.deps = append(e.deps, dependency{id: dep.ID, pid: pid, component: dep.Component})
		tracked = append(tracked, pid)
	}
	e.tracker = newAsyncTracker(cfg.pollInterval, tracked...)

	return e, nil
}

// Run builds an Environment and starts it. See Start.
func Run[M Component](main M, deps []Dependency, opts ...Option) (M, error) {
	e, err := New(main, deps, opts...)
	if err != nil {
		return main, err
	}
	return e.Start()
}

// Start runs the Environment until a component fails. It returns the final
// state of the main component together with a *FatalError wrapping the
// cause. Start blocks the calling goroutine and may only be called once.
func (e *Environment[M]) Start() (M, error) {
	if e.started {
		return e.main, ErrAlreadyStarted
	}
	e.started = true

	if err := e.initAll(); err != nil {
		return e.fail(err)
	}

	for {
		if polls := e.tracker.tick(e.cfg.now()); len(polls) > 0 {
			e.metrics.IncrCounterWithLabels(MetricAsyncCheckSent, float32(len(polls)), e.cfg.metricLabels)
			e.mailbox.push(polls...)
			e.reportDepth()
		}

		msg, ok := e.mailbox.pop()
		if !ok {
			e.metrics.IncrCounterWithLabels(MetricIdleSleep, 1, e.cfg.metricLabels)
			e.cfg.sleep(e.cfg.pollInterval)
			continue
		}
		e.reportDepth()

		if err := e.deliver(msg); err != nil {
			return e.fail(err)
		}
	}
}

func (e *Environment[M]) fail(err error) (M, error) {
	e.metrics.IncrCounterWithLabels(MetricRunFatal, 1, e.cfg.metricLabels)
	e.logger.Error("environment terminated", LabelError.L(err.Error()))
	return e.main, err
}

// initAll calls Init on the Environment, the main component and every
// dependency, in that order, and queues what they return.
func (e *Environment[M]) initAll() error {
	e.route(e.Init().Messages, PidEnvironment, PidEnvironment)

	out, err := invokeInit(e.logger, PidMain, e.main)
	if err != nil {
		return err
	}
	e.route(out.Messages, PidMain, PidMain)

	for _, dep := range e.deps {
		out, err := invokeInit(e.logger, dep.pid, dep.component)
		if err != nil {
			return err
		}
		e.route(out.Messages, dep.pid, dep.pid)
	}

	e.logger.Debug("environment initialized",
		slog.Int("dependencies", len(e.deps)),
		slog.Int("queued", e.mailbox.len()),
	)
	return nil
}

// route stamps outgoing messages with their sender, resolves PidSender to
// replyTo and queues them in emission order.
func (e *Environment[M]) route(msgs []Message, from, replyTo Pid) {
	for i := range msgs {
		msgs[i].Sender = from
		if msgs[i].Recipient == PidSender {
			msgs[i].Recipient = replyTo
		}
	}
	e.mailbox.push(msgs...)
	e.reportDepth()
}

func (e *Environment[M]) reportDepth() {
	e.metrics.SetGaugeWithLabels(MetricMailboxDepth, float32(e.mailbox.len()), e.cfg.metricLabels)
}

// deliver dispatches one message and folds the result back into the mailbox
// and the async tracker.
func (e *Environment[M]) deliver(msg Message) error {
	start := time.Now()
	handler := msg.Recipient
	answersCheck := msg.IsAsyncCheck()

	upd, known := e.dispatch(msg)
	if !known {
		e.metrics.IncrCounterWithLabels(MetricMessageDropped, 1, e.cfg.metricLabels)
		e.logger.Warn("dropping message for unknown recipient",
			LabelPid.L(handler.String()),
			LabelSender.L(msg.Sender.String()),
			LabelIdentifier.L(msg.Identifier),
		)
		return nil
	}

	e.metrics.IncrCounterWithLabels(MetricMessageDispatched, 1,
		append([]metrics.Label{LabelKind.M(upd.Kind.String())}, e.cfg.metricLabels...))
	e.metrics.MeasureSinceWithLabels(MetricDispatchLatency, start, e.cfg.metricLabels)
	e.logger.Debug("dispatched",
		LabelPid.L(handler.String()),
		LabelSender.L(msg.Sender.String()),
		LabelIdentifier.L(msg.Identifier),
		LabelKind.L(upd.Kind.String()),
	)

	switch upd.Kind {
	case KindMessages:
		if answersCheck {
			e.tracker.reset(handler)
		}
		e.route(upd.Messages, handler, msg.Sender)
	case KindNotReady:
		e.metrics.IncrCounterWithLabels(MetricAsyncNotReady, 1, e.cfg.metricLabels)
		e.tracker.markNotReady(handler, e.cfg.now())
	case KindError:
		cause := upd.Err
		if cause == nil {
			cause = ErrNoCause
		}
		return &FatalError{Pid: handler, Identifier: msg.Identifier, Err: cause}
	default:
		if answersCheck {
			e.tracker.reset(handler)
		}
	}
	return nil
}

// dispatch hands msg to the component at msg.Recipient. The second result is
// false when nothing lives at that address.
func (e *Environment[M]) dispatch(msg Message) (Update, bool) {
	if i, ok := e.byPid[msg.Recipient]; ok {
		dep := e.deps[i]
		return invokeUpdate(e.logger, dep.pid, dep.component, msg.Clone()), true
	}
	switch msg.Recipient {
	case PidMain:
		return invokeUpdate(e.logger, PidMain, e.main, msg), true
	case PidEnvironment:
		return e.Update(msg), true
	default:
		return Update{}, false
	}
}

// Init queues the one-time registry announcement to the main component. Like
// every message the Environment emits, it arrives with Sender PidEnvironment.
func (e *Environment[M]) Init() Init {
	return InitMessages(MustMessage(PidMain, IdentDependencies, e.Registry()))
}

// Update answers request-dependency with a dependency-lookup addressed to the
// requester. Every other identifier, and any payload that does not decode,
// yields no messages.
func (e *Environment[M]) Update(msg Message) Update {
	if msg.Identifier != IdentRequestDependency {
		return NoMessages()
	}

	var req RequestDependency
	if err := msg.Decode(&req); err != nil {
		e.logger.Debug("ignoring malformed dependency request",
			LabelSender.L(msg.Sender.String()),
			LabelError.L(err.Error()),
		)
		return NoMessages()
	}

	lookup := DependencyLookup{ID: req.ID}
	if pid, ok := e.registry[Id(req.ID)]; ok {
		lookup.Pid = &pid
	}
	return Messages(MustMessage(PidSender, IdentDependencyLookup, lookup))
}

// Main returns the main component.
func (e *Environment[M]) Main() M {
	return e.main
}

// Registry returns a copy of the identifier to address mapping.
func (e *Environment[M]) Registry() Dependencies {
	out := make(Dependencies, len(e.registry))
	for id, pid := range e.registry {
		out[id] = pid
	}
	return out
}

// Lookup returns the address registered under id.
func (e *Environment[M]) Lookup(id Id) (Pid, bool) {
	pid, ok := e.registry[id]
	return pid, ok
}

// Pending returns the number of queued messages.
func (e *Environment[M]) Pending() int {
	return e.mailbox.len()
}

// PollInterval returns the configured poll interval.
func (e *Environment[M]) PollInterval() time.Duration {
	return e.cfg.pollInterval
}

// Builder assembles an Environment one dependency at a time.
type Builder[M Component] struct {
	main M
	deps []Dependency
}

// NewBuilder starts a Builder around the main component.
func NewBuilder[M Component](main M) *Builder[M] {
	return &Builder[M]{main: main}
}

// Dep registers a dependency. Registration order fixes its address.
func (b *Builder[M]) Dep(id Id, c Component) *Builder[M] {
	b.deps = append(b.deps, Dependency{ID: id, Component: c})
	return b
}

// Build finalizes the Environment.
func (b *Builder[M]) Build(opts ...Option) (*Environment[M], error) {
	return New(b.main, b.deps, opts...)
}
