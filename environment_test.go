// File: environment_test.go
package switchboard

import (
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// --- Test Component ---

var errStop = errors.New("test: stop")

// testComponent records every message it receives. OnUpdate decides the
// answer; without it the component answers NoMessages. StopOnCheck > 0 makes
// it fail with errStop on that many async-checks, which is how most tests end
// a run.
type testComponent struct {
	InitMsgs    []Message
	OnUpdate    func(c *testComponent, msg Message) Update
	StopOnCheck int

	Received []Message
	Checks   int
}

func (c *testComponent) Init() Init {
	if len(c.InitMsgs) == 0 {
		return InitNone()
	}
	return InitMessages(c.InitMsgs...)
}

func (c *testComponent) Update(msg Message) Update {
	c.Received = append(c.Received, msg)
	if msg.IsAsyncCheck() {
		c.Checks++
		if c.StopOnCheck > 0 && c.Checks >= c.StopOnCheck {
			return Fail(errStop)
		}
	}
	if c.OnUpdate != nil {
		return c.OnUpdate(c, msg)
	}
	return NoMessages()
}

// received returns the messages delivered with the given identifier.
func (c *testComponent) received(identifier string) []Message {
	var out []Message
	for _, msg := range c.Received {
		if msg.Identifier == identifier {
			out = append(out, msg)
		}
	}
	return out
}

// stepClock advances by step on every read, so time moves with each loop
// iteration without sleeping.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{now: time.Unix(0, 0), step: step}
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func testOptions(clock *stepClock) []Option {
	return []Option{
		WithClock(clock.Now),
		WithSleep(func(d time.Duration) { clock.now = clock.now.Add(d) }),
	}
}

// --- Environment Tests ---

func TestEnvironment_New(t *testing.T) {
	env, err := New(&testComponent{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, env.mailbox)
	assert.NotNil(t, env.tracker)
	assert.Empty(t, env.Registry())
	assert.Equal(t, DefaultPollInterval, env.PollInterval())

	_, tracked := env.tracker.state(PidEnvironment)
	assert.True(t, tracked, "environment should track itself")
	_, tracked = env.tracker.state(PidMain)
	assert.True(t, tracked, "environment should track the main component")
}

func TestEnvironment_New_NilComponents(t *testing.T) {
	_, err := New[Component](nil, nil)
	assert.ErrorIs(t, err, ErrNilComponent)

	_, err = New(&testComponent{}, []Dependency{{ID: "db", Component: nil}})
	assert.ErrorIs(t, err, ErrNilComponent)
}

func TestEnvironment_New_InvalidOption(t *testing.T) {
	_, err := New(&testComponent{}, nil, WithPollInterval(0))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestEnvironment_DependencyAddresses(t *testing.T) {
	env, err := NewBuilder(&testComponent{}).
		Dep("zeta", &testComponent{}).
		Dep("alpha", &testComponent{}).
		Dep("mid", &testComponent{}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, Dependencies{
		"zeta":  FirstDependencyPid,
		"alpha": FirstDependencyPid + 1,
		"mid":   FirstDependencyPid + 2,
	}, env.Registry())

	for _, id := range []Id{"zeta", "alpha", "mid"} {
		pid, ok := env.Lookup(id)
		require.True(t, ok)
		assert.False(t, pid.IsReserved(), "dependency %s got a reserved address", id)
		_, tracked := env.tracker.state(pid)
		assert.True(t, tracked, "dependency %s should be tracked", id)
	}
}

func TestEnvironment_DuplicateIdentifierKeepsLatest(t *testing.T) {
	first, second := &testComponent{}, &testComponent{}
	env, err := New(&testComponent{}, []Dependency{
		{ID: "cache", Component: first},
		{ID: "cache", Component: second},
	})
	require.NoError(t, err)

	pid, ok := env.Lookup("cache")
	require.True(t, ok)
	assert.Equal(t, DependencyPid(1), pid)
	assert.Len(t, env.deps, 2, "both components keep their own address")
}

func TestEnvironment_Start_SendsDependenciesToMain(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	main := &testComponent{StopOnCheck: 2}

	final, err := Run(main, []Dependency{
		{ID: "logger", Component: &testComponent{}},
		{ID: "store", Component: &testComponent{}},
	}, testOptions(clock)...)

	require.ErrorIs(t, err, errStop)
	assert.Same(t, main, final)

	announcements := main.received(IdentDependencies)
	require.Len(t, announcements, 1, "registry is announced exactly once")
	assert.Equal(t, PidEnvironment, announcements[0].Sender)
	assert.Equal(t, PidMain, announcements[0].Recipient)

	var deps Dependencies
	require.NoError(t, announcements[0].Decode(&deps))
	assert.Equal(t, Dependencies{"logger": 3, "store": 4}, deps)

	assert.Equal(t, IdentDependencies, main.Received[0].Identifier, "announcement is delivered first")
}

func TestEnvironment_Start_SelfAddressedInitMessages(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	main := &testComponent{
		InitMsgs:    []Message{EmptyMessage(PidSender, "wake-main")},
		StopOnCheck: 3,
	}
	dep := &testComponent{
		InitMsgs: []Message{
			EmptyMessage(PidSender, "wake-dep-1"),
			EmptyMessage(PidSender, "wake-dep-2"),
		},
	}

	_, err := Run(main, []Dependency{{ID: "worker", Component: dep}}, testOptions(clock)...)
	require.ErrorIs(t, err, errStop)

	wake := main.received("wake-main")
	require.Len(t, wake, 1)
	assert.Equal(t, PidMain, wake[0].Sender)
	assert.Equal(t, PidMain, wake[0].Recipient)

	var order []string
	for _, msg := range dep.Received {
		if !msg.IsAsyncCheck() {
			order = append(order, msg.Identifier)
			assert.Equal(t, DependencyPid(0), msg.Sender)
			assert.Equal(t, DependencyPid(0), msg.Recipient)
		}
	}
	assert.Equal(t, []string{"wake-dep-1", "wake-dep-2"}, order)
}

func TestEnvironment_Start_InitOrder(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	var seen []string
	record := func(name string) Component {
		return &ComponentFuncs{InitFunc: func() Init {
			seen = append(seen, name)
			return InitNone()
		}}
	}
	main := &testComponent{StopOnCheck: 1}
	mainInit := &ComponentFuncs{
		InitFunc: func() Init {
			seen = append(seen, "main")
			return main.Init()
		},
		UpdateFunc: main.Update,
	}

	_, err := Run(mainInit, []Dependency{
		{ID: "b", Component: record("dep-b")},
		{ID: "a", Component: record("dep-a")},
	}, testOptions(clock)...)
	require.ErrorIs(t, err, errStop)
	assert.Equal(t, []string{"main", "dep-b", "dep-a"}, seen)
}

func TestEnvironment_RequestDependency(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	main := &testComponent{}
	main.OnUpdate = func(c *testComponent, msg Message) Update {
		switch msg.Identifier {
		case IdentDependencies:
			return Messages(
				MustMessage(PidEnvironment, IdentRequestDependency, RequestDependency{ID: "logger"}),
				MustMessage(PidEnvironment, IdentRequestDependency, RequestDependency{ID: "missing"}),
			)
		case IdentDependencyLookup:
			if len(c.received(IdentDependencyLookup)) == 2 {
				return Fail(errStop)
			}
		}
		return NoMessages()
	}

	_, err := Run(main, []Dependency{
		{ID: "metrics", Component: &testComponent{}},
		{ID: "logger", Component: &testComponent{}},
	}, testOptions(clock)...)
	require.ErrorIs(t, err, errStop)

	lookups := main.received(IdentDependencyLookup)
	require.Len(t, lookups, 2, "one reply per request")

	var found, missing DependencyLookup
	require.NoError(t, lookups[0].Decode(&found))
	require.NoError(t, lookups[1].Decode(&missing))

	assert.Equal(t, "logger", found.ID)
	require.NotNil(t, found.Pid)
	assert.Equal(t, DependencyPid(1), *found.Pid)
	assert.Equal(t, PidEnvironment, lookups[0].Sender)
	assert.Equal(t, PidMain, lookups[0].Recipient)

	assert.Equal(t, "missing", missing.ID)
	assert.Nil(t, missing.Pid)
}

func TestEnvironment_LoggerScenario(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	main := &testComponent{}
	main.OnUpdate = func(c *testComponent, msg Message) Update {
		switch msg.Identifier {
		case IdentDependencies:
			return Messages(MustMessage(PidEnvironment, IdentRequestDependency, RequestDependency{ID: "logger"}))
		case IdentDependencyLookup:
			return Fail(errStop)
		}
		return NoMessages()
	}

	_, err := Run(main, []Dependency{{ID: "logger", Component: &testComponent{}}}, testOptions(clock)...)
	require.ErrorIs(t, err, errStop)

	lookups := main.received(IdentDependencyLookup)
	require.Len(t, lookups, 1)
	var lookup DependencyLookup
	require.NoError(t, lookups[0].Decode(&lookup))
	assert.Equal(t, "logger", lookup.ID)
	require.NotNil(t, lookup.Pid)
	assert.Equal(t, FirstDependencyPid, *lookup.Pid)
}

func TestEnvironment_Update_IgnoresOtherIdentifiers(t *testing.T) {
	env, err := New(&testComponent{}, []Dependency{{ID: "logger", Component: &testComponent{}}})
	require.NoError(t, err)

	assert.Equal(t, KindNoMessages, env.Update(EmptyMessage(PidEnvironment, "hello")).Kind)
	assert.Equal(t, KindNoMessages, env.Update(EmptyMessage(PidEnvironment, IdentAsyncCheck)).Kind)

	// A request whose payload does not decode is not an error.
	malformed, err := NewProtoMessage(PidEnvironment, IdentRequestDependency, wrapperspb.String("logger"))
	require.NoError(t, err)
	assert.Equal(t, KindNoMessages, env.Update(malformed).Kind)
	assert.Equal(t, KindNoMessages, env.Update(EmptyMessage(PidEnvironment, IdentRequestDependency)).Kind)
}

func TestEnvironment_RepliesResolveToSender(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	echo := &testComponent{OnUpdate: func(_ *testComponent, msg Message) Update {
		if msg.Identifier == "ping" {
			return Messages(EmptyMessage(PidSender, "pong"))
		}
		return NoMessages()
	}}
	main := &testComponent{}
	main.OnUpdate = func(_ *testComponent, msg Message) Update {
		switch msg.Identifier {
		case IdentDependencies:
			return Messages(EmptyMessage(FirstDependencyPid, "ping"))
		case "pong":
			return Fail(errStop)
		}
		return NoMessages()
	}

	_, err := Run(main, []Dependency{{ID: "echo", Component: echo}}, testOptions(clock)...)
	require.ErrorIs(t, err, errStop)

	pings := echo.received("ping")
	require.Len(t, pings, 1)
	assert.Equal(t, PidMain, pings[0].Sender)

	pongs := main.received("pong")
	require.Len(t, pongs, 1)
	assert.Equal(t, FirstDependencyPid, pongs[0].Sender)
	assert.Equal(t, PidMain, pongs[0].Recipient)
}

func TestEnvironment_ErrorHaltsImmediately(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	boom := errors.New("boom")
	dep := &testComponent{OnUpdate: func(_ *testComponent, msg Message) Update {
		if msg.Identifier == "first" {
			return Fail(boom)
		}
		return NoMessages()
	}}
	main := &testComponent{OnUpdate: func(_ *testComponent, msg Message) Update {
		if msg.Identifier == IdentDependencies {
			return Messages(
				EmptyMessage(FirstDependencyPid, "first"),
				EmptyMessage(FirstDependencyPid, "second"),
				EmptyMessage(PidMain, "third"),
			)
		}
		return NoMessages()
	}}

	final, err := Run(main, []Dependency{{ID: "fragile", Component: dep}}, testOptions(clock)...)
	require.ErrorIs(t, err, boom)
	assert.Same(t, main, final)

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, FirstDependencyPid, fatal.Pid)
	assert.Equal(t, "first", fatal.Identifier)

	assert.Empty(t, dep.received("second"), "nothing is dispatched after a fatal error")
	assert.Empty(t, main.received("third"), "nothing is dispatched after a fatal error")
}

func TestEnvironment_FailWithoutCause(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	main := &ComponentFuncs{UpdateFunc: func(Message) Update { return Update{Kind: KindError} }}

	_, err := Run[Component](main, nil, testOptions(clock)...)
	assert.ErrorIs(t, err, ErrNoCause)
}

func TestEnvironment_UnknownRecipientIsDropped(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	sink := metrics.NewInmemSink(time.Hour, time.Hour)
	main := &testComponent{StopOnCheck: 3, OnUpdate: func(_ *testComponent, msg Message) Update {
		if msg.Identifier == IdentDependencies {
			return Messages(EmptyMessage(Pid(99), "lost"))
		}
		return NoMessages()
	}}

	opts := append(testOptions(clock), WithMetricSink(sink))
	_, err := Run(main, nil, opts...)
	require.ErrorIs(t, err, errStop, "an unknown recipient is not an error")

	data := sink.Data()
	require.NotEmpty(t, data)
	dropped, ok := data[len(data)-1].Counters["switchboard.message.dropped"]
	require.True(t, ok, "dropped counter should be emitted")
	assert.Equal(t, 1, dropped.Count)
}

func TestEnvironment_MailboxDepthFollowsPops(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	sink := metrics.NewInmemSink(time.Hour, time.Hour)
	main := &testComponent{StopOnCheck: 2, OnUpdate: func(_ *testComponent, msg Message) Update {
		if msg.Identifier == IdentDependencies {
			lost := make([]Message, 5)
			for i := range lost {
				lost[i] = EmptyMessage(Pid(99), "lost")
			}
			return Messages(lost...)
		}
		return NoMessages()
	}}

	opts := append(testOptions(clock), WithMetricSink(sink))
	_, err := Run(main, nil, opts...)
	require.ErrorIs(t, err, errStop)

	data := sink.Data()
	require.NotEmpty(t, data)
	depth, ok := data[len(data)-1].Gauges["switchboard.mailbox.depth"]
	require.True(t, ok, "depth gauge should be emitted")
	// The lost messages peaked the queue at 7; only the environment's
	// pending async-check is left when main fails.
	assert.Equal(t, float32(1), depth.Value)
}

func TestEnvironment_NotReadyBacksOff(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	var checkTimes []time.Time
	slow := &testComponent{OnUpdate: func(c *testComponent, msg Message) Update {
		if !msg.IsAsyncCheck() {
			return NoMessages()
		}
		checkTimes = append(checkTimes, clock.Now())
		if c.Checks == 4 {
			return Fail(errStop)
		}
		return NotReady()
	}}

	_, err := Run(&testComponent{}, []Dependency{{ID: "slow", Component: slow}}, testOptions(clock)...)
	require.ErrorIs(t, err, errStop)

	require.Len(t, checkTimes, 4)
	for i := 1; i < len(checkTimes); i++ {
		gap := checkTimes[i].Sub(checkTimes[i-1])
		assert.GreaterOrEqual(t, gap, DefaultPollInterval, "poll %d came after %s", i, gap)
	}
}

func TestEnvironment_ReadyComponentIsPolledEveryCycle(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	fast := &testComponent{StopOnCheck: 5}

	_, err := Run(&testComponent{}, []Dependency{{ID: "fast", Component: fast}}, testOptions(clock)...)
	require.ErrorIs(t, err, errStop)

	// Only async-checks reached the dependency, and they kept coming without
	// any backoff.
	assert.Len(t, fast.Received, 5)
	assert.Less(t, clock.now.Sub(time.Unix(0, 0)), 5*DefaultPollInterval)
}

func TestEnvironment_PanicIsFatal(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	main := &testComponent{OnUpdate: func(_ *testComponent, msg Message) Update {
		if msg.Identifier == IdentDependencies {
			panic("main exploded")
		}
		return NoMessages()
	}}

	final, err := Run(main, nil, testOptions(clock)...)
	assert.Same(t, main, final)
	require.ErrorIs(t, err, ErrComponentPanic)
	assert.Contains(t, err.Error(), "main exploded")
}

func TestEnvironment_PanicDuringInit(t *testing.T) {
	dep := &ComponentFuncs{InitFunc: func() Init { panic("no init for you") }}

	_, err := Run(&testComponent{}, []Dependency{{ID: "broken", Component: dep}})
	require.ErrorIs(t, err, ErrComponentPanic)

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, FirstDependencyPid, fatal.Pid)
	assert.Empty(t, fatal.Identifier)
}

func TestEnvironment_StartTwice(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	env, err := New(&testComponent{StopOnCheck: 1}, nil, testOptions(clock)...)
	require.NoError(t, err)

	_, err = env.Start()
	require.ErrorIs(t, err, errStop)

	_, err = env.Start()
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestEnvironment_DependencyGetsOwnCopyOfPayload(t *testing.T) {
	clock := newStepClock(time.Millisecond)
	mutator := &testComponent{OnUpdate: func(_ *testComponent, msg Message) Update {
		if msg.Identifier == "data" {
			msg.Payload[0] = 'X'
			return Messages(EmptyMessage(PidSender, "done"))
		}
		return NoMessages()
	}}
	var sent Message
	main := &testComponent{}
	main.OnUpdate = func(_ *testComponent, msg Message) Update {
		switch msg.Identifier {
		case IdentDependencies:
			sent = MustMessage(FirstDependencyPid, "data", "payload")
			return Messages(sent)
		case "done":
			return Fail(errStop)
		}
		return NoMessages()
	}

	_, err := Run(main, []Dependency{{ID: "mutator", Component: mutator}}, testOptions(clock)...)
	require.ErrorIs(t, err, errStop)

	var text string
	require.NoError(t, sent.Decode(&text))
	assert.Equal(t, "payload", text)
}
