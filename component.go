// File: component.go
package switchboard

// Component is implemented by the main component and by every dependency.
// The Environment owns each component exclusively and never calls two of them
// at the same time.
type Component interface {
	// Init is called exactly once, before any message is delivered.
	Init() Init
	// Update is called once for every message addressed to the component.
	Update(msg Message) Update
}

// Init is the result of Component.Init.
type Init struct {
	Messages []Message
}

// InitNone reports that a component has nothing to send at startup.
func InitNone() Init { return Init{} }

// InitMessages returns the messages a component sends at startup. Messages
// addressed to PidSender are delivered back to the component itself.
func InitMessages(msgs ...Message) Init {
	return Init{Messages: msgs}
}

// UpdateKind discriminates the variants of Update.
type UpdateKind uint8

const (
	KindNoMessages UpdateKind = iota
	KindMessages
	KindNotReady
	KindError
)

func (k UpdateKind) String() string {
	switch k {
	case KindNoMessages:
		return "no-messages"
	case KindMessages:
		return "messages"
	case KindNotReady:
		return "not-ready"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Update is the result of Component.Update. The zero value is NoMessages.
type Update struct {
	Kind     UpdateKind
	Messages []Message
	Err      error
}

// NoMessages reports that the message was handled and nothing is sent back.
func NoMessages() Update { return Update{Kind: KindNoMessages} }

// Messages returns zero or more messages to emit, in order.
func Messages(msgs ...Message) Update {
	return Update{Kind: KindMessages, Messages: msgs}
}

// NotReady reports that background work is still in progress. The component
// is not polled again until the poll interval has elapsed.
func NotReady() Update { return Update{Kind: KindNotReady} }

// Fail ends the whole run with err.
func Fail(err error) Update {
	return Update{Kind: KindError, Err: err}
}

// ComponentFuncs adapts a pair of functions to Component. A nil InitFunc
// behaves like InitNone and a nil UpdateFunc like NoMessages.
type ComponentFuncs struct {
	InitFunc   func() Init
	UpdateFunc func(Message) Update
}

var _ Component = (*ComponentFuncs)(nil)

func (c *ComponentFuncs) Init() Init {
	if c.InitFunc == nil {
		return InitNone()
	}
	return c.InitFunc()
}

func (c *ComponentFuncs) Update(msg Message) Update {
	if c.UpdateFunc == nil {
		return NoMessages()
	}
	return c.UpdateFunc(msg)
}
