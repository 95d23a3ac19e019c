// File: mailbox.go
package switchboard

// mailbox is the FIFO queue of the Environment. Only the run loop touches it.
type mailbox struct {
	queue []Message
	head  int
}

func newMailbox() *mailbox {
	return &mailbox{}
}

// push appends msgs at the tail, preserving their order.
func (m *mailbox) push(msgs ...Message) {
	m.queue = append(m.queue, msgs...)
}

// pop removes the front message.
func (m *mailbox) pop() (Message, bool) {
	if m.head >= len(m.queue) {
		return Message{}, false
	}
	msg := m.queue[m.head]
	m.queue[m.head] = Message{}
	m.head++
	// Reclaim the consumed prefix once it dominates the buffer.
	if m.head > 64 && m.head*2 >= len(m.queue) {
		n := copy(m.queue, m.queue[m.head:])
		m.queue = m.queue[:n]
		m.head = 0
	}
	return msg, true
}

func (m *mailbox) len() int {
	return len(m.queue) - m.head
}
