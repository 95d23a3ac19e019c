// File: mailbox_test.go
package switchboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_FIFO(t *testing.T) {
	mb := newMailbox()
	_, ok := mb.pop()
	assert.False(t, ok, "empty mailbox")

	mb.push(EmptyMessage(PidMain, "a"), EmptyMessage(PidMain, "b"))
	mb.push(EmptyMessage(PidMain, "c"))
	assert.Equal(t, 3, mb.len())

	for _, want := range []string{"a", "b", "c"} {
		msg, ok := mb.pop()
		require.True(t, ok)
		assert.Equal(t, want, msg.Identifier)
	}
	assert.Equal(t, 0, mb.len())
}

func TestMailbox_OrderSurvivesCompaction(t *testing.T) {
	mb := newMailbox()
	next := 0
	for round := 0; round < 10; round++ {
		for i := 0; i < 50; i++ {
			mb.push(EmptyMessage(PidMain, fmt.Sprint(round*50+i)))
		}
		for i := 0; i < 40; i++ {
			msg, ok := mb.pop()
			require.True(t, ok)
			require.Equal(t, fmt.Sprint(next), msg.Identifier)
			next++
		}
	}
	assert.Equal(t, 100, mb.len())
}
