// File: dispatch.go
package switchboard

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// invokeInit calls c.Init, turning a panic into a fatal error.
func invokeInit(logger *slog.Logger, pid Pid, c Component) (out Init, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("component panicked during init",
				LabelPid.L(pid.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			out = InitNone()
			err = &FatalError{Pid: pid, Err: fmt.Errorf("%w: %v", ErrComponentPanic, r)}
		}
	}()
	return c.Init(), nil
}

// invokeUpdate calls c.Update, turning a panic into Fail.
func invokeUpdate(logger *slog.Logger, pid Pid, c Component, msg Message) (upd Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("component panicked during update",
				LabelPid.L(pid.String()),
				LabelIdentifier.L(msg.Identifier),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			upd = Fail(fmt.Errorf("%w: %v", ErrComponentPanic, r))
		}
	}()
	return c.Update(msg)
}
