// File: ident.go
package switchboard

import "strconv"

// Id is the human-facing key a dependency is registered under.
type Id string

// Pid is the routing address of a component inside an Environment.
type Pid uint64

// Reserved addresses. Dependencies are numbered from FirstDependencyPid in
// registration order.
const (
	// PidEnvironment addresses the Environment itself.
	PidEnvironment Pid = iota
	// PidMain addresses the main component.
	PidMain
	// PidSender stands for "the sender of the message being handled". It is
	// only meaningful as the recipient of an outgoing message and is always
	// rewritten before delivery.
	PidSender
	// FirstDependencyPid is the address given to the first registered dependency.
	FirstDependencyPid
)

// DependencyPid returns the address assigned to the dependency registered at
// position index (0-based).
func DependencyPid(index int) Pid {
	return FirstDependencyPid + Pid(index)
}

// IsReserved reports whether p is one of the reserved addresses.
func (p Pid) IsReserved() bool {
	return p < FirstDependencyPid
}

func (p Pid) String() string {
	switch p {
	case PidEnvironment:
		return "environment"
	case PidMain:
		return "main"
	case PidSender:
		return "sender"
	default:
		return "pid:" + strconv.FormatUint(uint64(p), 10)
	}
}

func (id Id) String() string { return string(id) }
