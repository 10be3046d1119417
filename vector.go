package irmux

import (
	"errors"
	"fmt"
)

// VectorPolicy decides which capture sources a shared interrupt vector
// services on entry.
type VectorPolicy uint8

const (
	// ServiceSignaled services only the source that raised the interrupt.
	ServiceSignaled VectorPolicy = iota
	// ServiceFallthrough services the signaled source and then every source
	// after it on the vector, whether or not they captured anything. Sources
	// serviced without a new capture re-read their last latched value, which
	// shows up on that channel as a zero-length sample.
	ServiceFallthrough
)

var (
	// ErrUnknownPolicy is returned when parsing a policy name fails.
	ErrUnknownPolicy = errors.New("unknown vector policy")
)

func (p VectorPolicy) String() string {
	switch p {
	case ServiceSignaled:
		return "signaled"
	case ServiceFallthrough:
		return "fallthrough"
	}
	return fmt.Sprintf("VectorPolicy(%d)", uint8(p))
}

// ParseVectorPolicy maps "signaled" or "fallthrough" to a policy. The empty
// string means ServiceSignaled.
func ParseVectorPolicy(s string) (VectorPolicy, error) {
	switch s {
	case "", "signaled":
		return ServiceSignaled, nil
	case "fallthrough":
		return ServiceFallthrough, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// CaptureSource ties a channel to the capture register that latches its
// edges.
type CaptureSource struct {
	Channel *Channel
	// Capture returns the counter value latched at the most recent edge.
	Capture func() Tick
}

// Vector is an interrupt vector shared by several capture sources, like a
// timer whose capture/compare units all raise one interrupt and report the
// pending unit in an index register.
type Vector struct {
	policy  VectorPolicy
	sources []CaptureSource
}

// NewVector returns a vector servicing sources in order.
func NewVector(policy VectorPolicy, sources ...CaptureSource) *Vector {
	return &Vector{policy: policy, sources: sources}
}

// Policy returns the vector's service policy.
func (v *Vector) Policy() VectorPolicy {
	return v.policy
}

// Interrupt is the vector's handler body. pending is the index of the source
// that raised the interrupt; out of range values are ignored.
func (v *Vector) Interrupt(pending int) {
	if pending < 0 || pending >= len(v.sources) {
		return
	}
	end := pending + 1
	if v.policy == ServiceFallthrough {
		end = len(v.sources)
	}
	for _, s := range v.sources[pending:end] {
		s.Channel.OnEdge(s.Capture())
	}
}
