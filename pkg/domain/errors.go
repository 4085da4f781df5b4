package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPolicyViolation is matched by every *PolicyViolation.
	ErrPolicyViolation = errors.New("policy violation")
	// ErrUnmetPrecondition is matched by every *UnmetPrecondition.
	ErrUnmetPrecondition = errors.New("unmet precondition")
	// ErrRoutingFault is matched by every *RoutingFault.
	ErrRoutingFault = errors.New("routing fault")
	// ErrCapabilityFailure is matched by every *CapabilityFailure.
	ErrCapabilityFailure = errors.New("capability failure")
	// ErrStepLimit is returned when a run takes more transitions than the graph allows.
	ErrStepLimit = errors.New("step limit exceeded")
)

// PolicyViolation is raised when a role attempts a capability outside its allow-list.
type PolicyViolation struct {
	Role       Role
	Capability Capability
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("unauthorized access attempt by %s on tool %s", e.Role, e.Capability)
}

func (e *PolicyViolation) Is(target error) bool { return target == ErrPolicyViolation }

// UnmetPrecondition is raised when a node runs before its inputs exist.
type UnmetPrecondition struct {
	Node   string
	Fields []Field
}

func (e *UnmetPrecondition) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("node '%s' requires state fields that are missing: %s", e.Node, strings.Join(names, ", "))
}

func (e *UnmetPrecondition) Is(target error) bool { return target == ErrUnmetPrecondition }

// RoutingFault is raised when a router outcome has no successor edge.
type RoutingFault struct {
	Node    string
	Outcome Outcome
	Reason  string
}

func (e *RoutingFault) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "no successor mapped"
	}
	return fmt.Sprintf("routing fault at node '%s': outcome %q: %s", e.Node, e.Outcome, reason)
}

func (e *RoutingFault) Is(target error) bool { return target == ErrRoutingFault }

// CapabilityFailure wraps an error returned by the collaborator behind a capability.
type CapabilityFailure struct {
	Capability Capability
	Err        error
}

func (e *CapabilityFailure) Error() string {
	return fmt.Sprintf("capability %s failed: %v", e.Capability, e.Err)
}

func (e *CapabilityFailure) Is(target error) bool { return target == ErrCapabilityFailure }

func (e *CapabilityFailure) Unwrap() error { return e.Err }

// ErrorKind classifies a Failure.
type ErrorKind string

const (
	KindPolicyViolation   ErrorKind = "policy_violation"
	KindUnmetPrecondition ErrorKind = "unmet_precondition"
	KindRoutingFault      ErrorKind = "routing_fault"
	KindCapabilityFailure ErrorKind = "capability_failure"
	KindStepLimit         ErrorKind = "step_limit"
	KindCanceled          ErrorKind = "canceled"
	KindInternal          ErrorKind = "internal"
)

// KindOf maps an error to its kind. Configuration faults are checked first so
// that a wrapped routing fault is never reported as a data error.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRoutingFault):
		return KindRoutingFault
	case errors.Is(err, ErrStepLimit):
		return KindStepLimit
	case errors.Is(err, ErrUnmetPrecondition):
		return KindUnmetPrecondition
	case errors.Is(err, ErrPolicyViolation):
		return KindPolicyViolation
	case errors.Is(err, ErrCapabilityFailure):
		return KindCapabilityFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindInternal
}

// Failure is what the engine returns alongside the partial state when a run
// halts before reaching a terminal node.
type Failure struct {
	RunID string    `json:"run_id"`
	Node  string    `json:"node"`
	Kind  ErrorKind `json:"kind"`
	Err   error     `json:"-"`
}

// NewFailure builds a Failure for err raised at node.
func NewFailure(runID, node string, err error) *Failure {
	return &Failure{RunID: runID, Node: node, Kind: KindOf(err), Err: err}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("run %s failed at node '%s' (%s): %v", f.RunID, f.Node, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// MarshalJSON adds the error text, which Err cannot carry on its own.
func (f *Failure) MarshalJSON() ([]byte, error) {
	type plain Failure
	v := struct {
		*plain
		Error string `json:"error,omitempty"`
	}{plain: (*plain)(f)}
	if f.Err != nil {
		v.Error = f.Err.Error()
	}
	return json.Marshal(v)
}

// Configuration reports whether the failure stems from a wiring defect of
// the graph rather than from the data flowing through it.
func (f *Failure) Configuration() bool {
	return f.Kind == KindRoutingFault || f.Kind == KindStepLimit
}
