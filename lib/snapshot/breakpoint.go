// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import "strconv"

// Location is a source position in the debugged service.
type Location struct {
	// Path is the file name, or the file name preceded by enough path
	// components to make it unique within the debuggee.
	Path string `json:"path"`

	// Line is the 1-based line number.
	Line int `json:"line"`
}

// String formats the location as "path:line", the same syntax
// ParseLocation accepts.
func (l Location) String() string {
	return l.Path + ":" + strconv.Itoa(l.Line)
}

// Breakpoint is a snapshot request and, once an instance has captured
// it, the snapshot result. The canonical form produced by
// NormalizeBreakpoint: Expressions is never nil, IsFinalState reflects
// the namespace the record was read from, and CreateTimeUnixMsec is a
// resolved epoch-millisecond value.
type Breakpoint struct {
	// ID is unique within the debuggee's history (active ∪ final).
	ID string `json:"id"`

	// Location is where the snapshot is taken.
	Location Location `json:"location"`

	// Condition, when non-empty, restricts capture to executions
	// where the expression evaluates true in the debuggee.
	Condition string `json:"condition,omitempty"`

	// Expressions are evaluated and captured alongside the stack.
	// Always present in canonical form, possibly empty.
	Expressions []string `json:"expressions"`

	// UserEmail identifies the creator.
	UserEmail string `json:"userEmail,omitempty"`

	// CreateTimeUnixMsec is the server-assigned creation time in
	// milliseconds since the Unix epoch. Immutable after creation.
	// Zero when the record was echoed back before the server resolved
	// its timestamp sentinel.
	CreateTimeUnixMsec int64 `json:"createTimeUnixMsec,omitempty"`

	// FinalTimeUnixMsec is the server-assigned completion time, set
	// by the debug agent when the record moves to the final namespace.
	FinalTimeUnixMsec int64 `json:"finalTimeUnixMsec,omitempty"`

	// IsFinalState is true once any instance has captured the
	// snapshot or the breakpoint has expired or errored.
	IsFinalState bool `json:"isFinalState"`

	// Status carries the agent's final disposition (captured, expired,
	// condition error, ...). Populated by the agent, never by the CLI.
	Status *StatusMessage `json:"status,omitempty"`

	// StackFrames is the captured call stack. Present only on
	// finalized records; non-nil (possibly empty) once finalized.
	StackFrames []StackFrame `json:"stackFrames,omitempty"`

	// EvaluatedExpressions are the captured values of Expressions.
	EvaluatedExpressions []Variable `json:"evaluatedExpressions,omitempty"`

	// VariableTable holds shared variable nodes referenced from
	// StackFrames by index, deduplicating repeated structures.
	VariableTable []Variable `json:"variableTable,omitempty"`
}

// StatusMessage describes the final disposition of a breakpoint as
// reported by the debug agent.
type StatusMessage struct {
	IsError     bool           `json:"isError,omitempty"`
	RefersTo    string         `json:"refersTo,omitempty"`
	Description *FormatMessage `json:"description,omitempty"`
}

// FormatMessage is a parameterized message: Format contains $0, $1...
// placeholders substituted from Parameters.
type FormatMessage struct {
	Format     string   `json:"format,omitempty"`
	Parameters []string `json:"parameters,omitempty"`
}

// StackFrame is one captured call frame.
type StackFrame struct {
	Function  string     `json:"function,omitempty"`
	Location  *Location  `json:"location,omitempty"`
	Arguments []Variable `json:"arguments,omitempty"`
	Locals    []Variable `json:"locals,omitempty"`
}

// Variable is a captured name/value pair, possibly structured.
type Variable struct {
	Name    string     `json:"name,omitempty"`
	Value   string     `json:"value,omitempty"`
	Type    string     `json:"type,omitempty"`
	Members []Variable `json:"members,omitempty"`

	// VarTableIndex points into the enclosing breakpoint's
	// VariableTable when the value is shared between frames.
	VarTableIndex *int `json:"varTableIndex,omitempty"`

	Status *StatusMessage `json:"status,omitempty"`
}
