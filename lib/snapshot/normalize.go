// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/snapshot-debugger/snapdbg/lib/rtdb"
)

// rawBreakpoint is the physical layout of a stored record. Timestamp
// fields stay raw because a record echoed back from a write may still
// carry the server-timestamp sentinel object where a number belongs.
type rawBreakpoint struct {
	ID                   string          `json:"id"`
	Location             *Location       `json:"location"`
	Condition            string          `json:"condition"`
	Expressions          []string        `json:"expressions"`
	UserEmail            string          `json:"userEmail"`
	CreateTimeUnixMsec   json.RawMessage `json:"createTimeUnixMsec"`
	FinalTimeUnixMsec    json.RawMessage `json:"finalTimeUnixMsec"`
	IsFinalState         bool            `json:"isFinalState"`
	Status               *StatusMessage  `json:"status"`
	StackFrames          []StackFrame    `json:"stackFrames"`
	EvaluatedExpressions []Variable      `json:"evaluatedExpressions"`
	VariableTable        []Variable      `json:"variableTable"`
}

// NormalizeBreakpoint converts a raw stored record into the canonical
// Breakpoint shape. final says which namespace the record was read
// from; a record from the final namespace is finalized regardless of
// what the stored isFinalState flag claims.
//
// A nil raw record yields ErrSnapshotNotFound — "does not exist" is a
// different outcome than "exists with no optional fields". A record
// that is not a JSON object or has no id yields ErrMalformed. Every
// other well-formed record normalizes without error, and normalizing
// an already-canonical record changes nothing.
func NormalizeBreakpoint(raw json.RawMessage, final bool) (*Breakpoint, error) {
	if raw == nil {
		return nil, ErrSnapshotNotFound
	}

	var record rawBreakpoint
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if record.ID == "" {
		return nil, fmt.Errorf("%w: record has no id", ErrMalformed)
	}

	createTime, err := epochMsec(record.CreateTimeUnixMsec)
	if err != nil {
		return nil, fmt.Errorf("%w: createTimeUnixMsec: %v", ErrMalformed, err)
	}
	finalTime, err := epochMsec(record.FinalTimeUnixMsec)
	if err != nil {
		return nil, fmt.Errorf("%w: finalTimeUnixMsec: %v", ErrMalformed, err)
	}

	bp := &Breakpoint{
		ID:                   record.ID,
		Condition:            record.Condition,
		Expressions:          record.Expressions,
		UserEmail:            record.UserEmail,
		CreateTimeUnixMsec:   createTime,
		FinalTimeUnixMsec:    finalTime,
		IsFinalState:         record.IsFinalState || final,
		Status:               record.Status,
		StackFrames:          record.StackFrames,
		EvaluatedExpressions: record.EvaluatedExpressions,
		VariableTable:        record.VariableTable,
	}
	if record.Location != nil {
		bp.Location = *record.Location
	}

	// Callers always see an expressions sequence, never a missing one.
	if bp.Expressions == nil {
		bp.Expressions = []string{}
	}
	// Same for the capture data once the breakpoint is finalized: a
	// completed snapshot with nothing captured is an empty stack, not
	// an absent one.
	if bp.IsFinalState && bp.StackFrames == nil {
		bp.StackFrames = []StackFrame{}
	}

	return bp, nil
}

// epochMsec resolves a raw timestamp field to epoch milliseconds.
// Absent fields and the unresolved server-value sentinel (present only
// in a record echoed back before commit) resolve to zero; anything
// else that is not a number is an error.
func epochMsec(raw json.RawMessage) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	var msec int64
	if err := json.Unmarshal(raw, &msec); err == nil {
		return msec, nil
	}
	// Some backends hand numbers back as floats.
	var fractional float64
	if err := json.Unmarshal(raw, &fractional); err == nil {
		return int64(fractional), nil
	}
	var sentinel any
	if err := json.Unmarshal(raw, &sentinel); err == nil && rtdb.IsServerTimestamp(sentinel) {
		return 0, nil
	}
	return 0, fmt.Errorf("not a timestamp: %s", raw)
}
