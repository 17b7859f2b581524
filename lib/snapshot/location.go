// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLocation parses a FILE:LINE string into a Location. The split
// is on the last colon so that paths containing colons (Windows drive
// letters, say) parse correctly. The line must be a positive integer
// and the file part non-empty.
//
// Failures wrap ErrInvalidLocation; callers report them to the user
// without contacting the database.
func ParseLocation(input string) (Location, error) {
	index := strings.LastIndex(input, ":")
	if index < 0 {
		return Location{}, fmt.Errorf("%w: %q is not of the form FILE:LINE", ErrInvalidLocation, input)
	}

	path := input[:index]
	if path == "" {
		return Location{}, fmt.Errorf("%w: %q has an empty file name", ErrInvalidLocation, input)
	}

	line, err := strconv.Atoi(input[index+1:])
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q does not end in a line number", ErrInvalidLocation, input)
	}
	if line <= 0 {
		return Location{}, fmt.Errorf("%w: line number in %q must be positive", ErrInvalidLocation, input)
	}

	return Location{Path: path, Line: line}, nil
}
