package domain

import (
	"fmt"
	"strings"
)

// SchemaError reports required fields absent from a raw candidate table.
// Fatal to the run; never retried.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("candidate pool missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ValidationError reports a structural invariant violated on input to a
// selector (squad size, unknown position, quota mismatch). Fatal for the
// call that received the input.
type ValidationError struct {
	Reason string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// InfeasibleError reports that a constraint set has no satisfying
// assignment. The constraint description is surfaced so callers can tell a
// starved budget from a starved position quota; it is never silently
// relaxed into a partial result.
type InfeasibleError struct {
	Constraints string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("no feasible assignment: %s", e.Constraints)
}
