package errors

import "fmt"

// Reasons carried by ParseError.
const (
	ParseMissingSegment       = "missing_required_segment"
	ParseMalformedServiceLine = "malformed_service_line"
	ParseUnknownClaimType     = "unknown_claim_type"
)

// Reasons carried by AdjudicationError.
const (
	AdjudicationAmountOutOfRange = "amount_out_of_range"
	AdjudicationMissingReason    = "missing_reason"
)

// ParseError means the submitted document could not be turned into a claim.
// A ParseError never results in a stored claim.
type ParseError struct {
	Reason  string
	Segment string
	Line    int
	Err     error
}

func (e *ParseError) Error() string {
	switch e.Reason {
	case ParseMalformedServiceLine:
		return fmt.Sprintf("parse error (%s): service line %d: %s", e.Reason, e.Line, e.detail())
	case ParseMissingSegment:
		return fmt.Sprintf("parse error (%s): segment %s not found", e.Reason, e.Segment)
	default:
		return fmt.Sprintf("parse error (%s): %s", e.Reason, e.detail())
	}
}

func (e *ParseError) detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Segment
}

func (e *ParseError) Unwrap() error { return e.Err }

type NotFoundError struct {
	ClaimID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no claim found for claim ID %s", e.ClaimID)
}

// ConflictError reports a lost concurrent-write race or a duplicate insert.
// Callers retry with a fresh read; the engine never silently overwrites.
type ConflictError struct {
	ClaimID string
	Msg     string
}

func (e *ConflictError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("conflict on claim %s: %s", e.ClaimID, e.Msg)
	}
	return fmt.Sprintf("conflict on claim %s: concurrent update detected", e.ClaimID)
}

// InvalidTransitionError reports a status-machine violation.
type InvalidTransitionError struct {
	ClaimID string
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("claim %s: invalid status transition %s -> %s", e.ClaimID, e.From, e.To)
}

// AdjudicationError reports an amount or reason policy violation.
type AdjudicationError struct {
	Reason string
	Msg    string
}

func (e *AdjudicationError) Error() string {
	return fmt.Sprintf("adjudication error (%s): %s", e.Reason, e.Msg)
}

type PreconditionError struct {
	ClaimID string
	Msg     string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("claim %s: %s", e.ClaimID, e.Msg)
}
