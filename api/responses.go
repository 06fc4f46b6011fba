package api

import "github.com/yaseralshikh/taskguard/assignment"

// CheckResponse is the response for an authorization check.
type CheckResponse struct {
	Allowed    bool        `json:"allowed" description:"Whether the request is allowed"`
	Decision   string      `json:"decision" description:"Decision code"`
	Reason     string      `json:"reason,omitempty" description:"Human-readable reason"`
	MatchedBy  []MatchInfo `json:"matched_by,omitempty" description:"Matched rules"`
	EvalTimeNs int64       `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// MatchInfo identifies what allowed a request.
type MatchInfo struct {
	Source string `json:"source" description:"Source (shortcut, rbac)"`
	Rule   string `json:"rule,omitempty" description:"Rule identifier"`
	Detail string `json:"detail,omitempty" description:"Match detail"`
}

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results in order"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}

// MemberResponse reports whether an add changed the roster.
type MemberResponse struct {
	UserID string `json:"user_id" description:"User identifier"`
	Role   string `json:"role" description:"Membership tag"`
	Added  bool   `json:"added" description:"False when the user was already an active member"`
}

// PurgeResponse reports how many check log entries were deleted.
type PurgeResponse struct {
	Deleted int64 `json:"deleted" description:"Number of deleted entries"`
}

// AssignmentResponse is one assignment with its role slug resolved.
type AssignmentResponse struct {
	Assignment *assignment.Assignment `json:"assignment" description:"Assignment"`
	Role       string                 `json:"role" description:"Role slug"`
}
