package report

import (
	"go.uber.org/atomic"
)

type LifecycleErrors struct {
	Validation   atomic.Uint64 `json:"validation"`
	NotFound     atomic.Uint64 `json:"not_found"`
	Conflict     atomic.Uint64 `json:"conflict"`
	Unauthorized atomic.Uint64 `json:"unauthorized"`
	Store        atomic.Uint64 `json:"store"`
}

type LifecycleState struct {
	Added             atomic.Uint64 `json:"added"`
	Updated           atomic.Uint64 `json:"updated"`
	Verified          atomic.Uint64 `json:"verified"`
	Published         atomic.Uint64 `json:"published"`
	Audited           atomic.Uint64 `json:"audited"`
	Deleted           atomic.Uint64 `json:"deleted"`
	GuidelinesUpdated atomic.Uint64 `json:"guidelines_updated"`
}

type LifecycleReport struct {
	State  LifecycleState  `json:"state"`
	Errors LifecycleErrors `json:"errors"`
}
