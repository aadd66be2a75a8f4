package report

import (
	"go.uber.org/atomic"
)

type SearchErrors struct {
	Query atomic.Uint64 `json:"query"`
}

type SearchState struct {
	Queries          atomic.Uint64 `json:"queries"`
	FacetCorrections atomic.Uint64 `json:"facet_corrections"`
	AnonymousQueries atomic.Uint64 `json:"anonymous_queries"`
}

type SearchReport struct {
	State  SearchState  `json:"state"`
	Errors SearchErrors `json:"errors"`
}
