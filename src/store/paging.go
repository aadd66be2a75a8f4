package store

import "github.com/catalogue-registry/registry/src/catalogue"

type Value struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}

// Facet holds the number of matching records per value of a field
type Facet struct {
	Field  string  `json:"field"`
	Label  string  `json:"label"`
	Values []Value `json:"values"`
}

type Paging struct {
	Total   int                 `json:"total"`
	From    int                 `json:"from"`
	To      int                 `json:"to"`
	Results []*catalogue.Bundle `json:"results"`
	Facets  []Facet             `json:"facets"`
}
