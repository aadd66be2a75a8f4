package store

import (
	"slices"

	"github.com/catalogue-registry/registry/src/catalogue"
)

const DefaultQuantity = 10

type Filter struct {
	Key    string
	Values []string
}

type OrderBy struct {
	Field string
	Desc  bool
}

// FacetFilter is a query against the entity store.
// Filters keep the order they were added in; values of one key are alternatives,
// different keys must all match.
type FacetFilter struct {
	Keyword       string
	From          int
	Quantity      int
	OrderBy       OrderBy
	ResourceTypes []catalogue.EntityType

	// Fields to aggregate facets for
	BrowseBy []string

	filters []Filter
}

func NewFacetFilter() *FacetFilter {
	return &FacetFilter{Quantity: DefaultQuantity}
}

// AddFilter appends values to key. A new key goes last in the application order.
func (self *FacetFilter) AddFilter(key string, values ...string) *FacetFilter {
	for i := range self.filters {
		if self.filters[i].Key == key {
			for _, v := range values {
				if !slices.Contains(self.filters[i].Values, v) {
					self.filters[i].Values = append(self.filters[i].Values, v)
				}
			}
			return self
		}
	}
	self.filters = append(self.filters, Filter{Key: key, Values: slices.Clone(values)})
	return self
}

func (self *FacetFilter) RemoveFilter(key string) *FacetFilter {
	self.filters = slices.DeleteFunc(self.filters, func(f Filter) bool {
		return f.Key == key
	})
	return self
}

func (self *FacetFilter) HasFilter(key string) bool {
	return slices.ContainsFunc(self.filters, func(f Filter) bool {
		return f.Key == key
	})
}

// Keys returns filter keys in application order
func (self *FacetFilter) Keys() []string {
	out := make([]string, len(self.filters))
	for i, f := range self.filters {
		out[i] = f.Key
	}
	return out
}

func (self *FacetFilter) Values(key string) []string {
	for _, f := range self.filters {
		if f.Key == key {
			return slices.Clone(f.Values)
		}
	}
	return nil
}

func (self *FacetFilter) Filters() []Filter {
	return self.Clone().filters
}

func (self *FacetFilter) Clone() *FacetFilter {
	out := *self
	out.ResourceTypes = slices.Clone(self.ResourceTypes)
	out.BrowseBy = slices.Clone(self.BrowseBy)
	out.filters = make([]Filter, len(self.filters))
	for i, f := range self.filters {
		out.filters[i] = Filter{Key: f.Key, Values: slices.Clone(f.Values)}
	}
	return &out
}
