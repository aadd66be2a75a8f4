package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/catalogue-registry/registry/src/catalogue"
)

type indexed struct {
	bundle *catalogue.Bundle
	fields map[string][]string
	text   string
}

// Memory keeps bundles in process memory. Used in development mode and tests.
type Memory struct {
	mtx       sync.RWMutex
	namespace Namespace
	bundles   map[string]*indexed
}

func NewMemory(namespace Namespace) (self *Memory) {
	self = new(Memory)
	self.namespace = namespace
	self.bundles = make(map[string]*indexed)
	return
}

func key(t catalogue.EntityType, id, catalogueId string) string {
	return string(t) + "/" + catalogueId + "/" + id
}

func (self *Memory) Get(ctx context.Context, t catalogue.EntityType, id, catalogueId string) (*catalogue.Bundle, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	v, ok := self.bundles[key(t, id, catalogueId)]
	if !ok {
		return nil, catalogue.NotFound("%s %s in catalogue %s", t, id, catalogueId)
	}
	return v.bundle.Clone(), nil
}

func (self *Memory) Upsert(ctx context.Context, bundle *catalogue.Bundle) error {
	if bundle == nil || bundle.Payload == nil {
		return catalogue.Validation("bundle without payload")
	}

	stored := bundle.Clone()

	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.bundles[stored.Key()] = &indexed{
		bundle: stored,
		fields: catalogue.FieldValues(stored),
		text:   catalogue.SearchText(stored),
	}
	return nil
}

func (self *Memory) Delete(ctx context.Context, t catalogue.EntityType, id, catalogueId string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	k := key(t, id, catalogueId)
	if _, ok := self.bundles[k]; !ok {
		return catalogue.NotFound("%s %s in catalogue %s", t, id, catalogueId)
	}
	delete(self.bundles, k)
	return nil
}

func (self *Memory) matches(v *indexed, filter *FacetFilter) bool {
	if len(filter.ResourceTypes) > 0 && !slices.Contains(filter.ResourceTypes, v.bundle.Type) {
		return false
	}

	if filter.Keyword != "" && !strings.Contains(v.text, strings.ToLower(filter.Keyword)) {
		return false
	}

	for _, f := range filter.filters {
		if !slices.ContainsFunc(v.fields[f.Key], func(value string) bool {
			return slices.Contains(f.Values, value)
		}) {
			return false
		}
	}
	return true
}

func firstValue(v *indexed, field string) string {
	values := v.fields[field]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (self *Memory) Query(ctx context.Context, filter *FacetFilter) (out *Paging, err error) {
	if filter == nil {
		filter = NewFacetFilter()
	}

	self.mtx.RLock()
	matched := make([]*indexed, 0, len(self.bundles))
	for _, v := range self.bundles {
		if self.matches(v, filter) {
			matched = append(matched, v)
		}
	}
	self.mtx.RUnlock()

	orderField := filter.OrderBy.Field
	if orderField == "" {
		orderField = string(catalogue.FieldName)
	}
	slices.SortFunc(matched, func(a, b *indexed) int {
		c := cmp.Compare(firstValue(a, orderField), firstValue(b, orderField))
		if filter.OrderBy.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.bundle.Key(), b.bundle.Key())
	})

	from := max(filter.From, 0)
	out = &Paging{
		Total:   len(matched),
		From:    from,
		Results: []*catalogue.Bundle{},
		Facets:  aggregate(matched, filter.BrowseBy),
	}

	if from < len(matched) && filter.Quantity > 0 {
		end := min(from+filter.Quantity, len(matched))
		for _, v := range matched[from:end] {
			out.Results = append(out.Results, v.bundle.Clone())
		}
	}
	out.To = out.From + len(out.Results)
	return
}

func aggregate(matched []*indexed, browseBy []string) []Facet {
	facets := make([]Facet, 0, len(browseBy))
	for _, field := range browseBy {
		counts := make(map[string]int)
		for _, v := range matched {
			// Every record counts once per distinct value
			seen := make(map[string]bool)
			for _, value := range v.fields[field] {
				if !seen[value] {
					seen[value] = true
					counts[value]++
				}
			}
		}
		facets = append(facets, Facet{Field: field, Values: sortedValues(counts)})
	}
	return facets
}

// Most frequent values first
func sortedValues(counts map[string]int) []Value {
	values := make([]Value, 0, len(counts))
	for value, count := range counts {
		values = append(values, Value{Value: value, Count: count})
	}
	slices.SortFunc(values, func(a, b Value) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	return values
}
