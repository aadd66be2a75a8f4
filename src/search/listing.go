package search

import (
	"slices"

	"github.com/catalogue-registry/registry/src/catalogue"
)

// Listing merged from services and training resources
const ListingResource = "resource"

// Listing is a browsable collection of one or more entity types
type Listing struct {
	Name  string
	Types []catalogue.EntityType

	// Facets offered for this listing. Fixed for the process lifetime.
	BrowseBy []string

	labels map[string]string
}

func NewListing(name string, types ...catalogue.EntityType) (self *Listing) {
	self = new(Listing)
	self.Name = name
	self.Types = types
	self.BrowseBy = ComputeBrowseBy(types)

	self.labels = map[string]string{
		string(catalogue.FieldResourceType): "Resource Type",
	}
	for _, t := range types {
		for _, f := range catalogue.IndexFields(t) {
			if _, ok := self.labels[string(f.Name)]; !ok && f.IsFacet() {
				self.labels[string(f.Name)] = f.Label
			}
		}
	}
	return
}

// Label of a facet field, empty for unknown fields
func (self *Listing) Label(field string) string {
	return self.labels[field]
}

// ComputeBrowseBy returns the labelled index fields present in every one of the types,
// plus the resourceType pseudo-facet, sorted.
func ComputeBrowseBy(types []catalogue.EntityType) []string {
	if len(types) == 0 {
		return []string{string(catalogue.FieldResourceType)}
	}

	counts := make(map[string]int)
	for _, t := range types {
		seen := make(map[string]bool)
		for _, f := range catalogue.IndexFields(t) {
			if !f.IsFacet() || seen[string(f.Name)] {
				continue
			}
			seen[string(f.Name)] = true
			counts[string(f.Name)]++
		}
	}

	out := []string{string(catalogue.FieldResourceType)}
	for name, count := range counts {
		if count == len(types) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// DefaultListings returns one listing per entity type and the merged resource listing
func DefaultListings() map[string]*Listing {
	out := make(map[string]*Listing, len(catalogue.EntityTypes)+1)
	for _, t := range catalogue.EntityTypes {
		out[string(t)] = NewListing(string(t), t)
	}
	out[ListingResource] = NewListing(ListingResource, catalogue.TypeService, catalogue.TypeTrainingResource)
	return out
}
