// Package search runs faceted queries and corrects the facet of the most recently applied filter.
package search

import (
	"context"
	"strings"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/security"
	"github.com/catalogue-registry/registry/src/store"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/logger"
	"github.com/catalogue-registry/registry/src/utils/monitoring"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"

	"github.com/iancoleman/strcase"
	"github.com/sirupsen/logrus"
)

type Engine struct {
	config *config.Config
	log    *logrus.Entry

	monitor   monitoring.Monitor
	authority security.Authority

	// Privileged subjects browse drafts, everybody else the public mirrors
	drafts store.Store
	public store.Store

	listings map[string]*Listing
}

func NewEngine(config *config.Config) (self *Engine) {
	self = new(Engine)
	// Local counters until a shared monitor is set
	self.monitor = monitor_registry.NewMonitor()
	self.config = config
	self.log = logger.NewSublogger("search")
	self.listings = DefaultListings()
	return
}

func (self *Engine) WithMonitor(v monitoring.Monitor) *Engine {
	self.monitor = v
	return self
}

func (self *Engine) WithAuthority(v security.Authority) *Engine {
	self.authority = v
	return self
}

func (self *Engine) WithDraftStore(v store.Store) *Engine {
	self.drafts = v
	return self
}

func (self *Engine) WithPublicStore(v store.Store) *Engine {
	self.public = v
	return self
}

func (self *Engine) Listing(name string) (*Listing, error) {
	listing, ok := self.listings[name]
	if !ok {
		return nil, catalogue.NotFound("listing %q", name)
	}
	return listing, nil
}

func (self *Engine) storeFor(privileged bool) store.Store {
	if privileged || self.public == nil {
		return self.drafts
	}
	return self.public
}

// Browse queries the listing with the caller's filter. Subjects without the provider, EPOT or admin role
// only see active records, whatever they asked for. The caller's filter is never modified.
func (self *Engine) Browse(ctx context.Context, listingName string, ff *store.FacetFilter, subject *security.Subject) (out *store.Paging, err error) {
	listing, err := self.Listing(listingName)
	if err != nil {
		return
	}

	if ff == nil {
		ff = store.NewFacetFilter()
	}
	if ff.From < 0 || ff.Quantity < 0 {
		return nil, catalogue.Validation("from and quantity can't be negative, got %d and %d", ff.From, ff.Quantity)
	}
	filter := ff.Clone()
	filter.ResourceTypes = listing.Types
	if len(filter.BrowseBy) == 0 {
		filter.BrowseBy = listing.BrowseBy
	}
	if filter.Quantity > self.config.Registry.MaxQuantity {
		filter.Quantity = self.config.Registry.MaxQuantity
	}

	privileged := security.IsPrivileged(self.authority, subject)
	if !privileged {
		filter.RemoveFilter(string(catalogue.FieldActive)).
			AddFilter(string(catalogue.FieldActive), "true")
		self.monitor.GetReport().Search.State.AnonymousQueries.Inc()
	}

	self.monitor.GetReport().Search.State.Queries.Inc()

	st := self.storeFor(privileged)
	out, err = st.Query(ctx, filter)
	if err != nil {
		self.monitor.GetReport().Search.Errors.Query.Inc()
		self.log.WithError(err).WithField("listing", listingName).Error("Failed to query store")
		return
	}

	out, err = self.CreateCorrectFacets(ctx, st, out, filter)
	if err != nil {
		self.monitor.GetReport().Search.Errors.Query.Inc()
		return
	}

	labelFacets(listing, out.Facets)
	return
}

// CreateCorrectFacets recomputes the facet of the most recently applied filter (other than active)
// without that filter, so it lists every value the user could switch to. Facets without values are dropped.
func (self *Engine) CreateCorrectFacets(ctx context.Context, st store.Store, paging *store.Paging, ff *store.FacetFilter) (out *store.Paging, err error) {
	out = paging
	keys := ff.Keys()

	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		if key == string(catalogue.FieldActive) {
			continue
		}

		reduced := ff.Clone().RemoveFilter(key)
		reduced.From = 0
		reduced.Quantity = 0
		reduced.BrowseBy = []string{key}

		var corrected *store.Paging
		corrected, err = st.Query(ctx, reduced)
		if err != nil {
			return
		}

		for j := range out.Facets {
			if out.Facets[j].Field != key {
				continue
			}
			for _, facet := range corrected.Facets {
				if facet.Field == key {
					out.Facets[j] = facet
					self.monitor.GetReport().Search.State.FacetCorrections.Inc()
					break
				}
			}
			break
		}

		// Only the innermost filter is corrected
		break
	}

	facets := out.Facets[:0]
	for _, facet := range out.Facets {
		if len(facet.Values) > 0 {
			facets = append(facets, facet)
		}
	}
	out.Facets = facets
	return
}

func labelFacets(listing *Listing, facets []store.Facet) {
	for i := range facets {
		facets[i].Label = listing.Label(facets[i].Field)
		for j := range facets[i].Values {
			value := &facets[i].Values[j]
			if facets[i].Field == string(catalogue.FieldResourceType) {
				// training_resource -> Training Resource
				value.Label = titleWords(strcase.ToDelimited(value.Value, ' '))
				continue
			}
			if value.Label == "" {
				value.Label = value.Value
			}
		}
	}
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
