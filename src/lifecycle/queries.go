package lifecycle

import (
	"cmp"
	"context"
	"math/rand"
	"slices"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/security"
	"github.com/catalogue-registry/registry/src/store"
)

const undefinedGroup = "undefined"

// ProviderCanAddResources tells if the subject may add resources to the provider.
// Administrators of an approved, active provider always can. A provider that has never had a
// template may get exactly one: a second attempt is a conflict.
func (self *Manager) ProviderCanAddResources(ctx context.Context, subject *security.Subject, providerId, catalogueId string) (bool, error) {
	ok, err := self.providerCanAddResources(ctx, subject, providerId, self.catalogueOrDefault(catalogueId))
	return ok, self.fail(err)
}

func (self *Manager) providerCanAddResources(ctx context.Context, subject *security.Subject, providerId, catalogueId string) (bool, error) {
	provider, err := self.get(ctx, catalogue.TypeProvider, providerId, catalogueId)
	if err != nil {
		return false, err
	}

	if !self.authority.IsProviderAdmin(ctx, subject, providerId, catalogueId) {
		return false, nil
	}

	if provider.Status == catalogue.StatusApprovedProvider && provider.Active {
		return true, nil
	}

	if provider.TemplateStatus != catalogue.TemplateStatusNone {
		return false, nil
	}

	resources, err := self.drafts.Query(ctx, self.providerResources(providerId, catalogueId))
	if err != nil {
		return false, err
	}
	if resources.Total == 0 {
		return true, nil
	}
	return false, catalogue.Conflict("provider %s already has a resource template", providerId)
}

func (self *Manager) providerResources(providerId, catalogueId string) *store.FacetFilter {
	ff := store.NewFacetFilter().
		AddFilter(string(catalogue.FieldResourceOrganisation), providerId).
		AddFilter(string(catalogue.FieldCatalogueId), catalogueId)
	ff.ResourceTypes = []catalogue.EntityType{catalogue.TypeService, catalogue.TypeTrainingResource}
	return ff
}

// GetRandomResources samples approved drafts that are due for an audit: never audited, or audited more than
// intervalMonths ago. The sample is shuffled, only its size is fixed.
func (self *Manager) GetRandomResources(ctx context.Context, subject *security.Subject, t catalogue.EntityType, quantity, intervalMonths int) (out []*catalogue.Bundle, err error) {
	if !catalogue.HasWorkflow(t) {
		return nil, self.fail(catalogue.Validation("%s records aren't audited", t))
	}
	if quantity < 0 {
		return nil, self.fail(catalogue.Validation("negative quantity %d", quantity))
	}
	if intervalMonths <= 0 {
		intervalMonths = self.config.Registry.AuditIntervalMonths
	}

	ff := store.NewFacetFilter().
		AddFilter(string(catalogue.FieldStatus), catalogue.ApprovedStatus(t)).
		AddFilter(string(catalogue.FieldPublished), "false")
	ff.ResourceTypes = []catalogue.EntityType{t}

	threshold := self.now().AddDate(0, -intervalMonths, 0)
	err = store.Walk(ctx, self.drafts, ff, self.config.Registry.MaxQuantity, func(b *catalogue.Bundle) error {
		if b.LatestAuditInfo == nil || b.LatestAuditInfo.Date.Before(threshold) {
			out = append(out, b)
		}
		return nil
	})
	if err != nil {
		return nil, self.fail(err)
	}

	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	if len(out) > quantity {
		out = out[:quantity]
	}
	return
}

// GetBy groups drafts of the type by the values of an index field.
// Multi-valued fields put a draft in every group it has a value for; drafts without a value go to "undefined".
func (self *Manager) GetBy(ctx context.Context, subject *security.Subject, t catalogue.EntityType, field catalogue.Field) (out map[string][]*catalogue.Bundle, err error) {
	f, ok := catalogue.LookupField(t, field)
	if !ok {
		return nil, self.fail(catalogue.Validation("%s records can't be grouped by %q", t, field))
	}

	ff := store.NewFacetFilter().AddFilter(string(catalogue.FieldPublished), "false")
	ff.ResourceTypes = []catalogue.EntityType{t}
	ff.OrderBy = store.OrderBy{Field: string(catalogue.FieldName)}
	if !security.IsPrivileged(self.authority, subject) {
		ff.AddFilter(string(catalogue.FieldActive), "true")
	}

	out = make(map[string][]*catalogue.Bundle)
	err = store.Walk(ctx, self.drafts, ff, self.config.Registry.MaxQuantity, func(b *catalogue.Bundle) error {
		values := f.Extract(b)
		if len(values) == 0 {
			values = []string{undefinedGroup}
		}
		for _, v := range values {
			out[v] = append(out[v], b)
		}
		return nil
	})
	if err != nil {
		return nil, self.fail(err)
	}
	return
}

// GetInactiveResources lists the provider's resources that aren't visible to the public, by name
func (self *Manager) GetInactiveResources(ctx context.Context, subject *security.Subject, providerId, catalogueId string) (out []*catalogue.Bundle, err error) {
	catalogueId = self.catalogueOrDefault(catalogueId)

	if !security.IsAdmin(self.authority, subject) && !self.authority.IsProviderAdmin(ctx, subject, providerId, catalogueId) {
		return nil, self.fail(catalogue.Unauthorized("not an administrator of provider %s", providerId))
	}

	ff := self.providerResources(providerId, catalogueId).AddFilter(string(catalogue.FieldActive), "false")
	ff.OrderBy = store.OrderBy{Field: string(catalogue.FieldName)}

	out, err = store.All(ctx, self.drafts, ff, self.config.Registry.MaxQuantity)
	if err != nil {
		return nil, self.fail(err)
	}
	return
}

// GetResourceTemplate returns the provider's resource still waiting for its first review
func (self *Manager) GetResourceTemplate(ctx context.Context, subject *security.Subject, providerId, catalogueId string) (*catalogue.Bundle, error) {
	catalogueId = self.catalogueOrDefault(catalogueId)

	ff := self.providerResources(providerId, catalogueId).
		AddFilter(string(catalogue.FieldStatus), catalogue.StatusPendingResource)
	ff.Quantity = 1

	paging, err := self.drafts.Query(ctx, ff)
	if err != nil {
		return nil, self.fail(err)
	}
	if len(paging.Results) == 0 {
		return nil, self.fail(catalogue.NotFound("provider %s has no resource template", providerId))
	}
	return paging.Results[0], nil
}

// GetMy lists drafts of the type belonging to providers the subject administers
func (self *Manager) GetMy(ctx context.Context, subject *security.Subject, t catalogue.EntityType) (out []*catalogue.Bundle, err error) {
	email := subjectEmail(subject)
	if email == "" {
		return nil, self.fail(catalogue.Unauthorized("anonymous users administer nothing"))
	}

	ff := store.NewFacetFilter()
	ff.ResourceTypes = []catalogue.EntityType{catalogue.TypeProvider}
	ff.OrderBy = store.OrderBy{Field: string(catalogue.FieldName)}

	var providers []*catalogue.Bundle
	err = store.Walk(ctx, self.drafts, ff, self.config.Registry.MaxQuantity, func(b *catalogue.Bundle) error {
		if b.Payload.(*catalogue.Provider).HasAdmin(email) {
			providers = append(providers, b)
		}
		return nil
	})
	if err != nil {
		return nil, self.fail(err)
	}

	var field catalogue.Field
	switch t {
	case catalogue.TypeProvider:
		return providers, nil
	case catalogue.TypeService, catalogue.TypeTrainingResource:
		field = catalogue.FieldResourceOrganisation
	case catalogue.TypeInteroperabilityRecord:
		field = catalogue.FieldProviderId
	default:
		return nil, self.fail(catalogue.Validation("%s records aren't owned by providers", t))
	}

	for _, provider := range providers {
		ff := store.NewFacetFilter().
			AddFilter(string(field), provider.Id).
			AddFilter(string(catalogue.FieldCatalogueId), provider.CatalogueId)
		ff.ResourceTypes = []catalogue.EntityType{t}

		var owned []*catalogue.Bundle
		owned, err = store.All(ctx, self.drafts, ff, self.config.Registry.MaxQuantity)
		if err != nil {
			return nil, self.fail(err)
		}
		out = append(out, owned...)
	}
	return
}

// LoggingHistory returns the logging entries of a draft, most recent first
func (self *Manager) LoggingHistory(ctx context.Context, subject *security.Subject, t catalogue.EntityType, id, catalogueId string) ([]catalogue.LoggingInfo, error) {
	b, err := self.get(ctx, t, id, catalogueId)
	if err != nil {
		return nil, self.fail(err)
	}

	out := slices.Clone(b.LoggingInfo)
	slices.SortStableFunc(out, func(a, b catalogue.LoggingInfo) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})
	return out, nil
}
