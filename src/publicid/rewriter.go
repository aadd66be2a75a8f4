package publicid

import (
	"context"
	"strings"

	"github.com/catalogue-registry/registry/src/catalogue"
)

// CatalogueResolver finds the catalogue a referenced draft entity belongs to
type CatalogueResolver interface {
	CatalogueOf(ctx context.Context, t catalogue.EntityType, id string) (catalogueId string, ok bool)

	// IsCatalogue tells if records are kept under the catalogue
	IsCatalogue(ctx context.Context, catalogueId string) bool
}

type refFunc func(target catalogue.EntityType, id string) string

func refs(ref refFunc, target catalogue.EntityType, ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = ref(target, id)
	}
	return out
}

// Embedded references per type. Providers reference nothing, their users are copied as they are.
var table = map[catalogue.EntityType]func(catalogue.Payload, refFunc){
	catalogue.TypeService: func(p catalogue.Payload, ref refFunc) {
		v := p.(*catalogue.Service)
		v.ResourceOrganisation = ref(catalogue.TypeProvider, v.ResourceOrganisation)
		v.ResourceProviders = refs(ref, catalogue.TypeProvider, v.ResourceProviders)
		v.RelatedResources = refs(ref, catalogue.TypeService, v.RelatedResources)
		v.RequiredResources = refs(ref, catalogue.TypeService, v.RequiredResources)
	},
	catalogue.TypeTrainingResource: func(p catalogue.Payload, ref refFunc) {
		v := p.(*catalogue.TrainingResource)
		v.ResourceOrganisation = ref(catalogue.TypeProvider, v.ResourceOrganisation)
		v.ResourceProviders = refs(ref, catalogue.TypeProvider, v.ResourceProviders)
		v.EOSCRelatedServices = refs(ref, catalogue.TypeService, v.EOSCRelatedServices)
	},
	catalogue.TypeDatasource: func(p catalogue.Payload, ref refFunc) {
		v := p.(*catalogue.Datasource)
		v.ServiceId = ref(catalogue.TypeService, v.ServiceId)
	},
	catalogue.TypeHelpdesk: func(p catalogue.Payload, ref refFunc) {
		v := p.(*catalogue.Helpdesk)
		v.ServiceId = ref(catalogue.TypeService, v.ServiceId)
	},
	catalogue.TypeMonitoring: func(p catalogue.Payload, ref refFunc) {
		v := p.(*catalogue.Monitoring)
		v.ServiceId = ref(catalogue.TypeService, v.ServiceId)
	},
	catalogue.TypeInteroperabilityRecord: func(p catalogue.Payload, ref refFunc) {
		v := p.(*catalogue.InteroperabilityRecord)
		v.ProviderId = ref(catalogue.TypeProvider, v.ProviderId)
	},
	catalogue.TypeResourceInteroperabilityRecord: func(p catalogue.Payload, ref refFunc) {
		v := p.(*catalogue.ResourceInteroperabilityRecord)
		v.ResourceId = ref(catalogue.TypeService, v.ResourceId)
		v.InteroperabilityRecordIds = refs(ref, catalogue.TypeInteroperabilityRecord, v.InteroperabilityRecordIds)
	},
}

// Rewriter points the references embedded in a payload at public ids
type Rewriter struct {
	resolver CatalogueResolver
}

func NewRewriter() *Rewriter {
	return new(Rewriter)
}

func (self *Rewriter) WithResolver(v CatalogueResolver) *Rewriter {
	self.resolver = v
	return self
}

// RewriteReferences modifies the bundle's payload in place. Every reference is prefixed with
// the catalogue of the referenced entity, or the owner's catalogue when it can't be resolved.
// References that already carry the prefix of a known catalogue are kept, so rewriting twice changes nothing.
func (self *Rewriter) RewriteReferences(ctx context.Context, b *catalogue.Bundle) {
	if b.Payload == nil {
		return
	}

	apply, ok := table[b.Type]
	if !ok {
		return
	}

	apply(b.Payload, func(target catalogue.EntityType, id string) string {
		if id == "" || IsPublic(b.CatalogueId, id) || self.resolver == nil {
			return ToPublicId(b.CatalogueId, id)
		}
		if resolved, found := self.resolver.CatalogueOf(ctx, target, id); found {
			return ToPublicId(resolved, id)
		}
		// Already rewritten into another catalogue
		if prefix, _, found := strings.Cut(id, Separator); found && self.resolver.IsCatalogue(ctx, prefix) {
			return id
		}
		return ToPublicId(b.CatalogueId, id)
	})
}
