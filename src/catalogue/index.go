package catalogue

import (
	"strconv"
	"strings"
)

// Field is the name of an indexed, filterable attribute
type Field string

const (
	FieldResourceType              Field = "resourceType"
	FieldInternalId                Field = "resource_internal_id"
	FieldCatalogueId               Field = "catalogue_id"
	FieldStatus                    Field = "status"
	FieldTemplateStatus            Field = "template_status"
	FieldActive                    Field = "active"
	FieldPublished                 Field = "published"
	FieldName                      Field = "name"
	FieldCountry                   Field = "country"
	FieldLegalStatus               Field = "legal_status"
	FieldTags                      Field = "tags"
	FieldResourceOrganisation      Field = "resource_organisation"
	FieldResourceProviders         Field = "resource_providers"
	FieldCategories                Field = "categories"
	FieldScientificDomains         Field = "scientific_domains"
	FieldLanguages                 Field = "languages"
	FieldTrl                       Field = "trl"
	FieldLifeCycleStatus           Field = "life_cycle_status"
	FieldExpertiseLevel            Field = "expertise_level"
	FieldLearningResourceTypes     Field = "learning_resource_types"
	FieldServiceId                 Field = "service_id"
	FieldDatasourceClassification  Field = "datasource_classification"
	FieldResearchEntityTypes       Field = "research_entity_types"
	FieldThematic                  Field = "thematic"
	FieldProviderId                Field = "provider_id"
	FieldDomain                    Field = "domain"
	FieldGuidelineType             Field = "eosc_guideline_type"
	FieldResourceId                Field = "resource_id"
	FieldInteroperabilityRecordIds Field = "interoperability_record_ids"
	FieldHelpdeskType              Field = "helpdesk_type"
	FieldMonitoredBy               Field = "monitored_by"
	FieldServiceTypes              Field = "service_types"
)

// IndexField describes how one field of a bundle is indexed.
// Fields with an empty Label are filterable but never offered as facets.
type IndexField struct {
	Name    Field
	Label   string
	Extract func(*Bundle) []string
}

func (self IndexField) IsFacet() bool {
	return self.Label != ""
}

func one(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

func many(v []string) []string {
	return v
}

// field binds an extractor to payloads of a concrete type
func field[P Payload](name Field, label string, get func(P) []string) IndexField {
	return IndexField{
		Name:  name,
		Label: label,
		Extract: func(b *Bundle) []string {
			p, ok := b.Payload.(P)
			if !ok {
				return nil
			}
			return get(p)
		},
	}
}

var commonFields = []IndexField{
	{Name: FieldResourceType, Extract: func(b *Bundle) []string { return one(string(b.Type)) }},
	{Name: FieldInternalId, Extract: func(b *Bundle) []string { return one(b.Id) }},
	{Name: FieldCatalogueId, Label: "Catalogue", Extract: func(b *Bundle) []string { return one(b.CatalogueId) }},
	{Name: FieldStatus, Extract: func(b *Bundle) []string { return one(b.Status) }},
	{Name: FieldTemplateStatus, Extract: func(b *Bundle) []string { return one(b.TemplateStatus) }},
	{Name: FieldActive, Extract: func(b *Bundle) []string { return []string{strconv.FormatBool(b.Active)} }},
	{Name: FieldPublished, Extract: func(b *Bundle) []string { return []string{strconv.FormatBool(b.Metadata.Published)} }},
	{Name: FieldName, Extract: func(b *Bundle) []string {
		if b.Payload == nil {
			return nil
		}
		return one(b.Payload.GetName())
	}},
}

var typeFields = map[EntityType][]IndexField{
	TypeProvider: {
		field(FieldCountry, "Country", func(p *Provider) []string { return one(p.Country) }),
		field(FieldLegalStatus, "Legal Status", func(p *Provider) []string { return one(p.LegalStatus) }),
		field(FieldTags, "Tags", func(p *Provider) []string { return many(p.Tags) }),
	},
	TypeService: {
		field(FieldResourceOrganisation, "Resource Organisation", func(p *Service) []string { return one(p.ResourceOrganisation) }),
		field(FieldResourceProviders, "Resource Providers", func(p *Service) []string { return many(p.ResourceProviders) }),
		field(FieldCategories, "Categories", func(p *Service) []string { return many(p.Categories) }),
		field(FieldScientificDomains, "Scientific Domains", func(p *Service) []string { return many(p.ScientificDomains) }),
		field(FieldLanguages, "Languages", func(p *Service) []string { return many(p.Languages) }),
		field(FieldTrl, "TRL", func(p *Service) []string { return one(p.Trl) }),
		field(FieldLifeCycleStatus, "Life Cycle Status", func(p *Service) []string { return one(p.LifeCycleStatus) }),
		field(FieldTags, "Tags", func(p *Service) []string { return many(p.Tags) }),
	},
	TypeTrainingResource: {
		field(FieldResourceOrganisation, "Resource Organisation", func(p *TrainingResource) []string { return one(p.ResourceOrganisation) }),
		field(FieldResourceProviders, "Resource Providers", func(p *TrainingResource) []string { return many(p.ResourceProviders) }),
		field(FieldScientificDomains, "Scientific Domains", func(p *TrainingResource) []string { return many(p.ScientificDomains) }),
		field(FieldLanguages, "Languages", func(p *TrainingResource) []string { return many(p.Languages) }),
		field(FieldExpertiseLevel, "Expertise Level", func(p *TrainingResource) []string { return one(p.ExpertiseLevel) }),
		field(FieldLearningResourceTypes, "Learning Resource Types", func(p *TrainingResource) []string { return many(p.LearningResourceTypes) }),
		field(FieldTags, "Tags", func(p *TrainingResource) []string { return many(p.Keywords) }),
	},
	TypeDatasource: {
		field(FieldServiceId, "", func(p *Datasource) []string { return one(p.ServiceId) }),
		field(FieldDatasourceClassification, "Datasource Classification", func(p *Datasource) []string { return one(p.DatasourceClassification) }),
		field(FieldResearchEntityTypes, "Research Entity Types", func(p *Datasource) []string { return many(p.ResearchEntityTypes) }),
		field(FieldThematic, "Thematic", func(p *Datasource) []string { return []string{strconv.FormatBool(p.ThematicCatalogue)} }),
	},
	TypeInteroperabilityRecord: {
		field(FieldProviderId, "", func(p *InteroperabilityRecord) []string { return one(p.ProviderId) }),
		field(FieldDomain, "Domain", func(p *InteroperabilityRecord) []string { return one(p.Domain) }),
		field(FieldGuidelineType, "Guideline Type", func(p *InteroperabilityRecord) []string { return one(p.GuidelineType) }),
	},
	TypeResourceInteroperabilityRecord: {
		field(FieldResourceId, "", func(p *ResourceInteroperabilityRecord) []string { return one(p.ResourceId) }),
		field(FieldInteroperabilityRecordIds, "", func(p *ResourceInteroperabilityRecord) []string { return many(p.InteroperabilityRecordIds) }),
	},
	TypeHelpdesk: {
		field(FieldServiceId, "", func(p *Helpdesk) []string { return one(p.ServiceId) }),
		field(FieldHelpdeskType, "Helpdesk Type", func(p *Helpdesk) []string { return one(p.HelpdeskType) }),
	},
	TypeMonitoring: {
		field(FieldServiceId, "", func(p *Monitoring) []string { return one(p.ServiceId) }),
		field(FieldMonitoredBy, "Monitored By", func(p *Monitoring) []string { return one(p.MonitoredBy) }),
		field(FieldServiceTypes, "Service Types", func(p *Monitoring) (out []string) {
			for _, g := range p.MonitoringGroups {
				out = append(out, g.ServiceType)
			}
			return
		}),
	},
}

// IndexFields returns the fields indexed for the type, common fields first
func IndexFields(t EntityType) []IndexField {
	out := make([]IndexField, 0, len(commonFields)+len(typeFields[t]))
	out = append(out, commonFields...)
	return append(out, typeFields[t]...)
}

func LookupField(t EntityType, name Field) (IndexField, bool) {
	for _, f := range IndexFields(t) {
		if f.Name == name {
			return f, true
		}
	}
	return IndexField{}, false
}

// FieldValues evaluates every index field of the bundle. Fields without values are omitted.
func FieldValues(b *Bundle) map[string][]string {
	out := make(map[string][]string)
	for _, f := range IndexFields(b.Type) {
		values := f.Extract(b)
		if len(values) == 0 {
			continue
		}
		out[string(f.Name)] = values
	}
	return out
}

// SearchText is the lower-cased text keyword queries are matched against
func SearchText(b *Bundle) string {
	parts := []string{b.Id}
	if b.Payload != nil {
		parts = append(parts, b.Payload.GetName())
	}
	switch p := b.Payload.(type) {
	case *Provider:
		parts = append(parts, p.Abbreviation, p.Description)
	case *Service:
		parts = append(parts, p.Abbreviation, p.Tagline, p.Description)
	case *TrainingResource:
		parts = append(parts, p.Description)
	case *InteroperabilityRecord:
		parts = append(parts, p.Description)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
