package catalogue

import "slices"

// Payload is the domain record carried by a Bundle
type Payload interface {
	Type() EntityType
	GetId() string
	SetId(string)
	GetCatalogueId() string
	SetCatalogueId(string)
	GetName() string
	Clone() Payload
}

// ServiceExtension is a payload attached to exactly one service
type ServiceExtension interface {
	Payload
	GetServiceId() string
	SetServiceId(string)
}

func NewPayload(t EntityType) (Payload, error) {
	switch t {
	case TypeProvider:
		return new(Provider), nil
	case TypeService:
		return new(Service), nil
	case TypeDatasource:
		return new(Datasource), nil
	case TypeTrainingResource:
		return new(TrainingResource), nil
	case TypeInteroperabilityRecord:
		return new(InteroperabilityRecord), nil
	case TypeResourceInteroperabilityRecord:
		return new(ResourceInteroperabilityRecord), nil
	case TypeHelpdesk:
		return new(Helpdesk), nil
	case TypeMonitoring:
		return new(Monitoring), nil
	}
	return nil, Validation("unknown resource type %q", t)
}

type User struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
}

type Provider struct {
	Id           string   `json:"id"`
	CatalogueId  string   `json:"catalogueId"`
	Name         string   `json:"name"`
	Abbreviation string   `json:"abbreviation,omitempty"`
	Website      string   `json:"website,omitempty"`
	Description  string   `json:"description,omitempty"`
	LegalStatus  string   `json:"legalStatus,omitempty"`
	Country      string   `json:"country,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Users        []User   `json:"users,omitempty"`
}

func (self *Provider) Type() EntityType { return TypeProvider }
func (self *Provider) GetId() string { return self.Id }
func (self *Provider) SetId(v string) { self.Id = v }
func (self *Provider) GetCatalogueId() string { return self.CatalogueId }
func (self *Provider) SetCatalogueId(v string) { self.CatalogueId = v }
func (self *Provider) GetName() string { return self.Name }

func (self *Provider) Clone() Payload {
	out := *self
	out.Tags = slices.Clone(self.Tags)
	out.Users = slices.Clone(self.Users)
	return &out
}

// HasAdmin tells if email belongs to one of the provider's users
func (self *Provider) HasAdmin(email string) bool {
	if email == "" {
		return false
	}
	return slices.ContainsFunc(self.Users, func(u User) bool {
		return u.Email == email
	})
}

type AlternativeIdentifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Service struct {
	Id                     string                  `json:"id"`
	CatalogueId            string                  `json:"catalogueId"`
	Name                   string                  `json:"name"`
	Abbreviation           string                  `json:"abbreviation,omitempty"`
	ResourceOrganisation   string                  `json:"resourceOrganisation"`
	ResourceProviders      []string                `json:"resourceProviders,omitempty"`
	WebPage                string                  `json:"webpage,omitempty"`
	Description            string                  `json:"description,omitempty"`
	Tagline                string                  `json:"tagline,omitempty"`
	Version                string                  `json:"version,omitempty"`
	Categories             []string                `json:"categories,omitempty"`
	ScientificDomains      []string                `json:"scientificDomains,omitempty"`
	Languages              []string                `json:"languageAvailabilities,omitempty"`
	Trl                    string                  `json:"trl,omitempty"`
	LifeCycleStatus        string                  `json:"lifeCycleStatus,omitempty"`
	Tags                   []string                `json:"tags,omitempty"`
	RelatedResources       []string                `json:"relatedResources,omitempty"`
	RequiredResources      []string                `json:"requiredResources,omitempty"`
	AlternativeIdentifiers []AlternativeIdentifier `json:"alternativeIdentifiers,omitempty"`
}

func (self *Service) Type() EntityType { return TypeService }
func (self *Service) GetId() string { return self.Id }
func (self *Service) SetId(v string) { self.Id = v }
func (self *Service) GetCatalogueId() string { return self.CatalogueId }
func (self *Service) SetCatalogueId(v string) { self.CatalogueId = v }
func (self *Service) GetName() string { return self.Name }

func (self *Service) Clone() Payload {
	out := *self
	out.ResourceProviders = slices.Clone(self.ResourceProviders)
	out.Categories = slices.Clone(self.Categories)
	out.ScientificDomains = slices.Clone(self.ScientificDomains)
	out.Languages = slices.Clone(self.Languages)
	out.Tags = slices.Clone(self.Tags)
	out.RelatedResources = slices.Clone(self.RelatedResources)
	out.RequiredResources = slices.Clone(self.RequiredResources)
	out.AlternativeIdentifiers = slices.Clone(self.AlternativeIdentifiers)
	return &out
}

type Datasource struct {
	Id                       string   `json:"id"`
	CatalogueId              string   `json:"catalogueId"`
	ServiceId                string   `json:"serviceId"`
	JurisdictionType         string   `json:"jurisdiction,omitempty"`
	DatasourceClassification string   `json:"datasourceClassification,omitempty"`
	ResearchEntityTypes      []string `json:"researchEntityTypes,omitempty"`
	ThematicCatalogue        bool     `json:"thematic"`
}

func (self *Datasource) Type() EntityType { return TypeDatasource }
func (self *Datasource) GetId() string { return self.Id }
func (self *Datasource) SetId(v string) { self.Id = v }
func (self *Datasource) GetCatalogueId() string { return self.CatalogueId }
func (self *Datasource) SetCatalogueId(v string) { self.CatalogueId = v }
func (self *Datasource) GetName() string { return self.Id }
func (self *Datasource) GetServiceId() string { return self.ServiceId }
func (self *Datasource) SetServiceId(v string) { self.ServiceId = v }

func (self *Datasource) Clone() Payload {
	out := *self
	out.ResearchEntityTypes = slices.Clone(self.ResearchEntityTypes)
	return &out
}

type TrainingResource struct {
	Id                    string   `json:"id"`
	CatalogueId           string   `json:"catalogueId"`
	Title                 string   `json:"title"`
	ResourceOrganisation  string   `json:"resourceOrganisation"`
	ResourceProviders     []string `json:"resourceProviders,omitempty"`
	Description           string   `json:"description,omitempty"`
	Url                   string   `json:"url,omitempty"`
	Keywords              []string `json:"keywords,omitempty"`
	LearningResourceTypes []string `json:"learningResourceTypes,omitempty"`
	Languages             []string `json:"languages,omitempty"`
	ExpertiseLevel        string   `json:"expertiseLevel,omitempty"`
	ScientificDomains     []string `json:"scientificDomains,omitempty"`
	EOSCRelatedServices   []string `json:"eoscRelatedServices,omitempty"`
}

func (self *TrainingResource) Type() EntityType { return TypeTrainingResource }
func (self *TrainingResource) GetId() string { return self.Id }
func (self *TrainingResource) SetId(v string) { self.Id = v }
func (self *TrainingResource) GetCatalogueId() string { return self.CatalogueId }
func (self *TrainingResource) SetCatalogueId(v string) { self.CatalogueId = v }
func (self *TrainingResource) GetName() string { return self.Title }

func (self *TrainingResource) Clone() Payload {
	out := *self
	out.ResourceProviders = slices.Clone(self.ResourceProviders)
	out.Keywords = slices.Clone(self.Keywords)
	out.LearningResourceTypes = slices.Clone(self.LearningResourceTypes)
	out.Languages = slices.Clone(self.Languages)
	out.ScientificDomains = slices.Clone(self.ScientificDomains)
	out.EOSCRelatedServices = slices.Clone(self.EOSCRelatedServices)
	return &out
}

type InteroperabilityRecord struct {
	Id            string `json:"id"`
	CatalogueId   string `json:"catalogueId"`
	ProviderId    string `json:"providerId"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Domain        string `json:"domain,omitempty"`
	GuidelineType string `json:"eoscGuidelineType,omitempty"`
}

func (self *InteroperabilityRecord) Type() EntityType { return TypeInteroperabilityRecord }
func (self *InteroperabilityRecord) GetId() string { return self.Id }
func (self *InteroperabilityRecord) SetId(v string) { self.Id = v }
func (self *InteroperabilityRecord) GetCatalogueId() string { return self.CatalogueId }
func (self *InteroperabilityRecord) SetCatalogueId(v string) { self.CatalogueId = v }
func (self *InteroperabilityRecord) GetName() string { return self.Title }

func (self *InteroperabilityRecord) Clone() Payload {
	out := *self
	return &out
}

type ResourceInteroperabilityRecord struct {
	Id                        string   `json:"id"`
	CatalogueId               string   `json:"catalogueId"`
	ResourceId                string   `json:"resourceId"`
	InteroperabilityRecordIds []string `json:"interoperabilityRecordIds"`
}

func (self *ResourceInteroperabilityRecord) Type() EntityType {
	return TypeResourceInteroperabilityRecord
}
func (self *ResourceInteroperabilityRecord) GetId() string { return self.Id }
func (self *ResourceInteroperabilityRecord) SetId(v string) { self.Id = v }
func (self *ResourceInteroperabilityRecord) GetCatalogueId() string { return self.CatalogueId }
func (self *ResourceInteroperabilityRecord) SetCatalogueId(v string) { self.CatalogueId = v }
func (self *ResourceInteroperabilityRecord) GetName() string { return self.Id }

func (self *ResourceInteroperabilityRecord) Clone() Payload {
	out := *self
	out.InteroperabilityRecordIds = slices.Clone(self.InteroperabilityRecordIds)
	return &out
}

type Helpdesk struct {
	Id                 string   `json:"id"`
	CatalogueId        string   `json:"catalogueId"`
	ServiceId          string   `json:"serviceId"`
	HelpdeskType       string   `json:"helpdeskType,omitempty"`
	Emails             []string `json:"emails,omitempty"`
	WebformUrl         string   `json:"webform,omitempty"`
	TicketPreservation bool     `json:"ticketPreservation"`
}

func (self *Helpdesk) Type() EntityType { return TypeHelpdesk }
func (self *Helpdesk) GetId() string { return self.Id }
func (self *Helpdesk) SetId(v string) { self.Id = v }
func (self *Helpdesk) GetCatalogueId() string { return self.CatalogueId }
func (self *Helpdesk) SetCatalogueId(v string) { self.CatalogueId = v }
func (self *Helpdesk) GetName() string { return self.Id }
func (self *Helpdesk) GetServiceId() string { return self.ServiceId }
func (self *Helpdesk) SetServiceId(v string) { self.ServiceId = v }

func (self *Helpdesk) Clone() Payload {
	out := *self
	out.Emails = slices.Clone(self.Emails)
	return &out
}

type MonitoringGroup struct {
	ServiceType string `json:"serviceType"`
	Endpoint    string `json:"endpoint"`
}

type Monitoring struct {
	Id               string            `json:"id"`
	CatalogueId      string            `json:"catalogueId"`
	ServiceId        string            `json:"serviceId"`
	MonitoredBy      string            `json:"monitoredBy,omitempty"`
	MonitoringGroups []MonitoringGroup `json:"monitoringGroups,omitempty"`
}

func (self *Monitoring) Type() EntityType { return TypeMonitoring }
func (self *Monitoring) GetId() string { return self.Id }
func (self *Monitoring) SetId(v string) { self.Id = v }
func (self *Monitoring) GetCatalogueId() string { return self.CatalogueId }
func (self *Monitoring) SetCatalogueId(v string) { self.CatalogueId = v }
func (self *Monitoring) GetName() string { return self.Id }
func (self *Monitoring) GetServiceId() string { return self.ServiceId }
func (self *Monitoring) SetServiceId(v string) { self.ServiceId = v }

func (self *Monitoring) Clone() Payload {
	out := *self
	out.MonitoringGroups = slices.Clone(self.MonitoringGroups)
	return &out
}

// ProviderOf returns the id of the provider owning the payload, if any
func ProviderOf(p Payload) string {
	switch v := p.(type) {
	case *Service:
		return v.ResourceOrganisation
	case *TrainingResource:
		return v.ResourceOrganisation
	case *InteroperabilityRecord:
		return v.ProviderId
	}
	return ""
}
