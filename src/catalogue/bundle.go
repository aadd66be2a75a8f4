package catalogue

import (
	"encoding/json"
	"slices"
	"time"
)

type Metadata struct {
	RegisteredBy string    `json:"registeredBy,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
	ModifiedBy   string    `json:"modifiedBy,omitempty"`
	ModifiedAt   time.Time `json:"modifiedAt"`

	// Set only on public mirror records
	Published bool `json:"published"`
}

type Identifiers struct {
	// Id of the draft the public mirror was created from
	OriginalId string `json:"originalId,omitempty"`
}

// Guideline is an EOSC Interoperability Framework guideline attached to a resource
type Guideline struct {
	Pid                  string `json:"pid"`
	Label                string `json:"label,omitempty"`
	Url                  string `json:"url,omitempty"`
	SemanticRelationship string `json:"semanticRelationship,omitempty"`
}

type Extras struct {
	EOSCIFGuidelines []Guideline `json:"eoscIFGuidelines,omitempty"`
}

// Bundle is the unit of storage: payload plus status and audit bookkeeping
type Bundle struct {
	Id             string     `json:"id"`
	Type           EntityType `json:"resourceType"`
	CatalogueId    string     `json:"catalogueId"`
	Status         string     `json:"status,omitempty"`
	TemplateStatus string     `json:"templateStatus,omitempty"`
	Active         bool       `json:"active"`

	Metadata    Metadata      `json:"metadata"`
	Identifiers Identifiers   `json:"identifiers"`
	LoggingInfo []LoggingInfo `json:"loggingInfo,omitempty"`

	LatestOnboardingInfo *LoggingInfo `json:"latestOnboardingInfo,omitempty"`
	LatestUpdateInfo     *LoggingInfo `json:"latestUpdateInfo,omitempty"`
	LatestAuditInfo      *LoggingInfo `json:"latestAuditInfo,omitempty"`

	Extras Extras `json:"extras"`

	Payload Payload `json:"-"`
}

func NewBundle(payload Payload) (self *Bundle) {
	self = new(Bundle)
	self.Payload = payload
	self.Type = payload.Type()
	self.Id = payload.GetId()
	self.CatalogueId = payload.GetCatalogueId()
	return
}

// Key identifies the bundle within its namespace
func (self *Bundle) Key() string {
	return string(self.Type) + "/" + self.CatalogueId + "/" + self.Id
}

// SetId keeps the bundle and payload ids equal
func (self *Bundle) SetId(id string) {
	self.Id = id
	if self.Payload != nil {
		self.Payload.SetId(id)
	}
}

func (self *Bundle) SetCatalogueId(catalogueId string) {
	self.CatalogueId = catalogueId
	if self.Payload != nil {
		self.Payload.SetCatalogueId(catalogueId)
	}
}

// AppendLog adds an entry and moves the matching latest pointer
func (self *Bundle) AppendLog(entry LoggingInfo) {
	self.LoggingInfo = append(self.LoggingInfo, entry)
	self.refreshLatest()
}

func (self *Bundle) refreshLatest() {
	self.LatestOnboardingInfo = nil
	self.LatestUpdateInfo = nil
	self.LatestAuditInfo = nil

	for i := range self.LoggingInfo {
		entry := self.LoggingInfo[i]
		var latest **LoggingInfo
		switch entry.Type {
		case LogTypeOnboard:
			latest = &self.LatestOnboardingInfo
		case LogTypeUpdate:
			latest = &self.LatestUpdateInfo
		case LogTypeAudit:
			latest = &self.LatestAuditInfo
		default:
			continue
		}
		if *latest == nil || !entry.Date.Before((*latest).Date) {
			*latest = &entry
		}
	}
}

// Clone returns a deep copy, sharing no memory with the original
func (self *Bundle) Clone() *Bundle {
	if self == nil {
		return nil
	}

	out := *self
	out.LoggingInfo = slices.Clone(self.LoggingInfo)
	out.Extras.EOSCIFGuidelines = slices.Clone(self.Extras.EOSCIFGuidelines)
	out.LatestOnboardingInfo = cloneLoggingInfo(self.LatestOnboardingInfo)
	out.LatestUpdateInfo = cloneLoggingInfo(self.LatestUpdateInfo)
	out.LatestAuditInfo = cloneLoggingInfo(self.LatestAuditInfo)
	if self.Payload != nil {
		out.Payload = self.Payload.Clone()
	}
	return &out
}

func cloneLoggingInfo(v *LoggingInfo) *LoggingInfo {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

type bundleAlias Bundle

type bundleJSON struct {
	*bundleAlias
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (self Bundle) MarshalJSON() (data []byte, err error) {
	out := bundleJSON{bundleAlias: (*bundleAlias)(&self)}
	if self.Payload != nil {
		out.Payload, err = json.Marshal(self.Payload)
		if err != nil {
			return
		}
	}
	return json.Marshal(out)
}

func (self *Bundle) UnmarshalJSON(data []byte) (err error) {
	in := bundleJSON{bundleAlias: (*bundleAlias)(self)}
	err = json.Unmarshal(data, &in)
	if err != nil {
		return
	}

	payload, err := NewPayload(self.Type)
	if err != nil {
		return
	}

	if len(in.Payload) > 0 && string(in.Payload) != "null" {
		err = json.Unmarshal(in.Payload, payload)
		if err != nil {
			return
		}
	}
	self.Payload = payload
	return
}
