package catalogue

import "fmt"

// EntityType names every kind of payload a Bundle can carry
type EntityType string

const (
	TypeProvider                       EntityType = "provider"
	TypeService                        EntityType = "service"
	TypeDatasource                     EntityType = "datasource"
	TypeTrainingResource               EntityType = "training_resource"
	TypeInteroperabilityRecord         EntityType = "interoperability_record"
	TypeResourceInteroperabilityRecord EntityType = "resource_interoperability_record"
	TypeHelpdesk                       EntityType = "helpdesk"
	TypeMonitoring                     EntityType = "monitoring"
)

var EntityTypes = []EntityType{
	TypeProvider,
	TypeService,
	TypeDatasource,
	TypeTrainingResource,
	TypeInteroperabilityRecord,
	TypeResourceInteroperabilityRecord,
	TypeHelpdesk,
	TypeMonitoring,
}

func ParseEntityType(s string) (EntityType, error) {
	for _, t := range EntityTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", Validation("unknown resource type %q", s)
}

// Resources are offered by a provider and count towards its template
func (self EntityType) IsResource() bool {
	return self == TypeService || self == TypeTrainingResource
}

// Extensions are attached to a single service
func (self EntityType) IsServiceExtension() bool {
	return self == TypeDatasource || self == TypeHelpdesk || self == TypeMonitoring
}

func (self EntityType) String() string {
	return string(self)
}

// Operation performed on a public mirror
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Topic of notifications about mirror changes, e.g. service.update
func Topic(t EntityType, op Operation) string {
	return fmt.Sprintf("%s.%s", t, op)
}
