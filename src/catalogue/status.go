package catalogue

import "slices"

const (
	StatusPendingProvider  = "pending provider"
	StatusApprovedProvider = "approved provider"
	StatusRejectedProvider = "rejected provider"

	StatusPendingResource  = "pending resource"
	StatusApprovedResource = "approved resource"
	StatusRejectedResource = "rejected resource"

	StatusPendingInteroperabilityRecord  = "pending interoperability record"
	StatusApprovedInteroperabilityRecord = "approved interoperability record"
	StatusRejectedInteroperabilityRecord = "rejected interoperability record"
)

const (
	TemplateStatusNone     = "no template status"
	TemplateStatusPending  = "pending template"
	TemplateStatusApproved = "approved template"
	TemplateStatusRejected = "rejected template"
)

var TemplateStatuses = []string{
	TemplateStatusNone,
	TemplateStatusPending,
	TemplateStatusApproved,
	TemplateStatusRejected,
}

type workflow struct {
	pending  string
	approved string
	rejected string
}

func (self workflow) statuses() []string {
	return []string{self.pending, self.approved, self.rejected}
}

var workflows = map[EntityType]workflow{
	TypeProvider:               {StatusPendingProvider, StatusApprovedProvider, StatusRejectedProvider},
	TypeService:                {StatusPendingResource, StatusApprovedResource, StatusRejectedResource},
	TypeDatasource:             {StatusPendingResource, StatusApprovedResource, StatusRejectedResource},
	TypeTrainingResource:       {StatusPendingResource, StatusApprovedResource, StatusRejectedResource},
	TypeInteroperabilityRecord: {StatusPendingInteroperabilityRecord, StatusApprovedInteroperabilityRecord, StatusRejectedInteroperabilityRecord},
}

// HasWorkflow tells if the type goes through the pending/approved/rejected review.
// Other types are published as soon as they are active.
func HasWorkflow(t EntityType) bool {
	_, ok := workflows[t]
	return ok
}

// Statuses returns the closed set of statuses of the type
func Statuses(t EntityType) []string {
	w, ok := workflows[t]
	if !ok {
		return nil
	}
	return w.statuses()
}

func IsValidStatus(t EntityType, status string) bool {
	return slices.Contains(Statuses(t), status)
}

func IsValidTemplateStatus(status string) bool {
	return slices.Contains(TemplateStatuses, status)
}

func PendingStatus(t EntityType) string {
	return workflows[t].pending
}

func ApprovedStatus(t EntityType) string {
	return workflows[t].approved
}

func RejectedStatus(t EntityType) string {
	return workflows[t].rejected
}

func IsApproved(b *Bundle) bool {
	if !HasWorkflow(b.Type) {
		return true
	}
	return b.Status == ApprovedStatus(b.Type)
}

// Qualifies tells if the bundle should have a public mirror
func Qualifies(b *Bundle) bool {
	return IsApproved(b) && b.Active
}
