package catalogue

import "time"

// Action recorded in a logging entry
type ActionType string

const (
	ActionRegistered ActionType = "REGISTERED"
	ActionUpdated    ActionType = "UPDATED"
	ActionVerified   ActionType = "VERIFIED"
	ActionPublished  ActionType = "PUBLISHED"
	ActionAudited    ActionType = "AUDITED"
	ActionDeleted    ActionType = "DELETED"
)

// Subset of actions a latest pointer follows
type LogType string

const (
	LogTypeOnboard LogType = "onboard"
	LogTypeUpdate  LogType = "update"
	LogTypeAudit   LogType = "audit"
)

func (self ActionType) LogType() LogType {
	switch self {
	case ActionRegistered, ActionVerified:
		return LogTypeOnboard
	case ActionAudited:
		return LogTypeAudit
	}
	return LogTypeUpdate
}

const (
	AuditStateValid   = "Valid"
	AuditStateInvalid = "Invalid"
)

type LoggingInfo struct {
	Date         time.Time  `json:"date"`
	UserEmail    string     `json:"userEmail,omitempty"`
	UserFullName string     `json:"userFullName,omitempty"`
	UserRole     string     `json:"userRole,omitempty"`
	Type         LogType    `json:"type"`
	ActionType   ActionType `json:"actionType"`
	Comment      string     `json:"comment,omitempty"`
	AuditState   string     `json:"auditState,omitempty"`
}

func NewLoggingInfo(action ActionType, date time.Time) LoggingInfo {
	return LoggingInfo{
		Date:       date,
		Type:       action.LogType(),
		ActionType: action,
	}
}
