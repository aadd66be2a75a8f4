// Package security answers capability questions. Tokens are never interpreted here.
package security

import (
	"context"
	"slices"
	"strings"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/store"
)

const (
	RoleAdmin    = "ROLE_ADMIN"
	RoleEpot     = "ROLE_EPOT"
	RoleProvider = "ROLE_PROVIDER"
	RoleUser     = "ROLE_USER"
)

// Subject is the caller of an operation. A nil subject is anonymous.
type Subject struct {
	Email   string
	Name    string
	Surname string
	Roles   []string

	system bool
}

// NewSystemCapability creates the subject used for operations the registry triggers itself.
// It is created once at startup and passed to whoever needs elevated privileges.
func NewSystemCapability() *Subject {
	return &Subject{
		Email: "registry@system",
		Name:  "System",
		Roles: []string{RoleAdmin},

		system: true,
	}
}

func (self *Subject) IsSystem() bool {
	return self != nil && self.system
}

func (self *Subject) FullName() string {
	if self == nil {
		return ""
	}
	return strings.TrimSpace(self.Name + " " + self.Surname)
}

// HighestRole is recorded in logging entries
func (self *Subject) HighestRole() string {
	if self == nil {
		return ""
	}
	for _, role := range []string{RoleAdmin, RoleEpot, RoleProvider, RoleUser} {
		if slices.Contains(self.Roles, role) {
			return role
		}
	}
	return ""
}

type Authority interface {
	HasRole(subject *Subject, role string) bool
	IsProviderAdmin(ctx context.Context, subject *Subject, providerId, catalogueId string) bool
}

// IsPrivileged tells if the subject may see inactive records
func IsPrivileged(authority Authority, subject *Subject) bool {
	return authority.HasRole(subject, RoleAdmin) ||
		authority.HasRole(subject, RoleEpot) ||
		authority.HasRole(subject, RoleProvider)
}

func IsAdmin(authority Authority, subject *Subject) bool {
	return authority.HasRole(subject, RoleAdmin) || authority.HasRole(subject, RoleEpot)
}

// StoreAuthority takes roles from the subject and provider administrators from the draft store
type StoreAuthority struct {
	drafts store.Store
}

func NewStoreAuthority(drafts store.Store) (self *StoreAuthority) {
	self = new(StoreAuthority)
	self.drafts = drafts
	return
}

func (self *StoreAuthority) HasRole(subject *Subject, role string) bool {
	if subject == nil {
		return false
	}
	return subject.system || slices.Contains(subject.Roles, role)
}

func (self *StoreAuthority) IsProviderAdmin(ctx context.Context, subject *Subject, providerId, catalogueId string) bool {
	if subject == nil {
		return false
	}
	if subject.system {
		return true
	}

	bundle, err := self.drafts.Get(ctx, catalogue.TypeProvider, providerId, catalogueId)
	if err != nil {
		return false
	}

	provider, ok := bundle.Payload.(*catalogue.Provider)
	return ok && provider.HasAdmin(subject.Email)
}
