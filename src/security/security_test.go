package security

import (
	"context"
	"testing"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/store"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestSecurityTestSuite(t *testing.T) {
	suite.Run(t, new(SecurityTestSuite))
}

type SecurityTestSuite struct {
	suite.Suite
	ctx       context.Context
	authority *StoreAuthority
}

func (s *SecurityTestSuite) SetupSuite() {
	s.ctx = context.Background()
	drafts := store.NewMemory(store.NamespaceDraft)
	require.Nil(s.T(), drafts.Upsert(s.ctx, catalogue.NewBundle(&catalogue.Provider{
		Id:          "P",
		CatalogueId: "cat1",
		Users:       []catalogue.User{{Email: "admin@example.org"}},
	})))
	s.authority = NewStoreAuthority(drafts)
}

func (s *SecurityTestSuite) TestRoles() {
	user := &Subject{Email: "u@example.org", Roles: []string{RoleUser}}
	provider := &Subject{Email: "p@example.org", Roles: []string{RoleUser, RoleProvider}}

	require.False(s.T(), IsPrivileged(s.authority, nil))
	require.False(s.T(), IsPrivileged(s.authority, user))
	require.True(s.T(), IsPrivileged(s.authority, provider))
	require.False(s.T(), IsAdmin(s.authority, provider))
	require.True(s.T(), IsAdmin(s.authority, NewSystemCapability()))
	require.Equal(s.T(), RoleProvider, provider.HighestRole())
}

func (s *SecurityTestSuite) TestProviderAdmin() {
	admin := &Subject{Email: "admin@example.org", Roles: []string{RoleProvider}}
	other := &Subject{Email: "other@example.org", Roles: []string{RoleProvider}}

	require.True(s.T(), s.authority.IsProviderAdmin(s.ctx, admin, "P", "cat1"))
	require.False(s.T(), s.authority.IsProviderAdmin(s.ctx, other, "P", "cat1"))
	require.False(s.T(), s.authority.IsProviderAdmin(s.ctx, admin, "P", "cat2"))
	require.False(s.T(), s.authority.IsProviderAdmin(s.ctx, nil, "P", "cat1"))
	require.True(s.T(), s.authority.IsProviderAdmin(s.ctx, NewSystemCapability(), "missing", "cat1"))
}
