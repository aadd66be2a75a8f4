package publicid

import (
	"context"
	"errors"
	"testing"

	"github.com/catalogue-registry/registry/src/catalogue"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"pgregory.net/rapid"
)

func TestPublicIdTestSuite(t *testing.T) {
	suite.Run(t, new(PublicIdTestSuite))
}

type PublicIdTestSuite struct {
	suite.Suite
}

type staticResolver map[string]string

func (self staticResolver) CatalogueOf(ctx context.Context, t catalogue.EntityType, id string) (string, bool) {
	c, ok := self[string(t)+"/"+id]
	return c, ok
}

func (self staticResolver) IsCatalogue(ctx context.Context, catalogueId string) bool {
	for _, c := range self {
		if c == catalogueId {
			return true
		}
	}
	return false
}

func (s *PublicIdTestSuite) TestToPublicId() {
	require.Equal(s.T(), "cat1.R", ToPublicId("cat1", "R"))
	require.Equal(s.T(), "cat1.R", ToPublicId("cat1", "cat1.R"))
	require.Equal(s.T(), "", ToPublicId("cat1", ""))
	require.True(s.T(), IsPublic("cat1", "cat1.R"))
	require.False(s.T(), IsPublic("cat1", "cat10.R"))
}

func (s *PublicIdTestSuite) TestDeterministicAndIdempotent() {
	rapid.Check(s.T(), func(t *rapid.T) {
		cat := rapid.StringMatching(`[a-z][a-z0-9-]{0,8}`).Draw(t, "catalogue")
		id := rapid.StringMatching(`[a-z0-9][a-z0-9._-]{0,20}`).Draw(t, "id")

		first := ToPublicId(cat, id)
		if first != ToPublicId(cat, id) {
			t.Fatalf("not deterministic for %q %q", cat, id)
		}
		if ToPublicId(cat, first) != first {
			t.Fatalf("not idempotent for %q %q", cat, id)
		}
		if !IsPublic(cat, first) {
			t.Fatalf("%q is not public", first)
		}
		if !IsPublic(cat, id) && first != cat+Separator+id {
			t.Fatalf("unexpected public id %q", first)
		}
	})
}

func (s *PublicIdTestSuite) TestPrefixRepetition() {
	require.Nil(s.T(), CheckPrefixRepetition("cat1", "R"))
	err := CheckPrefixRepetition("cat1", "cat1.R")
	require.True(s.T(), errors.Is(err, catalogue.ErrValidation))
}

func (s *PublicIdTestSuite) TestRewriteService() {
	b := catalogue.NewBundle(&catalogue.Service{
		Id:                   "R",
		CatalogueId:          "cat1",
		ResourceOrganisation: "P",
		ResourceProviders:    []string{"P", "Q"},
		RelatedResources:     []string{"S"},
	})

	NewRewriter().
		WithResolver(staticResolver{"provider/Q": "cat2"}).
		RewriteReferences(context.Background(), b)

	service := b.Payload.(*catalogue.Service)
	require.Equal(s.T(), "cat1.P", service.ResourceOrganisation)
	require.Equal(s.T(), []string{"cat1.P", "cat2.Q"}, service.ResourceProviders)
	require.Equal(s.T(), []string{"cat1.S"}, service.RelatedResources)
	require.Nil(s.T(), service.RequiredResources)
}

func (s *PublicIdTestSuite) TestRewriteIsIdempotent() {
	b := catalogue.NewBundle(&catalogue.ResourceInteroperabilityRecord{
		Id:                        "rir",
		CatalogueId:               "cat1",
		ResourceId:                "R",
		InteroperabilityRecordIds: []string{"ir1", "ir2"},
	})

	rewriter := NewRewriter()
	rewriter.RewriteReferences(context.Background(), b)
	rewriter.RewriteReferences(context.Background(), b)

	rir := b.Payload.(*catalogue.ResourceInteroperabilityRecord)
	require.Equal(s.T(), "cat1.R", rir.ResourceId)
	require.Equal(s.T(), []string{"cat1.ir1", "cat1.ir2"}, rir.InteroperabilityRecordIds)
}

func (s *PublicIdTestSuite) TestRewriteAcrossCataloguesIsIdempotent() {
	b := catalogue.NewBundle(&catalogue.Service{
		Id:                   "R",
		CatalogueId:          "cat1",
		ResourceOrganisation: "P",
		ResourceProviders:    []string{"Q", "x.y"},
		RelatedResources:     []string{"S"},
	})

	rewriter := NewRewriter().WithResolver(staticResolver{"provider/Q": "cat2", "service/S": "cat3"})
	rewriter.RewriteReferences(context.Background(), b)
	first := b.Payload.Clone().(*catalogue.Service)
	rewriter.RewriteReferences(context.Background(), b)

	service := b.Payload.(*catalogue.Service)
	require.Equal(s.T(), first, service)
	require.Equal(s.T(), "cat1.P", service.ResourceOrganisation)
	// Dots in unresolved ids of unknown catalogues are part of the id
	require.Equal(s.T(), []string{"cat2.Q", "cat1.x.y"}, service.ResourceProviders)
	require.Equal(s.T(), []string{"cat3.S"}, service.RelatedResources)
}

func (s *PublicIdTestSuite) TestRewriteServiceExtensions() {
	for _, p := range []catalogue.Payload{
		&catalogue.Datasource{Id: "d", CatalogueId: "cat1", ServiceId: "R"},
		&catalogue.Helpdesk{Id: "h", CatalogueId: "cat1", ServiceId: "R"},
		&catalogue.Monitoring{Id: "m", CatalogueId: "cat1", ServiceId: "R"},
	} {
		b := catalogue.NewBundle(p)
		NewRewriter().RewriteReferences(context.Background(), b)
		require.Equal(s.T(), "cat1.R", b.Payload.(catalogue.ServiceExtension).GetServiceId())
	}
}

func (s *PublicIdTestSuite) TestProviderUsersUntouched() {
	b := catalogue.NewBundle(&catalogue.Provider{
		Id:          "P",
		CatalogueId: "cat1",
		Users:       []catalogue.User{{Email: "admin@example.org"}},
	})
	NewRewriter().RewriteReferences(context.Background(), b)
	require.Equal(s.T(), "admin@example.org", b.Payload.(*catalogue.Provider).Users[0].Email)
}
