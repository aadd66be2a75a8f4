package store

import (
	"context"
	"errors"
	"testing"

	"github.com/catalogue-registry/registry/src/catalogue"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestMemoryTestSuite(t *testing.T) {
	suite.Run(t, new(MemoryTestSuite))
}

type MemoryTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *Memory
}

func service(id string, organisation string, categories ...string) *catalogue.Bundle {
	b := catalogue.NewBundle(&catalogue.Service{
		Id:                   id,
		CatalogueId:          "cat1",
		Name:                 "Service " + id,
		ResourceOrganisation: organisation,
		Categories:           categories,
	})
	b.Status = catalogue.StatusApprovedResource
	b.Active = true
	return b
}

func (s *MemoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemory(NamespaceDraft)

	for _, b := range []*catalogue.Bundle{
		service("a", "P1", "compute"),
		service("b", "P1", "storage"),
		service("c", "P2", "compute", "storage"),
		service("d", "P2", "network"),
	} {
		require.Nil(s.T(), s.store.Upsert(s.ctx, b))
	}
}

func (s *MemoryTestSuite) TestGetReturnsCopy() {
	b, err := s.store.Get(s.ctx, catalogue.TypeService, "a", "cat1")
	require.Nil(s.T(), err)
	b.Payload.(*catalogue.Service).Name = "changed"

	again, err := s.store.Get(s.ctx, catalogue.TypeService, "a", "cat1")
	require.Nil(s.T(), err)
	require.Equal(s.T(), "Service a", again.Payload.GetName())
}

func (s *MemoryTestSuite) TestNotFound() {
	_, err := s.store.Get(s.ctx, catalogue.TypeService, "x", "cat1")
	require.True(s.T(), errors.Is(err, catalogue.ErrNotFound))

	err = s.store.Delete(s.ctx, catalogue.TypeService, "x", "cat1")
	require.True(s.T(), errors.Is(err, catalogue.ErrNotFound))

	_, err = s.store.Get(s.ctx, catalogue.TypeProvider, "a", "cat1")
	require.True(s.T(), errors.Is(err, catalogue.ErrNotFound))
}

func (s *MemoryTestSuite) TestFiltersAndFacets() {
	filter := NewFacetFilter().
		AddFilter(string(catalogue.FieldResourceOrganisation), "P2").
		AddFilter(string(catalogue.FieldCategories), "compute", "network")
	filter.BrowseBy = []string{string(catalogue.FieldCategories)}

	paging, err := s.store.Query(s.ctx, filter)
	require.Nil(s.T(), err)
	require.Equal(s.T(), 2, paging.Total)
	require.Len(s.T(), paging.Results, 2)
	require.Equal(s.T(), "c", paging.Results[0].Id)

	require.Len(s.T(), paging.Facets, 1)
	require.Equal(s.T(), []Value{
		{Value: "compute", Count: 1},
		{Value: "network", Count: 1},
		{Value: "storage", Count: 1},
	}, paging.Facets[0].Values)
}

func (s *MemoryTestSuite) TestKeywordAndPaging() {
	filter := NewFacetFilter()
	filter.Keyword = "SERVICE"
	filter.From = 1
	filter.Quantity = 2
	filter.OrderBy = OrderBy{Field: string(catalogue.FieldInternalId), Desc: true}

	paging, err := s.store.Query(s.ctx, filter)
	require.Nil(s.T(), err)
	require.Equal(s.T(), 4, paging.Total)
	require.Equal(s.T(), 1, paging.From)
	require.Equal(s.T(), 3, paging.To)
	require.Equal(s.T(), "c", paging.Results[0].Id)
	require.Equal(s.T(), "b", paging.Results[1].Id)
}

func (s *MemoryTestSuite) TestZeroQuantityStillAggregates() {
	filter := NewFacetFilter()
	filter.Quantity = 0
	filter.BrowseBy = []string{string(catalogue.FieldResourceOrganisation)}

	paging, err := s.store.Query(s.ctx, filter)
	require.Nil(s.T(), err)
	require.Equal(s.T(), 4, paging.Total)
	require.Empty(s.T(), paging.Results)
	require.Equal(s.T(), []Value{{Value: "P1", Count: 2}, {Value: "P2", Count: 2}}, paging.Facets[0].Values)
}

func (s *MemoryTestSuite) TestResourceTypes() {
	provider := catalogue.NewBundle(&catalogue.Provider{Id: "P1", CatalogueId: "cat1", Name: "Provider"})
	require.Nil(s.T(), s.store.Upsert(s.ctx, provider))

	filter := NewFacetFilter()
	filter.ResourceTypes = []catalogue.EntityType{catalogue.TypeProvider}
	paging, err := s.store.Query(s.ctx, filter)
	require.Nil(s.T(), err)
	require.Equal(s.T(), 1, paging.Total)

	require.Nil(s.T(), s.store.Delete(s.ctx, catalogue.TypeProvider, "P1", "cat1"))
	paging, err = s.store.Query(s.ctx, filter)
	require.Nil(s.T(), err)
	require.Equal(s.T(), 0, paging.Total)
}

func (s *MemoryTestSuite) TestFilterOrder() {
	filter := NewFacetFilter().
		AddFilter("a", "1").
		AddFilter("b", "2").
		AddFilter("a", "3")
	require.Equal(s.T(), []string{"a", "b"}, filter.Keys())
	require.Equal(s.T(), []string{"1", "3"}, filter.Values("a"))

	clone := filter.Clone().RemoveFilter("a")
	require.Equal(s.T(), []string{"b"}, clone.Keys())
	require.Equal(s.T(), []string{"a", "b"}, filter.Keys())
}

func (s *MemoryTestSuite) TestNegativeFromStartsAtBeginning() {
	filter := NewFacetFilter()
	filter.From = -3
	filter.Quantity = 2

	paging, err := s.store.Query(s.ctx, filter)
	require.Nil(s.T(), err)
	require.Equal(s.T(), 0, paging.From)
	require.Equal(s.T(), 2, paging.To)
	require.Equal(s.T(), "a", paging.Results[0].Id)
}
