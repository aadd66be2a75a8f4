package catalogue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestBundleTestSuite(t *testing.T) {
	suite.Run(t, new(BundleTestSuite))
}

type BundleTestSuite struct {
	suite.Suite
}

func (s *BundleTestSuite) service() *Bundle {
	b := NewBundle(&Service{
		Id:                   "R",
		CatalogueId:          "cat1",
		Name:                 "Resource",
		ResourceOrganisation: "P",
		ResourceProviders:    []string{"P", "Q"},
		Tags:                 []string{"a"},
	})
	b.Status = StatusApprovedResource
	b.Active = true
	b.Extras.EOSCIFGuidelines = []Guideline{{Pid: "g1"}}
	b.AppendLog(NewLoggingInfo(ActionRegistered, time.Now()))
	return b
}

func (s *BundleTestSuite) TestCloneSharesNoMemory() {
	b := s.service()
	c := b.Clone()

	c.Payload.(*Service).ResourceProviders[0] = "X"
	c.Payload.(*Service).Tags = append(c.Payload.(*Service).Tags, "b")
	c.Extras.EOSCIFGuidelines[0].Pid = "changed"
	c.LoggingInfo[0].Comment = "changed"
	c.LatestOnboardingInfo.Comment = "changed"
	c.SetId("other")

	orig := b.Payload.(*Service)
	require.Equal(s.T(), []string{"P", "Q"}, orig.ResourceProviders)
	require.Equal(s.T(), []string{"a"}, orig.Tags)
	require.Equal(s.T(), "g1", b.Extras.EOSCIFGuidelines[0].Pid)
	require.Empty(s.T(), b.LoggingInfo[0].Comment)
	require.Empty(s.T(), b.LatestOnboardingInfo.Comment)
	require.Equal(s.T(), "R", b.Id)
	require.Equal(s.T(), "R", orig.Id)
}

func (s *BundleTestSuite) TestLatestPointersFollowActionSubsets() {
	b := s.service()
	start := time.Now()

	b.AppendLog(NewLoggingInfo(ActionUpdated, start.Add(time.Minute)))
	b.AppendLog(NewLoggingInfo(ActionVerified, start.Add(2*time.Minute)))
	audit := NewLoggingInfo(ActionAudited, start.Add(3*time.Minute))
	audit.AuditState = AuditStateValid
	b.AppendLog(audit)
	b.AppendLog(NewLoggingInfo(ActionPublished, start.Add(4*time.Minute)))

	require.Len(s.T(), b.LoggingInfo, 5)
	require.Equal(s.T(), ActionVerified, b.LatestOnboardingInfo.ActionType)
	require.Equal(s.T(), ActionPublished, b.LatestUpdateInfo.ActionType)
	require.Equal(s.T(), ActionAudited, b.LatestAuditInfo.ActionType)
	require.Equal(s.T(), AuditStateValid, b.LatestAuditInfo.AuditState)
}

func (s *BundleTestSuite) TestJSONKeepsPayloadType() {
	b := s.service()
	data, err := json.Marshal(b)
	require.Nil(s.T(), err)

	var decoded Bundle
	require.Nil(s.T(), json.Unmarshal(data, &decoded))
	service, ok := decoded.Payload.(*Service)
	require.True(s.T(), ok)
	require.Equal(s.T(), "P", service.ResourceOrganisation)
	require.Equal(s.T(), TypeService, decoded.Type)
	require.NotNil(s.T(), decoded.LatestOnboardingInfo)
}

func (s *BundleTestSuite) TestUnknownTypeIsValidationError() {
	var decoded Bundle
	err := json.Unmarshal([]byte(`{"id":"x","resourceType":"spaceship"}`), &decoded)
	require.True(s.T(), errors.Is(err, ErrValidation))
}

func (s *BundleTestSuite) TestQualifies() {
	b := s.service()
	require.True(s.T(), Qualifies(b))

	b.Active = false
	require.False(s.T(), Qualifies(b))

	b.Active = true
	b.Status = StatusPendingResource
	require.False(s.T(), Qualifies(b))

	helpdesk := NewBundle(&Helpdesk{Id: "h", ServiceId: "R"})
	helpdesk.Active = true
	require.True(s.T(), Qualifies(helpdesk))
}

func (s *BundleTestSuite) TestStatusesAreClosed() {
	require.True(s.T(), IsValidStatus(TypeProvider, StatusApprovedProvider))
	require.False(s.T(), IsValidStatus(TypeProvider, StatusApprovedResource))
	require.False(s.T(), IsValidStatus(TypeService, "published"))
	require.True(s.T(), IsValidTemplateStatus(TemplateStatusPending))
	require.False(s.T(), IsValidTemplateStatus("approved"))
	require.Empty(s.T(), Statuses(TypeHelpdesk))
}

func (s *BundleTestSuite) TestFieldValues() {
	b := s.service()
	values := FieldValues(b)

	require.Equal(s.T(), []string{"service"}, values[string(FieldResourceType)])
	require.Equal(s.T(), []string{"P", "Q"}, values[string(FieldResourceProviders)])
	require.Equal(s.T(), []string{"true"}, values[string(FieldActive)])
	require.NotContains(s.T(), values, string(FieldCategories))

	f, ok := LookupField(TypeService, FieldResourceOrganisation)
	require.True(s.T(), ok)
	require.True(s.T(), f.IsFacet())

	_, ok = LookupField(TypeProvider, FieldResourceOrganisation)
	require.False(s.T(), ok)
}
