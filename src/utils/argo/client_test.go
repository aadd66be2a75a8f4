package argo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/utils/config"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

type ClientTestSuite struct {
	suite.Suite
	ctx      context.Context
	config   *config.Config
	server   *httptest.Server
	requests *atomic.Int32
}

func (s *ClientTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.config = config.Default()
	s.requests = atomic.NewInt32(0)

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Inc()
		if r.Header.Get("x-api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":{"code":"200"},"data":[
			{"date":"2023-01-01","name":"eu.eosc.portal.services.url","title":"Service URL","description":""},
			{"date":"2023-01-01","name":"web.check","title":"Web","description":""}
		]}`))
	}))

	s.config.Argo.Url = s.server.URL + "/api/v2/topology/service-types"
	s.config.Argo.Token = "secret"
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientTestSuite) TestServiceTypesAreCached() {
	client := NewClient(s.config.Argo)

	types, err := client.GetServiceTypes(s.ctx)
	require.Nil(s.T(), err)
	require.Len(s.T(), types, 2)
	require.Equal(s.T(), "web.check", types[1].Name)

	_, err = client.GetServiceTypes(s.ctx)
	require.Nil(s.T(), err)
	require.Equal(s.T(), int32(1), s.requests.Load())
}

func (s *ClientTestSuite) TestValidate() {
	client := NewClient(s.config.Argo)

	require.Nil(s.T(), client.ValidateServiceTypes(s.ctx, []string{"web.check"}))

	err := client.ValidateServiceTypes(s.ctx, []string{"web.check", "ftp"})
	require.True(s.T(), errors.Is(err, catalogue.ErrValidation))
}

func (s *ClientTestSuite) TestFailedRequest() {
	s.config.Argo.Token = "wrong"
	client := NewClient(s.config.Argo)

	err := client.ValidateServiceTypes(s.ctx, []string{"web.check"})
	require.NotNil(s.T(), err)
	require.False(s.T(), errors.Is(err, catalogue.ErrValidation))
}

func (s *ClientTestSuite) TestDisabled() {
	s.config.Argo.Url = ""
	client := NewClient(s.config.Argo)

	require.Nil(s.T(), client.ValidateServiceTypes(s.ctx, []string{"anything"}))
	require.Equal(s.T(), int32(0), s.requests.Load())
}
