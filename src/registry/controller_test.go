package registry

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/store"
	"github.com/catalogue-registry/registry/src/utils/config"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

type ControllerTestSuite struct {
	suite.Suite
	ctx        context.Context
	config     *config.Config
	controller *Controller
}

func (s *ControllerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.config = config.Default()
	s.config.IsDevelopment = true
	s.config.RESTListenAddress = "127.0.0.1:0"
	s.config.StopTimeout = 5 * time.Second

	var err error
	s.controller, err = NewController(s.config)
	require.Nil(s.T(), err)
	require.Nil(s.T(), s.controller.Start())
}

func (s *ControllerTestSuite) TearDownTest() {
	s.controller.StopWait()
}

func (s *ControllerTestSuite) get(path string) (int, string) {
	resp, err := http.Get("http://" + s.controller.Server.Addr() + path)
	require.Nil(s.T(), err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.Nil(s.T(), err)
	return resp.StatusCode, string(body)
}

func (s *ControllerTestSuite) TestApprovedProviderBecomesBrowsable() {
	system := s.controller.System

	_, err := s.controller.Manager.Add(s.ctx, system, catalogue.NewBundle(&catalogue.Provider{Id: "P", Name: "Provider"}))
	require.Nil(s.T(), err)

	paging, err := s.controller.Search.Browse(s.ctx, string(catalogue.TypeProvider), store.NewFacetFilter(), nil)
	require.Nil(s.T(), err)
	require.Equal(s.T(), 0, paging.Total)

	_, err = s.controller.Manager.Verify(s.ctx, system, catalogue.TypeProvider, "P", "", catalogue.StatusApprovedProvider, true)
	require.Nil(s.T(), err)

	require.Eventually(s.T(), func() bool {
		paging, err := s.controller.Search.Browse(s.ctx, string(catalogue.TypeProvider), store.NewFacetFilter(), nil)
		return err == nil && paging.Total == 1 && paging.Results[0].Id == "eosc.P"
	}, 5*time.Second, 10*time.Millisecond)

	// Repair finds nothing to do
	require.Nil(s.T(), s.controller.Sweeper.RunOnce(s.ctx))
	require.Equal(s.T(), uint64(0), s.controller.Monitor.Report.Sweeper.State.OrphanMirrorsDeleted.Load())
}

func (s *ControllerTestSuite) TestMonitoringEndpoints() {
	code, _ := s.get("/v1/health")
	require.Equal(s.T(), http.StatusOK, code)

	code, body := s.get("/v1/state")
	require.Equal(s.T(), http.StatusOK, code)
	require.Contains(s.T(), body, "dispatcher")

	code, body = s.get("/v1/metrics")
	require.Equal(s.T(), http.StatusOK, code)
	require.Contains(s.T(), body, "up_for_seconds")
}
