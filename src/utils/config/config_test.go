package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) SetupTest() {
	viper.Reset()
}

func (s *ConfigTestSuite) TestDefaults() {
	config := Default()
	require.NotNil(s.T(), config)
	require.Equal(s.T(), "eosc", config.Registry.CatalogueId)
	require.Equal(s.T(), 30*time.Second, config.StopTimeout)
	require.Equal(s.T(), 8, config.Dispatcher.Shards)
	require.Equal(s.T(), "registry.", config.Notifications.StreamPrefix)
	require.Equal(s.T(), 10*time.Minute, config.Argo.CacheTTL)
}

func (s *ConfigTestSuite) TestLoadFile() {
	path := filepath.Join(s.T().TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{"Registry": {"CatalogueId": "cat1"}, "Dispatcher": {"JobTimeout": "5s"}}`), 0o600)
	require.Nil(s.T(), err)

	config, err := Load(path)
	require.Nil(s.T(), err)
	require.Equal(s.T(), "cat1", config.Registry.CatalogueId)
	require.Equal(s.T(), 5*time.Second, config.Dispatcher.JobTimeout)
	require.Equal(s.T(), 100, config.Registry.MaxQuantity)
}

func (s *ConfigTestSuite) TestMissingFile() {
	_, err := Load(filepath.Join(s.T().TempDir(), "missing.json"))
	require.Error(s.T(), err)
}
