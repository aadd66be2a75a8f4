// Package argo reads the catalogue of service types the monitoring infrastructure understands.
package argo

import (
	"context"
	"fmt"
	"slices"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const serviceTypesKey = "service-types"

type ServiceType struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type serviceTypesResponse struct {
	Data []ServiceType `json:"data"`
}

type Client struct {
	config     config.Argo
	log        *logrus.Entry
	httpClient *resty.Client
	cache      *cache.Cache
}

func NewClient(config config.Argo) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("argo")
	self.cache = cache.New(config.CacheTTL, 2*config.CacheTTL)

	self.httpClient = resty.New().
		SetTimeout(config.RequestTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("x-api-key", config.Token)

	return
}

// IsEnabled is false when no url is configured. Service types aren't validated then.
func (self *Client) IsEnabled() bool {
	return self.config.Url != ""
}

func (self *Client) GetServiceTypes(ctx context.Context) (out []ServiceType, err error) {
	cached, ok := self.cache.Get(serviceTypesKey)
	if ok {
		return cached.([]ServiceType), nil
	}

	resp, err := self.httpClient.R().
		SetContext(ctx).
		SetResult(&serviceTypesResponse{}).
		ForceContentType("application/json").
		Get(self.config.Url)
	if err != nil {
		self.log.WithError(err).Warn("Failed to fetch service types")
		return
	}

	if !resp.IsSuccess() {
		self.log.WithField("statusCode", resp.StatusCode()).Warn("Service types request has not been successful")
		err = fmt.Errorf("service types request failed with status %d", resp.StatusCode())
		return
	}

	result, ok := resp.Result().(*serviceTypesResponse)
	if !ok {
		err = fmt.Errorf("failed to parse service types response")
		return
	}

	self.cache.SetDefault(serviceTypesKey, result.Data)
	return result.Data, nil
}

// ValidateServiceTypes fails with a validation error for the first unknown service type
func (self *Client) ValidateServiceTypes(ctx context.Context, names []string) (err error) {
	if !self.IsEnabled() {
		return nil
	}

	serviceTypes, err := self.GetServiceTypes(ctx)
	if err != nil {
		return
	}

	for _, name := range names {
		if !slices.ContainsFunc(serviceTypes, func(t ServiceType) bool { return t.Name == name }) {
			return catalogue.Validation("unknown monitoring service type %q", name)
		}
	}
	return nil
}
