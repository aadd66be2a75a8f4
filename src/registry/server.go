package registry

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/monitoring"
	"github.com/catalogue-registry/registry/src/utils/task"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rest API server, serves monitor counters
type Server struct {
	*task.Task

	httpServer *http.Server
	listener   net.Listener
	Router     *gin.Engine

	monitor monitoring.Monitor
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "server").
		WithOnBeforeStart(self.listen).
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	self.httpServer = &http.Server{
		Addr:    self.Config.RESTListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

// Addr is the address the server listens on, known once it's started
func (self *Server) Addr() string {
	if self.listener == nil {
		return ""
	}
	return self.listener.Addr().String()
}

func (self *Server) routes() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(self.monitor.GetPrometheusCollector())

	v1 := self.Router.Group("v1")
	{
		v1.GET("health", self.monitor.OnGetHealth)
		v1.GET("state", self.monitor.OnGetState)
		v1.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	if self.Config.Profiler.Enabled {
		pprof.Register(self.Router)
	}
}

func (self *Server) listen() (err error) {
	self.routes()

	// Bind before start returns, so a taken port fails the whole registry
	self.listener, err = net.Listen("tcp", self.httpServer.Addr)
	if err != nil {
		self.Log.WithError(err).WithField("addr", self.httpServer.Addr).Error("Failed to listen")
	}
	return
}

func (self *Server) run() (err error) {
	err = self.httpServer.Serve(self.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}
