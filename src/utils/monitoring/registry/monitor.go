package monitor_registry

import (
	"math"
	"net/http"
	"time"

	"github.com/catalogue-registry/registry/src/utils/monitoring/report"
	"github.com/catalogue-registry/registry/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	// Health is reported bad when more jobs than this wait for the dispatcher
	maxPendingJobs int64

	collector *Collector

	// Mirror synchronization speed
	MirrorsSynced *deque.Deque[uint64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:            &report.RunReport{},
		Lifecycle:      &report.LifecycleReport{},
		Dispatcher:     &report.DispatcherReport{},
		Synchronizer:   &report.SynchronizerReport{},
		Sweeper:        &report.SweeperReport{},
		RedisPublisher: &report.RedisPublisherReport{},
		Consumer:       &report.ConsumerReport{},
		Search:         &report.SearchReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorMirrors)

	return self.WithMaxHistorySize(30).WithMaxPendingJobs(1000)
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize
	self.MirrorsSynced = deque.New[uint64](self.historySize)
	return self
}

func (self *Monitor) WithMaxPendingJobs(v int) *Monitor {
	self.maxPendingJobs = int64(v)
	return self
}

func (self *Monitor) Clear() {
	self.MirrorsSynced.Clear()
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

func (self *Monitor) mirrorsSynced() uint64 {
	state := &self.Report.Synchronizer.State
	return state.MirrorsCreated.Load() + state.MirrorsUpdated.Load() + state.MirrorsDeleted.Load()
}

// Measure mirror synchronization speed
func (self *Monitor) monitorMirrors() (err error) {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))

	self.MirrorsSynced.PushBack(self.mirrorsSynced())
	if self.MirrorsSynced.Len() > self.historySize {
		self.MirrorsSynced.PopFront()
	}
	value := float64(self.MirrorsSynced.Back()-self.MirrorsSynced.Front()) / float64(self.MirrorsSynced.Len())

	self.Report.Synchronizer.State.AverageMirrorsSyncedPerMinute.Store(round(value))
	return
}

func (self *Monitor) IsOK() bool {
	now := time.Now().Unix()
	if now-self.Report.Run.State.StartTimestamp.Load() < 300 {
		// Give it 5 minutes to start
		return true
	}

	return self.Report.Dispatcher.State.PendingJobs.Load() < self.maxPendingJobs
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))

	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
