package publication

import (
	"context"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/monitoring"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"
	"github.com/catalogue-registry/registry/src/utils/task"

	"github.com/teivah/onecontext"
)

// Job asks for one mirror operation. The bundle is a snapshot of the draft taken when the job was enqueued.
type Job struct {
	Operation catalogue.Operation
	Bundle    *catalogue.Bundle
}

// Dispatcher runs mirror operations in the background.
// Jobs of one entity run one after another, in the order they were enqueued. Different entities run in parallel.
type Dispatcher struct {
	*task.Task

	monitor      monitoring.Monitor
	synchronizer *Synchronizer

	input chan Job
	pool  *task.OrderedPool
}

func NewDispatcher(config *config.Config) (self *Dispatcher) {
	self = new(Dispatcher)
	// Local counters until a shared monitor is set
	self.monitor = monitor_registry.NewMonitor()

	self.input = make(chan Job, config.Dispatcher.QueueSize)
	self.pool = task.NewOrderedPool(config.Dispatcher.Shards)

	self.Task = task.NewTask(config, "dispatcher").
		WithSubtaskFunc(self.run).
		WithOnAfterStop(self.pool.StopWait)

	return
}

func (self *Dispatcher) WithMonitor(v monitoring.Monitor) *Dispatcher {
	self.monitor = v
	return self
}

func (self *Dispatcher) WithSynchronizer(v *Synchronizer) *Dispatcher {
	self.synchronizer = v
	return self
}

// Enqueue schedules the operations for the draft, in the given order.
// Blocks while the queue is full. Jobs are dropped once the dispatcher is stopping, the sweeper repairs them later.
func (self *Dispatcher) Enqueue(ctx context.Context, draft *catalogue.Bundle, operations ...catalogue.Operation) {
	for _, op := range operations {
		job := Job{Operation: op, Bundle: draft.Clone()}

		select {
		case <-self.StopChannel:
			self.drop(job, "dispatcher is stopping")
			continue
		default:
		}

		select {
		case self.input <- job:
			self.monitor.GetReport().Dispatcher.State.JobsEnqueued.Inc()
			self.monitor.GetReport().Dispatcher.State.PendingJobs.Inc()
		case <-self.StopChannel:
			self.drop(job, "dispatcher is stopping")
		case <-ctx.Done():
			self.drop(job, "caller gave up")
		}
	}
}

func (self *Dispatcher) drop(job Job, reason string) {
	self.monitor.GetReport().Dispatcher.Errors.JobsDropped.Inc()
	self.Log.WithField("key", job.Bundle.Key()).WithField("operation", job.Operation).
		WithField("reason", reason).Warn("Job dropped")
}

func (self *Dispatcher) submit(job Job) {
	self.pool.Submit(job.Bundle.Key(), func() {
		self.handle(job)
	})
}

func (self *Dispatcher) run() error {
	for {
		select {
		case <-self.StopChannel:
			// Jobs already accepted still run
			for {
				select {
				case job := <-self.input:
					self.submit(job)
				default:
					self.Log.Debug("Dispatcher stopped")
					return nil
				}
			}
		case job := <-self.input:
			self.submit(job)
		}
	}
}

func (self *Dispatcher) handle(job Job) {
	defer func() {
		self.monitor.GetReport().Dispatcher.State.JobsDone.Inc()
		self.monitor.GetReport().Dispatcher.State.PendingJobs.Dec()
	}()

	timeoutCtx, cancelTimeout := context.WithTimeout(context.Background(), self.Config.Dispatcher.JobTimeout)
	defer cancelTimeout()

	// Running jobs are cut short only when the whole task is gone
	ctx, cancel := onecontext.Merge(self.CtxRunning, timeoutCtx)
	defer cancel()

	var err error
	switch job.Operation {
	case catalogue.OperationCreate:
		err = self.synchronizer.Create(ctx, job.Bundle)
	case catalogue.OperationUpdate:
		err = self.synchronizer.Update(ctx, job.Bundle)
	case catalogue.OperationDelete:
		err = self.synchronizer.Delete(ctx, job.Bundle)
	default:
		self.Log.WithField("operation", job.Operation).Error("Unknown operation")
		return
	}
	if err != nil {
		self.Log.WithError(err).WithField("key", job.Bundle.Key()).WithField("operation", job.Operation).
			Debug("Mirror operation failed")
	}
}
