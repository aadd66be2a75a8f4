// Package lifecycle owns the draft records: their statuses, logging history and the mirror jobs every change triggers.
package lifecycle

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/security"
	"github.com/catalogue-registry/registry/src/store"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/logger"
	"github.com/catalogue-registry/registry/src/utils/monitoring"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"

	"github.com/sirupsen/logrus"
)

const numLocks = 64

// Enqueuer schedules mirror jobs for a draft snapshot
type Enqueuer interface {
	Enqueue(ctx context.Context, draft *catalogue.Bundle, operations ...catalogue.Operation)
}

// ServiceTypeValidator checks monitoring service types against the monitoring infrastructure
type ServiceTypeValidator interface {
	ValidateServiceTypes(ctx context.Context, names []string) error
}

// Manager applies lifecycle operations to drafts.
// A rejected operation leaves the draft untouched. An accepted one is stored first, then its mirror jobs are enqueued.
type Manager struct {
	config *config.Config
	log    *logrus.Entry

	monitor    monitoring.Monitor
	drafts     store.Store
	dispatcher Enqueuer
	authority  security.Authority
	argo       ServiceTypeValidator

	// Serializes operations on one entity, so jobs are enqueued in commit order
	locks [numLocks]sync.Mutex

	now func() time.Time
}

func NewManager(config *config.Config) (self *Manager) {
	self = new(Manager)
	// Local counters until a shared monitor is set
	self.monitor = monitor_registry.NewMonitor()
	self.config = config
	self.log = logger.NewSublogger("lifecycle")
	self.now = time.Now
	return
}

func (self *Manager) WithMonitor(v monitoring.Monitor) *Manager {
	self.monitor = v
	return self
}

func (self *Manager) WithDraftStore(v store.Store) *Manager {
	self.drafts = v
	return self
}

func (self *Manager) WithDispatcher(v Enqueuer) *Manager {
	self.dispatcher = v
	return self
}

func (self *Manager) WithAuthority(v security.Authority) *Manager {
	self.authority = v
	return self
}

func (self *Manager) WithServiceTypeValidator(v ServiceTypeValidator) *Manager {
	self.argo = v
	return self
}

func (self *Manager) lock(t catalogue.EntityType, id, catalogueId string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(string(t) + "/" + catalogueId + "/" + id))
	mtx := &self.locks[h.Sum32()%numLocks]
	mtx.Lock()
	return mtx.Unlock
}

func (self *Manager) catalogueOrDefault(catalogueId string) string {
	if catalogueId == "" {
		return self.config.Registry.CatalogueId
	}
	return catalogueId
}

// Counts the failure by its kind and passes it through
func (self *Manager) fail(err error) error {
	if err == nil {
		return nil
	}

	errs := &self.monitor.GetReport().Lifecycle.Errors
	switch {
	case errors.Is(err, catalogue.ErrValidation):
		errs.Validation.Inc()
	case errors.Is(err, catalogue.ErrNotFound):
		errs.NotFound.Inc()
	case errors.Is(err, catalogue.ErrConflict):
		errs.Conflict.Inc()
	case errors.Is(err, catalogue.ErrUnauthorized):
		errs.Unauthorized.Inc()
	default:
		errs.Store.Inc()
	}
	return err
}

func (self *Manager) get(ctx context.Context, t catalogue.EntityType, id, catalogueId string) (*catalogue.Bundle, error) {
	return self.drafts.Get(ctx, t, id, self.catalogueOrDefault(catalogueId))
}

func (self *Manager) entry(subject *security.Subject, action catalogue.ActionType, comment string) catalogue.LoggingInfo {
	entry := catalogue.NewLoggingInfo(action, self.now())
	entry.UserEmail = subjectEmail(subject)
	entry.UserFullName = subject.FullName()
	entry.UserRole = subject.HighestRole()
	entry.Comment = comment
	return entry
}

func subjectEmail(subject *security.Subject) string {
	if subject == nil {
		return ""
	}
	return subject.Email
}

func (self *Manager) touch(b *catalogue.Bundle, subject *security.Subject) {
	b.Metadata.ModifiedBy = subject.FullName()
	b.Metadata.ModifiedAt = self.now()
}

// Stores the draft and enqueues its mirror jobs
func (self *Manager) commit(ctx context.Context, b *catalogue.Bundle, operations ...catalogue.Operation) error {
	err := self.drafts.Upsert(ctx, b)
	if err != nil {
		self.log.WithError(err).WithField("key", b.Key()).Error("Failed to store draft")
		return err
	}
	self.dispatcher.Enqueue(ctx, b, operations...)
	return nil
}

// Mirror jobs following a change of status or visibility.
// Approved but inactive records keep their mirror, hidden from anonymous browsing.
func mirrorOperations(b *catalogue.Bundle) []catalogue.Operation {
	switch {
	case catalogue.Qualifies(b):
		return []catalogue.Operation{catalogue.OperationCreate, catalogue.OperationUpdate}
	case catalogue.IsApproved(b):
		return []catalogue.Operation{catalogue.OperationUpdate}
	}
	return []catalogue.Operation{catalogue.OperationDelete}
}

func (self *Manager) withBundle(b *catalogue.Bundle) *logrus.Entry {
	return self.log.WithField("type", b.Type).WithField("id", b.Id).WithField("catalogue", b.CatalogueId)
}
