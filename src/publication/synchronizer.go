// Package publication keeps the public mirror store in line with approved, active drafts.
package publication

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"time"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/publicid"
	"github.com/catalogue-registry/registry/src/store"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/logger"
	"github.com/catalogue-registry/registry/src/utils/model"
	"github.com/catalogue-registry/registry/src/utils/monitoring"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"
	"github.com/catalogue-registry/registry/src/utils/task"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Notifier delivers mirror change notifications to downstream consumers
type Notifier interface {
	Notify(ctx context.Context, notification *model.Notification) error
}

// Synchronizer creates, updates and deletes public mirrors of drafts.
// Failures never reach the lifecycle caller, they are logged, counted and left for the next transition or the sweeper.
type Synchronizer struct {
	config *config.Config
	log    *logrus.Entry

	monitor  monitoring.Monitor
	notifier Notifier

	drafts store.Store
	public store.Store

	rewriter *publicid.Rewriter
}

func NewSynchronizer(config *config.Config) (self *Synchronizer) {
	self = new(Synchronizer)
	// Local counters until a shared monitor is set
	self.monitor = monitor_registry.NewMonitor()
	self.config = config
	self.log = logger.NewSublogger("synchronizer")
	self.rewriter = publicid.NewRewriter().WithResolver(self)
	return
}

func (self *Synchronizer) WithMonitor(v monitoring.Monitor) *Synchronizer {
	self.monitor = v
	return self
}

func (self *Synchronizer) WithNotifier(v Notifier) *Synchronizer {
	self.notifier = v
	return self
}

func (self *Synchronizer) WithDraftStore(v store.Store) *Synchronizer {
	self.drafts = v
	return self
}

func (self *Synchronizer) WithPublicStore(v store.Store) *Synchronizer {
	self.public = v
	return self
}

// CatalogueOf finds the catalogue of a referenced draft
func (self *Synchronizer) CatalogueOf(ctx context.Context, t catalogue.EntityType, id string) (string, bool) {
	ff := store.NewFacetFilter().AddFilter(string(catalogue.FieldInternalId), id)
	ff.ResourceTypes = []catalogue.EntityType{t}
	ff.Quantity = 1

	paging, err := self.drafts.Query(ctx, ff)
	if err != nil || len(paging.Results) == 0 {
		return "", false
	}
	return paging.Results[0].CatalogueId, true
}

// IsCatalogue tells if the catalogue is the home catalogue or holds drafts
func (self *Synchronizer) IsCatalogue(ctx context.Context, catalogueId string) bool {
	if catalogueId == self.config.Registry.CatalogueId {
		return true
	}

	ff := store.NewFacetFilter().AddFilter(string(catalogue.FieldCatalogueId), catalogueId)
	ff.Quantity = 0

	paging, err := self.drafts.Query(ctx, ff)
	return err == nil && paging.Total > 0
}

func (self *Synchronizer) withBundle(b *catalogue.Bundle) *logrus.Entry {
	return self.log.WithField("type", b.Type).WithField("id", b.Id).WithField("catalogue", b.CatalogueId)
}

// Fetches the mirror of the draft, nil when there's none
func (self *Synchronizer) mirrorOf(ctx context.Context, draft *catalogue.Bundle) (mirror *catalogue.Bundle, err error) {
	publicId := publicid.ToPublicId(draft.CatalogueId, draft.Id)
	mirror, err = self.public.Get(ctx, draft.Type, publicId, draft.CatalogueId)
	if errors.Is(err, catalogue.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		self.monitor.GetReport().Synchronizer.Errors.MirrorRead.Inc()
		return nil, catalogue.Sync(err, "get mirror %s of %s", publicId, draft.Key())
	}
	return
}

// Create publishes a draft for the first time. Drafts that don't qualify and drafts that already have a mirror are left alone.
func (self *Synchronizer) Create(ctx context.Context, draft *catalogue.Bundle) (err error) {
	if !catalogue.Qualifies(draft) {
		self.monitor.GetReport().Synchronizer.State.Skipped.Inc()
		return nil
	}

	existing, err := self.mirrorOf(ctx, draft)
	if err != nil {
		self.withBundle(draft).WithError(err).Error("Failed to check public mirror")
		return
	}
	if existing != nil {
		self.monitor.GetReport().Synchronizer.State.Skipped.Inc()
		return nil
	}

	err = publicid.CheckPrefixRepetition(draft.CatalogueId, draft.Id)
	if err != nil {
		self.monitor.GetReport().Synchronizer.Errors.PrefixRepetition.Inc()
		self.withBundle(draft).WithError(err).Error("Refusing to publish")
		return
	}

	mirror := draft.Clone()
	mirror.Identifiers.OriginalId = draft.Id
	mirror.SetId(publicid.ToPublicId(draft.CatalogueId, draft.Id))
	self.rewriter.RewriteReferences(ctx, mirror)
	mirror.Metadata.Published = true

	err = self.upsert(ctx, mirror)
	if err != nil {
		return
	}

	self.monitor.GetReport().Synchronizer.State.MirrorsCreated.Inc()
	self.withBundle(mirror).Info("Public mirror created")
	self.notify(ctx, catalogue.OperationCreate, mirror)
	return
}

// Update copies the draft onto its existing mirror. Drafts without a mirror are not published by an update.
func (self *Synchronizer) Update(ctx context.Context, draft *catalogue.Bundle) (err error) {
	existing, err := self.mirrorOf(ctx, draft)
	if err != nil {
		self.withBundle(draft).WithError(err).Error("Failed to check public mirror")
		return
	}
	if existing == nil {
		self.monitor.GetReport().Synchronizer.State.Skipped.Inc()
		return nil
	}

	mirror := self.copyOntoMirror(ctx, draft, existing)

	err = self.upsert(ctx, mirror)
	if err != nil {
		return
	}

	self.monitor.GetReport().Synchronizer.State.MirrorsUpdated.Inc()
	self.withBundle(mirror).Debug("Public mirror updated")
	self.notify(ctx, catalogue.OperationUpdate, mirror)
	return
}

// Delete removes the mirror of the draft. A missing mirror is fine.
func (self *Synchronizer) Delete(ctx context.Context, draft *catalogue.Bundle) (err error) {
	return self.deleteMirror(ctx, draft.Type, publicid.ToPublicId(draft.CatalogueId, draft.Id), draft.CatalogueId, draft.Id)
}

func (self *Synchronizer) deleteMirror(ctx context.Context, t catalogue.EntityType, publicId, catalogueId, originalId string) (err error) {
	err = task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.config.Synchronizer.MaxElapsedTime).
		WithMaxInterval(self.config.Synchronizer.MaxInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, catalogue.ErrNotFound) {
				return backoff.Permanent(err)
			}
			self.monitor.GetReport().Synchronizer.Errors.MirrorWrite.Inc()
			self.log.WithError(err).WithField("id", publicId).Warn("Failed to delete public mirror, retrying")
			return err
		}).
		Run(func() error {
			return self.public.Delete(ctx, t, publicId, catalogueId)
		})
	if errors.Is(err, catalogue.ErrNotFound) {
		return nil
	}
	if err != nil {
		err = catalogue.Sync(err, "delete mirror %s", publicId)
		self.log.WithError(err).WithField("id", publicId).Error("Failed to delete public mirror")
		return
	}

	self.monitor.GetReport().Synchronizer.State.MirrorsDeleted.Inc()
	self.log.WithField("type", t).WithField("id", publicId).Info("Public mirror deleted")

	self.send(ctx, &model.Notification{
		EntityType:  t,
		Operation:   catalogue.OperationDelete,
		EntityId:    publicId,
		CatalogueId: catalogueId,
		OriginalId:  originalId,
		Timestamp:   time.Now().UnixMilli(),
	})
	return nil
}

// Reconcile brings the mirror in line with the draft, whatever happened before. Used by the sweeper.
func (self *Synchronizer) Reconcile(ctx context.Context, draft *catalogue.Bundle) (err error) {
	if !catalogue.IsApproved(draft) {
		return self.Delete(ctx, draft)
	}

	existing, err := self.mirrorOf(ctx, draft)
	if err != nil {
		return
	}
	if existing == nil {
		return self.Create(ctx, draft)
	}

	if reflect.DeepEqual(self.copyOntoMirror(ctx, draft, existing), existing) {
		return nil
	}
	return self.Update(ctx, draft)
}

// copyOntoMirror builds the new mirror state: the draft's fields with the mirror's id and identifiers
func (self *Synchronizer) copyOntoMirror(ctx context.Context, draft, existing *catalogue.Bundle) *catalogue.Bundle {
	mirror := draft.Clone()
	mirror.SetId(existing.Id)
	mirror.Identifiers = existing.Identifiers

	// Identifiers assigned on the public side are never lost
	if draftService, ok := mirror.Payload.(*catalogue.Service); ok {
		if existingService, ok := existing.Payload.(*catalogue.Service); ok {
			for _, v := range existingService.AlternativeIdentifiers {
				if !slices.Contains(draftService.AlternativeIdentifiers, v) {
					draftService.AlternativeIdentifiers = append(draftService.AlternativeIdentifiers, v)
				}
			}
		}
	}

	self.rewriter.RewriteReferences(ctx, mirror)
	mirror.Metadata.Published = true
	return mirror
}

func (self *Synchronizer) upsert(ctx context.Context, mirror *catalogue.Bundle) (err error) {
	err = task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.config.Synchronizer.MaxElapsedTime).
		WithMaxInterval(self.config.Synchronizer.MaxInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, catalogue.ErrValidation) {
				return backoff.Permanent(err)
			}
			self.monitor.GetReport().Synchronizer.Errors.MirrorWrite.Inc()
			self.withBundle(mirror).WithError(err).Warn("Failed to write public mirror, retrying")
			return err
		}).
		Run(func() error {
			return self.public.Upsert(ctx, mirror)
		})
	if err != nil {
		err = catalogue.Sync(err, "upsert mirror %s", mirror.Key())
		self.withBundle(mirror).WithError(err).Error("Failed to write public mirror, giving up")
	}
	return
}

func (self *Synchronizer) notify(ctx context.Context, op catalogue.Operation, mirror *catalogue.Bundle) {
	timestamp := mirror.Metadata.ModifiedAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	self.send(ctx, &model.Notification{
		EntityType:  mirror.Type,
		Operation:   op,
		EntityId:    mirror.Id,
		CatalogueId: mirror.CatalogueId,
		OriginalId:  mirror.Identifiers.OriginalId,
		Timestamp:   timestamp.UnixMilli(),
	})
}

func (self *Synchronizer) send(ctx context.Context, notification *model.Notification) {
	if self.notifier == nil {
		return
	}

	notification.MessageId = xid.New().String()
	err := self.notifier.Notify(ctx, notification)
	if err != nil {
		self.monitor.GetReport().Synchronizer.Errors.Notify.Inc()
		self.log.WithError(err).WithField("topic", notification.Topic()).Error("Failed to send notification")
	}
}
