package lifecycle

import (
	"context"
	"errors"
	"reflect"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/publicid"
	"github.com/catalogue-registry/registry/src/security"
	"github.com/catalogue-registry/registry/src/store"

	"github.com/google/uuid"
)

// Add registers a new draft. Records with a review start pending and inactive, the others start active.
func (self *Manager) Add(ctx context.Context, subject *security.Subject, bundle *catalogue.Bundle) (out *catalogue.Bundle, err error) {
	if bundle == nil || bundle.Payload == nil {
		return nil, self.fail(catalogue.Validation("bundle without payload"))
	}

	draft := catalogue.NewBundle(bundle.Payload.Clone())
	draft.SetCatalogueId(self.catalogueOrDefault(draft.CatalogueId))
	if draft.Id == "" {
		draft.SetId(uuid.NewString())
	}

	err = publicid.CheckPrefixRepetition(draft.CatalogueId, draft.Id)
	if err != nil {
		return nil, self.fail(err)
	}

	templateOf, err := self.add(ctx, subject, draft)
	if err != nil {
		return nil, self.fail(err)
	}

	// Outside the draft's lock, the provider has its own
	if templateOf != "" {
		self.markTemplatePending(ctx, subject, templateOf, draft.CatalogueId)
	}

	self.monitor.GetReport().Lifecycle.State.Added.Inc()
	self.withBundle(draft).WithField("by", subjectEmail(subject)).Info("Draft added")
	return draft.Clone(), nil
}

// Stores the new draft. Returns the provider that may take it as resource template.
func (self *Manager) add(ctx context.Context, subject *security.Subject, draft *catalogue.Bundle) (templateOf string, err error) {
	unlock := self.lock(draft.Type, draft.Id, draft.CatalogueId)
	defer unlock()

	_, err = self.drafts.Get(ctx, draft.Type, draft.Id, draft.CatalogueId)
	if err == nil {
		return "", catalogue.Conflict("%s %s already exists in catalogue %s", draft.Type, draft.Id, draft.CatalogueId)
	}
	if !errors.Is(err, catalogue.ErrNotFound) {
		return
	}

	prettify(draft.Payload)

	templateOf, err = self.checkAdd(ctx, subject, draft)
	if err != nil {
		return
	}

	if catalogue.HasWorkflow(draft.Type) {
		draft.Status = catalogue.PendingStatus(draft.Type)
		draft.Active = false
	} else {
		draft.Active = true
	}
	if draft.Type == catalogue.TypeProvider {
		draft.TemplateStatus = catalogue.TemplateStatusNone
	}

	now := self.now()
	draft.Metadata.RegisteredBy = subject.FullName()
	draft.Metadata.RegisteredAt = now
	draft.Metadata.ModifiedBy = subject.FullName()
	draft.Metadata.ModifiedAt = now
	draft.AppendLog(self.entry(subject, catalogue.ActionRegistered, ""))

	err = self.commit(ctx, draft, catalogue.OperationCreate)
	return
}

// The first resource of a provider without a template becomes its template.
// The provider is read again under its own lock, changes made since checkAdd are kept.
func (self *Manager) markTemplatePending(ctx context.Context, subject *security.Subject, providerId, catalogueId string) {
	unlock := self.lock(catalogue.TypeProvider, providerId, catalogueId)
	defer unlock()

	provider, err := self.get(ctx, catalogue.TypeProvider, providerId, catalogueId)
	if err != nil {
		self.log.WithError(err).WithField("provider", providerId).Error("Failed to get provider of a new resource")
		return
	}
	if catalogue.Qualifies(provider) || provider.TemplateStatus != catalogue.TemplateStatusNone {
		return
	}

	provider.TemplateStatus = catalogue.TemplateStatusPending
	self.touch(provider, subject)
	provider.AppendLog(self.entry(subject, catalogue.ActionUpdated, catalogue.TemplateStatusPending))

	err = self.commit(ctx, provider, catalogue.OperationUpdate)
	if err != nil {
		self.withBundle(provider).WithError(err).Error("Failed to mark pending template")
	}
}

// Checks the references of a new draft. Returns the provider id when the draft becomes its resource template.
func (self *Manager) checkAdd(ctx context.Context, subject *security.Subject, draft *catalogue.Bundle) (templateOf string, err error) {
	switch p := draft.Payload.(type) {
	case *catalogue.Provider:
		// Whoever registers a provider administers it
		email := subjectEmail(subject)
		if email != "" && !subject.IsSystem() && !p.HasAdmin(email) {
			p.Users = append(p.Users, catalogue.User{Email: email, Name: subject.Name, Surname: subject.Surname})
		}

	case *catalogue.Service, *catalogue.TrainingResource:
		providerId := catalogue.ProviderOf(p)
		var provider *catalogue.Bundle
		provider, err = self.referenced(ctx, catalogue.TypeProvider, providerId, draft.CatalogueId)
		if err != nil {
			return
		}

		if !security.IsAdmin(self.authority, subject) {
			var ok bool
			ok, err = self.providerCanAddResources(ctx, subject, providerId, draft.CatalogueId)
			if err != nil {
				return
			}
			if !ok {
				return "", catalogue.Unauthorized("can't add resources to provider %s", providerId)
			}
		}

		if !catalogue.Qualifies(provider) && provider.TemplateStatus == catalogue.TemplateStatusNone {
			templateOf = providerId
		}

	case *catalogue.Datasource:
		_, err = self.referenced(ctx, catalogue.TypeService, p.ServiceId, draft.CatalogueId)

	case *catalogue.InteroperabilityRecord:
		_, err = self.referenced(ctx, catalogue.TypeProvider, p.ProviderId, draft.CatalogueId)

	case *catalogue.ResourceInteroperabilityRecord:
		_, err = self.referenced(ctx, catalogue.TypeService, p.ResourceId, draft.CatalogueId)
		for _, id := range p.InteroperabilityRecordIds {
			if err != nil {
				return
			}
			_, err = self.referenced(ctx, catalogue.TypeInteroperabilityRecord, id, draft.CatalogueId)
		}

	case *catalogue.Helpdesk:
		err = self.checkExtension(ctx, p)

	case *catalogue.Monitoring:
		err = self.checkExtension(ctx, p)
		if err != nil {
			return
		}
		err = self.validateServiceTypes(ctx, p)
	}
	return
}

// Fetches a referenced draft. A missing one makes the referencing record invalid.
func (self *Manager) referenced(ctx context.Context, t catalogue.EntityType, id, catalogueId string) (*catalogue.Bundle, error) {
	if id == "" {
		return nil, catalogue.Validation("missing %s reference", t)
	}
	b, err := self.drafts.Get(ctx, t, id, catalogueId)
	if errors.Is(err, catalogue.ErrNotFound) {
		return nil, catalogue.Validation("%s %s doesn't exist in catalogue %s", t, id, catalogueId)
	}
	return b, err
}

// A service gets at most one extension of each kind, and only once it's approved, active and not a public record
func (self *Manager) checkExtension(ctx context.Context, extension catalogue.ServiceExtension) error {
	serviceId := extension.GetServiceId()
	catalogueId := extension.GetCatalogueId()

	service, err := self.referenced(ctx, catalogue.TypeService, serviceId, catalogueId)
	if err != nil {
		return err
	}
	if !catalogue.Qualifies(service) || service.Metadata.Published || publicid.IsPublic(catalogueId, serviceId) {
		return catalogue.Validation("service %s must be approved, active and not public", serviceId)
	}

	ff := store.NewFacetFilter().
		AddFilter(string(catalogue.FieldServiceId), serviceId).
		AddFilter(string(catalogue.FieldCatalogueId), catalogueId)
	ff.ResourceTypes = []catalogue.EntityType{extension.Type()}
	ff.Quantity = 1

	paging, err := self.drafts.Query(ctx, ff)
	if err != nil {
		return err
	}
	if paging.Total > 0 {
		return catalogue.Validation("service %s of catalogue %s already has a %s with id %s",
			serviceId, catalogueId, extension.Type(), paging.Results[0].Id)
	}
	return nil
}

func (self *Manager) validateServiceTypes(ctx context.Context, monitoring *catalogue.Monitoring) error {
	if self.argo == nil {
		return nil
	}
	names := make([]string, 0, len(monitoring.MonitoringGroups))
	for _, g := range monitoring.MonitoringGroups {
		names = append(names, g.ServiceType)
	}
	return self.argo.ValidateServiceTypes(ctx, names)
}

// Update replaces the payload of a draft. Status, visibility and history are kept.
func (self *Manager) Update(ctx context.Context, subject *security.Subject, bundle *catalogue.Bundle, comment string) (out *catalogue.Bundle, err error) {
	if bundle == nil || bundle.Payload == nil {
		return nil, self.fail(catalogue.Validation("bundle without payload"))
	}

	catalogueId := self.catalogueOrDefault(bundle.Payload.GetCatalogueId())
	id := bundle.Payload.GetId()

	unlock := self.lock(bundle.Payload.Type(), id, catalogueId)
	defer unlock()

	existing, err := self.get(ctx, bundle.Payload.Type(), id, catalogueId)
	if err != nil {
		return nil, self.fail(err)
	}

	draft := existing.Clone()
	draft.Payload = bundle.Payload.Clone()
	draft.SetCatalogueId(catalogueId)
	prettify(draft.Payload)

	if reflect.DeepEqual(draft.Payload, existing.Payload) {
		return nil, self.fail(catalogue.Validation("there are no changes in %s %s", draft.Type, draft.Id))
	}

	err = self.checkUpdate(ctx, subject, existing, draft)
	if err != nil {
		return nil, self.fail(err)
	}

	self.touch(draft, subject)
	draft.AppendLog(self.entry(subject, catalogue.ActionUpdated, comment))

	err = self.commit(ctx, draft, catalogue.OperationUpdate)
	if err != nil {
		return nil, self.fail(err)
	}

	self.monitor.GetReport().Lifecycle.State.Updated.Inc()
	self.withBundle(draft).WithField("by", subjectEmail(subject)).Info("Draft updated")
	return draft.Clone(), nil
}

func (self *Manager) checkUpdate(ctx context.Context, subject *security.Subject, existing, draft *catalogue.Bundle) (err error) {
	if extension, ok := draft.Payload.(catalogue.ServiceExtension); ok {
		before := existing.Payload.(catalogue.ServiceExtension).GetServiceId()
		if extension.GetServiceId() != before && !security.IsAdmin(self.authority, subject) {
			return catalogue.Validation("the service of %s %s can't be changed", draft.Type, draft.Id)
		}
	}

	switch p := draft.Payload.(type) {
	case *catalogue.Service, *catalogue.TrainingResource:
		providerId := catalogue.ProviderOf(p)
		if providerId != catalogue.ProviderOf(existing.Payload) {
			_, err = self.referenced(ctx, catalogue.TypeProvider, providerId, draft.CatalogueId)
		}
	case *catalogue.Monitoring:
		err = self.validateServiceTypes(ctx, p)
	}
	return
}

// Delete removes a draft together with the records that depend on it. Their mirrors follow.
func (self *Manager) Delete(ctx context.Context, subject *security.Subject, t catalogue.EntityType, id, catalogueId string) (err error) {
	catalogueId = self.catalogueOrDefault(catalogueId)

	existing, err := self.get(ctx, t, id, catalogueId)
	if err != nil {
		return self.fail(err)
	}

	dependents, err := self.dependents(ctx, existing)
	if err != nil {
		return self.fail(err)
	}
	for _, dependent := range dependents {
		err = self.Delete(ctx, subject, dependent.Type, dependent.Id, dependent.CatalogueId)
		if err != nil && !errors.Is(err, catalogue.ErrNotFound) {
			return err
		}
	}

	unlock := self.lock(t, id, catalogueId)
	defer unlock()

	err = self.drafts.Delete(ctx, t, id, catalogueId)
	if err != nil {
		return self.fail(err)
	}

	existing.AppendLog(self.entry(subject, catalogue.ActionDeleted, ""))
	self.dispatcher.Enqueue(ctx, existing, catalogue.OperationDelete)

	self.monitor.GetReport().Lifecycle.State.Deleted.Inc()
	self.withBundle(existing).WithField("by", subjectEmail(subject)).Info("Draft deleted")
	return nil
}

// Records that can't outlive the bundle
func (self *Manager) dependents(ctx context.Context, b *catalogue.Bundle) (out []*catalogue.Bundle, err error) {
	type reference struct {
		field catalogue.Field
		types []catalogue.EntityType
	}

	var references []reference
	switch b.Type {
	case catalogue.TypeProvider:
		references = []reference{
			{catalogue.FieldResourceOrganisation, []catalogue.EntityType{catalogue.TypeService, catalogue.TypeTrainingResource}},
			{catalogue.FieldProviderId, []catalogue.EntityType{catalogue.TypeInteroperabilityRecord}},
		}
	case catalogue.TypeService:
		references = []reference{
			{catalogue.FieldServiceId, []catalogue.EntityType{catalogue.TypeDatasource, catalogue.TypeHelpdesk, catalogue.TypeMonitoring}},
			{catalogue.FieldResourceId, []catalogue.EntityType{catalogue.TypeResourceInteroperabilityRecord}},
		}
	}

	for _, ref := range references {
		ff := store.NewFacetFilter().
			AddFilter(string(ref.field), b.Id).
			AddFilter(string(catalogue.FieldCatalogueId), b.CatalogueId)
		ff.ResourceTypes = ref.types

		var found []*catalogue.Bundle
		found, err = store.All(ctx, self.drafts, ff, self.config.Registry.MaxQuantity)
		if err != nil {
			return
		}
		out = append(out, found...)
	}
	return
}
