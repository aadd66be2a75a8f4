package lifecycle

import (
	"context"
	"slices"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/publicid"
	"github.com/catalogue-registry/registry/src/security"
)

// Verify moves a draft to another status of its review. Only approved records may be active.
func (self *Manager) Verify(ctx context.Context, subject *security.Subject, t catalogue.EntityType, id, catalogueId, status string, active bool) (out *catalogue.Bundle, err error) {
	catalogueId = self.catalogueOrDefault(catalogueId)

	if !catalogue.HasWorkflow(t) {
		return nil, self.fail(catalogue.Validation("%s records aren't reviewed", t))
	}
	if !catalogue.IsValidStatus(t, status) {
		return nil, self.fail(catalogue.Validation("%q is not a status of %s, expected one of %v", status, t, catalogue.Statuses(t)))
	}
	if active && status != catalogue.ApprovedStatus(t) {
		return nil, self.fail(catalogue.Validation("%s %s can't be active while %q", t, id, status))
	}

	draft, err := self.verify(ctx, subject, t, id, catalogueId, status, active)
	if err != nil {
		return nil, self.fail(err)
	}

	// Outside the draft's lock, the provider has its own
	if t.IsResource() {
		self.resolveTemplate(ctx, subject, draft)
	}

	self.monitor.GetReport().Lifecycle.State.Verified.Inc()
	self.withBundle(draft).WithField("status", status).WithField("active", active).Info("Draft verified")
	return draft.Clone(), nil
}

func (self *Manager) verify(ctx context.Context, subject *security.Subject, t catalogue.EntityType, id, catalogueId, status string, active bool) (draft *catalogue.Bundle, err error) {
	unlock := self.lock(t, id, catalogueId)
	defer unlock()

	existing, err := self.get(ctx, t, id, catalogueId)
	if err != nil {
		return
	}

	draft = existing.Clone()
	draft.Status = status
	draft.Active = active
	self.touch(draft, subject)
	draft.AppendLog(self.entry(subject, catalogue.ActionVerified, status))

	err = self.commit(ctx, draft, mirrorOperations(draft)...)
	return
}

// Reviewing the resource template of a provider decides the provider's template status.
// An approved template activates an approved provider.
func (self *Manager) resolveTemplate(ctx context.Context, subject *security.Subject, resource *catalogue.Bundle) {
	providerId := catalogue.ProviderOf(resource.Payload)

	var templateStatus string
	switch resource.Status {
	case catalogue.ApprovedStatus(resource.Type):
		templateStatus = catalogue.TemplateStatusApproved
	case catalogue.RejectedStatus(resource.Type):
		templateStatus = catalogue.TemplateStatusRejected
	default:
		return
	}

	unlock := self.lock(catalogue.TypeProvider, providerId, resource.CatalogueId)
	defer unlock()

	provider, err := self.get(ctx, catalogue.TypeProvider, providerId, resource.CatalogueId)
	if err != nil || provider.TemplateStatus != catalogue.TemplateStatusPending {
		return
	}

	provider.TemplateStatus = templateStatus
	if templateStatus == catalogue.TemplateStatusApproved && provider.Status == catalogue.StatusApprovedProvider {
		provider.Active = true
	}
	self.touch(provider, subject)
	provider.AppendLog(self.entry(subject, catalogue.ActionUpdated, templateStatus))

	err = self.commit(ctx, provider, mirrorOperations(provider)...)
	if err != nil {
		self.withBundle(provider).WithError(err).Error("Failed to update template status")
		return
	}
	self.withBundle(provider).WithField("template_status", templateStatus).Info("Template reviewed")
}

// Publish flips the visibility of a draft
func (self *Manager) Publish(ctx context.Context, subject *security.Subject, t catalogue.EntityType, id, catalogueId string, active bool) (out *catalogue.Bundle, err error) {
	catalogueId = self.catalogueOrDefault(catalogueId)

	unlock := self.lock(t, id, catalogueId)
	defer unlock()

	existing, err := self.get(ctx, t, id, catalogueId)
	if err != nil {
		return nil, self.fail(err)
	}
	if active && !catalogue.IsApproved(existing) {
		return nil, self.fail(catalogue.Validation("%s %s can't be active while %q", t, id, existing.Status))
	}

	draft := existing.Clone()
	draft.Active = active
	self.touch(draft, subject)

	comment := "deactivated"
	if active {
		comment = "activated"
	}
	draft.AppendLog(self.entry(subject, catalogue.ActionPublished, comment))

	err = self.commit(ctx, draft, mirrorOperations(draft)...)
	if err != nil {
		return nil, self.fail(err)
	}

	self.monitor.GetReport().Lifecycle.State.Published.Inc()
	self.withBundle(draft).WithField("active", active).Info("Draft published")
	return draft.Clone(), nil
}

// Audit records a compliance review. The status stays as it is.
func (self *Manager) Audit(ctx context.Context, subject *security.Subject, t catalogue.EntityType, id, catalogueId, comment, state string) (out *catalogue.Bundle, err error) {
	catalogueId = self.catalogueOrDefault(catalogueId)

	if state != catalogue.AuditStateValid && state != catalogue.AuditStateInvalid {
		return nil, self.fail(catalogue.Validation("audit state must be %q or %q", catalogue.AuditStateValid, catalogue.AuditStateInvalid))
	}

	unlock := self.lock(t, id, catalogueId)
	defer unlock()

	existing, err := self.get(ctx, t, id, catalogueId)
	if err != nil {
		return nil, self.fail(err)
	}

	draft := existing.Clone()
	entry := self.entry(subject, catalogue.ActionAudited, comment)
	entry.AuditState = state
	draft.AppendLog(entry)

	err = self.commit(ctx, draft, catalogue.OperationUpdate)
	if err != nil {
		return nil, self.fail(err)
	}

	self.monitor.GetReport().Lifecycle.State.Audited.Inc()
	self.withBundle(draft).WithField("state", state).Info("Draft audited")
	return draft.Clone(), nil
}

// UpdateEOSCIFGuidelines replaces the interoperability guidelines of a service draft.
// Guideline PIDs must be unique. Public records are never updated directly.
func (self *Manager) UpdateEOSCIFGuidelines(ctx context.Context, subject *security.Subject, id, catalogueId string, guidelines []catalogue.Guideline) (out *catalogue.Bundle, err error) {
	catalogueId = self.catalogueOrDefault(catalogueId)

	unlock := self.lock(catalogue.TypeService, id, catalogueId)
	defer unlock()

	existing, err := self.get(ctx, catalogue.TypeService, id, catalogueId)
	if err != nil {
		return nil, self.fail(err)
	}
	if existing.Metadata.Published || publicid.IsPublic(catalogueId, id) {
		return nil, self.fail(catalogue.Unauthorized("public resource %s can't be updated directly", id))
	}

	pids := make([]string, 0, len(guidelines))
	for _, g := range guidelines {
		if slices.Contains(pids, g.Pid) {
			return nil, self.fail(catalogue.Validation("guideline PID %s appears more than once", g.Pid))
		}
		pids = append(pids, g.Pid)
	}

	draft := existing.Clone()
	draft.Extras.EOSCIFGuidelines = slices.Clone(guidelines)
	self.touch(draft, subject)
	draft.AppendLog(self.entry(subject, catalogue.ActionUpdated, "EOSC IF guidelines"))

	err = self.commit(ctx, draft, catalogue.OperationUpdate)
	if err != nil {
		return nil, self.fail(err)
	}

	self.monitor.GetReport().Lifecycle.State.GuidelinesUpdated.Inc()
	self.withBundle(draft).WithField("guidelines", len(guidelines)).Info("Guidelines updated")
	return draft.Clone(), nil
}
