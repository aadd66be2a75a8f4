package publication

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/store"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/model"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type recorder struct {
	mtx           sync.Mutex
	notifications []*model.Notification
}

func (self *recorder) Notify(ctx context.Context, notification *model.Notification) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.notifications = append(self.notifications, notification)
	return nil
}

func (self *recorder) topics() (out []string) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	for _, n := range self.notifications {
		out = append(out, n.Topic())
	}
	return
}

// Mirror store that's down
type failingStore struct {
	store.Store
	err error
}

func (self *failingStore) Upsert(ctx context.Context, b *catalogue.Bundle) error {
	return self.err
}

func TestPublicationTestSuite(t *testing.T) {
	suite.Run(t, new(PublicationTestSuite))
}

type PublicationTestSuite struct {
	suite.Suite
	ctx          context.Context
	config       *config.Config
	monitor      *monitor_registry.Monitor
	drafts       *store.Memory
	public       *store.Memory
	recorder     *recorder
	synchronizer *Synchronizer
}

func (s *PublicationTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.config = config.Default()
	s.config.Synchronizer.MaxElapsedTime = 50 * time.Millisecond
	s.config.Synchronizer.MaxInterval = 10 * time.Millisecond

	s.monitor = monitor_registry.NewMonitor()
	s.drafts = store.NewMemory(store.NamespaceDraft)
	s.public = store.NewMemory(store.NamespacePublic)
	s.recorder = new(recorder)

	provider := catalogue.NewBundle(&catalogue.Provider{Id: "P", CatalogueId: "cat1", Name: "Provider"})
	provider.Status = catalogue.StatusApprovedProvider
	provider.Active = true
	require.Nil(s.T(), s.drafts.Upsert(s.ctx, provider))

	// Provider from another catalogue
	other := catalogue.NewBundle(&catalogue.Provider{Id: "Q", CatalogueId: "cat2", Name: "Other"})
	require.Nil(s.T(), s.drafts.Upsert(s.ctx, other))

	s.synchronizer = NewSynchronizer(s.config).
		WithMonitor(s.monitor).
		WithNotifier(s.recorder).
		WithDraftStore(s.drafts).
		WithPublicStore(s.public)
}

func (s *PublicationTestSuite) draft(id string) *catalogue.Bundle {
	b := catalogue.NewBundle(&catalogue.Service{
		Id:                   id,
		CatalogueId:          "cat1",
		Name:                 "Service " + id,
		ResourceOrganisation: "P",
		ResourceProviders:    []string{"P", "Q"},
	})
	b.Status = catalogue.StatusApprovedResource
	b.Active = true
	require.Nil(s.T(), s.drafts.Upsert(s.ctx, b))
	return b
}

func (s *PublicationTestSuite) mirror(id string) *catalogue.Bundle {
	b, err := s.public.Get(s.ctx, catalogue.TypeService, id, "cat1")
	require.Nil(s.T(), err)
	return b
}

func (s *PublicationTestSuite) TestCreateIsIdempotent() {
	draft := s.draft("R")

	require.Nil(s.T(), s.synchronizer.Create(s.ctx, draft))
	require.Nil(s.T(), s.synchronizer.Create(s.ctx, draft))

	mirror := s.mirror("cat1.R")
	service := mirror.Payload.(*catalogue.Service)
	require.Equal(s.T(), "cat1.R", service.Id)
	require.Equal(s.T(), "R", mirror.Identifiers.OriginalId)
	require.True(s.T(), mirror.Metadata.Published)
	require.Equal(s.T(), "cat1.P", service.ResourceOrganisation)
	require.Equal(s.T(), []string{"cat1.P", "cat2.Q"}, service.ResourceProviders)

	// Draft is untouched
	require.Equal(s.T(), "R", draft.Id)
	require.False(s.T(), draft.Metadata.Published)

	require.Equal(s.T(), uint64(1), s.monitor.Report.Synchronizer.State.MirrorsCreated.Load())
	require.Equal(s.T(), []string{"service.create"}, s.recorder.topics())
}

func (s *PublicationTestSuite) TestRewritingMirrorTwiceKeepsReferences() {
	require.True(s.T(), s.synchronizer.IsCatalogue(s.ctx, "cat2"))
	require.True(s.T(), s.synchronizer.IsCatalogue(s.ctx, s.config.Registry.CatalogueId))
	require.False(s.T(), s.synchronizer.IsCatalogue(s.ctx, "cat9"))

	b := s.draft("R").Clone()
	s.synchronizer.rewriter.RewriteReferences(s.ctx, b)
	s.synchronizer.rewriter.RewriteReferences(s.ctx, b)
	require.Equal(s.T(), []string{"cat1.P", "cat2.Q"}, b.Payload.(*catalogue.Service).ResourceProviders)
}

func (s *PublicationTestSuite) TestWorksWithoutMonitor() {
	synchronizer := NewSynchronizer(s.config).
		WithNotifier(s.recorder).
		WithDraftStore(s.drafts).
		WithPublicStore(s.public)

	require.NotPanics(s.T(), func() {
		require.Nil(s.T(), synchronizer.Create(s.ctx, s.draft("R")))
	})
	s.mirror("cat1.R")
}

func (s *PublicationTestSuite) TestCreateSkipsDraftsThatDoNotQualify() {
	draft := s.draft("R")
	draft.Status = catalogue.StatusPendingResource

	require.Nil(s.T(), s.synchronizer.Create(s.ctx, draft))

	_, err := s.public.Get(s.ctx, catalogue.TypeService, "cat1.R", "cat1")
	require.ErrorIs(s.T(), err, catalogue.ErrNotFound)
	require.Empty(s.T(), s.recorder.topics())
}

func (s *PublicationTestSuite) TestCreateRefusesRepeatedPrefix() {
	draft := s.draft("cat1.R")

	err := s.synchronizer.Create(s.ctx, draft)
	require.ErrorIs(s.T(), err, catalogue.ErrValidation)
	require.Equal(s.T(), uint64(1), s.monitor.Report.Synchronizer.Errors.PrefixRepetition.Load())
}

func (s *PublicationTestSuite) TestUpdatesKeepMirrorIdentity() {
	draft := s.draft("R")
	require.Nil(s.T(), s.synchronizer.Create(s.ctx, draft))

	// Identifier added on the public side
	mirror := s.mirror("cat1.R")
	pid := catalogue.AlternativeIdentifier{Type: "PID", Value: "21.T15999/abc"}
	mirror.Payload.(*catalogue.Service).AlternativeIdentifiers = []catalogue.AlternativeIdentifier{pid}
	require.Nil(s.T(), s.public.Upsert(s.ctx, mirror))

	url := catalogue.AlternativeIdentifier{Type: "URL", Value: "https://example.org"}
	for _, tagline := range []string{"one", "two", "three", "four", "five"} {
		draft.Payload.(*catalogue.Service).Tagline = tagline
		draft.Payload.(*catalogue.Service).AlternativeIdentifiers = []catalogue.AlternativeIdentifier{url}
		require.Nil(s.T(), s.synchronizer.Update(s.ctx, draft))
	}

	mirror = s.mirror("cat1.R")
	service := mirror.Payload.(*catalogue.Service)
	require.Equal(s.T(), "cat1.R", mirror.Id)
	require.Equal(s.T(), "cat1.R", service.Id)
	require.Equal(s.T(), "R", mirror.Identifiers.OriginalId)
	require.Equal(s.T(), "five", service.Tagline)
	require.Equal(s.T(), "cat1.P", service.ResourceOrganisation)
	require.ElementsMatch(s.T(), []catalogue.AlternativeIdentifier{url, pid}, service.AlternativeIdentifiers)
	require.Equal(s.T(), uint64(5), s.monitor.Report.Synchronizer.State.MirrorsUpdated.Load())
}

func (s *PublicationTestSuite) TestUpdateWithoutMirrorDoesNothing() {
	draft := s.draft("R")

	require.Nil(s.T(), s.synchronizer.Update(s.ctx, draft))

	_, err := s.public.Get(s.ctx, catalogue.TypeService, "cat1.R", "cat1")
	require.ErrorIs(s.T(), err, catalogue.ErrNotFound)
	require.Empty(s.T(), s.recorder.topics())
}

func (s *PublicationTestSuite) TestDelete() {
	draft := s.draft("R")

	// Nothing to delete yet
	require.Nil(s.T(), s.synchronizer.Delete(s.ctx, draft))
	require.Empty(s.T(), s.recorder.topics())

	require.Nil(s.T(), s.synchronizer.Create(s.ctx, draft))
	require.Nil(s.T(), s.synchronizer.Delete(s.ctx, draft))

	_, err := s.public.Get(s.ctx, catalogue.TypeService, "cat1.R", "cat1")
	require.ErrorIs(s.T(), err, catalogue.ErrNotFound)
	require.Equal(s.T(), []string{"service.create", "service.delete"}, s.recorder.topics())
	require.Equal(s.T(), "R", s.recorder.notifications[1].OriginalId)
}

func (s *PublicationTestSuite) TestFailingMirrorStore() {
	down := errors.New("connection refused")
	s.synchronizer.WithPublicStore(&failingStore{Store: s.public, err: down})

	err := s.synchronizer.Create(s.ctx, s.draft("R"))
	require.ErrorIs(s.T(), err, catalogue.ErrSync)
	require.ErrorIs(s.T(), err, down)
	require.Greater(s.T(), s.monitor.Report.Synchronizer.Errors.MirrorWrite.Load(), uint64(0))
	require.Empty(s.T(), s.recorder.topics())
}

func (s *PublicationTestSuite) TestReconcile() {
	draft := s.draft("R")

	// Missing mirror is created
	require.Nil(s.T(), s.synchronizer.Reconcile(s.ctx, draft))
	s.mirror("cat1.R")

	// Nothing changed, nothing written
	require.Nil(s.T(), s.synchronizer.Reconcile(s.ctx, draft))
	require.Equal(s.T(), uint64(0), s.monitor.Report.Synchronizer.State.MirrorsUpdated.Load())

	// Stale mirror is updated
	draft.Payload.(*catalogue.Service).Tagline = "changed"
	require.Nil(s.T(), s.synchronizer.Reconcile(s.ctx, draft))
	require.Equal(s.T(), "changed", s.mirror("cat1.R").Payload.(*catalogue.Service).Tagline)

	// Deactivated drafts keep a hidden mirror
	draft.Active = false
	require.Nil(s.T(), s.synchronizer.Reconcile(s.ctx, draft))
	require.False(s.T(), s.mirror("cat1.R").Active)

	// Rejected drafts lose it
	draft.Status = catalogue.StatusRejectedResource
	require.Nil(s.T(), s.synchronizer.Reconcile(s.ctx, draft))
	_, err := s.public.Get(s.ctx, catalogue.TypeService, "cat1.R", "cat1")
	require.ErrorIs(s.T(), err, catalogue.ErrNotFound)
}

func (s *PublicationTestSuite) TestDispatcherKeepsOrderPerEntity() {
	dispatcher := NewDispatcher(s.config).
		WithMonitor(s.monitor).
		WithSynchronizer(s.synchronizer)
	require.Nil(s.T(), dispatcher.Start())
	defer dispatcher.StopWait()

	drafts := []*catalogue.Bundle{s.draft("R"), s.draft("S"), s.draft("T")}
	for _, draft := range drafts {
		dispatcher.Enqueue(s.ctx, draft, catalogue.OperationCreate)
	}

	for i := 0; i < 20; i++ {
		for _, draft := range drafts {
			draft.Payload.(*catalogue.Service).Version = string(rune('a' + i))
			dispatcher.Enqueue(s.ctx, draft, catalogue.OperationUpdate)
		}
	}

	// The snapshot is taken at enqueue time
	drafts[0].Payload.(*catalogue.Service).Version = "never published"

	require.Eventually(s.T(), func() bool {
		return s.monitor.Report.Dispatcher.State.PendingJobs.Load() == 0
	}, 5*time.Second, 10*time.Millisecond)

	for _, id := range []string{"cat1.R", "cat1.S", "cat1.T"} {
		require.Equal(s.T(), "t", s.mirror(id).Payload.(*catalogue.Service).Version)
	}
	require.Equal(s.T(), uint64(3), s.monitor.Report.Synchronizer.State.MirrorsCreated.Load())
	require.Equal(s.T(), uint64(60), s.monitor.Report.Synchronizer.State.MirrorsUpdated.Load())
}

func (s *PublicationTestSuite) TestDispatcherDropsJobsWhenStopped() {
	dispatcher := NewDispatcher(s.config).
		WithMonitor(s.monitor).
		WithSynchronizer(s.synchronizer)
	require.Nil(s.T(), dispatcher.Start())
	dispatcher.StopWait()

	dispatcher.Enqueue(s.ctx, s.draft("R"), catalogue.OperationCreate)
	require.Equal(s.T(), uint64(1), s.monitor.Report.Dispatcher.Errors.JobsDropped.Load())
}

func (s *PublicationTestSuite) TestSweeper() {
	s.config.Sweeper.PageSize = 2
	s.config.Sweeper.MaxPerSecond = 1000

	// Approved, active, never published
	s.draft("R")
	s.draft("S")

	// Mirror whose draft is gone
	orphan := catalogue.NewBundle(&catalogue.Service{Id: "cat1.Z", CatalogueId: "cat1", Name: "Gone"})
	orphan.Identifiers.OriginalId = "Z"
	require.Nil(s.T(), s.public.Upsert(s.ctx, orphan))

	sweeper := NewSweeper(s.config).
		WithMonitor(s.monitor).
		WithSynchronizer(s.synchronizer).
		WithDraftStore(s.drafts).
		WithPublicStore(s.public)

	err := sweeper.RunOnce(s.ctx)
	require.Nil(s.T(), err)

	s.mirror("cat1.R")
	s.mirror("cat1.S")
	_, err = s.public.Get(s.ctx, catalogue.TypeProvider, "cat1.P", "cat1")
	require.Nil(s.T(), err)
	_, err = s.public.Get(s.ctx, catalogue.TypeService, "cat1.Z", "cat1")
	require.ErrorIs(s.T(), err, catalogue.ErrNotFound)

	state := &s.monitor.Report.Sweeper.State
	require.Equal(s.T(), uint64(1), state.Runs.Load())
	require.Equal(s.T(), uint64(4), state.DraftsVisited.Load())
	require.Equal(s.T(), uint64(1), state.OrphanMirrorsDeleted.Load())

	// Second run has nothing to do
	require.Nil(s.T(), sweeper.RunOnce(s.ctx))
	require.Equal(s.T(), uint64(3), s.monitor.Report.Synchronizer.State.MirrorsCreated.Load())
	require.Equal(s.T(), uint64(1), state.OrphanMirrorsDeleted.Load())
}
