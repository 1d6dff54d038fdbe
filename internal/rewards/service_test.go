package rewards_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/auth"
	"github.com/balkashynov/listeningroom/internal/cache"
	"github.com/balkashynov/listeningroom/internal/config"
	"github.com/balkashynov/listeningroom/internal/db"
	"github.com/balkashynov/listeningroom/internal/models"
	"github.com/balkashynov/listeningroom/internal/rewards"
)

var (
	volunteer = auth.Principal{UserID: "vol-1", Role: auth.RoleVolunteer}
	seeker    = auth.Principal{UserID: "seek-1", Role: auth.RoleSeeker}
	stranger  = auth.Principal{UserID: "someone-else"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *rewards.Service
	store *db.SessionStore
	cache *cache.Memory
	clock *fakeClock
}

func newStore(t *testing.T) *db.SessionStore {
	t.Helper()
	gdb, err := db.Open(&config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "rewards.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db.NewSessionStore(gdb)
}

func setup(t *testing.T) *fixture {
	return setupWithStore(t, nil)
}

// setupWithStore lets a test wrap the real store
func setupWithStore(t *testing.T, wrap func(rewards.Store) rewards.Store) *fixture {
	t.Helper()
	store := newStore(t)
	clock := &fakeClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	mem := cache.NewMemory(0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var s rewards.Store = store
	if wrap != nil {
		s = wrap(store)
	}
	svc := rewards.NewService(s, mem, rewards.NewCalculator(clock.Now), logger)
	return &fixture{svc: svc, store: store, cache: mem, clock: clock}
}

func (f *fixture) start(t *testing.T) string {
	t.Helper()
	session, err := f.svc.Start(context.Background(), volunteer.UserID, seeker.UserID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return session.ID
}

func TestSnapshotAuthorization(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.start(t)

	if _, err := f.svc.Snapshot(ctx, volunteer, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown session: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Snapshot(ctx, stranger, id); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("stranger: expected ErrForbidden, got %v", err)
	}
	for _, p := range []auth.Principal{volunteer, seeker} {
		if _, err := f.svc.Snapshot(ctx, p, id); err != nil {
			t.Errorf("%s should read the snapshot: %v", p.UserID, err)
		}
	}
}

func TestSnapshotPersistsAccrual(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.start(t)

	f.clock.Advance(90 * time.Second)
	snap, err := f.svc.Snapshot(ctx, seeker, id)
	if err != nil {
		t.Fatal(err)
	}
	if snap.CurrentPoints != 60 || snap.CurrentAmount != 6.00 {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	row, _ := f.store.GetSession(ctx, id)
	if row.AccruedPoints != 60 || row.AccruedAmountCents != 600 {
		t.Errorf("accrual not persisted: %+v", row)
	}
	if cached, ok, _ := f.cache.Get(ctx, id); !ok || cached.CurrentPoints != 60 {
		t.Errorf("snapshot not cached: %+v ok=%v", cached, ok)
	}
}

func TestSnapshotsAreMonotonic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.start(t)

	var last int64
	for i := 0; i < 20; i++ {
		f.clock.Advance(7 * time.Second)
		snap, err := f.svc.Snapshot(ctx, volunteer, id)
		if err != nil {
			t.Fatal(err)
		}
		if snap.CurrentPoints < last {
			t.Fatalf("points went backwards: %d after %d", snap.CurrentPoints, last)
		}
		if snap.BillingMode != models.BillingStandard {
			t.Fatalf("billing mode changed without a decision: %s", snap.BillingMode)
		}
		last = snap.CurrentPoints
	}
}

func TestContinueScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.start(t)

	f.clock.Advance(299 * time.Second)
	snap, _ := f.svc.Snapshot(ctx, volunteer, id)
	if snap.ShouldAutoTerminate || snap.CurrentPoints != 199 {
		t.Fatalf("t=299: %+v", snap)
	}
	if _, err := f.svc.Decide(ctx, volunteer, id, rewards.ActionContinue); !errors.Is(err, apperr.ErrPrecondition) {
		t.Fatalf("early continue: expected ErrPrecondition, got %v", err)
	}

	f.clock.Advance(time.Second)
	snap, _ = f.svc.Snapshot(ctx, volunteer, id)
	if !snap.ShouldAutoTerminate || snap.CurrentPoints != 200 {
		t.Fatalf("t=300: %+v", snap)
	}

	snap, err := f.svc.Decide(ctx, seeker, id, rewards.ActionContinue)
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	if snap.BillingMode != models.BillingPremium || snap.ShouldAutoTerminate {
		t.Errorf("after continue: %+v", snap)
	}

	f.clock.Advance(60 * time.Second)
	snap, _ = f.svc.Snapshot(ctx, volunteer, id)
	if snap.CurrentPoints != 260 || snap.CurrentAmount != 26.00 {
		t.Errorf("t=360: expected 260 points / $26.00, got %d / %v", snap.CurrentPoints, snap.CurrentAmount)
	}

	// Repeating continue is a no-op
	again, err := f.svc.Decide(ctx, volunteer, id, rewards.ActionContinue)
	if err != nil || again.CurrentPoints != 260 {
		t.Errorf("repeat continue: %+v err=%v", again, err)
	}

	history, _ := f.svc.History(ctx, volunteer, id)
	if len(history) != 1 || history[0].Action != "continue" || history[0].Points != 200 {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestEndFreezesSnapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.start(t)

	f.clock.Advance(150 * time.Second)
	final, err := f.svc.End(ctx, seeker, id)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if final.Status != models.StatusEnded || final.CurrentPoints != 100 || final.CurrentAmount != 10.00 {
		t.Errorf("unexpected final snapshot %+v", final)
	}

	f.clock.Advance(time.Hour)
	for _, p := range []auth.Principal{volunteer, seeker} {
		snap, err := f.svc.Snapshot(ctx, p, id)
		if err != nil {
			t.Fatal(err)
		}
		if snap != final {
			t.Errorf("snapshot moved after end:\n got %+v\nwant %+v", snap, final)
		}
	}

	// Cold cache still serves the frozen row
	f2 := rewards.NewService(f.store, nil, rewards.NewCalculator(f.clock.Now), nil)
	snap, err := f2.Snapshot(ctx, volunteer, id)
	if err != nil {
		t.Fatal(err)
	}
	if snap.CurrentPoints != final.CurrentPoints || snap.TimeSpentSeconds != final.TimeSpentSeconds {
		t.Errorf("row snapshot differs from final: %+v", snap)
	}

	again, err := f.svc.End(ctx, volunteer, id)
	if err != nil || again.CurrentPoints != final.CurrentPoints {
		t.Errorf("ending twice: %+v err=%v", again, err)
	}
	if _, err := f.svc.Decide(ctx, volunteer, id, rewards.ActionContinue); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("continue after end: expected ErrInvalidState, got %v", err)
	}

	stats, err := f.svc.VolunteerStats(ctx, volunteer)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SessionsEnded != 1 || stats.TotalPoints != 100 || stats.TotalAmount != 10.00 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDecideForbidden(t *testing.T) {
	f := setup(t)
	id := f.start(t)
	f.clock.Advance(5 * time.Minute)

	_, err := f.svc.Decide(context.Background(), stranger, id, rewards.ActionEnd)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// barrierStore holds every GetSession until n callers have read, so racing
// decisions all act on the same state.
type barrierStore struct {
	rewards.Store
	wg *sync.WaitGroup
}

func (b barrierStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	s, err := b.Store.GetSession(ctx, id)
	b.wg.Done()
	b.wg.Wait()
	return s, err
}

func TestConcurrentDecisionsOneWins(t *testing.T) {
	var gate sync.WaitGroup
	f := setupWithStore(t, func(s rewards.Store) rewards.Store {
		return barrierStore{Store: s, wg: &gate}
	})
	ctx := context.Background()

	// Seed directly so the barrier only sees the two decisions
	seeded := &models.Session{
		ID: "race", VolunteerID: volunteer.UserID, SeekerID: seeker.UserID,
		Status: models.StatusActive, BillingMode: models.BillingStandard, StartedAt: f.clock.Now(),
	}
	if err := f.store.CreateSession(ctx, seeded); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(300 * time.Second)

	gate.Add(2)
	var wg sync.WaitGroup
	errs := make([]error, 2)
	actions := []rewards.Action{rewards.ActionContinue, rewards.ActionEnd}
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action rewards.Action) {
			defer wg.Done()
			_, errs[i] = f.svc.Decide(ctx, volunteer, "race", action)
		}(i, action)
	}
	wg.Wait()

	var winner rewards.Action
	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
			winner = actions[i]
		case errors.Is(err, apperr.ErrConflict):
		default:
			t.Fatalf("%s: unexpected error %v", actions[i], err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d (errs=%v)", wins, errs)
	}

	row, _ := f.store.GetSession(ctx, "race")
	switch winner {
	case rewards.ActionContinue:
		if row.Status != models.StatusActive || row.BillingMode != models.BillingPremium {
			t.Errorf("continue won but row is %s/%s", row.Status, row.BillingMode)
		}
	case rewards.ActionEnd:
		if row.Status != models.StatusEnded || row.BillingMode != models.BillingStandard {
			t.Errorf("end won but row is %s/%s", row.Status, row.BillingMode)
		}
	}
}

func TestStartValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if _, err := f.svc.Start(ctx, "", "seek-1"); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
	if _, err := f.svc.Start(ctx, "u", "u"); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
}

func TestListSessions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.start(t)
	f.start(t)
	f.svc.End(ctx, volunteer, id)

	active, err := f.svc.ListSessions(ctx, seeker, models.StatusActive)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Errorf("expected 1 active session, got %d", len(active))
	}
	if none, _ := f.svc.ListSessions(ctx, stranger, ""); len(none) != 0 {
		t.Errorf("stranger sees %d sessions", len(none))
	}
	if _, err := f.svc.ListSessions(ctx, seeker, "paused"); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("expected ErrBadRequest for unknown status, got %v", err)
	}
}
