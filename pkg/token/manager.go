// Package token owns the purchase-authorization token lifecycle: recovery
// from persistent storage, scheduled background renewal, and in-band
// renewal messages from the embedded purchase frame.
package token

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ctbkit/ctbkit/pkg/logx"
	"github.com/ctbkit/ctbkit/pkg/token/storage"
	"github.com/ctbkit/ctbkit/pkg/token/types"
)

// Fetcher retrieves a ready-to-use purchase URL from the host application.
// An empty ctbID addresses the bare URL endpoint used by background renewal.
type Fetcher interface {
	FetchCtbURL(ctx context.Context, ctbID string) (string, error)
}

// TimerHandle is a cancellable scheduled callback.
type TimerHandle interface {
	Stop() bool
}

// ScheduleFunc arms a callback after a delay and returns the handle to
// cancel it. The default implementation wraps time.AfterFunc; tests inject
// a counting fake.
type ScheduleFunc func(d time.Duration, fn func()) TimerHandle

func realSchedule(d time.Duration, fn func()) TimerHandle {
	return time.AfterFunc(d, fn)
}

// Manager owns the current in-memory token and exactly one pending renewal
// timer. Every successful persist cancels any outstanding timer and arms a
// new one for the persisted TTL, so writing the token is always paired with
// rearming its own expiry-driven refetch.
type Manager struct {
	store    storage.Store
	fetcher  Fetcher
	ttl      time.Duration
	now      func() time.Time
	schedule ScheduleFunc
	log      *logrus.Entry

	mu      sync.Mutex
	current *types.Token
	timer   TimerHandle
	closed  bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTTL overrides the fixed persist TTL.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithSchedule overrides the timer factory.
func WithSchedule(schedule ScheduleFunc) ManagerOption {
	return func(m *Manager) {
		m.schedule = schedule
	}
}

// WithLogger overrides the component logger.
func WithLogger(log *logrus.Entry) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a token lifecycle manager.
func NewManager(store storage.Store, fetcher Fetcher, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		fetcher:  fetcher,
		ttl:      types.DefaultTTL,
		now:      time.Now,
		schedule: realSchedule,
		log:      logx.WithComponent("token"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the in-memory token if present.
func (m *Manager) Current() (*types.Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, false
	}
	tokenCopy := *m.current
	return &tokenCopy, true
}

// InitializeFromStorage recovers token state on startup. A missing or
// malformed record, or one whose expiry has passed, is treated as expired
// and triggers exactly one fetch-and-store. A valid record is adopted
// without any network call and its renewal is scheduled at the remaining
// lifetime.
func (m *Manager) InitializeFromStorage(ctx context.Context) error {
	stored, err := m.store.Load(ctx)
	if err != nil || stored == nil {
		m.log.WithError(err).Debug("no usable stored token, fetching")
		return m.FetchAndStore(ctx)
	}

	if !stored.ExpiresAt.After(m.now()) {
		m.log.Debug("stored token expired, fetching")
		return m.FetchAndStore(ctx)
	}

	m.mu.Lock()
	m.current = stored
	m.rearmLocked(stored.ExpiresAt.Sub(m.now()))
	m.mu.Unlock()

	return nil
}

// ApplyRenewal rewrites the token and refreshToken query parameters of the
// current token in place, keeping every other parameter, then persists the
// result and rearms the renewal timer. A renewal arriving before any token
// has been fetched is dropped.
func (m *Manager) ApplyRenewal(ctx context.Context, accessToken, refreshToken string) error {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()

	if current == nil {
		m.log.Debug("renewal dropped: no current token")
		return nil
	}

	u, err := url.Parse(current.RawValue)
	if err != nil {
		return fmt.Errorf("failed to parse current token: %w", err)
	}

	q := u.Query()
	q.Set("token", accessToken)
	q.Set("refreshToken", refreshToken)
	u.RawQuery = q.Encode()

	_, err = m.PersistAndRearm(ctx, u.String())
	return err
}

// FetchAndStore retrieves a fresh purchase URL from the bare endpoint and
// persists it. On failure the prior token, if any, is left untouched and no
// extra retry is scheduled: the next attempt comes from the already-armed
// timer, a user open, or a restart.
func (m *Manager) FetchAndStore(ctx context.Context) error {
	fetched, err := m.fetcher.FetchCtbURL(ctx, "")
	if err != nil {
		m.log.WithError(err).Warn("token fetch failed, keeping prior token")
		return fmt.Errorf("failed to fetch token: %w", err)
	}

	_, err = m.PersistAndRearm(ctx, fetched)
	return err
}

// PersistAndRearm replaces the in-memory token with rawValue at the fixed
// TTL, writes the record, and atomically cancels-then-schedules the single
// renewal timer for that TTL. All persist paths go through here.
func (m *Manager) PersistAndRearm(ctx context.Context, rawValue string) (*types.Token, error) {
	token := &types.Token{
		RawValue:  rawValue,
		ExpiresAt: m.now().Add(m.ttl),
	}

	if err := m.store.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}

	m.mu.Lock()
	m.current = token
	m.rearmLocked(m.ttl)
	m.mu.Unlock()

	return token, nil
}

// rearmLocked cancels the outstanding timer, if any, and arms a new one.
// Callers hold m.mu.
func (m *Manager) rearmLocked(d time.Duration) {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.closed {
		return
	}
	m.timer = m.schedule(d, m.renew)
}

// renew is the timer callback. Background refetch failures are swallowed
// here: the user-visible error surface belongs to the interactive open path.
func (m *Manager) renew() {
	if err := m.FetchAndStore(context.Background()); err != nil {
		m.log.WithError(err).Warn("scheduled token renewal failed")
	}
}

// Close stops the pending renewal timer. The manager schedules nothing
// after Close.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
