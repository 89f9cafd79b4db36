// Package session tracks who is signed in and their profile, and exposes the
// sign-in, sign-up, sign-out and profile update operations.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/recipebook/backend/internal/auth"
	"github.com/recipebook/backend/internal/models"
	"go.uber.org/zap"
)

// ErrUnauthenticated is returned by operations that need a signed-in user.
var ErrUnauthenticated = errors.New("User not authenticated")

// ErrUserTypeChange is returned when a profile update through the session
// sets a user type. User types are changed by administrators only.
var ErrUserTypeChange = errors.New("user type cannot be changed through the session")

// State is the authentication state of a Context.
type State int

const (
	Unauthenticated State = iota
	Loading
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Snapshot is a consistent copy of the session state. Profile may be nil
// while it loads or before the backend has created it.
type Snapshot struct {
	State   State
	User    *auth.User
	Profile *models.Profile
}

// AuthClient is the auth backend the Context delegates to.
type AuthClient interface {
	GetSession(ctx context.Context) (*auth.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*auth.Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(l auth.Listener) (unsubscribe func())
}

// ProfileStore loads and updates profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error)
}

// Notifier receives the session's best-effort notifications.
type Notifier interface {
	NotifyWelcome(ctx context.Context, userID, userName string)
	NotifyProfileUpdated(ctx context.Context, userID string)
}

// Option configures a Context.
type Option func(*Context)

func WithLogger(log *zap.Logger) Option {
	return func(c *Context) {
		if log != nil {
			c.log = log
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Context) { c.notifier = n }
}

// WithAutoRefresh makes Start check the session every interval and refresh
// the tokens before they expire. It needs an AuthClient that can refresh in
// the background, such as *auth.Client.
func WithAutoRefresh(interval time.Duration) Option {
	return func(c *Context) { c.refreshEvery = interval }
}

type autoRefresher interface {
	StartAutoRefresh(ctx context.Context, interval time.Duration)
}

// Context holds the current identity and profile. Create it with New, call
// Start once and Close on shutdown.
type Context struct {
	auth     AuthClient
	profiles ProfileStore
	notifier Notifier
	log      *zap.Logger

	refreshEvery time.Duration

	base   context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup

	mu          sync.Mutex
	state       State
	user        *auth.User
	profile     *models.Profile
	generation  uint64
	closed      bool
	unsubscribe func()
	observers   map[int]func(Snapshot)
	nextID      int
}

func New(authClient AuthClient, profiles ProfileStore, opts ...Option) *Context {
	base, cancel := context.WithCancel(context.Background())
	c := &Context{
		auth:      authClient,
		profiles:  profiles,
		log:       zap.NewNop(),
		base:      base,
		cancel:    cancel,
		state:     Loading,
		observers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to auth changes and resolves the initial session.
func (c *Context) Start(ctx context.Context) error {
	unsubscribe := c.auth.OnAuthStateChange(c.handleAuthEvent)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	if c.refreshEvery > 0 {
		if r, ok := c.auth.(autoRefresher); ok {
			r.StartAutoRefresh(c.base, c.refreshEvery)
		} else {
			c.log.Warn("auth client cannot refresh in the background")
		}
	}

	session, err := c.auth.GetSession(ctx)
	if err != nil {
		c.apply(nil)
		return err
	}
	c.apply(session)
	return nil
}

// Close stops listening for auth changes, stops background token refresh and
// waits for profile loads.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.cancel()
	c.loads.Wait()
}

// Snapshot returns the current state.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() Snapshot {
	snap := Snapshot{State: c.state}
	if c.user != nil {
		u := *c.user
		snap.User = &u
	}
	if c.profile != nil {
		p := *c.profile
		snap.Profile = &p
	}
	return snap
}

// OnChange registers fn to receive every new snapshot and returns a function
// removing it.
func (c *Context) OnChange(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// SignIn delegates to the auth backend. The state changes through the
// resulting auth event.
func (c *Context) SignIn(ctx context.Context, email, password string) error {
	_, err := c.auth.SignInWithPassword(ctx, email, password)
	return err
}

// SignUp registers with name as metadata. The profile row is created by the
// backend.
func (c *Context) SignUp(ctx context.Context, email, password, name string) error {
	session, err := c.auth.SignUp(ctx, email, password, map[string]string{"name": name})
	if err != nil {
		return err
	}
	if c.notifier != nil && session != nil {
		c.notifier.NotifyWelcome(ctx, session.User.ID, name)
	}
	return nil
}

// SignOut delegates to the auth backend and clears the local profile.
func (c *Context) SignOut(ctx context.Context) error {
	if err := c.auth.SignOut(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.profile = nil
	c.mu.Unlock()
	return nil
}

// UpdateProfile updates the signed-in user's profile and keeps the result as
// the local profile. The user type cannot be changed here.
func (c *Context) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.Profile, error) {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if update.UserType != nil {
		return nil, ErrUserTypeChange
	}

	profile, err := c.profiles.UpdateProfile(ctx, user.ID, update)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.user != nil && c.user.ID == user.ID {
		// Supersede profile loads still in flight.
		c.generation++
		c.profile = profile
	}
	snap, observers := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()
	notify(observers, snap)

	if c.notifier != nil {
		c.notifier.NotifyProfileUpdated(ctx, user.ID)
	}
	return profile, nil
}

// Refresh re-reads the session and reloads the profile before returning.
func (c *Context) Refresh(ctx context.Context) error {
	session, err := c.auth.GetSession(ctx)
	if err != nil {
		return err
	}
	gen, userID := c.transition(session)
	if userID != "" {
		c.loadProfile(ctx, gen, userID)
	}
	return nil
}

func (c *Context) handleAuthEvent(event auth.Event, session *auth.Session) {
	c.log.Debug("auth state changed", zap.String("event", string(event)))
	c.apply(session)
}

// apply moves to the state implied by session and loads the profile in the
// background.
func (c *Context) apply(session *auth.Session) {
	gen, userID := c.transition(session)
	if userID == "" {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.loads.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.loads.Done()
		c.loadProfile(c.base, gen, userID)
	}()
}

// transition updates identity and state and returns the new generation and
// the signed-in user id ("" when signed out).
func (c *Context) transition(session *auth.Session) (uint64, string) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	var userID string
	if session == nil {
		c.state = Unauthenticated
		c.user = nil
		c.profile = nil
	} else {
		if c.user == nil || c.user.ID != session.User.ID {
			c.profile = nil
		}
		u := session.User
		c.user = &u
		c.state = Authenticated
		userID = u.ID
	}
	snap, observers := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()

	notify(observers, snap)
	return gen, userID
}

// loadProfile stores the fetched profile unless the identity changed
// meanwhile. Failures are logged.
func (c *Context) loadProfile(ctx context.Context, gen uint64, userID string) {
	profile, err := c.profiles.GetProfile(ctx, userID)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Error("failed to load profile", zap.String("user_id", userID), zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.log.Debug("discarding stale profile load", zap.String("user_id", userID))
		return
	}
	c.profile = profile
	snap, observers := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()

	notify(observers, snap)
}

func (c *Context) observersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		out = append(out, fn)
	}
	return out
}

func notify(observers []func(Snapshot), snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}
