package auth

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event names an auth state change.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Listener receives auth state changes. session is nil after sign-out.
type Listener func(event Event, session *Session)

// Backend is the server side the Client talks to.
type Backend interface {
	Register(ctx context.Context, email, password, name string) (*User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
}

const (
	defaultStorageKey    = "recipebook-auth-token"
	defaultRefreshMargin = time.Minute
)

// Client keeps the current session, persists it and notifies listeners of
// sign-in, sign-out and token refresh.
type Client struct {
	backend    Backend
	storage    SessionStorage
	storageKey string
	margin     time.Duration
	log        *zap.Logger
	now        func() time.Time

	refreshMu sync.Mutex

	mu        sync.Mutex
	session   *Session
	loaded    bool
	listeners map[int]Listener
	nextID    int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithStorageKey(key string) ClientOption {
	return func(c *Client) { c.storageKey = key }
}

// WithRefreshMargin refreshes access tokens this long before they expire.
func WithRefreshMargin(d time.Duration) ClientOption {
	return func(c *Client) { c.margin = d }
}

func WithClientLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func NewClient(backend Backend, storage SessionStorage, opts ...ClientOption) *Client {
	if storage == nil {
		storage = NewMemorySessionStorage()
	}
	c := &Client{
		backend:    backend,
		storage:    storage,
		storageKey: defaultStorageKey,
		margin:     defaultRefreshMargin,
		log:        zap.NewNop(),
		now:        time.Now,
		listeners:  make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetSession returns the current session, loading it from storage on first
// use and refreshing it when the access token is about to expire. It returns
// nil when nobody is signed in or the stored session can no longer be
// refreshed.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	if !c.loaded {
		stored, err := c.storage.Load(ctx, c.storageKey)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.session = stored
		c.loaded = true
	}
	current := c.session
	c.mu.Unlock()

	if current == nil {
		return nil, nil
	}
	if !current.Expired(c.now(), c.margin) {
		return current, nil
	}

	refreshed, err := c.refresh(ctx, current)
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) {
			c.log.Info("stored session could not be refreshed", zap.String("code", authErr.Code))
			return nil, nil
		}
		return nil, err
	}
	return refreshed, nil
}

// SignInWithPassword opens a session and emits SIGNED_IN.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	session, err := c.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := c.setSession(ctx, session); err != nil {
		return nil, err
	}
	c.emit(EventSignedIn, session)
	return session, nil
}

// SignUp registers the identity with its metadata and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Session, error) {
	if _, err := c.backend.Register(ctx, email, password, metadata["name"]); err != nil {
		return nil, err
	}
	return c.SignInWithPassword(ctx, email, password)
}

// SignOut revokes the session and emits SIGNED_OUT. The local session is kept
// when the backend rejects the sign-out.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()

	if current != nil {
		if err := c.backend.Logout(ctx, current.RefreshToken); err != nil {
			return err
		}
	}
	if err := c.setSession(ctx, nil); err != nil {
		return err
	}
	c.emit(EventSignedOut, nil)
	return nil
}

// RefreshSession forces a token refresh of the current session.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()
	if current == nil {
		return nil, ErrSessionMissing
	}
	return c.refresh(ctx, current)
}

// OnAuthStateChange registers l and returns a function removing it.
func (c *Client) OnAuthStateChange(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// StartAutoRefresh checks the session every interval and refreshes it before
// it expires, until ctx is done.
func (c *Client) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := c.GetSession(ctx); err != nil && ctx.Err() == nil {
					c.log.Warn("auto refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// refresh exchanges the refresh token of current. An auth failure clears the
// session and emits SIGNED_OUT.
func (c *Client) refresh(ctx context.Context, current *Session) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	c.mu.Lock()
	latest := c.session
	c.mu.Unlock()
	if latest == nil {
		return nil, ErrSessionMissing
	}
	if latest != current {
		return latest, nil
	}

	refreshed, err := c.backend.Refresh(ctx, current.RefreshToken)
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) {
			if clearErr := c.setSession(ctx, nil); clearErr != nil {
				c.log.Warn("failed to clear session", zap.Error(clearErr))
			}
			c.emit(EventSignedOut, nil)
		}
		return nil, err
	}
	if err := c.setSession(ctx, refreshed); err != nil {
		return nil, err
	}
	c.emit(EventTokenRefreshed, refreshed)
	return refreshed, nil
}

func (c *Client) setSession(ctx context.Context, session *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if session == nil {
		err = c.storage.Delete(ctx, c.storageKey)
	} else {
		err = c.storage.Save(ctx, c.storageKey, session)
	}
	if err != nil {
		return err
	}
	c.session = session
	c.loaded = true
	return nil
}

// emit calls the listeners in registration order, outside the lock.
func (c *Client) emit(event Event, session *Session) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, c.listeners[id])
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(event, session)
	}
}
