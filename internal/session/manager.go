// Package session owns the authenticated-user state machine: initialization
// from persisted state, sign-in/sign-up/sign-out, and expiry teardown.
package session

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/shezi1344/taskflow-cli/internal/api"
	"github.com/shezi1344/taskflow-cli/internal/errs"
	"github.com/shezi1344/taskflow-cli/internal/model"
	"github.com/shezi1344/taskflow-cli/internal/token"
)

// Status is the session lifecycle state. Loading exists only between
// construction and the end of Initialize.
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "loading"
	}
}

// Snapshot is the observable session state delivered to subscribers.
// User is nil unless Status is StatusAuthenticated.
type Snapshot struct {
	Status Status
	User   *model.User
}

// Manager owns the current identity and is the sole writer of the persisted
// credential. It registers itself with the request client so expiry and 401
// teardown funnel through here.
type Manager struct {
	client *api.Client
	store  token.Store
	log    *zap.Logger

	mu         sync.Mutex
	status     Status
	user       *model.User
	credential string

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

var _ api.Invalidator = (*Manager)(nil)

// NewManager constructs a Manager in the Loading state and wires it into the
// client as the session invalidator. Call Initialize before use.
func NewManager(client *api.Client, store token.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		client: client,
		store:  store,
		log:    log,
		status: StatusLoading,
		subs:   map[int]func(Snapshot){},
	}
	client.SetInvalidator(m)
	return m
}

// Initialize restores the session from persisted state. It always terminates
// in Authenticated or Anonymous: absent credential means Anonymous, an
// expired one is cleared first.
func (m *Manager) Initialize() Snapshot {
	cred, user, ok := m.store.Load()
	if !ok {
		return m.transition(StatusAnonymous, nil, "")
	}
	if token.IsExpired(cred) {
		m.log.Info("persisted credential expired, clearing session")
		_ = m.store.Clear()
		return m.transition(StatusAnonymous, nil, "")
	}
	m.log.Debug("session restored", zap.String("user_id", user.ID))
	return m.transition(StatusAuthenticated, &user, cred)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	AccessToken string     `json:"access_token"`
	User        model.User `json:"user"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignIn exchanges credentials for a bearer token and persists the result.
// On any failure the session state is left untouched.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	var resp signInResponse
	err := m.client.DoJSON(ctx, http.MethodPost, "/api/users/signin",
		api.Options{Body: signInRequest{Email: email, Password: password}, NoAuth: true},
		&resp)
	if err != nil {
		m.log.Warn("sign in failed", zap.Error(err))
		return err
	}

	// A server handing out an already-expired token is a fatal local
	// error, not something to retry.
	if token.IsExpired(resp.AccessToken) {
		return errs.New(errs.KindRequestFailed, "received expired token from server")
	}

	if err := m.store.Save(resp.AccessToken, resp.User); err != nil {
		return errs.Wrap(errs.KindRequestFailed, "persist credential", err)
	}
	m.log.Info("sign in successful", zap.String("user_id", resp.User.ID))
	u := resp.User
	m.transition(StatusAuthenticated, &u, resp.AccessToken)
	return nil
}

// SignUp registers a new account and, on success, chains into the full
// SignIn flow. Registration alone never yields a usable session.
func (m *Manager) SignUp(ctx context.Context, email, password, name string) error {
	err := m.client.DoJSON(ctx, http.MethodPost, "/api/users/register",
		api.Options{Body: registerRequest{Email: email, Password: password, Name: name}, NoAuth: true},
		nil)
	if err != nil {
		m.log.Warn("sign up failed", zap.Error(err))
		return err
	}
	return m.SignIn(ctx, email, password)
}

// SignOut clears the persisted credential and identity and transitions to
// Anonymous. It never fails and is idempotent.
func (m *Manager) SignOut() {
	if err := m.store.Clear(); err != nil {
		m.log.Warn("clearing credential store", zap.Error(err))
	}
	m.transition(StatusAnonymous, nil, "")
}

// Invalidate implements api.Invalidator: the request layer detected expiry
// or a 401 and the session must be torn down.
func (m *Manager) Invalidate(reason error) {
	m.log.Info("session invalidated", zap.Error(reason))
	m.SignOut()
}

// Current returns a snapshot of the session state.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Credential returns the in-memory bearer token, if authenticated.
func (m *Manager) Credential() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential, m.status == StatusAuthenticated
}

// Subscribe registers an observer called on every state transition. The
// returned func removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	var u *model.User
	if m.user != nil {
		cpy := *m.user
		u = &cpy
	}
	return Snapshot{Status: m.status, User: u}
}

func (m *Manager) transition(status Status, user *model.User, credential string) Snapshot {
	m.mu.Lock()
	m.status = status
	m.user = user
	m.credential = credential
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
	return snap
}
