// Package memory is an in-process backend. Accounts, profiles and activity
// logs live in maps and vanish on restart.
package memory

import (
	"context"
	"errors"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/types"
)

const minPasswordLength = 8

type account struct {
	identity     types.Identity
	passwordHash []byte
}

// Backend holds the shared state of every memory client.
type Backend struct {
	mu          sync.RWMutex
	accounts    map[string]account // by email
	sessions    map[string]string  // token -> email
	profiles    map[string]types.ProfileRecord
	logs        map[string][]types.ActivityLogEntry
	allowSignUp bool
	now         func() time.Time

	// Failure injection, consulted on every call when non-nil.
	SignOutErr error
	UpsertErr  error
	GetErr     error
}

// Option configures a Backend.
type Option func(*Backend)

// WithSignUpDisabled rejects new registrations.
func WithSignUpDisabled() Option {
	return func(b *Backend) { b.allowSignUp = false }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New constructs an empty memory backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		accounts:    make(map[string]account),
		sessions:    make(map[string]string),
		profiles:    make(map[string]types.ProfileRecord),
		logs:        make(map[string][]types.ActivityLogEntry),
		allowSignUp: true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return "memory" }

func (b *Backend) Close() error { return nil }

// NewClient returns a client with no session.
func (b *Backend) NewClient() gateway.Client {
	return &Client{backend: b}
}

// Resume returns a client holding the session token. An unknown or revoked
// token leaves the client signed out.
func (b *Backend) Resume(credential string) gateway.Client {
	return &Client{backend: b, token: credential}
}

// SetFailures replaces the injected failures under the backend lock.
func (b *Backend) SetFailures(signOut, upsert, get error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SignOutErr = signOut
	b.UpsertErr = upsert
	b.GetErr = get
}

// RecordActivity appends an entry to the user's activity log.
func (b *Backend) RecordActivity(_ context.Context, event types.ActivityEvent) error {
	if strings.TrimSpace(event.UserID) == "" {
		return errors.New("activity event requires a user id")
	}
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = b.now()
	}
	status := event.Status
	if status == "" {
		status = types.ActivityStatusOK
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs[event.UserID] = append(b.logs[event.UserID], types.ActivityLogEntry{
		ID:          uuid.NewString(),
		CreatedAt:   createdAt,
		Description: event.Description,
		Status:      status,
	})
	return nil
}

// Client is one visitor's handle on the memory backend.
type Client struct {
	backend  *Backend
	mu       sync.Mutex
	token    string
	notifier gateway.Notifier
}

func (c *Client) SignUp(_ context.Context, email, password string) (types.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthInvalidEmail, err)
	}
	if len(password) < minPasswordLength {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthWeakPassword, errors.New("password too short"))
	}

	b := c.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.allowSignUp {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthRegistrationDisabled, errors.New("sign up disabled"))
	}
	if _, exists := b.accounts[email]; exists {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthDuplicateAccount, errors.New("account already exists"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthUnknown, err)
	}
	identity := types.Identity{ID: uuid.NewString(), Email: &email}
	b.accounts[email] = account{identity: identity, passwordHash: hashed}
	return identity, nil
}

func (c *Client) SignIn(_ context.Context, email, password string) (types.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	b := c.backend
	b.mu.RLock()
	acct, ok := b.accounts[email]
	b.mu.RUnlock()
	if !ok {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthInvalidCredentials, errors.New("unknown email"))
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthInvalidCredentials, err)
	}

	token := uuid.NewString()
	b.mu.Lock()
	b.sessions[token] = email
	b.mu.Unlock()

	c.mu.Lock()
	previous := c.token
	c.token = token
	c.mu.Unlock()
	b.revoke(previous)

	identity := acct.identity

	c.notifier.Publish(&identity)
	return identity, nil
}

func (c *Client) SignOut(_ context.Context) error {
	c.backend.mu.RLock()
	err := c.backend.SignOutErr
	c.backend.mu.RUnlock()
	if err != nil {
		return err
	}

	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()
	c.backend.revoke(token)

	c.notifier.Publish(nil)
	return nil
}

func (c *Client) CurrentUser(_ context.Context) (*types.Identity, error) {
	acct, ok := c.account()
	if !ok {
		return nil, nil
	}
	identity := acct.identity
	return &identity, nil
}

// Credential returns the session token, empty when signed out.
func (c *Client) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) account() (account, bool) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return account{}, false
	}

	b := c.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	email, ok := b.sessions[token]
	if !ok {
		return account{}, false
	}
	acct, ok := b.accounts[email]
	return acct, ok
}

func (b *Backend) revoke(token string) {
	if token == "" {
		return
	}
	b.mu.Lock()
	delete(b.sessions, token)
	b.mu.Unlock()
}

func (c *Client) OnAuthStateChange(fn func(*types.Identity)) func() {
	return c.notifier.Subscribe(fn)
}

func (c *Client) GetProfile(_ context.Context, userID string) (*types.ProfileRecord, error) {
	b := c.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.GetErr != nil {
		return nil, &gateway.StoreError{Op: gateway.OpGetProfile, Err: b.GetErr}
	}
	record, ok := b.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (c *Client) UpsertProfile(_ context.Context, userID string, patch types.ProfilePatch) error {
	b := c.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.UpsertErr != nil {
		return &gateway.StoreError{Op: gateway.OpUpsertProfile, Err: b.UpsertErr}
	}

	record := b.profiles[userID]
	if patch.FullName != nil {
		record.FullName = *patch.FullName
	}
	if patch.Role != nil {
		record.Role = *patch.Role
	}
	if patch.AvatarURL != nil {
		avatar := *patch.AvatarURL
		record.AvatarURL = &avatar
	}
	record.UpdatedAt = b.now()
	b.profiles[userID] = record
	return nil
}

func (c *Client) GetActivityLogs(_ context.Context, userID string, limit int) ([]types.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = gateway.DefaultActivityLimit
	}

	b := c.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.GetErr != nil {
		return nil, &gateway.StoreError{Op: gateway.OpActivityLogs, Err: b.GetErr}
	}

	logs := append([]types.ActivityLogEntry(nil), b.logs[userID]...)
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (c *Client) ChangePassword(_ context.Context, newPassword string) error {
	current, ok := c.account()
	if !ok || current.identity.Email == nil {
		return &gateway.StoreError{Op: gateway.OpChangePassword, Err: gateway.ErrNotAuthenticated}
	}
	if len(newPassword) < minPasswordLength {
		return gateway.NewAuthError(gateway.AuthWeakPassword, errors.New("password too short"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
	if err != nil {
		return &gateway.StoreError{Op: gateway.OpChangePassword, Err: err}
	}

	b := c.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	email := *current.identity.Email
	acct, ok := b.accounts[email]
	if !ok {
		return &gateway.StoreError{Op: gateway.OpChangePassword, Err: gateway.ErrNotAuthenticated}
	}
	acct.passwordHash = hashed
	b.accounts[email] = acct
	return nil
}
