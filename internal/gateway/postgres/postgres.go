// Package postgres is the hosted-database backend: accounts, sessions,
// profiles and activity logs live in postgres tables.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/retro-admin/dashboard/config"
	"github.com/retro-admin/dashboard/internal/db"
	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/store"
	"github.com/retro-admin/dashboard/types"
)

const (
	minPasswordLength = 8
	defaultSessionTTL = 24 * time.Hour
)

// UserRepository is the account persistence the backend needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SessionRepository is the session persistence the backend needs.
type SessionRepository interface {
	Create(ctx context.Context, token, userID string, expiresAt time.Time) error
	Lookup(ctx context.Context, token string) (types.Account, error)
	Delete(ctx context.Context, token string) error
}

// ProfileRepository is the profile persistence the backend needs.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (types.ProfileRecord, error)
	Upsert(ctx context.Context, userID string, patch types.ProfilePatch) error
}

// ActivityRepository is the activity log persistence the backend needs.
type ActivityRepository interface {
	List(ctx context.Context, userID string, limit int) ([]types.ActivityLogEntry, error)
	Create(ctx context.Context, event types.ActivityEvent) (types.ActivityLogEntry, error)
}

// Repositories groups the persistence the backend is built on.
type Repositories struct {
	Users    UserRepository
	Sessions SessionRepository
	Profiles ProfileRepository
	Activity ActivityRepository
}

// Backend authenticates against auth_users and keeps sessions in auth_sessions.
type Backend struct {
	db          *sql.DB
	repos       Repositories
	allowSignUp bool
	sessionTTL  time.Duration
	hashCost    int
	logger      *zap.Logger
}

// Open connects to postgres and builds the backend over the store repositories.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	b := New(Repositories{
		Users:    store.NewUserRepository(conn),
		Sessions: store.NewSessionRepository(conn),
		Profiles: store.NewProfileRepository(conn),
		Activity: store.NewActivityRepository(conn),
	}, cfg.Database.AllowSignUp, cfg.Session.TTL, logger)
	b.db = conn
	return b, nil
}

// New builds a backend over repos.
func New(repos Repositories, allowSignUp bool, sessionTTL time.Duration, logger *zap.Logger) *Backend {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		repos:       repos,
		allowSignUp: allowSignUp,
		sessionTTL:  sessionTTL,
		hashCost:    bcrypt.DefaultCost,
		logger:      logger,
	}
}

// WithHashCost sets the bcrypt cost; tests use bcrypt.MinCost.
func (b *Backend) WithHashCost(cost int) *Backend {
	b.hashCost = cost
	return b
}

func (b *Backend) Name() string { return config.BackendPostgres }

func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Backend) NewClient() gateway.Client {
	return &Client{backend: b}
}

// Resume returns a client holding a session token issued earlier by SignIn.
// The token is checked against the sessions table on CurrentUser.
func (b *Backend) Resume(credential string) gateway.Client {
	return &Client{backend: b, token: credential}
}

// RecordActivity writes an activity log entry.
func (b *Backend) RecordActivity(ctx context.Context, event types.ActivityEvent) error {
	if _, err := b.repos.Activity.Create(ctx, event); err != nil {
		return &gateway.StoreError{Op: gateway.OpRecordActivity, Err: err}
	}
	return nil
}

// Client is one visitor's session against the postgres backend.
type Client struct {
	backend  *Backend
	mu       sync.Mutex
	token    string
	notifier gateway.Notifier
}

func (c *Client) SignUp(ctx context.Context, email, password string) (types.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthInvalidEmail, err)
	}
	if len(password) < minPasswordLength {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthWeakPassword, errors.New("password too short"))
	}
	if !c.backend.allowSignUp {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthRegistrationDisabled, errors.New("signups not allowed"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), c.backend.hashCost)
	if err != nil {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthUnknown, err)
	}
	account, err := c.backend.repos.Users.Create(ctx, types.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Identity{}, gateway.NewAuthError(gateway.AuthDuplicateAccount, err)
		}
		return types.Identity{}, gateway.NewAuthError(gateway.AuthUnknown, err)
	}
	return account.Identity(), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (types.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := c.backend.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Identity{}, gateway.NewAuthError(gateway.AuthInvalidCredentials, err)
		}
		return types.Identity{}, gateway.NewAuthError(gateway.AuthUnknown, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthInvalidCredentials, err)
	}

	token := uuid.NewString()
	if err := c.backend.repos.Sessions.Create(ctx, token, account.ID, time.Now().Add(c.backend.sessionTTL)); err != nil {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthUnknown, err)
	}

	c.mu.Lock()
	previous := c.token
	c.token = token
	c.mu.Unlock()
	if previous != "" {
		if err := c.backend.repos.Sessions.Delete(ctx, previous); err != nil {
			c.backend.logger.Warn("drop replaced session", zap.Error(err))
		}
	}

	identity := account.Identity()
	c.notifier.Publish(&identity)
	return identity, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil
	}
	if err := c.backend.repos.Sessions.Delete(ctx, token); err != nil {
		return err
	}

	c.mu.Lock()
	if c.token == token {
		c.token = ""
	}
	c.mu.Unlock()
	c.notifier.Publish(nil)
	return nil
}

// CurrentUser resolves the held session token. An expired or revoked session
// is dropped and reported as no session.
func (c *Client) CurrentUser(ctx context.Context) (*types.Identity, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil, nil
	}

	account, err := c.backend.repos.Sessions.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.mu.Lock()
			if c.token == token {
				c.token = ""
			}
			c.mu.Unlock()
			return nil, nil
		}
		return nil, err
	}
	identity := account.Identity()
	return &identity, nil
}

// Credential returns the session token, empty when signed out.
func (c *Client) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) OnAuthStateChange(fn func(*types.Identity)) func() {
	return c.notifier.Subscribe(fn)
}

func (c *Client) GetProfile(ctx context.Context, userID string) (*types.ProfileRecord, error) {
	record, err := c.backend.repos.Profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, &gateway.StoreError{Op: gateway.OpGetProfile, Err: err}
	}
	return &record, nil
}

func (c *Client) UpsertProfile(ctx context.Context, userID string, patch types.ProfilePatch) error {
	if err := c.backend.repos.Profiles.Upsert(ctx, userID, patch); err != nil {
		return &gateway.StoreError{Op: gateway.OpUpsertProfile, Err: err}
	}
	return nil
}

func (c *Client) GetActivityLogs(ctx context.Context, userID string, limit int) ([]types.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = gateway.DefaultActivityLimit
	}
	entries, err := c.backend.repos.Activity.List(ctx, userID, limit)
	if err != nil {
		return nil, &gateway.StoreError{Op: gateway.OpActivityLogs, Err: err}
	}
	return entries, nil
}

func (c *Client) ChangePassword(ctx context.Context, newPassword string) error {
	current, err := c.CurrentUser(ctx)
	if err != nil {
		return &gateway.StoreError{Op: gateway.OpChangePassword, Err: err}
	}
	if current == nil {
		return &gateway.StoreError{Op: gateway.OpChangePassword, Err: gateway.ErrNotAuthenticated}
	}
	if len(newPassword) < minPasswordLength {
		return gateway.NewAuthError(gateway.AuthWeakPassword, errors.New("password too short"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), c.backend.hashCost)
	if err != nil {
		return &gateway.StoreError{Op: gateway.OpChangePassword, Err: err}
	}
	if err := c.backend.repos.Users.UpdatePassword(ctx, current.ID, string(hashed)); err != nil {
		return &gateway.StoreError{Op: gateway.OpChangePassword, Err: err}
	}
	return nil
}
