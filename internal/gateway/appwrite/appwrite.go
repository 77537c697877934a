// Package appwrite adapts an Appwrite project to the gateway: the account
// service for sessions and the databases service for profile and activity
// documents.
//
// Sessions follow Appwrite's server-side rendering flow. An admin client
// holding the API key creates accounts and sessions; every visitor then gets
// a client bound to its session secret.
package appwrite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/appwrite/sdk-for-go/account"
	sdk "github.com/appwrite/sdk-for-go/appwrite"
	"github.com/appwrite/sdk-for-go/databases"
	"github.com/appwrite/sdk-for-go/id"
	"github.com/appwrite/sdk-for-go/query"
	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/config"
	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/types"
)

// Backend opens visitor clients against one Appwrite project.
type Backend struct {
	cfg    config.AppwriteConfig
	logger *zap.Logger
	admin  *session
}

// New validates cfg and builds the admin client.
func New(cfg config.AppwriteConfig, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid appwrite endpoint %q", cfg.Endpoint)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	cfg.Endpoint = endpoint.String()

	admin := sdk.NewClient(
		sdk.WithEndpoint(cfg.Endpoint),
		sdk.WithProject(cfg.ProjectID),
		sdk.WithKey(cfg.APIKey),
	)
	return &Backend{
		cfg:    cfg,
		logger: logger,
		admin:  &session{account: sdk.NewAccount(admin), databases: sdk.NewDatabases(admin)},
	}, nil
}

func (b *Backend) Name() string { return config.BackendAppwrite }

func (b *Backend) Close() error { return nil }

// NewClient returns a client with an empty session.
func (b *Backend) NewClient() gateway.Client {
	return b.Resume("")
}

// Resume returns a client bound to a session secret issued earlier.
func (b *Backend) Resume(credential string) gateway.Client {
	return &Client{backend: b, session: b.visitor(credential)}
}

// visitor builds a client that acts as the holder of secret, or as a guest
// when secret is empty.
func (b *Backend) visitor(secret string) *session {
	clt := sdk.NewClient(sdk.WithEndpoint(b.cfg.Endpoint), sdk.WithProject(b.cfg.ProjectID))
	if secret != "" {
		clt = sdk.NewClient(
			sdk.WithEndpoint(b.cfg.Endpoint),
			sdk.WithProject(b.cfg.ProjectID),
			sdk.WithSession(secret),
		)
	}
	return &session{secret: secret, account: sdk.NewAccount(clt), databases: sdk.NewDatabases(clt)}
}

// RecordActivity creates an activity document with the server API key.
func (b *Backend) RecordActivity(ctx context.Context, event types.ActivityEvent) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	status := event.Status
	if status == "" {
		status = types.ActivityStatusOK
	}

	data := map[string]any{
		"user_id":     event.UserID,
		"description": event.Description,
		"status":      status,
		"created_at":  createdAt.UTC().Format(time.RFC3339Nano),
	}
	if _, err := b.admin.databases.CreateDocument(b.cfg.DatabaseID, b.cfg.ActivityLogsCollectionID, id.Unique(), data); err != nil {
		b.logger.Debug("appwrite activity write failed", zap.String("user_id", event.UserID), zap.Error(err))
		return &gateway.StoreError{Op: gateway.OpRecordActivity, Err: err}
	}
	return nil
}

// session pairs the SDK services of one client with the secret it carries.
type session struct {
	secret    string
	account   *account.Account
	databases *databases.Databases
}

type profileDocument struct {
	FullName  string  `json:"full_name"`
	Role      string  `json:"role"`
	AvatarURL *string `json:"avatar_url"`
	UpdatedAt string  `json:"updated_at"`
}

type activityDocument struct {
	ID          string `json:"$id"`
	SystemTime  string `json:"$createdAt"`
	CreatedAt   string `json:"created_at"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type activityList struct {
	Total     int                `json:"total"`
	Documents []activityDocument `json:"documents"`
}

// Client is one visitor's Appwrite session.
type Client struct {
	backend  *Backend
	notifier gateway.Notifier

	mu      sync.Mutex
	session *session
}

func (c *Client) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) swap(s *session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// Credential returns the session secret, empty when signed out.
func (c *Client) Credential() string {
	return c.current().secret
}

func (c *Client) SignUp(ctx context.Context, email, password string) (types.Identity, error) {
	user, err := c.backend.admin.account.Create(id.Unique(), email, password)
	if err != nil {
		return types.Identity{}, authError(err)
	}
	return identityOf(user.Id, user.Email), nil
}

// SignIn opens a session through the admin client and rebinds the visitor to
// its secret.
func (c *Client) SignIn(ctx context.Context, email, password string) (types.Identity, error) {
	created, err := c.backend.admin.account.CreateEmailPasswordSession(email, password)
	if err != nil {
		return types.Identity{}, authError(err)
	}
	if created.Secret == "" {
		return types.Identity{}, gateway.NewAuthError(gateway.AuthUnknown, errSessionSecret)
	}

	s := c.backend.visitor(created.Secret)
	user, err := s.account.Get()
	if err != nil {
		return types.Identity{}, authError(err)
	}
	c.swap(s)

	identity := identityOf(user.Id, user.Email)
	c.notifier.Publish(&identity)
	return identity, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	s := c.current()
	if s.secret != "" {
		if _, err := s.account.DeleteSession("current"); err != nil && !isStatus(err, statusUnauthorized) {
			return err
		}
	}
	c.swap(c.backend.visitor(""))
	c.notifier.Publish(nil)
	return nil
}

// CurrentUser treats 401 as the absence of a session.
func (c *Client) CurrentUser(ctx context.Context) (*types.Identity, error) {
	s := c.current()
	if s.secret == "" {
		return nil, nil
	}
	user, err := s.account.Get()
	if err != nil {
		if isStatus(err, statusUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	identity := identityOf(user.Id, user.Email)
	return &identity, nil
}

func (c *Client) OnAuthStateChange(fn func(*types.Identity)) func() {
	return c.notifier.Subscribe(fn)
}

func (c *Client) GetProfile(ctx context.Context, userID string) (*types.ProfileRecord, error) {
	cfg := c.backend.cfg
	document, err := c.current().databases.GetDocument(cfg.DatabaseID, cfg.ProfilesCollectionID, userID)
	if err != nil {
		if isStatus(err, statusNotFound) {
			return nil, nil
		}
		return nil, &gateway.StoreError{Op: gateway.OpGetProfile, Err: err}
	}
	var doc profileDocument
	if err := document.Decode(&doc); err != nil {
		return nil, &gateway.StoreError{Op: gateway.OpGetProfile, Err: err}
	}

	record := types.ProfileRecord{FullName: doc.FullName, Role: doc.Role, AvatarURL: doc.AvatarURL}
	if doc.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, doc.UpdatedAt); err == nil {
			record.UpdatedAt = ts
		}
	}
	return &record, nil
}

// UpsertProfile updates the user's document and creates it when it does not exist yet.
func (c *Client) UpsertProfile(ctx context.Context, userID string, patch types.ProfilePatch) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	data := map[string]any{"user_id": userID, "updated_at": now}
	if patch.FullName != nil {
		data["full_name"] = *patch.FullName
	}
	if patch.Role != nil {
		data["role"] = *patch.Role
	}
	if patch.AvatarURL != nil {
		data["avatar_url"] = *patch.AvatarURL
	}

	cfg := c.backend.cfg
	db := c.current().databases
	_, err := db.UpdateDocument(cfg.DatabaseID, cfg.ProfilesCollectionID, userID, db.WithUpdateDocumentData(data))
	if isStatus(err, statusNotFound) {
		data["created_at"] = now
		_, err = db.CreateDocument(cfg.DatabaseID, cfg.ProfilesCollectionID, userID, data)
	}
	if err != nil {
		return &gateway.StoreError{Op: gateway.OpUpsertProfile, Err: err}
	}
	return nil
}

func (c *Client) GetActivityLogs(ctx context.Context, userID string, limit int) ([]types.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = gateway.DefaultActivityLimit
	}
	cfg := c.backend.cfg
	db := c.current().databases
	documents, err := db.ListDocuments(cfg.DatabaseID, cfg.ActivityLogsCollectionID, db.WithListDocumentsQueries(activityQueries(userID, limit)))
	if err != nil {
		return nil, &gateway.StoreError{Op: gateway.OpActivityLogs, Err: err}
	}
	var list activityList
	if err := documents.Decode(&list); err != nil {
		return nil, &gateway.StoreError{Op: gateway.OpActivityLogs, Err: err}
	}

	entries := make([]types.ActivityLogEntry, 0, len(list.Documents))
	for _, doc := range list.Documents {
		entry := types.ActivityLogEntry{ID: doc.ID, Description: doc.Description, Status: doc.Status}
		if entry.Status == "" {
			entry.Status = types.ActivityStatusOK
		}
		raw := doc.CreatedAt
		if raw == "" {
			raw = doc.SystemTime
		}
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ChangePassword updates the password of the signed in account. Validation
// failures come back as *gateway.AuthError, anything else as *gateway.StoreError.
func (c *Client) ChangePassword(ctx context.Context, newPassword string) error {
	s := c.current()
	if s.secret == "" {
		return &gateway.StoreError{Op: gateway.OpChangePassword, Err: gateway.ErrNotAuthenticated}
	}
	_, err := s.account.UpdatePassword(newPassword)
	if err == nil {
		return nil
	}
	if authErr := authError(err); authErr.Kind == gateway.AuthWeakPassword {
		return authErr
	}
	if isStatus(err, statusUnauthorized) {
		err = errors.Join(gateway.ErrNotAuthenticated, err)
	}
	return &gateway.StoreError{Op: gateway.OpChangePassword, Err: err}
}

// activityQueries filters the user's entries, newest first.
func activityQueries(userID string, limit int) []string {
	return []string{
		query.Equal("user_id", userID),
		query.OrderDesc("$createdAt"),
		query.Limit(limit),
	}
}

func identityOf(userID, email string) types.Identity {
	identity := types.Identity{ID: userID}
	if email != "" {
		identity.Email = &email
	}
	return identity
}
