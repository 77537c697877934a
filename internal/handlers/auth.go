package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/config"
	"github.com/retro-admin/dashboard/internal/services"
)

// CookieName carries the signed workspace id.
const CookieName = "retro_ws"

const defaultTokenTTL = 24 * time.Hour

// Sessions binds each browser to a workspace through a signed cookie.
type Sessions struct {
	registry *services.Registry
	secret   []byte
	tokenTTL time.Duration
	secure   bool
	logger   *zap.Logger
}

// NewSessions constructs the cookie middleware over registry.
func NewSessions(registry *services.Registry, cfg config.SessionConfig, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Sessions{
		registry: registry,
		secret:   []byte(cfg.Secret),
		tokenTTL: ttl,
		secure:   cfg.Secure,
		logger:   logger,
	}
}

// Attach resolves the visitor's workspace. A cookie pointing to an evicted
// workspace reopens one over the backend session it carries; an absent or
// invalid cookie opens a fresh workspace.
func (s *Sessions) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, claims, found := s.lookup(r)
		if !found {
			ws = s.registry.Resume(claims.Credential)
			if err := s.Save(w, ws); err != nil {
				s.logger.Error("issue workspace cookie", zap.Error(err))
				s.registry.Remove(ws.ID())
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}
		ws.Boot(r.Context())

		ctx := context.WithValue(r.Context(), contextWorkspaceKey, ws)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Save reissues the cookie so it carries the workspace's current backend
// session. Call it after the session changes.
func (s *Sessions) Save(w http.ResponseWriter, ws *services.Workspace) error {
	token, err := issueToken(ws.ID(), ws.Credential(), s.secret, s.tokenTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Sessions) lookup(r *http.Request) (*services.Workspace, workspaceClaims, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, workspaceClaims{}, false
	}
	claims, err := parseToken(cookie.Value, s.secret)
	if err != nil {
		s.logger.Debug("reject workspace cookie", zap.Error(err))
		return nil, workspaceClaims{}, false
	}
	ws, ok := s.registry.Get(claims.Subject)
	if !ok {
		return nil, claims, false
	}
	return ws, claims, true
}

// workspaceClaims binds a workspace id to the backend session credential.
type workspaceClaims struct {
	Credential string `json:"cred,omitempty"`
	jwt.RegisteredClaims
}

func issueToken(subject, credential string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := workspaceClaims{
		Credential: credential,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(tokenString string, secret []byte) (workspaceClaims, error) {
	claims := workspaceClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return workspaceClaims{}, err
	}
	if !token.Valid {
		return workspaceClaims{}, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return workspaceClaims{}, errors.New("missing subject")
	}
	return claims, nil
}
