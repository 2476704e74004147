// Package identity handles registration, login and sessions.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/InsulaLabs/sphere/service/accounts"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var ErrSecretMissing = errors.New("identity: instance secret is required to sign sessions")

type Config struct {
	Logger   *slog.Logger
	Store    tkv.TKV
	Accounts *accounts.Accounts
	Locker   *doc.Locker

	// Secret signs session tokens. Changing it invalidates every session.
	Secret           string
	BcryptCost       int
	MaxLoginFailures int
	LoginBlock       time.Duration
	FailureRetention time.Duration
	SessionCacheTTL  time.Duration

	// Limiter is built from MaxLoginFailures, LoginBlock and
	// FailureRetention when nil.
	Limiter *LoginLimiter
}

type Manager struct {
	logger   *slog.Logger
	store    tkv.TKV
	accounts *accounts.Accounts
	locker   *doc.Locker
	limiter  *LoginLimiter
	secret   []byte
	cost     int
	cacheTTL time.Duration
	now      func() time.Time
}

func New(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, ErrSecretMissing
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Locker == nil {
		cfg.Locker = doc.NewLocker(0)
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewLoginLimiter(cfg.MaxLoginFailures, cfg.LoginBlock, cfg.FailureRetention)
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Manager{
		logger:   cfg.Logger.WithGroup("identity"),
		store:    cfg.Store,
		accounts: cfg.Accounts,
		locker:   cfg.Locker,
		limiter:  cfg.Limiter,
		secret:   []byte(cfg.Secret),
		cost:     cfg.BcryptCost,
		cacheTTL: cfg.SessionCacheTTL,
		now:      time.Now,
	}, nil
}

func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	if !models.ValidUsername(req.Username) {
		return nil, "", models.ErrInvalidInput("username must be 1-32 characters of letters, digits, '_', '.' or '-'")
	}

	unlock := m.locker.Lock(models.WithUser(req.Username))
	user, err := m.createUser(ctx, req)
	unlock()
	if err != nil {
		return nil, "", err
	}

	token, err := m.openSession(ctx, user.Username)
	if err != nil {
		return nil, "", err
	}
	m.logger.Info("user registered", "username", user.Username)
	return user.Sanitized(), token, nil
}

func (m *Manager) createUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	exists, err := m.accounts.Exists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrConflict("user %q already exists", req.Username)
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password, m.cost)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "hash password")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Avatar:       req.Avatar,
		Banner:       req.Banner,
		IsOnline:     true,
		Followers:    []string{},
		Following:    []string{},
		Posts:        []string{},
		CreatedAt:    m.now().UnixMilli(),
	}
	if err := m.accounts.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login reserves a limiter slot before touching stored credentials, so a
// blocked name costs no hash comparison and parallel guesses cannot get
// more comparisons than the name has failures left.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	if remaining := m.limiter.Reserve(username); remaining > 0 {
		return nil, "", models.ErrRateLimited(remaining)
	}

	user, found, err := m.accounts.Lookup(ctx, username)
	if err != nil {
		m.limiter.Release(username)
		return nil, "", err
	}
	if !found {
		m.limiter.RecordFailure(username)
		return nil, "", models.ErrInvalidCredentials()
	}
	ok, err := checkPassword(user.PasswordHash, password)
	if err != nil {
		m.logger.Error("stored password hash unusable", "username", username, "error", err)
	}
	if !ok {
		m.limiter.RecordFailure(username)
		return nil, "", models.ErrInvalidCredentials()
	}
	m.limiter.RecordSuccess(username)

	unlock := m.locker.Lock(models.WithUser(username))
	user, err = m.accounts.Load(ctx, username)
	if err == nil {
		user.IsOnline = true
		err = m.accounts.Save(ctx, user)
	}
	unlock()
	if err != nil {
		return nil, "", err
	}

	token, err := m.openSession(ctx, username)
	if err != nil {
		return nil, "", err
	}
	return user.Sanitized(), token, nil
}

func (m *Manager) openSession(ctx context.Context, username string) (string, error) {
	now := m.now()
	token, err := issueToken(username, m.secret, now)
	if err != nil {
		return "", pkgerrors.Wrap(err, "sign session token")
	}
	key := models.WithSession(token)
	if err := doc.Put(ctx, m.store, key, models.Session{Username: username, CreatedAt: now.UnixMilli()}); err != nil {
		return "", err
	}
	if err := m.store.CacheSet(key, username, m.cacheTTL); err != nil {
		m.logger.Warn("could not cache session", "error", err)
	}
	return token, nil
}

// SessionUser resolves a token to the username owning it. A forged or
// revoked token yields ok=false.
func (m *Manager) SessionUser(ctx context.Context, token string) (string, bool, error) {
	subject, err := tokenSubject(token, m.secret)
	if err != nil {
		return "", false, nil
	}
	key := models.WithSession(token)
	if cached, err := m.store.CacheGet(key); err == nil && cached == subject {
		return subject, true, nil
	}

	session, found, err := doc.Load[models.Session](ctx, m.store, key)
	if err != nil {
		return "", false, err
	}
	if !found || session.Username != subject {
		return "", false, nil
	}
	if err := m.store.CacheSet(key, subject, m.cacheTTL); err != nil {
		m.logger.Warn("could not cache session", "error", err)
	}
	return subject, true, nil
}

func (m *Manager) VerifySession(ctx context.Context, token, username string) (*models.User, bool, error) {
	owner, ok, err := m.SessionUser(ctx, token)
	if err != nil || !ok || owner != username {
		return nil, false, err
	}
	user, found, err := m.accounts.Lookup(ctx, username)
	if err != nil || !found {
		return nil, false, err
	}
	return user.Sanitized(), true, nil
}

// Logout removes the session. Unknown tokens are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return models.ErrInvalidInput("sessionToken is required")
	}
	key := models.WithSession(token)
	m.store.CacheDelete(key)
	return doc.Delete(ctx, m.store, key)
}

// RevokeAll drops every session issued to username. The owner is read from
// the token itself, so no session document has to be decoded.
func (m *Manager) RevokeAll(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	keys, err := m.store.Iterate(models.SessionPrefix, 0, 0)
	if err != nil {
		return pkgerrors.Wrap(err, "iterate sessions")
	}
	var doomed []string
	for _, key := range keys {
		subject, err := tokenSubject(strings.TrimPrefix(key, models.SessionPrefix), m.secret)
		if err != nil || subject != username {
			continue
		}
		doomed = append(doomed, key)
		m.store.CacheDelete(key)
	}
	if len(doomed) == 0 {
		return nil
	}
	m.logger.Info("revoking sessions", "username", username, "count", len(doomed))
	return pkgerrors.Wrap(m.store.BatchDelete(doomed), "delete sessions")
}

// EnsureAdmin creates an administrator account if username is free. An
// existing account is left untouched, admin or not.
func (m *Manager) EnsureAdmin(ctx context.Context, username, password, email string) (bool, error) {
	if !models.ValidUsername(username) {
		return false, models.ErrInvalidInput("invalid admin username %q", username)
	}
	unlock := m.locker.Lock(models.WithUser(username))
	defer unlock()

	existing, found, err := m.accounts.Lookup(ctx, username)
	if err != nil {
		return false, err
	}
	if found {
		if !existing.IsAdmin {
			m.logger.Warn("configured admin username belongs to a regular account", "username", username)
		}
		return false, nil
	}
	if err := validatePassword(password); err != nil {
		return false, err
	}
	hash, err := hashPassword(password, m.cost)
	if err != nil {
		return false, pkgerrors.Wrap(err, "hash password")
	}
	admin := &models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		FirstName:    "Admin",
		LastName:     "User",
		IsAdmin:      true,
		IsVerified:   true,
		Followers:    []string{},
		Following:    []string{},
		Posts:        []string{},
		Bio:          "Sphere administrator",
		CreatedAt:    m.now().UnixMilli(),
	}
	if err := m.accounts.Save(ctx, admin); err != nil {
		return false, err
	}
	m.logger.Info("admin account created", "username", username)
	return true, nil
}
