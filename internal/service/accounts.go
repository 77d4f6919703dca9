package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"kinly/internal/auth"
	"kinly/internal/model"
	"kinly/internal/storage/fs"
	"kinly/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
)

type AccountsConfig struct {
	SessionTTL     time.Duration
	ConfirmTTL     time.Duration
	RequireConfirm bool
	// BaseURL prefixes confirmation links, e.g. "https://kinly.example".
	BaseURL string
	// OutboxDir, when set, receives a text copy of each confirmation mail.
	OutboxDir string
	// Params overrides the argon2id cost; zero means auth.DefaultParams.
	Params auth.Params
}

type Accounts struct {
	users  store.Users
	signer *auth.Signer
	cfg    AccountsConfig
	now    func() time.Time
}

func NewAccounts(users store.Users, signer *auth.Signer, cfg AccountsConfig) *Accounts {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.ConfirmTTL <= 0 {
		cfg.ConfirmTTL = 24 * time.Hour
	}
	if cfg.Params == (auth.Params{}) {
		cfg.Params = auth.DefaultParams
	}
	return &Accounts{users: users, signer: signer, cfg: cfg, now: time.Now}
}

type SignUpResult struct {
	User         model.User
	NeedsConfirm bool
	ConfirmURL   string
	// Session is set when no confirmation is required.
	Session string
}

func (a *Accounts) SignUp(ctx context.Context, creds model.Credentials) (SignUpResult, error) {
	if err := creds.Validate(); err != nil {
		return SignUpResult{}, err
	}
	hash, err := a.cfg.Params.Hash(creds.Password)
	if err != nil {
		return SignUpResult{}, fmt.Errorf("hash password: %w", err)
	}
	now := a.now().UTC()
	u := model.User{
		ID:           model.NewID(),
		Email:        model.NormalizeEmail(creds.Email),
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if !a.cfg.RequireConfirm {
		u.ConfirmedAt = &now
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return SignUpResult{}, fmt.Errorf("sign up: %w", err)
	}
	slog.Info("user signed up", "user", u.ID, "confirm", a.cfg.RequireConfirm)

	res := SignUpResult{User: u, NeedsConfirm: a.cfg.RequireConfirm}
	if !a.cfg.RequireConfirm {
		res.Session, err = a.signer.Issue(auth.TokenSession, u.ID, a.cfg.SessionTTL)
		return res, err
	}
	res.ConfirmURL, err = a.sendConfirmation(u)
	return res, err
}

// sendConfirmation logs the confirmation link and drops it in the outbox.
// No mail is sent.
func (a *Accounts) sendConfirmation(u model.User) (string, error) {
	tok, err := a.signer.Issue(auth.TokenConfirm, u.ID, a.cfg.ConfirmTTL)
	if err != nil {
		return "", err
	}
	link := strings.TrimRight(a.cfg.BaseURL, "/") + "/auth-confirm?token=" + url.QueryEscape(tok)
	slog.Info("confirmation link", "email", u.Email, "url", link)
	if a.cfg.OutboxDir != "" {
		body := "Confirm your Kinly account by opening:\n\n" + link
		if _, err := fs.WriteOutboxMessage(a.cfg.OutboxDir, u.Email, "Confirm your signup", body, a.now()); err != nil {
			slog.Warn("write outbox", "email", u.Email, "err", err)
		}
	}
	return link, nil
}

// SignIn checks credentials and returns the user with a fresh session
// token.
func (a *Accounts) SignIn(ctx context.Context, creds model.Credentials) (model.User, string, error) {
	u, err := a.users.GetUserByEmail(ctx, creds.Email)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, "", fmt.Errorf("sign in: %w", err)
	}
	if !auth.VerifyPassword(u.PasswordHash, creds.Password) {
		return model.User{}, "", ErrInvalidCredentials
	}
	if !u.Confirmed() {
		return model.User{}, "", ErrEmailNotConfirmed
	}
	tok, err := a.signer.Issue(auth.TokenSession, u.ID, a.cfg.SessionTTL)
	if err != nil {
		return model.User{}, "", err
	}
	return u, tok, nil
}

// Session resolves a session token to its user. The user must still exist.
func (a *Accounts) Session(ctx context.Context, token string) (model.User, error) {
	claims, err := a.signer.Verify(auth.TokenSession, token)
	if err != nil {
		return model.User{}, err
	}
	u, err := a.users.GetUser(ctx, claims.Sub)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, auth.ErrTokenInvalid
	}
	return u, err
}

// Confirm marks the token's user confirmed and starts a session.
func (a *Accounts) Confirm(ctx context.Context, token string) (model.User, string, error) {
	claims, err := a.signer.Verify(auth.TokenConfirm, token)
	if err != nil {
		return model.User{}, "", err
	}
	if err := a.users.ConfirmUser(ctx, claims.Sub, a.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, "", auth.ErrTokenInvalid
		}
		return model.User{}, "", fmt.Errorf("confirm: %w", err)
	}
	u, err := a.users.GetUser(ctx, claims.Sub)
	if err != nil {
		return model.User{}, "", err
	}
	tok, err := a.signer.Issue(auth.TokenSession, u.ID, a.cfg.SessionTTL)
	if err != nil {
		return model.User{}, "", err
	}
	slog.Info("user confirmed", "user", u.ID)
	return u, tok, nil
}

// SetPassword creates a confirmed user or replaces the password of an
// existing one. It reports whether the user was created.
func (a *Accounts) SetPassword(ctx context.Context, creds model.Credentials) (model.User, bool, error) {
	if err := creds.Validate(); err != nil {
		return model.User{}, false, err
	}
	hash, err := a.cfg.Params.Hash(creds.Password)
	if err != nil {
		return model.User{}, false, fmt.Errorf("hash password: %w", err)
	}
	u, err := a.users.GetUserByEmail(ctx, creds.Email)
	switch {
	case err == nil:
		if err := a.users.SetPasswordHash(ctx, u.ID, hash); err != nil {
			return model.User{}, false, err
		}
		if !u.Confirmed() {
			if err := a.users.ConfirmUser(ctx, u.ID, a.now()); err != nil {
				return model.User{}, false, err
			}
		}
		u, err = a.users.GetUser(ctx, u.ID)
		return u, false, err
	case errors.Is(err, store.ErrNotFound):
		now := a.now().UTC()
		u = model.User{
			ID:           model.NewID(),
			Email:        model.NormalizeEmail(creds.Email),
			PasswordHash: hash,
			ConfirmedAt:  &now,
			CreatedAt:    now,
		}
		if err := a.users.CreateUser(ctx, u); err != nil {
			return model.User{}, false, err
		}
		return u, true, nil
	default:
		return model.User{}, false, err
	}
}

func (a *Accounts) ConfirmEmail(ctx context.Context, email string) (model.User, error) {
	u, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if err := a.users.ConfirmUser(ctx, u.ID, a.now()); err != nil {
		return model.User{}, err
	}
	return a.users.GetUser(ctx, u.ID)
}

func (a *Accounts) ListUsers(ctx context.Context) ([]model.User, error) {
	return a.users.ListUsers(ctx)
}

func (a *Accounts) UserByEmail(ctx context.Context, email string) (model.User, error) {
	return a.users.GetUserByEmail(ctx, email)
}

func (a *Accounts) SessionTTL() time.Duration {
	return a.cfg.SessionTTL
}
