package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"printconnect/internal/logger"
	"printconnect/internal/model"
	"printconnect/internal/repository"
)

const minPasswordLength = 6

// SignUpInput carries the registration form.
type SignUpInput struct {
	Email     string
	Password  string
	Name      string
	CollegeID string
}

// AuthResult is returned by sign-up and sign-in. Token is only ever shown to the client here.
type AuthResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Identity  *model.Identity `json:"user"`
}

// AuthService owns identities and their bearer sessions.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)

	// CurrentIdentity resolves a bearer token. It returns ErrUnauthenticated for
	// empty, unknown and expired tokens.
	CurrentIdentity(ctx context.Context, token string) (*model.Identity, error)

	// SignOut ends the session. Unknown tokens are not an error.
	SignOut(ctx context.Context, token string) error
}

// AuthSettings configures NewAuthService. Zero values fall back to defaults.
type AuthSettings struct {
	OperatorEmails []string
	SessionTTL     time.Duration
	BcryptCost     int
	Now            func() time.Time
	Logger         zerolog.Logger
}

type authService struct {
	identities repository.IdentityRepository
	sessions   repository.SessionRepository
	operators  map[string]struct{}
	ttl        time.Duration
	cost       int
	now        func() time.Time
	log        zerolog.Logger
}

func NewAuthService(identities repository.IdentityRepository, sessions repository.SessionRepository, settings AuthSettings) AuthService {
	s := &authService{
		identities: identities,
		sessions:   sessions,
		operators:  make(map[string]struct{}, len(settings.OperatorEmails)),
		ttl:        settings.SessionTTL,
		cost:       settings.BcryptCost,
		now:        settings.Now,
		log:        settings.Logger.With().Str("component", "auth").Logger(),
	}
	for _, e := range settings.OperatorEmails {
		s.operators[normalizeEmail(e)] = struct{}{}
	}
	if s.ttl <= 0 {
		s.ttl = 7 * 24 * time.Hour
	}
	if s.cost < bcrypt.MinCost || s.cost > bcrypt.MaxCost {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "email is not valid")
	}
	return nil
}

// hashToken is the value stored for a bearer token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	a, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	b, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(a.String()+b.String(), "-", ""), nil
}

func (s *authService) roleFor(email string) model.Role {
	if _, ok := s.operators[email]; ok {
		return model.RoleOperator
	}
	return model.RoleStudent
}

func (s *authService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	stored, err := s.identities.Create(ctx, &model.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		Role:         s.roleFor(email),
		CollegeID:    strings.TrimSpace(in.CollegeID),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	log := logger.FromContext(ctx, s.log)
	log.Info().
		Str("event", "identity_created").
		Str("user_id", stored.ID).
		Str("role", string(stored.Role)).
		Send()

	return s.startSession(ctx, stored)
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, identity)
}

func (s *authService) startSession(ctx context.Context, identity *model.Identity) (*AuthResult, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	now := s.now().UTC()
	session := &model.Session{
		TokenHash:  hashToken(token),
		IdentityID: identity.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: session.ExpiresAt, Identity: identity}, nil
}

func (s *authService) CurrentIdentity(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	identity, err := s.sessions.FindIdentity(ctx, hashToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return identity, nil
}

func (s *authService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, hashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
