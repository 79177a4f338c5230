package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dom/todo-api/internal/auth"
	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/repository"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

const (
	TokenTypeBearer   = "bearer"
	MinPasswordLength = 6
)

type AuthService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenCodec
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenCodec) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Password string
}

func (i RegisterInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required, is.Email),
		validation.Field(&i.Password, validation.Required, validation.Length(MinPasswordLength, auth.MaxPasswordBytes)),
	)
}

type LoginInput struct {
	Email    string
	Password string
}

func (i LoginInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required),
		validation.Field(&i.Password, validation.Required),
	)
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	TokenType    string
}

type RefreshResult struct {
	AccessToken string
	TokenType   string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, domain.Validation(err.Error(), err)
	}

	// Fast path only; the store's unique index is the real guarantee.
	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, domain.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.Internal(err)
	}

	hashed, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) || errors.Is(err, auth.ErrEmptyPassword) {
			return nil, domain.Validation("password: "+err.Error(), err)
		}
		return nil, domain.Internal(err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: hashed,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, domain.ErrEmailTaken
		}
		return nil, domain.Internal(err)
	}

	return s.issuePair(user)
}

// Login fails with ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, domain.Validation(err.Error(), err)
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same bcrypt work as a real compare for unknown emails.
			s.hasher.Verify(ctx, input.Password, s.dummyDigest())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Internal(err)
	}

	if !s.hasher.Verify(ctx, input.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issuePair(user)
}

// Refresh mints a new access token. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.tokens.Verify(refreshToken, auth.RefreshToken, s.now())
	if err != nil {
		return nil, domain.ErrInvalidRefreshToken.Wrap(err)
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserGone
		}
		return nil, domain.Internal(err)
	}

	// The email was re-registered by a different account after issuance.
	if id := claims.Identity().UserID; id != uuid.Nil && id != user.ID {
		return nil, domain.ErrUserGone
	}

	access, err := s.tokens.IssueAccess(auth.Subject{Email: user.Email, UserID: user.ID}, s.now())
	if err != nil {
		return nil, domain.Internal(err)
	}

	return &RefreshResult{AccessToken: access, TokenType: TokenTypeBearer}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, email string) (*domain.Profile, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal(err)
	}

	profile := user.Profile()
	return &profile, nil
}

func (s *AuthService) issuePair(user *domain.User) (*AuthResult, error) {
	now := s.now()
	subject := auth.Subject{Email: user.Email, UserID: user.ID}

	access, err := s.tokens.IssueAccess(subject, now)
	if err != nil {
		return nil, domain.Internal(err)
	}

	refresh, err := s.tokens.IssueRefresh(subject, now)
	if err != nil {
		return nil, domain.Internal(err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}

func (s *AuthService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(context.Background(), uuid.NewString()[:32])
	})
	return s.dummyHash
}
