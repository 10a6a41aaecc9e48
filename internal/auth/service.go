package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type IdentityStore interface {
	Create(ctx context.Context, identity Identity) error
	GetByUsername(ctx context.Context, username string) (Identity, error)
	Taken(ctx context.Context, username, email string) (usernameTaken bool, emailTaken bool, err error)
}

type Service struct {
	repo     IdentityStore
	tokens   *TokenService
	hashCost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(repo IdentityStore, tokens *TokenService) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *Service) WithHashCost(cost int) *Service {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		s.hashCost = cost
	}
	return s
}

// Signup creates the identity and returns a token for it. Username and email
// are expected to be validated and normalised by the caller.
func (s *Service) Signup(ctx context.Context, username, email, password string) (Tokens, error) {
	usernameTaken, emailTaken, err := s.repo.Taken(ctx, username, email)
	if err != nil {
		return Tokens{}, err
	}
	if usernameTaken {
		return Tokens{}, ErrUsernameTaken
	}
	if emailTaken {
		return Tokens{}, ErrEmailTaken
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Tokens{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return Tokens{}, fmt.Errorf("hash password: %w", err)
	}

	identity := Identity{
		ID:           id.String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	// The unique indexes still decide when two signups race past Taken.
	if err := s.repo.Create(ctx, identity); err != nil {
		return Tokens{}, err
	}

	return s.issue(identity.Username)
}

func (s *Service) Login(ctx context.Context, username, password string) (Tokens, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return Tokens{}, ErrInvalidCredentials
	}

	identity, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			// Unknown users pay the same bcrypt cost as a wrong password.
			_ = bcrypt.CompareHashAndPassword(s.unknownUserHash(), []byte(password))
			return Tokens{}, ErrInvalidCredentials
		}
		return Tokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return Tokens{}, ErrInvalidCredentials
	}

	return s.issue(identity.Username)
}

func (s *Service) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("unknown-user-placeholder"), s.hashCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func (s *Service) issue(subject string) (Tokens, error) {
	access, _, err := s.tokens.Issue(subject)
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}
