package service

import (
	"github.com/dom/todo-api/internal/auth"
	"github.com/dom/todo-api/internal/config"
	"github.com/dom/todo-api/internal/repository"
)

type Services struct {
	Auth          *AuthService
	Task          *TaskService
	Authenticator *auth.Authenticator
}

func NewServices(repos *repository.Repositories, cfg *config.Config, events TaskEventPublisher) (*Services, error) {
	tokens, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	hasher := auth.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)

	return &Services{
		Auth:          NewAuthService(repos.User, hasher, tokens),
		Task:          NewTaskService(repos.Task, events),
		Authenticator: auth.NewAuthenticator(tokens),
	}, nil
}
