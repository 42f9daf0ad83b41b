package service

import (
	"github.com/dom/group-decide/internal/config"
	"github.com/dom/group-decide/internal/repository"
)

type Services struct {
	Auth    *AuthService
	Session *SessionService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	return &Services{
		Auth:    NewAuthService(repos.User, repos.AuthSession, cfg),
		Session: NewSessionService(repos),
	}
}
