package repository

import (
	"context"
	"errors"

	"github.com/dom/group-decide/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository stores accounts. Update writes only the profile fields
// (email, display name, password hash); the session reference lists change
// through the Append methods so concurrent joins are never overwritten.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	AppendCreatedSession(ctx context.Context, userID, sessionID uuid.UUID) error
	AppendJoinedSession(ctx context.Context, userID, sessionID uuid.UUID) error
}

type AuthSessionRepository interface {
	Create(ctx context.Context, session *domain.AuthSession) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.AuthSession, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// SessionRepository stores decision sessions as single documents.
//
// Update is the only way to mutate a stored session. Implementations must
// hold an exclusive lock on the document while fn runs and persist the
// result only when fn returns nil, so concurrent joins and swipes on the
// same session never overwrite each other. fn must not call back into the
// repositories.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Session, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*domain.Session) error) (*domain.Session, error)
}

// Transactor runs fn against repositories bound to a single transaction.
// Either every write made through those repositories is kept or none is.
type Transactor interface {
	Transaction(ctx context.Context, fn func(repos *Repositories) error) error
}

type Repositories struct {
	User        UserRepository
	AuthSession AuthSessionRepository
	Session     SessionRepository
	Tx          Transactor
}
