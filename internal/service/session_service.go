package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dom/group-decide/internal/domain"
	"github.com/dom/group-decide/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound    = domain.NotFoundError("session not found")
	ErrMissingFields      = domain.ValidationError("missing required fields")
	ErrTitleRequired      = domain.ValidationError("title is required")
	ErrDescriptionMissing = domain.ValidationError("description is required")
)

// SessionService owns the session lifecycle, membership and swipe ledger.
//
// Single-session mutations go through SessionRepository.Update, which locks
// the session document for the read-modify-write. Operations that also touch
// the user's session references (create, join) run inside one transaction so
// the two sides never diverge.
type SessionService struct {
	repos *repository.Repositories
}

func NewSessionService(repos *repository.Repositories) *SessionService {
	return &SessionService{repos: repos}
}

type CreateSessionInput struct {
	Title     string
	CreatorID uuid.UUID
	Options   []string
}

func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*domain.Session, error) {
	if input.CreatorID == uuid.Nil {
		return nil, ErrMissingFields
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	session := domain.NewSession(input.Title, input.CreatorID, input.Options)

	err := s.repos.Tx.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := lookupUser(ctx, tx, input.CreatorID); err != nil {
			return err
		}
		if err := tx.Session.Create(ctx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if err := tx.User.AppendCreatedSession(ctx, input.CreatorID, session.ID); err != nil {
			return fmt.Errorf("append created session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	if sessionID == uuid.Nil {
		return nil, ErrMissingFields
	}
	session, err := s.repos.Session.GetByID(ctx, sessionID)
	if err != nil {
		return nil, sessionLookupError(err)
	}
	return session, nil
}

func (s *SessionService) JoinSession(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Session, error) {
	if sessionID == uuid.Nil || userID == uuid.Nil {
		return nil, ErrMissingFields
	}

	var joined *domain.Session
	err := s.repos.Tx.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := lookupUser(ctx, tx, userID); err != nil {
			return err
		}

		session, err := tx.Session.Update(ctx, sessionID, func(session *domain.Session) error {
			return session.Join(userID)
		})
		if err != nil {
			return sessionLookupError(err)
		}

		if err := tx.User.AppendJoinedSession(ctx, userID, sessionID); err != nil {
			return fmt.Errorf("append joined session: %w", err)
		}
		joined = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	return joined, nil
}

// RecordSwipe upserts the user's vote on optionID and returns the user's
// complete vote map. Option IDs are not checked against the declared options.
func (s *SessionService) RecordSwipe(ctx context.Context, sessionID, userID uuid.UUID, optionID, vote string) (map[string]domain.Vote, error) {
	if sessionID == uuid.Nil || userID == uuid.Nil || optionID == "" || vote == "" {
		return nil, ErrMissingFields
	}

	var votes map[string]domain.Vote
	_, err := s.repos.Session.Update(ctx, sessionID, func(session *domain.Session) error {
		if !session.HasMember(userID) {
			return domain.ErrUserNotInSession
		}
		v, err := domain.ParseVote(vote)
		if err != nil {
			return err
		}
		votes = session.RecordSwipe(userID, optionID, v)
		return nil
	})
	if err != nil {
		return nil, sessionLookupError(err)
	}

	return votes, nil
}

func (s *SessionService) ComputeResult(ctx context.Context, sessionID uuid.UUID) (*domain.AggregateResult, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return domain.Aggregate(session)
}

// AddOption lets any member propose another option while the session is open.
func (s *SessionService) AddOption(ctx context.Context, sessionID, userID uuid.UUID, description string) (*domain.Option, error) {
	if sessionID == uuid.Nil || userID == uuid.Nil {
		return nil, ErrMissingFields
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionMissing
	}

	var added domain.Option
	_, err := s.repos.Session.Update(ctx, sessionID, func(session *domain.Session) error {
		if !session.HasMember(userID) {
			return domain.ErrUserNotInSession
		}
		if session.Status.IsClosed() {
			return domain.ConflictError("cannot add options to a %s session", session.Status)
		}
		added = session.AddOption(description)
		return nil
	})
	if err != nil {
		return nil, sessionLookupError(err)
	}

	return &added, nil
}

// TransitionStatus moves the session through its lifecycle. Only the creator
// may change the status.
func (s *SessionService) TransitionStatus(ctx context.Context, sessionID, userID uuid.UUID, status string) (*domain.Session, error) {
	if sessionID == uuid.Nil || userID == uuid.Nil || status == "" {
		return nil, ErrMissingFields
	}
	next, err := domain.ParseSessionStatus(status)
	if err != nil {
		return nil, err
	}

	session, err := s.repos.Session.Update(ctx, sessionID, func(session *domain.Session) error {
		if session.CreatedBy != userID {
			return domain.ErrNotSessionCreator
		}
		return session.TransitionTo(next)
	})
	if err != nil {
		return nil, sessionLookupError(err)
	}

	return session, nil
}

// UserSessions lists the sessions a user created and joined, in the order
// they were referenced. References to sessions that no longer resolve are
// skipped.
type UserSessions struct {
	Created []*domain.Session
	Joined  []*domain.Session
}

func (s *SessionService) ListUserSessions(ctx context.Context, userID uuid.UUID) (*UserSessions, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingFields
	}

	user, err := lookupUser(ctx, s.repos, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.repos.Session.GetByIDs(ctx, user.CreatedSessions)
	if err != nil {
		return nil, err
	}
	joined, err := s.repos.Session.GetByIDs(ctx, user.JoinedSessions)
	if err != nil {
		return nil, err
	}

	return &UserSessions{Created: created, Joined: joined}, nil
}

func lookupUser(ctx context.Context, repos *repository.Repositories, userID uuid.UUID) (*domain.User, error) {
	user, err := repos.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func sessionLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}
