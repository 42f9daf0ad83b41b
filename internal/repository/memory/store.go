// Package memory keeps every repository in process memory. It backs the
// server when STORE_BACKEND=memory and the fast test suites.
//
// Writes are serialized by a writer lock. Transaction holds that lock for its
// whole duration and restores a snapshot when fn fails, which gives the same
// all-or-nothing outcome as the Postgres transaction. Reads take the writer
// lock shared, so they never observe a transaction that may still roll back.
//
// Every transaction copies the whole store for its snapshot, so create and
// join cost grows with the total amount of stored data. The backend is meant
// for development and tests, not for large data sets.
package memory

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/dom/group-decide/internal/domain"
	"github.com/dom/group-decide/internal/repository"
	"github.com/google/uuid"
)

type Store struct {
	writeMu sync.RWMutex // serializes writers and transactions; readers share it
	mu      sync.RWMutex // guards the maps

	users        map[uuid.UUID]*domain.User
	emails       map[string]uuid.UUID
	authSessions map[uuid.UUID]*domain.AuthSession
	sessions     map[uuid.UUID]*domain.Session
}

func NewStore() *Store {
	return &Store{
		users:        make(map[uuid.UUID]*domain.User),
		emails:       make(map[string]uuid.UUID),
		authSessions: make(map[uuid.UUID]*domain.AuthSession),
		sessions:     make(map[uuid.UUID]*domain.Session),
	}
}

// Repositories returns repositories backed by the store.
func (s *Store) Repositories() *repository.Repositories {
	return s.repositories(false)
}

func (s *Store) repositories(inTx bool) *repository.Repositories {
	return &repository.Repositories{
		User:        &userRepository{store: s, inTx: inTx},
		AuthSession: &authSessionRepository{store: s, inTx: inTx},
		Session:     &sessionRepository{store: s, inTx: inTx},
		Tx:          &transactor{store: s, inTx: inTx},
	}
}

type snapshot struct {
	users        map[uuid.UUID]*domain.User
	emails       map[string]uuid.UUID
	authSessions map[uuid.UUID]*domain.AuthSession
	sessions     map[uuid.UUID]*domain.Session
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		users:        make(map[uuid.UUID]*domain.User, len(s.users)),
		emails:       maps.Clone(s.emails),
		authSessions: make(map[uuid.UUID]*domain.AuthSession, len(s.authSessions)),
		sessions:     make(map[uuid.UUID]*domain.Session, len(s.sessions)),
	}
	for id, u := range s.users {
		snap.users[id] = u.Clone()
	}
	for id, a := range s.authSessions {
		c := *a
		snap.authSessions[id] = &c
	}
	for id, sess := range s.sessions {
		snap.sessions[id] = sess.Clone()
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = snap.users
	s.emails = snap.emails
	s.authSessions = snap.authSessions
	s.sessions = snap.sessions
}

// write runs fn under the map lock, taking the writer lock first unless the
// caller is already inside a transaction that holds it.
func (s *Store) write(ctx context.Context, inTx bool, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !inTx {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(ctx context.Context, inTx bool, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !inTx {
		s.writeMu.RLock()
		defer s.writeMu.RUnlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

type transactor struct {
	store *Store
	inTx  bool
}

// Transaction runs fn with exclusive write access. A nested call joins the
// outer transaction.
func (t *transactor) Transaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	if t.inTx {
		return fn(t.store.repositories(true))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.store.writeMu.Lock()
	defer t.store.writeMu.Unlock()

	snap := t.store.snapshot()
	if err := fn(t.store.repositories(true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type userRepository struct {
	store *Store
	inTx  bool
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.store.write(ctx, r.inTx, func() error {
		user.Email = strings.ToLower(user.Email)
		if _, ok := r.store.users[user.ID]; ok {
			return repository.ErrDuplicate
		}
		if _, ok := r.store.emails[user.Email]; ok {
			return repository.ErrDuplicate
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		r.store.users[user.ID] = user.Clone()
		r.store.emails[user.Email] = user.ID
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user *domain.User
	err := r.store.read(ctx, r.inTx, func() error {
		u, ok := r.store.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		user = u.Clone()
		return nil
	})
	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := r.store.read(ctx, r.inTx, func() error {
		id, ok := r.store.emails[strings.ToLower(email)]
		if !ok {
			return repository.ErrNotFound
		}
		user = r.store.users[id].Clone()
		return nil
	})
	return user, err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return r.store.write(ctx, r.inTx, func() error {
		existing, ok := r.store.users[user.ID]
		if !ok {
			return repository.ErrNotFound
		}
		email := strings.ToLower(user.Email)
		if owner, taken := r.store.emails[email]; taken && owner != user.ID {
			return repository.ErrDuplicate
		}
		delete(r.store.emails, existing.Email)
		existing.Email = email
		existing.DisplayName = user.DisplayName
		existing.PasswordHash = user.PasswordHash
		existing.UpdatedAt = time.Now()
		r.store.emails[email] = user.ID

		user.Email = email
		user.UpdatedAt = existing.UpdatedAt
		return nil
	})
}

func (r *userRepository) AppendCreatedSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	return r.store.write(ctx, r.inTx, func() error {
		u, ok := r.store.users[userID]
		if !ok {
			return repository.ErrNotFound
		}
		u.CreatedSessions = append(u.CreatedSessions, sessionID)
		return nil
	})
}

func (r *userRepository) AppendJoinedSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	return r.store.write(ctx, r.inTx, func() error {
		u, ok := r.store.users[userID]
		if !ok {
			return repository.ErrNotFound
		}
		u.JoinedSessions = append(u.JoinedSessions, sessionID)
		return nil
	})
}

type authSessionRepository struct {
	store *Store
	inTx  bool
}

func (r *authSessionRepository) Create(ctx context.Context, session *domain.AuthSession) error {
	return r.store.write(ctx, r.inTx, func() error {
		if _, ok := r.store.authSessions[session.ID]; ok {
			return repository.ErrDuplicate
		}
		c := *session
		r.store.authSessions[session.ID] = &c
		return nil
	})
}

func (r *authSessionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.AuthSession, error) {
	var found *domain.AuthSession
	err := r.store.read(ctx, r.inTx, func() error {
		for _, a := range r.store.authSessions {
			if a.UserID == userID {
				c := *a
				found = &c
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r *authSessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.store.write(ctx, r.inTx, func() error {
		for id, a := range r.store.authSessions {
			if a.UserID == userID {
				delete(r.store.authSessions, id)
			}
		}
		return nil
	})
}

type sessionRepository struct {
	store *Store
	inTx  bool
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.store.write(ctx, r.inTx, func() error {
		if _, ok := r.store.sessions[session.ID]; ok {
			return repository.ErrDuplicate
		}
		stored := session.Clone()
		stored.Creator = nil
		r.store.sessions[session.ID] = stored
		return nil
	})
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var session *domain.Session
	err := r.store.read(ctx, r.inTx, func() error {
		s, ok := r.store.sessions[id]
		if !ok {
			return repository.ErrNotFound
		}
		session = s.Clone()
		if creator, ok := r.store.users[s.CreatedBy]; ok {
			session.Creator = creator.Clone()
		}
		return nil
	})
	return session, err
}

func (r *sessionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Session, error) {
	sessions := make([]*domain.Session, 0, len(ids))
	err := r.store.read(ctx, r.inTx, func() error {
		for _, id := range ids {
			if s, ok := r.store.sessions[id]; ok {
				sessions = append(sessions, s.Clone())
			}
		}
		return nil
	})
	return sessions, err
}

// Update applies fn to a private copy and swaps it in only on success.
func (r *sessionRepository) Update(ctx context.Context, id uuid.UUID, fn func(*domain.Session) error) (*domain.Session, error) {
	var updated *domain.Session
	err := r.store.write(ctx, r.inTx, func() error {
		current, ok := r.store.sessions[id]
		if !ok {
			return repository.ErrNotFound
		}
		working := current.Clone()
		if err := fn(working); err != nil {
			return err
		}
		working.Creator = nil
		working.UpdatedAt = time.Now()
		r.store.sessions[id] = working
		updated = working.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
