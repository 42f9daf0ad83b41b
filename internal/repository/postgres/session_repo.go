package postgres

import (
	"context"

	"github.com/dom/group-decide/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error)
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).
		Preload("Creator").
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &session, nil
}

// GetByIDs returns the sessions that exist among ids, in the order of ids.
func (r *sessionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Session, error) {
	if len(ids) == 0 {
		return []*domain.Session{}, nil
	}

	var found []*domain.Session
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&found).Error
	if err != nil {
		return nil, translateError(err)
	}

	byID := make(map[uuid.UUID]*domain.Session, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}
	sessions := make([]*domain.Session, 0, len(found))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// Update locks the session row with SELECT ... FOR UPDATE, applies fn and
// saves the whole document in the same transaction. When fn fails nothing is
// written.
func (r *sessionRepository) Update(ctx context.Context, id uuid.UUID, fn func(*domain.Session) error) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, "id = ?", id).Error
		if err != nil {
			return err
		}

		if err := fn(&session); err != nil {
			return err
		}

		return tx.Omit(clause.Associations).Save(&session).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &session, nil
}
