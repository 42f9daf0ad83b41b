package postgres

import (
	"context"

	"github.com/dom/group-decide/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type authSessionRepository struct {
	db *gorm.DB
}

func NewAuthSessionRepository(db *gorm.DB) *authSessionRepository {
	return &authSessionRepository{db: db}
}

func (r *authSessionRepository) Create(ctx context.Context, session *domain.AuthSession) error {
	return translateError(r.db.WithContext(ctx).Create(session).Error)
}

func (r *authSessionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.AuthSession, error) {
	var session domain.AuthSession
	err := r.db.WithContext(ctx).First(&session, "user_id = ?", userID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &session, nil
}

func (r *authSessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.AuthSession{}, "user_id = ?", userID).Error
}
