package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/dom/group-decide/internal/domain"
	"github.com/dom/group-decide/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(user.Email)
	if user.CreatedSessions == nil {
		user.CreatedSessions = datatypes.JSONSlice[uuid.UUID]{}
	}
	if user.JoinedSessions == nil {
		user.JoinedSessions = datatypes.JSONSlice[uuid.UUID]{}
	}
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(email)).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(user.Email)
	user.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(user).
		Select("email", "display_name", "password_hash", "updated_at").
		Updates(user)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) AppendCreatedSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	return r.appendSessionRef(ctx, "created_sessions", userID, sessionID)
}

func (r *userRepository) AppendJoinedSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	return r.appendSessionRef(ctx, "joined_sessions", userID, sessionID)
}

// appendSessionRef appends in a single UPDATE so concurrent appends to the
// same user never drop each other.
func (r *userRepository) appendSessionRef(ctx context.Context, column string, userID, sessionID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Update(column, gorm.Expr(column+" || jsonb_build_array(?::text)", sessionID.String()))
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
