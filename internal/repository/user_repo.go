package repository

import (
	"context"
	"time"

	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error
	UpdateSession(ctx context.Context, userID uint, tokenVersion string, seenAt time.Time) error
	UpdateLastSeen(ctx context.Context, userID uint, seenAt time.Time) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := conn(ctx, r.db).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := conn(ctx, r.db).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return conn(ctx, r.db).Create(user).Error
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error {
	return conn(ctx, r.db).Model(&model.User{}).Where("id = ?", userID).Update("password", hashedPassword).Error
}

func (r *userRepo) UpdateSession(ctx context.Context, userID uint, tokenVersion string, seenAt time.Time) error {
	return conn(ctx, r.db).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"token_version": tokenVersion,
			"last_seen_at":  seenAt,
		}).Error
}

func (r *userRepo) UpdateLastSeen(ctx context.Context, userID uint, seenAt time.Time) error {
	return conn(ctx, r.db).Model(&model.User{}).Where("id = ?", userID).Update("last_seen_at", seenAt).Error
}
