package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/engtrack/internal/models"
)

// UserRepository stores the accounts allowed to sign in.
type UserRepository interface {
	FindByLogin(ctx context.Context, login string) (models.User, error)
	Count(ctx context.Context) (int64, error)
	ExistingLogins(ctx context.Context, logins []string) (map[string]struct{}, error)
	CreateBatch(ctx context.Context, users []models.User) error
	SetAdmin(ctx context.Context, login string, admin bool) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("login = ?", login).First(&user).Error
	return user, err
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error
	return total, err
}

func (r *userRepository) ExistingLogins(ctx context.Context, logins []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(logins))
	if len(logins) == 0 {
		return existing, nil
	}

	var found []string
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("login IN ?", logins).Pluck("login", &found).Error; err != nil {
		return nil, err
	}
	for _, login := range found {
		existing[login] = struct{}{}
	}
	return existing, nil
}

func (r *userRepository) CreateBatch(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&users).Error
	})
}

func (r *userRepository) SetAdmin(ctx context.Context, login string, admin bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("login = ?", login).Update("is_admin", admin)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
