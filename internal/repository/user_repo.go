package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-assignments-api/internal/models"
)

// UserRepository is the credential store.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	CreateIfAbsent(ctx context.Context, user *models.User) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

// CreateIfAbsent inserts user unless the email is already taken. Existing rows are left untouched.
func (r *userRepository) CreateIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(user)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
