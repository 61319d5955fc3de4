package repository

import (
	"context"

	"gorm.io/gorm"
)

// HealthRepository checks connectivity to the relational store.
type HealthRepository interface {
	Ping(ctx context.Context) error
}

type healthRepository struct {
	db *gorm.DB
}

// NewHealthRepository constructs a health repository.
func NewHealthRepository(db *gorm.DB) HealthRepository {
	return &healthRepository{db: db}
}

func (r *healthRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
