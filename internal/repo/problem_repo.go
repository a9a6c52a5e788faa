// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Problem
// model. See user_repo.go for the package-wide error semantics.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/openjudge/go-judge-backend/internal/domain"
)

// CreateProblem inserts p and backfills its generated ID.
func CreateProblem(ctx context.Context, db *gorm.DB, p *domain.Problem) error {
	return db.WithContext(ctx).Create(p).Error
}

// GetProblem fetches a problem by primary key, or ErrNotFound.
func GetProblem(ctx context.Context, db *gorm.DB, id int64) (*domain.Problem, error) {
	var p domain.Problem
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProblem persists all fields of p. The row must already exist.
func SaveProblem(ctx context.Context, db *gorm.DB, p *domain.Problem) error {
	return db.WithContext(ctx).Save(p).Error
}

// DeleteProblem removes a problem by primary key. Returns ErrNotFound when
// no row was deleted.
func DeleteProblem(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).Delete(&domain.Problem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
