// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Record
// model, including the filterable query and pagination used by the public
// record listing endpoints.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/openjudge/go-judge-backend/internal/domain"
)

// RecordFilter selects records by any combination of columns. Nil fields are
// ignored, so a zero filter matches every record.
type RecordFilter struct {
	RID      *int64
	UID      *int64
	PID      *int64
	Language *domain.Language
	Status   *domain.Status
}

func (f RecordFilter) apply(q *gorm.DB) *gorm.DB {
	if f.RID != nil {
		q = q.Where("rid = ?", *f.RID)
	}
	if f.UID != nil {
		q = q.Where("uid = ?", *f.UID)
	}
	if f.PID != nil {
		q = q.Where("pid = ?", *f.PID)
	}
	if f.Language != nil {
		q = q.Where("language = ?", *f.Language)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	return q
}

// CreateRecord inserts r and backfills its generated RID.
func CreateRecord(ctx context.Context, db *gorm.DB, r *domain.Record) error {
	return db.WithContext(ctx).Create(r).Error
}

// GetRecord fetches a record by primary key, or ErrNotFound.
func GetRecord(ctx context.Context, db *gorm.DB, rid int64) (*domain.Record, error) {
	var r domain.Record
	if err := db.WithContext(ctx).First(&r, rid).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveRecord persists all fields of r. The row must already exist.
func SaveRecord(ctx context.Context, db *gorm.DB, r *domain.Record) error {
	return db.WithContext(ctx).Save(r).Error
}

// ListRecords returns all records matching the filter, newest first.
func ListRecords(ctx context.Context, db *gorm.DB, f RecordFilter) ([]domain.Record, error) {
	var out []domain.Record
	err := f.apply(db.WithContext(ctx)).
		Order("rid desc").
		Find(&out).Error
	return out, err
}

// CountRecords returns the total number of records.
func CountRecords(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Record{}).
		Count(&total).Error
	return total, err
}

// ListRecordsPage returns a paginated slice of records, newest first. Use
// CountRecords to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListRecordsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Record, error) {
	var out []domain.Record
	err := db.WithContext(ctx).
		Order("rid desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
