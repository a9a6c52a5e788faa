// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/openjudge/go-judge-backend/internal/domain"
)

// RecordsStats returns aggregate metadata for the records table: the total
// number of rows and the most recent modification among them. A verdict
// patch bumps updated_at, so the pair changes whenever the listing would
// render differently.
//
// It executes two lightweight queries. When there are no records, the
// returned count is 0 and maxUpdated is nil.
//
// Return values:
//   - count:      total records
//   - maxUpdated: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:        database error, if any
func RecordsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdated *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Record{})

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
