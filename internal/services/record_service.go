// Package services – RecordService
//
// This file implements the RecordService, which manages judge records: a
// user submits a solution, the submission is persisted with the Waiting
// status and relayed to the external judging service, and a judging worker
// later reports the verdict through Report. Queries over records are public.
//
// Submissions support idempotent retries: when the transport layer passes a
// non-empty idempotency key, a repeated submission within the TTL returns
// the originally created record instead of enqueueing the solution again.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openjudge/go-judge-backend/internal/auth"
	"github.com/openjudge/go-judge-backend/internal/domain"
	"github.com/openjudge/go-judge-backend/internal/judge"
	"github.com/openjudge/go-judge-backend/internal/repo"
)

// RecordService implements the use-cases around judge records.
type RecordService struct {
	// DB is the database handle used for all record operations.
	DB *gorm.DB
	// Tokens issues and verifies the signed credentials used for access control.
	Tokens *auth.TokenManager
	// Judger relays accepted submissions to the judging service. A disabled
	// client drops jobs, which keeps development setups working.
	Judger *judge.Client
	// IdempotencyTTL bounds how long a submission idempotency key is honored.
	IdempotencyTTL time.Duration
}

// SubmitInput is the payload for creating a judge record.
type SubmitInput struct {
	UID      int64
	PID      int64
	Language domain.Language
	Code     string
}

// RecordUpdate is the verdict patch reported by a judging worker.
type RecordUpdate struct {
	RID     int64
	Status  *domain.Status
	RunTime *int
}

// Submit validates and persists a new judge record, then relays it to the
// judging service. The credential must decode to at least the User floor.
//
// The returned bool reports whether the submission was a replay of a prior
// one with the same idempotency key; replays are served from storage and
// are not relayed again. A relay failure is returned to the caller, but the
// record stays persisted so the judger can pick it up on its own schedule.
func (s *RecordService) Submit(ctx context.Context, token string, in SubmitInput, idemKey string) (*domain.Record, bool, error) {
	if !s.Tokens.AuthorizeLevel(token, auth.User) {
		return nil, false, E(KindInvalidCredential, "not allowed to submit")
	}
	if in.UID == 0 || in.PID == 0 {
		return nil, false, E(KindValidationFailed, "uid and pid are required")
	}
	if !in.Language.Valid() {
		return nil, false, E(KindValidationFailed, "unknown language %d", int16(in.Language))
	}

	// A repeated submission with the same key returns the original record.
	if idemKey != "" {
		prior, err := repo.GetIdempotency(ctx, s.DB, in.UID, in.PID, idemKey, time.Now().UTC())
		if err == nil {
			rec, err := repo.GetRecord(ctx, s.DB, prior.RecordID)
			if err == nil {
				return rec, true, nil
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, false, E(KindPersistenceFailure, "idempotency lookup: %v", err)
		}
	}

	rec := &domain.Record{
		UID:        in.UID,
		PID:        in.PID,
		Language:   in.Language,
		Code:       in.Code,
		SubmitTime: time.Now().UTC(),
		Status:     domain.StatusWaiting,
	}
	if err := repo.CreateRecord(ctx, s.DB, rec); err != nil {
		return nil, false, E(KindPersistenceFailure, "create record: %v", err)
	}

	if idemKey != "" {
		ttl := s.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		// A concurrent duplicate insert is fine: both submissions refer to a
		// persisted record, and the key already points at the winner.
		if _, err := repo.CreateIdempotency(ctx, s.DB, in.UID, in.PID, idemKey, rec.RID, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			return nil, false, E(KindPersistenceFailure, "store idempotency key: %v", err)
		}
	}

	if err := s.Judger.Submit(ctx, judge.Job{
		PID:      rec.PID,
		RID:      rec.RID,
		Code:     rec.Code,
		Language: rec.Language,
	}); err != nil {
		return nil, false, E(KindNotFound, "judger unreachable: %v", err)
	}
	return rec, false, nil
}

// Report patches the verdict fields of a record. Only judging workers (the
// Judger floor) may report; records do not belong to the submitting user for
// this purpose.
func (s *RecordService) Report(ctx context.Context, token string, upd RecordUpdate) error {
	if upd.RID == 0 {
		return E(KindValidationFailed, "rid is required")
	}

	rec, err := repo.GetRecord(ctx, s.DB, upd.RID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return E(KindNotFound, "record: %d", upd.RID)
		}
		return E(KindPersistenceFailure, "load record %d: %v", upd.RID, err)
	}
	if !s.Tokens.AuthorizeLevel(token, auth.Judger) {
		return E(KindInvalidCredential, "not allowed to report a verdict")
	}

	if upd.Status != nil {
		if !upd.Status.Valid() {
			return E(KindValidationFailed, "unknown status %d", int16(*upd.Status))
		}
		rec.Status = *upd.Status
	}
	if upd.RunTime != nil {
		rec.RunTime = *upd.RunTime
	}

	if err := repo.SaveRecord(ctx, s.DB, rec); err != nil {
		return E(KindPersistenceFailure, "save record %d: %v", rec.RID, err)
	}
	return nil
}

// Query returns all records matching the filter, newest first. Records are
// public data; no credential is needed.
func (s *RecordService) Query(ctx context.Context, f repo.RecordFilter) ([]domain.Record, error) {
	out, err := repo.ListRecords(ctx, s.DB, f)
	if err != nil {
		return nil, E(KindPersistenceFailure, "list records: %v", err)
	}
	return out, nil
}

// Stats returns the listing fingerprint inputs: the total number of records
// and the most recent modification time, nil when the table is empty. The
// HTTP layer derives the listing ETag from the pair.
func (s *RecordService) Stats(ctx context.Context) (int64, *time.Time, error) {
	count, maxUpdated, err := repo.RecordsStats(ctx, s.DB)
	if err != nil {
		return 0, nil, E(KindPersistenceFailure, "records stats: %v", err)
	}
	return count, maxUpdated, nil
}

// ListPage returns a page of records and the total count, newest first.
func (s *RecordService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Record, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountRecords(ctx, s.DB)
	if err != nil {
		return nil, 0, E(KindPersistenceFailure, "count records: %v", err)
	}
	if total == 0 {
		return []domain.Record{}, 0, nil
	}

	items, err := repo.ListRecordsPage(ctx, s.DB, offset, pageSize)
	if err != nil {
		return nil, 0, E(KindPersistenceFailure, "list records: %v", err)
	}
	return items, total, nil
}
