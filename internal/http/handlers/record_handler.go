package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openjudge/go-judge-backend/internal/domain"
	"github.com/openjudge/go-judge-backend/internal/http/middleware"
	"github.com/openjudge/go-judge-backend/internal/repo"
	"github.com/openjudge/go-judge-backend/internal/services"
	"github.com/openjudge/go-judge-backend/internal/utils"
)

//
// DTOs
//

// InsertRecordRequest is the JSON payload for submitting code against a
// problem.
type InsertRecordRequest struct {
	UID      int64           `json:"uid"`
	PID      int64           `json:"pid"`
	Language domain.Language `json:"language"`
	Code     string          `json:"code"`
}

// UpdateRecordRequest is the JSON payload a judging worker reports a verdict
// with. Absent fields are left untouched.
type UpdateRecordRequest struct {
	RID     int64          `json:"rid"`
	Status  *domain.Status `json:"status"`
	RunTime *int           `json:"run_time"`
}

// QueryRecordRequest filters records. All fields are optional and combine
// with AND.
type QueryRecordRequest struct {
	RID      *int64           `json:"rid"`
	UID      *int64           `json:"uid"`
	PID      *int64           `json:"pid"`
	Language *domain.Language `json:"language"`
	Status   *domain.Status   `json:"status"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRecordsResponse wraps a page of records and pagination information.
type ListRecordsResponse struct {
	Records    []domain.Record `json:"records"`
	Pagination Pagination      `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Endpoints
//

// InsertRecord persists a submission and relays it to the judging service.
// Requires a token at or above the base user level. An Idempotency-Key header
// makes retries safe: a replay returns the originally persisted record without
// relaying again.
func (h *Handlers) InsertRecord(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		token, err := requireToken(c)
		if err != nil {
			return err
		}
		var req InsertRecordRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		idemKey, _ := middleware.GetIdempotencyKey(c)
		rec, replayed, err := h.recordSvc.Submit(c.Request.Context(), token, services.SubmitInput{
			UID:      req.UID,
			PID:      req.PID,
			Language: req.Language,
			Code:     req.Code,
		}, idemKey)
		if err != nil {
			return err
		}
		if replayed {
			c.Header("Idempotency-Replayed", "true")
		}
		successData(c, rec)
		return nil
	})
}

// UpdateRecord patches a record with a judging verdict. Requires a token at
// or above the judger level.
func (h *Handlers) UpdateRecord(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		token, err := requireToken(c)
		if err != nil {
			return err
		}
		var req UpdateRecordRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		err = h.recordSvc.Report(c.Request.Context(), token, services.RecordUpdate{
			RID:     req.RID,
			Status:  req.Status,
			RunTime: req.RunTime,
		})
		if err != nil {
			return err
		}
		success(c)
		return nil
	})
}

// QueryRecords returns records matching the filter, newest first. Public.
func (h *Handlers) QueryRecords(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		var req QueryRecordRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		recs, err := h.recordSvc.Query(c.Request.Context(), repo.RecordFilter{
			RID:      req.RID,
			UID:      req.UID,
			PID:      req.PID,
			Language: req.Language,
			Status:   req.Status,
		})
		if err != nil {
			return err
		}
		successData(c, recs)
		return nil
	})
}

// ListRecords returns a page of records. Supports weak ETag via If-None-Match
// and may return 304. The tag fingerprints (count, latest change), so a
// verdict patch invalidates any previously served tag.
func (h *Handlers) ListRecords(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		ctx := c.Request.Context()
		page, pageSize := clampPagination(c)

		// ETag pre-check (best effort).
		if count, maxUpdated, err := h.recordSvc.Stats(ctx); err == nil {
			var ts int64
			if maxUpdated != nil {
				ts = maxUpdated.UnixNano()
			}
			etag := fmt.Sprintf(`W/"records:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return nil
			}
		}

		items, total, err := h.recordSvc.ListPage(ctx, page, pageSize)
		if err != nil {
			return err
		}

		totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
		successData(c, ListRecordsResponse{
			Records: items,
			Pagination: Pagination{
				Page:       page,
				PageSize:   pageSize,
				Total:      total,
				TotalPages: totalPages,
				HasNext:    page < totalPages,
			},
		})
		return nil
	})
}
