package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openjudge/go-judge-backend/internal/services"
)

//
// DTOs
//

// InsertProblemRequest is the JSON payload for uploading a problem. The
// owner is taken from the credential, never from the body.
type InsertProblemRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	JudgeNum    int     `json:"judge_num"`
	TimeLimit   float64 `json:"time_limit"`
	MemoryLimit int     `json:"memory_limit"`
}

// UpdateProblemRequest is the JSON payload for patching a problem. Absent
// fields are left untouched.
type UpdateProblemRequest struct {
	PID         int64    `json:"pid"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	JudgeNum    *int     `json:"judge_num"`
	TimeLimit   *float64 `json:"time_limit"`
	MemoryLimit *int     `json:"memory_limit"`
}

// ProblemIDRequest addresses a single problem by id (query and delete).
type ProblemIDRequest struct {
	PID int64 `json:"pid"`
}

//
// Endpoints
//

// InsertProblem uploads a new problem owned by the caller. Requires a token
// at or above the base user level.
func (h *Handlers) InsertProblem(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		token, err := requireToken(c)
		if err != nil {
			return err
		}
		var req InsertProblemRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		p, err := h.problemSvc.Create(c.Request.Context(), token, services.ProblemInput{
			Title:       req.Title,
			Description: req.Description,
			JudgeNum:    req.JudgeNum,
			TimeLimit:   req.TimeLimit,
			MemoryLimit: req.MemoryLimit,
		})
		if err != nil {
			return err
		}
		successData(c, p)
		return nil
	})
}

// UpdateProblem patches a problem row. Requires a token authorizing the
// caller for the problem's stored owner (owner or admin).
func (h *Handlers) UpdateProblem(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		token, err := requireToken(c)
		if err != nil {
			return err
		}
		var req UpdateProblemRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		err = h.problemSvc.Update(c.Request.Context(), token, services.ProblemUpdate{
			ID:          req.PID,
			Title:       req.Title,
			Description: req.Description,
			JudgeNum:    req.JudgeNum,
			TimeLimit:   req.TimeLimit,
			MemoryLimit: req.MemoryLimit,
		})
		if err != nil {
			return err
		}
		success(c)
		return nil
	})
}

// QueryProblem returns a problem row by id. Public.
func (h *Handlers) QueryProblem(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		var req ProblemIDRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		p, err := h.problemSvc.Get(c.Request.Context(), req.PID)
		if err != nil {
			return err
		}
		successData(c, p)
		return nil
	})
}

// DeleteProblem removes a problem row. Requires a token authorizing the
// caller for the problem's stored owner (owner or admin).
func (h *Handlers) DeleteProblem(c *gin.Context) {
	run(c, func(c *gin.Context) error {
		token, err := requireToken(c)
		if err != nil {
			return err
		}
		var req ProblemIDRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if err := h.problemSvc.Delete(c.Request.Context(), token, req.PID); err != nil {
			return err
		}
		success(c)
		return nil
	})
}
