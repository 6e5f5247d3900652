package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadgen/phantom-cli/internal/planner"
)

type planRequest struct {
	Goal string `json:"goal" binding:"required"`
}

type runRequest struct {
	Goal   string            `json:"goal" binding:"required"`
	Steps  []string          `json:"steps" binding:"required"`
	Inputs map[string]string `json:"inputs"`
}

func (s *Server) handlePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	st := s.state.Load()
	p := &planner.Planner{
		Store:    st.Store,
		Index:    st.Index,
		Provider: s.prov,
		MaxSteps: s.opts.MaxSteps,
	}
	plan, err := p.Propose(c.Request.Context(), req.Goal)
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// handleRun simulates an approved plan. Steps are re-validated against the
// served catalog.
func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	st := s.state.Load()
	plan := planner.NewPlan(st.Store, req.Goal)
	for _, id := range req.Steps {
		if err := plan.AddStep(id, ""); err != nil {
			code := statusFor(err)
			if code == http.StatusInternalServerError {
				code = http.StatusBadRequest
			}
			fail(c, code, err)
			return
		}
	}

	run, err := (&planner.Executor{}).Execute(c.Request.Context(), plan.Goal, planner.PrepareInputs(plan, req.Inputs))
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
