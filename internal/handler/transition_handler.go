package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-planner/internal/models"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
	"github.com/noah-isme/study-planner/pkg/response"
)

const maxTransitionLimit = 200

type transitionLog interface {
	Recent(ctx context.Context, limit int) ([]models.Transition, error)
}

// TransitionHandler exposes the tier transition log.
type TransitionHandler struct {
	log transitionLog
}

// NewTransitionHandler constructs the handler.
func NewTransitionHandler(log transitionLog) *TransitionHandler {
	return &TransitionHandler{log: log}
}

// List godoc
// @Summary Recent tier transitions
// @Description Assessments that moved into the urgent, warning or expired tier, newest first
// @Tags Dashboard
// @Produce json
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} response.Envelope
// @Router /transitions [get]
func (h *TransitionHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > maxTransitionLimit {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be between 1 and 200"))
		return
	}
	transitions, err := h.log.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, transitions)
}
