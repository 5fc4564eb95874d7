package queue

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careflow/hospital-api/internal/handler"
	"github.com/careflow/hospital-api/internal/middleware"
	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/internal/service/queue"
	apperrors "github.com/careflow/hospital-api/pkg/errors"
)

type Handler struct {
	service *queue.Service
}

func NewHandler(service *queue.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	entries := r.Group("/queue/entries")
	{
		entries.POST("", h.RegisterEntry)
		entries.GET("", h.ListEntries)
		entries.GET("/:id", h.GetEntry)

		entries.POST("/:id/claim", h.ClaimForTriage)
		entries.POST("/:id/triage", h.SubmitTriage)
		entries.POST("/:id/start", h.StartConsultation)
		entries.POST("/:id/complete", h.CompleteConsultation)
		entries.POST("/:id/cancel", h.CancelEntry)
	}
}

// RegisterEntry enqueues a patient directly. The usual path is through the
// patient assignment endpoint, which registers the entry as part of the
// assignment flow; this endpoint covers re-queueing a patient whose doctor
// is already on record.
func (h *Handler) RegisterEntry(c *gin.Context) {
	var req struct {
		PatientID uuid.UUID `json:"patient_id" binding:"required"`
		DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entry, err := h.service.Register(c.Request.Context(), req.PatientID, req.DoctorID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

func (h *Handler) ListEntries(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		handler.Error(c, apperrors.Unauthorized(nil))
		return
	}

	filters := &model.QueueFilters{
		Stage:  model.QueueStage(c.Query("stage")),
		Status: model.QueueStatus(c.Query("status")),
	}
	if pid := c.Query("patient_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient_id"))
			return
		}
		filters.PatientID = id
	}

	entries, err := h.service.List(c.Request.Context(), actor, filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) GetEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid entry ID"))
		return
	}

	entry, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

// ClaimForTriage records the calling nurse as the entry's claimant. The
// claimant comes from the authenticated actor, never the request body.
func (h *Handler) ClaimForTriage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid entry ID"))
		return
	}
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		handler.Error(c, apperrors.Unauthorized(nil))
		return
	}

	entry, err := h.service.ClaimForTriage(c.Request.Context(), id, actor.ID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) SubmitTriage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid entry ID"))
		return
	}

	var input model.VitalSignsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entry, err := h.service.SubmitTriage(c.Request.Context(), id, &input)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) StartConsultation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid entry ID"))
		return
	}
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		handler.Error(c, apperrors.Unauthorized(nil))
		return
	}

	entry, err := h.service.StartConsultation(c.Request.Context(), id, actor.ID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) CompleteConsultation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid entry ID"))
		return
	}

	entry, err := h.service.CompleteConsultation(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) CancelEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid entry ID"))
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entry, err := h.service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}
