package roster

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careflow/hospital-api/internal/handler"
	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/internal/service/roster"
)

type Handler struct {
	service *roster.Service
}

func NewHandler(service *roster.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinicians := r.Group("/clinicians")
	{
		clinicians.GET("", h.ListClinicians)
		clinicians.GET("/:id", h.GetClinician)
	}
}

func (h *Handler) ListClinicians(c *gin.Context) {
	filters := &model.ClinicianFilters{
		Department: c.Query("department"),
	}
	for _, role := range c.QueryArray("role") {
		filters.Roles = append(filters.Roles, model.ClinicianRole(role))
	}

	clinicians, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinicians))
}

func (h *Handler) GetClinician(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinician ID"))
		return
	}

	clinician, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinician))
}
