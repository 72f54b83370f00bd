package handler

import (
	"net/http"

	"movecrm_backend/internal/audit/repository"
	"movecrm_backend/platform/apperr"
	"movecrm_backend/platform/httpkit"
	"movecrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	msgInvalidQuery = "invalid query"
)

type listQuery struct {
	LeadID string `form:"leadId" validate:"omitempty,uuid"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

// ListResponse is one page of audit entries.
type ListResponse struct {
	Items []repository.Entry `json:"items"`
	Total int                `json:"total"`
}

// Handler serves the admin audit log endpoints.
type Handler struct {
	repo repository.Reader
	val  *validator.Validator
}

func New(repo repository.Reader, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
}

func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidQuery, err.Error())
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.HandleError(c, apperr.Validation(validator.Describe(err)))
		return
	}

	params := repository.ListParams{Limit: q.Limit, Offset: q.Offset}
	if params.Limit == 0 {
		params.Limit = defaultPageSize
	}
	if q.LeadID != "" {
		id := uuid.MustParse(q.LeadID)
		params.LeadID = &id
	}

	entries, total, err := h.repo.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ListResponse{Items: entries, Total: total})
}
