package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/ports"
	"movecrm_backend/internal/leads/service"
	"movecrm_backend/internal/leads/transport"
	"movecrm_backend/platform/httpkit"
	"movecrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc   *service.Service
	media ports.MediaStore
	val   *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgLeadCreated      = "Lead created successfully"

	maxPatchBytes = 64 << 10
)

// New builds the staff handler. media may be nil when object storage is off.
func New(svc *service.Service, media ports.MediaStore, val *validator.Validator) *Handler {
	return &Handler{svc: svc, media: media, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.CreateManual)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/assign", h.Assign)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.PATCH("/:id/items", h.UpdateItems)
	rg.PATCH("/:id/price", h.FinalizePrice)
	rg.PATCH("/:id/logistics", h.UpdateLogistics)
	rg.POST("/:id/notes", h.AddNote)
	rg.POST("/:id/follow-ups", h.AddFollowUp)
	rg.PATCH("/:id/follow-ups/:followUpId/complete", h.CompleteFollowUp)
	rg.GET("/:id/media/:index", h.MediaURL)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	leads, err := h.svc.ListForViewer(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, leads)
}

func (h *Handler) CreateManual(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	var req transport.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}
	profile, err := req.ToProfile()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.CreateManual(c.Request.Context(), actor, service.CreateManualInput{Profile: profile})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.CreatedResponse{Message: msgLeadCreated, LeadID: lead.ID})
}

func (h *Handler) GetByID(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Assign(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	assignee, err := req.Assignee()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	lead, err := h.svc.Assign(c.Request.Context(), actor, id, assignee)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), actor, id, status, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdateItems(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}

	var req transport.UpdateItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	lead, err := h.svc.UpdateInventory(c.Request.Context(), actor, id, req.ToItems())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) FinalizePrice(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}

	var req transport.FinalizePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	lead, err := h.svc.FinalizePrice(c.Request.Context(), actor, id, *req.Price, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// UpdateLogistics takes a JSON merge patch (RFC 7386) of the move details.
func (h *Handler) UpdateLogistics(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}

	patch, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPatchBytes))
	if err != nil || !json.Valid(patch) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.UpdateLogistics(c.Request.Context(), actor, id, patch)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) AddNote(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}

	var req transport.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	lead, err := h.svc.AddNote(c.Request.Context(), actor, id, req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) AddFollowUp(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}

	var req transport.AddFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	lead, _, err := h.svc.AddFollowUp(c.Request.Context(), actor, id, req.DateTime, req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) CompleteFollowUp(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}
	followUpID, err := uuid.Parse(c.Param("followUpId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.CompleteFollowUp(c.Request.Context(), actor, id, followUpID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// MediaURL returns a short-lived download link for one intake photo.
func (h *Handler) MediaURL(c *gin.Context) {
	actor, id, ok := actorAndLead(c)
	if !ok {
		return
	}
	if h.media == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "media storage is not configured", nil)
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	if index >= len(lead.Media) {
		httpkit.Error(c, http.StatusNotFound, "media not found", nil)
		return
	}

	url, expiresAt, err := h.media.DownloadURL(c.Request.Context(), lead.Media[index].FilePath)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.MediaURLResponse{URL: url, ExpiresAt: expiresAt})
}

func (h *Handler) validate(c *gin.Context, req any) bool {
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return false
	}
	return true
}

func mustGetActor(c *gin.Context) (domain.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return domain.Actor{}, false
	}
	role := domain.Role(identity.PrimaryRole())
	if !role.IsValid() {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: identity.UserID(), Role: role}, true
}

func actorAndLead(c *gin.Context) (domain.Actor, uuid.UUID, bool) {
	actor, ok := mustGetActor(c)
	if !ok {
		return domain.Actor{}, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return domain.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}
