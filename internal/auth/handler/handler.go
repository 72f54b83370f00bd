package handler

import (
	"errors"
	"net/http"

	"movecrm_backend/internal/auth/repository"
	"movecrm_backend/internal/auth/service"
	"movecrm_backend/internal/auth/transport"
	authvalidator "movecrm_backend/internal/auth/validator"
	"movecrm_backend/platform/httpkit"
	"movecrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	playground "github.com/go-playground/validator/v10"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}

func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}

	token, user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AuthResponse{AccessToken: token, User: toUserResponse(user)})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListSalesUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	httpkit.OK(c, out)
}

func (h *Handler) CreateSalesUser(c *gin.Context) {
	var req transport.CreateSalesUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, describe(err))
		return
	}

	user, err := h.svc.CreateSalesUser(c.Request.Context(), req.Name, req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toUserResponse(user))
}

// describe swaps the generic strongpassword message for the policy text.
func describe(err error) string {
	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "strongpassword" {
				return authvalidator.PasswordPolicy
			}
		}
	}
	return validator.Describe(err)
}

func toUserResponse(u repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}
