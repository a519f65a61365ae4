// Package handler exposes the auth HTTP endpoints.
package handler

import (
	"net/http"

	"leadsync_backend/internal/auth/service"
	"leadsync_backend/internal/auth/transport"
	"leadsync_backend/platform/httpkit"
	"leadsync_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   token.ExpiresIn,
	})
}

func (h *Handler) Me(c *gin.Context) {
	email := httpkit.GetUserEmail(c)
	if email == "" {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	httpkit.OK(c, transport.MeResponse{Email: email})
}
