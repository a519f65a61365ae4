// Package handler exposes the leads HTTP endpoints.
package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"leadsync_backend/internal/leads/domain"
	"leadsync_backend/internal/leads/service"
	"leadsync_backend/internal/leads/transport"
	"leadsync_backend/platform/httpkit"
	"leadsync_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	// Uploads past this size are rejected before parsing.
	maxCSVUploadBytes = 5 << 20
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/analytics", h.Analytics)
	rg.GET("/export", h.Export)
	rg.POST("/sync", h.Sync)
	rg.POST("/import", h.ImportCSV)
	rg.POST("/simulate", h.Simulate)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

func (h *Handler) List(c *gin.Context) {
	leads := h.svc.All(c.Request.Context())
	httpkit.OK(c, transport.ToLeadResponses(leads))
}

func (h *Handler) GetByID(c *gin.Context) {
	lead, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if !domain.IsKnownStatus(req.Status) {
		httpkit.Error(c, http.StatusBadRequest, "unknown status", req.Status)
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.ParseStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Sync(c *gin.Context) {
	result, err := h.svc.SyncFromSheet(c.Request.Context(), "manual")
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SyncResponse{Fetched: result.Fetched, Added: result.Added})
}

func (h *Handler) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fileHeader.Size > maxCSVUploadBytes {
		httpkit.Error(c, http.StatusBadRequest, "file too large", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer f.Close()

	contents, err := io.ReadAll(io.LimitReader(f, maxCSVUploadBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}

	added, err := h.svc.ImportCSV(c.Request.Context(), fileHeader.Filename, contents)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ImportResponse{Added: added})
}

func (h *Handler) Simulate(c *gin.Context) {
	lead := h.svc.SimulateWebhook(c.Request.Context())
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

func (h *Handler) Analytics(c *gin.Context) {
	httpkit.OK(c, h.svc.Analytics(c.Request.Context()))
}

func (h *Handler) Export(c *gin.Context) {
	data, err := h.svc.ExportCSV(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	filename := fmt.Sprintf("leads_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
