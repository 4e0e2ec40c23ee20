package recommend

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tool-advisor/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/options", h.options)
	rg.POST("/recommend", h.recommendJSON)
	rg.GET("/recommend", h.recommendQuery)
	rg.GET("/workpieces/:name", h.workpiece)
}

func (h *Handler) options(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "service unavailable", nil)
		return
	}
	respond.OK(c, h.Svc.Options())
}

func (h *Handler) recommendJSON(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", []map[string]string{
			{"field": "body", "issue": "invalid"},
		})
		return
	}
	h.recommend(c, req)
}

func (h *Handler) recommendQuery(c *gin.Context) {
	var req Request
	if err := c.ShouldBindQuery(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid query", nil)
		return
	}
	h.recommend(c, req)
}

func (h *Handler) recommend(c *gin.Context, req Request) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "service unavailable", nil)
		return
	}
	if req.WorkpieceMaterial != "" {
		c.Set("workpiece", req.WorkpieceMaterial)
	}
	result, err := h.Svc.Recommend(c.Request.Context(), req)
	if err != nil {
		var rerr *ResolveError
		if errors.As(err, &rerr) {
			respond.Error(c, statusFor(err), ErrorCode(err), rerr.Message, nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to resolve recommendation", nil)
		return
	}
	c.Set("chosenTool", result.ChosenTool)
	respond.OK(c, gin.H{"recommendation": result})
}

func (h *Handler) workpiece(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "service unavailable", nil)
		return
	}
	name := c.Param("name")
	c.Set("workpiece", name)
	wp, err := h.Svc.Workpiece(name)
	if err != nil {
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "workpiece not found", nil)
		return
	}
	respond.OK(c, wp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoRecommendation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidWorkpiece), errors.Is(err, ErrUnknownTool):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
