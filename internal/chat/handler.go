package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"petguide-backend/internal/shared/server/middleware"
	"petguide-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the chat service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.ask)
	rg.GET("/chat", h.transcript)
	rg.DELETE("/chat", h.reset)
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	answer, err := h.Svc.Ask(c.Request.Context(), userID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyQuestion):
			// Blank input is ignored, not an error.
			respond.NoContent(c)
		case errors.Is(err, ErrBusy):
			respond.Error(c, http.StatusConflict, "chat_busy", "a chat call is already in flight", nil)
		case errors.Is(err, ErrGateway):
			respond.Error(c, http.StatusBadGateway, "gateway_error", "failed to get a response from PetGuide", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "chat failed", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"answer": strings.TrimSpace(answer),
		"turns":  h.Svc.Transcript(userID),
	})
}

func (h *Handler) transcript(c *gin.Context) {
	respond.OK(c, gin.H{"turns": h.Svc.Transcript(middleware.UserIDFromContext(c))})
}

func (h *Handler) reset(c *gin.Context) {
	h.Svc.Reset(middleware.UserIDFromContext(c))
	respond.NoContent(c)
}
