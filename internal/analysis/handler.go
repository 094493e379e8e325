package analysis

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"petguide-backend/internal/gateway"
	"petguide-backend/internal/media"
	"petguide-backend/internal/shared/server/middleware"
	"petguide-backend/internal/shared/server/respond"
)

// uploadSlack leaves room for multipart framing around the 20MB payload cap.
const uploadSlack = 1 << 20

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses/image", h.analyzeImage)
	rg.POST("/analyses/video", h.analyzeVideo)
	rg.GET("/analyses", h.listHistory)
	rg.GET("/analyses/status", h.status)
}

func (h *Handler) analyzeImage(c *gin.Context) {
	c.Set("analysisKind", string(KindBreed))
	in, ok := h.ingestUpload(c, media.KindImage)
	if !ok {
		return
	}

	record, err := h.Svc.RunImageAnalysis(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	c.Set("recordId", record.ID)

	respond.OK(c, gin.H{
		"recordId":  record.ID,
		"timestamp": record.Timestamp,
		"input":     record.Input,
		"result":    record.Result,
		"media":     in.DataURI,
	})
}

func (h *Handler) analyzeVideo(c *gin.Context) {
	c.Set("analysisKind", string(KindBehavior))
	in, ok := h.ingestUpload(c, media.KindVideo)
	if !ok {
		return
	}
	description := c.PostForm("description")

	record, err := h.Svc.RunVideoAnalysis(c.Request.Context(), middleware.UserIDFromContext(c), in, description)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	c.Set("recordId", record.ID)

	respond.OK(c, gin.H{
		"recordId":  record.ID,
		"timestamp": record.Timestamp,
		"input":     record.Input,
		"result":    record.Result,
		"media":     in.DataURI,
	})
}

func (h *Handler) listHistory(c *gin.Context) {
	records, err := h.Svc.History.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list history", nil)
		return
	}
	respond.OK(c, gin.H{"records": records})
}

func (h *Handler) status(c *gin.Context) {
	respond.OK(c, h.Svc.Status())
}

// ingestUpload validates and encodes the multipart upload. On failure it
// writes the error response and returns ok=false; the orchestrator is
// never invoked with a rejected payload.
func (h *Handler) ingestUpload(c *gin.Context, kind media.Kind) (media.Input, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxUploadBytes+uploadSlack)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return media.Input{}, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return media.Input{}, false
	}
	defer file.Close()

	in, err := media.Ingest(kind, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, media.ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		}
		return media.Input{}, false
	}
	return in, true
}

func (h *Handler) respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrWrongMediaKind):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, gateway.ErrUnsupportedMedia):
		respond.Error(c, http.StatusUnprocessableEntity, "unsupported_media", "the configured AI provider cannot analyze this media kind", nil)
	case errors.Is(err, ErrGateway):
		respond.Error(c, http.StatusBadGateway, "gateway_error", "analysis failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "analysis failed", nil)
	}
}
