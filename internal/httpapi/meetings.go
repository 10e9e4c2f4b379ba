package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rundown-api/rundown/internal/domain"
	"github.com/rundown-api/rundown/internal/providers"
	"github.com/rundown-api/rundown/internal/service"
)

type MeetingHandler struct {
	service *service.MeetingService
	logger  *slog.Logger
}

func NewMeetingHandler(service *service.MeetingService, logger *slog.Logger) *MeetingHandler {
	return &MeetingHandler{service: service, logger: logger}
}

func (h *MeetingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload", h.upload)
	r.POST("/analyze", h.analyze)
	r.GET("/results/:id", h.results)
}

func (h *MeetingHandler) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.handleError(c, err)
		return
	}

	meeting, err := h.service.Ingest(c.Request.Context(), file.Filename, data)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toMeetingResponse(meeting))
}

func (h *MeetingHandler) analyze(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	meeting, err := h.service.Analyze(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMeetingResponse(meeting))
}

func (h *MeetingHandler) results(c *gin.Context) {
	meeting, err := h.service.Fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMeetingResponse(meeting))
}

func (h *MeetingHandler) handleError(c *gin.Context, err error) {
	var transcriptionErr *providers.TranscriptionError
	var summarizationErr *providers.SummarizationError

	switch {
	case errors.Is(err, service.ErrMeetingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnsupportedFileType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &transcriptionErr), errors.As(err, &summarizationErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type meetingResponse struct {
	ID        string               `json:"id"`
	Filename  string               `json:"filename"`
	Content   string               `json:"content"`
	Summary   *string              `json:"summary"`
	Status    domain.MeetingStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

func toMeetingResponse(m domain.Meeting) meetingResponse {
	return meetingResponse{
		ID:        m.ID,
		Filename:  m.Filename,
		Content:   m.Content,
		Summary:   m.Summary,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}
