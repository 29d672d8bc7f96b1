package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// NoteService manages the caller's notes.
type NoteService interface {
	List(ctx context.Context, userID int64) ([]model.Note, error)
	Create(ctx context.Context, userID int64, title, content string, uploads []model.Upload) (model.NoteDetails, error)
	Get(ctx context.Context, userID, noteID int64) (model.NoteDetails, error)
	Update(ctx context.Context, userID, noteID int64, title, content string, uploads []model.Upload) (model.NoteDetails, error)
	Delete(ctx context.Context, userID, noteID int64) error
}

// Note handles note endpoints.
type Note struct {
	notes          NoteService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewNote creates a new Note handler.
func NewNote(notes NoteService, contextManager model.ContextManager, logger *logger.Logger) *Note {
	return &Note{
		notes:          notes,
		contextManager: contextManager,
		logger:         logger,
	}
}

type noteRequest struct {
	Title   string `form:"title" json:"title"`
	Content string `form:"content" json:"content"`
}

// List returns the caller's notes, most recently updated first.
func (h *Note) List(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}

	notes, err := h.notes.List(c.Request.Context(), identity.UserID)
	if err != nil {
		handleError(c, err)
		return
	}

	resp := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, newNoteResponse(n))
	}

	c.JSON(http.StatusOK, gin.H{"notes": resp})
}

// Create adds a note with optional attachments.
func (h *Note) Create(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}

	req, uploads, release, ok := h.bind(c)
	if !ok {
		return
	}
	defer release()

	details, err := h.notes.Create(c.Request.Context(), identity.UserID, req.Title, req.Content, uploads)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Note created successfully!",
		"note":    newNoteDetailsResponse(details),
	})
}

// Get returns one note with its attachments.
func (h *Note) Get(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.notes.Get(c.Request.Context(), identity.UserID, noteID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": newNoteDetailsResponse(details)})
}

// Update replaces title and content and appends new attachments.
func (h *Note) Update(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	req, uploads, release, ok := h.bind(c)
	if !ok {
		return
	}
	defer release()

	details, err := h.notes.Update(c.Request.Context(), identity.UserID, noteID, req.Title, req.Content, uploads)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Note updated successfully!",
		"note":    newNoteDetailsResponse(details),
	})
}

// Delete removes a note with all its attachments.
func (h *Note) Delete(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notes.Delete(c.Request.Context(), identity.UserID, noteID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully!"})
}

func (h *Note) bind(c *gin.Context) (noteRequest, []model.Upload, func(), bool) {
	var req noteRequest
	if err := c.ShouldBind(&req); err != nil {
		handleBindError(c, err)
		return noteRequest{}, nil, nil, false
	}

	uploads, release, err := formFiles(c, "files")
	if err != nil {
		handleBindError(c, err)
		return noteRequest{}, nil, nil, false
	}

	return req, uploads, release, true
}
