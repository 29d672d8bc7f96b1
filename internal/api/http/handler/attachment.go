package handler

import (
	"context"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// AttachmentService manages files attached to notes.
type AttachmentService interface {
	Upload(ctx context.Context, userID, noteID int64, uploads []model.Upload) ([]model.Attachment, error)
	Download(ctx context.Context, userID, attachmentID int64) (model.Download, error)
	Delete(ctx context.Context, userID, attachmentID int64) (int64, error)
}

// Attachment handles attachment endpoints.
type Attachment struct {
	attachments    AttachmentService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAttachment creates a new Attachment handler.
func NewAttachment(attachments AttachmentService, contextManager model.ContextManager, logger *logger.Logger) *Attachment {
	return &Attachment{
		attachments:    attachments,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Upload attaches the files sent under "files" to the note in the path.
// Files without a name or with a disallowed extension are skipped.
func (h *Attachment) Upload(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	uploads, release, err := formFiles(c, "files")
	if err != nil {
		handleBindError(c, err)
		return
	}
	defer release()

	attachments, err := h.attachments.Upload(c.Request.Context(), identity.UserID, noteID, uploads)
	if err != nil {
		handleError(c, err)
		return
	}

	status := http.StatusCreated
	if len(attachments) == 0 {
		status = http.StatusOK
	}

	c.JSON(status, gin.H{"attachments": newAttachmentResponses(attachments)})
}

// Download sends the file under its original name.
func (h *Attachment) Download(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	download, err := h.attachments.Download(c.Request.Context(), identity.UserID, attachmentID)
	if err != nil {
		handleError(c, err)
		return
	}
	defer download.Content.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename})
	if disposition == "" {
		disposition = "attachment"
	}

	c.DataFromReader(http.StatusOK, download.Size, "application/octet-stream", download.Content, map[string]string{
		"Content-Disposition": disposition,
	})
}

// Delete removes one attachment and its file.
func (h *Attachment) Delete(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	noteID, err := h.attachments.Delete(c.Request.Context(), identity.UserID, attachmentID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Attachment deleted successfully!",
		"note_id": noteID,
	})
}
