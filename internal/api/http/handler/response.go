package handler

import (
	"strconv"
	"time"

	"github.com/dtroode/vibenotes-server/internal/model"
)

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type profileResponse struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type noteResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type noteDetailsResponse struct {
	noteResponse
	Attachments []attachmentResponse `json:"attachments"`
}

type attachmentResponse struct {
	ID          int64     `json:"id"`
	NoteID      int64     `json:"note_id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	DownloadURL string    `json:"download_url"`
}

func newUserResponse(identity model.Identity) userResponse {
	return userResponse{ID: identity.UserID, Username: identity.Username}
}

func newProfileResponse(profile model.Profile) profileResponse {
	resp := profileResponse{
		UserID:      profile.UserID,
		Username:    profile.Username,
		Description: profile.Description,
	}
	if profile.Avatar != "" {
		resp.AvatarURL = "/avatars/" + strconv.FormatInt(profile.UserID, 10)
	}
	return resp
}

func newNoteResponse(note model.Note) noteResponse {
	return noteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

func newNoteDetailsResponse(details model.NoteDetails) noteDetailsResponse {
	return noteDetailsResponse{
		noteResponse: newNoteResponse(details.Note),
		Attachments:  newAttachmentResponses(details.Attachments),
	}
}

func newAttachmentResponses(attachments []model.Attachment) []attachmentResponse {
	resp := make([]attachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		resp = append(resp, attachmentResponse{
			ID:          a.ID,
			NoteID:      a.NoteID,
			Filename:    a.OriginalFilename,
			Size:        a.Size,
			UploadedAt:  a.UploadedAt,
			DownloadURL: "/attachments/" + strconv.FormatInt(a.ID, 10),
		})
	}
	return resp
}
