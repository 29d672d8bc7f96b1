package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/model"
)

// formFiles opens the files sent under field of a multipart request.
// Requests of other content types carry no files. Call release once the
// uploads have been consumed.
func formFiles(c *gin.Context, field string) (uploads []model.Upload, release func(), err error) {
	release = func() {}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, release, nil
		}
		return nil, release, err
	}

	headers := form.File[field]
	opened := make([]multipart.File, 0, len(headers))
	release = func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	uploads = make([]model.Upload, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			release()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		uploads = append(uploads, model.Upload{Filename: header.Filename, Content: f})
	}

	return uploads, release, nil
}

// formFile opens the single file sent under field, nil when there is none.
func formFile(c *gin.Context, field string) (*model.Upload, func(), error) {
	uploads, release, err := formFiles(c, field)
	if err != nil || len(uploads) == 0 {
		return nil, release, err
	}
	return &uploads[0], release, nil
}
