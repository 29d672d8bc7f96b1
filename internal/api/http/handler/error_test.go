package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/vibenotes-server/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
		wantLogged bool
	}{
		{
			name:       "validation message is shown",
			err:        fmt.Errorf("create note: %w", model.NewValidationError("Title is required")),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Title is required"}`,
		},
		{
			name:       "bare validation kind",
			err:        model.ErrValidation,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid request"}`,
		},
		{
			name:       "conflict message is shown",
			err:        model.NewConflictError("Username already exists"),
			wantStatus: http.StatusConflict,
			wantBody:   `{"error":"Username already exists"}`,
		},
		{
			name:       "bare conflict kind",
			err:        fmt.Errorf("insert: %w", model.ErrConflict),
			wantStatus: http.StatusConflict,
			wantBody:   `{"error":"Already exists"}`,
		},
		{
			name:       "auth",
			err:        model.ErrAuth,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Invalid username or password"}`,
		},
		{
			name:       "forbidden",
			err:        fmt.Errorf("note 4: %w", model.ErrForbidden),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"error":"You do not have permission to access this resource"}`,
		},
		{
			name:       "not found",
			err:        fmt.Errorf("note 4: %w", model.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Not found"}`,
		},
		{
			name:       "body too large",
			err:        fmt.Errorf("multipart: NextPart: %w", &http.MaxBytesError{Limit: 10}),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `{"error":"Request is too large"}`,
		},
		{
			name:       "storage failure hides details",
			err:        fmt.Errorf("%w: write file: %w", model.ErrStorage, errors.New("disk full at /var/data")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
			wantLogged: true,
		},
		{
			name:       "unknown error hides details",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
			wantLogged: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Equal(t, tt.wantLogged, len(c.Errors) > 0)
		})
	}
}

func TestHandleBindError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "malformed body", err: errors.New("invalid character"), wantStatus: http.StatusBadRequest},
		{name: "body too large", err: &http.MaxBytesError{Limit: 1}, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			handleBindError(c, tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestPathID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		param  string
		wantID int64
		wantOK bool
	}{
		{param: "42", wantID: 42, wantOK: true},
		{param: "0"},
		{param: "-3"},
		{param: "abc"},
		{param: "99999999999999999999"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.param, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: tt.param}}

			id, ok := pathID(c, "id")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			if !ok {
				assert.Equal(t, http.StatusNotFound, w.Code)
			}
		})
	}
}
