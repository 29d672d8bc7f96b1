package service

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/dtroode/vibenotes-server/internal/model"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 80
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

var (
	avatarExtensions = extensionSet("png", "jpg", "jpeg", "gif")

	attachmentExtensions = extensionSet(
		"pdf", "doc", "docx", "txt", "xls", "xlsx", "ppt", "pptx",
		"png", "jpg", "jpeg", "gif", "bmp", "svg",
		"zip", "rar", "7z",
		"mp3", "wav", "mp4", "avi", "mov",
		"csv", "json", "xml",
	)
)

func extensionSet(exts ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[ext] = struct{}{}
	}
	return set
}

// validateTitle trims title and checks its length in characters.
func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", model.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > model.MaxTitleLength {
		return "", model.NewValidationError("Title must be at most 200 characters long")
	}
	return title, nil
}

func validateRegistration(username, password, confirmPassword string) error {
	if username == "" || password == "" {
		return model.NewValidationError("Username and password are required")
	}
	if utf8.RuneCountInString(username) < minUsernameLength {
		return model.NewValidationError("Username must be at least 3 characters long")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return model.NewValidationError("Username must be at most 80 characters long")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return model.NewValidationError("Password must be at least 6 characters long")
	}
	if len(password) > maxPasswordBytes {
		return model.NewValidationError("Password must be at most 72 bytes long")
	}
	if password != confirmPassword {
		return model.NewValidationError("Passwords do not match")
	}
	return nil
}

// cleanFilename strips any client-supplied directory components.
func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// allowedExtension returns the lower-cased extension of filename when it is
// in the allow-list. A filename without a dot has no extension.
func allowedExtension(filename string, allowed map[string]struct{}) (string, bool) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return "", false
	}
	ext := strings.ToLower(filename[i+1:])
	if _, ok := allowed[ext]; !ok {
		return "", false
	}
	return ext, true
}
