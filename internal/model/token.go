package model

import "github.com/google/uuid"

// TokenManager signs and verifies session tokens carried by clients.
type TokenManager interface {
	GenerateSessionToken(session Session) (string, error)
	ParseSessionToken(token string) (sessionID uuid.UUID, userID int64, err error)
}
