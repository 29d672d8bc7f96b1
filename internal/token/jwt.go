package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/vibenotes-server/internal/model"
)

const typeSession = "session"

// Claims represents session token claims. The registered ID holds the session ID
// and the subject holds the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	TokenType string `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
}

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string) *JWT {
	return &JWT{secretKey: secretKey}
}

// GenerateSessionToken signs a token referencing the given server-side session.
// Expiry is enforced by the session store, so the token carries none.
func (j *JWT) GenerateSessionToken(session model.Session) (string, error) {
	issuedAt := session.CreatedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       session.ID.String(),
			Subject:  strconv.FormatInt(session.UserID, 10),
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
		Username:  session.Username,
		TokenType: typeSession,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ParseSessionToken validates the signature and extracts the session and user IDs.
func (j *JWT) ParseSessionToken(tokenString string) (uuid.UUID, int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, 0, fmt.Errorf("session token is invalid")
	}
	if claims.TokenType != typeSession {
		return uuid.Nil, 0, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}

	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("malformed session id: %w", err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return uuid.Nil, 0, fmt.Errorf("malformed subject %q", claims.Subject)
	}

	return sessionID, userID, nil
}
