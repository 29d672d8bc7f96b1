package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// Auth registers users and verifies their credentials.
type Auth struct {
	userStore model.UserStore
	cost      int
	logger    *logger.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuth(userStore model.UserStore, bcryptCost int, logger *logger.Logger) *Auth {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Auth{
		userStore: userStore,
		cost:      bcryptCost,
		logger:    logger,
		now:       now,
	}
}

// Register creates a user and returns its identity. The username is trimmed
// and must not be taken.
func (a *Auth) Register(ctx context.Context, username, password, confirmPassword string) (model.Identity, error) {
	username = strings.TrimSpace(username)

	if err := validateRegistration(username, password, confirmPassword); err != nil {
		return model.Identity{}, err
	}

	a.logger.Debug("Auth service: registering user",
		"username", username)

	_, err := a.userStore.GetByUsername(ctx, username)
	if err == nil {
		a.logger.Info("Auth service: username already taken",
			"username", username)
		return model.Identity{}, model.NewConflictError("Username already exists")
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to look up user",
			"username", username,
			"error", err.Error())
		return model.Identity{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}

	createdAt := a.now()
	user, err := a.userStore.Create(ctx, model.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return model.Identity{}, model.NewConflictError("Username already exists")
		}
		a.logger.Error("Auth service: failed to create user",
			"username", username,
			"error", err.Error())
		return model.Identity{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registered",
		"user_id", user.ID,
		"username", user.Username)

	return model.Identity{UserID: user.ID, Username: user.Username}, nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords fail with the same ErrAuth.
func (a *Auth) Authenticate(ctx context.Context, username, password string) (model.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.Identity{}, model.NewValidationError("Username and password are required")
	}

	user, err := a.userStore.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// Spend the same bcrypt time as for an existing user.
			_ = bcrypt.CompareHashAndPassword(a.dummy(), []byte(password))
			a.logger.Info("Auth service: login for unknown user",
				"username", username)
			return model.Identity{}, model.ErrAuth
		}
		a.logger.Error("Auth service: failed to look up user",
			"username", username,
			"error", err.Error())
		return model.Identity{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		a.logger.Info("Auth service: wrong password",
			"user_id", user.ID)
		return model.Identity{}, model.ErrAuth
	}

	return model.Identity{UserID: user.ID, Username: user.Username}, nil
}

func (a *Auth) dummy() []byte {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("vibenotes-dummy-password"), a.cost)
	})
	return a.dummyHash
}
