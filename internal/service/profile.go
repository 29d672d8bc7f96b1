package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// Profile manages user descriptions and avatars.
type Profile struct {
	db        model.Database
	avatars   model.Storage
	logger    *logger.Logger
	now       func() time.Time
}

func NewProfile(db model.Database, avatars model.Storage, logger *logger.Logger) *Profile {
	return &Profile{
		db:        db,
		avatars:   avatars,
		logger:    logger,
		now:       now,
	}
}

func (s *Profile) Get(ctx context.Context, userID int64) (model.Profile, error) {
	user, err := s.db.Users().GetByID(ctx, userID)
	if err != nil {
		return model.Profile{}, userError(userID, err)
	}
	return model.ProfileOf(user), nil
}

// Update sets the description and, when avatar carries an allowed image, the
// avatar. An avatar with a disallowed extension is dropped silently. The
// avatar is stored as user_<id>.<ext>; a previous avatar under another name is
// removed once the new one is recorded. The user row stays locked while the
// files change, so concurrent updates cannot both keep their file.
func (s *Profile) Update(ctx context.Context, userID int64, description string, avatar *model.Upload) (model.Profile, error) {
	description = strings.TrimSpace(description)
	newName, ok := avatarFilename(userID, avatar)

	var updated model.User
	err := s.db.WithinTx(ctx, func(ctx context.Context, repos model.Repositories) error {
		user, err := repos.Users().GetForUpdate(ctx, userID)
		if err != nil {
			return userError(userID, err)
		}

		previous := user.Avatar
		avatarName := previous
		if ok {
			if _, err := s.avatars.Upload(ctx, newName, avatar.Content); err != nil {
				s.logger.Error("Profile service: failed to write avatar",
					"user_id", userID,
					"error", err.Error())
				return storageError("failed to write avatar", err)
			}
			avatarName = newName
		}

		updated, err = repos.Users().UpdateProfile(ctx, userID, description, avatarName, s.now())
		if err != nil {
			if ok && newName != previous {
				s.removeAvatar(ctx, newName)
			} else if ok {
				s.logger.Warn("Profile service: avatar overwritten but profile update failed",
					"user_id", userID,
					"avatar", newName)
			}
			return fmt.Errorf("failed to update profile: %w", err)
		}

		if ok && previous != "" && previous != newName {
			s.removeAvatar(ctx, previous)
		}
		return nil
	})
	if err != nil {
		return model.Profile{}, err
	}

	return model.ProfileOf(updated), nil
}

// Avatar opens the user's current avatar. The caller closes the reader.
func (s *Profile) Avatar(ctx context.Context, userID int64) (io.ReadCloser, string, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if profile.Avatar == "" {
		return nil, "", fmt.Errorf("user %d has no avatar: %w", userID, model.ErrNotFound)
	}

	exists, err := s.avatars.Exists(ctx, profile.Avatar)
	if err != nil {
		return nil, "", storageError("failed to check avatar", err)
	}
	if !exists {
		s.logger.Error("Profile service: avatar file missing",
			"user_id", userID,
			"avatar", profile.Avatar)
		return nil, "", fmt.Errorf("avatar %s: %w", profile.Avatar, model.ErrNotFound)
	}

	rc, err := s.avatars.Download(ctx, profile.Avatar)
	if err != nil {
		if errors.Is(err, model.ErrObjectNotFound) {
			return nil, "", fmt.Errorf("avatar %s: %w", profile.Avatar, model.ErrNotFound)
		}
		return nil, "", storageError("failed to open avatar", err)
	}
	return rc, profile.Avatar, nil
}

func (s *Profile) removeAvatar(ctx context.Context, name string) {
	err := s.avatars.Delete(context.WithoutCancel(ctx), name)
	if err != nil && !errors.Is(err, model.ErrObjectNotFound) {
		s.logger.Error("Profile service: failed to remove avatar file",
			"avatar", name,
			"error", err.Error())
	}
}

func userError(userID int64, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("user %d: %w", userID, model.ErrNotFound)
	}
	return fmt.Errorf("failed to get user: %w", err)
}

// avatarFilename returns the stored name for an acceptable avatar upload.
func avatarFilename(userID int64, avatar *model.Upload) (string, bool) {
	if avatar == nil || avatar.Content == nil {
		return "", false
	}
	name := cleanFilename(avatar.Filename)
	if name == "" {
		return "", false
	}
	ext, ok := allowedExtension(name, avatarExtensions)
	if !ok {
		return "", false
	}
	return "user_" + strconv.FormatInt(userID, 10) + "." + ext, true
}
