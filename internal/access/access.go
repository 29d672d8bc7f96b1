// Package access decides whether a caller may touch a note or attachment.
//
// The checks are pure functions over already resolved rows, so callers must
// load the resource first (and report a missing one as not found) and only
// then ask for permission.
package access

import (
	"fmt"

	"github.com/dtroode/vibenotes-server/internal/model"
)

// Check allows the call only when callerID is the owner.
func Check(callerID, ownerID int64) error {
	if callerID <= 0 || callerID != ownerID {
		return model.ErrForbidden
	}
	return nil
}

// CheckNote allows access to note for its owner only.
func CheckNote(callerID int64, note model.Note) error {
	return Check(callerID, note.UserID)
}

// CheckAttachment allows access to attachment for the owner of its parent note.
// parent must be the note the attachment belongs to.
func CheckAttachment(callerID int64, attachment model.Attachment, parent model.Note) error {
	if attachment.NoteID != parent.ID {
		return fmt.Errorf("attachment %d does not belong to note %d", attachment.ID, parent.ID)
	}
	return CheckNote(callerID, parent)
}
