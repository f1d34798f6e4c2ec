package services

import (
	"errors"

	"github.com/Dosada05/chatmatch/repositories"
	"github.com/Dosada05/chatmatch/utils"
)

// Notifier delivers a message to every subscriber of a room.
type Notifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

// handleRepositoryError translates storage sentinels into service errors and
// passes anything else through.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrRosterNotFound):
		return ErrRosterNotFound
	case errors.Is(err, repositories.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrRosterIDConflict):
		// Someone took the id between the existence check and the insert.
		return utils.ErrAllocationExhausted
	default:
		return err
	}
}

func validateRosterID(id string) error {
	if !utils.IsValidRosterID(id) {
		return ErrInvalidRosterID
	}
	return nil
}
