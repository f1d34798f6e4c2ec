package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/chatmatch/models"
)

const archivePrefix = "archive/rosters/"

// RosterArchiver keeps a snapshot of a roster and its rounds before the roster is deleted.
type RosterArchiver interface {
	ArchiveRoster(ctx context.Context, details *models.RosterDetails) (*UploadResult, error)
	// DiscardRoster removes the snapshot of a roster whose delete was abandoned.
	DiscardRoster(ctx context.Context, rosterID string) error
}

func ArchiveKey(rosterID string) string {
	return archivePrefix + rosterID + ".json"
}

type uploaderArchive struct {
	uploader FileUploader
}

// NewRosterArchive stores snapshots as JSON objects through uploader.
func NewRosterArchive(uploader FileUploader) RosterArchiver {
	return &uploaderArchive{uploader: uploader}
}

func (a *uploaderArchive) ArchiveRoster(ctx context.Context, details *models.RosterDetails) (*UploadResult, error) {
	if details == nil || details.Roster == nil {
		return nil, fmt.Errorf("archive: roster snapshot is empty")
	}
	body, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("archive: failed to encode roster %s: %w", details.Roster.ID, err)
	}
	return a.uploader.Upload(ctx, ArchiveKey(details.Roster.ID), "application/json", bytes.NewReader(body))
}

func (a *uploaderArchive) DiscardRoster(ctx context.Context, rosterID string) error {
	if err := a.uploader.Delete(ctx, ArchiveKey(rosterID)); err != nil {
		return fmt.Errorf("archive: failed to discard roster %s: %w", rosterID, err)
	}
	return nil
}
