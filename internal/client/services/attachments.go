package services

import (
	"context"

	"github.com/dmitrijs2005/growkeeper/internal/filex"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

// SyncAttachments uploads every photo that has no remote_key yet, one at a
// time. A missing file or a failed upload skips that photo only. Local store
// failures and cancellation abort the batch.
func (s *SyncService) SyncAttachments(ctx context.Context) (int, error) {
	pending, err := s.rows.PendingAttachments(ctx)
	if err != nil {
		return 0, err
	}
	photos, _ := schema.Lookup(schema.RecordPhotos)

	uploaded := 0
	for _, row := range pending {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}

		stored, _ := row[schema.ColumnFilePath].(string)
		path := filex.ResolvePath(s.photosDir, stored)
		ok, err := filex.IsRegularFile(path)
		if err != nil || !ok {
			s.logger.Warn(ctx, "photo file missing, skipping", "id", row.ID(), "path", path, "error", err)
			continue
		}

		key, err := s.client.UploadPhoto(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return uploaded, ctx.Err()
			}
			s.logger.Warn(ctx, "photo upload failed, skipping", "id", row.ID(), "path", path, "error", err)
			continue
		}

		updated := row.Clone()
		updated[schema.ColumnRemoteKey] = key
		updated[schema.ColumnUpdatedAt] = timex.FormatTimestamp(s.now())
		if err := s.rows.UpsertRow(ctx, photos, updated); err != nil {
			return uploaded, err
		}
		uploaded++
		s.logger.Debug(ctx, "photo uploaded", "id", row.ID(), "key", key)
	}

	if len(pending) > 0 {
		s.logger.Info(ctx, "attachments synced", "pending", len(pending), "uploaded", uploaded)
	}
	return uploaded, nil
}
