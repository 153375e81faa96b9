package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/growkeeper/internal/client/client"
	"github.com/dmitrijs2005/growkeeper/internal/client/services"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

// Sync runs one sync pass through the trigger and prints its outcome.
func (a *App) Sync(ctx context.Context) error {
	res, err := a.trigger.Run(ctx)
	if err != nil {
		if errors.Is(err, services.ErrSyncInProgress) {
			fmt.Fprintln(a.out, "Sync already in progress")
			return nil
		}
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		a.logger.Error(ctx, "sync failed", "error", err)
		return err
	}

	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Pulled %d, pushed %d, photos uploaded %d\n", res.Pulled, res.Pushed, res.PhotosUploaded)
	return nil
}

// Resync forgets the watermark and runs a sync. Rows missing locally are
// pulled again and every local row and tombstone is pushed.
func (a *App) Resync(ctx context.Context) error {
	if err := a.session.ResetWatermark(ctx); err != nil {
		return fmt.Errorf("reset watermark: %w", err)
	}
	a.logger.Info(ctx, "watermark reset for full resync")
	return a.Sync(ctx)
}

// Status prints the watermark and what the next sync would send.
func (a *App) Status(ctx context.Context) error {
	wm := a.session.Watermark()

	pending := 0
	for _, t := range schema.Tables() {
		rs, err := a.rows.RowsModifiedSince(ctx, t, wm)
		if err != nil {
			return err
		}
		pending += len(rs)
	}
	deleted, err := a.rows.DeletedSince(ctx, wm)
	if err != nil {
		return err
	}
	photos, err := a.rows.PendingAttachments(ctx)
	if err != nil {
		return err
	}

	user := a.session.UserName()
	if user == "" {
		user = "-"
	}
	last := "never"
	if !wm.IsZero() && !wm.Equal(timex.Epoch) {
		last = timex.FormatTimestamp(wm)
	}

	fmt.Fprintf(a.out, "User:              %s\n", user)
	fmt.Fprintf(a.out, "Mode:              %s\n", a.Mode())
	fmt.Fprintf(a.out, "Last sync:         %s\n", last)
	fmt.Fprintf(a.out, "Pending rows:      %d\n", pending)
	fmt.Fprintf(a.out, "Pending deletions: %d\n", len(deleted))
	fmt.Fprintf(a.out, "Pending photos:    %d\n", len(photos))
	return nil
}
