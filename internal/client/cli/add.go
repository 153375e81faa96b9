package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/filex"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
	"github.com/google/uuid"
)

// getMultiline is swapped in tests like getSimpleText.
var getMultiline = GetMultiline

var today = func() string { return time.Now().Format(time.DateOnly) }

// field is one prompt of an add-* command. Empty answers are left out of the
// row so the column takes its default (or NULL when nullable).
type field struct {
	column    string
	prompt    string
	multiline bool
	required  bool
	def       func() string
}

func (a *App) promptFields(fields []field) (map[string]any, error) {
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		var (
			v   string
			err error
		)
		if f.multiline {
			v, err = getMultiline(a.reader, f.prompt, a.out)
		} else {
			v, err = getSimpleText(a.reader, f.prompt, a.out)
		}
		if err != nil {
			return nil, err
		}
		if v == "" && f.def != nil {
			v = f.def()
		}
		if v == "" {
			if f.required {
				return nil, fmt.Errorf("%s is required", f.column)
			}
			continue
		}
		values[f.column] = v
	}
	return values, nil
}

func (a *App) insert(ctx context.Context, table string, fields []field) error {
	t, err := lookupTable(table)
	if err != nil {
		return err
	}

	values, err := a.promptFields(fields)
	if err != nil {
		return err
	}

	row, err := a.rows.Insert(ctx, t, values)
	if err != nil {
		if errors.Is(err, schema.ErrInvalidValue) {
			return fmt.Errorf("invalid input: %w", err)
		}
		return err
	}

	a.logger.Info(ctx, "row added", "table", t.Name, "id", row.ID())
	fmt.Fprintf(a.out, "Added %s %s\n", t.Name, row.ID())
	return nil
}

// AddLocation creates a location, a farm or field site.
func (a *App) AddLocation(ctx context.Context) error {
	return a.insert(ctx, schema.Locations, []field{
		{column: "name", prompt: "Location name", required: true},
		{column: "description", prompt: "Description"},
		{column: "environment_type", prompt: "Environment type (number)"},
		{column: "latitude", prompt: "Latitude (optional)"},
		{column: "longitude", prompt: "Longitude (optional)"},
	})
}

func (a *App) AddCrop(ctx context.Context) error {
	return a.insert(ctx, schema.Crops, []field{
		{column: "name", prompt: "Crop name", required: true},
		{column: "cultivation_name", prompt: "Cultivation name"},
		{column: "variety", prompt: "Variety"},
		{column: "plot_id", prompt: "Plot id (optional)"},
		{column: "parent_crop_id", prompt: "Parent crop id (optional)"},
		{column: "start_date", prompt: "Start date (YYYY-MM-DD, empty for today)", def: today},
		{column: "memo", prompt: "Memo", multiline: true},
	})
}

func (a *App) AddRecord(ctx context.Context) error {
	return a.insert(ctx, schema.Records, []field{
		{column: "crop_id", prompt: "Crop id (optional)"},
		{column: "location_id", prompt: "Location id (optional)"},
		{column: "plot_id", prompt: "Plot id (optional)"},
		{column: "activity_type", prompt: "Activity type (number)"},
		{column: "date", prompt: "Date (YYYY-MM-DD, empty for today)", def: today},
		{column: "note", prompt: "Note", multiline: true},
	})
}

// AddPhoto copies the image into the photos directory and attaches it to a
// record. The upload happens on the next sync.
func (a *App) AddPhoto(ctx context.Context, recordID, path string) error {
	records, _ := schema.Lookup(schema.Records)
	if _, err := a.rows.Row(ctx, records, recordID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("record %s not found", recordID)
		}
		return err
	}

	ok, err := filex.IsRegularFile(path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is not a file", path)
	}

	photos, _ := schema.Lookup(schema.RecordPhotos)
	existing, err := a.rows.List(ctx, photos)
	if err != nil {
		return err
	}
	order := 0
	for _, p := range existing {
		if p["record_id"] == recordID {
			order++
		}
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(path))
	dst, err := filex.CopyFile(path, a.photosDir, name)
	if err != nil {
		return err
	}

	row, err := a.rows.Insert(ctx, photos, map[string]any{
		"record_id":           recordID,
		schema.ColumnFilePath: name,
		"sort_order":          order,
	})
	if err != nil {
		return err
	}

	a.logger.Info(ctx, "photo added", "id", row.ID(), "record_id", recordID, "file", dst)
	fmt.Fprintf(a.out, "Added photo %s\n", row.ID())
	return nil
}
