package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"sonicsignal/internal/models"
)

// ErrBadShape marks an input that is not a well-formed event batch.
var ErrBadShape = errors.New("input is not a valid event batch")

// ParseBatch decodes a raw_events.json-shaped document: either
// {"sample_data": [...], "metadata": {...}} or a bare JSON array of event
// objects. Shape problems are fatal and descriptive; no partial batch is
// returned. Missing artist/venue/date fields on individual records are not
// errors here; the dedup engine degrades per record.
func ParseBatch(r io.Reader) (*models.Batch, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	var batch models.Batch
	if err := json.Unmarshal(raw, &batch); err == nil && batch.Events != nil {
		return &batch, nil
	}

	var events []models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf(`%w: expected an object with a "sample_data" array or a JSON array of {source, artist, venue, date} objects`, ErrBadShape)
	}

	return &models.Batch{
		Events:   events,
		Metadata: models.Metadata{NumEvents: len(events)},
	}, nil
}
