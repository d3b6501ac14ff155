// Package storage persists activity records as an append-only CSV file.
// The file is the tracker's only durable output and the dashboard's only
// input, so the load path is deliberately lenient: a damaged file yields an
// empty result rather than an error.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ASH1998/AI-Task-Tracker/internal/logging"
	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// timestampLayout is the format records are written with. parseTimestamp
// accepts a few more layouts so logs written by older builds still load.
const timestampLayout = "2006-01-02 15:04:05"

var loadLayouts = []string{
	timestampLayout,
	"2006-01-02 15:04:05.999999",
	time.RFC3339Nano,
	time.RFC3339,
}

// Columns is the CSV header of the activity log, in file order.
var Columns = []string{
	"Timestamp",
	"AppName",
	"CrispDescription",
	"MainTopic",
	"ShortDescription",
	"ScreenshotFile",
}

// ActivityStore defines the interface for appending and loading activity
// records. Append never rewrites existing rows; LoadAll returns records in
// file order, which is not necessarily time-sorted.
type ActivityStore interface {
	Append(record models.ActivityRecord) error
	LoadAll() ([]models.ActivityRecord, error)
	Path() string
}

type csvActivityStore struct {
	path string
}

// NewActivityStore creates an ActivityStore backed by the CSV file at path.
// The file and its directory are created lazily on first append.
func NewActivityStore(path string) ActivityStore {
	return &csvActivityStore{path: path}
}

// Path returns the location of the backing CSV file.
func (s *csvActivityStore) Path() string {
	return s.path
}

// Append adds one record to the log. The first append creates the file with
// a header row; subsequent appends add a single row.
func (s *csvActivityStore) Append(record models.ActivityRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	_, statErr := os.Stat(s.path)
	needHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := w.Write(recordToRow(record)); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing record: %w", err)
	}
	return nil
}

// LoadAll reads every record from the log. A missing or empty file yields an
// empty slice. A file that cannot be parsed is logged and also yields an
// empty slice; individual rows with unparseable timestamps are dropped.
func (s *csvActivityStore) LoadAll() ([]models.ActivityRecord, error) {
	logger := logging.Component("storage")

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ActivityRecord{}, nil
		}
		logger.Error().Err(err).Str("path", s.path).Msg("opening activity log")
		return []models.ActivityRecord{}, nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records := []models.ActivityRecord{}
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Error().Err(err).Str("path", s.path).Msg("parsing activity log")
			return []models.ActivityRecord{}, nil
		}
		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}
		rec, ok := rowToRecord(row)
		if !ok {
			logger.Warn().Strs("row", row).Msg("dropping unparseable row")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordToRow(rec models.ActivityRecord) []string {
	return []string{
		rec.Timestamp.Format(timestampLayout),
		rec.AppName,
		rec.CrispDescription,
		rec.MainTopic,
		rec.ShortDescription,
		rec.ScreenshotFile,
	}
}

func rowToRecord(row []string) (models.ActivityRecord, bool) {
	if len(row) < len(Columns) {
		return models.ActivityRecord{}, false
	}
	ts, err := parseTimestamp(row[0])
	if err != nil {
		return models.ActivityRecord{}, false
	}
	return models.ActivityRecord{
		Timestamp:        ts,
		AppName:          row[1],
		CrispDescription: row[2],
		MainTopic:        row[3],
		ShortDescription: row[4],
		ScreenshotFile:   row[5],
	}, true
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range loadLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(row[0], Columns[0])
}
