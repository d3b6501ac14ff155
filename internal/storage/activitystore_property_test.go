package storage

import (
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// For any sequence of records appended to a fresh store, LoadAll returns the
// same records in the same order with every field intact.
func TestActivityStore_AppendLoadRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := NewActivityStore(filepath.Join(t.TempDir(), "activity_log.csv"))

		text := rapid.StringMatching(`[ -~]{0,40}`)
		base := time.Date(2025, 1, 15, 8, 0, 0, 0, time.Local)

		n := rapid.IntRange(0, 25).Draw(rt, "n")
		written := make([]models.ActivityRecord, 0, n)
		for i := 0; i < n; i++ {
			rec := models.ActivityRecord{
				Timestamp:        base.Add(time.Duration(i) * time.Minute),
				AppName:          text.Draw(rt, "app"),
				CrispDescription: text.Draw(rt, "crisp"),
				MainTopic:        text.Draw(rt, "topic"),
				ShortDescription: text.Draw(rt, "short"),
			}
			if rapid.Bool().Draw(rt, "hasShot") {
				rec.ScreenshotFile = "screenshot_20250115_080000.png"
			}
			if err := store.Append(rec); err != nil {
				rt.Fatalf("append %d: %v", i, err)
			}
			written = append(written, rec)
		}

		loaded, err := store.LoadAll()
		if err != nil {
			rt.Fatalf("loading: %v", err)
		}
		if len(loaded) != len(written) {
			rt.Fatalf("loaded %d records, want %d", len(loaded), len(written))
		}
		for i := range written {
			w, l := written[i], loaded[i]
			if !l.Timestamp.Equal(w.Timestamp) {
				rt.Errorf("record %d: Timestamp = %v, want %v", i, l.Timestamp, w.Timestamp)
			}
			if l.AppName != w.AppName || l.CrispDescription != w.CrispDescription ||
				l.MainTopic != w.MainTopic || l.ShortDescription != w.ShortDescription ||
				l.ScreenshotFile != w.ScreenshotFile {
				rt.Errorf("record %d: got %+v, want %+v", i, l, w)
			}
		}
	})
}
