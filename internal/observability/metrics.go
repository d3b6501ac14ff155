package observability

import (
	"sort"
	"time"

	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// DefaultMaxContinuousGap is the largest delta between two consecutive
// records of the same topic still counted as continuous engagement. Longer
// gaps are treated as idle time and contribute nothing.
const DefaultMaxContinuousGap = 10 * time.Minute

// TopicSummary aggregates one topic's presence in the activity log.
type TopicSummary struct {
	Topic   string
	Count   int
	Minutes float64
}

// Stats summarizes an activity log snapshot.
type Stats struct {
	TotalRecords   int
	FailureRecords int
	DistinctTopics int
	FirstRecord    time.Time
	LastRecord     time.Time
}

// ActivityMetrics derives aggregates from loaded activity records.
type ActivityMetrics interface {
	TopicSummaries(records []models.ActivityRecord) []TopicSummary
	Stats(records []models.ActivityRecord) Stats
}

type activityMetrics struct {
	maxGap time.Duration
}

// NewActivityMetrics creates an ActivityMetrics with the given continuity
// cap. A non-positive maxGap falls back to DefaultMaxContinuousGap.
func NewActivityMetrics(maxGap time.Duration) ActivityMetrics {
	if maxGap <= 0 {
		maxGap = DefaultMaxContinuousGap
	}
	return &activityMetrics{maxGap: maxGap}
}

// TopicSummaries returns per-topic record counts and approximate minutes,
// sorted by minutes descending then topic name. Time per topic is the sum of
// deltas between consecutive same-topic records, counting a delta only when
// it does not exceed the continuity cap. Failure records are excluded.
func (m *activityMetrics) TopicSummaries(records []models.ActivityRecord) []TopicSummary {
	type acc struct {
		count   int
		minutes float64
		last    time.Time
	}

	sorted := make([]models.ActivityRecord, 0, len(records))
	for _, r := range records {
		if r.IsFailure() {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	topics := make(map[string]*acc)
	for _, r := range sorted {
		a, ok := topics[r.MainTopic]
		if !ok {
			a = &acc{}
			topics[r.MainTopic] = a
		}
		if a.count > 0 {
			delta := r.Timestamp.Sub(a.last)
			if delta > 0 && delta <= m.maxGap {
				a.minutes += delta.Minutes()
			}
		}
		a.count++
		a.last = r.Timestamp
	}

	summaries := make([]TopicSummary, 0, len(topics))
	for topic, a := range topics {
		summaries = append(summaries, TopicSummary{Topic: topic, Count: a.count, Minutes: a.minutes})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Minutes != summaries[j].Minutes {
			return summaries[i].Minutes > summaries[j].Minutes
		}
		return summaries[i].Topic < summaries[j].Topic
	})
	return summaries
}

// Stats returns overall counts and the covered time range.
func (m *activityMetrics) Stats(records []models.ActivityRecord) Stats {
	s := Stats{TotalRecords: len(records)}
	topics := make(map[string]struct{})
	for _, r := range records {
		if r.IsFailure() {
			s.FailureRecords++
		} else if r.MainTopic != "" {
			topics[r.MainTopic] = struct{}{}
		}
		if s.FirstRecord.IsZero() || r.Timestamp.Before(s.FirstRecord) {
			s.FirstRecord = r.Timestamp
		}
		if r.Timestamp.After(s.LastRecord) {
			s.LastRecord = r.Timestamp
		}
	}
	s.DistinctTopics = len(topics)
	return s
}
