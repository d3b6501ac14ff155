package cli

import (
	"github.com/ASH1998/AI-Task-Tracker/internal/core"
	"github.com/ASH1998/AI-Task-Tracker/internal/observability"
	"github.com/ASH1998/AI-Task-Tracker/internal/storage"
	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath   string
	Cfg        *models.Config
	Store      storage.ActivityStore
	Metrics    observability.ActivityMetrics
	Normalizer core.TopicNormalizer
	Tracker    *core.Tracker
	EventLog   observability.EventLog
)
