package core

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ASH1998/AI-Task-Tracker/internal/logging"
	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// normalizerCacheSize bounds the memoization cache; least-recently-used
// topics are evicted beyond it.
const normalizerCacheSize = 100

const normalizeSystemPrompt = "You are a topic normalizer assistant. Respond only with the normalized topic."

const normalizePromptTemplate = `You are a topic normalizer. Your task is to normalize the given topic to a consistent format.
For example:
- "working with vs code" and "coding on vs code" should both be normalized to "Visual Studio Code"
- "python programming" and "coding in python" should both be normalized to "Python Programming"

Return only the normalized topic as plain text, without any additional explanations or formatting.

Topic to normalize: %s`

// TextModel issues one text completion and returns the trimmed response.
type TextModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// TopicNormalizer maps free-text topic labels onto canonical ones. Identical
// inputs are served from an in-process cache; remote failures fall back to
// the original input rather than failing.
type TopicNormalizer interface {
	Normalize(ctx context.Context, topic string) string
}

type llmTopicNormalizer struct {
	model TextModel
	cache *lru.Cache[string, string]
}

// NewTopicNormalizer creates a TopicNormalizer backed by the given text
// model with an LRU cache of normalizerCacheSize distinct topics.
func NewTopicNormalizer(model TextModel) (TopicNormalizer, error) {
	cache, err := lru.New[string, string](normalizerCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating normalizer cache: %w", err)
	}
	return &llmTopicNormalizer{model: model, cache: cache}, nil
}

// Normalize returns the canonical form of topic. Blank input maps to the
// Unknown sentinel. On any model failure the input is returned unchanged
// and nothing is cached, so a later call can still succeed.
func (n *llmTopicNormalizer) Normalize(ctx context.Context, topic string) string {
	if strings.TrimSpace(topic) == "" {
		return models.TopicUnknown
	}

	if cached, ok := n.cache.Get(topic); ok {
		return cached
	}

	logger := logging.Component("normalizer")
	normalized, err := n.model.Complete(ctx, normalizeSystemPrompt, fmt.Sprintf(normalizePromptTemplate, topic))
	if err != nil || normalized == "" {
		logger.Error().Err(err).Str("topic", topic).Msg("normalization failed, keeping original")
		return topic
	}

	logger.Info().Str("topic", topic).Str("normalized", normalized).Msg("topic normalized")
	n.cache.Add(topic, normalized)
	return normalized
}
