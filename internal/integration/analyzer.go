package integration

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ASH1998/AI-Task-Tracker/internal/logging"
	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// visionPrompt is the fixed instruction sent with every screenshot.
const visionPrompt = `based on this image of screenshot
give me three things:
1. crisp description about what the user is doing
2. Main topic (no more than 5 words)
3. short description
give this as json with keys "crisp_description", "main_topic", "short_description"`

// ScreenshotAnalyzer sends a screenshot to a vision model and returns the
// structured classification. Errors come in two flavors: a
// *models.AnalysisError for structurally unusable responses, and a plain
// error for transport or API failures. It never retries; that is the
// tracking loop's job.
type ScreenshotAnalyzer interface {
	Analyze(ctx context.Context, imagePath string) (*models.Classification, error)
}

// chatCompleter is the slice of the OpenAI client the analyzer needs.
// *openai.Client satisfies it.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type openAIAnalyzer struct {
	client chatCompleter
	model  string
}

// NewScreenshotAnalyzer creates a ScreenshotAnalyzer using the configured
// provider. For Azure the deployment name doubles as the model identifier.
func NewScreenshotAnalyzer(cfg models.ProviderConfig) (ScreenshotAnalyzer, error) {
	client, model, err := newChatClient(cfg, cfg.VisionModel)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}
	return &openAIAnalyzer{client: client, model: model}, nil
}

// Analyze encodes the image, issues one chat completion request, and parses
// the response.
func (a *openAIAnalyzer) Analyze(ctx context.Context, imagePath string) (*models.Classification, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("reading screenshot %s: %w", imagePath, err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	logger := logging.Component("analyzer")
	logger.Debug().Str("image", imagePath).Msg("sending classification request")

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: 300,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: visionPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/png;base64," + encoded,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calling vision model: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vision model returned no choices")
	}

	return parseAnalysisContent(resp.Choices[0].Message.Content)
}

// parseAnalysisContent strips optional code fences, parses the JSON body,
// and validates the three required keys.
func parseAnalysisContent(content string) (*models.Classification, error) {
	cleaned := stripCodeFences(content)

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, &models.AnalysisError{Kind: models.AnalysisMalformedJSON, RawContent: content}
	}

	values := make(map[string]string, 3)
	for _, key := range []string{"crisp_description", "main_topic", "short_description"} {
		v, ok := fields[key]
		if !ok {
			return nil, &models.AnalysisError{Kind: models.AnalysisInvalidStructure, RawContent: content}
		}
		if s, ok := v.(string); ok {
			values[key] = s
		} else {
			values[key] = fmt.Sprintf("%v", v)
		}
	}
	return &models.Classification{
		CrispDescription: values["crisp_description"],
		MainTopic:        values["main_topic"],
		ShortDescription: values["short_description"],
	}, nil
}

// stripCodeFences removes a surrounding ```json or ``` fence, if present.
func stripCodeFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// newChatClient builds an OpenAI-compatible client for the configured
// provider and resolves the model identifier to request with.
func newChatClient(cfg models.ProviderConfig, model string) (*openai.Client, string, error) {
	switch cfg.Provider {
	case models.ProviderAzure:
		if cfg.AzureEndpoint == "" || cfg.AzureAPIKey == "" || cfg.AzureDeployment == "" {
			return nil, "", fmt.Errorf("azure endpoint, api key, and deployment name are required")
		}
		clientCfg := openai.DefaultAzureConfig(cfg.AzureAPIKey, cfg.AzureEndpoint)
		if cfg.AzureAPIVersion != "" {
			clientCfg.APIVersion = cfg.AzureAPIVersion
		}
		return openai.NewClientWithConfig(clientCfg), cfg.AzureDeployment, nil
	case models.ProviderOpenAI, "":
		if cfg.OpenAIAPIKey == "" {
			return nil, "", fmt.Errorf("openai api key is required")
		}
		return openai.NewClient(cfg.OpenAIAPIKey), model, nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
