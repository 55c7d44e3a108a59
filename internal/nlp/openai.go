package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const systemPrompt = `You extract named entities from short to-do items.
Return every span that names an organization (ORG), facility (FAC), city/state/country (GPE),
other location (LOC) or product (PRODUCT), plus people (PERSON) and dates (DATE).
Copy each span exactly as written. Return an empty list when there are none.`

type entityResponse struct {
	Entities []Entity `json:"entities"`
}

var entitySchema = generateSchema[entityResponse]()

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// OpenAIExtractor asks a chat model for entities using a strict JSON schema.
type OpenAIExtractor struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIExtractor(apiKey, model, baseURL string, timeout time.Duration, logger *slog.Logger) *OpenAIExtractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIExtractor{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

func (e *OpenAIExtractor) Entities(ctx context.Context, text string) ([]Entity, error) {
	start := time.Now()
	chat, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "entities",
					Description: openai.String("Named entities found in a to-do item"),
					Schema:      entitySchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extracting entities: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("extracting entities: empty response")
	}

	var parsed entityResponse
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parsing entities: %w", err)
	}

	e.logger.Debug("entities extracted", "model", e.model, "count", len(parsed.Entities), "elapsed", time.Since(start))
	return parsed.Entities, nil
}
