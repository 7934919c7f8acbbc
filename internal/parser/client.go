package parser

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/seravkin/notify-go/internal/reminder"
)

const (
	defaultModel       = "gpt-3.5-turbo"
	defaultTemperature = 0.1
)

// Client converts natural-language reminder requests into structured
// notifications through the OpenAI chat completions API.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
	codec       *reminder.Codec
	loc         *time.Location
}

// Config configures the parser client. BaseURL is used by tests to point at
// a fake completions server. A nil Temperature means the default; zero is a
// valid explicit setting.
type Config struct {
	APIKey      string
	Model       string
	Temperature *float64
	BaseURL     string
	Location    *time.Location
}

// NewClient creates a new parser client.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	temperature := defaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: temperature,
		codec:       reminder.NewCodec(cfg.Location),
		loc:         cfg.Location,
	}
}

// Parse asks the model to convert the query into a notification anchored at
// the given current time.
func (c *Client) Parse(ctx context.Context, now time.Time, text string) (*reminder.Notification, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Temperature: openai.Float(c.temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(BuildUserPrompt(now, c.loc, text)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no completion given")
	}

	content := completion.Choices[0].Message.Content
	log.Printf("completion: %q", content)

	return c.parseCompletion(content)
}

// parseCompletion extracts the notification JSON from the completion text.
func (c *Client) parseCompletion(content string) (*reminder.Notification, error) {
	jsonStr := extractJSON(content)

	notification, err := c.codec.Decode([]byte(jsonStr))
	if err == nil {
		return notification, nil
	}

	// The model occasionally emits slightly broken JSON (trailing commas,
	// single quotes); repair before giving up.
	repaired, repairErr := repairJSON(jsonStr)
	if repairErr != nil {
		return nil, fmt.Errorf("failed to parse completion: %w (response: %s)", err, content)
	}

	notification, err = c.codec.Decode([]byte(repaired))
	if err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w (response: %s)", err, content)
	}
	return notification, nil
}
