package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"petguide-backend/internal/gateway"
)

const (
	defaultTimeout = 90 * time.Second
	maxTokens      = 2048
)

// Client implements gateway.Client using OpenAI Chat Completions.
// Photos are sent as image_url data URIs; the vision path has no video
// support, so AnalyzeBehavior reports ErrUnsupportedMedia.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient constructs an OpenAI-backed gateway client.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("model name is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{api: openai.NewClient(apiKey), model: model, timeout: timeout}, nil
}

// DetectBreed identifies ranked breed predictions from a photo.
func (c *Client) DetectBreed(ctx context.Context, photoDataURI string) (gateway.BreedDetection, error) {
	prompt := gateway.BreedPrompt + `

Respond with a JSON object with keys: predictions (array of {breed, confidence}),
lifeSpan, commonHealthIssues, behaviorWithKids, behaviorWithAdults,
behaviorWithElderly, behaviorWithFamily, behaviorWithStrangers.`

	raw, err := c.visionJSON(ctx, photoDataURI, prompt)
	if err != nil {
		return gateway.BreedDetection{}, fmt.Errorf("detect breed: %w", err)
	}

	var out gateway.BreedDetection
	if err := json.Unmarshal(raw, &out); err != nil {
		return gateway.BreedDetection{}, fmt.Errorf("detect breed parse: %w", err)
	}
	if len(out.Predictions) == 0 {
		return gateway.BreedDetection{}, fmt.Errorf("detect breed: %w", gateway.ErrEmptyResponse)
	}
	return gateway.NormalizeBreedDetection(out), nil
}

// EstimateAge estimates an age range from a photo.
func (c *Client) EstimateAge(ctx context.Context, photoDataURI string) (gateway.AgeEstimate, error) {
	prompt := gateway.AgePrompt + `

Respond with a JSON object with keys: ageRange (string), confidence (number 0-1).`

	raw, err := c.visionJSON(ctx, photoDataURI, prompt)
	if err != nil {
		return gateway.AgeEstimate{}, fmt.Errorf("estimate age: %w", err)
	}

	var out gateway.AgeEstimate
	if err := json.Unmarshal(raw, &out); err != nil {
		return gateway.AgeEstimate{}, fmt.Errorf("estimate age parse: %w", err)
	}
	if strings.TrimSpace(out.AgeRange) == "" {
		return gateway.AgeEstimate{}, fmt.Errorf("estimate age: %w", gateway.ErrEmptyResponse)
	}
	return gateway.NormalizeAgeEstimate(out), nil
}

// AnalyzeBehavior is not available on this provider.
func (c *Client) AnalyzeBehavior(ctx context.Context, videoDataURI, description string) (gateway.BehaviorAnalysis, error) {
	_ = ctx
	_ = videoDataURI
	_ = description
	return gateway.BehaviorAnalysis{}, fmt.Errorf("analyze behavior: %w", gateway.ErrUnsupportedMedia)
}

// PetBot answers one chat turn with the analysis snapshot as context.
func (c *Client) PetBot(ctx context.Context, req gateway.BotRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: gateway.PetBotSystem},
			{Role: openai.ChatMessageRoleUser, Content: gateway.BuildPetBotPrompt(req)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("pet bot: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("pet bot: %w", gateway.ErrEmptyResponse)
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("pet bot: %w", gateway.ErrEmptyResponse)
	}
	return answer, nil
}

func (c *Client) visionJSON(ctx context.Context, photoDataURI, prompt string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: photoDataURI},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, gateway.ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, gateway.ErrEmptyResponse
	}
	if !json.Valid([]byte(content)) {
		return nil, errors.New("invalid JSON from provider")
	}
	return json.RawMessage(content), nil
}
