package googleai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"petguide-backend/internal/gateway"
)

const defaultTimeout = 90 * time.Second

// Client implements gateway.Client against Gemini via Genkit.
type Client struct {
	g           *genkit.Genkit
	visionModel string
	chatModel   string
	timeout     time.Duration
}

// New initializes Genkit with the Google AI plugin. Requires the
// GEMINI_API_KEY (or GOOGLE_API_KEY) environment variable at call time.
func New(ctx context.Context, visionModel, chatModel string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(visionModel) == "" || strings.TrimSpace(chatModel) == "" {
		return nil, errors.New("vision and chat model names are required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with googleai plugin")
	}

	return &Client{
		g:           g,
		visionModel: visionModel,
		chatModel:   chatModel,
		timeout:     timeout,
	}, nil
}

// DetectBreed identifies ranked breed predictions from a photo.
func (c *Client) DetectBreed(ctx context.Context, photoDataURI string) (gateway.BreedDetection, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userMessage := ai.NewUserMessage(
		mediaPart(photoDataURI),
		ai.NewTextPart(gateway.BreedPrompt),
	)

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.visionModel),
		ai.WithMessages(userMessage),
		ai.WithOutputType(gateway.BreedDetection{}),
	)
	if err != nil {
		return gateway.BreedDetection{}, fmt.Errorf("detect breed: %w", err)
	}

	var out gateway.BreedDetection
	if err := resp.Output(&out); err != nil {
		return gateway.BreedDetection{}, fmt.Errorf("detect breed output: %w", err)
	}
	if len(out.Predictions) == 0 {
		return gateway.BreedDetection{}, fmt.Errorf("detect breed: %w", gateway.ErrEmptyResponse)
	}
	return gateway.NormalizeBreedDetection(out), nil
}

// EstimateAge estimates an age range from a photo.
func (c *Client) EstimateAge(ctx context.Context, photoDataURI string) (gateway.AgeEstimate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userMessage := ai.NewUserMessage(
		mediaPart(photoDataURI),
		ai.NewTextPart(gateway.AgePrompt),
	)

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.visionModel),
		ai.WithMessages(userMessage),
		ai.WithOutputType(gateway.AgeEstimate{}),
	)
	if err != nil {
		return gateway.AgeEstimate{}, fmt.Errorf("estimate age: %w", err)
	}

	var out gateway.AgeEstimate
	if err := resp.Output(&out); err != nil {
		return gateway.AgeEstimate{}, fmt.Errorf("estimate age output: %w", err)
	}
	if strings.TrimSpace(out.AgeRange) == "" {
		return gateway.AgeEstimate{}, fmt.Errorf("estimate age: %w", gateway.ErrEmptyResponse)
	}
	return gateway.NormalizeAgeEstimate(out), nil
}

// AnalyzeBehavior classifies pet behavior from a video.
func (c *Client) AnalyzeBehavior(ctx context.Context, videoDataURI, description string) (gateway.BehaviorAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userMessage := ai.NewUserMessage(
		mediaPart(videoDataURI),
		ai.NewTextPart(gateway.BehaviorPromptPrefix+description),
	)

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.visionModel),
		ai.WithMessages(userMessage),
		ai.WithOutputType(gateway.BehaviorAnalysis{}),
	)
	if err != nil {
		return gateway.BehaviorAnalysis{}, fmt.Errorf("analyze behavior: %w", err)
	}

	var out gateway.BehaviorAnalysis
	if err := resp.Output(&out); err != nil {
		return gateway.BehaviorAnalysis{}, fmt.Errorf("analyze behavior output: %w", err)
	}
	if strings.TrimSpace(out.LikelyClassifications) == "" {
		return gateway.BehaviorAnalysis{}, fmt.Errorf("analyze behavior: %w", gateway.ErrEmptyResponse)
	}
	return gateway.NormalizeBehaviorAnalysis(out), nil
}

// PetBot answers one chat turn with the analysis snapshot as context.
func (c *Client) PetBot(ctx context.Context, req gateway.BotRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.chatModel),
		ai.WithSystem(gateway.PetBotSystem),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(gateway.BuildPetBotPrompt(req)))),
	)
	if err != nil {
		return "", fmt.Errorf("pet bot: %w", err)
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", fmt.Errorf("pet bot: %w", gateway.ErrEmptyResponse)
	}
	return answer, nil
}

func mediaPart(dataURI string) *ai.Part {
	return ai.NewMediaPart(gateway.MimeFromDataURI(dataURI), dataURI)
}
