package gateway

import (
	"context"
	"errors"
)

// MaxBreedPredictions caps the ranked predictions kept from a breed detection.
const MaxBreedPredictions = 5

// BreedPrediction is one ranked breed guess.
type BreedPrediction struct {
	Breed      string  `json:"breed"`
	Confidence float64 `json:"confidence"`
}

// BreedDetection is the structured output of the breed detection operation.
type BreedDetection struct {
	Predictions           []BreedPrediction `json:"predictions"`
	LifeSpan              string            `json:"lifeSpan"`
	CommonHealthIssues    string            `json:"commonHealthIssues"`
	BehaviorWithKids      string            `json:"behaviorWithKids"`
	BehaviorWithAdults    string            `json:"behaviorWithAdults"`
	BehaviorWithElderly   string            `json:"behaviorWithElderly"`
	BehaviorWithFamily    string            `json:"behaviorWithFamily"`
	BehaviorWithStrangers string            `json:"behaviorWithStrangers"`
}

// AgeEstimate is the structured output of the age estimation operation.
type AgeEstimate struct {
	AgeRange   string  `json:"ageRange"`
	Confidence float64 `json:"confidence"`
}

// BehaviorAnalysis is the structured output of the behavior analysis operation.
type BehaviorAnalysis struct {
	LikelyClassifications string  `json:"likelyClassifications"`
	ConfidenceLevel       float64 `json:"confidenceLevel"`
}

// BotRequest carries one chat turn to the assistant. Breed, Age and
// Behavior are included only when the corresponding analysis has run;
// History is the flattened transcript of prior turns.
type BotRequest struct {
	Question string
	Breed    string
	Age      string
	Behavior string
	History  string
}

// Client is the AI gateway contract: four independent request/response
// operations. Implementations must impose their own call timeout and
// treat expiry as an ordinary failure.
type Client interface {
	DetectBreed(ctx context.Context, photoDataURI string) (BreedDetection, error)
	EstimateAge(ctx context.Context, photoDataURI string) (AgeEstimate, error)
	AnalyzeBehavior(ctx context.Context, videoDataURI, description string) (BehaviorAnalysis, error)
	PetBot(ctx context.Context, req BotRequest) (string, error)
}

var (
	// ErrUnsupportedMedia indicates the configured provider cannot process
	// the given media kind.
	ErrUnsupportedMedia = errors.New("media kind not supported by provider")
	// ErrEmptyResponse indicates the provider returned no usable content.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// NormalizeBreedDetection clamps confidences and trims the prediction list
// to the supported maximum, preserving rank order.
func NormalizeBreedDetection(d BreedDetection) BreedDetection {
	if len(d.Predictions) > MaxBreedPredictions {
		d.Predictions = d.Predictions[:MaxBreedPredictions]
	}
	for i := range d.Predictions {
		d.Predictions[i].Confidence = clamp01(d.Predictions[i].Confidence)
	}
	return d
}

// NormalizeAgeEstimate clamps the confidence into [0,1].
func NormalizeAgeEstimate(a AgeEstimate) AgeEstimate {
	a.Confidence = clamp01(a.Confidence)
	return a
}

// NormalizeBehaviorAnalysis clamps the confidence into [0,1].
func NormalizeBehaviorAnalysis(b BehaviorAnalysis) BehaviorAnalysis {
	b.ConfidenceLevel = clamp01(b.ConfidenceLevel)
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
