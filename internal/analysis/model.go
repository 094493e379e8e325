package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"petguide-backend/internal/gateway"
	"petguide-backend/internal/media"
)

// Kind tags the two analysis result variants.
type Kind string

const (
	KindBreed    Kind = "breed"
	KindBehavior Kind = "behavior"
)

// BreedAndAgeResult merges the breed detection and age estimation outputs
// of one image analysis. Both halves come from the same pair of gateway
// calls; a record never mixes halves from different calls.
type BreedAndAgeResult struct {
	Predictions           []gateway.BreedPrediction `json:"predictions"`
	LifeSpan              string                    `json:"lifeSpan"`
	CommonHealthIssues    string                    `json:"commonHealthIssues"`
	BehaviorWithKids      string                    `json:"behaviorWithKids"`
	BehaviorWithAdults    string                    `json:"behaviorWithAdults"`
	BehaviorWithElderly   string                    `json:"behaviorWithElderly"`
	BehaviorWithFamily    string                    `json:"behaviorWithFamily"`
	BehaviorWithStrangers string                    `json:"behaviorWithStrangers"`
	AgeRange              string                    `json:"ageRange"`
	AgeConfidence         float64                   `json:"ageConfidence"`
}

// BehaviorResult is the outcome of one video analysis.
type BehaviorResult struct {
	LikelyClassifications string  `json:"likelyClassifications"`
	ConfidenceLevel       float64 `json:"confidenceLevel"`
}

// Result is a tagged union: exactly one of Breed or Behavior is set,
// according to Kind.
type Result struct {
	Kind     Kind
	Breed    *BreedAndAgeResult
	Behavior *BehaviorResult
}

// BreedResult wraps a merged image analysis outcome.
func BreedResult(data BreedAndAgeResult) Result {
	return Result{Kind: KindBreed, Breed: &data}
}

// BehaviorResultOf wraps a video analysis outcome.
func BehaviorResultOf(data BehaviorResult) Result {
	return Result{Kind: KindBehavior, Behavior: &data}
}

type resultEnvelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the union as {"kind":..., "data":...}.
func (r Result) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindBreed:
		if r.Breed == nil {
			return nil, fmt.Errorf("breed result missing data")
		}
		data, err := json.Marshal(r.Breed)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resultEnvelope{Kind: KindBreed, Data: data})
	case KindBehavior:
		if r.Behavior == nil {
			return nil, fmt.Errorf("behavior result missing data")
		}
		data, err := json.Marshal(r.Behavior)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resultEnvelope{Kind: KindBehavior, Data: data})
	default:
		return nil, fmt.Errorf("unknown result kind %q", r.Kind)
	}
}

// UnmarshalJSON decodes the {"kind":..., "data":...} envelope.
func (r *Result) UnmarshalJSON(raw []byte) error {
	var env resultEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	switch env.Kind {
	case KindBreed:
		var data BreedAndAgeResult
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		*r = Result{Kind: KindBreed, Breed: &data}
		return nil
	case KindBehavior:
		var data BehaviorResult
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return err
		}
		*r = Result{Kind: KindBehavior, Behavior: &data}
		return nil
	default:
		return fmt.Errorf("unknown result kind %q", env.Kind)
	}
}

// RecordInput is the descriptive part of an analysis input kept on the
// record. The encoded media itself is not stored.
type RecordInput struct {
	FileName  string     `json:"fileName"`
	MediaKind media.Kind `json:"mediaKind"`
}

// Record is one immutable, timestamped analysis outcome.
type Record struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Input     RecordInput `json:"input"`
	Result    Result      `json:"result"`
}
