package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"petguide-backend/internal/gateway"
	"petguide-backend/internal/media"
	"petguide-backend/internal/shared/telemetry"
)

// DefaultVideoDescription is sent to the gateway when the client supplies
// no description alongside a video.
const DefaultVideoDescription = "Analyze the behavior of the pet in this video."

// Service orchestrates gateway calls per user-triggered analysis, merges
// their outputs and commits completed records to history. Every operation
// is all-or-nothing: either a fully populated record commits, or nothing.
type Service struct {
	Gateway gateway.Client
	History *History

	imageInFlight atomic.Int32
	videoInFlight atomic.Int32
}

// Status reports the per-kind in-progress indicators for UI binding.
type Status struct {
	ImageInProgress bool `json:"imageInProgress"`
	VideoInProgress bool `json:"videoInProgress"`
}

// Status returns the current in-flight state. Overlapping analyses of the
// same kind are all counted; the flag drops only when the last finishes.
func (s *Service) Status() Status {
	return Status{
		ImageInProgress: s.imageInFlight.Load() > 0,
		VideoInProgress: s.videoInFlight.Load() > 0,
	}
}

// RunImageAnalysis issues the breed detection and age estimation calls
// concurrently and joins them. Either failure fails the pair; no record
// is committed and no partial result is returned. On success exactly one
// breed record is appended and returned.
func (s *Service) RunImageAnalysis(ctx context.Context, userID string, in media.Input) (Record, error) {
	if in.Kind != media.KindImage {
		return Record{}, fmt.Errorf("%w: image analysis needs an image", ErrWrongMediaKind)
	}

	s.imageInFlight.Add(1)
	defer s.imageInFlight.Add(-1)

	var (
		wg       sync.WaitGroup
		breed    gateway.BreedDetection
		breedErr error
		age      gateway.AgeEstimate
		ageErr   error
	)

	// Fan-out of exactly two independent reads of the same image. The
	// calls are joined together; a failing branch does not cancel its
	// sibling, the pair's outcome is simply discarded.
	wg.Add(2)
	go func() {
		defer wg.Done()
		breed, breedErr = s.Gateway.DetectBreed(ctx, in.DataURI)
	}()
	go func() {
		defer wg.Done()
		age, ageErr = s.Gateway.EstimateAge(ctx, in.DataURI)
	}()
	wg.Wait()

	if err := errors.Join(breedErr, ageErr); err != nil {
		telemetry.Error("analysis.image.failed", map[string]any{
			"user_id":   userID,
			"file_name": in.FileName,
			"error":     err.Error(),
		})
		return Record{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	merged := BreedAndAgeResult{
		Predictions:           breed.Predictions,
		LifeSpan:              breed.LifeSpan,
		CommonHealthIssues:    breed.CommonHealthIssues,
		BehaviorWithKids:      breed.BehaviorWithKids,
		BehaviorWithAdults:    breed.BehaviorWithAdults,
		BehaviorWithElderly:   breed.BehaviorWithElderly,
		BehaviorWithFamily:    breed.BehaviorWithFamily,
		BehaviorWithStrangers: breed.BehaviorWithStrangers,
		AgeRange:              age.AgeRange,
		AgeConfidence:         age.Confidence,
	}

	record, err := s.History.Append(ctx, userID, RecordInput{FileName: in.FileName, MediaKind: in.Kind}, BreedResult(merged))
	if err != nil {
		return Record{}, err
	}

	telemetry.Info("analysis.image.complete", map[string]any{
		"user_id":     userID,
		"record_id":   record.ID,
		"file_name":   in.FileName,
		"predictions": len(merged.Predictions),
	})
	return record, nil
}

// RunVideoAnalysis issues the single behavior analysis call. Same
// all-or-nothing contract as image analysis.
func (s *Service) RunVideoAnalysis(ctx context.Context, userID string, in media.Input, description string) (Record, error) {
	if in.Kind != media.KindVideo {
		return Record{}, fmt.Errorf("%w: video analysis needs a video", ErrWrongMediaKind)
	}
	if strings.TrimSpace(description) == "" {
		description = DefaultVideoDescription
	}

	s.videoInFlight.Add(1)
	defer s.videoInFlight.Add(-1)

	behavior, err := s.Gateway.AnalyzeBehavior(ctx, in.DataURI, description)
	if err != nil {
		telemetry.Error("analysis.video.failed", map[string]any{
			"user_id":   userID,
			"file_name": in.FileName,
			"error":     err.Error(),
		})
		if errors.Is(err, gateway.ErrUnsupportedMedia) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	result := BehaviorResult{
		LikelyClassifications: behavior.LikelyClassifications,
		ConfidenceLevel:       behavior.ConfidenceLevel,
	}

	record, err := s.History.Append(ctx, userID, RecordInput{FileName: in.FileName, MediaKind: in.Kind}, BehaviorResultOf(result))
	if err != nil {
		return Record{}, err
	}

	telemetry.Info("analysis.video.complete", map[string]any{
		"user_id":   userID,
		"record_id": record.ID,
		"file_name": in.FileName,
	})
	return record, nil
}
