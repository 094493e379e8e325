package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"petguide-backend/internal/analysis"
	"petguide-backend/internal/gateway"
	"petguide-backend/internal/shared/telemetry"
)

var (
	// ErrEmptyQuestion marks a blank question; the transcript is untouched.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrBusy marks a second Ask while one is in flight for the same user.
	// The call is rejected, not queued.
	ErrBusy = errors.New("a chat call is already in flight")
	// ErrGateway wraps assistant call failures.
	ErrGateway = errors.New("gateway failure")
)

// Service builds the context for each chat turn and maintains per-user
// transcripts. The assistant has no server-side memory: every call replays
// the flattened transcript and the latest analysis snapshot.
type Service struct {
	Gateway gateway.Client
	History *analysis.History

	mu     sync.Mutex
	byUser map[string]*transcript
}

type transcript struct {
	turns []Turn
	busy  bool
}

// NewService constructs a chat Service.
func NewService(gw gateway.Client, history *analysis.History) *Service {
	return &Service{
		Gateway: gw,
		History: history,
		byUser:  make(map[string]*transcript),
	}
}

// Ask runs one chat turn. On success exactly two turns (user, then
// assistant) are committed together; on failure the transcript is left
// exactly as it was. The staged question is never visible to readers.
func (s *Service) Ask(ctx context.Context, userID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	prior, err := s.begin(userID)
	if err != nil {
		return "", err
	}
	defer s.end(userID)

	req := gateway.BotRequest{
		Question: question,
		History:  Flatten(prior),
	}
	if breed, ok := s.History.LatestBreed(ctx, userID); ok {
		if len(breed.Predictions) > 0 {
			req.Breed = breed.Predictions[0].Breed
		}
		req.Age = breed.AgeRange
	}
	if behavior, ok := s.History.LatestBehavior(ctx, userID); ok {
		req.Behavior = behavior.LikelyClassifications
	}

	answer, err := s.Gateway.PetBot(ctx, req)
	if err != nil {
		telemetry.Error("chat.ask.failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	s.commit(userID, question, answer)
	telemetry.Info("chat.ask.complete", map[string]any{
		"user_id": userID,
		"turns":   len(prior) + 2,
	})
	return answer, nil
}

// Transcript returns a snapshot of the committed turns in original order.
func (s *Service) Transcript(userID string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.byUser[userID]
	if t == nil {
		return []Turn{}
	}
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Reset clears the user's transcript, the server-side analog of the chat
// view unmounting. An in-flight call keeps its busy marker.
func (s *Service) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.byUser[userID]
	if t == nil {
		return
	}
	t.turns = nil
}

// Flatten renders turns as "<role>: <text>" lines in original order. The
// assistant receives this string as its only conversational memory.
func Flatten(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, string(turn.Role)+": "+turn.Text)
	}
	return strings.Join(lines, "\n")
}

// begin marks the user's chat as busy and returns the committed turns the
// outgoing call should replay. At most one call is in flight per user.
func (s *Service) begin(userID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.byUser[userID]
	if t == nil {
		t = &transcript{}
		s.byUser[userID] = t
	}
	if t.busy {
		return nil, ErrBusy
	}
	t.busy = true

	prior := make([]Turn, len(t.turns))
	copy(prior, t.turns)
	return prior, nil
}

func (s *Service) end(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.byUser[userID]; t != nil {
		t.busy = false
	}
}

// commit appends the user and assistant turns as one unit.
func (s *Service) commit(userID, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.byUser[userID]
	if t == nil {
		t = &transcript{}
		s.byUser[userID] = t
	}
	t.turns = append(t.turns,
		Turn{Role: RoleUser, Text: question},
		Turn{Role: RoleAssistant, Text: answer},
	)
}
