package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"petguide-backend/internal/analysis"
	"petguide-backend/internal/gateway"
	"petguide-backend/internal/media"
)

// stubBot answers chat calls and records the last request. An optional
// release channel lets tests hold a call in flight.
type stubBot struct {
	mu      sync.Mutex
	answer  string
	err     error
	lastReq gateway.BotRequest
	calls   int
	started chan struct{}
	release chan struct{}
}

func (s *stubBot) DetectBreed(ctx context.Context, photoDataURI string) (gateway.BreedDetection, error) {
	return gateway.BreedDetection{}, errors.New("not used")
}

func (s *stubBot) EstimateAge(ctx context.Context, photoDataURI string) (gateway.AgeEstimate, error) {
	return gateway.AgeEstimate{}, errors.New("not used")
}

func (s *stubBot) AnalyzeBehavior(ctx context.Context, videoDataURI, description string) (gateway.BehaviorAnalysis, error) {
	return gateway.BehaviorAnalysis{}, errors.New("not used")
}

func (s *stubBot) PetBot(ctx context.Context, req gateway.BotRequest) (string, error) {
	s.mu.Lock()
	s.lastReq = req
	s.calls++
	started := s.started
	release := s.release
	s.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return s.answer, s.err
}

func (s *stubBot) last() gateway.BotRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

func TestAskAppendsUserThenAssistant(t *testing.T) {
	bot := &stubBot{answer: "Labradors are great with kids."}
	svc := NewService(bot, analysis.NewHistory())

	answer, err := svc.Ask(context.Background(), "user-1", "Is this breed good with kids?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer != "Labradors are great with kids." {
		t.Fatalf("unexpected answer %q", answer)
	}

	turns := svc.Transcript("user-1")
	if len(turns) != 2 {
		t.Fatalf("expected exactly 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Text != "Is this breed good with kids?" {
		t.Fatalf("unexpected first turn: %+v", turns[0])
	}
	if turns[1].Role != RoleAssistant || turns[1].Text != "Labradors are great with kids." {
		t.Fatalf("unexpected second turn: %+v", turns[1])
	}
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	bot := &stubBot{answer: "unused"}
	svc := NewService(bot, analysis.NewHistory())

	for _, question := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Ask(context.Background(), "user-1", question); !errors.Is(err, ErrEmptyQuestion) {
			t.Fatalf("question %q: expected ErrEmptyQuestion, got %v", question, err)
		}
	}
	if bot.calls != 0 {
		t.Fatalf("gateway called for blank question")
	}
	if len(svc.Transcript("user-1")) != 0 {
		t.Fatalf("transcript changed by blank question")
	}
}

func TestAskFailureLeavesTranscriptUntouched(t *testing.T) {
	bot := &stubBot{answer: "first answer"}
	svc := NewService(bot, analysis.NewHistory())

	if _, err := svc.Ask(context.Background(), "user-1", "first question"); err != nil {
		t.Fatalf("seed ask: %v", err)
	}
	before := svc.Transcript("user-1")

	bot.err = errors.New("model unavailable")
	_, err := svc.Ask(context.Background(), "user-1", "second question")
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}

	after := svc.Transcript("user-1")
	if len(after) != len(before) {
		t.Fatalf("failed ask left residue: %d turns before, %d after", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("turn %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestAskReplaysFlattenedHistory(t *testing.T) {
	bot := &stubBot{answer: "answer one"}
	svc := NewService(bot, analysis.NewHistory())

	if _, err := svc.Ask(context.Background(), "user-1", "question one"); err != nil {
		t.Fatalf("first ask: %v", err)
	}

	bot.answer = "answer two"
	if _, err := svc.Ask(context.Background(), "user-1", "question two"); err != nil {
		t.Fatalf("second ask: %v", err)
	}

	want := "user: question one\nassistant: answer one"
	if got := bot.last().History; got != want {
		t.Fatalf("flattened history mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestAskCarriesLatestAnalysisContext(t *testing.T) {
	history := analysis.NewHistory()
	ctx := context.Background()

	_, err := history.Append(ctx, "user-1",
		analysis.RecordInput{FileName: "dog.jpg", MediaKind: media.KindImage},
		analysis.BreedResult(analysis.BreedAndAgeResult{
			Predictions: []gateway.BreedPrediction{{Breed: "Labrador", Confidence: 0.92}},
			AgeRange:    "2-4 years",
		}))
	if err != nil {
		t.Fatalf("append breed: %v", err)
	}
	_, err = history.Append(ctx, "user-1",
		analysis.RecordInput{FileName: "clip.mp4", MediaKind: media.KindVideo},
		analysis.BehaviorResultOf(analysis.BehaviorResult{LikelyClassifications: "playing", ConfidenceLevel: 0.7}))
	if err != nil {
		t.Fatalf("append behavior: %v", err)
	}

	bot := &stubBot{answer: "yes"}
	svc := NewService(bot, history)

	if _, err := svc.Ask(ctx, "user-1", "Is this breed good with kids?"); err != nil {
		t.Fatalf("ask: %v", err)
	}

	req := bot.last()
	if req.Breed != "Labrador" {
		t.Fatalf("expected breed Labrador, got %q", req.Breed)
	}
	if req.Age != "2-4 years" {
		t.Fatalf("expected age range, got %q", req.Age)
	}
	if req.Behavior != "playing" {
		t.Fatalf("expected behavior, got %q", req.Behavior)
	}
}

func TestAskOmitsContextWithoutAnalyses(t *testing.T) {
	bot := &stubBot{answer: "generic advice"}
	svc := NewService(bot, analysis.NewHistory())

	if _, err := svc.Ask(context.Background(), "user-1", "How often should I feed a puppy?"); err != nil {
		t.Fatalf("ask: %v", err)
	}

	req := bot.last()
	if req.Breed != "" || req.Age != "" || req.Behavior != "" {
		t.Fatalf("expected empty context fields, got %+v", req)
	}
}

func TestAskRejectsConcurrentCall(t *testing.T) {
	bot := &stubBot{
		answer:  "slow answer",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	svc := NewService(bot, analysis.NewHistory())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ask(context.Background(), "user-1", "first")
		done <- err
	}()
	<-bot.started

	if _, err := svc.Ask(context.Background(), "user-1", "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if len(svc.Transcript("user-1")) != 0 {
		t.Fatalf("rejected ask changed transcript")
	}

	close(bot.release)
	if err := <-done; err != nil {
		t.Fatalf("first ask: %v", err)
	}
	if got := len(svc.Transcript("user-1")); got != 2 {
		t.Fatalf("expected 2 turns after first ask completes, got %d", got)
	}
}

func TestAskIsScopedPerUser(t *testing.T) {
	bot := &stubBot{answer: "hello"}
	svc := NewService(bot, analysis.NewHistory())

	if _, err := svc.Ask(context.Background(), "user-1", "hi"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(svc.Transcript("user-2")) != 0 {
		t.Fatalf("transcript leaked across users")
	}
}

func TestResetClearsTranscript(t *testing.T) {
	bot := &stubBot{answer: "hello"}
	svc := NewService(bot, analysis.NewHistory())

	if _, err := svc.Ask(context.Background(), "user-1", "hi"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	svc.Reset("user-1")
	if len(svc.Transcript("user-1")) != 0 {
		t.Fatalf("transcript not cleared")
	}
}

func TestFlatten(t *testing.T) {
	if got := Flatten(nil); got != "" {
		t.Fatalf("expected empty string for no turns, got %q", got)
	}
	turns := []Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleAssistant, Text: "hello"},
	}
	want := "user: hi\nassistant: hello"
	if got := Flatten(turns); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
