package gateway

import (
	"strings"
	"testing"
)

func TestNormalizeBreedDetectionTrimsAndClamps(t *testing.T) {
	d := BreedDetection{
		Predictions: []BreedPrediction{
			{Breed: "Labrador", Confidence: 1.4},
			{Breed: "Golden Retriever", Confidence: 0.8},
			{Breed: "Beagle", Confidence: 0.6},
			{Breed: "Poodle", Confidence: 0.4},
			{Breed: "Boxer", Confidence: 0.2},
			{Breed: "Pug", Confidence: -0.1},
		},
	}

	got := NormalizeBreedDetection(d)
	if len(got.Predictions) != MaxBreedPredictions {
		t.Fatalf("expected %d predictions, got %d", MaxBreedPredictions, len(got.Predictions))
	}
	if got.Predictions[0].Breed != "Labrador" || got.Predictions[4].Breed != "Boxer" {
		t.Fatalf("rank order not preserved: %+v", got.Predictions)
	}
	if got.Predictions[0].Confidence != 1 {
		t.Fatalf("confidence not clamped to 1, got %v", got.Predictions[0].Confidence)
	}
}

func TestNormalizeAgeEstimateClamps(t *testing.T) {
	if got := NormalizeAgeEstimate(AgeEstimate{AgeRange: "2-4 years", Confidence: -0.2}); got.Confidence != 0 {
		t.Fatalf("expected clamp to 0, got %v", got.Confidence)
	}
	if got := NormalizeAgeEstimate(AgeEstimate{AgeRange: "2-4 years", Confidence: 0.8}); got.Confidence != 0.8 {
		t.Fatalf("in-range confidence changed: %v", got.Confidence)
	}
}

func TestNormalizeBehaviorAnalysisClamps(t *testing.T) {
	if got := NormalizeBehaviorAnalysis(BehaviorAnalysis{ConfidenceLevel: 2}); got.ConfidenceLevel != 1 {
		t.Fatalf("expected clamp to 1, got %v", got.ConfidenceLevel)
	}
}

func TestBuildPetBotPromptIncludesPresentContext(t *testing.T) {
	prompt := BuildPetBotPrompt(BotRequest{
		Question: "Is this breed good with kids?",
		Breed:    "Labrador",
		Age:      "2-4 years",
		Behavior: "playing",
		History:  "user: hi\nassistant: hello",
	})

	for _, want := range []string{
		"Breed: Labrador",
		"Age: 2-4 years",
		"Behavior: playing",
		"Conversation so far:\nuser: hi\nassistant: hello",
		"Is this breed good with kids?",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPetBotPromptOmitsAbsentContext(t *testing.T) {
	prompt := BuildPetBotPrompt(BotRequest{Question: "How often should I feed a puppy?"})

	for _, absent := range []string{"Breed:", "Age:", "Behavior:", "Conversation so far:"} {
		if strings.Contains(prompt, absent) {
			t.Fatalf("prompt should omit %q:\n%s", absent, prompt)
		}
	}
	if !strings.Contains(prompt, "How often should I feed a puppy?") {
		t.Fatalf("prompt missing question:\n%s", prompt)
	}
}

func TestMimeFromDataURI(t *testing.T) {
	cases := []struct {
		uri  string
		want string
	}{
		{"data:image/png;base64,AAAA", "image/png"},
		{"data:video/mp4;base64,AAAA", "video/mp4"},
		{"data:text/plain,hello", "text/plain"},
		{"https://example.com/dog.png", ""},
		{"data:", ""},
	}
	for _, tc := range cases {
		if got := MimeFromDataURI(tc.uri); got != tc.want {
			t.Fatalf("MimeFromDataURI(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}
