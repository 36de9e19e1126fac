package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"taggenius/internal/config"
	"taggenius/internal/services"
	"taggenius/internal/tags"
)

type requestRecorder struct {
	mu       sync.Mutex
	requests int
	sleeps   []time.Duration
}

func (r *requestRecorder) record() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
	return r.requests
}

func (r *requestRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests
}

func (r *requestRecorder) sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
}

func newTestClient(t *testing.T, rec *requestRecorder, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.LLM{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}
	base := []Option{
		WithRetryBackoff(time.Millisecond, 5*time.Millisecond),
		WithSleeper(rec.sleep),
	}
	return NewClient(cfg, append(base, opts...)...)
}

func writeCompletion(w http.ResponseWriter, content string) {
	resp := map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]string{"content": content},
				"finish_reason": "stop",
			},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

const fullPayload = `{
  "primary_genre": ["UK Garage"],
  "sub_genre": [" 2-Step ", "future garage", "2-step", "dubstep", "grime"],
  "energy_vibe": ["brooding", "nocturnal", "melancholic"],
  "situation_environment": ["late night drive", "headphones", "afterhours"],
  "components": ["vinyl crackle", "pitched vocals", "swung drums"],
  "time_period": ["2000s"],
  "energy_level": 14
}`

func TestClassifyFullShape(t *testing.T) {
	rec := &requestRecorder{}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		writeCompletion(w, fullPayload)
	})

	desc := tags.TrackDescriptor{Title: "Archangel", Artist: "Burial"}
	result, err := client.Classify(context.Background(), desc, ShapeFull)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if result.PrimaryGenre != "uk garage" {
		t.Fatalf("PrimaryGenre = %q", result.PrimaryGenre)
	}
	// Tags are lowercased, trimmed, deduplicated, and capped per group.
	subGenres := result.Descriptors[tags.GroupSubGenre]
	if len(subGenres) != tags.MaxGroupCount {
		t.Fatalf("sub_genre = %v", subGenres)
	}
	if subGenres[0] != "2-step" || subGenres[1] != "future garage" || subGenres[2] != "dubstep" {
		t.Fatalf("sub_genre normalization: %v", subGenres)
	}
	if result.EnergyLevel != 10 {
		t.Fatalf("EnergyLevel = %d, want clamped to 10", result.EnergyLevel)
	}
	if result.Model != "test-model" {
		t.Fatalf("Model = %q", result.Model)
	}
	if rec.count() != 1 {
		t.Fatalf("requests = %d, want 1", rec.count())
	}
}

func TestClassifyPrimaryOnlyShape(t *testing.T) {
	rec := &requestRecorder{}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		writeCompletion(w, `{"primary_genre": ["French House"]}`)
	})

	desc := tags.TrackDescriptor{Title: "One More Time", Artist: "Daft Punk"}
	result, err := client.Classify(context.Background(), desc, ShapePrimaryOnly)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.PrimaryGenre != "french house" {
		t.Fatalf("PrimaryGenre = %q", result.PrimaryGenre)
	}
	if result.Descriptors != nil {
		t.Fatalf("primary-only shape must not carry descriptors: %v", result.Descriptors)
	}
	if result.EnergyLevel != 0 {
		t.Fatalf("primary-only shape must not carry an energy level, got %d", result.EnergyLevel)
	}
}

func TestClassifyRetriesServerErrors(t *testing.T) {
	rec := &requestRecorder{}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		if rec.record() < 3 {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		writeCompletion(w, `{"primary_genre": ["techno"]}`)
	})

	desc := tags.TrackDescriptor{Title: "Spastik", Artist: "Plastikman"}
	result, err := client.Classify(context.Background(), desc, ShapePrimaryOnly)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.PrimaryGenre != "techno" {
		t.Fatalf("PrimaryGenre = %q", result.PrimaryGenre)
	}
	if rec.count() != 3 {
		t.Fatalf("requests = %d, want 3", rec.count())
	}
}

func TestClassifyHonorsRetryAfterHeader(t *testing.T) {
	rec := &requestRecorder{}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		if rec.record() == 1 {
			w.Header().Set("Retry-After", "2")
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		writeCompletion(w, `{"primary_genre": ["techno"]}`)
	}, WithRetryBackoff(time.Millisecond, 10*time.Second))

	desc := tags.TrackDescriptor{Title: "Spastik", Artist: "Plastikman"}
	if _, err := client.Classify(context.Background(), desc, ShapePrimaryOnly); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(rec.sleeps) != 1 || rec.sleeps[0] != 2*time.Second {
		t.Fatalf("sleeps = %v, want one 2s delay from Retry-After", rec.sleeps)
	}
}

func TestClassifyExhaustedRetriesAreTransient(t *testing.T) {
	rec := &requestRecorder{}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		http.Error(w, "still broken", http.StatusServiceUnavailable)
	}, WithRetryMaxAttempts(2))

	desc := tags.TrackDescriptor{Title: "Spastik", Artist: "Plastikman"}
	_, err := client.Classify(context.Background(), desc, ShapePrimaryOnly)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if rec.count() != 2 {
		t.Fatalf("requests = %d, want 2", rec.count())
	}
}

func TestClassifyClientErrorNotRetried(t *testing.T) {
	rec := &requestRecorder{}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	desc := tags.TrackDescriptor{Title: "Spastik", Artist: "Plastikman"}
	_, err := client.Classify(context.Background(), desc, ShapePrimaryOnly)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, services.ErrTransient) {
		t.Fatalf("4xx must not be tagged transient: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("requests = %d, want 1", rec.count())
	}
}

func TestClassifyUnparseableResponseIsPermanent(t *testing.T) {
	rec := &requestRecorder{}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		writeCompletion(w, "I am sorry, I cannot help with that.")
	})

	desc := tags.TrackDescriptor{Title: "Spastik", Artist: "Plastikman"}
	_, err := client.Classify(context.Background(), desc, ShapePrimaryOnly)
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("unparseable content must not be retried, got %d requests", rec.count())
	}
}

func TestClassifyMissingPrimaryGenreIsPermanent(t *testing.T) {
	rec := &requestRecorder{}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		writeCompletion(w, `{"primary_genre": []}`)
	})

	desc := tags.TrackDescriptor{Title: "Spastik", Artist: "Plastikman"}
	_, err := client.Classify(context.Background(), desc, ShapePrimaryOnly)
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestClassifyStripsCodeFences(t *testing.T) {
	rec := &requestRecorder{}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		writeCompletion(w, "```json\n{\"primary_genre\": [\"techno\"]}\n```")
	})

	desc := tags.TrackDescriptor{Title: "Spastik", Artist: "Plastikman"}
	result, err := client.Classify(context.Background(), desc, ShapePrimaryOnly)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.PrimaryGenre != "techno" {
		t.Fatalf("PrimaryGenre = %q", result.PrimaryGenre)
	}
}

func TestClassifyRequiresAPIKey(t *testing.T) {
	client := NewClient(config.LLM{BaseURL: "http://localhost:0", Model: "test-model"})
	desc := tags.TrackDescriptor{Title: "Spastik", Artist: "Plastikman"}
	_, err := client.Classify(context.Background(), desc, ShapeFull)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClassifyRequiresTitle(t *testing.T) {
	client := NewClient(config.LLM{APIKey: "test-key", BaseURL: "http://localhost:0"})
	_, err := client.Classify(context.Background(), tags.TrackDescriptor{Artist: "Burial"}, ShapeFull)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBlueprintFromClassification(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := Classification{
		PrimaryGenre: "uk garage",
		Descriptors: map[tags.Group][]string{
			tags.GroupSubGenre: {"2-step"},
		},
		EnergyLevel: 0,
		Model:       "test-model",
	}
	bp := c.Blueprint(now)
	if bp.SchemaVersion != tags.SchemaVersion {
		t.Fatalf("SchemaVersion = %d", bp.SchemaVersion)
	}
	if bp.EnergyLevel != 1 {
		t.Fatalf("EnergyLevel = %d, want clamped to 1", bp.EnergyLevel)
	}
	if !bp.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v", bp.CreatedAt)
	}
	c.Descriptors[tags.GroupSubGenre][0] = "mutated"
	if bp.Descriptors[tags.GroupSubGenre][0] != "2-step" {
		t.Fatal("Blueprint shares slices with the classification")
	}
}

type stubEnricher struct {
	match   json.RawMessage
	err     error
	lookups int
}

func (s *stubEnricher) Lookup(ctx context.Context, title, artist string) (json.RawMessage, error) {
	s.lookups++
	return s.match, s.err
}

func userPromptFromRequest(t *testing.T, r *http.Request) string {
	t.Helper()
	var payload chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		t.Fatalf("decode chat request: %v", err)
	}
	for _, msg := range payload.Messages {
		if msg.Role == "user" {
			return msg.Content
		}
	}
	t.Fatal("chat request has no user message")
	return ""
}

func TestClassifyEmbedsEnrichmentContext(t *testing.T) {
	rec := &requestRecorder{}
	var prompt string
	enricher := &stubEnricher{match: json.RawMessage(`{"bpm": 174, "key": "4A"}`)}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		prompt = userPromptFromRequest(t, r)
		writeCompletion(w, fullPayload)
	}, WithEnricher(enricher))

	desc := tags.TrackDescriptor{Title: "Inner City Life", Artist: "Goldie"}
	if _, err := client.Classify(context.Background(), desc, ShapeFull); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if enricher.lookups != 1 {
		t.Fatalf("lookups = %d, want 1", enricher.lookups)
	}
	if !strings.Contains(prompt, `Lexicon Data: {"bpm": 174, "key": "4A"}`) {
		t.Fatalf("prompt missing enrichment context:\n%s", prompt)
	}
}

func TestClassifyEnricherFailureIsNonFatal(t *testing.T) {
	rec := &requestRecorder{}
	var prompt string
	enricher := &stubEnricher{err: errors.New("lexicon offline")}
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		prompt = userPromptFromRequest(t, r)
		writeCompletion(w, fullPayload)
	}, WithEnricher(enricher))

	desc := tags.TrackDescriptor{Title: "Inner City Life", Artist: "Goldie"}
	result, err := client.Classify(context.Background(), desc, ShapeFull)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.PrimaryGenre != "uk garage" {
		t.Fatalf("PrimaryGenre = %q", result.PrimaryGenre)
	}
	if strings.Contains(prompt, "Lexicon Data") {
		t.Fatalf("prompt carries enrichment despite lookup failure:\n%s", prompt)
	}
}

func TestClassifyNoMatchOmitsEnrichment(t *testing.T) {
	rec := &requestRecorder{}
	var prompt string
	client := newTestClient(t, rec, func(w http.ResponseWriter, r *http.Request) {
		rec.record()
		prompt = userPromptFromRequest(t, r)
		writeCompletion(w, fullPayload)
	}, WithEnricher(&stubEnricher{}))

	desc := tags.TrackDescriptor{Title: "Inner City Life", Artist: "Goldie"}
	if _, err := client.Classify(context.Background(), desc, ShapeFull); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if strings.Contains(prompt, "Lexicon Data") {
		t.Fatalf("prompt carries enrichment without a match:\n%s", prompt)
	}
}
