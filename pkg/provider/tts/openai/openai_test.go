package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/storytrail/pkg/provider/tts"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := New("", ""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestNew_DefaultModel(t *testing.T) {
	t.Parallel()
	p, err := New("key", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Model() != "tts-1" {
		t.Errorf("model = %q, want tts-1", p.Model())
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3 fake mp3"))
	}))
	defer srv.Close()

	p, err := New("key", "", WithBaseURL(srv.URL+"/v1/"), WithMaxRetries(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	clip, err := p.Synthesize(context.Background(), "Hello there", tts.Voice{Speed: 0.9})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(clip.Data) != "ID3 fake mp3" || clip.Format != "mp3" {
		t.Errorf("clip = %+v", clip)
	}
	if got["input"] != "Hello there" || got["voice"] != DefaultVoice || got["model"] != "tts-1" {
		t.Errorf("request = %v", got)
	}
	if got["response_format"] != "mp3" {
		t.Errorf("response_format = %v", got["response_format"])
	}
	if got["speed"] != 0.9 {
		t.Errorf("speed = %v, want 0.9", got["speed"])
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	t.Parallel()
	p, _ := New("key", "")
	if _, err := p.Synthesize(context.Background(), "", tts.Voice{}); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer srv.Close()

	p, _ := New("key", "", WithBaseURL(srv.URL+"/v1/"), WithMaxRetries(0))
	if _, err := p.Synthesize(context.Background(), "hi", tts.Voice{}); err == nil {
		t.Fatal("expected error")
	}
}
