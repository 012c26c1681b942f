package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
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
	if p.Model() != "dall-e-3" {
		t.Errorf("model = %q, want dall-e-3", p.Model())
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	if _, err := New("key", "", WithResponseFormat("gif")); err == nil {
		t.Fatal("expected error for unknown response format")
	}
}

// imageServer fakes the images endpoint and, when downloads is true, serves
// the generated image under /download.png.
func imageServer(t *testing.T, payload []byte, useURL bool) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/images/generations"):
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
			item := map[string]any{"revised_prompt": "a nicer whale"}
			if useURL {
				item["url"] = srv.URL + "/download.png"
			} else {
				item["b64_json"] = base64.StdEncoding.EncodeToString(payload)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"created": 1,
				"data":    []any{item},
			})
		case r.URL.Path == "/download.png":
			_, _ = w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestGenerate_B64JSON(t *testing.T) {
	t.Parallel()
	srv, got := imageServer(t, []byte("\x89PNG fake"), false)

	p, err := New("key", "", WithBaseURL(srv.URL+"/v1/"), WithMaxRetries(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	img, err := p.Generate(context.Background(), "a whale")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(img.Data) != "\x89PNG fake" {
		t.Errorf("data = %q", img.Data)
	}
	if img.Format != "png" || img.RevisedPrompt != "a nicer whale" {
		t.Errorf("image = %+v", img)
	}

	req := *got
	if req["prompt"] != "a whale" {
		t.Errorf("prompt = %v", req["prompt"])
	}
	if req["model"] != "dall-e-3" || req["size"] != "1024x1024" || req["quality"] != "standard" {
		t.Errorf("request = %v", req)
	}
	if req["response_format"] != "b64_json" {
		t.Errorf("response_format = %v", req["response_format"])
	}
}

func TestGenerate_URLDownload(t *testing.T) {
	t.Parallel()
	srv, _ := imageServer(t, []byte("downloaded"), true)

	p, err := New("key", "dall-e-2",
		WithBaseURL(srv.URL+"/v1/"),
		WithMaxRetries(0),
		WithResponseFormat(FormatURL),
		WithSize("512x512"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	img, err := p.Generate(context.Background(), "a unicorn")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(img.Data) != "downloaded" {
		t.Errorf("data = %q", img.Data)
	}
}

func TestGenerate_APIError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content policy","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, _ := New("key", "", WithBaseURL(srv.URL+"/v1/"), WithMaxRetries(0))
	if _, err := p.Generate(context.Background(), "a whale"); err == nil {
		t.Fatal("expected error from API")
	}
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	t.Parallel()
	p, _ := New("key", "")
	if _, err := p.Generate(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
