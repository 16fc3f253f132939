package narrate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/odinuv/intent-generator/internal/config"
)

func TestNewClient_MissingAPIKey(t *testing.T) {
	t.Setenv("TEST_INTENTGEN_KEY", "")
	_, err := NewClient(config.EnrichmentConfig{APIKeyEnv: "TEST_INTENTGEN_KEY"})
	if err == nil {
		t.Error("expected missing API key to fail client construction")
	}
}

func TestClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 1 {
			t.Errorf("request = %+v", req)
		}

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: "  The user ran a job.  "}}},
		})
	}))
	defer srv.Close()

	t.Setenv("TEST_INTENTGEN_KEY", "secret")
	client, err := NewClient(config.EnrichmentConfig{
		Model:     "test-model",
		APIKeyEnv: "TEST_INTENTGEN_KEY",
		BaseURL:   srv.URL + "/",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out, err := client.Generate(context.Background(), "describe the session")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "The user ran a job." {
		t.Errorf("output = %q, want trimmed content", out)
	}
}

func TestClient_GenerateNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	t.Setenv("TEST_INTENTGEN_KEY", "secret")
	client, err := NewClient(config.EnrichmentConfig{
		Model:     "test-model",
		APIKeyEnv: "TEST_INTENTGEN_KEY",
		BaseURL:   srv.URL,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestParseChatResponse(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"ok", `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`, "hello", false},
		{"api error", `{"error":{"message":"quota exceeded","type":"rate_limit"}}`, "", true},
		{"no choices", `{"choices":[]}`, "", true},
		{"empty content", `{"choices":[{"message":{"content":"   "}}]}`, "", true},
		{"not json", `<html>`, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseChatResponse([]byte(tc.body))
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
