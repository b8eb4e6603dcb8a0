package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"models": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if !client.IsAvailable(context.Background()) {
		t.Error("Expected available")
	}

	server.Close()
	if client.IsAvailable(context.Background()) {
		t.Error("Expected unavailable after server shutdown")
	}
}

func TestIsAvailable_NonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if NewClient(server.URL).IsAvailable(context.Background()) {
		t.Error("Expected unavailable on 500")
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models": [{"name": "llama3", "size": 4000000000}, {"name": "mistral"}]}`))
	}))
	defer server.Close()

	models, err := NewClient(server.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 || models[0].Name != "llama3" {
		t.Errorf("Unexpected models: %+v", models)
	}
}

func TestListModels_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).ListModels(context.Background())
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("Expected GatewayError, got %v", err)
	}
	if gwErr.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", gwErr.StatusCode)
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"response": "hello world", "done": true}`))
	}))
	defer server.Close()

	text, err := NewClient(server.URL).Generate(context.Background(), GenerateRequest{Model: "llama3", Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("Unexpected response: %s", text)
	}
}

func TestGenerate_NonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Generate(context.Background(), GenerateRequest{Model: "nope", Prompt: "hi"})
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("Expected GatewayError, got %v", err)
	}
}

func TestGenerate_MissingModel(t *testing.T) {
	if _, err := NewClient("http://localhost:1").Generate(context.Background(), GenerateRequest{Prompt: "hi"}); err == nil {
		t.Error("Expected error for missing model")
	}
}

func TestGenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response": "foo ", "done": false}`)
		fmt.Fprintln(w, `this line is not json and must be skipped`)
		fmt.Fprintln(w, `{"response": "bar", "done": false}`)
		fmt.Fprintln(w, `{"response": "", "done": true}`)
		fmt.Fprintln(w, `{"response": "after done, never seen", "done": false}`)
	}))
	defer server.Close()

	var chunks []string
	full, err := NewClient(server.URL).GenerateStream(context.Background(),
		GenerateRequest{Model: "llama3", Prompt: "hi"},
		func(chunk string) { chunks = append(chunks, chunk) })
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}
	if full != "foo bar" {
		t.Errorf("Expected aggregate 'foo bar', got %q", full)
	}
	if len(chunks) != 2 {
		t.Errorf("Expected 2 chunks, got %v", chunks)
	}
}

func TestGenerateStream_EOFWithoutDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response": "partial", "done": false}`)
	}))
	defer server.Close()

	full, err := NewClient(server.URL).GenerateStream(context.Background(),
		GenerateRequest{Model: "llama3", Prompt: "hi"}, nil)
	if err != nil {
		t.Fatalf("Expected clean EOF end, got %v", err)
	}
	if full != "partial" {
		t.Errorf("Unexpected aggregate: %q", full)
	}
}

func TestGenerateStream_Cancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 20; i++ {
			fmt.Fprintf(w, `{"response": "chunk%d ", "done": false}`+"\n", i)
			flusher.Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(30 * time.Millisecond):
			}
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int
	_, err := NewClient(server.URL).GenerateStream(ctx,
		GenerateRequest{Model: "llama3", Prompt: "hi"},
		func(chunk string) {
			received++
			if received == 2 {
				cancel()
			}
		})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected cancellation error, got %v", err)
	}
	if _, isGateway := err.(*GatewayError); isGateway {
		t.Error("Cancellation must not surface as a gateway error")
	}
	if received > 3 {
		t.Errorf("Chunks kept flowing after cancellation: %d", received)
	}
}

func TestMockResponder(t *testing.T) {
	client := NewClient("").WithMockResponder(func(prompt string) (string, error) {
		if !strings.Contains(prompt, "hi") {
			t.Errorf("Mock responder got unexpected prompt: %s", prompt)
		}
		return "mocked", nil
	})

	text, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err != nil || text != "mocked" {
		t.Errorf("Mock generate failed: %q %v", text, err)
	}

	var chunk string
	text, err = client.GenerateStream(context.Background(), GenerateRequest{Prompt: "hi"}, func(c string) { chunk = c })
	if err != nil || text != "mocked" || chunk != "mocked" {
		t.Errorf("Mock stream failed: %q %q %v", text, chunk, err)
	}
}
