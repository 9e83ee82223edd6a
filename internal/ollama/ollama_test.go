// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		msg  Message
		role string
	}{
		{NewUserMessage("Hello"), "user"},
		{NewAssistantMessage("Response"), "assistant"},
		{NewSystemMessage("Be brief"), "system"},
	}
	for _, tt := range tests {
		if tt.msg.Role != tt.role {
			t.Errorf("Role = %q, want %q", tt.msg.Role, tt.role)
		}
	}
}

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func TestStreamReader_Process(t *testing.T) {
	body := strings.Join([]string{
		`{"model":"llama3.2","message":{"role":"assistant","content":"Hel"},"done":false}`,
		``,
		`not json at all`,
		`{"model":"llama3.2","message":{"role":"assistant","content":"lo"},"done":false}`,
		`{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}`,
		`{"model":"llama3.2","message":{"role":"assistant","content":"after done"},"done":false}`,
	}, "\n")

	r := NewStreamReader(strings.NewReader(body))
	var got []string
	err := r.Process(context.Background(), func(s string) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}

	if strings.Join(got, "|") != "Hel|lo" {
		t.Errorf("chunks = %q, want [Hel lo]", got)
	}
	if r.Accumulated() != "Hello" {
		t.Errorf("Accumulated() = %q, want %q", r.Accumulated(), "Hello")
	}
	if r.Chunks() != 2 {
		t.Errorf("Chunks() = %d, want 2", r.Chunks())
	}
	if r.Model() != "llama3.2" {
		t.Errorf("Model() = %q", r.Model())
	}
}

func TestStreamReader_LastLineWithoutNewline(t *testing.T) {
	body := `{"message":{"content":"only"},"done":false}`
	r := NewStreamReader(strings.NewReader(body))
	var got string
	if err := r.Process(context.Background(), func(s string) error { got += s; return nil }); err != nil {
		t.Fatal(err)
	}
	if got != "only" {
		t.Errorf("got %q", got)
	}
}

func TestStreamReader_CallbackErrorStops(t *testing.T) {
	body := `{"message":{"content":"a"}}` + "\n" + `{"message":{"content":"b"}}` + "\n"
	stop := errors.New("stop")
	calls := 0
	err := NewStreamReader(strings.NewReader(body)).Process(context.Background(), func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestStreamReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewStreamReader(strings.NewReader(`{"message":{"content":"x"}}`)).Process(ctx, func(string) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestClient_ChatStream(t *testing.T) {
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, part := range []string{"# Hi", "\n\nthere"} {
			json.NewEncoder(w).Encode(ChatResponse{Message: Message{Role: "assistant", Content: part}})
		}
		json.NewEncoder(w).Encode(ChatResponse{Done: true})
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/"})
	var sb strings.Builder
	err := client.ChatStream(context.Background(), "", []Message{NewUserMessage("hey")}, &Options{NumPredict: 128}, func(s string) error {
		sb.WriteString(s)
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream error: %v", err)
	}

	if sb.String() != "# Hi\n\nthere" {
		t.Errorf("content = %q", sb.String())
	}
	if !gotReq.Stream || gotReq.Model != DefaultModel || len(gotReq.Messages) != 1 {
		t.Errorf("unexpected request: %+v", gotReq)
	}
	if gotReq.Options == nil || gotReq.Options.NumPredict != 128 {
		t.Errorf("options not sent: %+v", gotReq.Options)
	}
}

func TestClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("Chat should not request streaming")
		}
		json.NewEncoder(w).Encode(ChatResponse{Model: req.Model, Message: NewAssistantMessage("Trip Ideas"), Done: true})
	}))
	defer srv.Close()

	resp, err := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL}).Chat(context.Background(), "m", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message.Content != "Trip Ideas" || resp.Model != "m" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"model not found", http.StatusNotFound, "", ErrModelNotFound, ""},
		{"ollama error body", http.StatusBadRequest, `{"error":"bad things"}`, nil, "bad things"},
		{"plain error body", http.StatusInternalServerError, "boom", nil, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL}).Chat(context.Background(), "m", nil, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestClient_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClientWithConfig(&ClientConfig{BaseURL: url}).Chat(context.Background(), "m", nil, nil)
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("err = %v, want ErrNotRunning", err)
	}
}
