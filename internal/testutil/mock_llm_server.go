// Package testutil holds shared test fakes: an OpenAI-compatible mock server
// and an in-memory blob store.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// OpenAICompatibleResponse is the minimal chat completions response for tests.
type OpenAICompatibleResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// CapturedChatRequest records one request body seen by the mock server.
type CapturedChatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// MockLLMServer is an httptest server speaking the OpenAI chat completions
// shape. Responses are served from a FIFO queue; the last response repeats
// once the queue drains. Requests are captured for assertions.
type MockLLMServer struct {
	Server *httptest.Server

	mu        sync.Mutex
	responses []string
	captured  []CapturedChatRequest
}

// NewMockLLMServer starts a mock server that answers POST /v1/chat/completions
// with the given response contents in order. Caller must register
// t.Cleanup(s.Close).
func NewMockLLMServer(responses ...string) *MockLLMServer {
	if len(responses) == 0 {
		responses = []string{"mock response"}
	}
	m := &MockLLMServer{responses: responses}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the mock server base URL.
func (m *MockLLMServer) URL() string { return m.Server.URL }

// Close shuts the server down.
func (m *MockLLMServer) Close() { m.Server.Close() }

// Requests returns a copy of all captured request bodies.
func (m *MockLLMServer) Requests() []CapturedChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CapturedChatRequest, len(m.captured))
	copy(out, m.captured)
	return out
}

func (m *MockLLMServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" && r.URL.Path != "/v1/chat/completions/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req CapturedChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	m.mu.Lock()
	m.captured = append(m.captured, req)
	content := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	resp := OpenAICompatibleResponse{
		ID:     "chatcmpl-test",
		Object: "chat.completion",
		Model:  req.Model,
	}
	resp.Choices = make([]struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	}, 1)
	resp.Choices[0].Message.Role = "assistant"
	resp.Choices[0].Message.Content = content
	resp.Choices[0].FinishReason = "stop"
	resp.Usage.PromptTokens = 10
	resp.Usage.CompletionTokens = 20
	resp.Usage.TotalTokens = 30

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
