package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeCompletion is an in-process chat completion endpoint that answers
// every request with a fixed reply or status.
type FakeCompletion struct {
	server *httptest.Server

	mu       sync.Mutex
	reply    string
	status   int
	prompts  []string
	requests int
}

// NewFakeCompletion starts a fake completion server replying with reply.
func NewFakeCompletion(t testing.TB, reply string) *FakeCompletion {
	t.Helper()

	f := &FakeCompletion{reply: reply, status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the endpoint to configure as llm.base_url.
func (f *FakeCompletion) URL() string {
	return f.server.URL
}

// SetReply changes the assistant content returned by later requests.
func (f *FakeCompletion) SetReply(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = reply
}

// Fail makes later requests answer with status and an error body.
func (f *FakeCompletion) Fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Requests returns how many completion requests were received.
func (f *FakeCompletion) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

// Prompts returns the user message contents received so far.
func (f *FakeCompletion) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

func (f *FakeCompletion) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests++
	for _, m := range req.Messages {
		if m.Role == "user" {
			f.prompts = append(f.prompts, m.Content)
		}
	}
	status, reply := f.status, f.reply
	f.mu.Unlock()

	if status != http.StatusOK {
		writeFakeJSON(w, status, map[string]any{"error": map[string]any{"message": http.StatusText(status)}})
		return
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []any{
			map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			},
		},
	})
}
