package chatbot_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greengrocer/storefront/internal/chatbot"
)

type upstreamRequest struct {
	Model     string            `json:"model"`
	Messages  []chatbot.Message `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
}

func newRouter(client *chatbot.Client) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/chatbot", chatbot.NewHandler(client, nil).MountRoutes)
	return r
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chatbot", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestChatbotForwardsConversation(t *testing.T) {
	var got upstreamRequest
	var auth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" We deliver daily. "}}]}`))
	}))
	defer upstream.Close()

	client := chatbot.NewClient(chatbot.Config{Endpoint: upstream.URL, APIKey: "k", Model: "gpt-4o", MaxTokens: 300})
	rr := post(t, newRouter(client), `{"question":"Do you deliver?","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"response":"We deliver daily."}`, rr.Body.String())
	assert.Equal(t, "Bearer k", auth)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 300, got.MaxTokens)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "GreenGrocer")
	assert.Equal(t, "hi", got.Messages[1].Content)
	assert.Equal(t, "hello", got.Messages[2].Content)
	assert.Equal(t, chatbot.Message{Role: "user", Content: "Do you deliver?"}, got.Messages[3])
}

func TestChatbotRequiresQuestion(t *testing.T) {
	client := chatbot.NewClient(chatbot.Config{Endpoint: "http://unused", APIKey: "k"})
	rr := post(t, newRouter(client), `{"question":"  "}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"Question is required"}`, rr.Body.String())
}

func TestChatbotUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer upstream.Close()

	client := chatbot.NewClient(chatbot.Config{Endpoint: upstream.URL, APIKey: "k"})
	rr := post(t, newRouter(client), `{"question":"hello"}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Error processing chatbot request"}`, rr.Body.String())
}

func TestChatbotWithoutKey(t *testing.T) {
	client := chatbot.NewClient(chatbot.Config{Endpoint: "http://unused"})
	rr := post(t, newRouter(client), `{"question":"hello"}`)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"message":"Chatbot is not configured"}`, rr.Body.String())
}
