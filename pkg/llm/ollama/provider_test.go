package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hana-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_SendsHistoryAndReturnsReply(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: llm.Message{Role: llm.RoleAssistant, Content: "  Halal is permissible.  "},
			Done:    true,
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL+"/", "llama3", time.Second)
	reply, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "what is halal?"},
	}, llm.WithMaxTokens(64))

	require.NoError(t, err)
	assert.Equal(t, "Halal is permissible.", reply)
	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, llm.RoleSystem, got.Messages[0].Role)
	assert.Equal(t, 64, got.Options.NumPredict)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "http error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "backend error", status: http.StatusOK, body: `{"error":"model not found"}`},
		{name: "malformed", status: http.StatusOK, body: `not json`},
		{name: "empty content", status: http.StatusOK, body: `{"message":{"role":"assistant","content":"   "}}`, wantErr: llm.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOllamaProvider(server.URL, "m", time.Second).Generate(context.Background(), "hi")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
