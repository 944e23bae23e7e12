package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoSender_Send(t *testing.T) {
	var got brevoRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewBrevoSender("key-123", "no-reply@example.com", "AuthCodeLab")
	s.endpoint = srv.URL

	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", Text: "t", HTML: "<p>h</p>"})
	require.NoError(t, err)

	assert.Equal(t, "key-123", apiKey)
	assert.Equal(t, "no-reply@example.com", got.Sender.Email)
	assert.Equal(t, "a@example.com", got.To[0].Email)
	assert.Equal(t, "<p>h</p>", got.HTMLContent)
}

func TestBrevoSender_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized"}`))
	}))
	defer srv.Close()

	s := NewBrevoSender("bad", "no-reply@example.com", "AuthCodeLab")
	s.endpoint = srv.URL
	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	unconfigured := NewBrevoSender("", "no-reply@example.com", "AuthCodeLab")
	assert.Error(t, unconfigured.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi"}))
}
