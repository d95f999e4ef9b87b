package Notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackPosterPost(t *testing.T) {
	var gotChannel, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotChannel = r.FormValue("channel")
		gotText = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"channel":"C1","ts":"1700000000.000100"}`))
	}))
	defer srv.Close()

	poster := NewSlackPoster("xoxb-test", "C1", slack.OptionAPIURL(srv.URL+"/"))
	require.NoError(t, poster.Post(context.Background(), "3 items open"))
	assert.Equal(t, "C1", gotChannel)
	assert.Equal(t, "3 items open", gotText)
}

func TestSlackPosterError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	poster := NewSlackPoster("xoxb-test", "missing", slack.OptionAPIURL(srv.URL+"/"))
	err := poster.Post(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}
