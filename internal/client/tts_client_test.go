package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videoremix/api/internal/config"
	"github.com/videoremix/api/internal/model"
)

type fakeStorage struct {
	keys []string
}

func (s *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	s.keys = append(s.keys, key)
	return "https://media.example.com/" + key, nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://media.example.com/" + key
}

func newSimulatedTTSClient() *TTSClient {
	return NewTTSClient(&config.TTSConfig{TargetLanguage: "en"}, nil)
}

func TestSynthesize_KnownTranscript(t *testing.T) {
	c := newSimulatedTTSClient()

	narration, err := c.Synthesize(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, sampleTranscripts["dQw4w9WgXcQ"], narration.OriginalText)
	assert.Equal(t, narration.OriginalText, narration.TranslatedText)
	assert.True(t, narration.Simulated)
	assert.Contains(t, narration.AudioURL, "https://example.com/tts-audio/")

	// ~15 characters per second of speech, rounded up.
	expected := (len(narration.TranslatedText) + 14) / 15
	assert.Equal(t, expected, narration.DurationSeconds)
}

func TestSynthesize_UnknownVideoGetsGenericTranscript(t *testing.T) {
	c := newSimulatedTTSClient()

	narration, err := c.Synthesize(context.Background(), "https://www.youtube.com/watch?v=abc123xyz")
	require.NoError(t, err)
	assert.Contains(t, narration.OriginalText, "abc123xyz")
	assert.True(t, narration.Simulated)
}

func TestSynthesize_AcceptedURLForms(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"watch", "https://www.youtube.com/watch?v=jNQXAC9IVRw"},
		{"short link", "https://youtu.be/jNQXAC9IVRw"},
		{"shorts", "https://www.youtube.com/shorts/jNQXAC9IVRw"},
		{"watch with extra params", "https://www.youtube.com/watch?v=jNQXAC9IVRw&t=42s"},
	}

	c := newSimulatedTTSClient()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			narration, err := c.Synthesize(context.Background(), tt.url)
			require.NoError(t, err)
			assert.Equal(t, sampleTranscripts["jNQXAC9IVRw"], narration.OriginalText)
		})
	}
}

func TestSynthesize_UnrecognizableReference(t *testing.T) {
	c := newSimulatedTTSClient()

	_, err := c.Synthesize(context.Background(), "https://vimeo.com/12345")
	require.Error(t, err)

	var validation *model.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestSynthesize_RealSpeechUploadsAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		w.Header().Set("Content-Type", "audio/mpeg")
		fmt.Fprint(w, "not-really-mp3-bytes")
	}))
	defer srv.Close()

	storage := &fakeStorage{}
	c := NewTTSClient(&config.TTSConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		VoiceID:        "voice-1",
		ModelID:        "eleven_monolingual_v1",
		TargetLanguage: "en",
	}, storage)
	require.True(t, c.IsConfigured())

	narration, err := c.Synthesize(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.False(t, narration.Simulated)
	require.Len(t, storage.keys, 1)
	assert.True(t, strings.HasPrefix(storage.keys[0], "narration/"))
	assert.Equal(t, "https://media.example.com/"+storage.keys[0], narration.AudioURL)
}

func TestSynthesize_RealSpeechUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "invalid api key"}`)
	}))
	defer srv.Close()

	c := NewTTSClient(&config.TTSConfig{
		APIKey:  "wrong-key",
		BaseURL: srv.URL,
		VoiceID: "voice-1",
	}, &fakeStorage{})

	_, err := c.Synthesize(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.Error(t, err)

	var upstream *model.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "elevenlabs", upstream.Service)
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
}

func TestTTSIsConfigured(t *testing.T) {
	assert.False(t, newSimulatedTTSClient().IsConfigured(), "no key, no storage")

	keyOnly := NewTTSClient(&config.TTSConfig{APIKey: "k", VoiceID: "v"}, nil)
	assert.False(t, keyOnly.IsConfigured(), "real synthesis needs storage")
}
