package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/tcolgate/mp3"

	"github.com/videoremix/api/internal/config"
	"github.com/videoremix/api/internal/model"
)

// Synthesizer produces the narration for a source video reference: extracted
// text, its translation, and a playable audio handle.
type Synthesizer interface {
	Synthesize(ctx context.Context, sourceReference string) (*model.Narration, error)
}

// TTSClient implements Synthesizer. With an ElevenLabs-style API key and a
// configured storage client it produces real narration audio; otherwise it
// falls back to a simulated narration with an estimated duration.
type TTSClient struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	voiceID        string
	modelID        string
	targetLanguage string
	storage        StorageClient
}

// NewTTSClient creates a narration synthesizer. storage may be nil; real
// speech synthesis needs somewhere durable to host the audio, so without it
// the client stays in simulated mode.
func NewTTSClient(cfg *config.TTSConfig, storage StorageClient) *TTSClient {
	return &TTSClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		voiceID:        cfg.VoiceID,
		modelID:        cfg.ModelID,
		targetLanguage: cfg.TargetLanguage,
		storage:        storage,
	}
}

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)([^&\n?#]+)`)

// Transcripts for well-known demo videos; anything else gets generic text.
var sampleTranscripts = map[string]string{
	"dQw4w9WgXcQ": "Never gonna give you up, never gonna let you down, never gonna run around and desert you.",
	"jNQXAC9IVRw": "This is a sample video about technology and innovation in the modern world.",
	"qAxbEJiAWYU": "Welcome to our channel where we explore the latest trends in digital transformation.",
}

// Synthesize runs extraction, translation and speech generation for one
// source reference.
func (c *TTSClient) Synthesize(ctx context.Context, sourceReference string) (*model.Narration, error) {
	originalText, err := c.extractText(sourceReference)
	if err != nil {
		return nil, err
	}

	translatedText := c.translate(originalText)

	narration, err := c.generateSpeech(ctx, translatedText)
	if err != nil {
		return nil, err
	}

	narration.OriginalText = originalText
	narration.TranslatedText = translatedText
	return narration, nil
}

// extractText resolves the transcript for a video reference. Transcription
// APIs are not wired in; known demo ids map to sample transcripts.
func (c *TTSClient) extractText(sourceReference string) (string, error) {
	match := videoIDPattern.FindStringSubmatch(sourceReference)
	if match == nil {
		return "", &model.ValidationError{Message: "source reference is not a recognizable video URL"}
	}
	videoID := match[1]

	if text, ok := sampleTranscripts[videoID]; ok {
		return text, nil
	}
	return fmt.Sprintf("Sample content from video %s. This is a demonstration of our video processing capabilities.", videoID), nil
}

// translate is a passthrough; the upstream system shipped without a real
// translation backend and searched footage with the original text.
func (c *TTSClient) translate(text string) string {
	log.Printf("[TTS] Translating text to %s", c.targetLanguage)
	return text
}

func (c *TTSClient) generateSpeech(ctx context.Context, text string) (*model.Narration, error) {
	if !c.IsConfigured() {
		return c.simulatedSpeech(text), nil
	}
	return c.synthesizeSpeech(ctx, text)
}

// simulatedSpeech estimates duration from text length at ~15 chars/second of
// speech, matching the placeholder the system shipped with.
func (c *TTSClient) simulatedSpeech(text string) *model.Narration {
	duration := (len(text) + 14) / 15
	return &model.Narration{
		AudioURL:        fmt.Sprintf("https://example.com/tts-audio/%d.mp3", time.Now().UnixMilli()),
		DurationSeconds: duration,
		Simulated:       true,
	}
}

type ttsRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

func (c *TTSClient) synthesizeSpeech(ctx context.Context, text string) (*model.Narration, error) {
	reqBody := ttsRequest{Text: text, ModelID: c.modelID}
	reqBody.VoiceSettings.Stability = 0.5
	reqBody.VoiceSettings.SimilarityBoost = 0.5

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.UpstreamError{Service: "elevenlabs", StatusCode: resp.StatusCode, Body: string(audio)}
	}

	duration := mp3Duration(audio)

	key := fmt.Sprintf("narration/%s.mp3", uuid.New().String())
	audioURL, err := c.storage.Upload(ctx, key, bytes.NewReader(audio), "audio/mpeg")
	if err != nil {
		return nil, fmt.Errorf("failed to store narration audio: %w", err)
	}

	log.Printf("[TTS] Narration audio generated: %ds, %d bytes", duration, len(audio))

	return &model.Narration{
		AudioURL:        audioURL,
		DurationSeconds: duration,
		Simulated:       false,
	}, nil
}

// mp3Duration sums frame durations. Rounds up so a timeline never ends
// before the audio does.
func mp3Duration(data []byte) int {
	d := mp3.NewDecoder(bytes.NewReader(data))

	var duration time.Duration
	skipped := 0
	for {
		frame := mp3.Frame{}
		if err := d.Decode(&frame, &skipped); err != nil {
			break
		}
		duration += frame.Duration()
	}

	seconds := int(duration / time.Second)
	if duration%time.Second != 0 {
		seconds++
	}
	return seconds
}

// IsConfigured returns true when real speech synthesis is possible.
func (c *TTSClient) IsConfigured() bool {
	return c.apiKey != "" && c.voiceID != "" && c.storage != nil
}
