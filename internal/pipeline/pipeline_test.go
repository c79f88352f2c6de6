package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/videoremix/api/internal/model"
	"github.com/videoremix/api/internal/timeline"
)

type mockSynthesizer struct {
	mock.Mock
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, sourceReference string) (*model.Narration, error) {
	args := m.Called(ctx, sourceReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Narration), args.Error(1)
}

type mockFootageResolver struct {
	mock.Mock
}

func (m *mockFootageResolver) Resolve(ctx context.Context, keywords string) ([]string, error) {
	args := m.Called(ctx, keywords)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Submit(ctx context.Context, payload *timeline.RenderPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *mockRenderer) Poll(ctx context.Context, renderID string) (*model.RenderStatus, error) {
	args := m.Called(ctx, renderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderStatus), args.Error(1)
}

func (m *mockRenderer) WaitForTerminal(ctx context.Context, renderID string) (*model.RenderStatus, error) {
	args := m.Called(ctx, renderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderStatus), args.Error(1)
}

// fakeStore records all pipeline writes in memory. Individual write methods
// can be made to fail to exercise checkpoint tolerance.
type fakeStore struct {
	project *model.Project

	steps      []model.ProcessingStep
	narration  *model.Narration
	clips      []string
	renderID   string
	finalURL   string
	status     model.ProjectStatus
	failureMsg string

	appendStepErr error
	narrationErr  error
}

func newFakeStore(id string) *fakeStore {
	return &fakeStore{
		project: &model.Project{ID: id, Status: model.StatusProcessing},
		status:  model.StatusProcessing,
	}
}

func (s *fakeStore) Get(ctx context.Context, id string) (*model.Project, error) {
	if s.project == nil {
		return nil, errors.New("not found")
	}
	return s.project, nil
}

func (s *fakeStore) AppendStep(ctx context.Context, id string, step model.ProcessingStep) error {
	if s.appendStepErr != nil {
		return s.appendStepErr
	}
	s.steps = append(s.steps, step)
	return nil
}

func (s *fakeStore) SetNarration(ctx context.Context, id string, narration *model.Narration) error {
	if s.narrationErr != nil {
		return s.narrationErr
	}
	s.narration = narration
	return nil
}

func (s *fakeStore) SetClips(ctx context.Context, id string, clips []string) error {
	s.clips = clips
	return nil
}

func (s *fakeStore) SetRenderID(ctx context.Context, id, renderID string) error {
	s.renderID = renderID
	return nil
}

func (s *fakeStore) Complete(ctx context.Context, id, finalVideoURL string) error {
	s.status = model.StatusCompleted
	s.finalURL = finalVideoURL
	return nil
}

func (s *fakeStore) Fail(ctx context.Context, id, detail string) error {
	s.status = model.StatusFailed
	s.failureMsg = detail
	return nil
}

func (s *fakeStore) stepNames() []string {
	names := make([]string, 0, len(s.steps))
	for _, step := range s.steps {
		names = append(names, step.Name)
	}
	return names
}

const testSource = "https://www.youtube.com/watch?v=jNQXAC9IVRw"

func realNarration() *model.Narration {
	return &model.Narration{
		OriginalText:    "This is a sample video about technology and innovation.",
		TranslatedText:  "This is a sample video about technology and innovation.",
		AudioURL:        "https://media.example.com/narration/n1.mp3",
		DurationSeconds: 20,
		Simulated:       false,
	}
}

func fiveClips() []string {
	return []string{
		"https://v.example.com/1.mp4",
		"https://v.example.com/2.mp4",
		"https://v.example.com/3.mp4",
		"https://v.example.com/4.mp4",
		"https://v.example.com/5.mp4",
	}
}

func TestProcess_HappyPath(t *testing.T) {
	store := newFakeStore("p1")
	synth := &mockSynthesizer{}
	footage := &mockFootageResolver{}
	renderer := &mockRenderer{}

	narration := realNarration()
	synth.On("Synthesize", mock.Anything, testSource).Return(narration, nil)
	footage.On("Resolve", mock.Anything, "This sample video about technology").Return(fiveClips(), nil)
	renderer.On("Submit", mock.Anything, mock.AnythingOfType("*timeline.RenderPayload")).Return("render-1", nil)
	renderer.On("WaitForTerminal", mock.Anything, "render-1").Return(&model.RenderStatus{
		RenderID: "render-1",
		State:    model.RenderDone,
		Progress: 100,
		URL:      "https://cdn.example.com/final.mp4",
	}, nil)

	p := New(store, synth, footage, renderer, Options{})
	finalURL, err := p.Process(context.Background(), "p1", testSource)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/final.mp4", finalURL)
	assert.Equal(t, model.StatusCompleted, store.status)
	assert.Equal(t, finalURL, store.finalURL)
	assert.Equal(t, narration, store.narration)
	assert.Equal(t, fiveClips(), store.clips)
	assert.Equal(t, "render-1", store.renderID)

	assert.Equal(t, []string{
		model.StageInitialize,
		model.StageSynthesize,
		model.StageResolve,
		model.StageBuildTimeline,
		model.StageRender,
		model.StageFinalize,
	}, store.stepNames())
	for _, step := range store.steps {
		assert.Equal(t, model.OutcomeCompleted, step.Outcome)
		assert.False(t, step.Timestamp.IsZero())
	}

	synth.AssertExpectations(t)
	footage.AssertExpectations(t)
	renderer.AssertExpectations(t)
}

func TestProcess_FallbackClipsWhenTooFewResolved(t *testing.T) {
	store := newFakeStore("p1")
	synth := &mockSynthesizer{}
	footage := &mockFootageResolver{}
	renderer := &mockRenderer{}

	synth.On("Synthesize", mock.Anything, testSource).Return(realNarration(), nil)
	footage.On("Resolve", mock.Anything, mock.Anything).Return([]string{"https://v.example.com/only.mp4"}, nil)
	renderer.On("Submit", mock.Anything, mock.Anything).Return("render-1", nil)
	renderer.On("WaitForTerminal", mock.Anything, "render-1").Return(&model.RenderStatus{
		State: model.RenderDone,
		URL:   "https://cdn.example.com/final.mp4",
	}, nil)

	p := New(store, synth, footage, renderer, Options{})
	_, err := p.Process(context.Background(), "p1", testSource)
	require.NoError(t, err)

	// The resolver result is replaced wholesale, not topped up.
	assert.Equal(t, fallbackClips, store.clips)
	assert.Equal(t, model.StatusCompleted, store.status)
}

func TestProcess_SynthesisFailureMarksProjectFailed(t *testing.T) {
	store := newFakeStore("p1")
	synth := &mockSynthesizer{}
	footage := &mockFootageResolver{}
	renderer := &mockRenderer{}

	synthErr := errors.New("tts unavailable")
	synth.On("Synthesize", mock.Anything, testSource).Return(nil, synthErr)

	p := New(store, synth, footage, renderer, Options{})
	_, err := p.Process(context.Background(), "p1", testSource)
	require.ErrorIs(t, err, synthErr)

	assert.Equal(t, model.StatusFailed, store.status)
	assert.Equal(t, "tts unavailable", store.failureMsg)
	footage.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	renderer.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestProcess_RenderFailureMarksProjectFailed(t *testing.T) {
	store := newFakeStore("p1")
	synth := &mockSynthesizer{}
	footage := &mockFootageResolver{}
	renderer := &mockRenderer{}

	synth.On("Synthesize", mock.Anything, testSource).Return(realNarration(), nil)
	footage.On("Resolve", mock.Anything, mock.Anything).Return(fiveClips(), nil)
	renderer.On("Submit", mock.Anything, mock.Anything).Return("render-1", nil)
	renderErr := &model.TimeoutError{RenderID: "render-1", Attempts: 30}
	renderer.On("WaitForTerminal", mock.Anything, "render-1").Return(nil, renderErr)

	p := New(store, synth, footage, renderer, Options{})
	_, err := p.Process(context.Background(), "p1", testSource)
	require.Error(t, err)

	var timeout *model.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, model.StatusFailed, store.status)
	// Partial progress stays visible on the failed project.
	assert.Equal(t, "render-1", store.renderID)
}

func TestProcess_SkipsProjectAlreadyTerminal(t *testing.T) {
	store := newFakeStore("p1")
	store.project.Status = model.StatusCompleted
	store.project.FinalVideoURL = "https://cdn.example.com/already.mp4"

	synth := &mockSynthesizer{}
	footage := &mockFootageResolver{}
	renderer := &mockRenderer{}

	p := New(store, synth, footage, renderer, Options{})
	finalURL, err := p.Process(context.Background(), "p1", testSource)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/already.mp4", finalURL)
	assert.Empty(t, store.steps, "redelivered job must not re-run any stage")
	synth.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
}

func TestProcess_ToleratesCheckpointFailures(t *testing.T) {
	store := newFakeStore("p1")
	store.appendStepErr = errors.New("redis gone")
	store.narrationErr = errors.New("redis gone")

	synth := &mockSynthesizer{}
	footage := &mockFootageResolver{}
	renderer := &mockRenderer{}

	synth.On("Synthesize", mock.Anything, testSource).Return(realNarration(), nil)
	footage.On("Resolve", mock.Anything, mock.Anything).Return(fiveClips(), nil)
	renderer.On("Submit", mock.Anything, mock.Anything).Return("render-1", nil)
	renderer.On("WaitForTerminal", mock.Anything, "render-1").Return(&model.RenderStatus{
		State: model.RenderDone,
		URL:   "https://cdn.example.com/final.mp4",
	}, nil)

	p := New(store, synth, footage, renderer, Options{})
	finalURL, err := p.Process(context.Background(), "p1", testSource)
	require.NoError(t, err, "lost checkpoints must not abort the run")
	assert.Equal(t, "https://cdn.example.com/final.mp4", finalURL)
	assert.Equal(t, model.StatusCompleted, store.status)
}

func TestProcess_RejectsEmptyInput(t *testing.T) {
	p := New(newFakeStore("p1"), &mockSynthesizer{}, &mockFootageResolver{}, &mockRenderer{}, Options{})

	var validation *model.ValidationError

	_, err := p.Process(context.Background(), "", testSource)
	require.ErrorAs(t, err, &validation)

	_, err = p.Process(context.Background(), "p1", "")
	require.ErrorAs(t, err, &validation)
}

func TestProcess_MissingProjectAborts(t *testing.T) {
	store := newFakeStore("p1")
	store.project = nil
	synth := &mockSynthesizer{}

	p := New(store, synth, &mockFootageResolver{}, &mockRenderer{}, Options{})
	_, err := p.Process(context.Background(), "p1", testSource)
	require.Error(t, err)
	synth.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
}
