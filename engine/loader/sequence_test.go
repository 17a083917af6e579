package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLoader records the order of loads and returns canned results.
type stubLoader struct {
	mu    sync.Mutex
	calls []string

	envErr     error
	modelErr   error
	modelPanic bool
	block      chan struct{}
}

func (s *stubLoader) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubLoader) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubLoader) LoadEnvironment(ctx context.Context, src string, progress ProgressFunc) (*Environment, error) {
	s.record("environment:" + src)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if progress != nil {
		progress(50, 100)
		progress(100, 100)
	}
	if s.envErr != nil {
		return nil, s.envErr
	}
	return &Environment{Source: src}, nil
}

func (s *stubLoader) LoadModel(ctx context.Context, src string, progress ProgressFunc) (model.Model, error) {
	s.record("model:" + src)
	if s.modelPanic {
		panic("accessor index out of range")
	}
	if s.modelErr != nil {
		return nil, s.modelErr
	}
	return model.NewModel(model.WithName(src)), nil
}

func (s *stubLoader) Get(string) model.Model { return nil }

func (s *stubLoader) Models() map[string]model.Model { return nil }

func (s *stubLoader) InitMaterialGPU(material.Material, pipeline.Pipeline, string) error { return nil }

func (s *stubLoader) Close() {}

var _ Loader = &stubLoader{}

func TestSequenceRunsEnvironmentThenModel(t *testing.T) {
	stub := &stubLoader{}
	var order []string
	var progressed []string
	seq := NewSequence(stub, "sky.hdr", "helmet.gltf",
		WithOnEnvironment(func(env *Environment) {
			order = append(order, "env:"+env.Source)
		}),
		WithOnModel(func(m model.Model) {
			order = append(order, "model:"+m.Name())
		}),
		WithProgress(func(src string) ProgressFunc {
			return func(loaded, total int64) {
				progressed = append(progressed, FormatProgress(loaded, total))
			}
		}),
	)
	assert.Equal(t, StageIdle, seq.Stage())

	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, StageDone, seq.Stage())
	assert.Equal(t, []string{"environment:sky.hdr", "model:helmet.gltf"}, stub.Calls())
	assert.Equal(t, []string{"env:sky.hdr", "model:helmet.gltf"}, order)
	assert.Equal(t, []string{"50% loaded", "100% loaded"}, progressed)

	assert.ErrorIs(t, seq.Run(context.Background()), ErrSequenceStarted)
}

func TestSequenceStopsAfterEnvironmentFailure(t *testing.T) {
	boom := errors.New("connection reset")
	stub := &stubLoader{envErr: boom}
	modelCalled := false
	seq := NewSequence(stub, "sky.hdr", "helmet.gltf",
		WithOnModel(func(model.Model) { modelCalled = true }),
		WithProgress(nil),
	)

	err := seq.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StageFailed, seq.Stage())
	assert.Equal(t, []string{"environment:sky.hdr"}, stub.Calls())
	assert.False(t, modelCalled)
}

func TestSequenceModelFailure(t *testing.T) {
	boom := errors.New("bad gltf")
	stub := &stubLoader{modelErr: boom}
	envSet := false
	seq := NewSequence(stub, "sky.hdr", "helmet.gltf",
		WithOnEnvironment(func(*Environment) { envSet = true }),
		WithProgress(nil),
	)

	assert.ErrorIs(t, seq.Run(context.Background()), boom)
	assert.True(t, envSet)
	assert.Equal(t, StageFailed, seq.Stage())
}

func TestSequenceModelPanicFailsStage(t *testing.T) {
	stub := &stubLoader{modelPanic: true}
	modelCalled := false
	seq := NewSequence(stub, "sky.hdr", "helmet.gltf",
		WithOnModel(func(model.Model) { modelCalled = true }),
		WithProgress(nil),
	)

	var err error
	require.NotPanics(t, func() {
		err = seq.Run(context.Background())
	})
	assert.ErrorContains(t, err, "stage model panicked: accessor index out of range")
	assert.Equal(t, StageFailed, seq.Stage())
	assert.False(t, modelCalled)
}

func TestSequenceCancel(t *testing.T) {
	stub := &stubLoader{block: make(chan struct{})}
	defer close(stub.block)
	seq := NewSequence(stub, "sky.hdr", "helmet.gltf", WithProgress(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- seq.Run(ctx) }()

	require.Eventually(t, func() bool { return len(stub.Calls()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StageEnvironment, seq.Stage())
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, StageFailed, seq.Stage())
	assert.Equal(t, []string{"environment:sky.hdr"}, stub.Calls())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "idle", StageIdle.String())
	assert.Equal(t, "environment", StageEnvironment.String())
	assert.Equal(t, "model", StageModel.String())
	assert.Equal(t, "done", StageDone.String())
	assert.Equal(t, "failed", StageFailed.String())
	assert.Equal(t, "stage(9)", Stage(9).String())
}
