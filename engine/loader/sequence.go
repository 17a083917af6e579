package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
)

// Stage is a step of the asset Sequence.
type Stage int

const (
	StageIdle Stage = iota
	StageEnvironment
	StageModel
	StageDone
	StageFailed
)

// ErrSequenceStarted is returned when Run is called on a Sequence that already ran.
var ErrSequenceStarted = errors.New("sequence already started")

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageEnvironment:
		return "environment"
	case StageModel:
		return "model"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// sequence is the implementation of the Sequence interface.
type sequence struct {
	mu    sync.RWMutex
	stage Stage

	loader   Loader
	envSrc   string
	modelSrc string

	onEnvironment func(*Environment)
	onModel       func(model.Model)
	progress      func(label string) ProgressFunc
}

// Sequence loads the environment map and then the model, one stage at a time. The model load starts
// only after the environment is loaded and handed to OnEnvironment.
type Sequence interface {
	// Run executes the stages in order and blocks until the last one finishes. A failed stage logs
	// "An error happened" and ends the run in StageFailed.
	//
	// Parameters:
	//   - ctx: cancels the current stage
	//
	// Returns:
	//   - error: the stage error, ctx.Err(), or ErrSequenceStarted on a second call
	Run(ctx context.Context) error

	// Stage returns the current stage.
	Stage() Stage
}

var _ Sequence = &sequence{}

// NewSequence creates a Sequence that loads envSrc and then modelSrc through l.
//
// Parameters:
//   - l: the loader used for both stages
//   - envSrc: the HDR environment map source
//   - modelSrc: the glTF model source
//   - options: a variadic list of SequenceBuilderOption functions
//
// Returns:
//   - Sequence: the idle sequence
func NewSequence(l Loader, envSrc, modelSrc string, options ...SequenceBuilderOption) Sequence {
	s := &sequence{
		loader:   l,
		envSrc:   envSrc,
		modelSrc: modelSrc,
		progress: LogProgress,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *sequence) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

func (s *sequence) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.stage != StageIdle {
		s.mu.Unlock()
		return ErrSequenceStarted
	}
	s.stage = StageEnvironment
	s.mu.Unlock()
	log.Printf("[loader] stage %s -> %s", StageIdle, StageEnvironment)

	// Stages run one at a time; texture decoding uses the loader's own pool.
	pool := worker.NewDynamicWorkerPool(1, 1, time.Second)
	defer pool.Stop()

	env, err := runStage(ctx, pool, int(StageEnvironment), func() (*Environment, error) {
		return s.loader.LoadEnvironment(ctx, s.envSrc, s.progressFor(s.envSrc))
	})
	if err != nil {
		return s.fail(err)
	}
	if s.onEnvironment != nil {
		s.onEnvironment(env)
	}

	s.transition(StageModel)
	m, err := runStage(ctx, pool, int(StageModel), func() (model.Model, error) {
		return s.loader.LoadModel(ctx, s.modelSrc, s.progressFor(s.modelSrc))
	})
	if err != nil {
		return s.fail(err)
	}
	if s.onModel != nil {
		s.onModel(m)
	}

	s.transition(StageDone)
	return nil
}

func (s *sequence) progressFor(src string) ProgressFunc {
	if s.progress == nil {
		return nil
	}
	return s.progress(src)
}

func (s *sequence) transition(to Stage) {
	s.mu.Lock()
	from := s.stage
	s.stage = to
	s.mu.Unlock()
	log.Printf("[loader] stage %s -> %s", from, to)
}

func (s *sequence) fail(err error) error {
	log.Printf("An error happened: %v", err)
	s.transition(StageFailed)
	return err
}

type stageResult[T any] struct {
	value T
	err   error
}

// runStage runs load on the pool and waits for its result or for ctx.
// A panic in load is returned as an error.
func runStage[T any](ctx context.Context, pool worker.DynamicWorkerPool, id int, load func() (T, error)) (T, error) {
	done := make(chan stageResult[T], 1)
	pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer func() {
				if r := recover(); r != nil {
					done <- stageResult[T]{err: fmt.Errorf("stage %s panicked: %v", Stage(id), r)}
				}
			}()
			v, err := load()
			done <- stageResult[T]{value: v, err: err}
			return v, err
		},
	})

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
