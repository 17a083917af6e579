package reveal

import (
	"context"
	"fmt"
	"log"
)

// step is one awaited stage of the reveal.
type step struct {
	name string
	run  func(ctx context.Context) error
}

// sequence runs steps strictly in order, stopping at the first failure.
type sequence struct {
	steps []step
}

func newSequence(steps ...step) *sequence {
	return &sequence{steps: steps}
}

func (s *sequence) run(ctx context.Context) error {
	for _, st := range s.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
		log.Printf("[reveal] %s", st.name)
		if err := st.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return nil
}
