package pipeline

import (
	"context"
	"image"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// queueSize bounds each inter-stage channel.
const queueSize = 64

// RunWithExecutor runs the pipeline as a chain of stage workers joined by
// channels. Stages overlap: while stage 2 works on the first contour,
// stage 1 may still be producing the next.
//
// Every output record carries its lineage: the parent's path plus the
// output's 1-based position among the outputs the step produced for that
// parent. A transform or filter step therefore appends 1, and a split
// step appends each child's index. Paths are unique within a run.
//
// Only per-lineage order is guaranteed; use SortByLineage for a stable
// order. The first failing worker stops every stage. Debug files already
// written are left in place.
func (p *Pipeline) RunWithExecutor(img image.Image) ([]*Record, error) {
	env := p.newEnv()
	src := NewSource(img)

	if p.debug != nil {
		if err := p.debug.WriteInput(src.Image()); err != nil {
			return nil, err
		}
		env.Logf("Debug: saved %s/%s", InputDirName, Lineage(nil).Filename(p.debug.Ext()))
	}

	g, ctx := errgroup.WithContext(context.Background())

	head := make(chan *Record, 1)
	head <- NewRecord(src)
	close(head)

	var upstream <-chan *Record = head
	for i, step := range p.steps {
		out := make(chan *Record, queueSize)
		st := &stageWorker{index: i + 1, step: step, env: env}
		in := upstream

		var wg sync.WaitGroup
		for w := 0; w < p.workers; w++ {
			wg.Add(1)
			g.Go(func() error {
				defer wg.Done()
				return st.work(ctx, in, out)
			})
		}
		g.Go(func() error {
			wg.Wait()
			close(out)
			return nil
		})
		upstream = out
	}

	var results []*Record
	g.Go(func() error {
		for rec := range upstream {
			results = append(results, rec)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	env.Logf("Executor finished: %d items", len(results))
	return results, nil
}

type stageWorker struct {
	index int
	step  Step
	env   *Env
}

func (s *stageWorker) work(ctx context.Context, in <-chan *Record, out chan<- *Record) error {
	for {
		var rec *Record
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok = <-in:
			if !ok {
				return nil
			}
		}

		start := time.Now()
		children, err := s.step.Process([]*Record{rec}, s.env)
		if err != nil {
			return errStage(s.index, s.step, err)
		}
		s.env.observe(s.step, 1, len(children), start)

		for j, child := range children {
			// Steps may hand back the input pointer for kept items; tag a
			// copy so the parent's path is never rewritten.
			tagged := *child
			tagged.Lineage = rec.Lineage.Child(j + 1)

			if s.env.Debug != nil {
				if err := s.env.Debug.WriteLineage(s.index, s.step.Name(), &tagged); err != nil {
					return errStage(s.index, s.step, err)
				}
			}

			select {
			case out <- &tagged:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
