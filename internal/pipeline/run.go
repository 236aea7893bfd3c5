package pipeline

import (
	"fmt"
	"image"
	"time"
)

// Run executes every step in order on the whole working set. Stage i+1
// starts only after stage i has produced all of its output. The first
// failing stage aborts the run.
//
// With debug output enabled the raw input is saved as 00_input/01.png and
// each stage's output is saved with flat 1-based numbering.
func (p *Pipeline) Run(img image.Image) ([]*Record, error) {
	env := p.newEnv()
	src := NewSource(img)

	if p.debug != nil {
		if err := p.debug.WriteInput(src.Image()); err != nil {
			return nil, err
		}
		env.Logf("Debug: saved %s/%s", InputDirName, Lineage(nil).Filename(p.debug.Ext()))
	}

	data := []*Record{NewRecord(src)}
	for i, step := range p.steps {
		var err error
		if data, err = p.runStage(env, i+1, step, data); err != nil {
			return nil, err
		}

		if p.debug != nil {
			if err := p.debug.WriteStage(i+1, step.Name(), data); err != nil {
				return nil, errStage(i+1, step, err)
			}
			env.Logf("  Debug: saved %d images to %s/", len(data), StageDirName(i+1, step.Name()))
		}
	}

	return data, nil
}

// RunPartial executes only the first k steps and returns their output.
// No debug output is written. k larger than the step count runs them all.
func (p *Pipeline) RunPartial(img image.Image, k int) ([]*Record, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: %d", ErrStageCount, k)
	}
	env := p.newEnv()
	data := []*Record{NewRecord(NewSource(img))}
	for i, step := range p.steps {
		if i >= k {
			break
		}
		var err error
		if data, err = p.runStage(env, i+1, step, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (p *Pipeline) runStage(env *Env, index int, step Step, data []*Record) ([]*Record, error) {
	env.Logf("Running step %d: %s (processing %d items)", index, step.Name(), len(data))

	start := time.Now()
	out, err := step.Process(data, env)
	if err != nil {
		return nil, errStage(index, step, err)
	}
	env.observe(step, len(data), len(out), start)

	env.Logf("  -> %d items", len(out))
	return out, nil
}
