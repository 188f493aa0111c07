// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/pdiddy/trend-engine/internal/checkpoint"
	"github.com/pdiddy/trend-engine/pkg/types"
)

// ErrLocked is returned when another run already holds the output
// directory's run lock.
var ErrLocked = errors.New("another run is already in progress for this output directory")

// State is the orchestrator lifecycle. A halted run stays halted;
// recovery is the operator re-invoking from the last committed
// checkpoint, never an automatic retry.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateHalted    State = "halted"
)

// Status is a point-in-time view of a run.
type Status struct {
	State State
	// Stage is the stage currently or last executing. Empty while idle.
	Stage string
	// Err is set when the run halted.
	Err error
}

// Orchestrator drives stages in their fixed order. After each stage it
// verifies field propagation against the accumulated field set and
// commits the stage's checkpoint before moving on, so a halt at stage
// n never loses the work of stages 1..n-1.
type Orchestrator struct {
	store  *checkpoint.Store
	stages []Stage
	w      io.Writer

	mu     sync.Mutex
	status Status
}

// New returns an orchestrator over the given stage sequence. Progress
// and warnings go to w.
func New(store *checkpoint.Store, w io.Writer, stages ...Stage) *Orchestrator {
	return &Orchestrator{
		store:  store,
		stages: stages,
		w:      w,
		status: Status{State: StateIdle},
	}
}

// Status reports the current run state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Orchestrator) setStatus(s Status) {
	o.mu.Lock()
	o.status = s
	o.mu.Unlock()
}

// Stages returns the configured stage sequence.
func (o *Orchestrator) Stages() []Stage {
	return o.stages
}

// Store returns the checkpoint store the orchestrator commits to.
func (o *Orchestrator) Store() *checkpoint.Store {
	return o.store
}

// RunAll executes every stage from the beginning. The first stage
// receives no input records.
func (o *Orchestrator) RunAll(ctx context.Context) error {
	return o.run(ctx, 0, nil)
}

// RunFrom executes the pipeline starting at the named stage, loading
// that stage's input from its predecessor's committed checkpoint.
func (o *Orchestrator) RunFrom(ctx context.Context, stageName string) error {
	idx := -1
	for i, st := range o.stages {
		if st.Name() == stageName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("unknown stage %q", stageName)
	}

	var records []types.Record
	if idx > 0 {
		prev := o.stages[idx-1]
		cp, err := o.store.Load(o.store.Path(prev.ArtifactName()))
		if err != nil {
			return fmt.Errorf("loading input for stage %s: %w", stageName, err)
		}
		records = cp.Records
	}
	return o.run(ctx, idx, records)
}

// RunOnly executes a single stage and stops, for stage-at-a-time
// operation from the CLI.
func (o *Orchestrator) RunOnly(ctx context.Context, stageName string) error {
	for i, st := range o.stages {
		if st.Name() == stageName {
			var records []types.Record
			if i > 0 {
				cp, err := o.store.Load(o.store.Path(o.stages[i-1].ArtifactName()))
				if err != nil {
					return fmt.Errorf("loading input for stage %s: %w", stageName, err)
				}
				records = cp.Records
			}
			return o.runSlice(ctx, i, i+1, records)
		}
	}
	return fmt.Errorf("unknown stage %q", stageName)
}

func (o *Orchestrator) run(ctx context.Context, start int, records []types.Record) error {
	return o.runSlice(ctx, start, len(o.stages), records)
}

func (o *Orchestrator) runSlice(ctx context.Context, start, end int, records []types.Record) error {
	lock := flock.New(filepath.Join(o.store.Dir(), ".run.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer lock.Unlock()

	// Fields committed by stages before the starting point still bind
	// every later transition.
	introduced := []string{}
	for _, st := range o.stages[:start] {
		introduced = append(introduced, st.Meta().Introduces...)
	}

	for i := start; i < end; i++ {
		st := o.stages[i]
		o.setStatus(Status{State: StateRunning, Stage: st.Name()})
		fmt.Fprintf(o.w, "=== stage %d/%d: %s ===\n", i+1, len(o.stages), st.Name())

		out, err := st.Run(ctx, records, o.w)
		if err != nil {
			err = fmt.Errorf("stage %s: %w", st.Name(), err)
			o.setStatus(Status{State: StateHalted, Stage: st.Name(), Err: err})
			return err
		}

		if err := checkpoint.VerifyPropagation(records, out, introduced); err != nil {
			err = fmt.Errorf("stage %s violated field propagation: %w", st.Name(), err)
			o.setStatus(Status{State: StateHalted, Stage: st.Name(), Err: err})
			return err
		}

		ref, err := o.store.Save(st.Name(), st.ArtifactName(), out)
		if err != nil {
			err = fmt.Errorf("stage %s: %w", st.Name(), err)
			o.setStatus(Status{State: StateHalted, Stage: st.Name(), Err: err})
			return err
		}

		degraded := 0
		for j := range out {
			if out[j].Degraded() {
				degraded++
			}
		}
		fmt.Fprintf(o.w, "stage %s: %d records -> %s", st.Name(), len(out), ref.Path)
		if degraded > 0 {
			fmt.Fprintf(o.w, " (%d degraded)", degraded)
		}
		fmt.Fprintln(o.w)

		introduced = append(introduced, st.Meta().Introduces...)
		records = out
	}

	o.setStatus(Status{State: StateCompleted, Stage: o.stages[end-1].Name()})
	return nil
}
