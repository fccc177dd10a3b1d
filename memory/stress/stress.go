// Package stress runs concurrent workloads against a safety.Manager to check
// the exactly-once dispose and use-after-free detection guarantees under
// real contention.
package stress

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/virtushda/vlib/memory/refcell"
	"github.com/virtushda/vlib/memory/safety"
)

var (
	// ErrDoubleDispose indicates more than one racer won a dispose race.
	ErrDoubleDispose = errors.New("stress: handle disposed more than once")

	// ErrStaleAccess indicates a disposed Ref still returned its value.
	ErrStaleAccess = errors.New("stress: disposed reference was readable")

	// ErrBadWorkload indicates a non-positive workload parameter.
	ErrBadWorkload = errors.New("stress: workload parameters must be positive")
)

// RaceConfig sizes a dispose race: each of Handles handles is disposed by
// Racers goroutines at once.
type RaceConfig struct {
	Handles int
	Racers  int
}

// RaceResult counts dispose outcomes. Wins must equal Handles.
type RaceResult struct {
	Handles int           `json:"handles"`
	Racers  int           `json:"racers"`
	Wins    uint64        `json:"wins"`
	Losses  uint64        `json:"losses"`
	Elapsed time.Duration `json:"elapsed"`
}

// DisposeRace creates handles one at a time and lets cfg.Racers goroutines
// race to dispose each. It fails with ErrDoubleDispose if any handle has a
// number of winners other than one.
func DisposeRace(ctx context.Context, m *safety.Manager, cfg RaceConfig) (res RaceResult, err error) {
	if cfg.Handles <= 0 || cfg.Racers <= 0 {
		return RaceResult{}, fmt.Errorf("%w: handles=%d racers=%d", ErrBadWorkload, cfg.Handles, cfg.Racers)
	}
	res = RaceResult{Handles: cfg.Handles, Racers: cfg.Racers}
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	for i := range cfg.Handles {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		h, err := m.Create()
		if err != nil {
			return res, err
		}

		var wins atomic.Uint64
		gate := make(chan struct{})
		var g errgroup.Group
		for range cfg.Racers {
			g.Go(func() error {
				<-gate
				if h.TryInvalidate() {
					wins.Add(1)
				}
				return nil
			})
		}
		close(gate)
		_ = g.Wait()

		w := wins.Load()
		res.Wins += w
		res.Losses += uint64(cfg.Racers) - w
		if w != 1 {
			return res, fmt.Errorf("%w: handle %d had %d winners", ErrDoubleDispose, i, w)
		}
	}
	return res, nil
}

// ChurnConfig sizes a create/dispose churn. Each worker keeps up to Hold live
// references and disposes the oldest when full.
type ChurnConfig struct {
	Workers      int
	OpsPerWorker int
	Hold         int
}

// ChurnResult summarises a churn run.
type ChurnResult struct {
	Created      uint64        `json:"created"`
	Disposed     uint64        `json:"disposed"`
	StaleCaught  uint64        `json:"stale_caught"`
	Elapsed      time.Duration `json:"elapsed"`
	OpsPerSecond float64       `json:"ops_per_second"`
}

type payload struct {
	Worker int
	Seq    int
}

// Churn runs cfg.Workers goroutines that create references, verify their
// contents, dispose them and then check that a stale copy is rejected.
// Every reference is disposed before Churn returns.
func Churn(ctx context.Context, m *safety.Manager, cfg ChurnConfig) (ChurnResult, error) {
	if cfg.Workers <= 0 || cfg.OpsPerWorker <= 0 || cfg.Hold <= 0 {
		return ChurnResult{}, fmt.Errorf("%w: workers=%d ops=%d hold=%d",
			ErrBadWorkload, cfg.Workers, cfg.OpsPerWorker, cfg.Hold)
	}

	var created, disposed, caught atomic.Uint64
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for w := range cfg.Workers {
		g.Go(func() error {
			held := make([]refcell.Ref[payload], 0, cfg.Hold)
			defer func() {
				for _, r := range held {
					if r.Dispose() {
						disposed.Add(1)
					}
				}
			}()

			retire := func(r refcell.Ref[payload]) error {
				stale := r
				if r.Dispose() {
					disposed.Add(1)
				}
				if _, ok := stale.TryLoad(); ok {
					return fmt.Errorf("%w: %s", ErrStaleAccess, stale)
				}
				caught.Add(1)
				return nil
			}

			for seq := range cfg.OpsPerWorker {
				if seq%64 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				r, err := refcell.New(m, payload{Worker: w, Seq: seq})
				if err != nil {
					return err
				}
				created.Add(1)
				if got := r.Load(); got.Worker != w || got.Seq != seq {
					return fmt.Errorf("stress: ref %s holds %+v, want worker %d seq %d", r, got, w, seq)
				}

				if len(held) == cfg.Hold {
					oldest := held[0]
					held = append(held[:0], held[1:]...)
					if err := retire(oldest); err != nil {
						return err
					}
				}
				held = append(held, r)
			}
			return nil
		})
	}
	err := g.Wait()

	res := ChurnResult{
		Created:     created.Load(),
		Disposed:    disposed.Load(),
		StaleCaught: caught.Load(),
		Elapsed:     time.Since(start),
	}
	if secs := res.Elapsed.Seconds(); secs > 0 {
		res.OpsPerSecond = float64(res.Created+res.Disposed) / secs
	}
	return res, err
}
