package leptons

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sink receives the outputs in input order.
type Sink interface {
	WriteEvent(out *Output) error
	Close() error
}

type WorkerData struct {
	Seq   int
	Event *Event
}

type WorkerResult struct {
	Seq    int
	Output *Output
}

// Run processes every event of source with numWorkers workers and writes
// the outputs to the sinks in input order. The corrections are built
// before the first worker starts; a pileup weight with no pileup
// correction is refused before any event is read. The first error stops the whole run and
// is returned; nothing is written past it.
func Run(ctx context.Context, source EventSource, analysis *Analysis, corrections *Corrections,
	numWorkers int, metrics *Metrics, sinks ...Sink) (int, error) {
	if numWorkers < 1 {
		return 0, &ConfigurationError{Field: "num_workers", Value: fmt.Sprint(numWorkers), Reason: "at least one worker is needed"}
	}
	var lookup CorrectionLookup
	if corrections != nil {
		var err error
		if lookup, err = corrections.Init(); err != nil {
			return 0, err
		}
	}
	if lookup == nil && analysis.weights.usesPileup() {
		return 0, &ConfigurationError{Field: "pileup_factor", Value: analysis.weights.PileupFactor,
			Reason: "no pileup correction loaded"}
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan WorkerData, numWorkers)
	results := make(chan WorkerResult, numWorkers)

	g.Go(func() error {
		return sendEventsToWorkers(ctx, source, jobs)
	})

	var active atomic.Int32
	active.Store(int32(numWorkers))
	for w := 1; w <= numWorkers; w++ {
		id := w
		g.Go(func() error {
			defer func() {
				if active.Add(-1) == 0 {
					close(results)
				}
			}()
			return worker(ctx, id, analysis, lookup, metrics, jobs, results)
		})
	}

	var processed int
	g.Go(func() error {
		var err error
		processed, err = processWorkerResults(ctx, results, metrics, sinks)
		return err
	})

	err := g.Wait()
	return processed, err
}

func sendEventsToWorkers(ctx context.Context, source EventSource, jobs chan<- WorkerData) error {
	defer close(jobs)
	for seq := 0; ; seq++ {
		event, err := source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			errMessage := fmt.Errorf("error reading event: %w", err)
			logger.Error(errMessage.Error())
			return errMessage
		}
		select {
		case jobs <- WorkerData{Seq: seq, Event: event}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func worker(ctx context.Context, id int, analysis *Analysis, lookup CorrectionLookup, metrics *Metrics,
	jobs <-chan WorkerData, results chan<- WorkerResult) error {
	for job := range jobs {
		start := time.Now()
		out, err := processEvent(analysis, lookup, job.Event)
		if err != nil {
			metrics.eventFailed()
			logger.Error(fmt.Sprintf("Worker %d: %v", id, err))
			return err
		}
		metrics.observeEvent(time.Since(start).Seconds())
		select {
		case results <- WorkerResult{Seq: job.Seq, Output: out}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// processEvent turns a panic in the analysis into an error for the event.
func processEvent(analysis *Analysis, lookup CorrectionLookup, event *Event) (out *Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &EventError{EventID: event.ID, Err: fmt.Errorf("recovered from panic: %v", r)}
		}
	}()
	return analysis.Process(event, lookup)
}

// processWorkerResults restores the input order before writing.
func processWorkerResults(ctx context.Context, results <-chan WorkerResult, metrics *Metrics, sinks []Sink) (int, error) {
	pending := make(map[int]*Output)
	next := 0
	for result := range results {
		pending[result.Seq] = result.Output
		for {
			out, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := ctx.Err(); err != nil {
				return next, err
			}
			for _, sink := range sinks {
				if err := sink.WriteEvent(out); err != nil {
					errMessage := &EventError{EventID: out.EventID, Err: fmt.Errorf("error writing event: %w", err)}
					logger.Error(errMessage.Error())
					return next, errMessage
				}
			}
			metrics.eventProcessed()
			next++
		}
	}
	return next, nil
}
