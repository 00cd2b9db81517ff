package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	provider_models "github.com/meysamhadeli/codaiscan/providers/models"
)

// unitOutcome is what one request (or one split half) produced.
type unitOutcome struct {
	unit      workUnit
	model     string
	issues    []models.Issue
	tokens    int
	requests  int
	err       error
	cacheable bool
}

// sleepWithCtx waits for d or until ctx is done.
func sleepWithCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// dispatch sends units in sequential batches of BatchSize. Inside a batch
// every unit runs in its own goroutine, started Stagger apart. Between
// batches it pauses long enough for the tightest per-minute quota of the
// models the batch used.
func (s *Scanner) dispatch(ctx context.Context, units []workUnit) []unitOutcome {
	batchSize := s.options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var outcomes []unitOutcome
	done := 0
	for start := 0; start < len(units); start += batchSize {
		end := start + batchSize
		if end > len(units) {
			end = len(units)
		}
		batch := units[start:end]

		if err := ctx.Err(); err != nil {
			for _, u := range units[start:] {
				outcomes = append(outcomes, unitOutcome{unit: u, err: err})
			}
			break
		}

		results := make([][]unitOutcome, len(batch))
		var wg sync.WaitGroup
		for i, u := range batch {
			wg.Add(1)
			go func(i int, u workUnit) {
				defer wg.Done()
				if err := s.sleep(ctx, time.Duration(i)*s.options.Stagger); err != nil {
					results[i] = []unitOutcome{{unit: u, err: err}}
					return
				}
				results[i] = s.runUnit(ctx, u)
			}(i, u)
		}
		wg.Wait()

		var used []string
		for _, r := range results {
			outcomes = append(outcomes, r...)
			for _, o := range r {
				if o.model != "" {
					used = append(used, o.model)
				}
			}
		}
		done += len(batch)
		if s.progress != nil {
			s.progress(done, len(units))
		}

		if end < len(units) {
			pause := s.router.BatchPause(used, batchSize)
			if pause > 0 {
				s.logger.Debug("pausing between batches", s.logger.Args("pause", pause.String()))
			}
			_ = s.sleep(ctx, pause)
		}
	}
	return outcomes
}

// runUnit sends one unit. When the model reports the request as too large
// the unit is split and each part retried, up to MaxSplitDepth levels.
func (s *Scanner) runUnit(ctx context.Context, u workUnit) []unitOutcome {
	model := s.router.SelectModel(s.options.Model, u.strategy)
	s.router.RecordRequest(model)

	resp, err := s.provider.ChatCompletionRequest(ctx, buildRequest(u, model))
	if err != nil {
		if errors.Is(err, provider_models.ErrCapacityExceeded) && u.depth < s.options.MaxSplitDepth {
			parts := u.split(s.analyzer)
			s.logger.Warn("request too large for model, splitting", s.logger.Args(
				"chunk", u.index+1, "depth", u.depth+1, "parts", len(parts), "model", model))
			var outcomes []unitOutcome
			for i, part := range parts {
				if i > 0 {
					if err := s.sleep(ctx, s.options.Stagger); err != nil {
						outcomes = append(outcomes, unitOutcome{unit: part, err: err})
						continue
					}
				}
				outcomes = append(outcomes, s.runUnit(ctx, part)...)
			}
			if len(outcomes) > 0 {
				outcomes[0].requests++
				return outcomes
			}
		}
		s.logger.Warn("chunk request failed", s.logger.Args(
			"chunk", u.index+1, "files", len(u.files()), "model", model, "error", err.Error()))
		return []unitOutcome{{unit: u, model: model, err: err, requests: 1}}
	}

	outcome := unitOutcome{unit: u, model: model, tokens: resp.TokensUsed(), requests: 1, cacheable: u.complete()}
	issues, err := parseIssues(resp.Content, u.files())
	if err != nil {
		s.logger.Warn("could not parse model answer, no issues recorded", s.logger.Args(
			"chunk", u.index+1, "model", model, "error", err.Error()))
		outcome.cacheable = false
		return []unitOutcome{outcome}
	}
	outcome.issues = issues
	return []unitOutcome{outcome}
}
