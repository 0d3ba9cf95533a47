// internal/underwriting/engine.go
package underwriting

import (
	"errors"
	"sort"
	"sync"

	"underwriting-workers/internal/models"
)

// ErrNilApplication is returned when evaluation is invoked without an
// application snapshot. This is the only structural failure the engine
// reports; data problems inside programs surface as INELIGIBLE or
// NEEDS_REVIEW results instead.
var ErrNilApplication = errors.New("underwriting: application snapshot is nil")

const defaultMaxParallel = 8

// Engine fans the scorer out across the active catalog and assembles the
// result envelope. Program evaluations are independent by construction, so
// they may run concurrently; concurrency is a throughput knob only and never
// changes the output.
type Engine struct {
	scorer      *Scorer
	maxParallel int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxParallel bounds the number of concurrent program evaluations.
// Values below 1 force sequential evaluation.
func WithMaxParallel(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.maxParallel = n
	}
}

func NewEngine(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		scorer:      NewScorer(registry),
		maxParallel: defaultMaxParallel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// programJob pairs a program with its lender for fan-out.
type programJob struct {
	lender  models.Lender
	program models.LenderProgram
}

// Evaluate runs the application against every active program of every active
// lender and returns the aggregated envelope. Inactive lenders and programs
// are excluded entirely. The catalog and application are treated as an
// immutable snapshot; the engine stores nothing between runs.
func (e *Engine) Evaluate(app *models.LoanApplication, lenders []models.Lender) (*ResultEnvelope, error) {
	if app == nil {
		return nil, ErrNilApplication
	}

	var jobs []programJob
	for _, lender := range lenders {
		if !lender.IsActive {
			continue
		}
		for _, program := range lender.Programs {
			if !program.IsActive {
				continue
			}
			jobs = append(jobs, programJob{lender: lender, program: program})
		}
	}

	results := make([]ProgramMatchResult, len(jobs))
	workers := e.maxParallel
	if workers > len(jobs) {
		workers = len(jobs)
	}

	if workers <= 1 {
		for i, job := range jobs {
			results[i] = e.scorer.EvaluateProgram(app, job.lender, job.program)
		}
	} else {
		// Results land at their job's index, so scheduling order never
		// affects the envelope.
		var wg sync.WaitGroup
		sem := make(chan struct{}, workers)
		for i, job := range jobs {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, job programJob) {
				defer wg.Done()
				defer func() { <-sem }()
				results[i] = e.scorer.EvaluateProgram(app, job.lender, job.program)
			}(i, job)
		}
		wg.Wait()
	}

	return e.aggregate(results), nil
}

func (e *Engine) aggregate(results []ProgramMatchResult) *ResultEnvelope {
	env := &ResultEnvelope{
		TotalPrograms: len(results),
		Eligible:      []ProgramMatchResult{},
		NeedsReview:   []ProgramMatchResult{},
		Ineligible:    []ProgramMatchResult{},
	}

	for _, r := range results {
		switch r.Status {
		case StatusEligible:
			env.Eligible = append(env.Eligible, r)
		case StatusNeedsReview:
			env.NeedsReview = append(env.NeedsReview, r)
		default:
			env.Ineligible = append(env.Ineligible, r)
		}
	}

	sortBucket(env.Eligible)
	sortBucket(env.NeedsReview)
	sortBucket(env.Ineligible)

	env.EligibleCount = len(env.Eligible)
	env.NeedsReviewCount = len(env.NeedsReview)
	env.IneligibleCount = len(env.Ineligible)

	if best := bestMatch(env.Eligible); best != nil {
		env.BestMatch = best
	}

	return env
}

// sortBucket orders results by descending fit score, then ascending program
// priority, then ascending program ID. Program IDs are unique, so the order
// is total and reproducible.
func sortBucket(bucket []ProgramMatchResult) {
	sort.Slice(bucket, func(i, j int) bool {
		if bucket[i].FitScore != bucket[j].FitScore {
			return bucket[i].FitScore > bucket[j].FitScore
		}
		if bucket[i].ProgramPriority != bucket[j].ProgramPriority {
			return bucket[i].ProgramPriority < bucket[j].ProgramPriority
		}
		return bucket[i].ProgramID < bucket[j].ProgramID
	})
}

// bestMatch picks the eligible result with the highest fit score, breaking
// ties by lower program priority and then lender name. Returns nil when no
// program is eligible.
func bestMatch(eligible []ProgramMatchResult) *ProgramMatchResult {
	if len(eligible) == 0 {
		return nil
	}
	best := eligible[0]
	for _, r := range eligible[1:] {
		if r.FitScore > best.FitScore {
			best = r
			continue
		}
		if r.FitScore == best.FitScore {
			if r.ProgramPriority < best.ProgramPriority ||
				(r.ProgramPriority == best.ProgramPriority && r.LenderName < best.LenderName) {
				best = r
			}
		}
	}
	return &best
}
