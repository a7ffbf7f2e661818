package catalog

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gwcatalog/internal/dataprocessing"
	"gwcatalog/internal/errors"
	"gwcatalog/internal/infrastructure"
	"gwcatalog/pkg/contracts/domain"
)

// ErrorPolicy decides what a failing event does to the run.
type ErrorPolicy string

const (
	// ErrorPolicySkip reports the failure and leaves the event out.
	ErrorPolicySkip ErrorPolicy = "skip"
	// ErrorPolicyHalt stops at the first failure.
	ErrorPolicyHalt ErrorPolicy = "halt"
)

// ParseErrorPolicy resolves a policy name. Empty means skip.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ErrorPolicySkip:
		return ErrorPolicySkip, nil
	case ErrorPolicyHalt:
		return ErrorPolicyHalt, nil
	default:
		return "", errors.NewConfigError(fmt.Sprintf("unknown error policy %q", s), nil)
	}
}

// EventSummarizer is the per-event step the assembler drives.
type EventSummarizer interface {
	SummarizeEvent(ctx context.Context, producer domain.Producer, name string, raw *dataprocessing.SampleTable) (domain.EventSummary, error)
}

// Options configures an Assembler.
type Options struct {
	Producer domain.Producer
	Policy   ErrorPolicy
	Workers  int
}

// Result is the outcome of one assembly run.
type Result struct {
	RunID    string
	Producer domain.Producer
	Document *domain.CatalogDocument
	Failures []errors.FailureReport
}

// Assembler builds a catalog document from a stream of events.
type Assembler struct {
	summarizer EventSummarizer
	logger     *slog.Logger
	opts       Options
}

// NewAssembler validates opts and returns an assembler.
func NewAssembler(summarizer EventSummarizer, logger *slog.Logger, opts Options) (*Assembler, error) {
	if summarizer == nil {
		return nil, errors.NewConfigError("assembler needs a summarizer", nil)
	}
	if _, err := domain.ParseProducer(string(opts.Producer)); err != nil {
		return nil, errors.NewConfigError("assembler producer", err)
	}
	policy, err := ParseErrorPolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}
	opts.Policy = policy
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Assembler{
		summarizer: summarizer,
		logger:     infrastructure.WithComponent(logger, "assembler"),
		opts:       opts,
	}, nil
}

type outcome struct {
	summary domain.EventSummary
	err     error
	done    bool
}

// Assemble summarizes every event of source. Under ErrorPolicyHalt the first
// failure is returned as the error and no result is produced.
func (a *Assembler) Assemble(ctx context.Context, source EventSource) (*Result, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	start := time.Now()

	events, err := source.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if err := checkUniqueNames(events); err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "assembling catalog",
		slog.String("producer", string(a.opts.Producer)),
		slog.Int("events", len(events)),
		slog.String("policy", string(a.opts.Policy)),
		slog.Int("workers", a.opts.Workers))

	outcomes := make([]outcome, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)

	for i, event := range events {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			summary, err := a.summarize(gctx, event)
			outcomes[i] = outcome{summary: summary, err: err, done: true}
			if err != nil && a.opts.Policy == ErrorPolicyHalt {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.logger.ErrorContext(ctx, "catalog run halted", slog.String("error", err.Error()))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:    infrastructure.GetRunID(ctx),
		Producer: a.opts.Producer,
		Document: domain.NewCatalogDocument(),
	}
	for i, event := range events {
		o := outcomes[i]
		if !o.done {
			continue
		}
		if o.err != nil {
			result.Failures = append(result.Failures, errors.Report(event.Name, o.err))
			continue
		}
		result.Document.Events[event.Name] = o.summary
	}

	a.logger.InfoContext(ctx, "catalog assembled",
		slog.Int("summarized", len(result.Document.Events)),
		slog.Int("failed", len(result.Failures)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (a *Assembler) summarize(ctx context.Context, event Event) (domain.EventSummary, error) {
	ctx = infrastructure.WithEvent(ctx, event.Name)

	table, err := event.Load(ctx)
	if err != nil {
		var eventErr *errors.EventError
		if !stderrors.As(err, &eventErr) {
			err = errors.NewEventError(event.Name, errors.StepLoad, err)
		}
		a.logger.WarnContext(ctx, "event load failed", slog.String("error", err.Error()))
		return domain.EventSummary{}, err
	}
	return a.summarizer.SummarizeEvent(ctx, a.opts.Producer, event.Name, table)
}

func checkUniqueNames(events []Event) error {
	seen := make(map[string]struct{}, len(events))
	for _, event := range events {
		if event.Name == "" {
			return errors.NewInputError("", "event with empty name")
		}
		if _, dup := seen[event.Name]; dup {
			return errors.NewInputError("", fmt.Sprintf("event %s listed twice", event.Name))
		}
		seen[event.Name] = struct{}{}
	}
	return nil
}
