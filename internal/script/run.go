package script

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/listdelta/pkg/eventcodec"
	"github.com/Sumatoshi-tech/listdelta/pkg/eventlist"
	"github.com/Sumatoshi-tech/listdelta/pkg/listdiff"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
	"github.com/Sumatoshi-tech/listdelta/pkg/persistent"
)

const tracerName = "listdelta/script"

// ErrReplayMismatch is returned when a published event, replayed onto the
// contents before its step, does not give the contents after it.
var ErrReplayMismatch = errors.New("event does not replay to the resulting list")

// Result is the outcome of a run.
type Result struct {
	Name    string              `json:"name,omitempty"`
	Records []eventcodec.Record `json:"records"`
	Final   []string            `json:"final"`
	Steps   int                 `json:"steps"`
}

// Runner executes scripts.
type Runner struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	assembler []listevent.Option
	store     *persistent.Store[string]
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer used for run spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithAssemblerOptions configures the assembler of every list the runner
// creates.
func WithAssemblerOptions(opts ...listevent.Option) Option {
	return func(r *Runner) {
		r.assembler = append(r.assembler, opts...)
	}
}

// WithStore makes lazy scripts load from store when a load step carries no
// values, and save their final contents back to it.
func WithStore(store *persistent.Store[string]) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// NewRunner returns a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// target abstracts over the eager and the lazy list.
type target interface {
	step(ctx context.Context, st Step) error
	slice() []string
	addListener(l listevent.Listener)
}

// Run executes s and returns every published event. Each event is checked
// by replaying it onto the contents before its step.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "script.run", trace.WithAttributes(
		attribute.String("script.name", s.Name),
		attribute.Int("script.steps", len(s.Steps)),
		attribute.Bool("script.lazy", s.Lazy),
	))
	defer span.End()

	res, err := r.run(ctx, s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.Int("script.events", len(res.Records)))

	return res, nil
}

func (r *Runner) run(ctx context.Context, s *Script) (*Result, error) {
	var t target

	if s.Lazy {
		t = &lazyTarget{list: persistent.New[string](r.assembler...), store: r.store}
	} else {
		t = &eagerTarget{list: eventlist.Of(s.Initial, r.assembler...)}
	}

	sink := &eventcodec.Sink{}
	t.addListener(sink)

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		before := t.slice()
		published := len(sink.Records)

		err := t.step(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}

		err = verify(before, t.slice(), sink.Records[published:])
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}

		r.logger.DebugContext(ctx, "script step done", "step", i+1, "op", st.Op, "events", len(sink.Records)-published)
	}

	if lt, ok := t.(*lazyTarget); ok && lt.store != nil && lt.list.IsInitialized() {
		err := persistent.Save(lt.store, lt.list)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Name: s.Name, Records: sink.Records, Final: t.slice(), Steps: len(s.Steps)}, nil
}

func verify(before, after []string, records []eventcodec.Record) error {
	switch len(records) {
	case 0:
		if !slices.Equal(before, after) {
			return fmt.Errorf("%w: list changed without an event", ErrReplayMismatch)
		}

		return nil
	case 1:
	default:
		return fmt.Errorf("%w: %d events for one step", ErrReplayMismatch, len(records))
	}

	e, err := records[0].Event(nil)
	if err != nil {
		return err
	}

	replayed, err := listdiff.Apply(before, e, after)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReplayMismatch, err)
	}

	if !slices.Equal(replayed, after) {
		return fmt.Errorf("%w: got %q, want %q", ErrReplayMismatch, replayed, after)
	}

	return nil
}

type eagerTarget struct {
	list *eventlist.List[string]
}

func (t *eagerTarget) step(_ context.Context, st Step) error {
	return apply(t.list, st)
}

func (t *eagerTarget) slice() []string { return t.list.Slice() }

func (t *eagerTarget) addListener(l listevent.Listener) { t.list.AddListener(l) }

type lazyTarget struct {
	list  *persistent.LazyList[string]
	store *persistent.Store[string]
}

func (t *lazyTarget) step(ctx context.Context, st Step) error {
	if st.Op != OpLoad {
		return t.list.Update(func(items *eventlist.List[string]) error {
			return apply(items, st)
		})
	}

	var loader persistent.Loader[string] = persistent.SliceLoader(st.items())
	if len(st.items()) == 0 && t.store != nil {
		loader = t.store
	}

	return t.list.Initialize(ctx, loader)
}

func (t *lazyTarget) slice() []string {
	items, err := t.list.Slice()
	if err != nil {
		return nil
	}

	return items
}

func (t *lazyTarget) addListener(l listevent.Listener) { t.list.AddListener(l) }

func apply(l *eventlist.List[string], st Step) error {
	switch st.Op {
	case OpInsert:
		return l.InsertAll(st.Index, st.items()...)
	case OpAdd:
		return l.AddAll(st.items()...)
	case OpSet:
		_, err := l.Set(st.Index, *st.Value)

		return err
	case OpRemove:
		_, err := l.Remove(st.Index)

		return err
	case OpRemoveRange:
		return l.RemoveRange(st.From, st.To)
	case OpClear:
		return l.Clear()
	case OpSort:
		if st.Order == OrderDesc {
			return l.SortFunc(func(a, b string) int { return cmp.Compare(b, a) })
		}

		return l.SortFunc(cmp.Compare[string])
	case OpBatch:
		return l.Batch(func() error {
			for _, nested := range st.Steps {
				err := apply(l, nested)
				if err != nil {
					return err
				}
			}

			return nil
		})
	default:
		return fmt.Errorf("%w: %s inside a list update", ErrInvalidScript, st.Op)
	}
}
