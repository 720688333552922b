package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

const (
	metricEventsPublished   = "listdelta.events.published.total"
	metricChangesRecorded   = "listdelta.changes.recorded.total"
	metricListenersNotified = "listdelta.listeners.notified.total"
	metricStoreSwitches     = "listdelta.store.switches.total"
	metricEventBlocks       = "listdelta.event.blocks"

	attrStore = "store"
	attrKind  = "kind"
)

// blockBuckets spans single-element edits up to bulk loads.
var blockBuckets = []float64{0, 1, 2, 4, 8, 16, 64, 256, 1024, 4096}

// AssemblerMetrics holds the OTel instruments fed by assemblers. It
// implements listevent.Recorder.
type AssemblerMetrics struct {
	eventsPublished   metric.Int64Counter
	changesRecorded   metric.Int64Counter
	listenersNotified metric.Int64Counter
	storeSwitches     metric.Int64Counter
	eventBlocks       metric.Int64Histogram
}

var _ listevent.Recorder = (*AssemblerMetrics)(nil)

// NewAssemblerMetrics creates the assembler instruments from mt.
func NewAssemblerMetrics(mt metric.Meter) (*AssemblerMetrics, error) {
	var errs []error

	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := mt.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", name, err))
		}

		return c
	}

	am := &AssemblerMetrics{
		eventsPublished:   counter(metricEventsPublished, "Events published by outermost commits", "{event}"),
		changesRecorded:   counter(metricChangesRecorded, "Elements reported changed, by kind", "{element}"),
		listenersNotified: counter(metricListenersNotified, "Listener notifications delivered", "{notification}"),
		storeSwitches:     counter(metricStoreSwitches, "Transactions moved from the block list to the tree", "{switch}"),
	}

	blocks, err := mt.Int64Histogram(metricEventBlocks,
		metric.WithDescription("Change blocks per published event"),
		metric.WithUnit("{block}"),
		metric.WithExplicitBucketBoundaries(blockBuckets...))
	if err != nil {
		errs = append(errs, fmt.Errorf("create %s: %w", metricEventBlocks, err))
	}

	am.eventBlocks = blocks

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return am, nil
}

// RecordChange counts length elements of kind. Safe on a nil receiver.
func (am *AssemblerMetrics) RecordChange(ctx context.Context, kind string, length int) {
	if am == nil {
		return
	}

	am.changesRecorded.Add(ctx, int64(length), metric.WithAttributes(attribute.String(attrKind, kind)))
}

// RecordStoreSwitch counts one switch to the tree store. Safe on a nil
// receiver.
func (am *AssemblerMetrics) RecordStoreSwitch(ctx context.Context) {
	if am == nil {
		return
	}

	am.storeSwitches.Add(ctx, 1)
}

// RecordPublish counts one published event. Safe on a nil receiver.
func (am *AssemblerMetrics) RecordPublish(ctx context.Context, store string, blocks, listeners int) {
	if am == nil {
		return
	}

	am.eventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStore, store)))
	am.listenersNotified.Add(ctx, int64(listeners))
	am.eventBlocks.Record(ctx, int64(blocks), metric.WithAttributes(attribute.String(attrStore, store)))
}
