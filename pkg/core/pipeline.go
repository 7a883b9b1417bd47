package core

import (
	"context"
	"time"

	"github.com/go-drift/drift/pkg/errors"
	"github.com/go-drift/drift/pkg/layout"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// meter is the package-wide OTel meter used to record frame pipeline
// instrumentation. Embedders that wire up an otel.MeterProvider get
// frame/build/layout/paint duration histograms for free; without one,
// the global no-op provider makes these calls free no-ops.
var meter = otel.Meter("github.com/go-drift/drift/pkg/core")

// tracer is the package-wide OTel tracer for the frame/build/layout/paint
// spans RunFrame opens. Like meter, this is a free no-op without a
// configured TracerProvider.
var tracer trace.Tracer = otel.Tracer("github.com/go-drift/drift/pkg/core")

// PipelineMetrics records per-phase frame timings as OTel histograms.
// Construct once per process (or per PipelineOwner, if running several
// independent trees) and pass to RunFrame.
type PipelineMetrics struct {
	frameDuration  metric.Float64Histogram
	buildDuration  metric.Float64Histogram
	layoutDuration metric.Float64Histogram
	paintDuration  metric.Float64Histogram
}

// NewPipelineMetrics registers the frame pipeline's histograms against the
// package meter.
func NewPipelineMetrics() *PipelineMetrics {
	frame, _ := meter.Float64Histogram("drift.frame.duration",
		metric.WithDescription("time spent producing a frame"),
		metric.WithUnit("ms"))
	build, _ := meter.Float64Histogram("drift.frame.build_duration",
		metric.WithDescription("time spent in the build phase"),
		metric.WithUnit("ms"))
	layout, _ := meter.Float64Histogram("drift.frame.layout_duration",
		metric.WithDescription("time spent in the layout phase"),
		metric.WithUnit("ms"))
	paint, _ := meter.Float64Histogram("drift.frame.paint_duration",
		metric.WithDescription("time spent in the paint phase"),
		metric.WithUnit("ms"))
	return &PipelineMetrics{
		frameDuration:  frame,
		buildDuration:  build,
		layoutDuration: layout,
		paintDuration:  paint,
	}
}

func (m *PipelineMetrics) record(ctx context.Context, h metric.Float64Histogram, start time.Time, phase string) {
	if m == nil || h == nil {
		return
	}
	h.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(attribute.String("phase", phase)))
}

// CancellationToken lets a caller abort a frame that's taking too long
// (e.g. a watchdog on a platform thread). RunFrame checks it before the
// build phase and, under PolicyPropagate only, again after the build and
// layout phases; it is not checked between elements inside a phase and
// does not preempt a phase already in progress.
type CancellationToken struct {
	cancelled chan struct{}
}

// NewCancellationToken constructs a token that starts uncancelled.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{cancelled: make(chan struct{})}
}

// Cancel marks the token cancelled. Safe to call more than once.
func (c *CancellationToken) Cancel() {
	select {
	case <-c.cancelled:
	default:
		close(c.cancelled)
	}
}

// Cancelled reports whether Cancel has been called.
func (c *CancellationToken) Cancelled() bool {
	select {
	case <-c.cancelled:
		return true
	default:
		return false
	}
}

// ErrorRecoveryPolicy controls what RunFrame does when the build phase
// panics or the cancellation token fires partway through a frame.
type ErrorRecoveryPolicy int

const (
	// PolicySubstitutePlaceholder recovers a panic that escapes the build
	// phase (reporting it through pkg/errors) and runs every remaining phase
	// regardless of errors already reported this frame, relying on
	// safeBuild's per-widget error-widget substitution to keep the rest of
	// the tree rendering (the default).
	PolicySubstitutePlaceholder ErrorRecoveryPolicy = iota
	// PolicyPropagate lets a panic that escapes the build phase propagate
	// out of RunFrame, and stops the frame after the build or layout phase
	// when the token has been cancelled, instead of continuing with a
	// partially built/laid-out/painted tree. Build errors that safeBuild
	// has already replaced with an error widget do not stop the frame.
	PolicyPropagate
)

// RunFrame drives one full frame: flush pending builds, then layout, then
// paint, in that order (spec.md §4.6's Build -> Layout -> Paint pipeline).
// paint is invoked once per dirty repaint boundary with that boundary's
// render object; building a PaintContext for it is the caller's job since
// only the caller knows how to get a platform Canvas.
func RunFrame(
	ctx context.Context,
	owner *BuildOwner,
	root layout.RenderObject,
	rootConstraints layout.Constraints,
	paint func(layout.RenderObject),
	metrics *PipelineMetrics,
	token *CancellationToken,
	policy ErrorRecoveryPolicy,
) {
	ctx, frameSpan := tracer.Start(ctx, "drift.frame")
	defer frameSpan.End()

	frameStart := time.Now()
	defer metrics.record(ctx, metrics.frameDuration, frameStart, "frame")

	if token.cancelledOrNil() {
		return
	}
	buildStart := time.Now()
	func() {
		_, buildSpan := tracer.Start(ctx, "drift.frame.build")
		defer buildSpan.End()
		if policy != PolicyPropagate {
			defer errors.RecoverWithCallback("core.RunFrame.build", func(r any) {
				errors.ReportPanic(&errors.PanicError{Op: "core.RunFrame.build", Value: r, StackTrace: errors.CaptureStack(), Timestamp: time.Now()})
			})
		}
		owner.FlushBuild()
	}()
	metrics.record(ctx, metrics.buildDuration, buildStart, "build")
	if policy == PolicyPropagate && token.cancelledOrNil() {
		return
	}

	pipeline := owner.Pipeline()
	layoutStart := time.Now()
	if pipeline.NeedsLayout() || pipeline.NeedsFirstLayout() {
		_, layoutSpan := tracer.Start(ctx, "drift.frame.layout")
		if pipeline.NeedsFirstLayout() {
			// The first frame has no relayout boundaries established yet
			// for the dirty set to key off of, so lay out the whole tree
			// from the root unconditionally (spec.md §4.6.1).
			pipeline.FlushLayoutForRoot(root, rootConstraints)
		} else {
			// Every later frame is dirty-set driven: only the render
			// objects actually marked dirty (and their relayout
			// boundaries) get relaid out (spec.md §4.6.4).
			pipeline.FlushLayout()
		}
		layoutSpan.End()
	}
	metrics.record(ctx, metrics.layoutDuration, layoutStart, "layout")
	if policy == PolicyPropagate && token.cancelledOrNil() {
		return
	}

	paintStart := time.Now()
	if pipeline.NeedsPaint() {
		_, paintSpan := tracer.Start(ctx, "drift.frame.paint")
		pipeline.FlushPaint(paint)
		paintSpan.End()
	}
	metrics.record(ctx, metrics.paintDuration, paintStart, "paint")
}

func (c *CancellationToken) cancelledOrNil() bool {
	return c != nil && c.Cancelled()
}
