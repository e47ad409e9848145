package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ez "github.com/tef/ezpeg"
)

const tracerName = "github.com/tef/ezpeg"

// Tracing opens one span per parse, a child of any span in the context
// given to Runner.Run.
type Tracing struct {
	ez.BaseObserver
	tracer trace.Tracer
}

var _ ez.Observer = (*Tracing)(nil)

func NewTracing(tp trace.TracerProvider) *Tracing {
	return &Tracing{tracer: tp.Tracer(tracerName)}
}

type spanKey struct{}

type parseSpan struct {
	span    trace.Span
	matches int
}

func (t *Tracing) BeforeParse(ev *ez.ParseEvent) {
	ctx := ev.Context
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := t.tracer.Start(ctx, "ez.parse", trace.WithAttributes(
		attribute.String("ez.rule", ev.Root.Label()),
		attribute.Int("ez.input.length", ev.Input.Len()),
	))
	ev.Set(spanKey{}, &parseSpan{span: span})
}

func (t *Tracing) MatchSuccess(c *ez.Context) {
	if ps, ok := c.Event().Get(spanKey{}).(*parseSpan); ok {
		ps.matches++
	}
}

func (t *Tracing) AfterParse(ev *ez.ParseEvent) {
	ps, ok := ev.Get(spanKey{}).(*parseSpan)
	if !ok {
		return
	}
	defer ps.span.End()

	ps.span.SetAttributes(attribute.Int("ez.rule.matches", ps.matches))
	if ev.Err != nil {
		ps.span.RecordError(ev.Err)
		ps.span.SetStatus(codes.Error, ev.Err.Error())
		return
	}
	ps.span.SetAttributes(
		attribute.Bool("ez.matched", ev.Result.Matched),
		attribute.Bool("ez.complete", ev.Result.MatchedEntireInput),
		attribute.Int("ez.consumed", ev.Result.Index),
	)
}
