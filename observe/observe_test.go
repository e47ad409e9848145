package observe

import (
	"context"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	ez "github.com/tef/ezpeg"
	"github.com/tef/ezpeg/input"
)

// "ab": Sequence, "a", Choice, "x" (fails), "b"
func testRoot() *ez.Rule {
	return ez.Sequence(ez.Literal("a"), ez.Choice(ez.Literal("x"), ez.Literal("b")))
}

func TestLogger(t *testing.T) {
	for _, tc := range []struct {
		verbosity int
		messages  int
	}{
		{0, 0},
		{1, 2},
		{4, 12},
	} {
		var lines []string
		log := funcr.New(func(prefix, args string) {
			lines = append(lines, args)
		}, funcr.Options{Verbosity: tc.verbosity})

		res, err := ez.Parse(testRoot(), "ab", ez.WithObserver(NewLogger(log)))
		require.NoError(t, err)
		assert.True(t, res.MatchedEntireInput)
		assert.Len(t, lines, tc.messages, "verbosity %d: %v", tc.verbosity, lines)
	}
}

func TestLoggerError(t *testing.T) {
	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	root := ez.Action(func(c *ez.Context) bool {
		c.Pop()
		return true
	})
	_, err := ez.Parse(root, "", ez.WithObserver(NewLogger(log)))
	require.Error(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "parse aborted")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	runner, err := ez.NewRunner(testRoot(), ez.WithObserver(m))
	require.NoError(t, err)
	for _, s := range []string{"ab", "ab!", "b"} {
		_, err := runner.Parse(s)
		require.NoError(t, err)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.parses.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parses.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parses.WithLabelValues("failed")))
	// "a" and "b" twice each, "x" failed twice, "a" failed once
	assert.Equal(t, 4.0, testutil.ToFloat64(m.rules.WithLabelValues("Literal", "matched")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.rules.WithLabelValues("Literal", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rules.WithLabelValues("Sequence", "matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rules.WithLabelValues("Sequence", "failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice")
	m.Unregister(reg)
	_, err = NewMetrics(reg)
	assert.NoError(t, err)
}

func TestTracing(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	defer tp.Shutdown(context.Background())

	runner, err := ez.NewRunner(ez.Named("pair", testRoot()), ez.WithObserver(NewTracing(tp)))
	require.NoError(t, err)

	ctx, outer := tp.Tracer("test").Start(context.Background(), "outer")
	res, err := runner.Run(ctx, input.FromString("ab"))
	outer.End()
	require.NoError(t, err)
	require.True(t, res.MatchedEntireInput)

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	parse := spans[0]
	assert.Equal(t, "ez.parse", parse.Name)
	assert.Equal(t, outer.SpanContext().SpanID(), parse.Parent.SpanID())

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range parse.Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "pair", attrs["ez.rule"].AsString())
	assert.Equal(t, int64(2), attrs["ez.input.length"].AsInt64())
	assert.Equal(t, int64(4), attrs["ez.rule.matches"].AsInt64())
	assert.True(t, attrs["ez.matched"].AsBool())
	assert.Equal(t, int64(2), attrs["ez.consumed"].AsInt64())
}

func TestTracingError(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	defer tp.Shutdown(context.Background())

	root := ez.Action(func(c *ez.Context) bool {
		c.Swap()
		return true
	})
	_, err := ez.Parse(root, "x", ez.WithObserver(NewTracing(tp)))
	require.Error(t, err)

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	res, err := ez.Parse(testRoot(), "ab", ez.WithObserver(rec))
	require.NoError(t, err)
	require.True(t, res.MatchedEntireInput)

	assert.Equal(t, []Step{
		{Rule: "Sequence", Kind: ez.SequenceKind, Level: 0, Start: 0, End: 2, Matched: true},
		{Rule: "Literal", Kind: ez.LiteralKind, Level: 1, Start: 0, End: 1, Matched: true},
		{Rule: "Choice", Kind: ez.ChoiceKind, Level: 1, Start: 1, End: 2, Matched: true},
		{Rule: "Literal", Kind: ez.LiteralKind, Level: 2, Start: 1, End: -1},
		{Rule: "Literal", Kind: ez.LiteralKind, Level: 2, Start: 1, End: 2, Matched: true},
	}, rec.Steps())

	// steps are reset for every parse
	_, err = ez.Parse(ez.TestNot(ez.Literal("a")), "b", ez.WithObserver(rec))
	require.NoError(t, err)
	steps := rec.Steps()
	require.Len(t, steps, 2)
	assert.False(t, steps[0].InPredicate)
	assert.True(t, steps[1].InPredicate)
	assert.Equal(t, 0, steps[0].End)
}
