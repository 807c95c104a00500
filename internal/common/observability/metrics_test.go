package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoop(t *testing.T) {
	o := NewNoop()

	ctx, end := o.StartSpan(context.Background(), "analyst.turn", attribute.String("turnId", "t-1"))
	assert.NotNil(t, ctx)
	end(fmt.Errorf("store down"))

	o.RecordTurn(context.Background(), "Responded", 120*time.Millisecond)
	assert.NoError(t, o.Shutdown())
}

func TestZeroValue(t *testing.T) {
	var o Observability

	_, end := o.StartSpan(context.Background(), "analyst.retrieve")
	end(nil)
	o.RecordTurn(context.Background(), "NoData", time.Millisecond)
	assert.NoError(t, o.Shutdown())
}

func TestNew_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	o := New("workforce-analyst-test", recorder)
	t.Cleanup(func() { _ = o.Shutdown() })

	ctx, endTurn := o.StartSpan(context.Background(), "analyst.turn")
	_, endRetrieve := o.StartSpan(ctx, "analyst.retrieve", attribute.String("query", "SELECT * FROM c"))
	endRetrieve(fmt.Errorf("store down"))
	endTurn(nil)
	o.RecordTurn(ctx, "Failed", 5*time.Millisecond)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "analyst.retrieve", spans[0].Name())
	assert.Equal(t, "analyst.turn", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "store down", spans[0].Status().Description)
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}
