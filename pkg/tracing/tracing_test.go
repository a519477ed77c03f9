package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := NewProvider("progress-engine-test", 1, sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return recorder
}

func TestStartAndFail(t *testing.T) {
	recorder := installRecorder(t)

	_, span := Start(context.Background(), "achievements.evaluate", map[string]uint{"user.id": 42})
	err := Fail(span, errors.New("store down"))
	span.End()

	assert.EqualError(t, err, "store down")
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "achievements.evaluate", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Attributes(), 1)
	assert.EqualValues(t, 42, spans[0].Attributes()[0].Value.AsInt64())

	_, span = Start(context.Background(), "noop", nil)
	assert.NoError(t, Fail(span, nil))
	span.End()
}

func TestGinMiddlewareNamesSpanByRoute(t *testing.T) {
	recorder := installRecorder(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/users/:userId/achievements", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/7/achievements", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/users/:userId/achievements", spans[0].Name())
}
