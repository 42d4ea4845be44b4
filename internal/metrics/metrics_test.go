package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Predicted("retain")
	m.Predicted("retain")
	m.Predicted("churn")
	m.AssetFetched("fireworks", true)
	m.AssetFetched("chatbot", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues("retain")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("churn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assets.WithLabelValues("fireworks", "loaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assets.WithLabelValues("chatbot", "absent")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Predicted("churn")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `churnform_predictions_total{outcome="churn"} 1`)
}
