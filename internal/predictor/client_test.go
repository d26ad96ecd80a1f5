package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iliyamo/maternal-health/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestClient points a client at baseURL and records backoff waits
// instead of sleeping.
func newTestClient(t *testing.T, baseURL string, retries int) (*Client, *[]time.Duration) {
	t.Helper()
	c := New(config.PredictorConfig{BaseURL: baseURL + "/", Timeout: 2 * time.Second, RetryOnNetwork: retries})
	waits := &[]time.Duration{}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return ctx.Err()
	}
	t.Cleanup(c.http.CloseIdleConnections)
	return c, waits
}

func TestPredictSendsRecordAndDecodesResult(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"predictions":[{"flag_anemia":1,"_input_id":12}],
			"probabilities":[{"prob_anemia":0.83,"_input_id":12}],
			"risk":[0.61],
			"columns":{"flags":["flag_anemia"],"probabilities":["prob_anemia"]},
			"input_ids":[12]
		}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, 1)
	assert.Equal(t, srv.URL, c.BaseURL())

	res, err := c.Predict(context.Background(), map[string]any{"id": 12, "name": "Asha"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, true, got["include_id"])
	assert.Equal(t, "Asha", got["data"].(map[string]any)["name"])

	require.Len(t, res.Predictions, 1)
	assert.EqualValues(t, 1, res.Predictions[0]["flag_anemia"])
	assert.Equal(t, []string{"flag_anemia"}, res.Columns.Flags)
	risk, ok := res.RiskScore()
	assert.True(t, ok)
	assert.InDelta(t, 0.61, risk, 1e-9)
}

func TestPredictExcludeID(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"predictions":[],"probabilities":[],"risk":[],"columns":{"flags":[],"probabilities":[]}}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, 0)
	res, err := c.Predict(context.Background(), []any{}, Options{ExcludeID: true})
	require.NoError(t, err)
	assert.Equal(t, false, got["include_id"])
	_, ok := res.RiskScore()
	assert.False(t, ok)
}

func TestPredictHTTPErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Prediction failed: bad age"}`))
	}))
	defer srv.Close()

	c, waits := newTestClient(t, srv.URL, 3)
	_, err := c.Predict(context.Background(), map[string]any{"id": 1}, Options{})
	require.Error(t, err)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusBadRequest, pe.Status)
	assert.Equal(t, "Prediction failed: bad age", pe.Detail)
	assert.Equal(t, srv.URL+"/predict", pe.URL)
	assert.EqualValues(t, 1, hits.Load())
	assert.Empty(t, *waits)
}

func TestPredictPlainErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, 0)
	_, err := c.Predict(context.Background(), map[string]any{}, Options{})
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Bad Gateway", pe.Detail)
}

func TestPredictRetriesConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, waits := newTestClient(t, base, 2)
	_, err := c.Predict(context.Background(), map[string]any{"id": 3}, Options{})
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Zero(t, pe.Status)
	assert.Contains(t, pe.Detail, "No response from prediction service")
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, *waits)
}

func TestPredictTimeoutIsNotRetried(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, waits := newTestClient(t, srv.URL, 2)
	_, err := c.Predict(context.Background(), map[string]any{}, Options{Timeout: 50 * time.Millisecond})
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Detail, "No response from prediction service")
	assert.Empty(t, *waits)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","model_load_error":null}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, 0)
	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.OK())

	msg := "missing clf.joblib"
	assert.False(t, (&Health{Status: "ok", ModelLoadError: &msg}).OK())
}

func TestIsNetworkError(t *testing.T) {
	assert.False(t, isNetworkError(nil))
	assert.False(t, isNetworkError(context.DeadlineExceeded))
	assert.False(t, isNetworkError(errors.New("boom")))
}
