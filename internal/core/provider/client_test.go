package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gifswap/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const faceData = "data:image/jpeg;base64,Zm9v"

func TestSubmitCreatesPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/predictions", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body struct {
			Version string                 `json:"version"`
			Input   map[string]interface{} `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v42", body.Version)
		assert.Equal(t, faceData, body.Input["source_image"])
		assert.Equal(t, "https://gifs.example/g1.gif", body.Input["target"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "starting"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "test-token", ModelVersion: "v42"})
	job, err := c.Submit(context.Background(), faceData, "https://gifs.example/g1.gif")
	require.NoError(t, err)
	assert.Equal(t, "pred-1", job.ID)
	assert.Equal(t, StateCreated, job.State)
	assert.False(t, job.State.Terminal())
}

func TestStatusParsesOutputShapes(t *testing.T) {
	responses := []string{
		`{"id":"p","status":"succeeded","output":"https://cdn.example/out.gif"}`,
		`{"id":"p","status":"succeeded","output":["https://cdn.example/out.gif","https://cdn.example/alt.gif"]}`,
	}
	for _, resp := range responses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/predictions/p", r.URL.Path)
			_, _ = w.Write([]byte(resp))
		}))
		c := NewClient(Config{BaseURL: srv.URL})
		job, err := c.Status(context.Background(), "p")
		srv.Close()
		require.NoError(t, err)
		assert.Equal(t, StateSucceeded, job.State)
		assert.True(t, job.State.Terminal())
		assert.Equal(t, "https://cdn.example/out.gif", job.OutputURL)
	}
}

func TestSubmitClassifies402(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":"insufficient credit"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Submit(context.Background(), faceData, "https://gifs.example/g1.gif")
	require.Error(t, err)
	assert.Equal(t, apperror.KindPaymentRequired, apperror.KindOf(err))
}

func TestStatusFailedPredictionCarriesKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p","status":"failed","error":"face detection timeout"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	job, err := c.Status(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, job.State)
	assert.Equal(t, apperror.KindTimeoutError, job.ErrorKind)
	assert.Equal(t, "face detection timeout", job.ErrorMsg)
}

func TestStatusFailedWithoutDetailIsModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p","status":"failed"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	job, err := c.Status(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, apperror.KindModelError, job.ErrorKind)
}

func TestStateWireRoundTrip(t *testing.T) {
	assert.Equal(t, "starting", StateCreated.Wire())
	assert.Equal(t, "processing", StateRunning.Wire())
	assert.Equal(t, "succeeded", StateSucceeded.Wire())
	assert.Equal(t, StateCreated, stateFromWire("starting"))
	assert.Equal(t, StateRunning, stateFromWire("processing"))
	assert.Equal(t, StateCanceled, stateFromWire("canceled"))
}
