package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gifswap/internal/apperror"
	"gifswap/internal/core/provider"
	"gifswap/internal/core/swap"
	"gifswap/internal/platform/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises the full submit + poll path through a real swap service: the first
// pair resolves after two in-flight polls, the second never reaches the
// provider because its URL is malformed.
func TestBatchOverRealSwapService(t *testing.T) {
	var statusCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "starting"})
			return
		}
		n := atomic.AddInt32(&statusCalls, 1)
		if n < 3 {
			json.NewEncoder(w).Encode(map[string]any{"id": "pred-1", "status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "pred-1", "status": "succeeded", "output": "https://cdn.example/result-1.gif",
		})
	}))
	defer srv.Close()

	svc := swap.NewService(provider.NewClient(provider.Config{BaseURL: srv.URL, Token: "t"}), swap.PollOptions{
		Interval:    time.Millisecond,
		Timeout:     time.Second,
		MaxAttempts: 10,
	})
	o := NewOrchestrator(svc, 1)

	var published []Progress
	pairs := []Pair{
		{TargetGifURL: "https://gifs.example/dance.gif", SourceImage: faceA},
		{TargetGifURL: "not a url", SourceImage: faceA},
	}
	slots := o.Run(context.Background(), pairs, func(p Progress) { published = append(published, p) })

	require.Len(t, slots, 2)
	assert.Equal(t, SlotSucceeded, slots[0].State)
	assert.Equal(t, "https://cdn.example/result-1.gif", slots[0].MediaURL)
	assert.Equal(t, SlotFailed, slots[1].State)
	assert.Equal(t, apperror.KindBadRequest, slots[1].ErrorKind)

	require.Len(t, published, 2)
	assert.Equal(t, 2, published[1].CompletedCount)
	assert.Equal(t, "1 succeeded, 1 failed", published[1].StatusText)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&statusCalls), int32(3))
}

func TestPairsFlattensSharedMode(t *testing.T) {
	pairs := Pairs(api.BatchCreateRequest{
		SourceImageData: faceA,
		TargetGifUrls:   []string{"https://g.example/0.gif", "https://g.example/1.gif"},
	})

	require.Len(t, pairs, 2)
	for i, p := range pairs {
		assert.Equal(t, faceA, p.SourceImage)
		assert.Equal(t, fmt.Sprintf("https://g.example/%d.gif", i), p.TargetGifURL)
	}
}

func TestPairsModeWinsOverSharedFields(t *testing.T) {
	pairs := Pairs(api.BatchCreateRequest{
		SourceImageData: faceA,
		TargetGifUrls:   []string{"https://ignored.example/x.gif"},
		Pairs: []api.BatchPair{
			{SourceImageData: "data:image/png;base64,YQ==", TargetGifUrl: "https://g.example/a.gif"},
			{SourceImageData: "", TargetGifUrl: "https://g.example/b.gif"},
		},
	})

	require.Len(t, pairs, 2)
	assert.Equal(t, "https://g.example/a.gif", pairs[0].TargetGifURL)
	assert.Equal(t, "data:image/png;base64,YQ==", pairs[0].SourceImage)
	assert.Equal(t, "", pairs[1].SourceImage, "a pair without a face stays faceless, it does not inherit the shared one")
}
