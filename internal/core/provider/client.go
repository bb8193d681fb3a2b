// Package provider is the HTTP client for the generative face-swap service.
// The service follows the prediction pattern: submit returns an opaque job id,
// status is polled until terminal.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gifswap/internal/apperror"
	"gifswap/internal/logger"
)

type Config struct {
	BaseURL      string
	Token        string
	ModelVersion string
	Timeout      time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  logger.New("Provider"),
	}
}

type submitRequest struct {
	Version string                 `json:"version,omitempty"`
	Input   map[string]interface{} `json:"input"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  *string         `json:"error,omitempty"`
}

// Submit creates a prediction for one (face image, target GIF) pair.
func (c *Client) Submit(ctx context.Context, sourceImage, targetGifURL string) (*SwapJob, error) {
	body, err := json.Marshal(submitRequest{
		Version: c.cfg.ModelVersion,
		Input: map[string]interface{}{
			"source_image": sourceImage,
			"target":       targetGifURL,
		},
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindBadRequest, "could not encode submission", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(""), bytes.NewReader(body))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindBadRequest, "could not build submission request", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	defer resp.Body.Close()

	pr, err := c.decode(resp)
	if err != nil {
		return nil, err
	}
	if pr.ID == "" {
		return nil, apperror.New(apperror.KindModelError, "provider returned no prediction id")
	}
	c.log.LogDebugf("submitted prediction %s for %s", pr.ID, targetGifURL)
	return jobFromPrediction(pr), nil
}

// Status fetches the current state of a prediction. Safe to call on terminal
// jobs; the provider keeps returning the same terminal payload.
func (c *Client) Status(ctx context.Context, id string) (*SwapJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/"+id), nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindBadRequest, "could not build status request", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	defer resp.Body.Close()

	pr, err := c.decode(resp)
	if err != nil {
		return nil, err
	}
	return jobFromPrediction(pr), nil
}

func (c *Client) endpoint(suffix string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/predictions" + suffix
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}

func (c *Client) decode(resp *http.Response) (*predictionResponse, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.ClassifyResponse(resp.StatusCode, raw)
	}
	var pr predictionResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, apperror.Wrap(apperror.KindModelError, "provider returned malformed response", err)
	}
	return &pr, nil
}

func jobFromPrediction(pr *predictionResponse) *SwapJob {
	job := &SwapJob{
		ID:        pr.ID,
		State:     stateFromWire(pr.Status),
		RawStatus: pr.Status,
		OutputURL: outputURL(pr.Output),
	}
	if job.State == StateFailed {
		job.ErrorKind = apperror.KindModelError
		if pr.Error != nil {
			job.ErrorMsg = *pr.Error
			job.ErrorKind = apperror.Classify(fmt.Errorf("%s", *pr.Error)).Kind
			if job.ErrorKind == apperror.KindUnknown {
				job.ErrorKind = apperror.KindModelError
			}
		}
	}
	if job.State == StateCanceled {
		job.ErrorKind = apperror.KindModelError
		job.ErrorMsg = "prediction canceled"
	}
	return job
}

// outputURL tolerates the two shapes providers return: a bare URL string or an
// array of URLs (we take the first).
func outputURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
