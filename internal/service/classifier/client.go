package classifier

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	xhttp "SentiPull/pkg/http"
)

// readinessTTL bounds how often Ready probes the model service.
const readinessTTL = 5 * time.Second

// Client implements domain repository.Classifier backed by an external
// model-serving HTTP endpoint. The model is opaque: POST /classify with a
// text, get back a label and a confidence.
type Client struct {
	baseURL  string
	client   *xhttp.Client
	retryMax int

	mu        sync.Mutex
	ready     bool
	lastProbe time.Time
}

// New creates a classifier client for the model service at baseURL.
func New(baseURL string, timeout time.Duration, retryMax int) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if retryMax < 1 {
		retryMax = 1
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		retryMax: retryMax,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify scores one text. Transient transport failures are retried with a
// short backoff; a still-failing call surfaces as ErrClassifierUnavailable.
func (c *Client) Classify(ctx context.Context, text string) (models.Classification, error) {
	var resp classifyResponse
	err := c.postJSON(ctx, "/classify", classifyRequest{Text: text}, &resp)
	if err != nil {
		c.setReady(false)
		return models.Classification{}, fmt.Errorf("%w: %v", domrepo.ErrClassifierUnavailable, err)
	}

	label := models.Label(strings.ToUpper(resp.Label))
	if !label.Valid() {
		return models.Classification{}, fmt.Errorf("%w: unknown label %q", domrepo.ErrClassifierUnavailable, resp.Label)
	}
	conf := resp.Score
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}

	c.setReady(true)
	return models.Classification{Label: label, Confidence: conf}, nil
}

// Ready reports whether the model service can currently be invoked. The probe
// result is cached for readinessTTL to keep /health cheap.
func (c *Client) Ready(ctx context.Context) bool {
	c.mu.Lock()
	if time.Since(c.lastProbe) < readinessTTL {
		ready := c.ready
		c.mu.Unlock()
		return ready
	}
	c.mu.Unlock()

	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/health",
	}, nil)
	c.setReady(err == nil)
	return err == nil
}

func (c *Client) setReady(ready bool) {
	c.mu.Lock()
	c.ready = ready
	c.lastProbe = time.Now()
	c.mu.Unlock()
}

// postJSON posts payload to path under baseURL with up to retryMax attempts.
func (c *Client) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	var err error
	for i := 1; i <= c.retryMax; i++ {
		err = c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    c.baseURL + path,
			Headers: map[string]string{
				"Content-Type": "application/json",
			},
			Body: payload,
		}, dest)
		if err == nil {
			return nil
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

var _ domrepo.Classifier = (*Client)(nil)
