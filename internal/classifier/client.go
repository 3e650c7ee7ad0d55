package classifier

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"catat-worker/internal/metrics"
	"catat-worker/internal/models"
)

// ErrUnavailable the service could not be reached or timed out
var ErrUnavailable = errors.New("classification service unavailable")

// ServiceError the service answered with a non-2xx status
type ServiceError struct {
	Status int
	Detail string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("classification service error (status: %d): %s", e.Status, e.Detail)
}

// Endpoints one URL per domain and modality
type Endpoints struct {
	MetalText    string
	MetalImage   string
	ExpenseText  string
	ExpenseImage string
}

// Client calls the external classification service. No retries at this layer.
type Client struct {
	httpClient *resty.Client
	endpoints  Endpoints
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewClient(endpoints Endpoints, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, endpoints: endpoints, metrics: m, logger: logger}
}

// ClassifyText sends free text for domain f
func (c *Client) ClassifyText(ctx context.Context, f models.Feature, text string) (*Response, error) {
	url := c.endpoints.ExpenseText
	if f == models.FeaturePreciousMetal {
		url = c.endpoints.MetalText
	}
	return c.call(ctx, f, "text", url, Request{Text: text})
}

// ClassifyImage sends an image with its caption for domain f
func (c *Client) ClassifyImage(ctx context.Context, f models.Feature, image []byte, caption string) (*Response, error) {
	url := c.endpoints.ExpenseImage
	if f == models.FeaturePreciousMetal {
		url = c.endpoints.MetalImage
	}
	return c.call(ctx, f, "image", url, Request{Image: base64.StdEncoding.EncodeToString(image), Caption: caption})
}

func (c *Client) call(ctx context.Context, f models.Feature, modality, url string, body Request) (*Response, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: no endpoint configured for %s/%s", ErrUnavailable, f, modality)
	}
	started := time.Now()
	defer c.metrics.ObserveClassification(string(f), modality, started)

	var out Response
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post(url)
	if err != nil {
		c.logger.Error("Classification call failed",
			zap.String("domain", string(f)),
			zap.String("modality", modality),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		detail := out.Error
		if detail == "" {
			detail = resp.Status()
		}
		c.logger.Warn("Classification service returned error",
			zap.String("domain", string(f)),
			zap.String("modality", modality),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("detail", detail),
		)
		return nil, &ServiceError{Status: resp.StatusCode(), Detail: detail}
	}

	c.logger.Debug("Classification call succeeded",
		zap.String("domain", string(f)),
		zap.String("modality", modality),
		zap.Int("transactions", len(out.Transactions)),
	)
	return &out, nil
}
