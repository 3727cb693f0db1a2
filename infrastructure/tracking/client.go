package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sortline/sortline/api/application/usecases/status"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/infrastructure/config"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultCallsPerSec = 8
)

// Candidate is what one vendor round trip learned about a tracking code.
type Candidate struct {
	State           model.ParcelState
	Detail          string
	VendorRawStatus string
}

// Client talks to the upstream tracking provider. Implementations absorb
// transport failures: a vendor outage yields a not_scanned candidate with
// an explanatory detail, never an error.
type Client interface {
	FetchStatus(ctx context.Context, trackingCode string) Candidate
}

type vendorClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

func NewClient(cfg config.VendorConfig, logger *logger.Logger) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	callsPerSec := cfg.CallsPerSecond
	if callsPerSec <= 0 {
		callsPerSec = defaultCallsPerSec
	}

	return &vendorClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(callsPerSec), callsPerSec),
		logger:  logger,
	}
}

// FetchStatus registers the code with the vendor and normalizes whatever
// comes back. An empty success body is a real not_scanned result: the
// courier simply has not scanned the parcel yet. A conflict on an
// already-registered code reuses the conflict body when it carries data
// and falls back to a lookup when it does not.
func (c *vendorClient) FetchStatus(ctx context.Context, trackingCode string) Candidate {
	if err := c.limiter.Wait(ctx); err != nil {
		return c.unavailable(trackingCode, err)
	}

	payload, statusCode, err := c.register(ctx, trackingCode)
	if err != nil {
		return c.unavailable(trackingCode, err)
	}

	if statusCode == http.StatusConflict {
		if !hasTrackingData(payload) {
			payload, err = c.lookup(ctx, trackingCode)
			if err != nil {
				return c.unavailable(trackingCode, err)
			}
		}
	} else if statusCode < 200 || statusCode > 299 {
		if !hasTrackingData(payload) {
			return c.unavailable(trackingCode, errors.Errorf("vendor returned status %d", statusCode))
		}
	}

	if len(payload) == 0 {
		return Candidate{State: model.StateNotScanned, Detail: "Pending"}
	}

	result := status.Normalize(payload, trackingCode)
	return Candidate{
		State:           result.State,
		Detail:          result.Detail,
		VendorRawStatus: status.RawStatus(payload),
	}
}

func (c *vendorClient) register(ctx context.Context, trackingCode string) (map[string]any, int, error) {
	body, err := json.Marshal(map[string]string{"trackingCode": trackingCode})
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to encode register request")
	}

	endpoint := c.baseURL + "/track"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to build register request")
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "register call failed")
	}
	defer resp.Body.Close()

	payload, err := decodeBody(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return payload, resp.StatusCode, nil
}

func (c *vendorClient) lookup(ctx context.Context, trackingCode string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/track/%s", c.baseURL, url.PathEscape(trackingCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build lookup request")
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "lookup call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("lookup returned status %d", resp.StatusCode)
	}

	return decodeBody(resp.Body)
}

func (c *vendorClient) decorate(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *vendorClient) unavailable(trackingCode string, err error) Candidate {
	c.logger.Warn("vendor unavailable, recording nothing learned",
		zap.String("trackingCode", trackingCode),
		zap.Error(err),
	)

	return Candidate{
		State:  model.StateNotScanned,
		Detail: fmt.Sprintf("Tracking lookup failed: %v", err),
	}
}

func decodeBody(r io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read vendor response")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode vendor response")
	}

	return payload, nil
}

// hasTrackingData reports whether a vendor response says anything usable
// about the parcel, as opposed to a bare error or acknowledgement.
func hasTrackingData(payload map[string]any) bool {
	if len(payload) == 0 {
		return false
	}

	probe := payload
	if data, ok := payload["data"].(map[string]any); ok {
		probe = data
	}

	for _, key := range []string{"status", "statusCode", "deliveryStatus", "subStatus", "statusDescription", "events", "trackingEvents", "checkpoints"} {
		if _, ok := probe[key]; ok {
			return true
		}
	}

	return false
}
