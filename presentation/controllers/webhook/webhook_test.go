package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sortline/sortline/api/application/usecases/status"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/infrastructure/config"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyStatusUseCase struct {
	inputs []status.ApplyInput
	err    error
}

func (uc *spyStatusUseCase) Apply(_ context.Context, input status.ApplyInput) (status.ApplyResult, error) {
	uc.inputs = append(uc.inputs, input)
	if uc.err != nil {
		return status.ApplyResult{}, uc.err
	}
	return status.ApplyResult{Outcome: status.OutcomeStatusChange}, nil
}

func newWebhookRouter(uc status.StatusUseCase, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller := NewWebhookController(uc, config.WebhookConfig{Secret: secret}, logger.NewNopLogger())
	router.POST("/webhooks/tracking", controller.ReceiveTrackingUpdate)
	return router
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestReceiveTrackingUpdate_MissingSignatureRejected(t *testing.T) {
	uc := &spyStatusUseCase{}
	router := newWebhookRouter(uc, "topsecret")

	body := []byte(`{"trackingCode": "AB123", "status": "Delivered"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracking", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, uc.inputs, "rejected webhook must not reach the reconciler")
}

func TestReceiveTrackingUpdate_ValidSignatureApplied(t *testing.T) {
	uc := &spyStatusUseCase{}
	router := newWebhookRouter(uc, "topsecret")

	body := []byte(`{"trackingCode": "AB123", "status": "Delivered to recipient"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracking", bytes.NewReader(body))
	req.Header.Set("X-Signature", "sha256="+signBody(body, "topsecret"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, uc.inputs, 1)
	assert.Equal(t, "AB123", uc.inputs[0].TrackingCode)
	assert.Equal(t, model.StateDelivered, uc.inputs[0].State)
	assert.False(t, uc.inputs[0].Manual)

	var resp WebhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Received)
	assert.Equal(t, string(status.OutcomeStatusChange), resp.Outcome)
}

func TestReceiveTrackingUpdate_NoSecretBypassesVerification(t *testing.T) {
	uc := &spyStatusUseCase{}
	router := newWebhookRouter(uc, "")

	body := []byte(`{"tracking_number": "AB123", "status": "In transit"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracking", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, uc.inputs, 1)
	assert.Equal(t, model.StateScanned, uc.inputs[0].State)
}

func TestReceiveTrackingUpdate_ProcessingErrorStillAcknowledged(t *testing.T) {
	uc := &spyStatusUseCase{err: errors.New("db down")}
	router := newWebhookRouter(uc, "")

	body := []byte(`{"trackingCode": "AB123", "status": "Delivered"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracking", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "internal failures must not trigger vendor retries")
}

func TestReceiveTrackingUpdate_MalformedJSONAcknowledged(t *testing.T) {
	uc := &spyStatusUseCase{}
	router := newWebhookRouter(uc, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracking", bytes.NewReader([]byte("not json")))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, uc.inputs)
}

func TestReceiveTrackingUpdate_NestedDataTrackingCode(t *testing.T) {
	uc := &spyStatusUseCase{}
	router := newWebhookRouter(uc, "")

	body := []byte(`{"data": {"trackingCode": "XY999", "status": "Out for delivery"}}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracking", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, uc.inputs, 1)
	assert.Equal(t, "XY999", uc.inputs[0].TrackingCode)
	assert.Equal(t, model.StateScanned, uc.inputs[0].State)
}
