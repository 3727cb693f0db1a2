package status

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sortline/sortline/api/domain/model"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_DeliveredTakesPrecedence(t *testing.T) {
	// Delivered detection must win even when in-transit wording is present.
	payload := map[string]any{
		"status": "Delivered to recipient after being in transit",
	}

	result := Normalize(payload, "AB123")
	assert.Equal(t, model.StateDelivered, result.State)
}

func TestNormalize_FutureDeliveryIsScanned(t *testing.T) {
	payload := map[string]any{
		"status": "We expect to deliver it tomorrow",
	}

	result := Normalize(payload, "AB123")
	assert.Equal(t, model.StateScanned, result.State)
}

func TestNormalize_OutForDeliveryIsScanned(t *testing.T) {
	payload := map[string]any{
		"status": "Out for delivery",
	}

	result := Normalize(payload, "AB123")
	assert.Equal(t, model.StateScanned, result.State)
}

func TestNormalize_RegisteredWithoutEvents(t *testing.T) {
	payload := map[string]any{
		"events": []any{},
	}

	result := Normalize(payload, "AB123")
	assert.Equal(t, model.StateNotScanned, result.State)
	assert.Equal(t, "Pending", result.Detail)
}

func TestNormalize_InTransitPhrases(t *testing.T) {
	for _, text := range []string{
		"In transit",
		"Package collected",
		"Accepted at facility",
		"Arrived at sorting center",
		"Departed from origin",
		"Scanned at depot",
	} {
		payload := map[string]any{"status": text}
		result := Normalize(payload, "AB123")
		assert.Equal(t, model.StateScanned, result.State, "status %q", text)
	}
}

func TestNormalize_NotFoundPhrases(t *testing.T) {
	for _, text := range []string{
		"Tracking number not found",
		"No information available",
		"Pending",
	} {
		payload := map[string]any{"status": text}
		result := Normalize(payload, "AB123")
		assert.Equal(t, model.StateNotScanned, result.State, "status %q", text)
	}
}

func TestNormalize_DefaultWithEvents(t *testing.T) {
	// Unrecognized wording with a populated event list means the courier
	// has seen the parcel.
	payload := map[string]any{
		"events": []any{
			map[string]any{"status": "Zwischenstopp Verteilzentrum"},
		},
	}

	result := Normalize(payload, "AB123")
	assert.Equal(t, model.StateScanned, result.State)
}

func TestNormalize_DefaultWithoutEvents(t *testing.T) {
	payload := map[string]any{"somethingElse": true}

	result := Normalize(payload, "AB123")
	assert.Equal(t, model.StateNotScanned, result.State)
	assert.Empty(t, result.Detail)
}

func TestNormalize_NestedDataEnvelope(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"status": "Delivered",
		},
	}

	result := Normalize(payload, "AB123")
	assert.Equal(t, model.StateDelivered, result.State)
}

func TestNormalize_EventDescriptionPreferredForDetail(t *testing.T) {
	payload := map[string]any{
		"status": "IT",
		"events": []any{
			map[string]any{"statusDescription": "Arrived at Frankfurt hub"},
		},
	}

	result := Normalize(payload, "AB123")
	assert.Equal(t, model.StateScanned, result.State)
	assert.Equal(t, "Arrived at Frankfurt hub", result.Detail)
}

func TestNormalize_DetailTruncated(t *testing.T) {
	long := strings.Repeat("x", 600) + " delivered"
	payload := map[string]any{"status": long}

	result := Normalize(payload, "AB123")
	assert.Len(t, result.Detail, maxDetailLength)
}

func TestNormalize_DetailTruncatesOnRuneBoundary(t *testing.T) {
	// 3-byte runes that do not divide 500 evenly: a naive byte cut would
	// leave a split rune at the end of the detail.
	long := strings.Repeat("配", 200) + " delivered"
	payload := map[string]any{"status": long}

	result := Normalize(payload, "AB123")
	assert.LessOrEqual(t, len(result.Detail), maxDetailLength)
	assert.True(t, utf8.ValidString(result.Detail))
}

func TestRawStatus(t *testing.T) {
	assert.Equal(t, "OFD-22", RawStatus(map[string]any{
		"statusCode": "OFD-22",
		"status":     "Out for delivery",
	}))

	assert.Equal(t, "IT-1", RawStatus(map[string]any{
		"events": []any{
			map[string]any{"statusCode": "IT-1"},
		},
	}))

	assert.Empty(t, RawStatus(map[string]any{}))
}
