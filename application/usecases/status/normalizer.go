package status

import (
	"strings"
	"unicode/utf8"

	"github.com/sortline/sortline/api/domain/model"
)

const maxDetailLength = 500

// Result is the canonical interpretation of one vendor status payload.
type Result struct {
	State model.ParcelState
	// Detail is the most granular human-readable description found, or ""
	// when the payload carried none.
	Detail string
}

// Vendors disagree on where the status text lives, so extraction tries an
// ordered list of candidate field names instead of a fixed schema. Explicit
// event descriptions rank above delivery-status codes, sub-statuses, and
// the generic status field.
var statusFieldNames = []string{
	"statusDescription",
	"eventDescription",
	"description",
	"deliveryStatus",
	"delivery_status",
	"statusCode",
	"status_code",
	"subStatus",
	"sub_status",
	"statusMilestone",
	"status",
}

var eventListNames = []string{"events", "trackingEvents", "checkpoints"}

var deliveredPhrases = []string{
	"delivered",
	"delivery completed",
	"delivery successful",
}

// "deliver" is deliberately last: future-tense language ("we expect to
// deliver it tomorrow") means the courier knows the parcel, which is
// scanned, not delivered. The delivered check runs first, so completed
// deliveries never reach this list.
var inTransitPhrases = []string{
	"in transit",
	"in_transit",
	"on its way",
	"on the way",
	"out for delivery",
	"collected",
	"picked up",
	"accepted",
	"processed",
	"scanned",
	"arrived",
	"departed",
	"shipment",
	"deliver",
}

var notFoundPhrases = []string{
	"not found",
	"no information",
	"pending",
	"unknown",
}

// Normalize maps an arbitrary vendor payload onto the canonical three-state
// model. Deterministic, no I/O; trackingCode only identifies the parcel in
// the caller's logs. Delivered detection takes precedence over in-transit
// detection: a false "delivered" is more damaging than a false "scanned",
// so the asymmetry is deliberate and the step order is authoritative.
func Normalize(payload map[string]any, trackingCode string) Result {
	payload = unwrapData(payload)

	events, eventsPresent := extractEvents(payload)
	candidates := collectStatusTexts(payload, events)
	haystack := strings.ToLower(strings.Join(candidates, " "))

	detail := ""
	if len(candidates) > 0 {
		detail = truncate(candidates[0], maxDetailLength)
	}

	switch {
	case eventsPresent && len(events) == 0 && haystack == "":
		// Registered with the vendor but no courier scan yet: a real,
		// valid not_scanned result.
		return Result{State: model.StateNotScanned, Detail: "Pending"}

	case containsAny(haystack, deliveredPhrases):
		return Result{State: model.StateDelivered, Detail: detail}

	case containsAny(haystack, inTransitPhrases):
		return Result{State: model.StateScanned, Detail: detail}

	case containsAny(haystack, notFoundPhrases):
		return Result{State: model.StateNotScanned, Detail: detail}

	case len(events) > 0:
		return Result{State: model.StateScanned, Detail: detail}

	default:
		return Result{State: model.StateNotScanned, Detail: detail}
	}
}

// RawStatus returns the most granular vendor status string in the payload,
// used for change detection even when the canonical state is unchanged.
func RawStatus(payload map[string]any) string {
	payload = unwrapData(payload)

	for _, name := range []string{"statusCode", "status_code", "statusMilestone", "deliveryStatus", "delivery_status", "subStatus", "sub_status", "status"} {
		if s, ok := stringField(payload, name); ok {
			return truncate(s, 128)
		}
	}

	if events, _ := extractEvents(payload); len(events) > 0 {
		if newest, ok := events[0].(map[string]any); ok {
			for _, name := range []string{"statusCode", "status"} {
				if s, ok := stringField(newest, name); ok {
					return truncate(s, 128)
				}
			}
		}
	}

	return ""
}

func unwrapData(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	if nested, ok := payload["data"].(map[string]any); ok {
		return nested
	}
	return payload
}

func extractEvents(payload map[string]any) ([]any, bool) {
	for _, name := range eventListNames {
		raw, ok := payload[name]
		if !ok {
			continue
		}
		if list, ok := raw.([]any); ok {
			return list, true
		}
		return nil, true
	}
	return nil, false
}

func collectStatusTexts(payload map[string]any, events []any) []string {
	var texts []string

	// The newest event carries the most specific description.
	if len(events) > 0 {
		if newest, ok := events[0].(map[string]any); ok {
			for _, name := range statusFieldNames {
				if s, ok := stringField(newest, name); ok {
					texts = append(texts, s)
				}
			}
		}
	}

	for _, name := range statusFieldNames {
		if s, ok := stringField(payload, name); ok {
			texts = append(texts, s)
		}
	}

	return texts
}

func stringField(m map[string]any, name string) (string, bool) {
	raw, ok := m[name]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func containsAny(haystack string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}

// truncate cuts to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
