package changelog

import (
	"time"

	"github.com/sortline/sortline/api/domain/model"
)

type ChangeLogResponse struct {
	Entries []model.ChangeLogEntry `json:"entries"`
	Count   int                    `json:"count"`
}

type HistoryEntryResponse struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StreamFrame is one SSE message. Type is one of "connected", "logs",
// "heartbeat", "error"; Logs is populated only for "logs" frames.
type StreamFrame struct {
	Type      string                 `json:"type"`
	Logs      []model.ChangeLogEntry `json:"logs,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func toHistoryResponse(entries []*model.AuditEntry) []HistoryEntryResponse {
	resp := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		item := HistoryEntryResponse{
			ID:        e.ID,
			State:     string(e.State),
			CreatedAt: e.CreatedAt,
		}
		if e.Notes.Valid {
			item.Notes = &e.Notes.String
		}
		resp = append(resp, item)
	}
	return resp
}
