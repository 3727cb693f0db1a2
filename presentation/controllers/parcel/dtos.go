package parcel

import (
	"time"

	"github.com/sortline/sortline/api/domain/filter"
	"github.com/sortline/sortline/api/domain/model"
)

type RegisterParcelRequest struct {
	TrackingCode string `json:"tracking_code" binding:"required,max=64,trackingcode"`
	BoxID        string `json:"box_id" binding:"omitempty,uuid"`
	Detail       string `json:"detail" binding:"omitempty,max=500"`
}

type SearchParcelsRequest struct {
	Filter *filter.DynamicFilter `json:"filter"`
	Limit  int                   `json:"limit" binding:"omitempty,min=1,max=200"`
	Offset int                   `json:"offset" binding:"omitempty,min=0"`
}

type ManualStatusRequest struct {
	State  string `json:"state" binding:"required,oneof=not_scanned scanned delivered"`
	Detail string `json:"detail" binding:"omitempty,max=500"`
	// EffectiveAt is tri-state: omitted preserves the stored override,
	// an explicit null clears it, a value sets it.
	EffectiveAt model.OptionalTime `json:"effective_at"`
}

type ParcelResponse struct {
	ID              string     `json:"id"`
	TrackingCode    string     `json:"tracking_code"`
	BoxID           *string    `json:"box_id,omitempty"`
	State           string     `json:"state"`
	Detail          *string    `json:"detail,omitempty"`
	VendorRawStatus *string    `json:"vendor_raw_status,omitempty"`
	ManualLock      bool       `json:"manual_lock"`
	EffectiveAt     *time.Time `json:"effective_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type ManualStatusResponse struct {
	Outcome string         `json:"outcome"`
	Parcel  ParcelResponse `json:"parcel"`
}

type ParcelListResponse struct {
	Parcels []ParcelResponse `json:"parcels"`
	Total   int64            `json:"total"`
}

type SweepResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func toParcelResponse(p *model.Parcel) ParcelResponse {
	resp := ParcelResponse{
		ID:           p.ID,
		TrackingCode: p.TrackingCode,
		State:        string(p.CurrentState),
		ManualLock:   p.ManualLock,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.BoxID.Valid {
		resp.BoxID = &p.BoxID.String
	}
	if p.Detail.Valid {
		resp.Detail = &p.Detail.String
	}
	if p.VendorRawStatus.Valid {
		resp.VendorRawStatus = &p.VendorRawStatus.String
	}
	if p.EffectiveAt.Valid {
		t := p.EffectiveAt.Time
		resp.EffectiveAt = &t
	}
	return resp
}
