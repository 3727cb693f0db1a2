package parcel

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sortline/sortline/api/application/usecases/parcel"
	"github.com/sortline/sortline/api/domain/model"
	"github.com/sortline/sortline/api/infrastructure/jobs"
	"github.com/sortline/sortline/api/infrastructure/persistence/repository"
)

type ParcelController interface {
	RegisterParcel(ctx *gin.Context)
	GetParcel(ctx *gin.Context)
	SearchParcels(ctx *gin.Context)
	DeleteParcel(ctx *gin.Context)
	SetManualStatus(ctx *gin.Context)
	ClearManualLock(ctx *gin.Context)
	TriggerSweep(ctx *gin.Context)
}

type parcelController struct {
	usecase parcel.ParcelUseCase
	sweep   *jobs.StatusSweepJob
}

func NewParcelController(usecase parcel.ParcelUseCase, sweep *jobs.StatusSweepJob) ParcelController {
	return &parcelController{
		usecase: usecase,
		sweep:   sweep,
	}
}

func (c *parcelController) RegisterParcel(ctx *gin.Context) {
	var req RegisterParcelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	created, err := c.usecase.Register(ctx.Request.Context(), parcel.RegisterInput{
		TrackingCode: req.TrackingCode,
		BoxID:        req.BoxID,
		Detail:       req.Detail,
	})
	if err != nil {
		if errors.Is(err, repository.RecordNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "registration_failed",
			Message: err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, toParcelResponse(created))
}

func (c *parcelController) GetParcel(ctx *gin.Context) {
	found, err := c.usecase.GetByTrackingCode(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		c.renderLookupError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toParcelResponse(found))
}

func (c *parcelController) SearchParcels(ctx *gin.Context) {
	var req SearchParcelsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if req.Filter != nil {
		if err := req.Filter.Validate(); err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
	}

	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	parcels, total, err := c.usecase.List(ctx.Request.Context(), req.Filter, limit, req.Offset)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "search_failed",
			Message: err.Error(),
		})
		return
	}

	resp := ParcelListResponse{
		Parcels: make([]ParcelResponse, 0, len(parcels)),
		Total:   total,
	}
	for _, p := range parcels {
		resp.Parcels = append(resp.Parcels, toParcelResponse(p))
	}

	ctx.JSON(http.StatusOK, resp)
}

func (c *parcelController) DeleteParcel(ctx *gin.Context) {
	if err := c.usecase.Delete(ctx.Request.Context(), ctx.Param("code")); err != nil {
		c.renderLookupError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, SuccessResponse{Message: "parcel deleted"})
}

func (c *parcelController) SetManualStatus(ctx *gin.Context) {
	var req ManualStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	result, err := c.usecase.SetManualStatus(ctx.Request.Context(), parcel.ManualStatusInput{
		TrackingCode: ctx.Param("code"),
		State:        model.ParcelState(req.State),
		Detail:       req.Detail,
		EffectiveAt:  req.EffectiveAt,
	})
	if err != nil {
		c.renderLookupError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, ManualStatusResponse{
		Outcome: string(result.Outcome),
		Parcel:  toParcelResponse(result.Parcel),
	})
}

func (c *parcelController) ClearManualLock(ctx *gin.Context) {
	unlocked, err := c.usecase.ClearManualLock(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		c.renderLookupError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toParcelResponse(unlocked))
}

// TriggerSweep starts an on-demand vendor sweep. Fire-and-forget: the
// caller learns whether a sweep started, never how it ended.
func (c *parcelController) TriggerSweep(ctx *gin.Context) {
	if c.sweep.TriggerNow(ctx.Request.Context()) {
		ctx.JSON(http.StatusAccepted, SweepResponse{
			Started: true,
			Message: "sweep started",
		})
		return
	}

	ctx.JSON(http.StatusAccepted, SweepResponse{
		Started: false,
		Message: "sweep already in progress",
	})
}

func (c *parcelController) renderLookupError(ctx *gin.Context, err error) {
	if errors.Is(err, repository.RecordNotFound) {
		ctx.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "parcel not found",
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}
