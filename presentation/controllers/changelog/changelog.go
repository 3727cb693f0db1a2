package changelog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sortline/sortline/api/application/usecases/changelog"
	"github.com/sortline/sortline/api/application/usecases/parcel"
	"github.com/sortline/sortline/api/domain/model"
	domainrepo "github.com/sortline/sortline/api/domain/repository"
	"github.com/sortline/sortline/api/infrastructure/config"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/infrastructure/persistence/repository"
	"go.uber.org/zap"
)

type ChangeLogController interface {
	QueryChangeLog(ctx *gin.Context)
	GetParcelHistory(ctx *gin.Context)
	Stream(ctx *gin.Context)
}

type changeLogController struct {
	usecase changelog.ChangeLogUseCase
	parcels parcel.ParcelUseCase
	feedCfg config.FeedConfig
	logger  *logger.Logger
}

func NewChangeLogController(
	usecase changelog.ChangeLogUseCase,
	parcels parcel.ParcelUseCase,
	feedCfg config.FeedConfig,
	logger *logger.Logger,
) ChangeLogController {
	return &changeLogController{
		usecase: usecase,
		parcels: parcels,
		feedCfg: feedCfg,
		logger:  logger,
	}
}

func (c *changeLogController) QueryChangeLog(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	entries, err := c.usecase.Query(ctx.Request.Context(), domainrepo.ChangeLogFilter{
		ChangeType:   model.ChangeType(ctx.Query("change_type")),
		State:        model.ParcelState(ctx.Query("state")),
		BoxID:        ctx.Query("box_id"),
		TrackingCode: ctx.Query("tracking_code"),
		Limit:        limit,
	})
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, ChangeLogResponse{
		Entries: entries,
		Count:   len(entries),
	})
}

func (c *changeLogController) GetParcelHistory(ctx *gin.Context) {
	found, err := c.parcels.GetByTrackingCode(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
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
		return
	}

	limit, _ := strconv.Atoi(ctx.Query("limit"))
	history, err := c.usecase.History(ctx.Request.Context(), found.ID, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, toHistoryResponse(history))
}

// Stream serves the live change-log feed over SSE. The subscriber starts
// with a watermark a fixed lookback behind now; each tick pushes entries
// written strictly after the watermark and advances it to the newest one.
// Per-tick query failures degrade to error frames; only a transport-level
// disconnect ends the stream.
func (c *changeLogController) Stream(ctx *gin.Context) {
	w := ctx.Writer

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "streaming_unsupported",
			Message: "response writer does not support streaming",
		})
		return
	}

	watermark := time.Now().UTC().Add(-c.feedCfg.Lookback)

	c.writeFrame(w, flusher, StreamFrame{Type: "connected", Timestamp: time.Now().UTC()})

	ticker := time.NewTicker(c.feedCfg.TickInterval)
	defer ticker.Stop()

	done := ctx.Request.Context().Done()
	ticks := 0

	for {
		select {
		case <-done:
			c.logger.Debug("change-log subscriber disconnected")
			return

		case <-ticker.C:
			ticks++

			entries, err := c.usecase.After(ctx.Request.Context(), watermark, c.feedCfg.MaxEntries)
			if err != nil {
				c.logger.Warn("change-log feed tick failed", zap.Error(err))
				c.writeFrame(w, flusher, StreamFrame{
					Type:      "error",
					Message:   "failed to query change log",
					Timestamp: time.Now().UTC(),
				})
				continue
			}

			if len(entries) > 0 {
				// Entries come back newest-first.
				watermark = entries[0].CreatedAt
				c.writeFrame(w, flusher, StreamFrame{
					Type:      "logs",
					Logs:      entries,
					Timestamp: time.Now().UTC(),
				})
			}

			if c.feedCfg.HeartbeatTicks > 0 && ticks%c.feedCfg.HeartbeatTicks == 0 {
				c.writeFrame(w, flusher, StreamFrame{Type: "heartbeat", Timestamp: time.Now().UTC()})
			}
		}
	}
}

func (c *changeLogController) writeFrame(w gin.ResponseWriter, flusher http.Flusher, frame StreamFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("failed to encode stream frame", zap.Error(err))
		return
	}

	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
