package box

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sortline/sortline/api/application/usecases/box"
	"github.com/sortline/sortline/api/infrastructure/persistence/repository"
)

type BoxController interface {
	CreateBox(ctx *gin.Context)
	GetBox(ctx *gin.Context)
	ListBoxes(ctx *gin.Context)
	DeleteBox(ctx *gin.Context)
}

type boxController struct {
	usecase box.BoxUseCase
}

func NewBoxController(usecase box.BoxUseCase) BoxController {
	return &boxController{
		usecase: usecase,
	}
}

func (c *boxController) CreateBox(ctx *gin.Context) {
	var req CreateBoxRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	created, err := c.usecase.Create(ctx.Request.Context(), req.Name, req.Description)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "creation_failed",
			Message: err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, toBoxResponse(created))
}

func (c *boxController) GetBox(ctx *gin.Context) {
	found, err := c.usecase.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repository.RecordNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "box not found",
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, toBoxResponse(found))
}

func (c *boxController) ListBoxes(ctx *gin.Context) {
	boxes, err := c.usecase.GetAll(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	resp := make([]BoxResponse, 0, len(boxes))
	for _, b := range boxes {
		resp = append(resp, toBoxResponse(b))
	}

	ctx.JSON(http.StatusOK, resp)
}

func (c *boxController) DeleteBox(ctx *gin.Context) {
	if err := c.usecase.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, repository.RecordNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "box not found",
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, SuccessResponse{Message: "box deleted"})
}
