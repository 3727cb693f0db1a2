package box

import (
	"time"

	"github.com/sortline/sortline/api/domain/model"
)

type CreateBoxRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description" binding:"omitempty,max=1024"`
}

type BoxResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func toBoxResponse(b *model.Box) BoxResponse {
	resp := BoxResponse{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.Description.Valid {
		resp.Description = &b.Description.String
	}
	return resp
}
