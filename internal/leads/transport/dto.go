package transport

import (
	"time"

	"github.com/google/uuid"

	"gids_backend/internal/leads/repository"
)

// IntakeRequest is the public lead submission payload.
type IntakeRequest struct {
	CategoryID uuid.UUID `json:"categoryId" binding:"required"`
	Postcode   string    `json:"postcode" binding:"required,postcode"`
	City       string    `json:"city" binding:"required,min=2,max=100"`
	Name       string    `json:"name" binding:"required,min=2,max=120"`
	Phone      string    `json:"phone" binding:"required,min=8,max=32"`
	Email      *string   `json:"email" binding:"omitempty,email"`
	Note       *string   `json:"note" binding:"omitempty,max=2000"`
}

type LeadResponse struct {
	ID         uuid.UUID  `json:"id"`
	CategoryID uuid.UUID  `json:"categoryId"`
	Postcode   string     `json:"postcode"`
	City       string     `json:"city"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Email      *string    `json:"email,omitempty"`
	Note       *string    `json:"note,omitempty"`
	Status     string     `json:"status"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func ToLeadResponse(l repository.Lead) LeadResponse {
	return LeadResponse{
		ID:         l.ID,
		CategoryID: l.CategoryID,
		Postcode:   l.Postcode,
		City:       l.City,
		Name:       l.Name,
		Phone:      l.Phone,
		Email:      l.Email,
		Note:       l.Note,
		Status:     l.Status,
		ArchivedAt: l.ArchivedAt,
		CreatedAt:  l.CreatedAt,
	}
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

func ToLeadListResponse(result repository.LeadListResult) LeadListResponse {
	items := make([]LeadResponse, 0, len(result.Items))
	for _, l := range result.Items {
		items = append(items, ToLeadResponse(l))
	}
	return LeadListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}
}
