package transport

import (
	"time"

	"github.com/google/uuid"

	"gids_backend/internal/catalog/repository"
)

type CreateCategoryRequest struct {
	ParentID *uuid.UUID `json:"parentId"`
	Name     string     `json:"name" binding:"required,min=2,max=120"`
	Slug     string     `json:"slug" binding:"required,min=2,max=120,lowercase"`
}

type CategoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	CreatedAt time.Time  `json:"createdAt"`
}

func ToCategoryResponse(c repository.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		ParentID:  c.ParentID,
		Name:      c.Name,
		Slug:      c.Slug,
		CreatedAt: c.CreatedAt,
	}
}

type CreateCompanyRequest struct {
	Name               string  `json:"name" binding:"required,min=2,max=200"`
	City               string  `json:"city" binding:"required,min=2,max=100"`
	Postcode           string  `json:"postcode" binding:"required,postcode"`
	IsActive           *bool   `json:"isActive"`
	SubscriptionTier   string  `json:"subscriptionTier" binding:"omitempty,oneof=free basic premium top"`
	SubscriptionStatus string  `json:"subscriptionStatus" binding:"omitempty,oneof=active trial past_due cancelled"`
	Phone              *string `json:"phone" binding:"omitempty,max=32"`
	Email              *string `json:"email" binding:"omitempty,email"`
}

type UpdateCompanyRequest struct {
	Name               *string `json:"name" binding:"omitempty,min=2,max=200"`
	City               *string `json:"city" binding:"omitempty,min=2,max=100"`
	Postcode           *string `json:"postcode" binding:"omitempty,postcode"`
	IsActive           *bool   `json:"isActive"`
	SubscriptionTier   *string `json:"subscriptionTier" binding:"omitempty,oneof=free basic premium top"`
	SubscriptionStatus *string `json:"subscriptionStatus" binding:"omitempty,oneof=active trial past_due cancelled"`
	Phone              *string `json:"phone" binding:"omitempty,max=32"`
	Email              *string `json:"email" binding:"omitempty,email"`
}

type ReplaceCategoriesRequest struct {
	CategoryIDs []uuid.UUID `json:"categoryIds" binding:"required,max=50"`
}

type ReplaceServiceAreasRequest struct {
	Postcodes []string `json:"postcodes" binding:"required,max=500,dive,postcode"`
}

type CompanyResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	City               string    `json:"city"`
	Postcode           string    `json:"postcode"`
	IsActive           bool      `json:"isActive"`
	SubscriptionTier   string    `json:"subscriptionTier"`
	SubscriptionStatus string    `json:"subscriptionStatus"`
	Phone              *string   `json:"phone,omitempty"`
	Email              *string   `json:"email,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func ToCompanyResponse(c repository.Company) CompanyResponse {
	return CompanyResponse{
		ID:                 c.ID,
		Name:               c.Name,
		City:               c.City,
		Postcode:           c.Postcode,
		IsActive:           c.IsActive,
		SubscriptionTier:   c.SubscriptionTier,
		SubscriptionStatus: c.SubscriptionStatus,
		Phone:              c.Phone,
		Email:              c.Email,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

type CompanyListResponse struct {
	Items      []CompanyResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

func ToCompanyListResponse(result repository.CompanyListResult) CompanyListResponse {
	items := make([]CompanyResponse, 0, len(result.Items))
	for _, c := range result.Items {
		items = append(items, ToCompanyResponse(c))
	}
	return CompanyListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}
}
