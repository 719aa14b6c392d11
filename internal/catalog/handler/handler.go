package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gids_backend/internal/catalog/repository"
	"gids_backend/internal/catalog/service"
	"gids_backend/internal/catalog/transport"
	"gids_backend/platform/apperr"
	"gids_backend/platform/httpkit"
)

// Handler handles HTTP requests for the catalog: categories and companies.
type Handler struct {
	svc *service.Service
}

// New creates a new catalog handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers catalog routes on a protected group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/categories", h.ListCategories)
	rg.POST("/categories", h.CreateCategory)

	rg.GET("/companies", h.ListCompanies)
	rg.POST("/companies", h.CreateCompany)
	rg.GET("/companies/:companyId", h.GetCompany)
	rg.PUT("/companies/:companyId", h.UpdateCompany)
	rg.GET("/companies/:companyId/categories", h.GetCompanyCategories)
	rg.PUT("/companies/:companyId/categories", h.ReplaceCompanyCategories)
	rg.GET("/companies/:companyId/service-areas", h.GetCompanyServiceAreas)
	rg.PUT("/companies/:companyId/service-areas", h.ReplaceCompanyServiceAreas)
}

func (h *Handler) ListCategories(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	categories, err := h.svc.ListCategories(c.Request.Context(), identity.TenantID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	out := make([]transport.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, transport.ToCategoryResponse(cat))
	}
	httpkit.OK(c, gin.H{"items": out})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	var req transport.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	category, err := h.svc.CreateCategory(c.Request.Context(), identity.TenantID(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, transport.ToCategoryResponse(category))
}

func (h *Handler) CreateCompany(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	var req transport.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	company, err := h.svc.CreateCompany(c.Request.Context(), identity.TenantID(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, transport.ToCompanyResponse(company))
}

func (h *Handler) GetCompany(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid company id"))
		return
	}

	company, err := h.svc.GetCompany(c.Request.Context(), id, identity.TenantID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToCompanyResponse(company))
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid company id"))
		return
	}

	var req transport.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	company, err := h.svc.UpdateCompany(c.Request.Context(), id, identity.TenantID(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToCompanyResponse(company))
}

func (h *Handler) ListCompanies(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	params := repository.CompanyListParams{
		TenantID:   identity.TenantID(),
		Search:     c.Query("search"),
		ActiveOnly: c.Query("active") == "true",
	}
	if raw := c.Query("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.HandleError(c, apperr.Validation("invalid category id"))
			return
		}
		params.CategoryID = id
	}
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "25"))

	result, err := h.svc.ListCompanies(c.Request.Context(), params)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToCompanyListResponse(result))
}

func (h *Handler) ReplaceCompanyCategories(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid company id"))
		return
	}

	var req transport.ReplaceCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	if err := h.svc.ReplaceCompanyCategories(c.Request.Context(), id, identity.TenantID(), req.CategoryIDs); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"updated": true})
}

func (h *Handler) GetCompanyCategories(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid company id"))
		return
	}

	ids, err := h.svc.ListCompanyCategoryIDs(c.Request.Context(), id, identity.TenantID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"categoryIds": ids})
}

func (h *Handler) ReplaceCompanyServiceAreas(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid company id"))
		return
	}

	var req transport.ReplaceServiceAreasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	if err := h.svc.ReplaceCompanyServiceAreas(c.Request.Context(), id, identity.TenantID(), req.Postcodes); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"updated": true})
}

func (h *Handler) GetCompanyServiceAreas(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid company id"))
		return
	}

	postcodes, err := h.svc.ListCompanyServiceAreas(c.Request.Context(), id, identity.TenantID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"postcodes": postcodes})
}
