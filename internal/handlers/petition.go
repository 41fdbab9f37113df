package handlers

import (
	"log"
	"net/http"

	"petitionsite/internal/middleware"
	"petitionsite/internal/services"
	"petitionsite/internal/utils"

	"github.com/gin-gonic/gin"
)

type PetitionHandler struct {
	petitions  *services.PetitionService
	categories *services.CategoryService
}

func NewPetitionHandler(petitions *services.PetitionService, categories *services.CategoryService) *PetitionHandler {
	return &PetitionHandler{petitions: petitions, categories: categories}
}

type supportTierReq struct {
	Title       string `json:"title" binding:"required,min=1,max=128"`
	Description string `json:"description" binding:"required,min=1,max=1024"`
	Cost        *int   `json:"cost" binding:"required,min=0"`
}

func (r supportTierReq) toNew() services.NewSupportTier {
	return services.NewSupportTier{Title: r.Title, Description: r.Description, Cost: *r.Cost}
}

type createPetitionReq struct {
	Title        string           `json:"title" binding:"required,min=1,max=128"`
	Description  string           `json:"description" binding:"required,min=1,max=1024"`
	CategoryID   uint             `json:"categoryId" binding:"required"`
	SupportTiers []supportTierReq `json:"supportTiers" binding:"required,dive"`
}

type editPetitionReq struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=128"`
	Description *string `json:"description" binding:"omitempty,min=1,max=1024"`
	CategoryID  *uint   `json:"categoryId" binding:"omitempty,min=1"`
}

// Search GET /petitions
func (h *PetitionHandler) Search(c *gin.Context) {
	var params services.SearchParams

	for _, raw := range c.QueryArray("categoryIds") {
		id, ok := utils.ParseID(raw)
		if !ok {
			badRequest(c, "invalid categoryIds")
			return
		}
		params.CategoryIDs = append(params.CategoryIDs, id)
	}

	var ok bool
	if params.OwnerID, ok = optionalID(c, "ownerId"); !ok {
		return
	}
	if params.SupporterID, ok = optionalID(c, "supporterId"); !ok {
		return
	}
	if params.SupportingCost, ok = optionalInt(c, "supportingCost"); !ok {
		return
	}
	if params.StartIndex, ok = optionalInt(c, "startIndex"); !ok {
		return
	}
	if params.Count, ok = optionalInt(c, "count"); !ok {
		return
	}
	if q, present := c.GetQuery("q"); present {
		params.Q = &q
	}
	params.SortBy = c.Query("sortBy")

	result, err := h.petitions.Search(c.Request.Context(), params)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Detail GET /petitions/:id
func (h *PetitionHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	petition, err := h.petitions.Get(c.Request.Context(), id)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, petition)
}

// Create POST /petitions
func (h *PetitionHandler) Create(c *gin.Context) {
	var req createPetitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[http] create petition: invalid body: %v", err)
		badRequest(c, "Invalid information")
		return
	}

	taken, err := h.petitions.TitleTaken(c.Request.Context(), req.Title, 0)
	if err != nil {
		RenderError(c, err)
		return
	}
	if taken {
		RenderError(c, services.ErrDuplicatePetitionTitle)
		return
	}

	tiers := make([]services.NewSupportTier, len(req.SupportTiers))
	for i, t := range req.SupportTiers {
		tiers[i] = t.toNew()
	}
	id, err := h.petitions.Create(c.Request.Context(), middleware.Credential(c), services.NewPetition{
		Title:        req.Title,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		SupportTiers: tiers,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"petitionId": id})
}

// Update PATCH /petitions/:id
func (h *PetitionHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req editPetitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[http] edit petition: invalid body: %v", err)
		badRequest(c, "Invalid information")
		return
	}

	// Title uniqueness across petitions is checked here, before the edit.
	if req.Title != nil {
		taken, err := h.petitions.TitleTaken(c.Request.Context(), *req.Title, id)
		if err != nil {
			RenderError(c, err)
			return
		}
		if taken {
			RenderError(c, services.ErrDuplicatePetitionTitle)
			return
		}
	}

	err := h.petitions.Edit(c.Request.Context(), middleware.Credential(c), id, services.PetitionPatch{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Delete DELETE /petitions/:id
func (h *PetitionHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.petitions.Delete(c.Request.Context(), middleware.Credential(c), id); err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Categories GET /petitions/categories
func (h *PetitionHandler) Categories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}
