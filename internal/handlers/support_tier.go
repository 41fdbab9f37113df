package handlers

import (
	"log"
	"net/http"

	"petitionsite/internal/middleware"
	"petitionsite/internal/services"

	"github.com/gin-gonic/gin"
)

type SupportTierHandler struct {
	tiers *services.SupportTierService
}

func NewSupportTierHandler(tiers *services.SupportTierService) *SupportTierHandler {
	return &SupportTierHandler{tiers: tiers}
}

type editSupportTierReq struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=128"`
	Description *string `json:"description" binding:"omitempty,min=1,max=1024"`
	Cost        *int    `json:"cost" binding:"omitempty,min=0"`
}

// Add POST /petitions/:id/supportTiers
func (h *SupportTierHandler) Add(c *gin.Context) {
	petitionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req supportTierReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[http] add support tier: invalid body: %v", err)
		badRequest(c, "Invalid information")
		return
	}

	tierID, err := h.tiers.Add(c.Request.Context(), middleware.Credential(c), petitionID, req.toNew())
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"supportTierId": tierID})
}

// Update PATCH /petitions/:id/supportTiers/:tierId
func (h *SupportTierHandler) Update(c *gin.Context) {
	petitionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	tierID, ok := idParam(c, "tierId")
	if !ok {
		return
	}
	var req editSupportTierReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[http] edit support tier: invalid body: %v", err)
		badRequest(c, "Invalid information")
		return
	}

	err := h.tiers.Edit(c.Request.Context(), middleware.Credential(c), petitionID, tierID, services.SupportTierPatch{
		Title:       req.Title,
		Description: req.Description,
		Cost:        req.Cost,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Delete DELETE /petitions/:id/supportTiers/:tierId
func (h *SupportTierHandler) Delete(c *gin.Context) {
	petitionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	tierID, ok := idParam(c, "tierId")
	if !ok {
		return
	}
	if err := h.tiers.Delete(c.Request.Context(), middleware.Credential(c), petitionID, tierID); err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
