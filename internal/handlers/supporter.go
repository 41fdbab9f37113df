package handlers

import (
	"log"
	"net/http"

	"petitionsite/internal/middleware"
	"petitionsite/internal/services"

	"github.com/gin-gonic/gin"
)

type SupporterHandler struct {
	supporters *services.SupporterService
}

func NewSupporterHandler(supporters *services.SupporterService) *SupporterHandler {
	return &SupporterHandler{supporters: supporters}
}

type pledgeReq struct {
	SupportTierID uint    `json:"supportTierId" binding:"required,min=1"`
	Message       *string `json:"message" binding:"omitempty,min=1,max=512"`
}

// List GET /petitions/:id/supporters
func (h *SupporterHandler) List(c *gin.Context) {
	petitionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	supporters, err := h.supporters.ListForPetition(c.Request.Context(), petitionID)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, supporters)
}

// Pledge POST /petitions/:id/supporters
func (h *SupporterHandler) Pledge(c *gin.Context) {
	petitionID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req pledgeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[http] pledge: invalid body: %v", err)
		badRequest(c, "Invalid information")
		return
	}

	id, err := h.supporters.Pledge(c.Request.Context(), middleware.Credential(c), petitionID, services.NewPledge{
		SupportTierID: req.SupportTierID,
		Message:       req.Message,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"supportId": id})
}
