package handlers

import (
	"log"
	"net/http"

	"petitionsite/internal/middleware"
	"petitionsite/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type registerReq struct {
	Email     string `json:"email" binding:"required,email,max=256"`
	FirstName string `json:"firstName" binding:"required,min=1,max=64"`
	LastName  string `json:"lastName" binding:"required,min=1,max=64"`
	Password  string `json:"password" binding:"required,min=6,max=256"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateUserReq struct {
	Email           *string `json:"email" binding:"omitempty,email,max=256"`
	FirstName       *string `json:"firstName" binding:"omitempty,min=1,max=64"`
	LastName        *string `json:"lastName" binding:"omitempty,min=1,max=64"`
	Password        *string `json:"password" binding:"omitempty,min=6,max=256"`
	CurrentPassword *string `json:"currentPassword" binding:"omitempty,min=1"`
}

// Register POST /users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[http] register: invalid body: %v", err)
		badRequest(c, "Invalid information")
		return
	}
	id, err := h.users.Register(c.Request.Context(), services.NewUser{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"userId": id})
}

// Login POST /users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid information")
		return
	}
	result, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RenderError(c, err)
		return
	}

	// 浏览器客户端走 cookie，API 客户端用返回的 token
	session := sessions.Default(c)
	session.Set(middleware.SessionTokenKey, result.Token)
	if err := session.Save(); err != nil {
		log.Printf("[http] login: save session: %v", err)
	}
	c.JSON(http.StatusOK, result)
}

// Logout POST /users/logout
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.users.Logout(c.Request.Context(), middleware.Credential(c)); err != nil {
		RenderError(c, err)
		return
	}
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Printf("[http] logout: save session: %v", err)
	}
	c.Status(http.StatusOK)
}

// View GET /users/:id
func (h *UserHandler) View(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := h.users.View(c.Request.Context(), middleware.Credential(c), id)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update PATCH /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[http] update user: invalid body: %v", err)
		badRequest(c, "Invalid information")
		return
	}
	err := h.users.Update(c.Request.Context(), middleware.Credential(c), id, services.UserPatch{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Password:        req.Password,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
