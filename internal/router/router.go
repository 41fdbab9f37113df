package router

import (
	"fmt"
	"time"

	"petitionsite/internal/config"
	"petitionsite/internal/handlers"
	"petitionsite/internal/middleware"
	"petitionsite/internal/models"
	"petitionsite/internal/services"
	"petitionsite/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionName = "petition_session"

type Handlers struct {
	Petitions    *handlers.PetitionHandler
	SupportTiers *handlers.SupportTierHandler
	Supporters   *handlers.SupporterHandler
	Users        *handlers.UserHandler
}

// NewHandlers builds the service graph over db and wraps it in handlers.
func NewHandlers(db *gorm.DB, cfg *config.Config) (*Handlers, error) {
	cache, err := utils.NewTTLCache[[]models.Category](cfg.Cache.Size, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("create category cache: %w", err)
	}

	sessionService := services.NewSessionService(cfg.JWT.Secret, 0)
	gate := services.NewGate(sessionService)
	categoryService := services.NewCategoryService(db, cache)

	return &Handlers{
		Petitions:    handlers.NewPetitionHandler(services.NewPetitionService(db, gate, categoryService), categoryService),
		SupportTiers: handlers.NewSupportTierHandler(services.NewSupportTierService(db, gate)),
		Supporters:   handlers.NewSupporterHandler(services.NewSupporterService(db, gate)),
		Users:        handlers.NewUserHandler(services.NewUserService(db, gate, sessionService)),
	}, nil
}

// New returns an engine with sessions, credential loading and every route.
func New(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	h, err := NewHandlers(db, cfg)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 86400})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadCredential())

	RegisterRoutes(r, h)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// 公共路由 (Public Routes)
	api.GET("/petitions", h.Petitions.Search)                // 搜索请愿
	api.GET("/petitions/categories", h.Petitions.Categories) // 分类列表
	api.GET("/petitions/:id", h.Petitions.Detail)            // 请愿详情
	api.GET("/petitions/:id/supporters", h.Supporters.List)  // 支持者列表
	api.POST("/users/register", h.Users.Register)            // 注册
	api.POST("/users/login", h.Users.Login)                  // 登录
	api.GET("/users/:id", h.Users.View)                      // 用户资料

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/petitions", h.Petitions.Create)
		authorized.PATCH("/petitions/:id", h.Petitions.Update)
		authorized.DELETE("/petitions/:id", h.Petitions.Delete)

		authorized.POST("/petitions/:id/supportTiers", h.SupportTiers.Add)
		authorized.PATCH("/petitions/:id/supportTiers/:tierId", h.SupportTiers.Update)
		authorized.DELETE("/petitions/:id/supportTiers/:tierId", h.SupportTiers.Delete)

		authorized.POST("/petitions/:id/supporters", h.Supporters.Pledge) // 支持请愿

		authorized.POST("/users/logout", h.Users.Logout)
		authorized.PATCH("/users/:id", h.Users.Update)
	}
}
