package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"petitionsite/internal/config"
	"petitionsite/internal/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv 每个测试一个独立的内存数据库
type testEnv struct {
	db         *gorm.DB
	sessions   *SessionService
	gate       *Gate
	categories *CategoryService
	petitions  *PetitionService
	tiers      *SupportTierService
	supporters *SupporterService
	users      *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	sessions := NewSessionService("test-secret", time.Hour)
	gate := NewGate(sessions)
	categories := NewCategoryService(database, nil)
	return &testEnv{
		db:         database,
		sessions:   sessions,
		gate:       gate,
		categories: categories,
		petitions:  NewPetitionService(database, gate, categories),
		tiers:      NewSupportTierService(database, gate),
		supporters: NewSupporterService(database, gate),
		users:      NewUserService(database, gate, sessions),
	}
}

// login registers a user and returns its id and a current credential.
func (e *testEnv) login(t *testing.T, name string) (uint, string) {
	t.Helper()
	ctx := context.Background()
	email := fmt.Sprintf("%s@example.com", name)
	_, err := e.users.Register(ctx, NewUser{Email: email, FirstName: name, LastName: "Tester", Password: "password1"})
	require.NoError(t, err)
	res, err := e.users.Login(ctx, email, "password1")
	require.NoError(t, err)
	return res.UserID, res.Token
}

func tiersWithCosts(costs ...int) []NewSupportTier {
	tiers := make([]NewSupportTier, len(costs))
	for i, c := range costs {
		tiers[i] = NewSupportTier{
			Title:       fmt.Sprintf("Tier %d", i+1),
			Description: "A way to help",
			Cost:        c,
		}
	}
	return tiers
}

func (e *testEnv) createPetition(t *testing.T, cred, title string, categoryID uint, costs ...int) uint {
	t.Helper()
	id, err := e.petitions.Create(context.Background(), cred, NewPetition{
		Title:        title,
		Description:  "Description of " + title,
		CategoryID:   categoryID,
		SupportTiers: tiersWithCosts(costs...),
	})
	require.NoError(t, err)
	return id
}
