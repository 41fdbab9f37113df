package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"petitionsite/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPledge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, owner := env.login(t, "owner")
	fanID, fan := env.login(t, "fan")
	id := env.createPetition(t, owner, "Parks", 1, 5, 10)
	otherID := env.createPetition(t, owner, "Other", 1, 1)
	detail, err := env.petitions.Get(ctx, id)
	require.NoError(t, err)
	other, err := env.petitions.Get(ctx, otherID)
	require.NoError(t, err)
	first, second := detail.SupportTiers[0].SupportTierID, detail.SupportTiers[1].SupportTierID

	_, err = env.supporters.Pledge(ctx, owner, id, NewPledge{SupportTierID: first})
	assert.ErrorIs(t, err, ErrSelfSupport)
	_, err = env.supporters.Pledge(ctx, "", id, NewPledge{SupportTierID: first})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.supporters.Pledge(ctx, fan, id, NewPledge{SupportTierID: other.SupportTiers[0].SupportTierID})
	assert.ErrorIs(t, err, ErrTierNotFound)
	_, err = env.supporters.Pledge(ctx, fan, id+otherID, NewPledge{SupportTierID: first})
	assert.ErrorIs(t, err, ErrPetitionNotFound)

	msg := "Go team"
	supportID, err := env.supporters.Pledge(ctx, fan, id, NewPledge{SupportTierID: first, Message: &msg})
	require.NoError(t, err)
	assert.NotZero(t, supportID)

	_, err = env.supporters.Pledge(ctx, fan, id, NewPledge{SupportTierID: first})
	assert.ErrorIs(t, err, ErrDuplicatePledge)

	// a second tier of the same petition is a separate pledge
	_, err = env.supporters.Pledge(ctx, fan, id, NewPledge{SupportTierID: second})
	require.NoError(t, err)

	list, err := env.supporters.ListForPetition(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, s := range list {
		assert.Equal(t, fanID, s.SupporterID)
		assert.Equal(t, "fan", s.SupporterFirstName)
	}
}

func TestListForPetition_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, owner := env.login(t, "owner")
	_, a := env.login(t, "a")
	_, b := env.login(t, "b")
	id := env.createPetition(t, owner, "Parks", 1, 5)
	detail, err := env.petitions.Get(ctx, id)
	require.NoError(t, err)
	tier := detail.SupportTiers[0].SupportTierID

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env.supporters.now = func() time.Time { return base }
	older, err := env.supporters.Pledge(ctx, a, id, NewPledge{SupportTierID: tier})
	require.NoError(t, err)
	env.supporters.now = func() time.Time { return base.Add(time.Hour) }
	newer, err := env.supporters.Pledge(ctx, b, id, NewPledge{SupportTierID: tier})
	require.NoError(t, err)

	list, err := env.supporters.ListForPetition(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].SupportID)
	assert.Equal(t, older, list[1].SupportID)
	assert.Nil(t, list[0].Message)

	empty := env.createPetition(t, owner, "Empty", 1, 5)
	list, err = env.supporters.ListForPetition(ctx, empty)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.supporters.ListForPetition(ctx, empty+100)
	assert.ErrorIs(t, err, ErrPetitionNotFound)
}

func TestPledge_ConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, owner := env.login(t, "owner")
	_, fan := env.login(t, "fan")
	id := env.createPetition(t, owner, "Parks", 1, 5)
	detail, err := env.petitions.Get(ctx, id)
	require.NoError(t, err)
	tier := detail.SupportTiers[0].SupportTierID

	const workers = 5
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.supporters.Pledge(ctx, fan, id, NewPledge{SupportTierID: tier})
		}(i)
	}
	wg.Wait()

	pledged := 0
	for _, err := range errs {
		if err == nil {
			pledged++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicatePledge)
	}
	assert.Equal(t, 1, pledged)

	list, err := env.supporters.ListForPetition(ctx, id)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// The (tier, user) unique index rejects a second row even when the service
// checks are bypassed.
func TestSupporterUniqueIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, owner := env.login(t, "owner")
	fanID, fan := env.login(t, "fan")
	id := env.createPetition(t, owner, "Parks", 1, 5)
	detail, err := env.petitions.Get(ctx, id)
	require.NoError(t, err)
	tier := detail.SupportTiers[0].SupportTierID

	_, err = env.supporters.Pledge(ctx, fan, id, NewPledge{SupportTierID: tier})
	require.NoError(t, err)

	dup := models.Supporter{PetitionID: id, SupportTierID: tier, UserID: fanID, Timestamp: time.Now()}
	err = env.db.Omit("Petition", "SupportTier", "User").Create(&dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
