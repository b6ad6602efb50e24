package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gostop/gostop-server-go/internal/config"
)

func TestNewDBWithoutURL(t *testing.T) {
	db, err := NewDB(context.Background(), config.DatabaseConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, db)

	db.Close() // nil-safe
}

func TestNoOpRepositoryWithoutDB(t *testing.T) {
	ctx := context.Background()
	repo := NewRoundRepository(nil)

	assert.NoError(t, repo.SaveRound(ctx, RoundRecord{RoomCode: "ROOM1", RoundNumber: 1}))

	rounds, err := repo.RoomRounds(ctx, "ROOM1")
	require.NoError(t, err)
	assert.Nil(t, rounds)

	totals, err := repo.PlayerTotals(ctx, "ROOM1")
	require.NoError(t, err)
	assert.Nil(t, totals)
}

func TestNewDBRejectsBadURL(t *testing.T) {
	_, err := NewDB(context.Background(), config.DatabaseConfig{URL: "not-a-url"}, zap.NewNop())
	assert.Error(t, err)
}
