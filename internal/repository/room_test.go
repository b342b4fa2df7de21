package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
)

const testTTL = time.Minute

func TestRoomRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	roomRepo := NewRoomRepository(st.Storage, testTTL)

	// Given: a waiting room
	room := entity.NewRoom("r1", "conn-a")

	// When: CreateOrUpdate is called
	err := roomRepo.CreateOrUpdate(ctx, room)

	// Then: no error should be returned, and the key expires eventually
	require.NoError(t, err)

	ttl, err := st.Storage.TTL(ctx, roomKeyPrefix+room.ID).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
	assert.LessOrEqual(t, ttl, testTTL)
}

func TestRoomRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testTTL)

		// Given: an active room with one move played
		room := entity.NewRoom("r1", "conn-a")
		require.NoError(t, room.Join("conn-b"))
		_, err := room.MakeMove("conn-a", 4)
		require.NoError(t, err)

		require.NoError(t, roomRepo.CreateOrUpdate(ctx, room))

		// When: GetByID is called with the existing ID
		retrievedRoom, err := roomRepo.GetByID(ctx, room.ID)

		// Then: the retrieved room should match the saved room
		require.NoError(t, err)
		assert.Equal(t, room, retrievedRoom)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testTTL)

		// When: GetByID is called with a non-existent ID
		retrievedRoom, err := roomRepo.GetByID(ctx, "missing")

		// Then: an ErrRoomNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Empty(t, retrievedRoom.ID)
		assert.Empty(t, retrievedRoom.Status)
	})
}

func TestRoomRepository_DeleteByID(t *testing.T) {
	t.Run("DeleteByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testTTL)

		// Given: a stored room
		room := entity.NewRoom("r1", "conn-a")
		require.NoError(t, roomRepo.CreateOrUpdate(ctx, room))

		// When: DeleteByID is called with the existing ID
		err := roomRepo.DeleteByID(ctx, room.ID)

		// Then: no error should be returned and the room is gone
		require.NoError(t, err)

		_, err = roomRepo.GetByID(ctx, room.ID)
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage, testTTL)

		// When: DeleteByID is called with a non-existent ID
		err := roomRepo.DeleteByID(ctx, "missing")

		// Then: an ErrRoomNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}
