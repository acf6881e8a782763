package service

import (
	"context"
	"testing"

	"teamvault/internal/platform/crypto"
	"teamvault/internal/store"
	"teamvault/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func newTestPinService(t *testing.T, burst int) PinService {
	t.Helper()
	return NewPinService(memory.NewPinStore(), crypto.NewBcryptPinHasher(4), 60, burst, zap.NewNop())
}

func TestPinSetAndVerify(t *testing.T) {
	ctx := context.Background()
	svc := newTestPinService(t, 100)
	user := bson.NewObjectID()

	has, err := svc.HasPin(ctx, user)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, svc.SetPin(ctx, user, "4821"))

	has, err = svc.HasPin(ctx, user)
	require.NoError(t, err)
	assert.True(t, has)

	valid, err := svc.VerifyPin(ctx, user, "4821")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = svc.VerifyPin(ctx, user, "9999")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestPinVerifyWithoutPinSet(t *testing.T) {
	ctx := context.Background()
	svc := newTestPinService(t, 100)

	valid, err := svc.VerifyPin(ctx, bson.NewObjectID(), "4821")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestPinSetTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	svc := newTestPinService(t, 100)
	user := bson.NewObjectID()

	require.NoError(t, svc.SetPin(ctx, user, "4821"))
	assert.ErrorIs(t, svc.SetPin(ctx, user, "5555"), store.ErrConflict)
}

func TestPinUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestPinService(t, 100)
	user := bson.NewObjectID()

	require.NoError(t, svc.SetPin(ctx, user, "4821"))

	t.Run("wrong old pin", func(t *testing.T) {
		assert.ErrorIs(t, svc.UpdatePin(ctx, user, "0000", "5555"), ErrInvalidPin)
	})

	t.Run("correct old pin", func(t *testing.T) {
		require.NoError(t, svc.UpdatePin(ctx, user, "4821", "5555"))

		valid, err := svc.VerifyPin(ctx, user, "5555")
		require.NoError(t, err)
		assert.True(t, valid)

		valid, err = svc.VerifyPin(ctx, user, "4821")
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("no pin set", func(t *testing.T) {
		assert.ErrorIs(t, svc.UpdatePin(ctx, bson.NewObjectID(), "4821", "5555"), store.ErrNotFound)
	})
}

func TestPinAttemptLockout(t *testing.T) {
	ctx := context.Background()
	svc := newTestPinService(t, 3)
	user := bson.NewObjectID()
	require.NoError(t, svc.SetPin(ctx, user, "4821"))

	for i := 0; i < 3; i++ {
		_, err := svc.VerifyPin(ctx, user, "0000")
		require.NoError(t, err)
	}

	_, err := svc.VerifyPin(ctx, user, "4821")
	assert.ErrorIs(t, err, ErrPinLocked)

	// The lockout is per user: another caller is unaffected.
	other := bson.NewObjectID()
	require.NoError(t, svc.SetPin(ctx, other, "1111"))
	valid, err := svc.VerifyPin(ctx, other, "1111")
	require.NoError(t, err)
	assert.True(t, valid)
}
