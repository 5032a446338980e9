package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herval/cliobot/internal/bot"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })

	return NewStore(db, nil)
}

func TestCreateOrGetSessionCreatesEmptySession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state, err := store.CreateOrGetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", state.UserID)
	assert.Empty(t, state.Context)
	assert.Empty(t, state.Preferences)
}

func TestCreateOrGetSessionConcurrentFirstContact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Several workers racing on a brand-new user must all come back with
	// the same session instead of tripping the user_id unique constraint.
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state, err := store.CreateOrGetSession(ctx, "u-new")
			if err == nil && state.UserID != "u-new" {
				err = fmt.Errorf("unexpected user id %q", state.UserID)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "goroutine %d", i)
	}
}

func TestCreateOrGetSessionRequiresUserID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateOrGetSession(context.Background(), "")
	require.Error(t, err)
}

func TestSessionStateRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateOrGetSession(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, store.SetSessionState(ctx, "u1",
		map[string]string{"command": "ask"},
		map[string]string{"size": "512x512"}))

	state, err := store.CreateOrGetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"command": "ask"}, state.Context)
	assert.Equal(t, map[string]string{"size": "512x512"}, state.Preferences)
}

func TestSetSessionStateRecreatesMissingRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// No prior CreateOrGetSession: the update path finds no row and falls
	// back to inserting one.
	require.NoError(t, store.SetSessionState(ctx, "u1",
		map[string]string{"k": "v"}, map[string]string{}))

	state, err := store.CreateOrGetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "v", state.Context["k"])
}

func TestMessageLogRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMessageLog(ctx, bot.NewMessage(bot.Message{
		MessageID: "42",
		ChatID:    "c1",
		UserID:    "u1",
		Text:      "/imagine a barn",
		Image:     "photo-1",
	})))

	msg, err := store.GetLoggedMessage(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "c1", msg.ChatID)
	assert.Equal(t, "/imagine a barn", msg.Text)
	assert.Equal(t, "photo-1", msg.Image)
}

func TestGetLoggedMessageReturnsNewestEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMessageLog(ctx, bot.NewMessage(bot.Message{MessageID: "42", ChatID: "c1", Text: "first"})))
	require.NoError(t, store.SaveMessageLog(ctx, bot.NewMessage(bot.Message{MessageID: "42", ChatID: "c1", Text: "edited"})))

	msg, err := store.GetLoggedMessage(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "edited", msg.Text)
}

func TestGetLoggedMessageMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetLoggedMessage(context.Background(), "nope")
	require.Error(t, err)
}

func TestAssetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path, err := store.GetAsset(ctx, "file-1", "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "", path, "unknown asset resolves to empty path")

	require.NoError(t, store.SaveAsset(ctx, "file-1", "u1", "c1", "/tmp/file-1.jpg"))

	path, err = store.GetAsset(ctx, "file-1", "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/file-1.jpg", path)

	// Same file cached by a different chat is a separate entry.
	path, err = store.GetAsset(ctx, "file-1", "u1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "", path)
}

func TestRunSQLMaintenance(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.RunSQLMaintenance(context.Background()))
}
