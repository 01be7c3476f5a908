package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/story-turns/pkg/narrative"
	"github.com/jwebster45206/story-turns/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, dataDir string) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewRedisStorage("redis://"+mr.Addr(), dataDir, time.Minute, logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis storage: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
		mr.Close()
	})
	return store, mr
}

func writeStory(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stories"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stories", name), []byte(body), 0o644))
}

func TestNewRedisStorage_BareAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := NewRedisStorage(mr.Addr(), "", 0, logger)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "./data", store.dataDir)
	assert.Equal(t, DefaultTranscriptTTL, store.transcriptTTL)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewRedisStorage_BadURL(t *testing.T) {
	_, err := NewRedisStorage("http://localhost:6379", "", 0, slog.Default())
	assert.Error(t, err)
}

func TestRedisStorage_WaitForConnection(t *testing.T) {
	store, _ := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.WaitForConnection(ctx, 3, time.Millisecond))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	down, err := NewRedisStorage("127.0.0.1:1", t.TempDir(), 0, logger)
	require.NoError(t, err)
	defer down.Close()

	err = down.WaitForConnection(ctx, 2, time.Millisecond)
	assert.Error(t, err)
}

func TestRedisStorage_ListStories(t *testing.T) {
	dir := t.TempDir()
	writeStory(t, dir, "grove.json", `{"title": "The Grove", "knots": {"start": {"lines": ["Hi."], "end": true}}}`)
	writeStory(t, dir, "untitled.yaml", "knots:\n  start:\n    lines: [\"Hello.\"]\n    end: true\n")
	writeStory(t, dir, "broken.json", `{"knots": `)
	writeStory(t, dir, "notes.txt", "not a story")

	store, _ := setupTestRedis(t, dir)

	stories, err := store.ListStories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"The Grove": "grove.json",
		"untitled":  "untitled.yaml",
	}, stories)
}

func TestRedisStorage_ListStoriesMissingDir(t *testing.T) {
	store, _ := setupTestRedis(t, filepath.Join(t.TempDir(), "nope"))

	stories, err := store.ListStories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestRedisStorage_GetStory(t *testing.T) {
	dir := t.TempDir()
	body := `{"knots": {"start": {"lines": ["Hi."], "end": true}}}`
	writeStory(t, dir, "grove.json", body)
	store, _ := setupTestRedis(t, dir)
	ctx := context.Background()

	data, err := store.GetStory(ctx, "grove.json")
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	for _, name := range []string{"missing.json", "", "../secrets.json", "sub/grove.json"} {
		t.Run(name, func(t *testing.T) {
			_, err := store.GetStory(ctx, name)
			assert.True(t, errors.Is(err, storage.ErrStoryNotFound), "got %v", err)
		})
	}
}

func TestRedisStorage_Transcript(t *testing.T) {
	store, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()
	id := uuid.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	empty, err := store.Transcript(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, empty)

	choice := 1
	require.NoError(t, store.AppendTurn(ctx, id, storage.TurnRecord{
		Turn: 1, Action: storage.ActionStart, At: at,
		View: narrative.ViewState{DisplayText: "You enter the dark forest.", Location: "forest", Turn: 1},
	}))
	require.NoError(t, store.AppendTurn(ctx, id, storage.TurnRecord{
		Turn: 2, Action: storage.ActionChoose, ChoiceIndex: &choice, At: at,
		View: narrative.ViewState{Location: "meadow", Turn: 2},
	}))

	key := "transcript:" + id.String()
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	records, err := store.Transcript(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, storage.ActionStart, records[0].Action)
	assert.Equal(t, "forest", records[0].View.Location)
	assert.Nil(t, records[0].ChoiceIndex)
	require.NotNil(t, records[1].ChoiceIndex)
	assert.Equal(t, 1, *records[1].ChoiceIndex)
	assert.True(t, at.Equal(records[1].At))

	require.NoError(t, store.DeleteTranscript(ctx, id))
	assert.False(t, mr.Exists(key))
}

func TestRedisStorage_TranscriptExpires(t *testing.T) {
	store, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.AppendTurn(ctx, id, storage.TurnRecord{Turn: 1, Action: storage.ActionStart}))
	mr.FastForward(2 * time.Minute)

	records, err := store.Transcript(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRedisStorage_TranscriptSkipsCorruptEntries(t *testing.T) {
	store, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()
	id := uuid.New()

	_, err := mr.Push("transcript:"+id.String(), "{not json")
	require.NoError(t, err)
	require.NoError(t, store.AppendTurn(ctx, id, storage.TurnRecord{Turn: 1, Action: storage.ActionStart}))

	records, err := store.Transcript(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Turn)
}
