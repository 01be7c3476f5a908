package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-turns/internal/session"
	"github.com/jwebster45206/story-turns/pkg/narrative"
	"github.com/jwebster45206/story-turns/pkg/scene"
	"github.com/jwebster45206/story-turns/pkg/storage"
	"github.com/jwebster45206/story-turns/pkg/story"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func setupSessionHandler(t *testing.T) (*SessionHandler, *storage.MockStorage) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "stories", "mystery_grove.json"))
	require.NoError(t, err)

	store := storage.NewMockStorage()
	store.AddStory("The Mystery Grove", "mystery_grove.json", data)
	store.AddStory("Broken", "broken.json", []byte(`{"knots": `))

	manager := session.NewManager(store, story.Factory, testLogger())
	return NewSessionHandler(manager, testLogger()), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeSession(t *testing.T, rr *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), rr.Body.String())
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Error
}

func createSession(t *testing.T, h http.Handler) SessionResponse {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/v1/sessions", `{"story":"Mystery Grove"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeSession(t, rr)
}

func TestSessionHandler_Create(t *testing.T) {
	h, _ := setupSessionHandler(t)

	rr := do(t, h, http.MethodPost, "/v1/sessions", `{"story":"mystery_grove.json"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	resp := decodeSession(t, rr)
	assert.NotEqual(t, uuid.Nil, resp.SessionID)
	assert.Equal(t, "forest", resp.View.Location)
	assert.Equal(t, scene.BackgroundIndex("forest"), resp.Background)
	assert.Equal(t, "morning", resp.TintName)
	require.NotEmpty(t, resp.Buttons)
	assert.Equal(t, scene.ActionContinue, resp.Buttons[0].Action)
}

func TestSessionHandler_CreateErrors(t *testing.T) {
	h, _ := setupSessionHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "invalid json", body: `{`, status: http.StatusBadRequest},
		{name: "missing story", body: `{}`, status: http.StatusBadRequest},
		{name: "unknown story", body: `{"story":"nope"}`, status: http.StatusNotFound},
		{name: "unparseable story", body: `{"story":"broken"}`, status: http.StatusUnprocessableEntity},
		{name: "unknown knot", body: `{"story":"mystery_grove","knot":"strt"}`, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/v1/sessions", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decodeError(t, rr))
		})
	}
}

func TestSessionHandler_UnknownKnotSuggestion(t *testing.T) {
	h, _ := setupSessionHandler(t)

	rr := do(t, h, http.MethodPost, "/v1/sessions", `{"story":"mystery_grove","knot":"medow"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, decodeError(t, rr), `did you mean "meadow"?`)
}

func TestSessionHandler_PlayThrough(t *testing.T) {
	h, _ := setupSessionHandler(t)
	created := createSession(t, h)
	base := "/v1/sessions/" + created.SessionID.String()

	rr := do(t, h, http.MethodPost, base+"/continue", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decodeSession(t, rr)
	require.Len(t, resp.View.Choices, 3)

	rr = do(t, h, http.MethodPost, base+"/choose", `{"index":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp = decodeSession(t, rr)
	assert.Equal(t, "meadow", resp.View.Location)
	assert.Equal(t, scene.BackgroundIndex("meadow"), resp.Background)

	rr = do(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, resp.View, decodeSession(t, rr).View)

	rr = do(t, h, http.MethodPost, base+"/restart", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decodeSession(t, rr).View.Turn)

	rr = do(t, h, http.MethodGet, base+"/transcript", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var transcript TranscriptResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&transcript))
	assert.Equal(t, created.SessionID, transcript.SessionID)
	require.Len(t, transcript.Turns, 4)
	assert.Equal(t, storage.ActionRestart, transcript.Turns[3].Action)

	rr = do(t, h, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestSessionHandler_EndingCountedOnce(t *testing.T) {
	h, _ := setupSessionHandler(t)
	created := createSession(t, h)
	base := "/v1/sessions/" + created.SessionID.String()
	before := counterValue(t, storiesEndedTotal)

	steps := []struct{ path, body string }{
		{base + "/continue", ""},
		{base + "/choose", `{"index":1}`},
		{base + "/choose", `{"index":1}`},
		{base + "/choose", `{"index":0}`},
	}
	var resp SessionResponse
	for _, s := range steps {
		rr := do(t, h, http.MethodPost, s.path, s.body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp = decodeSession(t, rr)
	}
	require.True(t, resp.View.Ended)
	assert.Equal(t, before+1, counterValue(t, storiesEndedTotal))

	rr := do(t, h, http.MethodPost, base+"/continue", "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, before+1, counterValue(t, storiesEndedTotal))
}

func TestSessionHandler_ChooseErrors(t *testing.T) {
	h, _ := setupSessionHandler(t)
	created := createSession(t, h)
	path := "/v1/sessions/" + created.SessionID.String() + "/choose"

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "invalid json", body: `nope`, status: http.StatusBadRequest},
		{name: "missing index", body: `{}`, status: http.StatusBadRequest},
		{name: "no choices yet", body: `{"index":0}`, status: http.StatusBadRequest},
		{name: "negative", body: `{"index":-1}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, path, tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestSessionHandler_Routing(t *testing.T) {
	h, _ := setupSessionHandler(t)
	created := createSession(t, h)
	base := "/v1/sessions/" + created.SessionID.String()

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{name: "list sessions", method: http.MethodGet, path: "/v1/sessions", status: http.StatusMethodNotAllowed},
		{name: "bad id", method: http.MethodGet, path: "/v1/sessions/not-a-uuid", status: http.StatusBadRequest},
		{name: "unknown id", method: http.MethodGet, path: "/v1/sessions/" + uuid.NewString(), status: http.StatusNotFound},
		{name: "unknown action", method: http.MethodPost, path: base + "/dance", status: http.StatusNotFound},
		{name: "get continue", method: http.MethodGet, path: base + "/continue", status: http.StatusMethodNotAllowed},
		{name: "put session", method: http.MethodPut, path: base, status: http.StatusMethodNotAllowed},
		{name: "unknown transcript", method: http.MethodGet, path: "/v1/sessions/" + uuid.NewString() + "/transcript", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.path, "")
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestNormalizeStoryFile(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"Mystery Grove":      "mystery_grove.json",
		"mystery-grove.yaml": "mystery_grove.yaml",
		"grove.yml":          "grove.yml",
		"  grove.json ":      "grove.json",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeStoryFile(in), "input %q", in)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&narrative.InvalidChoiceError{Index: 3, Count: 1}, http.StatusBadRequest},
		{&narrative.InitializationError{Knot: "x", Err: errors.New("boom")}, http.StatusUnprocessableEntity},
		{&narrative.EngineError{Op: "choose", Err: errors.New("bad effect")}, http.StatusUnprocessableEntity},
		{session.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", storage.ErrStoryNotFound), http.StatusNotFound},
		{errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), "error %v", tt.err)
	}
}

func TestStoryHandler(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddStory("Zebra Hunt", "zebra.json", nil)
	store.AddStory("The Mystery Grove", "mystery_grove.json", nil)
	h := NewStoryHandler(testLogger(), store)

	rr := do(t, h, http.MethodGet, "/v1/stories", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var listing []StoryListing
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&listing))
	assert.Equal(t, []StoryListing{
		{Title: "The Mystery Grove", Filename: "mystery_grove.json"},
		{Title: "Zebra Hunt", Filename: "zebra.json"},
	}, listing)

	rr = do(t, h, http.MethodPost, "/v1/stories", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
