package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/jwebster45206/story-turns/pkg/storage"
)

// StoryListing is one entry in GET /v1/stories.
type StoryListing struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
}

type StoryHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewStoryHandler(log *slog.Logger, storage storage.Storage) *StoryHandler {
	return &StoryHandler{
		log:     log,
		storage: storage,
	}
}

func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	stories, err := h.storage.ListStories(r.Context())
	if err != nil {
		h.log.Error("Failed to list stories", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list stories")
		return
	}

	listing := make([]StoryListing, 0, len(stories))
	for title, file := range stories {
		listing = append(listing, StoryListing{Title: title, Filename: file})
	}
	sort.Slice(listing, func(i, j int) bool { return listing[i].Title < listing[j].Title })

	writeJSON(w, h.log, http.StatusOK, listing)
}
