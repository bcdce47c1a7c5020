package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"jobwarden/internal/jobboard"
)

type Backend struct {
	Logger    *slog.Logger
	Moderator *jobboard.Moderator
}

func (b *Backend) Init(context.Context) error {
	b.Logger = b.Logger.With("component", "api.Backend")
	return nil
}

type jobPost struct {
	AuthorID  string    `json:"author_id"`
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
	Type      string    `json:"type"`
	Tags      []string  `json:"tags"`
}

type jobsResponse struct {
	Hiring  []jobPost `json:"hiring"`
	ForHire []jobPost `json:"for_hire"`
}

func (b *Backend) GetJobs(w http.ResponseWriter, _ *http.Request) {
	hiring, forHire := b.Moderator.Snapshot()

	writeJSON(w, http.StatusOK, jobsResponse{
		Hiring:  lo.Map(hiring, toJobPost),
		ForHire: lo.Map(forHire, toJobPost),
	})
}

func (b *Backend) PurgeAuthor(w http.ResponseWriter, r *http.Request) {
	authorID := chi.URLParam(r, "authorID")
	if authorID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "author ID is required"})
		return
	}

	removed := b.Moderator.PurgeAuthor(authorID)
	b.Logger.Info("author purged", "author_id", authorID, "removed", removed)

	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func toJobPost(p jobboard.StoredPost, _ int) jobPost {
	return jobPost{
		AuthorID:  p.AuthorID,
		MessageID: p.MessageID,
		CreatedAt: p.CreatedAt,
		Type:      string(p.Type),
		Tags:      p.Tags,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
