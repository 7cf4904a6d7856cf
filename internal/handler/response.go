package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pavelanni/chemquiz/internal/catalog"
	"github.com/pavelanni/chemquiz/internal/i18n"
	"github.com/pavelanni/chemquiz/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps catalog and quiz errors to a status and a localized
// message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var (
		notFound  *catalog.CategoryNotFoundError
		notEnough *quiz.NotEnoughCompoundsError
		notUnique *quiz.InsufficientUniqueOptionsError
	)
	switch {
	case errors.Is(err, catalog.ErrEmptyPath):
		writeError(w, http.StatusBadRequest, i18n.T(ctx, "ErrEmptyPath"))
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, i18n.Td(ctx, "ErrCategoryNotFound", map[string]any{"Path": notFound.Path}))
	case errors.Is(err, quiz.ErrOptionCountTooSmall):
		writeError(w, http.StatusUnprocessableEntity, i18n.T(ctx, "ErrOptionCountTooSmall"))
	case errors.As(err, &notEnough):
		writeError(w, http.StatusUnprocessableEntity, i18n.Td(ctx, "ErrNotEnoughCompounds", map[string]any{
			"Required":  notEnough.Required,
			"Available": notEnough.Available,
		}))
	case errors.As(err, &notUnique):
		writeError(w, http.StatusUnprocessableEntity, i18n.Td(ctx, "ErrInsufficientUniqueOptions", map[string]any{
			"Required": notUnique.Required,
			"Unique":   notUnique.Unique,
		}))
	case errors.Is(err, quiz.ErrUnknownMode):
		writeError(w, http.StatusUnprocessableEntity, i18n.Td(ctx, "ErrUnknownMode", map[string]any{
			"Mode": r.URL.Query().Get("mode"),
		}))
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(ctx, "ErrInternal"))
	}
}
