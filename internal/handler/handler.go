package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/chemquiz/internal/catalog"
	"github.com/pavelanni/chemquiz/internal/i18n"
	"github.com/pavelanni/chemquiz/internal/llm"
	"github.com/pavelanni/chemquiz/internal/llm/prompts"
	"github.com/pavelanni/chemquiz/internal/model"
	"github.com/pavelanni/chemquiz/internal/quiz"
)

// Explainer produces tutor feedback for an answered quiz item.
type Explainer interface {
	Explain(ctx context.Context, in prompts.ExplainInput) (*llm.Explanation, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	catalog   atomic.Pointer[catalog.Catalog]
	manifest  *catalog.Manifest
	explainer Explainer
	config    model.Config
}

// New creates a new Handler. The manifest and explainer are optional.
func New(cat *catalog.Catalog, m *catalog.Manifest, ex Explainer, cfg model.Config) (*Handler, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if cfg.OptionCount == 0 {
		cfg.OptionCount = 4
	}
	if cfg.Mode == "" {
		cfg.Mode = model.ModeNameToStructure
	}
	h := &Handler{manifest: m, explainer: ex, config: cfg}
	h.catalog.Store(cat)
	return h, nil
}

// SetCatalog swaps the catalog served by subsequent requests.
func (h *Handler) SetCatalog(c *catalog.Catalog) {
	h.catalog.Store(c)
}

// Catalog returns the catalog currently being served.
func (h *Handler) Catalog() *catalog.Catalog {
	return h.catalog.Load()
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog/paths", h.handlePaths)
		r.Get("/catalog/compounds", h.handleCompounds)
		r.Get("/manifest", h.handleManifest)
		r.Get("/quiz", h.handleQuiz)
		r.Post("/quiz/answer", h.handleAnswer)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"compounds": h.Catalog().Len(),
	})
}

func (h *Handler) handlePaths(w http.ResponseWriter, r *http.Request) {
	paths := h.Catalog().AvailablePaths()
	if paths == nil {
		paths = [][]string{}
	}
	writeJSON(w, http.StatusOK, paths)
}

type compoundsResponse struct {
	Path      string           `json:"path"`
	Summary   string           `json:"summary"`
	Compounds []model.Compound `json:"compounds"`
}

func (h *Handler) handleCompounds(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query()["path"]
	compounds, err := h.Catalog().CompoundsFor(path)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compoundsResponse{
		Path:      pathLabel(r.Context(), path),
		Summary:   i18n.Tp(r.Context(), "CompoundsAvailable", len(compounds)),
		Compounds: compounds,
	})
}

func (h *Handler) handleManifest(w http.ResponseWriter, r *http.Request) {
	if h.manifest == nil {
		writeError(w, http.StatusNotFound, i18n.T(r.Context(), "ErrNoManifest"))
		return
	}
	leaves := h.manifest.Leaves()
	catalog.SortLeaves(leaves)
	writeJSON(w, http.StatusOK, leaves)
}

type quizResponse struct {
	Item    model.QuizItem `json:"item"`
	Heading string         `json:"heading"`
	Path    string         `json:"path"`
	Hint    string         `json:"hint,omitempty"`
	Seed    uint64         `json:"seed"`
}

func (h *Handler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	mode := h.config.Mode
	if raw := q.Get("mode"); raw != "" {
		parsed, ok := model.ParseQuizMode(raw)
		if !ok {
			parsed = model.QuizMode(raw)
		}
		mode = parsed
	}

	optionCount := h.config.OptionCount
	if raw := q.Get("options"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrBadRequest"))
			return
		}
		optionCount = n
	}

	seed := rand.Uint64()
	if raw := q.Get("seed"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrBadRequest"))
			return
		}
		seed = n
	}

	path := q["path"]
	compounds, err := h.compoundsFor(path)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	item, err := quiz.Generate(rng, compounds, mode, optionCount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := quizResponse{
		Item:    item,
		Heading: heading(r.Context(), item.Mode),
		Path:    pathLabel(r.Context(), path),
		Seed:    seed,
	}
	if c, ok := quiz.FindPromptCompound(compounds, item); ok {
		if hint, ok := quiz.Hint(c); ok {
			resp.Hint = hint
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type answerRequest struct {
	Item     model.QuizItem `json:"item"`
	Selected int            `json:"selected"`
	Path     []string       `json:"path"`
}

type answerResponse struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correct_index"`
	Message      string `json:"message"`
	Explanation  string `json:"explanation,omitempty"`
	Tip          string `json:"tip,omitempty"`
	Source       string `json:"source,omitempty"`
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrBadRequest"))
		return
	}
	item := req.Item
	n := len(item.Options)
	if n == 0 || item.CorrectIndex < 0 || item.CorrectIndex >= n || req.Selected < 0 || req.Selected >= n {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrBadRequest"))
		return
	}

	compounds, err := h.compoundsFor(req.Path)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	ctx := r.Context()

	// The correct option must be the label of the prompt's catalog compound.
	if !item.Mode.Valid() {
		writeError(w, http.StatusBadRequest, i18n.T(ctx, "ErrBadRequest"))
		return
	}
	c, ok := quiz.FindPromptCompound(compounds, item)
	if !ok {
		writeError(w, http.StatusBadRequest, i18n.T(ctx, "ErrBadRequest"))
		return
	}
	answer := quiz.OptionLabel(c, item.Mode)
	if item.Options[item.CorrectIndex] != answer {
		writeError(w, http.StatusBadRequest, i18n.T(ctx, "ErrBadRequest"))
		return
	}
	compound := &c

	correct := quiz.IsCorrect(item, req.Selected)
	resp := answerResponse{
		Correct:      correct,
		CorrectIndex: item.CorrectIndex,
	}
	if correct {
		resp.Message = i18n.T(ctx, "AnswerCorrect")
	} else {
		resp.Message = i18n.Td(ctx, "AnswerIncorrect", map[string]any{"Answer": answer})
	}

	if h.explainer != nil {
		ex, err := h.explainer.Explain(ctx, prompts.ExplainInput{
			Item:     item,
			Selected: req.Selected,
			Compound: compound,
			Language: i18n.Lang(ctx),
		})
		switch {
		case err != nil:
			slog.Warn("LLM explanation failed, falling back to hint", "error", err)
		case ex == nil:
			slog.Warn("LLM returned no explanation, falling back to hint")
		default:
			resp.Explanation = ex.Explanation
			resp.Tip = ex.Tip
			resp.Source = "llm"
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	if hint, ok := quiz.Hint(*compound); ok {
		resp.Explanation = hint
		resp.Source = "hint"
	}
	writeJSON(w, http.StatusOK, resp)
}

// compoundsFor returns the whole catalog when path is empty.
func (h *Handler) compoundsFor(path []string) ([]model.Compound, error) {
	cat := h.Catalog()
	if len(path) == 0 {
		return cat.AllCompounds(), nil
	}
	return cat.CompoundsFor(path)
}

func heading(ctx context.Context, mode model.QuizMode) string {
	if mode == model.ModeStructureToName {
		return i18n.T(ctx, "QuizHeadingStructureToName")
	}
	return i18n.T(ctx, "QuizHeadingNameToStructure")
}

func pathLabel(ctx context.Context, path []string) string {
	if len(path) == 0 {
		return i18n.T(ctx, "CategoryNotSelected")
	}
	return catalog.FormatPath(path)
}
