package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/chemquiz/internal/catalog"
	"github.com/pavelanni/chemquiz/internal/demo"
	"github.com/pavelanni/chemquiz/internal/i18n"
	"github.com/pavelanni/chemquiz/internal/llm"
	"github.com/pavelanni/chemquiz/internal/llm/prompts"
	"github.com/pavelanni/chemquiz/internal/model"
)

func TestMain(m *testing.M) {
	if err := i18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeExplainer struct {
	got   prompts.ExplainInput
	err   error
	empty bool
}

func (f *fakeExplainer) Explain(_ context.Context, in prompts.ExplainInput) (*llm.Explanation, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return nil, nil
	}
	return &llm.Explanation{Explanation: "explained", Tip: "remember"}, nil
}

func newTestServer(t *testing.T, m *catalog.Manifest, ex Explainer) (*Handler, http.Handler) {
	t.Helper()
	h, err := New(demo.Catalog(), m, ex, model.Config{OptionCount: 4, Mode: model.ModeNameToStructure})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	r.Use(i18n.Middleware("en"))
	h.Routes(r)
	return h, r
}

func do(t *testing.T, srv http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestNewRequiresCatalog(t *testing.T) {
	if _, err := New(nil, nil, nil, model.Config{}); err == nil {
		t.Fatal("expected error for nil catalog")
	}
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	if got["status"] != "ok" || got["compounds"] != float64(len(demo.Compounds())) {
		t.Errorf("unexpected health body: %v", got)
	}
}

func TestPaths(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)
	rec := do(t, srv, http.MethodGet, "/api/catalog/paths", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	paths := decode[[][]string](t, rec)
	want := demo.Catalog().AvailablePaths()
	if len(paths) != len(want) {
		t.Fatalf("got %d paths, want %d", len(paths), len(want))
	}
	if strings.Join(paths[0], "/") != strings.Join(want[0], "/") {
		t.Errorf("first path = %v, want %v", paths[0], want[0])
	}
}

func TestCompounds(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)

	tests := []struct {
		name   string
		target string
		status int
		count  int
		errSub string
	}{
		{"inorganic", "/api/catalog/compounds?path=Inorganic", http.StatusOK, 2, ""},
		{"nested", "/api/catalog/compounds?path=Inorganic&path=Salts&path=Halides", http.StatusOK, 1, ""},
		{"empty path", "/api/catalog/compounds", http.StatusBadRequest, 0, "Choose a category"},
		{"unknown", "/api/catalog/compounds?path=Biochemistry", http.StatusNotFound, 0, "Biochemistry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.target, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.errSub != "" {
				body := decode[map[string]string](t, rec)
				if !strings.Contains(body["error"], tt.errSub) {
					t.Errorf("error = %q, want substring %q", body["error"], tt.errSub)
				}
				return
			}
			body := decode[compoundsResponse](t, rec)
			if len(body.Compounds) != tt.count {
				t.Errorf("got %d compounds, want %d", len(body.Compounds), tt.count)
			}
			if body.Summary == "" {
				t.Error("expected summary")
			}
		})
	}
}

func TestManifest(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)
	if rec := do(t, srv, http.MethodGet, "/api/manifest", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status without manifest = %d, want 404", rec.Code)
	}

	m := &catalog.Manifest{Roots: []catalog.Node{
		{Label: "Organic", Slug: "organic", Children: []catalog.Node{
			{Label: "Ketones", Slug: "ketones", File: "organic/ketones.json"},
			{Label: "Alkanes", Slug: "alkanes", File: "organic/alkanes.json"},
		}},
	}}
	_, srv = newTestServer(t, m, nil)
	rec := do(t, srv, http.MethodGet, "/api/manifest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	leaves := decode[[]model.CatalogLeaf](t, rec)
	if len(leaves) != 2 {
		t.Fatalf("got %d leaves, want 2", len(leaves))
	}
	if leaves[0].File != "organic/alkanes.json" {
		t.Errorf("leaves not sorted: %+v", leaves)
	}
}

func TestQuiz(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/quiz?mode=structure&seed=7&path=Organic", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	got := decode[quizResponse](t, rec)
	if got.Item.Mode != model.ModeStructureToName {
		t.Errorf("mode = %q", got.Item.Mode)
	}
	if len(got.Item.Options) != 4 {
		t.Errorf("got %d options, want 4", len(got.Item.Options))
	}
	if got.Heading != "Choose the correct name" {
		t.Errorf("heading = %q", got.Heading)
	}
	if got.Path != "Organic" || got.Seed != 7 {
		t.Errorf("path = %q seed = %d", got.Path, got.Seed)
	}

	again := decode[quizResponse](t, do(t, srv, http.MethodGet, "/api/quiz?mode=structure&seed=7&path=Organic", nil))
	if again.Item.Prompt != got.Item.Prompt || again.Item.CorrectIndex != got.Item.CorrectIndex {
		t.Error("same seed should produce the same quiz")
	}
}

func TestQuizDefaultsAndLanguage(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/quiz?lang=ja", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[quizResponse](t, rec)
	if got.Item.Mode != model.ModeNameToStructure {
		t.Errorf("default mode = %q", got.Item.Mode)
	}
	if got.Heading != "正しい構造を選んでください" {
		t.Errorf("heading = %q", got.Heading)
	}
	if got.Path != "未選択" {
		t.Errorf("path label = %q", got.Path)
	}
}

func TestQuizErrors(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)

	tests := []struct {
		name   string
		target string
		status int
		errSub string
	}{
		{"too few options", "/api/quiz?options=1", http.StatusUnprocessableEntity, "at least 2"},
		{"not enough compounds", "/api/quiz?path=Inorganic", http.StatusUnprocessableEntity, "needs 4 compounds but only 2"},
		{"unknown mode", "/api/quiz?mode=formula", http.StatusUnprocessableEntity, "formula"},
		{"unknown category", "/api/quiz?path=Nope", http.StatusNotFound, "Nope"},
		{"bad options", "/api/quiz?options=four", http.StatusBadRequest, "Invalid request"},
		{"bad seed", "/api/quiz?seed=-1", http.StatusBadRequest, "Invalid request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.target, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			body := decode[map[string]string](t, rec)
			if !strings.Contains(body["error"], tt.errSub) {
				t.Errorf("error = %q, want substring %q", body["error"], tt.errSub)
			}
		})
	}
}

func benzeneItem() model.QuizItem {
	return model.QuizItem{
		Mode:         model.ModeStructureToName,
		Prompt:       "C6H6 (C6H6)",
		Options:      []string{"hexane / ヘキサン", "ethyne (acetylene) / アセチレン", "methanol (methyl alcohol) / メタノール", "benzene / ベンゼン"},
		CorrectIndex: 3,
	}
}

func TestAnswerWithoutExplainer(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodPost, "/api/quiz/answer", answerRequest{Item: benzeneItem(), Selected: 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	got := decode[answerResponse](t, rec)
	if got.Correct {
		t.Error("option 0 should be incorrect")
	}
	if got.CorrectIndex != 3 {
		t.Errorf("correct index = %d", got.CorrectIndex)
	}
	if got.Message != "Incorrect. The answer is benzene / ベンゼン." {
		t.Errorf("message = %q", got.Message)
	}
	if got.Source != "hint" || got.Explanation != "Molecular formula: C6H6" {
		t.Errorf("explanation = %q source = %q", got.Explanation, got.Source)
	}

	got = decode[answerResponse](t, do(t, srv, http.MethodPost, "/api/quiz/answer", answerRequest{Item: benzeneItem(), Selected: 3}))
	if !got.Correct || got.Message != "Correct!" {
		t.Errorf("unexpected response for correct answer: %+v", got)
	}
}

func TestAnswerWithExplainer(t *testing.T) {
	ex := &fakeExplainer{}
	_, srv := newTestServer(t, nil, ex)

	rec := do(t, srv, http.MethodPost, "/api/quiz/answer?lang=ja", answerRequest{Item: benzeneItem(), Selected: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[answerResponse](t, rec)
	if got.Source != "llm" || got.Explanation != "explained" || got.Tip != "remember" {
		t.Errorf("unexpected response: %+v", got)
	}
	if ex.got.Language != "ja" || ex.got.Selected != 1 {
		t.Errorf("explainer input = %+v", ex.got)
	}
	if ex.got.Compound == nil || ex.got.Compound.IUPACName != "benzene" {
		t.Errorf("explainer compound = %+v", ex.got.Compound)
	}
}

func TestAnswerExplainerFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		ex   *fakeExplainer
	}{
		{"error", &fakeExplainer{err: errors.New("timeout")}},
		{"no explanation", &fakeExplainer{empty: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newTestServer(t, nil, tt.ex)

			rec := do(t, srv, http.MethodPost, "/api/quiz/answer", answerRequest{Item: benzeneItem(), Selected: 1})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			got := decode[answerResponse](t, rec)
			if got.Source != "hint" || got.Explanation != "Molecular formula: C6H6" {
				t.Errorf("explanation = %q source = %q, want hint", got.Explanation, got.Source)
			}
		})
	}
}

func TestAnswerBadRequests(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/quiz/answer", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/quiz/answer", answerRequest{Item: benzeneItem(), Selected: 9})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/quiz/answer", answerRequest{Item: benzeneItem(), Selected: 0, Path: []string{"Nope"}})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}

func TestAnswerRejectsMismatchedItems(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)

	wrongIndex := benzeneItem()
	wrongIndex.CorrectIndex = 0

	unknownPrompt := benzeneItem()
	unknownPrompt.Prompt = "C60 (C60)"

	badMode := benzeneItem()
	badMode.Mode = "formula"

	tests := []struct {
		name     string
		item     model.QuizItem
		selected int
		path     []string
	}{
		{"correct index names a methanol structure", model.QuizItem{
			Mode:         model.ModeNameToStructure,
			Prompt:       "benzene / ベンゼン",
			Options:      []string{"CH3OH (CH4O)", "C6H6 (C6H6)"},
			CorrectIndex: 0,
		}, 0, nil},
		{"correct index moved", wrongIndex, 0, nil},
		{"prompt not in catalog", unknownPrompt, 3, nil},
		{"prompt outside category", benzeneItem(), 3, []string{"Inorganic"}},
		{"unknown mode", badMode, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/quiz/answer", answerRequest{Item: tt.item, Selected: tt.selected, Path: tt.path})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			body := decode[map[string]string](t, rec)
			if body["error"] != "Invalid request." {
				t.Errorf("error = %q", body["error"])
			}
		})
	}
}

func TestAnswerMessageUsesCatalogLabel(t *testing.T) {
	_, srv := newTestServer(t, nil, nil)

	item := model.QuizItem{
		Mode:         model.ModeNameToStructure,
		Prompt:       "benzene / ベンゼン",
		Options:      []string{"CH3OH (CH4O)", "C6H6 (C6H6)"},
		CorrectIndex: 1,
	}
	rec := do(t, srv, http.MethodPost, "/api/quiz/answer", answerRequest{Item: item, Selected: 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	got := decode[answerResponse](t, rec)
	if got.Correct || got.Message != "Incorrect. The answer is C6H6 (C6H6)." {
		t.Errorf("unexpected response: %+v", got)
	}
}

func TestSetCatalog(t *testing.T) {
	h, srv := newTestServer(t, nil, nil)
	h.SetCatalog(catalog.New(nil))

	got := decode[map[string]any](t, do(t, srv, http.MethodGet, "/healthz", nil))
	if got["compounds"] != float64(0) {
		t.Errorf("compounds = %v after swap", got["compounds"])
	}
	if rec := do(t, srv, http.MethodGet, "/api/quiz", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("quiz on empty catalog status = %d", rec.Code)
	}
}
