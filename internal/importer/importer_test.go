package importer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"gamerank/backend/internal/store/sqlstore"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		id      string
		want    int
		wantErr bool
	}{
		{id: "cat_1", want: 1},
		{id: "game_42", want: 42},
		{id: "video_juego_7", want: 7},
		{id: "cat", wantErr: true},
		{id: "cat_", wantErr: true},
		{id: "cat_x", wantErr: true},
		{id: "cat_0", wantErr: true},
		{id: "cat_-3", wantErr: true},
		{id: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := ParseCode(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %d", tt.id, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("expected %d, got %d err=%v", tt.want, got, err)
			}
		})
	}
}

const catalog = `{
  "categorias": [
    {"id": "cat_1", "nombre": "RPG", "descripcion": "Role playing", "imagen_url": "https://img/rpg.png"},
    {"id": "cat_2", "nombre": "Shooter", "descripcion": "Guns", "image": "https://img/shooter.png"},
    {"id": "cat_bad", "nombre": "Broken"},
    {"id": "cat_3"}
  ],
  "videojuegos": [
    {
      "id": "game_10", "nombre": "Elden Ring", "descripcion": "Souls",
      "categorias": ["cat_1", "cat_9", "nope"],
      "fecha_lanzamiento": "2022-02-25", "plataformas": ["PC", "PlayStation 5"],
      "precio_actual": 59.99, "duracion_aproximada": 60, "multijugador": true
    },
    {"id": "game_11", "nombre": "Halo", "descripcion": "", "categorias": ["cat_2"], "fecha_lanzamiento": "25/02/2022"},
    {"id": "game_x", "nombre": "Nameless"},
    {"id": "game_12", "nombre": "Bad", "precio_actual": "free"}
  ]
}`

func TestRunReportsIssues(t *testing.T) {
	s, err := sqlstore.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close(context.Background())
	ctx := context.Background()

	doc, err := Parse(strings.NewReader(catalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	report, err := New(s).Run(ctx, doc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.CategoriesCreated != 2 || report.GamesCreated != 2 {
		t.Fatalf("expected 2 categories and 2 games created, got %+v", report)
	}
	// cat_bad, cat_3 without name, game_x, game_12 with a string price.
	if report.Skipped() != 4 {
		t.Fatalf("expected 4 skipped records, got %d: %+v", report.Skipped(), report.Issues)
	}
	warnings := 0
	for _, is := range report.Issues {
		if is.Severity == SeverityWarning {
			warnings++
		}
	}
	// cat_9 unknown, "nope" malformed, bad date on game_11.
	if warnings != 3 {
		t.Fatalf("expected 3 warnings, got %d: %+v", warnings, report.Issues)
	}

	rpg, err := s.Categories().Get(ctx, 1)
	if err != nil || rpg.Image != "https://img/rpg.png" {
		t.Fatalf("expected rpg with image, got %+v err=%v", rpg, err)
	}
	shooter, err := s.Categories().Get(ctx, 2)
	if err != nil || shooter.Image != "https://img/shooter.png" {
		t.Fatalf("expected image fallback, got %+v err=%v", shooter, err)
	}

	elden, err := s.Games().Get(ctx, 10)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if codes := elden.CategoryCodes(); len(codes) != 1 || codes[0] != 1 {
		t.Fatalf("expected categories [1], got %v", codes)
	}
	if elden.ReleaseDate == nil || elden.ReleaseDate.Year() != 2022 || !elden.Multiplayer || elden.Duration != 60 {
		t.Fatalf("unexpected game %+v", elden)
	}
	halo, err := s.Games().Get(ctx, 11)
	if err != nil || halo.ReleaseDate != nil {
		t.Fatalf("expected halo without release date, got %+v err=%v", halo, err)
	}

	// A second run updates in place.
	report, err = New(s).Run(ctx, doc)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.CategoriesCreated != 0 || report.CategoriesUpdated != 2 || report.GamesUpdated != 2 {
		t.Fatalf("expected updates only, got %+v", report)
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected error for malformed document")
	}
	doc, err := Parse(strings.NewReader("{}"))
	if err != nil || len(doc.Categories) != 0 || len(doc.Games) != 0 {
		t.Fatalf("expected empty document, got %+v err=%v", doc, err)
	}
}

func TestRunOverwritesImportedFields(t *testing.T) {
	s, err := sqlstore.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close(context.Background())
	ctx := context.Background()

	run := func(doc string) Report {
		t.Helper()
		parsed, err := Parse(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		report, err := New(s).Run(ctx, parsed)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return report
	}

	run(`{"videojuegos": [{"id": "vj_1", "nombre": "Celeste", "fecha_lanzamiento": "2018-01-25", "duracion_aproximada": 8}]}`)
	report := run(`{"videojuegos": [{"id": "vj_1", "nombre": "Celeste", "duracion_aproximada": 12.6}]}`)
	if report.GamesUpdated != 1 || report.Skipped() != 0 {
		t.Fatalf("expected one clean update, got %+v", report)
	}

	game, err := s.Games().Get(ctx, 1)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if game.ReleaseDate != nil {
		t.Fatalf("expected release date cleared, got %v", game.ReleaseDate)
	}
	if game.Duration != 13 {
		t.Fatalf("expected duration 13, got %d", game.Duration)
	}
}
