// Package importer loads categories and games from a JSON catalog document and
// upserts them by code.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"
)

// Document is the uploaded catalog. Records are kept raw so that one
// malformed record does not reject the whole document.
type Document struct {
	Categories []json.RawMessage `json:"categorias"`
	Games      []json.RawMessage `json:"videojuegos"`
}

type CategoryRecord struct {
	ID          string  `json:"id"`
	Name        *string `json:"nombre"`
	Description *string `json:"descripcion"`
	ImageURL    string  `json:"imagen_url"`
	Image       string  `json:"image"`
}

type GameRecord struct {
	ID          string   `json:"id"`
	Name        *string  `json:"nombre"`
	Description *string  `json:"descripcion"`
	Categories  []string `json:"categorias"`
	ImageURL    string   `json:"imagen_url"`
	Developer   string   `json:"desarrollador"`
	Publisher   string   `json:"publisher"`
	ReleaseDate string   `json:"fecha_lanzamiento"`
	Platforms   []string `json:"plataformas"`
	Price       float64  `json:"precio_actual"`
	AgeRating   string   `json:"clasificacion_edad"`
	Duration    float64  `json:"duracion_aproximada"` // hours, rounded on import
	Multiplayer bool     `json:"multijugador"`
}

const dateLayout = "2006-01-02"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue describes a problem with one record. Errors mean the record was
// skipped; warnings mean it was stored without the offending value.
type Issue struct {
	Collection string   `json:"collection"`
	Index      int      `json:"index"`
	ID         string   `json:"id,omitempty"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
}

// Report counts what a run wrote and lists the problems found per record.
type Report struct {
	CategoriesCreated int     `json:"categories_created"`
	CategoriesUpdated int     `json:"categories_updated"`
	GamesCreated      int     `json:"games_created"`
	GamesUpdated      int     `json:"games_updated"`
	Issues            []Issue `json:"issues"`
}

// Skipped counts the records rejected with an error.
func (r Report) Skipped() int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Parse decodes a catalog document.
func Parse(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode catalog: %w", err)
	}
	return doc, nil
}

// ParseCode extracts the integer after the last underscore of an identifier
// such as "cat_12". The code must be positive.
func ParseCode(id string) (int, error) {
	i := strings.LastIndex(id, "_")
	if i < 0 || i == len(id)-1 {
		return 0, fmt.Errorf("identifier %q has no numeric suffix", id)
	}
	code, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0, fmt.Errorf("identifier %q has no numeric suffix", id)
	}
	if code <= 0 {
		return 0, fmt.Errorf("identifier %q must have a positive code", id)
	}
	return code, nil
}

// Importer upserts catalog documents into a store.
type Importer struct {
	store store.Store
}

// New returns an Importer writing to s.
func New(s store.Store) *Importer {
	return &Importer{store: s}
}

// Run upserts the document's categories, then its games. Records are not
// applied atomically: a storage failure stops the run and the report covers
// what was written until then.
func (im *Importer) Run(ctx context.Context, doc Document) (Report, error) {
	report := Report{Issues: []Issue{}}

	for i, raw := range doc.Categories {
		if err := im.importCategory(ctx, i, raw, &report); err != nil {
			return report, err
		}
	}

	known, err := im.categoryCodes(ctx)
	if err != nil {
		return report, err
	}
	for i, raw := range doc.Games {
		if err := im.importGame(ctx, i, raw, known, &report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (im *Importer) importCategory(ctx context.Context, index int, raw json.RawMessage, report *Report) error {
	issue := func(id string, sev Severity, msg string) {
		report.Issues = append(report.Issues, Issue{Collection: "categorias", Index: index, ID: id, Severity: sev, Message: msg})
	}

	var rec CategoryRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		issue("", SeverityError, "malformed record: "+err.Error())
		return nil
	}
	code, err := ParseCode(rec.ID)
	if err != nil {
		issue(rec.ID, SeverityError, err.Error())
		return nil
	}
	if rec.Name == nil || strings.TrimSpace(*rec.Name) == "" {
		issue(rec.ID, SeverityError, "missing nombre")
		return nil
	}

	name := strings.TrimSpace(*rec.Name)
	description := ""
	if rec.Description != nil {
		description = *rec.Description
	}
	image := rec.ImageURL
	if image == "" {
		image = rec.Image
	}

	_, created, err := im.store.Categories().Upsert(ctx, code, models.CategoryPatch{
		Name:        &name,
		Description: &description,
		Image:       &image,
	})
	if errors.Is(err, store.ErrConflict) {
		issue(rec.ID, SeverityError, fmt.Sprintf("category name %q already used by another code", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("upsert category %d: %w", code, err)
	}
	if created {
		report.CategoriesCreated++
	} else {
		report.CategoriesUpdated++
	}
	return nil
}

func (im *Importer) importGame(ctx context.Context, index int, raw json.RawMessage, known map[int]bool, report *Report) error {
	issue := func(id string, sev Severity, msg string) {
		report.Issues = append(report.Issues, Issue{Collection: "videojuegos", Index: index, ID: id, Severity: sev, Message: msg})
	}

	var rec GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		issue("", SeverityError, "malformed record: "+err.Error())
		return nil
	}
	code, err := ParseCode(rec.ID)
	if err != nil {
		issue(rec.ID, SeverityError, err.Error())
		return nil
	}
	if rec.Name == nil || strings.TrimSpace(*rec.Name) == "" {
		issue(rec.ID, SeverityError, "missing nombre")
		return nil
	}

	categories := []int{}
	for _, ref := range rec.Categories {
		cat, err := ParseCode(ref)
		if err != nil {
			issue(rec.ID, SeverityWarning, "dropped category reference: "+err.Error())
			continue
		}
		if !known[cat] {
			issue(rec.ID, SeverityWarning, fmt.Sprintf("dropped category reference %q: no category with code %d", ref, cat))
			continue
		}
		categories = append(categories, cat)
	}

	name := strings.TrimSpace(*rec.Name)
	description := ""
	if rec.Description != nil {
		description = *rec.Description
	}
	platforms := rec.Platforms
	if platforms == nil {
		platforms = []string{}
	}
	duration := int(math.Round(rec.Duration))
	patch := models.GamePatch{
		Name:        &name,
		Description: &description,
		Image:       &rec.ImageURL,
		Categories:  &categories,
		Developer:   &rec.Developer,
		Publisher:   &rec.Publisher,
		Platforms:   &platforms,
		Price:       &rec.Price,
		AgeRating:   &rec.AgeRating,
		Duration:    &duration,
		Multiplayer: &rec.Multiplayer,

		ClearReleaseDate: true,
	}
	if rec.ReleaseDate != "" {
		released, err := time.Parse(dateLayout, rec.ReleaseDate)
		if err != nil {
			issue(rec.ID, SeverityWarning, fmt.Sprintf("dropped fecha_lanzamiento %q: want YYYY-MM-DD", rec.ReleaseDate))
		} else {
			patch.ReleaseDate = &released
			patch.ClearReleaseDate = false
		}
	}

	_, created, err := im.store.Games().Upsert(ctx, code, patch)
	if err != nil {
		return fmt.Errorf("upsert game %d: %w", code, err)
	}
	if created {
		report.GamesCreated++
	} else {
		report.GamesUpdated++
	}
	return nil
}

func (im *Importer) categoryCodes(ctx context.Context) (map[int]bool, error) {
	categories, err := im.store.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	known := make(map[int]bool, len(categories))
	for _, c := range categories {
		known[c.Code] = true
	}
	return known, nil
}
