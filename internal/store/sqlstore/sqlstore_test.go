package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func strPtr(s string) *string { return &s }

func seedCategory(t *testing.T, s *Store, code int, name string) models.Category {
	t.Helper()
	c := models.NewCategory(code, models.CategoryPatch{Name: strPtr(name)})
	if err := s.Categories().Create(context.Background(), &c); err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

func seedGame(t *testing.T, s *Store, code int, name string, categories []int, platforms ...string) models.Game {
	t.Helper()
	g, err := s.Games().Create(context.Background(), code, models.GamePatch{
		Name:       strPtr(name),
		Categories: &categories,
		Platforms:  &platforms,
	})
	if err != nil {
		t.Fatalf("create game %q: %v", name, err)
	}
	return g
}

func TestCodesFollowLargestExisting(t *testing.T) {
	s := openTestStore(t)

	first := seedCategory(t, s, 0, "RPG")
	if first.Code != 1 {
		t.Fatalf("expected first code 1, got %d", first.Code)
	}
	seedCategory(t, s, 5, "Shooter")
	next := seedCategory(t, s, 0, "Puzzle")
	if next.Code != 6 {
		t.Fatalf("expected code 6 after explicit 5, got %d", next.Code)
	}

	dup := models.NewCategory(0, models.CategoryPatch{Name: strPtr("RPG")})
	err := s.Categories().Create(context.Background(), &dup)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate name, got %v", err)
	}
}

func TestCategoryUpsertAndSlug(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c, created, err := s.Categories().Upsert(ctx, 3, models.CategoryPatch{Name: strPtr("Open World")})
	if err != nil || !created {
		t.Fatalf("expected creation, got created=%v err=%v", created, err)
	}
	if c.Slug != "open-world" {
		t.Fatalf("expected slug open-world, got %q", c.Slug)
	}

	c, created, err = s.Categories().Upsert(ctx, 3, models.CategoryPatch{Description: strPtr("Big maps")})
	if err != nil || created {
		t.Fatalf("expected update, got created=%v err=%v", created, err)
	}
	if c.Name != "Open World" || c.Description != "Big maps" {
		t.Fatalf("expected merged fields, got %+v", c)
	}

	got, err := s.Categories().GetBySlug(ctx, "open-world")
	if err != nil || got.Code != 3 {
		t.Fatalf("expected slug lookup to find code 3, got %+v err=%v", got, err)
	}
}

func TestGameListFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedCategory(t, s, 1, "RPG")
	seedCategory(t, s, 2, "Shooter")
	seedGame(t, s, 1, "Elden Ring", []int{1}, "PC", "PlayStation 5")
	seedGame(t, s, 2, "Halo Infinite", []int{2}, "PC", "Xbox Series X")
	seedGame(t, s, 3, "Mass Effect", []int{1, 2}, "Xbox Series X")
	seedGame(t, s, 4, "Tetris", nil, "Switch")

	tests := []struct {
		name   string
		filter models.GameFilter
		want   []int
	}{
		{name: "all", filter: models.GameFilter{}, want: []int{1, 2, 3, 4}},
		{name: "category", filter: models.GameFilter{CategoryCodes: []int{1}}, want: []int{1, 3}},
		{name: "category or", filter: models.GameFilter{CategoryCodes: []int{1, 2}}, want: []int{1, 2, 3}},
		{name: "platform", filter: models.GameFilter{Platforms: []string{"Xbox Series X"}}, want: []int{2, 3}},
		{
			name:   "category and platform",
			filter: models.GameFilter{CategoryCodes: []int{1}, Platforms: []string{"PC"}},
			want:   []int{1},
		},
		{name: "query", filter: models.GameFilter{Query: "ring"}, want: []int{1}},
		{name: "no match", filter: models.GameFilter{Platforms: []string{"Dreamcast"}}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games, err := s.Games().List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(games) != len(tt.want) {
				t.Fatalf("expected %v, got %d games", tt.want, len(games))
			}
			for i, g := range games {
				if g.Code != tt.want[i] {
					t.Fatalf("expected %v, got code %d at %d", tt.want, g.Code, i)
				}
			}
		})
	}

	platforms, err := s.Games().Platforms(ctx)
	if err != nil {
		t.Fatalf("platforms: %v", err)
	}
	want := []string{"PC", "PlayStation 5", "Switch", "Xbox Series X"}
	if len(platforms) != len(want) {
		t.Fatalf("expected %v, got %v", want, platforms)
	}
	for i := range want {
		if platforms[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, platforms)
		}
	}
}

func TestGameUpdateReplacesCategories(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedCategory(t, s, 1, "RPG")
	seedCategory(t, s, 2, "Shooter")
	seedGame(t, s, 7, "Borderlands", []int{1})

	price := 19.99
	g, err := s.Games().Update(ctx, 7, models.GamePatch{Price: &price, Categories: &[]int{2, 1, 99}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	codes := g.CategoryCodes()
	if len(codes) != 2 || codes[0] != 1 || codes[1] != 2 {
		t.Fatalf("expected categories [1 2], got %v", codes)
	}

	g, err = s.Games().Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if g.Price != price || g.Name != "Borderlands" || len(g.CategoryCodes()) != 2 {
		t.Fatalf("unexpected game after update %+v", g)
	}

	if _, err := s.Games().Update(ctx, 404, models.GamePatch{Price: &price}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReviewSeriesAndUniqueness(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedGame(t, s, 1, "Celeste", nil)

	first := models.Review{GameCode: 1, Author: "ana", Rating: 5}
	if err := s.Reviews().Create(ctx, &first); err != nil {
		t.Fatalf("create review: %v", err)
	}
	second := models.Review{GameCode: 1, Author: "bob", Rating: 2}
	if err := s.Reviews().Create(ctx, &second); err != nil {
		t.Fatalf("create review: %v", err)
	}
	if first.Serie != 1 || second.Serie != 2 {
		t.Fatalf("expected series 1 and 2, got %d and %d", first.Serie, second.Serie)
	}

	again := models.Review{GameCode: 1, Author: "ana", Rating: 1}
	if err := s.Reviews().Create(ctx, &again); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for second review by same author, got %v", err)
	}

	stats, err := s.Reviews().Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[1].Count != 2 || stats[1].Average != 3.5 {
		t.Fatalf("expected 2 reviews averaging 3.5, got %+v", stats[1])
	}

	if err := s.Reviews().Delete(ctx, 1, 2); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	if err := s.Reviews().Delete(ctx, 1, 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	third := models.Review{GameCode: 1, Author: "bob", Rating: 4}
	if err := s.Reviews().Create(ctx, &third); err != nil {
		t.Fatalf("recreate review: %v", err)
	}
	if third.Serie != 3 {
		t.Fatalf("expected serie 3 after delete, got %d", third.Serie)
	}
}

func TestRankingUpsertOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r, created, err := s.Rankings().Upsert(ctx, "ana", 1, []int{3, 1, 2})
	if err != nil || !created {
		t.Fatalf("expected creation, got created=%v err=%v", created, err)
	}
	code := r.Code

	r, created, err = s.Rankings().Upsert(ctx, "ana", 1, []int{2, 3})
	if err != nil || created {
		t.Fatalf("expected overwrite, got created=%v err=%v", created, err)
	}
	if r.Code != code {
		t.Fatalf("expected code %d kept, got %d", code, r.Code)
	}

	got, err := s.Rankings().Get(ctx, "ana", 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.RankedGames) != 2 || got.RankedGames[0] != 2 || got.RankedGames[1] != 3 {
		t.Fatalf("expected [2 3], got %v", got.RankedGames)
	}

	if _, _, err := s.Rankings().Upsert(ctx, "bob", 1, nil); err != nil {
		t.Fatalf("upsert empty: %v", err)
	}
	counts, err := s.Rankings().CountByCategory(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[1] != 2 {
		t.Fatalf("expected 2 rankings in category 1, got %d", counts[1])
	}
}

func TestRankingUpsertRetriesLostInsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// A rival first save for the same author and category lands just before
	// this insert, so the insert hits the unique index.
	rivals := 0
	err := s.DB.Callback().Create().Before("gorm:create").Register("test:rival_ranking", func(tx *gorm.DB) {
		if rivals > 0 || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "rankings" {
			return
		}
		rivals++
		rival := models.Ranking{
			Code:         99,
			Author:       "ana",
			CategoryCode: 1,
			RankedAt:     time.Now(),
			RankedGames:  datatypes.JSONSlice[int]{9},
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			t.Errorf("insert rival: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	r, _, err := s.Rankings().Upsert(ctx, "ana", 1, []int{3, 1})
	if err != nil {
		t.Fatalf("expected the lost insert to be retried, got %v", err)
	}
	if rivals != 1 {
		t.Fatalf("expected one rival insert, got %d", rivals)
	}
	if len(r.RankedGames) != 2 || r.RankedGames[0] != 3 {
		t.Fatalf("expected [3 1], got %v", r.RankedGames)
	}

	got, err := s.Rankings().Get(ctx, "ana", 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.RankedGames) != 2 || got.RankedGames[0] != 3 || got.RankedGames[1] != 1 {
		t.Fatalf("expected the later write [3 1] stored, got %v", got.RankedGames)
	}
	counts, err := s.Rankings().CountByCategory(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[1] != 1 {
		t.Fatalf("expected a single ranking in category 1, got %d", counts[1])
	}
}

func TestCategoryDeleteCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedCategory(t, s, 1, "RPG")
	seedCategory(t, s, 2, "Shooter")
	seedGame(t, s, 1, "Mass Effect", []int{1, 2})
	if _, _, err := s.Rankings().Upsert(ctx, "ana", 1, []int{1}); err != nil {
		t.Fatalf("upsert ranking: %v", err)
	}

	if err := s.Categories().Delete(ctx, 1); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	g, err := s.Games().Get(ctx, 1)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if codes := g.CategoryCodes(); len(codes) != 1 || codes[0] != 2 {
		t.Fatalf("expected remaining category [2], got %v", codes)
	}
	if _, err := s.Rankings().Get(ctx, "ana", 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ranking removed, got %v", err)
	}
	if err := s.Categories().Delete(ctx, 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsersByLogin(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := models.User{Username: "ana", Email: "ana@example.com", PasswordHash: "x"}
	if err := s.Users().Create(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Role != models.RoleClient {
		t.Fatalf("expected default role client, got %q", u.Role)
	}

	for _, login := range []string{"ana", "ana@example.com"} {
		got, err := s.Users().GetByLogin(ctx, login)
		if err != nil || got.Username != "ana" {
			t.Fatalf("expected login %q to find ana, got %+v err=%v", login, got, err)
		}
	}

	dup := models.User{Username: "ana", Email: "other@example.com", PasswordHash: "x"}
	if err := s.Users().Create(ctx, &dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	admin := models.RoleAdmin
	got, err := s.Users().Update(ctx, "ana", models.UserPatch{Role: &admin})
	if err != nil || got.Role != models.RoleAdmin {
		t.Fatalf("expected role admin, got %+v err=%v", got, err)
	}
	if err := s.Users().Delete(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
