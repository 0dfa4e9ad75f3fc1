package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "gamerank/backend/docs"
	"gamerank/backend/internal/auth"
	"gamerank/backend/internal/config"
	"gamerank/backend/internal/hub"
	"gamerank/backend/internal/importer"
	"gamerank/backend/internal/media"
	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store/sqlstore"
	"gamerank/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

type testAPI struct {
	router  *gin.Engine
	store   *sqlstore.Store
	handler *Handler
}

type fakeUploader struct {
	contentType string
}

func (f *fakeUploader) Upload(_ context.Context, filename, contentType string, body io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", media.ErrNotImage
	}
	f.contentType = contentType
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	return "https://cdn.example.com/covers/" + filename, nil
}

func newTestAPI(t *testing.T, uploader media.Uploader) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := sqlstore.Open("sqlite", filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	cfg := &config.Config{
		JWTSecret:         testSecret,
		JWTTTL:            time.Hour,
		AuthRatePerMinute: 600,
		AuthRateBurst:     100,
	}
	h := New(s, cfg, uploader)
	return &testAPI{router: NewRouter(h), store: s, handler: h}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// user creates an account directly in the store and returns a token for it.
func (a *testAPI) user(t *testing.T, username string, role models.Role, staff bool) string {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := models.User{Username: username, Email: username + "@example.com", PasswordHash: hash, Role: role, IsStaff: staff}
	if err := a.store.Users().Create(context.Background(), &u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	token, err := jwt.GenerateToken(testSecret, username, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (a *testAPI) category(t *testing.T, name string) models.Category {
	t.Helper()
	c := models.NewCategory(0, models.CategoryPatch{Name: &name})
	if err := a.store.Categories().Create(context.Background(), &c); err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func (a *testAPI) game(t *testing.T, name string, categories []int, platforms ...string) models.Game {
	t.Helper()
	g, err := a.store.Games().Create(context.Background(), 0, models.GamePatch{
		Name:       &name,
		Categories: &categories,
		Platforms:  &platforms,
	})
	if err != nil {
		t.Fatalf("create game %s: %v", name, err)
	}
	return g
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	expectStatus(t, w, http.StatusOK)
	doc := decode[struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}](t, w)
	if doc.BasePath != "/api/v1" {
		t.Fatalf("expected base path /api/v1, got %q", doc.BasePath)
	}

	documented := 0
	for _, route := range api.router.Routes() {
		path, ok := strings.CutPrefix(route.Path, doc.BasePath)
		if !ok {
			continue
		}
		segments := strings.Split(path, "/")
		for i, seg := range segments {
			if strings.HasPrefix(seg, ":") {
				segments[i] = "{" + seg[1:] + "}"
			}
		}
		path = strings.Join(segments, "/")
		if _, ok := doc.Paths[path][strings.ToLower(route.Method)]; !ok {
			t.Errorf("expected %s %s to be documented", route.Method, path)
		}
		documented++
	}
	if documented == 0 {
		t.Fatal("expected api routes to check")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t, nil)

	register := func(username, email, password, repeat string) *httptest.ResponseRecorder {
		return api.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"username": username, "email": email, "password": password, "repeat_password": repeat,
		})
	}

	expectStatus(t, register("ana", "ana@example.com", "password123", "password124"), http.StatusBadRequest)
	expectStatus(t, register("ana", "not-an-email", "password123", "password123"), http.StatusBadRequest)

	w := register("ana", "Ana@Example.com", "password123", "password123")
	expectStatus(t, w, http.StatusCreated)
	if decode[TokenResponse](t, w).Token == "" {
		t.Fatal("expected a token on register")
	}
	expectStatus(t, register("ana", "other@example.com", "password123", "password123"), http.StatusConflict)
	expectStatus(t, register("bob", "ana@example.com", "password123", "password123"), http.StatusConflict)

	tests := []struct {
		name  string
		login string
		pass  string
		want  int
	}{
		{name: "by username", login: "ana", pass: "password123", want: http.StatusOK},
		{name: "by email", login: "ANA@example.com", pass: "password123", want: http.StatusOK},
		{name: "wrong password", login: "ana", pass: "password999", want: http.StatusUnauthorized},
		{name: "unknown user", login: "ghost", pass: "password123", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": tt.login, "password": tt.pass})
			expectStatus(t, w, tt.want)
		})
	}

	w = api.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "ana", "password": "password123"})
	token := decode[TokenResponse](t, w).Token
	w = api.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	expectStatus(t, w, http.StatusOK)
	me := decode[UserResponse](t, w)
	if me.Username != "ana" || me.Email != "ana@example.com" || me.Role != models.RoleClient {
		t.Fatalf("unexpected profile %+v", me)
	}
	expectStatus(t, api.do(t, http.MethodGet, "/api/v1/auth/me", "", nil), http.StatusUnauthorized)
}

func TestAdminRoutesRequireStaff(t *testing.T) {
	api := newTestAPI(t, nil)
	client := api.user(t, "ana", models.RoleClient, false)
	staff := api.user(t, "sam", models.RoleClient, true)
	admin := api.user(t, "root", models.RoleAdmin, false)

	tests := []struct {
		name  string
		token string
		body  gin.H
		want  int
	}{
		{name: "anonymous", body: gin.H{"name": "RPG"}, want: http.StatusUnauthorized},
		{name: "client", token: client, body: gin.H{"name": "RPG"}, want: http.StatusForbidden},
		{name: "staff", token: staff, body: gin.H{"name": "RPG"}, want: http.StatusCreated},
		{name: "admin duplicate name", token: admin, body: gin.H{"name": "RPG"}, want: http.StatusConflict},
		{name: "admin", token: admin, body: gin.H{"name": "Shooter"}, want: http.StatusCreated},
		{name: "missing name", token: admin, body: gin.H{}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, api.do(t, http.MethodPost, "/api/v1/admin/categories", tt.token, tt.body), tt.want)
		})
	}

	w := api.do(t, http.MethodGet, "/api/v1/categories/shooter", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[CategoryResponse](t, w); got.Code != 2 {
		t.Fatalf("expected code 2 for shooter, got %d", got.Code)
	}
	expectStatus(t, api.do(t, http.MethodPut, "/api/v1/admin/categories/9", admin, gin.H{"name": "X"}), http.StatusNotFound)
	expectStatus(t, api.do(t, http.MethodDelete, "/api/v1/admin/categories/abc", admin, nil), http.StatusBadRequest)
}

func TestGameCatalog(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.user(t, "root", models.RoleAdmin, false)
	rpg := api.category(t, "RPG")
	shooter := api.category(t, "Shooter")

	w := api.do(t, http.MethodPost, "/api/v1/admin/games", admin, gin.H{
		"name":         "Elden Ring",
		"categories":   []int{rpg.Code, 99},
		"platforms":    []string{"PC", "PlayStation 5"},
		"release_date": "2022-02-25",
		"price":        59.99,
	})
	expectStatus(t, w, http.StatusCreated)
	created := decode[GameResponse](t, w)
	if created.Code != 1 || created.Slug != "elden-ring" || len(created.Categories) != 1 {
		t.Fatalf("unexpected game %+v", created)
	}
	if created.ReleaseDate == nil || *created.ReleaseDate != "2022-02-25" {
		t.Fatalf("expected release date 2022-02-25, got %v", created.ReleaseDate)
	}
	expectStatus(t, api.do(t, http.MethodPost, "/api/v1/admin/games", admin, gin.H{
		"name": "Bad Date", "release_date": "25/02/2022",
	}), http.StatusBadRequest)

	api.game(t, "Doom", []int{shooter.Code}, "PC")
	api.game(t, "Halo", []int{shooter.Code}, "Xbox")
	api.game(t, "Mass Effect", []int{rpg.Code, shooter.Code}, "Xbox")

	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{name: "all", query: "", want: []int{1, 2, 3, 4}},
		{name: "one category", query: "?category=1", want: []int{1, 4}},
		{name: "categories or", query: "?category=1&category=2", want: []int{1, 2, 3, 4}},
		{name: "comma separated", query: "?platform=PC,Xbox", want: []int{1, 2, 3, 4}},
		{name: "and across", query: "?category=2&platform=PC", want: []int{2}},
		{name: "search", query: "?q=ring", want: []int{1}},
		{name: "page", query: "?limit=3&page=2", want: []int{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodGet, "/api/v1/games"+tt.query, "", nil)
			expectStatus(t, w, http.StatusOK)
			page := decode[PaginatedResponse[GameResponse]](t, w)
			if len(page.Data) != len(tt.want) {
				t.Fatalf("expected %v, got %+v", tt.want, page.Data)
			}
			for i, g := range page.Data {
				if g.Code != tt.want[i] {
					t.Fatalf("expected %v, got code %d at %d", tt.want, g.Code, i)
				}
			}
		})
	}
	expectStatus(t, api.do(t, http.MethodGet, "/api/v1/games?category=x", "", nil), http.StatusBadRequest)

	w = api.do(t, http.MethodGet, "/api/v1/platforms", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]string](t, w); strings.Join(got, ",") != "PC,PlayStation 5,Xbox" {
		t.Fatalf("unexpected platforms %v", got)
	}

	w = api.do(t, http.MethodGet, "/api/v1/games/elden-ring", "", nil)
	expectStatus(t, w, http.StatusOK)
	expectStatus(t, api.do(t, http.MethodGet, "/api/v1/games/42", "", nil), http.StatusNotFound)

	expectStatus(t, api.do(t, http.MethodPut, "/api/v1/admin/games/1", admin, gin.H{"price": 39.99}), http.StatusOK)
	w = api.do(t, http.MethodGet, "/api/v1/games/1", "", nil)
	if got := decode[GameDetailResponse](t, w); got.Price != 39.99 || got.Name != "Elden Ring" {
		t.Fatalf("expected price changed and name kept, got %+v", got.GameResponse)
	}
	w = api.do(t, http.MethodPut, "/api/v1/admin/games/1", admin, gin.H{"release_date": ""})
	expectStatus(t, w, http.StatusOK)
	if got := decode[GameResponse](t, w); got.ReleaseDate != nil || got.Price != 39.99 {
		t.Fatalf("expected release date cleared and price kept, got %+v", got)
	}
	expectStatus(t, api.do(t, http.MethodDelete, "/api/v1/admin/games/1", admin, nil), http.StatusOK)
	expectStatus(t, api.do(t, http.MethodDelete, "/api/v1/admin/games/1", admin, nil), http.StatusNotFound)
}

func TestBlankNamesRejected(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.user(t, "root", models.RoleAdmin, false)
	api.category(t, "RPG")
	api.game(t, "Doom", []int{1})

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "create category", method: http.MethodPost, path: "/api/v1/admin/categories"},
		{name: "update category", method: http.MethodPut, path: "/api/v1/admin/categories/1"},
		{name: "create game", method: http.MethodPost, path: "/api/v1/admin/games"},
		{name: "update game", method: http.MethodPut, path: "/api/v1/admin/games/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, tt.method, tt.path, admin, gin.H{"name": "   "})
			expectStatus(t, w, http.StatusBadRequest)
			if got := decode[ErrorResponse](t, w); got.Error != "Name cannot be empty" {
				t.Fatalf("expected empty name error, got %q", got.Error)
			}
		})
	}

	w := api.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]CategoryResponse](t, w); len(got) != 1 || got[0].Name != "RPG" {
		t.Fatalf("expected only RPG stored, got %+v", got)
	}
	w = api.do(t, http.MethodGet, "/api/v1/games", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[PaginatedResponse[GameResponse]](t, w); len(got.Data) != 1 || got.Data[0].Name != "Doom" {
		t.Fatalf("expected only Doom stored, got %+v", got.Data)
	}
}

func TestReviewPermissions(t *testing.T) {
	api := newTestAPI(t, nil)
	ana := api.user(t, "ana", models.RoleClient, false)
	bob := api.user(t, "bob", models.RoleClient, false)
	staff := api.user(t, "sam", models.RoleClient, true)
	admin := api.user(t, "root", models.RoleAdmin, false)
	game := api.game(t, "Zelda", nil)
	path := "/api/v1/games/1/reviews"

	expectStatus(t, api.do(t, http.MethodPost, path, "", gin.H{"rating": 4}), http.StatusUnauthorized)
	expectStatus(t, api.do(t, http.MethodPost, path, ana, gin.H{"rating": 6}), http.StatusBadRequest)
	expectStatus(t, api.do(t, http.MethodPost, path, ana, gin.H{"comment": "no rating"}), http.StatusBadRequest)
	expectStatus(t, api.do(t, http.MethodPost, "/api/v1/games/9/reviews", ana, gin.H{"rating": 4}), http.StatusNotFound)

	w := api.do(t, http.MethodPost, path, ana, gin.H{"rating": 0, "comment": "meh"})
	expectStatus(t, w, http.StatusCreated)
	review := decode[ReviewResponse](t, w)
	if review.Serie != 1 || review.Author != "ana" || review.GameCode != game.Code || review.Rating != 0 {
		t.Fatalf("unexpected review %+v", review)
	}
	expectStatus(t, api.do(t, http.MethodPost, path, ana, gin.H{"rating": 5}), http.StatusConflict)
	expectStatus(t, api.do(t, http.MethodPost, path, bob, gin.H{"rating": 5}), http.StatusCreated)

	w = api.do(t, http.MethodGet, "/api/v1/games/1", ana, nil)
	detail := decode[GameDetailResponse](t, w)
	if detail.ReviewCount != 2 || detail.AverageRating != 2.5 {
		t.Fatalf("expected 2 reviews averaging 2.5, got %d %v", detail.ReviewCount, detail.AverageRating)
	}
	if detail.MyReview == nil || *detail.MyReview != 1 {
		t.Fatalf("expected my review serie 1, got %v", detail.MyReview)
	}
	if detail.Reviews[0].Author != "bob" {
		t.Fatalf("expected newest review first, got %+v", detail.Reviews)
	}

	tests := []struct {
		name   string
		method string
		token  string
		want   int
	}{
		{name: "other user edits", method: http.MethodPut, token: bob, want: http.StatusForbidden},
		{name: "staff without admin role edits", method: http.MethodPut, token: staff, want: http.StatusForbidden},
		{name: "author edits", method: http.MethodPut, token: ana, want: http.StatusOK},
		{name: "other user deletes", method: http.MethodDelete, token: bob, want: http.StatusForbidden},
		{name: "admin deletes", method: http.MethodDelete, token: admin, want: http.StatusOK},
		{name: "deleted review", method: http.MethodDelete, token: ana, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, api.do(t, tt.method, path+"/1", tt.token, gin.H{"rating": 3}), tt.want)
		})
	}
}

func TestRankings(t *testing.T) {
	api := newTestAPI(t, nil)
	ana := api.user(t, "ana", models.RoleClient, false)
	bob := api.user(t, "bob", models.RoleClient, false)
	rpg := api.category(t, "RPG")
	other := api.category(t, "Puzzle")
	api.game(t, "A", []int{rpg.Code})
	api.game(t, "B", []int{rpg.Code})
	api.game(t, "C", []int{rpg.Code})
	api.game(t, "D", []int{other.Code})
	path := "/api/v1/rankings/categories/1/mine"

	tests := []struct {
		name  string
		token string
		games []int
		want  int
	}{
		{name: "anonymous", games: []int{1}, want: http.StatusUnauthorized},
		{name: "repeated game", token: ana, games: []int{1, 1}, want: http.StatusBadRequest},
		{name: "game of another category", token: ana, games: []int{1, 4}, want: http.StatusBadRequest},
		{name: "created", token: ana, games: []int{3, 1}, want: http.StatusCreated},
		{name: "updated", token: ana, games: []int{1, 2, 3}, want: http.StatusOK},
		{name: "second author", token: bob, games: []int{2, 1}, want: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, api.do(t, http.MethodPut, path, tt.token, gin.H{"games": tt.games}), tt.want)
		})
	}
	expectStatus(t, api.do(t, http.MethodPut, "/api/v1/rankings/categories/9/mine", ana, gin.H{"games": []int{}}), http.StatusNotFound)

	w := api.do(t, http.MethodGet, "/api/v1/rankings/categories/rpg", "", nil)
	expectStatus(t, w, http.StatusOK)
	global := decode[GlobalRankingResponse](t, w)
	if global.TotalRankings != 2 || len(global.Entries) != 3 {
		t.Fatalf("unexpected global ranking %+v", global)
	}
	// A: 3 and 1 points, B: 2 and 2, C: 1 from one voter.
	want := []struct {
		code  int
		score float64
	}{{1, 2}, {2, 2}, {3, 1}}
	for i, e := range global.Entries {
		if e.Game.Code != want[i].code || e.Score != want[i].score || e.Position != i+1 {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], e)
		}
	}

	w = api.do(t, http.MethodGet, path, bob, nil)
	expectStatus(t, w, http.StatusOK)
	mine := decode[MyRankingResponse](t, w)
	if !mine.IsEdit || len(mine.Ranked) != 2 || mine.Ranked[0].Code != 2 || len(mine.Unranked) != 1 || mine.Unranked[0].Code != 3 {
		t.Fatalf("unexpected own ranking %+v", mine)
	}

	w = api.do(t, http.MethodGet, "/api/v1/rankings", "", nil)
	counts := decode[[]RankingCategoryResponse](t, w)
	if len(counts) != 2 || counts[0].Rankings != 2 || counts[1].Rankings != 0 {
		t.Fatalf("unexpected ranking counts %+v", counts)
	}

	expectStatus(t, api.do(t, http.MethodDelete, path, bob, nil), http.StatusOK)
	expectStatus(t, api.do(t, http.MethodDelete, path, bob, nil), http.StatusNotFound)
	w = api.do(t, http.MethodGet, path, bob, nil)
	if got := decode[MyRankingResponse](t, w); got.IsEdit || len(got.Unranked) != 3 {
		t.Fatalf("expected a fresh tier list after delete, got %+v", got)
	}

	w = api.do(t, http.MethodGet, "/api/v1/users/me/rankings", ana, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]RankingResponse](t, w); len(got) != 1 || len(got[0].Games) != 3 {
		t.Fatalf("unexpected rankings of ana %+v", got)
	}
}

func TestUserManagement(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.user(t, "root", models.RoleAdmin, false)
	api.user(t, "ana", models.RoleClient, false)
	client := api.user(t, "bob", models.RoleClient, false)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{name: "client lists users", method: http.MethodGet, path: "/api/v1/admin/users", token: client, want: http.StatusForbidden},
		{name: "delete self", method: http.MethodDelete, path: "/api/v1/admin/users/root", token: admin, want: http.StatusForbidden},
		{name: "toggle own staff", method: http.MethodPost, path: "/api/v1/admin/users/root/toggle-staff", token: admin, want: http.StatusForbidden},
		{name: "toggle own role", method: http.MethodPost, path: "/api/v1/admin/users/root/toggle-role", token: admin, want: http.StatusForbidden},
		{name: "toggle missing user", method: http.MethodPost, path: "/api/v1/admin/users/ghost/toggle-staff", token: admin, want: http.StatusNotFound},
		{name: "delete missing user", method: http.MethodDelete, path: "/api/v1/admin/users/ghost", token: admin, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, api.do(t, tt.method, tt.path, tt.token, nil), tt.want)
		})
	}

	w := api.do(t, http.MethodPost, "/api/v1/admin/users/ana/toggle-role", admin, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[UserResponse](t, w); got.Role != models.RoleAdmin {
		t.Fatalf("expected ana promoted to admin, got %q", got.Role)
	}
	w = api.do(t, http.MethodPost, "/api/v1/admin/users/ana/toggle-staff", admin, nil)
	if got := decode[UserResponse](t, w); !got.IsStaff {
		t.Fatal("expected ana to be staff")
	}

	w = api.do(t, http.MethodGet, "/api/v1/admin/users?limit=2", admin, nil)
	expectStatus(t, w, http.StatusOK)
	page := decode[PaginatedResponse[UserResponse]](t, w)
	if page.Meta.TotalItems != 3 || page.Meta.TotalPages != 2 || len(page.Data) != 2 {
		t.Fatalf("unexpected users page %+v", page.Meta)
	}

	expectStatus(t, api.do(t, http.MethodDelete, "/api/v1/admin/users/bob", admin, nil), http.StatusOK)
	expectStatus(t, api.do(t, http.MethodGet, "/api/v1/auth/me", client, nil), http.StatusUnauthorized)
}

func TestImportCatalog(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.user(t, "root", models.RoleAdmin, false)

	doc := `{
		"categorias": [{"id": "cat_1", "nombre": "RPG"}, {"id": "bad", "nombre": "Broken"}],
		"videojuegos": [{"id": "vj_3", "nombre": "Zelda", "categorias": ["cat_1", "cat_9"], "fecha_lanzamiento": "2017-03-03"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", strings.NewReader(doc))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusOK)
	report := decode[importer.Report](t, w)
	if report.CategoriesCreated != 1 || report.GamesCreated != 1 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if report.Skipped() != 1 || len(report.Issues) != 2 {
		t.Fatalf("expected one error and one warning, got %+v", report.Issues)
	}

	w = api.do(t, http.MethodGet, "/api/v1/games/3", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[GameDetailResponse](t, w); len(got.Categories) != 1 || got.Categories[0].Code != 1 {
		t.Fatalf("expected imported game in category 1, got %+v", got.Categories)
	}

	// Multipart upload of the same document updates instead of creating.
	body, contentType := multipartBody(t, "json_file", "catalog.json", []byte(doc))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+admin)
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusOK)
	if got := decode[importer.Report](t, w); got.CategoriesUpdated != 1 || got.GamesUpdated != 1 {
		t.Fatalf("expected updates on second import, got %+v", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+admin)
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestImportRejectsOversizedDocument(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.user(t, "root", models.RoleAdmin, false)
	oversized := append(bytes.Repeat([]byte(" "), maxImportSize), "{}"...)

	raw := func() (io.Reader, string) {
		return bytes.NewReader(oversized), "application/json"
	}
	upload := func() (io.Reader, string) {
		body, contentType := multipartBody(t, "json_file", "catalog.json", oversized)
		return body, contentType
	}
	tests := []struct {
		name string
		body func() (io.Reader, string)
	}{
		{name: "raw body", body: raw},
		{name: "multipart", body: upload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := tt.body()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+admin)
			w := httptest.NewRecorder()
			api.router.ServeHTTP(w, req)

			expectStatus(t, w, http.StatusBadRequest)
			if got := decode[ErrorResponse](t, w); got.Error != "Catalog document is too large" {
				t.Fatalf("expected size error, got %q", got.Error)
			}
		})
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

	upload := func(api *testAPI, token, filename string, content []byte) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, "file", filename, content)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/media", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		return w
	}

	t.Run("not configured", func(t *testing.T) {
		api := newTestAPI(t, nil)
		admin := api.user(t, "root", models.RoleAdmin, false)
		expectStatus(t, upload(api, admin, "cover.png", png), http.StatusServiceUnavailable)
	})

	t.Run("stored", func(t *testing.T) {
		fake := &fakeUploader{}
		api := newTestAPI(t, fake)
		admin := api.user(t, "root", models.RoleAdmin, false)

		w := upload(api, admin, "cover.png", png)
		expectStatus(t, w, http.StatusCreated)
		if got := decode[UploadResponse](t, w); got.URL != "https://cdn.example.com/covers/cover.png" {
			t.Fatalf("unexpected url %q", got.URL)
		}
		if fake.contentType != "image/png" {
			t.Fatalf("expected sniffed image/png, got %q", fake.contentType)
		}

		expectStatus(t, upload(api, admin, "notes.png", []byte("plain text pretending")), http.StatusBadRequest)
		expectStatus(t, upload(api, admin, "huge.png", append(png, make([]byte, media.MaxImageSize)...)), http.StatusBadRequest)
	})
}

func TestRankingEventsStream(t *testing.T) {
	api := newTestAPI(t, nil)
	ana := api.user(t, "ana", models.RoleClient, false)
	rpg := api.category(t, "RPG")
	api.game(t, "A", []int{rpg.Code})

	server := httptest.NewServer(api.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/rankings/categories/rpg/events", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(want string) {
		t.Helper()
		for lines.Scan() {
			if strings.Contains(lines.Text(), want) {
				return
			}
		}
		t.Fatalf("stream ended before %q: %v", want, lines.Err())
	}
	waitFor("event:ready")

	expectStatus(t, api.do(t, http.MethodPut, "/api/v1/rankings/categories/1/mine", ana, gin.H{"games": []int{1}}), http.StatusCreated)
	waitFor("event:ranking")
	waitFor(hub.RankingSaved)

	expectStatus(t, api.do(t, http.MethodGet, "/api/v1/rankings/categories/9/events", "", nil), http.StatusNotFound)
}
