package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blogicum/internal/config"
	"blogicum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Auto migrate the schema
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Location{},
		&models.Post{},
		&models.Comment{},
	))
	return db
}

func setupTestApp(t *testing.T) (*fiber.App, *Server, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	cfg := &config.Config{
		JWTSecret: "test-secret-key",
		MediaDir:  t.TempDir(),
		Env:       "test",
	}
	srv := NewServerWithDeps(cfg, db, nil)

	app := fiber.New(fiber.Config{ErrorHandler: srv.ErrorHandler})
	srv.SetupRoutes(app)
	return app, srv, db
}

// signupUser registers a user through the API and returns their token and ID.
func signupUser(t *testing.T, app *fiber.App, username string) (string, uint) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Password123!",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var parsed struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.Token)
	return parsed.Token, parsed.User.ID
}

func jsonRequest(method, target string, payload any, token string) *http.Request {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestSignupAndLogin(t *testing.T) {
	app, _, _ := setupTestApp(t)

	signupUser(t, app, "alice")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "Password123!",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	app, _, _ := setupTestApp(t)

	signupUser(t, app, "alice")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/auth/signup", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "Password123!",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCreatePost_RedirectsToProfile(t *testing.T) {
	app, _, db := setupTestApp(t)
	token, userID := signupUser(t, app, "alice")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/posts/create", map[string]any{
		"title": "My first post",
		"text":  "Hello world",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile/alice/", resp.Header.Get("Location"))

	var post models.Post
	require.NoError(t, db.First(&post).Error)
	assert.Equal(t, "My first post", post.Title)
	assert.Equal(t, userID, post.AuthorID)
	assert.True(t, post.IsPublished)
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/posts/create", map[string]any{
		"title": "nope",
		"text":  "nope",
	}, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreatePost_IgnoresSubmittedAuthor(t *testing.T) {
	app, _, db := setupTestApp(t)
	token, userID := signupUser(t, app, "alice")
	_, otherID := signupUser(t, app, "mallory")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/posts/create", map[string]any{
		"title":     "Forged",
		"text":      "body",
		"author_id": otherID,
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	var post models.Post
	require.NoError(t, db.First(&post).Error)
	assert.Equal(t, userID, post.AuthorID)
}

func TestPostDetail_VisibilityPolicy(t *testing.T) {
	app, _, db := setupTestApp(t)
	authorToken, authorID := signupUser(t, app, "alice")
	strangerToken, _ := signupUser(t, app, "bob")

	draft := &models.Post{
		Title: "draft", Text: "body", AuthorID: authorID,
		PubDate: time.Now().UTC().Add(-time.Hour), IsPublished: false,
	}
	require.NoError(t, db.Create(draft).Error)

	target := fmt.Sprintf("/posts/%d", draft.ID)

	// Anonymous viewer: not found.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Another user: not found.
	resp, err = app.Test(jsonRequest(http.MethodGet, target, nil, strangerToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// The author sees their own draft.
	resp, err = app.Test(jsonRequest(http.MethodGet, target, nil, authorToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestEditPost_NonOwnerSilentRedirect(t *testing.T) {
	app, _, db := setupTestApp(t)
	_, authorID := signupUser(t, app, "alice")
	intruderToken, _ := signupUser(t, app, "bob")

	post := &models.Post{
		Title: "original", Text: "body", AuthorID: authorID,
		PubDate: time.Now().UTC().Add(-time.Hour), IsPublished: true,
	}
	require.NoError(t, db.Create(post).Error)

	resp, err := app.Test(jsonRequest(http.MethodPost, fmt.Sprintf("/posts/%d/edit", post.ID), map[string]any{
		"title": "hijacked",
	}, intruderToken), -1)
	require.NoError(t, err)

	// No error page: a silent redirect to the post's detail page.
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), resp.Header.Get("Location"))

	var kept models.Post
	require.NoError(t, db.First(&kept, post.ID).Error)
	assert.Equal(t, "original", kept.Title)
}

func TestEditPost_NonOwnerRedirectedEvenWithBadBody(t *testing.T) {
	app, _, db := setupTestApp(t)
	_, authorID := signupUser(t, app, "alice")
	intruderToken, _ := signupUser(t, app, "bob")

	post := &models.Post{
		Title: "original", Text: "body", AuthorID: authorID,
		PubDate: time.Now().UTC().Add(-time.Hour), IsPublished: true,
	}
	require.NoError(t, db.Create(post).Error)

	target := fmt.Sprintf("/posts/%d/edit", post.ID)
	wantLocation := fmt.Sprintf("/posts/%d/", post.ID)

	// A bad pub_date from a non-owner must not surface a validation error.
	resp, err := app.Test(jsonRequest(http.MethodPost, target, map[string]any{
		"title":    "hijacked",
		"pub_date": "not-a-timestamp",
	}, intruderToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, wantLocation, resp.Header.Get("Location"))

	// Same for a body that does not parse at all.
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+intruderToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, wantLocation, resp.Header.Get("Location"))
}

func TestDeletePost_NonOwnerSilentRedirect(t *testing.T) {
	app, _, db := setupTestApp(t)
	authorToken, authorID := signupUser(t, app, "alice")
	intruderToken, _ := signupUser(t, app, "bob")

	post := &models.Post{
		Title: "keep me", Text: "body", AuthorID: authorID,
		PubDate: time.Now().UTC().Add(-time.Hour), IsPublished: true,
	}
	require.NoError(t, db.Create(post).Error)

	resp, err := app.Test(jsonRequest(http.MethodPost, fmt.Sprintf("/posts/%d/delete", post.ID), nil, intruderToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), resp.Header.Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The author's delete goes through and lands on their profile.
	resp, err = app.Test(jsonRequest(http.MethodPost, fmt.Sprintf("/posts/%d/delete", post.ID), nil, authorToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile/alice/", resp.Header.Get("Location"))

	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAddComment_EmptyTextSilentRedirect(t *testing.T) {
	app, _, db := setupTestApp(t)
	token, authorID := signupUser(t, app, "alice")

	post := &models.Post{
		Title: "post", Text: "body", AuthorID: authorID,
		PubDate: time.Now().UTC().Add(-time.Hour), IsPublished: true,
	}
	require.NoError(t, db.Create(post).Error)

	target := fmt.Sprintf("/posts/%d/comment", post.ID)

	// Empty text: back to the detail page, nothing stored.
	resp, err := app.Test(jsonRequest(http.MethodPost, target, map[string]string{"text": ""}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), resp.Header.Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Valid text: stored, same redirect.
	resp, err = app.Test(jsonRequest(http.MethodPost, target, map[string]string{"text": "nice post"}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEditComment_NonOwnerSilentRedirect(t *testing.T) {
	app, _, db := setupTestApp(t)
	_, authorID := signupUser(t, app, "alice")
	intruderToken, _ := signupUser(t, app, "bob")

	post := &models.Post{
		Title: "post", Text: "body", AuthorID: authorID,
		PubDate: time.Now().UTC().Add(-time.Hour), IsPublished: true,
	}
	require.NoError(t, db.Create(post).Error)
	comment := &models.Comment{Text: "mine", AuthorID: authorID, PostID: post.ID}
	require.NoError(t, db.Create(comment).Error)

	resp, err := app.Test(jsonRequest(http.MethodPost,
		fmt.Sprintf("/posts/%d/comment/%d/edit", post.ID, comment.ID),
		map[string]string{"text": "hijacked"}, intruderToken), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	var kept models.Comment
	require.NoError(t, db.First(&kept, comment.ID).Error)
	assert.Equal(t, "mine", kept.Text)
}

func TestIndex_PaginationAndVisibility(t *testing.T) {
	app, _, db := setupTestApp(t)
	_, authorID := signupUser(t, app, "alice")

	for i := 0; i < 15; i++ {
		require.NoError(t, db.Create(&models.Post{
			Title: fmt.Sprintf("post %d", i), Text: "body", AuthorID: authorID,
			PubDate: time.Now().UTC().Add(-time.Duration(i+1) * time.Hour), IsPublished: true,
		}).Error)
	}
	// Hidden entries never reach the feed.
	require.NoError(t, db.Create(&models.Post{
		Title: "draft", Text: "body", AuthorID: authorID,
		PubDate: time.Now().UTC().Add(-time.Hour), IsPublished: false,
	}).Error)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?page=2", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Posts      []models.Post `json:"posts"`
		Page       int           `json:"page"`
		TotalPages int           `json:"total_pages"`
		Count      int64         `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 2, body.TotalPages)
	assert.Equal(t, int64(15), body.Count)
	assert.Len(t, body.Posts, 5)
}

func TestCategoryPosts_HiddenCategoryNotFound(t *testing.T) {
	app, _, db := setupTestApp(t)

	require.NoError(t, db.Create(&models.Category{
		Title: "Secret", Slug: "secret", IsPublished: false,
	}).Error)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/category/secret", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProfilePosts_OwnerSeesDrafts(t *testing.T) {
	app, _, db := setupTestApp(t)
	ownerToken, ownerID := signupUser(t, app, "alice")

	require.NoError(t, db.Create(&models.Post{
		Title: "live", Text: "body", AuthorID: ownerID,
		PubDate: time.Now().UTC().Add(-time.Hour), IsPublished: true,
	}).Error)
	require.NoError(t, db.Create(&models.Post{
		Title: "draft", Text: "body", AuthorID: ownerID,
		PubDate: time.Now().UTC().Add(-time.Hour), IsPublished: false,
	}).Error)

	var body struct {
		Count int64 `json:"count"`
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/profile/alice", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(1), body.Count)

	resp, err = app.Test(jsonRequest(http.MethodGet, "/profile/alice", nil, ownerToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(2), body.Count)
}

func TestUpdateOwnProfile(t *testing.T) {
	app, _, db := setupTestApp(t)
	token, userID := signupUser(t, app, "alice")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/profile/edit", map[string]string{
		"first_name": "Alice",
		"last_name":  "Liddell",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile/alice/", resp.Header.Get("Location"))

	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, "Liddell", user.LastName)
}

func TestCategoryAdmin_RequiresAdminFlag(t *testing.T) {
	app, _, db := setupTestApp(t)
	token, userID := signupUser(t, app, "alice")

	payload := map[string]any{"title": "Travel"}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/categories", payload, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", userID).Update("is_admin", true).Error)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/categories", payload, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var category models.Category
	require.NoError(t, db.First(&category).Error)
	assert.Equal(t, "travel", category.Slug)
}
