package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"streamsphere-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validMovie = `{"title":"T","description":"D","genre":"Drama","releaseYear":2020,"director":"X","cast":"Y","posterUrl":"http://p","trailerUrl":"http://t"}`

func movieBody(t *testing.T, mutate func(map[string]interface{})) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(validMovie), &body))
	mutate(body)
	out, err := json.Marshal(body)
	require.NoError(t, err)
	return string(out)
}

func TestCreatorLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.register(t, "a@example.com", models.RoleCreator)

	rec := env.do(http.MethodPost, "/api/movies", validMovie, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.CommunityMovie
	decode(t, rec, &created)
	assert.Equal(t, userID, created.CreatorID)
	assert.Equal(t, "T", created.Title)
	assert.Equal(t, 2020, created.ReleaseYear)

	rec = env.do(http.MethodPost, "/api/user/switch-role", `{"role":"user"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/movies", validMovie, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
	assert.Equal(t, 1, env.movies.count())

	rec = env.do(http.MethodGet, "/api/movies?search=T&limit=100", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []models.CommunityMovie
	decode(t, rec, &listed)
	matches := 0
	for _, m := range listed {
		if m.ID == created.ID {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

func TestCreateMovie_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/movies", validMovie, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))

	rec = env.do(http.MethodPost, "/api/movies", validMovie, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateMovie_NonCreatorForbidden(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "u@example.com", "")

	rec := env.do(http.MethodPost, "/api/movies", validMovie, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
	assert.Zero(t, env.movies.count())
}

func TestCreateMovie_RoleIsReadFromStore(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.register(t, "u@example.com", models.RoleUser)

	// Promoted out of band: the token still says "user".
	env.users.setRole(userID, models.RoleCreator)
	rec := env.do(http.MethodPost, "/api/movies", validMovie, token)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Demoted out of band: the token's claim must not be trusted.
	env.users.setRole(userID, models.RoleUser)
	rec = env.do(http.MethodPost, "/api/movies", validMovie, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateMovie_DeletedUserIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.register(t, "c@example.com", models.RoleCreator)
	env.users.remove(userID)

	rec := env.do(http.MethodPost, "/api/movies", validMovie, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateMovie_CreatorIDNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.register(t, "c@example.com", models.RoleCreator)

	for _, value := range []interface{}{userID, "someone-else", nil, 42, ""} {
		body := movieBody(t, func(m map[string]interface{}) { m["creatorId"] = value })

		rec := env.do(http.MethodPost, "/api/movies", body, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "value %v", value)
		assert.Equal(t, "CREATOR_ID_NOT_ALLOWED", errorCode(t, rec))
	}
	assert.Zero(t, env.movies.count())
}

func TestCreateMovie_FieldValidation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "c@example.com", models.RoleCreator)

	tests := []struct {
		field string
		code  string
	}{
		{"title", "INVALID_TITLE"},
		{"description", "INVALID_DESCRIPTION"},
		{"genre", "INVALID_GENRE"},
		{"releaseYear", "INVALID_RELEASE_YEAR"},
		{"director", "INVALID_DIRECTOR"},
		{"cast", "INVALID_CAST"},
		{"posterUrl", "INVALID_POSTER_URL"},
		{"trailerUrl", "INVALID_TRAILER_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.field+" missing", func(t *testing.T) {
			body := movieBody(t, func(m map[string]interface{}) { delete(m, tt.field) })
			rec := env.do(http.MethodPost, "/api/movies", body, token)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})

		t.Run(tt.field+" wrong type", func(t *testing.T) {
			body := movieBody(t, func(m map[string]interface{}) {
				if tt.field == "releaseYear" {
					m[tt.field] = "2020"
				} else {
					m[tt.field] = 123
				}
			})
			rec := env.do(http.MethodPost, "/api/movies", body, token)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}

	for _, field := range []string{"title", "description", "genre", "director", "cast", "posterUrl", "trailerUrl"} {
		body := movieBody(t, func(m map[string]interface{}) { m[field] = "   " })
		rec := env.do(http.MethodPost, "/api/movies", body, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, field)
	}

	assert.Zero(t, env.movies.count())
}

func TestCreateMovie_FirstFailingFieldWins(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "c@example.com", models.RoleCreator)

	rec := env.do(http.MethodPost, "/api/movies", `{"releaseYear":1500}`, token)
	assert.Equal(t, "INVALID_TITLE", errorCode(t, rec))
}

func TestCreateMovie_ReleaseYearBoundaries(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "c@example.com", models.RoleCreator)
	currentYear := time.Now().Year()

	tests := []struct {
		year   interface{}
		status int
		code   string
	}{
		{1800, http.StatusCreated, ""},
		{currentYear + 2, http.StatusCreated, ""},
		{1799, http.StatusBadRequest, "RELEASE_YEAR_OUT_OF_RANGE"},
		{currentYear + 3, http.StatusBadRequest, "RELEASE_YEAR_OUT_OF_RANGE"},
		{-5, http.StatusBadRequest, "RELEASE_YEAR_OUT_OF_RANGE"},
		{int64(3000000000), http.StatusBadRequest, "RELEASE_YEAR_OUT_OF_RANGE"},
		{1e10, http.StatusBadRequest, "RELEASE_YEAR_OUT_OF_RANGE"},
		{0, http.StatusBadRequest, "INVALID_RELEASE_YEAR"},
		{2020.5, http.StatusBadRequest, "INVALID_RELEASE_YEAR"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.year), func(t *testing.T) {
			body := movieBody(t, func(m map[string]interface{}) { m["releaseYear"] = tt.year })
			rec := env.do(http.MethodPost, "/api/movies", body, token)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rec))
			}
		})
	}
}

func TestCreateMovie_TrimsAndRejectsBadJSON(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "c@example.com", models.RoleCreator)

	body := movieBody(t, func(m map[string]interface{}) { m["title"] = "  Padded  " })
	rec := env.do(http.MethodPost, "/api/movies", body, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.CommunityMovie
	decode(t, rec, &created)
	assert.Equal(t, "Padded", created.Title)

	rec = env.do(http.MethodPost, "/api/movies", `{"title":`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST_BODY", errorCode(t, rec))
}

func TestCreateMovie_LongFieldsAccepted(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "c@example.com", models.RoleCreator)

	long := strings.Repeat("x", 300)
	body := movieBody(t, func(m map[string]interface{}) {
		m["title"] = long
		m["genre"] = long
		m["director"] = long
	})
	rec := env.do(http.MethodPost, "/api/movies", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.CommunityMovie
	decode(t, rec, &created)
	assert.Equal(t, long, created.Title)
	assert.Equal(t, long, created.Genre)
}

func TestMyMovies_OnlyReturnsCallersMovies(t *testing.T) {
	env := newTestEnv(t)
	tokenA, idA := env.register(t, "a@example.com", models.RoleCreator)
	tokenB, idB := env.register(t, "b@example.com", models.RoleCreator)

	for _, tok := range []string{tokenA, tokenB} {
		for _, genre := range []string{"Drama", "Comedy"} {
			body := movieBody(t, func(m map[string]interface{}) { m["genre"] = genre })
			require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/movies", body, tok).Code)
		}
	}

	queries := []string{"", "?search=T", "?genre=dra", "?search=x&genre=com", "?search=nomatch", "?limit=1&offset=1"}
	for _, q := range queries {
		for _, caller := range []struct{ token, id string }{{tokenA, idA}, {tokenB, idB}} {
			rec := env.do(http.MethodGet, "/api/movies/my-movies"+q, "", caller.token)
			require.Equal(t, http.StatusOK, rec.Code)

			var movies []models.CommunityMovie
			decode(t, rec, &movies)
			for _, m := range movies {
				assert.Equal(t, caller.id, m.CreatorID, "query %q", q)
			}
		}
	}

	rec := env.do(http.MethodGet, "/api/movies/my-movies?genre=dra", "", tokenA)
	var movies []models.CommunityMovie
	decode(t, rec, &movies)
	require.Len(t, movies, 1)
	assert.Equal(t, "Drama", movies[0].Genre)

	rec = env.do(http.MethodGet, "/api/movies/my-movies", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetMovies_Pagination(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", 10, 0},
		{"?limit=1000", 100, 0},
		{"?limit=25&offset=5", 25, 5},
		{"?limit=abc&offset=xyz", 10, 0},
		{"?limit=0&offset=-3", 10, 0},
		{"?limit=-1", 10, 0},
	}

	for _, tt := range tests {
		rec := env.do(http.MethodGet, "/api/movies"+tt.query, "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
		assert.Equal(t, tt.limit, env.movies.lastFilter.Limit, tt.query)
		assert.Equal(t, tt.offset, env.movies.lastFilter.Offset, tt.query)
		assert.Empty(t, env.movies.lastFilter.CreatorID)
	}
}

func TestGetMovies_NewestFirstAndSortBy(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "c@example.com", models.RoleCreator)

	for _, title := range []string{"Bravo", "alpha", "Charlie"} {
		body := movieBody(t, func(m map[string]interface{}) { m["title"] = title })
		require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/movies", body, token).Code)
	}

	titles := func(rec interface{ Bytes() []byte }) []string {
		var movies []models.CommunityMovie
		require.NoError(t, json.Unmarshal(rec.Bytes(), &movies))
		out := make([]string, 0, len(movies))
		for _, m := range movies {
			out = append(out, m.Title)
		}
		return out
	}

	rec := env.do(http.MethodGet, "/api/movies", "", "")
	assert.Equal(t, []string{"Charlie", "alpha", "Bravo"}, titles(rec.Body))

	rec = env.do(http.MethodGet, "/api/movies?sortBy=title.asc", "", "")
	assert.Equal(t, []string{"alpha", "Bravo", "Charlie"}, titles(rec.Body))
}
