package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"streamsphere-api/internal/config"
	"streamsphere-api/internal/models"
	"streamsphere-api/internal/repository"
	"streamsphere-api/internal/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	users    *fakeUsers
}

func (f *fakeSessions) Create(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.CreatedAt = time.Now()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	s, ok := f.sessions[id]
	f.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	if u, err := f.users.GetByID(context.Background(), s.UserID); err == nil {
		cp.Role = u.Role
	}
	return &cp, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) deleteForUser(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeUsers struct {
	mu          sync.Mutex
	users       map[string]*models.User
	roleWrites  int
	sessions    *fakeSessions
	lastProfile models.ProfileUpdate
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrEmailTaken
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.lastProfile = update
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.ImageSet {
		u.Image = update.NewImage()
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id, role string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.roleWrites++
	u.Role = role
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUsers) GetByResetToken(_ context.Context, tokenHash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash && time.Now().Before(*u.ResetTokenExpiresAt) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) ResetPassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	u, ok := f.users[id]
	if !ok {
		f.mu.Unlock()
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	f.mu.Unlock()

	f.sessions.deleteForUser(id)
	return nil
}

func (f *fakeUsers) setRole(id, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].Role = role
}

func (f *fakeUsers) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type fakeMovies struct {
	mu         sync.Mutex
	movies     []models.CommunityMovie
	nextID     int64
	lastFilter models.MovieFilter
}

func (f *fakeMovies) Create(_ context.Context, creatorID string, input models.NewMovie) (*models.CommunityMovie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	created := time.Now().Add(time.Duration(f.nextID) * time.Millisecond)
	m := models.CommunityMovie{
		ID:          f.nextID,
		Title:       input.Title,
		Description: input.Description,
		Genre:       input.Genre,
		ReleaseYear: input.ReleaseYear,
		Director:    input.Director,
		Cast:        input.Cast,
		PosterURL:   input.PosterURL,
		TrailerURL:  input.TrailerURL,
		CreatorID:   creatorID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	f.movies = append(f.movies, m)
	return &m, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (f *fakeMovies) List(_ context.Context, filter models.MovieFilter) ([]models.CommunityMovie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter

	out := []models.CommunityMovie{}
	for _, m := range f.movies {
		if filter.CreatorID != "" && m.CreatorID != filter.CreatorID {
			continue
		}
		if filter.Search != "" && !containsFold(m.Title, filter.Search) &&
			!containsFold(m.Director, filter.Search) && !containsFold(m.Cast, filter.Search) {
			continue
		}
		if filter.Genre != "" && !containsFold(m.Genre, filter.Genre) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset >= len(out) {
		return []models.CommunityMovie{}, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeMovies) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.movies)
}

type fakeCatalog struct {
	page       *models.ExternalMoviePage
	details    *models.ExternalDetails
	genres     []models.Genre
	err        error
	lastQuery  models.ExternalQuery
	lastMedia  string
	lastID     int64
	detailsErr error
}

func (f *fakeCatalog) ListMovies(_ context.Context, q models.ExternalQuery) (*models.ExternalMoviePage, error) {
	f.lastQuery = q
	return f.page, f.err
}

func (f *fakeCatalog) GetDetails(_ context.Context, mediaType string, id int64) (*models.ExternalDetails, error) {
	f.lastMedia = mediaType
	f.lastID = id
	return f.details, f.detailsErr
}

func (f *fakeCatalog) Genres(context.Context) ([]models.Genre, error) {
	return f.genres, f.err
}

func (f *fakeCatalog) Trending(_ context.Context, mediaType string) (*models.ExternalMoviePage, error) {
	f.lastMedia = mediaType
	return f.page, f.err
}

type sentMail struct {
	to, name, link string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) SendResetEmail(to, name, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, name: name, link: link})
	return nil
}

type testEnv struct {
	router   *mux.Router
	users    *fakeUsers
	sessions *fakeSessions
	movies   *fakeMovies
	catalog  *fakeCatalog
	mailer   *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := &fakeUsers{users: map[string]*models.User{}}
	sessions := &fakeSessions{sessions: map[string]*models.Session{}, users: users}
	users.sessions = sessions

	env := &testEnv{
		users:    users,
		sessions: sessions,
		movies:   &fakeMovies{},
		catalog:  &fakeCatalog{},
		mailer:   &fakeMailer{},
	}

	env.router = NewRouter(&Deps{
		Config: &config.Config{
			AppURL:                "http://localhost:3000",
			SessionCookieName:     "streamsphere_session",
			ResetTokenTTL:         time.Hour,
			ResetRateLimitPerHour: 1000,
		},
		JWT:      utils.NewJWTUtil("test-secret", time.Hour),
		Users:    users,
		Sessions: sessions,
		Movies:   env.movies,
		Catalog:  env.catalog,
		Mailer:   env.mailer,
	})
	return env
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// register signs up a user and returns its token and id.
func (e *testEnv) register(t *testing.T, email, role string) (string, string) {
	t.Helper()

	body := `{"name":"Test User","email":"` + email + `","password":"password123"`
	if role != "" {
		body += `,"role":"` + role + `"`
	}
	body += `}`

	rec := e.do(http.MethodPost, "/api/auth/sign-up", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string             `json:"token"`
		User  models.UserProfile `json:"user"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	decode(t, rec, &resp)
	return resp.Code
}
