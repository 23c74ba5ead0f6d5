package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"streamsphere-api/internal/config"
	"streamsphere-api/internal/models"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// FallbackImageURL is an inline "No Image" placeholder used when the upstream
// has no poster or backdrop.
const FallbackImageURL = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMjgwIiBoZWlnaHQ9IjMwMCIgdmlld0JveD0iMCAwIDI4MCAzMDAiIGZpbGw9Im5vbmUiIHhtbG5zPSJodHRwOi8vd3d3LnczLm9yZy8yMDAwL3N2ZyI+CjxyZWN0IHdpZHRoPSIyODAiIGhlaWdodD0iMzAwIiBmaWxsPSIjMzMzIi8+Cjx0ZXh0IHg9IjE0MCIgeT0iMTUwIiBmaWxsPSIjNjY2IiB0ZXh0LWFuY2hvcj0ibWlkZGxlIiBkeT0iLjNlbSI+Tm8gSW1hZ2U8L3RleHQ+Cjwvc3ZnPg=="

const (
	defaultSortBy      = "popularity.desc"
	maxUpstreamPage    = 500
	noDescription      = "No description available"
	unknownDirector    = "Unknown"
	detailsCastLimit   = 5
	youtubeEmbedPrefix = "https://www.youtube.com/embed/"
)

// UpstreamError is returned when the catalog API answers with a non-2xx status.
type UpstreamError struct {
	Path       string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("TMDB API error: %s returned %d %s", e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

type TMDBClient struct {
	apiKey          string
	baseURL         string
	imageBaseURL    string
	backdropBaseURL string
	httpClient      *http.Client
	limiter         *rate.Limiter
}

func NewTMDBClient(cfg *config.Config) *TMDBClient {
	return &TMDBClient{
		apiKey:          cfg.TMDBAPIKey,
		baseURL:         cfg.TMDBBaseURL,
		imageBaseURL:    cfg.TMDBImageBaseURL,
		backdropBaseURL: cfg.TMDBBackdropBaseURL,
		httpClient:      &http.Client{Timeout: cfg.TMDBTimeout},
		limiter:         rate.NewLimiter(rate.Limit(cfg.TMDBRateLimit), cfg.TMDBRateBurst),
	}
}

type tmdbResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	GenreIDs         []int   `json:"genre_ids"`
	Popularity       float64 `json:"popularity"`
	OriginalLanguage string  `json:"original_language"`
}

type tmdbPage struct {
	Page         int          `json:"page"`
	Results      []tmdbResult `json:"results"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

type tmdbDetails struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Name           string         `json:"name"`
	Overview       string         `json:"overview"`
	PosterPath     string         `json:"poster_path"`
	BackdropPath   string         `json:"backdrop_path"`
	ReleaseDate    string         `json:"release_date"`
	FirstAirDate   string         `json:"first_air_date"`
	VoteAverage    float64        `json:"vote_average"`
	VoteCount      int            `json:"vote_count"`
	Runtime        int            `json:"runtime"`
	EpisodeRunTime []int          `json:"episode_run_time"`
	Genres         []models.Genre `json:"genres"`
}

type tmdbVideo struct {
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type tmdbVideos struct {
	Results []tmdbVideo `json:"results"`
}

type tmdbCredits struct {
	Cast []struct {
		Name string `json:"name"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

// ListMovies searches when q.Search is set and otherwise discovers by sort and
// genre.
func (c *TMDBClient) ListMovies(ctx context.Context, q models.ExternalQuery) (*models.ExternalMoviePage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(clampPage(q.Page)))
	params.Set("include_adult", "false")

	path := "/discover/movie"
	if search := strings.TrimSpace(q.Search); search != "" {
		path = "/search/movie"
		params.Set("query", search)
	} else {
		sortBy := q.SortBy
		if sortBy == "" {
			sortBy = defaultSortBy
		}
		params.Set("sort_by", sortBy)
		if q.Genre != "" {
			params.Set("with_genres", q.Genre)
		}
	}

	var page tmdbPage
	if err := c.get(ctx, path, params, &page); err != nil {
		return nil, err
	}
	return c.toMoviePage(page), nil
}

// Trending lists this week's trending titles for mediaType.
func (c *TMDBClient) Trending(ctx context.Context, mediaType string) (*models.ExternalMoviePage, error) {
	if !validMediaType(mediaType) {
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}

	var page tmdbPage
	if err := c.get(ctx, "/trending/"+mediaType+"/week", nil, &page); err != nil {
		return nil, err
	}
	return c.toMoviePage(page), nil
}

func (c *TMDBClient) Genres(ctx context.Context) ([]models.Genre, error) {
	var body struct {
		Genres []models.Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", nil, &body); err != nil {
		return nil, err
	}
	if body.Genres == nil {
		body.Genres = []models.Genre{}
	}
	return body.Genres, nil
}

// GetDetails fetches details, videos and credits concurrently. Any failure
// fails the whole lookup.
func (c *TMDBClient) GetDetails(ctx context.Context, mediaType string, id int64) (*models.ExternalDetails, error) {
	if !validMediaType(mediaType) {
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}

	base := "/" + mediaType + "/" + strconv.FormatInt(id, 10)

	var details tmdbDetails
	var videos tmdbVideos
	var credits tmdbCredits

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(gctx, base, nil, &details) })
	g.Go(func() error { return c.get(gctx, base+"/videos", nil, &videos) })
	g.Go(func() error { return c.get(gctx, base+"/credits", nil, &credits) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.ExternalDetails{
		ID:          details.ID,
		MediaType:   mediaType,
		Title:       details.Title,
		Overview:    details.Overview,
		ReleaseDate: details.ReleaseDate,
		Rating:      details.VoteAverage,
		VoteCount:   details.VoteCount,
		Runtime:     details.Runtime,
		Genres:      make([]string, 0, len(details.Genres)),
		Director:    unknownDirector,
		Cast:        []string{},
		TrailerURL:  pickTrailer(videos.Results),
	}

	if mediaType == models.MediaTypeTV {
		result.Title = details.Name
		result.ReleaseDate = details.FirstAirDate
		if len(details.EpisodeRunTime) > 0 {
			result.Runtime = details.EpisodeRunTime[0]
		}
	}
	if result.Overview == "" {
		result.Overview = noDescription
	}
	if details.PosterPath != "" {
		result.PosterURL = c.imageBaseURL + details.PosterPath
	}
	if details.BackdropPath != "" {
		result.BackdropURL = c.backdropBaseURL + details.BackdropPath
	}
	for _, genre := range details.Genres {
		result.Genres = append(result.Genres, genre.Name)
	}
	for _, member := range credits.Crew {
		if member.Job == "Director" {
			result.Director = member.Name
			break
		}
	}
	for i, member := range credits.Cast {
		if i == detailsCastLimit {
			break
		}
		result.Cast = append(result.Cast, member.Name)
	}

	return result, nil
}

// pickTrailer prefers a YouTube "Trailer" and falls back to any YouTube video.
func pickTrailer(videos []tmdbVideo) *string {
	var fallback *tmdbVideo
	for i := range videos {
		v := &videos[i]
		if v.Site != "YouTube" {
			continue
		}
		if v.Type == "Trailer" {
			embed := youtubeEmbedPrefix + v.Key
			return &embed
		}
		if fallback == nil {
			fallback = v
		}
	}
	if fallback == nil {
		return nil
	}
	embed := youtubeEmbedPrefix + fallback.Key
	return &embed
}

func (c *TMDBClient) toMoviePage(page tmdbPage) *models.ExternalMoviePage {
	movies := make([]models.ExternalMovie, 0, len(page.Results))
	for _, r := range page.Results {
		movies = append(movies, c.toExternalMovie(r))
	}
	return &models.ExternalMoviePage{
		Movies:       movies,
		Page:         page.Page,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}
}

func (c *TMDBClient) toExternalMovie(r tmdbResult) models.ExternalMovie {
	title := r.Title
	if title == "" {
		title = r.Name
	}
	releaseDate := r.ReleaseDate
	if releaseDate == "" {
		releaseDate = r.FirstAirDate
	}

	m := models.ExternalMovie{
		ID:          r.ID,
		Title:       title,
		Description: r.Overview,
		PosterURL:   FallbackImageURL,
		BackdropURL: FallbackImageURL,
		ReleaseYear: releaseYear(releaseDate),
		ReleaseDate: releaseDate,
		Rating:      r.VoteAverage,
		VoteCount:   r.VoteCount,
		GenreIDs:    r.GenreIDs,
		Popularity:  r.Popularity,
		Language:    r.OriginalLanguage,
	}

	if m.Description == "" {
		m.Description = noDescription
	}
	if r.PosterPath != "" {
		m.PosterURL = c.imageBaseURL + r.PosterPath
	}
	if r.BackdropPath != "" {
		m.BackdropURL = c.imageBaseURL + r.BackdropPath
	}
	if m.GenreIDs == nil {
		m.GenreIDs = []int{}
	}
	if m.Language == "" {
		m.Language = "en"
	}
	return m
}

func (c *TMDBClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("TMDB request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Path: path, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode TMDB response from %s: %w", path, err)
	}
	return nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > maxUpstreamPage {
		return maxUpstreamPage
	}
	return page
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func validMediaType(mediaType string) bool {
	return mediaType == models.MediaTypeMovie || mediaType == models.MediaTypeTV
}
