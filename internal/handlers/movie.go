package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"streamsphere-api/internal/models"
	"streamsphere-api/internal/repository"
	"streamsphere-api/internal/responses"
	"streamsphere-api/internal/utils"
)

func movieRules(now time.Time) map[string]responses.FieldRule {
	return map[string]responses.FieldRule{
		"Title":                   {Message: "Title is required and must be a non-empty string", Code: "INVALID_TITLE"},
		"Description":             {Message: "Description is required and must be a non-empty string", Code: "INVALID_DESCRIPTION"},
		"Genre":                   {Message: "Genre is required and must be a non-empty string", Code: "INVALID_GENRE"},
		"ReleaseYear.required":    {Message: "Release year is required and must be a valid number", Code: "INVALID_RELEASE_YEAR"},
		"ReleaseYear.releaseyear": {Message: fmt.Sprintf("Release year must be between %d and %d", utils.MinReleaseYear, utils.MaxReleaseYear(now)), Code: "RELEASE_YEAR_OUT_OF_RANGE"},
		"Director":                {Message: "Director is required and must be a non-empty string", Code: "INVALID_DIRECTOR"},
		"Cast":                    {Message: "Cast is required and must be a non-empty string", Code: "INVALID_CAST"},
		"PosterURL":               {Message: "Poster URL is required and must be a non-empty string", Code: "INVALID_POSTER_URL"},
		"TrailerURL":              {Message: "Trailer URL is required and must be a non-empty string", Code: "INVALID_TRAILER_URL"},
	}
}

// parseMovieFilter reads search, genre, limit and offset. Bad numbers fall
// back to the defaults instead of failing the request.
func parseMovieFilter(r *http.Request) models.MovieFilter {
	q := r.URL.Query()

	filter := models.MovieFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Genre:  strings.TrimSpace(q.Get("genre")),
		Limit:  models.DefaultPageSize,
	}

	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = min(limit, models.MaxPageSize)
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	return filter
}

func listMovies(movies MovieStore, w http.ResponseWriter, r *http.Request, filter models.MovieFilter) {
	results, err := movies.List(r.Context(), filter)
	if err != nil {
		responses.SendInternalError(w, "GET movies error", err)
		return
	}

	if sortBy := r.URL.Query().Get("sortBy"); sortBy != "" {
		results = models.SortCommunityMovies(results, sortBy)
	}

	responses.SendJSON(w, http.StatusOK, results)
}

// GetMovies is the public community catalog listing.
func GetMovies(movies MovieStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listMovies(movies, w, r, parseMovieFilter(r))
	}
}

// GetMyMovies lists only the caller's own uploads.
func GetMyMovies(movies MovieStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := GetSession(r)

		filter := parseMovieFilter(r)
		filter.CreatorID = session.UserID

		listMovies(movies, w, r, filter)
	}
}

func CreateMovie(users UserStore, movies MovieStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := GetSession(r)

		user, err := users.GetByID(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				responses.SendErrorResponse(w, http.StatusUnauthorized, "Authentication required", responses.CodeUnauthorized)
				return
			}
			responses.SendInternalError(w, "POST movies error", err)
			return
		}

		if user.Role != models.RoleCreator {
			responses.SendErrorResponse(w, http.StatusForbidden, "Only creators can create movies", responses.CodeForbidden)
			return
		}

		var req models.CreateMovieRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body", responses.CodeInvalidRequestBody)
			return
		}

		if req.HasCreatorID() {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Creator ID cannot be provided in request body", "CREATOR_ID_NOT_ALLOWED")
			return
		}

		input := req.Input()
		if err := utils.Validate.Struct(input); err != nil {
			responses.SendValidationError(w, err, movieRules(time.Now()))
			return
		}

		movie, err := movies.Create(r.Context(), user.ID, input)
		if err != nil {
			responses.SendInternalError(w, "POST movies error", err)
			return
		}

		responses.SendJSON(w, http.StatusCreated, movie)
	}
}
