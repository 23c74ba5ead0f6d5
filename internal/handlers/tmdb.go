package handlers

import (
	"log"
	"net/http"
	"strconv"

	"streamsphere-api/internal/models"
	"streamsphere-api/internal/responses"

	"github.com/gorilla/mux"
)

func sendCatalogError(w http.ResponseWriter, err error) {
	log.Printf("Error fetching TMDB movies: %v", err)
	responses.SendErrorResponse(w, http.StatusInternalServerError, "Failed to fetch movies from TMDB", "TMDB_ERROR")
}

// ListExternalMovies proxies search and discover against the external catalog.
func ListExternalMovies(catalog ExternalCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, err := strconv.Atoi(q.Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		result, err := catalog.ListMovies(r.Context(), models.ExternalQuery{
			Page:   page,
			SortBy: q.Get("sortBy"),
			Search: q.Get("search"),
			Genre:  q.Get("genre"),
		})
		if err != nil {
			sendCatalogError(w, err)
			return
		}

		responses.SendJSON(w, http.StatusOK, result)
	}
}

func ListGenres(catalog ExternalCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		genres, err := catalog.Genres(r.Context())
		if err != nil {
			sendCatalogError(w, err)
			return
		}

		responses.SendJSON(w, http.StatusOK, map[string]interface{}{"genres": genres})
	}
}

func ListTrending(catalog ExternalCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := catalog.Trending(r.Context(), mux.Vars(r)["mediaType"])
		if err != nil {
			sendCatalogError(w, err)
			return
		}

		responses.SendJSON(w, http.StatusOK, result)
	}
}

// GetExternalDetails assembles the detail view of one movie or TV title.
func GetExternalDetails(catalog ExternalCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		id, err := strconv.ParseInt(vars["id"], 10, 64)
		if err != nil || id <= 0 {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid media ID", "INVALID_MEDIA_ID")
			return
		}

		details, err := catalog.GetDetails(r.Context(), vars["mediaType"], id)
		if err != nil {
			log.Printf("Error loading movie details: %v", err)
			responses.SendErrorResponse(w, http.StatusInternalServerError, "Failed to load movie details", "TMDB_DETAILS_ERROR")
			return
		}

		responses.SendJSON(w, http.StatusOK, details)
	}
}
