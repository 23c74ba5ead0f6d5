package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

const MaxPageSize = 100
const DefaultPageSize = 10

type CommunityMovie struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Genre       string    `json:"genre"`
	ReleaseYear int       `json:"releaseYear"`
	Director    string    `json:"director"`
	Cast        string    `json:"cast"`
	PosterURL   string    `json:"posterUrl"`
	TrailerURL  string    `json:"trailerUrl"`
	CreatorID   string    `json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateMovieRequest is the raw body of POST /movies. CreatorID is decoded
// only to detect the key: any value, including null, is rejected.
type CreateMovieRequest struct {
	Title       OptionalString  `json:"title"`
	Description OptionalString  `json:"description"`
	Genre       OptionalString  `json:"genre"`
	ReleaseYear OptionalInt     `json:"releaseYear"`
	Director    OptionalString  `json:"director"`
	Cast        OptionalString  `json:"cast"`
	PosterURL   OptionalString  `json:"posterUrl"`
	TrailerURL  OptionalString  `json:"trailerUrl"`
	CreatorID   json.RawMessage `json:"creatorId"`
}

func (r *CreateMovieRequest) HasCreatorID() bool {
	return len(r.CreatorID) > 0
}

// Input trims every string field. Field order here is the order in which
// validation failures are reported.
func (r *CreateMovieRequest) Input() NewMovie {
	return NewMovie{
		Title:       strings.TrimSpace(r.Title.Value()),
		Description: strings.TrimSpace(r.Description.Value()),
		Genre:       strings.TrimSpace(r.Genre.Value()),
		ReleaseYear: r.ReleaseYear.Value(),
		Director:    strings.TrimSpace(r.Director.Value()),
		Cast:        strings.TrimSpace(r.Cast.Value()),
		PosterURL:   strings.TrimSpace(r.PosterURL.Value()),
		TrailerURL:  strings.TrimSpace(r.TrailerURL.Value()),
	}
}

type NewMovie struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Genre       string `validate:"required"`
	ReleaseYear int    `validate:"required,releaseyear"`
	Director    string `validate:"required"`
	Cast        string `validate:"required"`
	PosterURL   string `validate:"required"`
	TrailerURL  string `validate:"required"`
}

// MovieFilter selects community movies. An empty CreatorID means all creators.
type MovieFilter struct {
	CreatorID string
	Search    string
	Genre     string
	Limit     int
	Offset    int
}

// SortCommunityMovies reorders a page of movies by one of the dashboard sort
// keys. Unknown keys keep the incoming (newest-first) order.
func SortCommunityMovies(movies []CommunityMovie, sortBy string) []CommunityMovie {
	sorted := slices.Clone(movies)

	var cmp func(a, b CommunityMovie) int
	switch sortBy {
	case "title.asc":
		cmp = func(a, b CommunityMovie) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	case "title.desc":
		cmp = func(a, b CommunityMovie) int { return strings.Compare(strings.ToLower(b.Title), strings.ToLower(a.Title)) }
	case "year.asc":
		cmp = func(a, b CommunityMovie) int { return a.ReleaseYear - b.ReleaseYear }
	case "year.desc":
		cmp = func(a, b CommunityMovie) int { return b.ReleaseYear - a.ReleaseYear }
	case "newest":
		cmp = func(a, b CommunityMovie) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case "oldest":
		cmp = func(a, b CommunityMovie) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return sorted
	}

	slices.SortStableFunc(sorted, cmp)
	return sorted
}
