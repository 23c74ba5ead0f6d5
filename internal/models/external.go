package models

const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// ExternalMovie is a third-party catalog entry reshaped for the client. It is
// never persisted.
type ExternalMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PosterURL   string  `json:"posterUrl"`
	BackdropURL string  `json:"backdropUrl"`
	ReleaseYear int     `json:"releaseYear"`
	ReleaseDate string  `json:"releaseDate"`
	Rating      float64 `json:"rating"`
	VoteCount   int     `json:"voteCount"`
	GenreIDs    []int   `json:"genreIds"`
	Popularity  float64 `json:"popularity"`
	Language    string  `json:"language"`
}

type ExternalMoviePage struct {
	Movies       []ExternalMovie `json:"movies"`
	Page         int             `json:"page"`
	TotalPages   int             `json:"totalPages"`
	TotalResults int             `json:"totalResults"`
}

// ExternalQuery drives a catalog listing. Search takes precedence: when it is
// non-empty SortBy and Genre are ignored.
type ExternalQuery struct {
	Page   int
	SortBy string
	Search string
	Genre  string
}

type ExternalDetails struct {
	ID          int64    `json:"id"`
	MediaType   string   `json:"mediaType"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterURL   string   `json:"posterUrl"`
	BackdropURL string   `json:"backdropUrl"`
	ReleaseDate string   `json:"releaseDate"`
	Rating      float64  `json:"rating"`
	VoteCount   int      `json:"voteCount"`
	Runtime     int      `json:"runtime"`
	Genres      []string `json:"genres"`
	Director    string   `json:"director"`
	Cast        []string `json:"cast"`
	TrailerURL  *string  `json:"trailerUrl"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
