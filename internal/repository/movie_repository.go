package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"streamsphere-api/internal/models"
)

const movieColumns = `id, title, description, genre, release_year, director, cast_list,
	poster_url, trailer_url, creator_id, created_at, updated_at`

type MovieRepository struct {
	db *sql.DB
}

func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func scanMovie(row rowScanner) (models.CommunityMovie, error) {
	var m models.CommunityMovie
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Genre,
		&m.ReleaseYear,
		&m.Director,
		&m.Cast,
		&m.PosterURL,
		&m.TrailerURL,
		&m.CreatorID,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

// Create stores a validated movie owned by creatorID.
func (r *MovieRepository) Create(ctx context.Context, creatorID string, input models.NewMovie) (*models.CommunityMovie, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO movies (title, description, genre, release_year, director, cast_list, poster_url, trailer_url, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+movieColumns,
		input.Title, input.Description, input.Genre, input.ReleaseYear, input.Director,
		input.Cast, input.PosterURL, input.TrailerURL, creatorID)

	m, err := scanMovie(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}
	return &m, nil
}

// List returns movies newest first. Search matches title, director or cast;
// genre is a substring match; CreatorID restricts to one owner.
func (r *MovieRepository) List(ctx context.Context, filter models.MovieFilter) ([]models.CommunityMovie, error) {
	query := "SELECT " + movieColumns + " FROM movies WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filter.CreatorID != "" {
		query += " AND creator_id = $" + strconv.Itoa(argPos)
		args = append(args, filter.CreatorID)
		argPos++
	}

	if filter.Search != "" {
		p := "$" + strconv.Itoa(argPos)
		query += " AND (title ILIKE " + p + " OR director ILIKE " + p + " OR cast_list ILIKE " + p + ")"
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argPos++
	}

	if filter.Genre != "" {
		query += " AND genre ILIKE $" + strconv.Itoa(argPos)
		args = append(args, "%"+escapeLike(filter.Genre)+"%")
		argPos++
	}

	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(argPos) + " OFFSET $" + strconv.Itoa(argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	movies := []models.CommunityMovie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning movies: %w", err)
	}

	return movies, nil
}
