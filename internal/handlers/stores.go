package handlers

import (
	"context"
	"time"

	"streamsphere-api/internal/config"
	"streamsphere-api/internal/models"
	"streamsphere-api/internal/utils"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error)
	UpdateRole(ctx context.Context, id, role string) (*models.User, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	GetByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type MovieStore interface {
	Create(ctx context.Context, creatorID string, input models.NewMovie) (*models.CommunityMovie, error)
	List(ctx context.Context, filter models.MovieFilter) ([]models.CommunityMovie, error)
}

type ExternalCatalog interface {
	ListMovies(ctx context.Context, q models.ExternalQuery) (*models.ExternalMoviePage, error)
	GetDetails(ctx context.Context, mediaType string, id int64) (*models.ExternalDetails, error)
	Genres(ctx context.Context) ([]models.Genre, error)
	Trending(ctx context.Context, mediaType string) (*models.ExternalMoviePage, error)
}

type Mailer interface {
	SendResetEmail(to, name, link string) error
}

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Config   *config.Config
	JWT      *utils.JWTUtil
	Users    UserStore
	Sessions SessionStore
	Movies   MovieStore
	Catalog  ExternalCatalog
	Mailer   Mailer
}
