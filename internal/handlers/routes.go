package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// NewRouter wires every API route under /api.
func NewRouter(deps *Deps) *mux.Router {
	router := mux.NewRouter()

	perHour := deps.Config.ResetRateLimitPerHour
	if perHour < 1 {
		perHour = 1
	}
	resetLimiter := rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(SessionMiddleware(deps.JWT, deps.Sessions, deps.Config.SessionCookieName))

	apiRouter.HandleFunc("/health", Health).Methods("GET")

	// Auth
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	{
		authRouter.HandleFunc("/sign-up", SignUp(deps)).Methods("POST")
		authRouter.HandleFunc("/sign-in", SignIn(deps)).Methods("POST")
		authRouter.HandleFunc("/sign-out", RequireSession(SignOut(deps))).Methods("POST")
		authRouter.HandleFunc("/session", CurrentSession(deps)).Methods("GET")
		authRouter.HandleFunc("/forget-password", RateLimitMiddleware(resetLimiter)(ForgetPassword(deps))).Methods("POST")
		authRouter.HandleFunc("/reset-password", RateLimitMiddleware(resetLimiter)(ResetPassword(deps))).Methods("POST")
	}

	// Community catalog
	apiRouter.HandleFunc("/movies", GetMovies(deps.Movies)).Methods("GET")
	apiRouter.HandleFunc("/movies", RequireSession(CreateMovie(deps.Users, deps.Movies))).Methods("POST")
	apiRouter.HandleFunc("/movies/my-movies", RequireSession(GetMyMovies(deps.Movies))).Methods("GET")

	// External catalog
	tmdbRouter := apiRouter.PathPrefix("/tmdb").Subrouter()
	{
		tmdbRouter.HandleFunc("", ListExternalMovies(deps.Catalog)).Methods("GET")
		tmdbRouter.HandleFunc("/genres", ListGenres(deps.Catalog)).Methods("GET")
		tmdbRouter.HandleFunc("/trending/{mediaType:movie|tv}", ListTrending(deps.Catalog)).Methods("GET")
		tmdbRouter.HandleFunc("/{mediaType:movie|tv}/{id}", GetExternalDetails(deps.Catalog)).Methods("GET")
	}

	// Profile and role management
	userRouter := apiRouter.PathPrefix("/user").Subrouter()
	{
		userRouter.HandleFunc("/profile", RequireSession(GetProfile(deps.Users))).Methods("GET")
		userRouter.HandleFunc("/profile", RequireSession(UpdateProfile(deps.Users))).Methods("PUT")
		userRouter.HandleFunc("/switch-role", RequireSession(SwitchRole(deps.Users))).Methods("POST")
		userRouter.HandleFunc("/upgrade-to-creator", RequireSession(UpgradeToCreator(deps.Users))).Methods("POST")
	}

	return router
}
