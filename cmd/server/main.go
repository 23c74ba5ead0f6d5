package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamsphere-api/internal/config"
	"streamsphere-api/internal/database"
	"streamsphere-api/internal/handlers"
	"streamsphere-api/internal/repository"
	"streamsphere-api/internal/services"
	"streamsphere-api/internal/utils"

	"github.com/alecthomas/kingpin/v2"
	"github.com/rs/cors"
	migrate "github.com/rubenv/sql-migrate"
)

func main() {
	var (
		app = kingpin.New("streamsphere-api", "StreamSphere movie discovery and community catalog API.")

		serveCmd     = app.Command("serve", "Run the HTTP API server.").Default()
		serveMigrate = serveCmd.Flag("migrate", "apply pending migrations before serving").Default("true").Bool()

		migrateCmd     = app.Command("migrate", "Manage database migrations.")
		migrateUpCmd   = migrateCmd.Command("up", "Apply pending migrations.")
		migrateUpMax   = migrateUpCmd.Flag("max", "maximum number of migrations to apply (0 = all)").Default("0").Int()
		migrateDownCmd = migrateCmd.Command("down", "Roll back migrations.")
		migrateDownMax = migrateDownCmd.Flag("max", "maximum number of migrations to roll back (0 = all)").Default("1").Int()
		migrateStatus  = migrateCmd.Command("status", "Show migration status.")
	)

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg := config.LoadConfig()

	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	switch command {
	case serveCmd.FullCommand():
		if *serveMigrate {
			if _, err := database.Migrate(db.DB, migrate.Up, 0); err != nil {
				log.Fatalf("Failed to migrate database: %v", err)
			}
		}
		serve(cfg, db)

	case migrateUpCmd.FullCommand():
		if _, err := database.Migrate(db.DB, migrate.Up, *migrateUpMax); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}

	case migrateDownCmd.FullCommand():
		if _, err := database.Migrate(db.DB, migrate.Down, *migrateDownMax); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}

	case migrateStatus.FullCommand():
		statuses, err := database.Status(db.DB)
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			log.Printf("%-40s %s", s.ID, state)
		}
	}
}

func serve(cfg *config.Config, db *database.Database) {
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpiration)
	sessions := repository.NewSessionRepository(db.DB)

	router := handlers.NewRouter(&handlers.Deps{
		Config:   cfg,
		JWT:      jwtUtil,
		Users:    repository.NewUserRepository(db.DB),
		Sessions: sessions,
		Movies:   repository.NewMovieRepository(db.DB),
		Catalog:  services.NewTMDBClient(cfg),
		Mailer:   services.NewEmailService(cfg),
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeExpiredSessions(ctx, sessions)

	go func() {
		log.Printf("Server running on port %s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

func purgeExpiredSessions(ctx context.Context, sessions *repository.SessionRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				log.Printf("Failed to purge expired sessions: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Purged %d expired sessions", n)
			}
		}
	}
}
