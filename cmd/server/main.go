// cmd/server/main.go
// Entry point for the freestyle-cup registration server. The cmd/ folder holds
// executable binaries, internal/ holds the packages they are built from.
//
// The binary has two subcommands:
//
//	server serve    — run migrations and start the HTTP server
//	server migrate  — run pending migrations and exit
package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/urfave/cli/v2"

	"github.com/freestyle-cup/registration/internal/config"
	"github.com/freestyle-cup/registration/internal/database"
	"github.com/freestyle-cup/registration/internal/handlers"
	"github.com/freestyle-cup/registration/internal/live"
	"github.com/freestyle-cup/registration/internal/middleware"
)

func main() {
	app := &cli.App{
		Name:  "server",
		Usage: "Freestyle-cup registration and event-day backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run migrations and start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Run pending database migrations and exit",
				Action: migrateOnly,
			},
		},
		// Bare "server" behaves like "server serve" so the container
		// entrypoint stays a single word.
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrateOnly(*cli.Context) error {
	cfg := config.Load()
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}
	log.Println("Migrations applied")
	return nil
}

func serve(*cli.Context) error {
	cfg := config.Load()

	handle, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	db := database.New(handle, cfg.DatabaseURL)

	// Running migrations on startup keeps the schema in sync with the binary.
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}

	// The hub pushes "timeplan changed" notifications to connected displays.
	hub := live.NewHub()
	go hub.Run()

	app := fiber.New(fiber.Config{
		AppName: "Freestyle Cup Registration",
	})

	app.Use(logger.New())
	app.Use(cors.New())

	// --- Public routes ---
	app.Get("/health", handlers.HealthCheck)
	app.Get("/live/timeplan", handlers.RequireUpgrade, handlers.LiveTimeplan(hub))

	public := app.Group("/api/v1")
	public.Post("/register", handlers.Register(cfg, db))
	public.Post("/login", handlers.Login(cfg, db))
	public.Get("/status", handlers.SystemStatus(cfg))
	public.Get("/categories", handlers.ListCategories(db))
	public.Get("/startlist", handlers.Startlist(db))
	public.Get("/timeplan", handlers.PredictTimeplan(db))

	// --- Authenticated routes ---
	// Everything below requires a valid bearer token; middleware.Auth loads
	// the account and stashes identity in c.Locals for the handlers.
	api := app.Group("/api/v1", middleware.Auth(cfg, db))

	api.Get("/whoami", handlers.Whoami(db))

	// Club management. Creating a club is gated by the registration window;
	// the admin bypasses the gate inside RequireCapability.
	canCreateClub := middleware.RequireCapability(cfg, func(caps middleware.Capabilities) bool {
		return caps.CanCreateClub
	})
	api.Post("/clubs", canCreateClub, handlers.CreateClub(db))
	api.Get("/clubs/:id", handlers.GetClub(db))
	api.Put("/clubs/:id", handlers.RenameClub(db))
	api.Get("/clubs/:id/starters", handlers.ListClubStarters(db))
	api.Get("/clubs/:id/judges", handlers.ListClubJudges(db))
	api.Get("/clubs/:id/acts", handlers.ListClubActs(db))

	// Starter registration and the pairing pipeline behind it.
	canRegisterStarter := middleware.RequireCapability(cfg, func(caps middleware.Capabilities) bool {
		return caps.CanRegisterStarter
	})
	api.Post("/starters", canRegisterStarter, handlers.AddStarter(db))
	api.Put("/starters/:id", canRegisterStarter, handlers.EditStarter(db))
	api.Delete("/starters/:id", canRegisterStarter, handlers.DeleteStarter(db))

	canRegisterJudge := middleware.RequireCapability(cfg, func(caps middleware.Capabilities) bool {
		return caps.CanRegisterJudge
	})
	api.Post("/judges", canRegisterJudge, handlers.AddJudge(db))
	api.Delete("/judges/:id", canRegisterJudge, handlers.DeleteJudge(db))

	// Acts: clubs manage their own; song upload closes separately from
	// registration.
	api.Get("/acts/:id", handlers.GetAct(db))
	api.Put("/acts/:id", handlers.EditAct(db))
	canUploadMusic := middleware.RequireCapability(cfg, func(caps middleware.Capabilities) bool {
		return caps.CanUploadMusic
	})
	api.Put("/acts/:id/song", canUploadMusic, handlers.SaveActSong(db))

	// --- Admin routes ---
	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.Get("/starters", handlers.ListStarters(db))
	admin.Put("/clubs/:id/payment", handlers.SetClubPayment(db))
	admin.Post("/categories", handlers.AddCategory(db))
	admin.Put("/categories/:name", handlers.EditCategory(db))
	admin.Delete("/categories/:name", handlers.DeleteCategory(db))
	admin.Put("/acts/:id/order", handlers.SetActOrder(db))
	admin.Put("/acts/:id/song-checked", handlers.SetSongChecked(db))
	admin.Post("/timeplan/forward", handlers.AdvanceTimeplan(db, hub))
	admin.Post("/timeplan/backward", handlers.RewindTimeplan(db, hub))
	admin.Post("/reload-db", handlers.ReloadDatabase(db))

	log.Printf("Starting server on port %s", cfg.Port)
	return app.Listen(":" + cfg.Port)
}
