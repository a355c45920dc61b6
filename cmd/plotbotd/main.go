package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plotbot/internal/common/config"
	"plotbot/internal/common/middleware"
	"plotbot/internal/plotter/handlers"
	"plotbot/internal/plotter/models"
	"plotbot/internal/plotter/repository"
	"plotbot/internal/plotter/robot"
	"plotbot/internal/plotter/service"
	preview "plotbot/internal/preview/models"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Plotter Service
// ============================================================

const version = "0.1.0"

func main() {
	configPath := flag.String("c", "config.json", "path to config file")
	headless := flag.Bool("headless", false, "start drawing the svg directory immediately")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("plotbotd v%s\n", version)
		return
	}

	cfg := config.Load()
	device, err := config.LoadDevice(*configPath)
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "plotbotd",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(nil))

	if device.Active {
		runActive(ctx, app, cfg, device, *headless)
	} else {
		runPreviewOnly(app)
	}

	// ============================================================
	// Server Start
	// ============================================================

	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Listening on %s (env: %s)", device.Listen, cfg.Environment)
	if err := app.Listen(device.Listen); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func runPreviewOnly(app *fiber.App) {
	log.Printf("Starting server in preview-only mode")
	printer := service.NewPrinter(nil, nil)
	handlers.Register(app, handlers.NewPlotterHandler(printer, nil, nil, preview.DeviceConfig{}), false, nil)
}

func runActive(ctx context.Context, app *fiber.App, cfg *config.Config, device *config.Device, headless bool) {
	log.Printf("Starting server in active mode (device %s)", device.Device)

	if _, err := os.Stat(device.Device); err != nil {
		log.Fatalf("Device %s does not exist", device.Device)
	}
	store := service.NewSVGStore(device.SVGDir)
	if err := store.Check(); err != nil {
		log.Fatalf("SVG dir %s is not usable: %v", device.SVGDir, err)
	}

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	go func() {
		<-ctx.Done()
		db.Close()
	}()

	repo := repository.New(db)
	if err := repo.Init(ctx, cfg.MigrationsPath); err != nil {
		log.Fatalf("init db: %v", err)
	}

	journal, err := robot.OpenJournal(device.Device, preview.DefaultSurface)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var printer *service.Printer
	bot := robot.New(journal, robot.Config{
		TimeLimits: device.TimeLimits,
		OnPrinted: func(ctx context.Context, jobID string) {
			printer.Printed(ctx, jobID)
		},
	})
	printer = service.NewPrinter(repo, bot)

	go func() {
		if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[ROBOT] stopped: %v", err)
		}
		journal.Close()
	}()

	if headless {
		log.Printf("Starting in headless mode")
		bounds := models.SurfaceBounds(preview.DefaultSurface)
		if _, err := printer.StartHeadless(ctx, store, bounds, device.Interval()); err != nil {
			log.Fatalf("Could not start headless mode: %v", err)
		}
	}

	h := handlers.NewPlotterHandler(printer, store, repo, device.Wire())
	handlers.Register(app, h, true, repo.Ping)
}
