package main

import (
	"context"
	"log"
	"os"

	"github.com/example/task-reminder-bot/config"
	"github.com/example/task-reminder-bot/domain/duedate"
	"github.com/example/task-reminder-bot/modules/api"
	"github.com/example/task-reminder-bot/modules/chat"
	"github.com/example/task-reminder-bot/modules/notification"
	"github.com/example/task-reminder-bot/modules/store"
	"github.com/example/task-reminder-bot/modules/sweeper"
	"github.com/example/task-reminder-bot/modules/task"
	"github.com/example/task-reminder-bot/modules/user"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"gorm.io/gorm"
)

func main() {
	log.Println("=== Task Reminder Bot ===")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := store.Open(cfg.DBPath, cfg.DBDebug)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		closeDB(db)
		log.Fatalf("Failed to create application: %v", err)
	}

	storeModule := store.NewModule(db, cfg.DBPath)
	chatModule := chat.NewModule()
	userModule := user.NewModule(storeModule.Repository())
	notificationModule := notification.NewModule(cfg.AuditCapacity)
	taskModule := task.NewModule(storeModule.Repository(), duedate.NewResolver(), cfg.ListCardLimit)
	sweeperModule := sweeper.NewModule(storeModule.Repository(), chatModule.Hub(), sweeper.ModuleConfig{
		Interval:        cfg.SweepInterval,
		FirstRun:        cfg.SweepFirstRun,
		Concurrency:     cfg.SweepConcurrency,
		DeliveryTimeout: cfg.DeliveryTimeout,
	})
	apiModule := api.NewModule(cfg.HTTPAddr)
	apiModule.SetHub(chatModule.Hub())
	apiModule.SetFeed(notificationModule)

	// Order: independent modules first, then modules with dependencies
	app.Register(storeModule)        // Owns the database
	app.Register(chatModule)         // Delivery hub
	app.Register(userModule)         // Timezone preferences
	app.Register(notificationModule) // Audit feed (event consumer)
	app.Register(taskModule)         // Lifecycle (depends on user, emits events)
	app.Register(sweeperModule)      // Deadline reminders (emits events)
	app.Register(apiModule)          // Driving adapter (depends on task, sweeper)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		closeDB(db)
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// closeDB releases the database on startup failures, before log.Fatalf
// skips deferred cleanup.
func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("  Database: %s", cfg.DBPath)
	log.Printf("  Deadline sweep: every %s (first run after %s)", cfg.SweepInterval, cfg.SweepFirstRun)
	log.Println("")
	log.Printf("Endpoints (%s):", cfg.HTTPAddr)
	log.Println("  GET    /ws?owner_id=&conversation_id=            - Chat client websocket")
	log.Println("  POST   /api/v1/conversations/:id/commands        - Run a chat command")
	log.Println("  POST   /api/v1/buttons                           - Press a Done/Delete button")
	log.Println("  POST   /api/v1/tool-calls                        - Conversational tool call")
	log.Println("  GET    /api/v1/notifications                     - Audit feed")
	log.Println("  POST   /api/v1/sweeps                            - Run a deadline sweep now")
	log.Println("  GET    /health                                   - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
