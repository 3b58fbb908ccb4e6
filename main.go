package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/watch-together/modules/api"
	"github.com/example/watch-together/modules/broadcast"
	"github.com/example/watch-together/modules/room"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Watch Together - Shared-Media Room Server ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	roomModule := room.NewModule()
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule()

	// Inject broadcast hub into API module
	// (This is done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - room: Core engine (ServiceProviderModule + EventEmitterModule)
	// - broadcast: Event consumer (EventConsumerModule for WebSocket fan-out)
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on room)
	app.Register(roomModule)      // Room engine + event emitter
	app.Register(broadcastModule) // WebSocket hub + event consumer
	app.Register(apiModule)       // HTTP/WebSocket API

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
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

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event flow: room engine events -> broadcast module -> WebSocket clients")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                 - Health check")
	log.Println("  GET    /api/v1/rooms/:code     - Look up a live room")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Commands: create_room, join_room, leave_room,")
	log.Println("            load_track, play, pause, seek, track_ended,")
	log.Println("            add_to_queue, remove_from_queue,")
	log.Println("            request_track, approve_request, reject_request,")
	log.Println("            send_message, send_reaction")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
