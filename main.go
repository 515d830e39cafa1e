package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/course-chat/modules/analytics"
	"github.com/example/course-chat/modules/auth"
	"github.com/example/course-chat/modules/broadcast"
	"github.com/example/course-chat/modules/chat"
	"github.com/example/course-chat/modules/courses"
	"github.com/example/course-chat/modules/gateway"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Course Chat - real-time course rooms ===")

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
	authModule := auth.NewModule()
	coursesModule := courses.NewModule()
	chatModule := chat.NewModule()
	broadcastModule := broadcast.NewModule()
	analyticsModule := analytics.NewModule()
	gatewayModule := gateway.NewModule()

	// Inject the room registry and router into the gateway
	// (in-process fan-out is not exposed via ServiceContainer)
	gatewayModule.SetBroadcast(broadcastModule.Registry(), broadcastModule.Router())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - auth: Accounts and tokens (ServiceProviderModule)
	// - courses: Catalog and enrollment (ServiceProviderModule)
	// - chat: Durable message log (ServiceProviderModule + EventEmitterModule)
	// - broadcast: Live rooms and fan-out
	// - analytics: Event consumer tracking room activity
	// - gateway: Driving adapter (Fiber HTTP/WebSocket edge)
	app.Register(authModule)
	app.Register(coursesModule)
	app.Register(chatModule)
	app.Register(broadcastModule)
	app.Register(analyticsModule)
	app.Register(gatewayModule)

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
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                        - Health check")
	log.Println("  POST   /api/v1/auth/register          - Create account")
	log.Println("  POST   /api/v1/auth/login             - Login, returns tokens")
	log.Println("  POST   /api/v1/auth/refresh           - Refresh token pair")
	log.Println("  GET    /api/v1/courses                - List courses")
	log.Println("  POST   /api/v1/courses                - Create a course")
	log.Println("  GET    /api/v1/courses/:id            - Get course details")
	log.Println("  POST   /api/v1/courses/:id/enroll     - Enroll in a course")
	log.Println("  GET    /api/v1/courses/:id/messages   - Recent room history")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s):", port)
	log.Println("  Connect with: ws://localhost:3000/ws/chat/room/:courseID?token=<access_token>")
	log.Println("  Frame types:  fetch_messages, single_message -> chat_message, all_message")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
