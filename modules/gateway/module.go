package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/course-chat/events"
	"github.com/example/course-chat/modules/auth"
	"github.com/example/course-chat/modules/broadcast"
	"github.com/example/course-chat/modules/chat"
	"github.com/example/course-chat/modules/courses"
)

// GatewayModule is the HTTP and WebSocket edge. It authenticates callers,
// exposes the REST API, and accepts chat connections, delegating the actual
// work to the auth, courses, chat, and broadcast modules.
type GatewayModule struct {
	app  *fiber.App
	port string

	authContainer mono.ServiceContainer
	authPort      auth.AuthPort
	coursePort    courses.CoursePort
	chatPort      chat.ChatPort

	registry *broadcast.Registry
	router   *broadcast.Router

	eventBus mono.EventBus
	logger   *slog.Logger

	historyLimit int
	permissive   bool
}

// Compile-time interface checks.
var _ mono.Module = (*GatewayModule)(nil)
var _ mono.DependentModule = (*GatewayModule)(nil)
var _ mono.HealthCheckableModule = (*GatewayModule)(nil)
var _ mono.EventBusAwareModule = (*GatewayModule)(nil)
var _ mono.EventEmitterModule = (*GatewayModule)(nil)

// NewModule creates a new GatewayModule.
func NewModule() *GatewayModule {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &GatewayModule{
		port:         port,
		logger:       slog.Default(),
		historyLimit: chat.DefaultHistoryLimit,
		permissive:   os.Getenv("CHAT_PERMISSIVE_FRAMES") == "true",
	}
}

// Name returns the module name.
func (m *GatewayModule) Name() string {
	return "gateway"
}

// Dependencies returns the list of module dependencies.
func (m *GatewayModule) Dependencies() []string {
	return []string{"auth", "courses", "chat"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *GatewayModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authContainer = container
		m.authPort = auth.NewAuthAdapter(container)
	case "courses":
		m.coursePort = courses.NewCourseAdapter(container)
	case "chat":
		m.chatPort = chat.NewChatAdapter(container)
	}
}

// SetBroadcast injects the room registry and router (called from main.go).
func (m *GatewayModule) SetBroadcast(registry *broadcast.Registry, router *broadcast.Router) {
	m.registry = registry
	m.router = router
}

// SetEventBus receives the EventBus from the framework.
func (m *GatewayModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *GatewayModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MemberJoinedV1.ToBase(),
		events.MemberLeftV1.ToBase(),
	}
}

// Start initializes the Fiber HTTP server.
func (m *GatewayModule) Start(_ context.Context) error {
	if m.authPort == nil || m.coursePort == nil || m.chatPort == nil {
		return fmt.Errorf("module dependencies not set")
	}
	if m.registry == nil || m.router == nil {
		return fmt.Errorf("broadcast registry not set")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.setupRoutes()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	m.logger.Info("Gateway started", "port", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *GatewayModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	m.logger.Info("Gateway stopped")
	return nil
}

// Health returns the health status.
func (m *GatewayModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"port": m.port,
	}
	if m.registry != nil {
		details["live_rooms"] = m.registry.RoomCount()
		details["connected_sessions"] = m.registry.SessionCount()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// setupRoutes registers all HTTP and WebSocket routes.
func (m *GatewayModule) setupRoutes() {
	m.app.Get("/health", m.handleHealth)

	api := m.app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", m.handleRegister)
	authGroup.Post("/login", m.handleLogin)
	authGroup.Post("/refresh", m.handleRefresh)

	courseGroup := api.Group("/courses", m.authMiddleware)
	courseGroup.Get("/", m.handleListCourses)
	courseGroup.Post("/", m.handleCreateCourse)
	courseGroup.Get("/:id", m.handleGetCourse)
	courseGroup.Post("/:id/enroll", m.handleEnroll)
	courseGroup.Get("/:id/messages", m.handleRoomHistory)

	// WebSocket chat endpoint. The upgrade guard validates the token and
	// enrollment before the connection is upgraded, so a refused client
	// never touches the room registry.
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws/chat/room/:courseID", m.wsUpgradeGuard, websocket.New(m.handleChatSocket))
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
