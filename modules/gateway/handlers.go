package gateway

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	userdomain "github.com/example/course-chat/domain/user"
	"github.com/example/course-chat/events"
	"github.com/example/course-chat/modules/auth"
	"github.com/example/course-chat/modules/broadcast"
)

// handleHealth returns a simple liveness response.
func (m *GatewayModule) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "ok",
		"live_rooms": m.registry.RoomCount(),
		"sessions":   m.registry.SessionCount(),
	})
}

// handleRegister creates a new user account.
func (m *GatewayModule) handleRegister(c *fiber.Ctx) error {
	var payload RegisterPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	req := auth.RegisterRequest{Email: payload.Email, Password: payload.Password}
	var resp auth.RegisterResponse
	if err := helper.CallRequestReplyService(
		c.UserContext(),
		m.authContainer,
		auth.ServiceRegister,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// handleLogin authenticates a user and issues tokens.
func (m *GatewayModule) handleLogin(c *fiber.Ctx) error {
	var payload LoginPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	req := auth.LoginRequest{Email: payload.Email, Password: payload.Password}
	var resp auth.LoginResponse
	if err := helper.CallRequestReplyService(
		c.UserContext(),
		m.authContainer,
		auth.ServiceLogin,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return handleAuthError(c, err)
	}

	return c.JSON(resp)
}

// handleRefresh exchanges a refresh token for a new token pair.
func (m *GatewayModule) handleRefresh(c *fiber.Ctx) error {
	var payload RefreshPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	req := auth.RefreshRequest{RefreshToken: payload.RefreshToken}
	var resp auth.RefreshResponse
	if err := helper.CallRequestReplyService(
		c.UserContext(),
		m.authContainer,
		auth.ServiceRefreshToken,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return handleAuthError(c, err)
	}

	return c.JSON(resp)
}

// authMiddleware validates the Authorization header and stores the caller's
// claims in the request context.
func (m *GatewayModule) authMiddleware(c *fiber.Ctx) error {
	token := bearerToken(c.Get("Authorization"))
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Missing or invalid Authorization header",
		})
	}

	claims, err := m.authPort.ValidateToken(c.UserContext(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired token",
		})
	}

	c.Locals(localClaims, claims)
	return c.Next()
}

// handleListCourses returns the course catalog.
func (m *GatewayModule) handleListCourses(c *fiber.Ctx) error {
	list, err := m.coursePort.ListCourses(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list courses",
		})
	}
	return c.JSON(fiber.Map{"courses": list})
}

// handleCreateCourse creates a course owned by the caller.
func (m *GatewayModule) handleCreateCourse(c *fiber.Ctx) error {
	claims := c.Locals(localClaims).(*userdomain.Claims)

	var payload CreateCoursePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if strings.TrimSpace(payload.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Course title is required",
		})
	}

	course, err := m.coursePort.CreateCourse(c.UserContext(), claims.UserID, payload.Title, payload.Overview)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create course",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

// handleGetCourse returns one course.
func (m *GatewayModule) handleGetCourse(c *fiber.Ctx) error {
	courseID, err := parseCourseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid course id",
		})
	}

	course, err := m.coursePort.GetCourse(c.UserContext(), courseID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load course",
		})
	}
	return c.JSON(course)
}

// handleEnroll enrolls the caller in a course.
func (m *GatewayModule) handleEnroll(c *fiber.Ctx) error {
	claims := c.Locals(localClaims).(*userdomain.Claims)

	courseID, err := parseCourseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid course id",
		})
	}

	if err := m.coursePort.Enroll(c.UserContext(), courseID, claims.UserID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to enroll",
		})
	}
	return c.JSON(fiber.Map{"enrolled": true})
}

// handleRoomHistory returns the recent message tail of a course room over
// REST. Enrollment is required, same as for the live socket.
func (m *GatewayModule) handleRoomHistory(c *fiber.Ctx) error {
	claims := c.Locals(localClaims).(*userdomain.Claims)

	courseID, err := parseCourseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid course id",
		})
	}

	enrolled, err := m.coursePort.IsEnrolled(c.UserContext(), claims.UserID, courseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to check enrollment",
		})
	}
	if !enrolled {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "Not enrolled in this course",
		})
	}

	limit := m.historyLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	messages, err := m.chatPort.Recent(c.UserContext(), roomKey(courseID), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load history",
		})
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// wsUpgradeGuard authenticates and authorizes a chat connection before the
// WebSocket upgrade. Claims and the parsed course id are handed to the
// socket handler through Locals.
func (m *GatewayModule) wsUpgradeGuard(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c.Get("Authorization"))
	}
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Missing token",
		})
	}

	claims, err := m.authPort.ValidateToken(c.UserContext(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired token",
		})
	}

	courseID, err := parseCourseID(c, "courseID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid course id",
		})
	}

	enrolled, err := m.coursePort.IsEnrolled(c.UserContext(), claims.UserID, courseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to check enrollment",
		})
	}
	if !enrolled {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "Not enrolled in this course",
		})
	}

	c.Locals(localClaims, claims)
	c.Locals(localCourseID, courseID)
	return c.Next()
}

// handleChatSocket runs one chat connection: join the room, pump inbound
// frames through the session, and detach on disconnect.
func (m *GatewayModule) handleChatSocket(conn *websocket.Conn) {
	claims := conn.Locals(localClaims).(*userdomain.Claims)
	courseID := conn.Locals(localCourseID).(uint)

	transport := broadcast.NewSession(
		uuid.NewString(), claims.UserID, claims.Email, roomKey(courseID), conn)
	session := newChatSession(
		*claims, courseID, transport, m.registry, m.router, m.chatPort,
		m.historyLimit, m.permissive)

	ctx := context.Background()
	if err := session.Join(ctx); err != nil {
		m.logger.Error("Chat join failed",
			"courseID", courseID, "user", claims.Email, "error", err)
		conn.Close()
		return
	}
	go transport.WritePump()

	m.publishMemberJoined(transport)
	defer func() {
		session.Close()
		m.publishMemberLeft(transport)
	}()

	m.logger.Info("Chat session joined",
		"roomKey", transport.RoomKey, "user", claims.Email, "sessionID", transport.ID)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		session.HandleFrame(ctx, data)
	}
}

func (m *GatewayModule) publishMemberJoined(s *broadcast.Session) {
	if m.eventBus == nil {
		return
	}
	event := events.MemberJoinedEvent{
		RoomKey:   s.RoomKey,
		SessionID: s.ID,
		UserID:    s.UserID,
		Handle:    s.Handle,
		Timestamp: time.Now(),
	}
	if err := events.MemberJoinedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish MemberJoined", "error", err)
	}
}

func (m *GatewayModule) publishMemberLeft(s *broadcast.Session) {
	if m.eventBus == nil {
		return
	}
	event := events.MemberLeftEvent{
		RoomKey:   s.RoomKey,
		SessionID: s.ID,
		UserID:    s.UserID,
		Handle:    s.Handle,
		Timestamp: time.Now(),
	}
	if err := events.MemberLeftV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish MemberLeft", "error", err)
	}
}

// handleAuthError maps auth service errors to HTTP status codes.
func handleAuthError(c *fiber.Ctx, err error) error {
	msg := err.Error()

	switch {
	case strings.Contains(msg, "invalid email or password"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid email or password",
		})
	case strings.Contains(msg, "already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "A user with this email already exists",
		})
	case strings.Contains(msg, "invalid email format"),
		strings.Contains(msg, "password must be"):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: msg,
		})
	case strings.Contains(msg, "invalid token"),
		strings.Contains(msg, "token has expired"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired token",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong",
		})
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.HasPrefix(header, prefix) {
		return header[len(prefix):]
	}
	return ""
}

func parseCourseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}
