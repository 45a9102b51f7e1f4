package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"paperinsight-be/internal/dto"
	"paperinsight-be/internal/pkg/serverutils"
	"paperinsight-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Use(serverutils.JwtMiddleware)
	// The stream is a GET with query params so browsers can consume it
	// through EventSource, which cannot send a body.
	h.Get("chat", c.Stream)
	h.Post("stop", c.Stop)
	h.Get("history", c.History)
	h.Post("session", c.CreateSession)
	h.Get("sessions", c.ListSessions)
	h.Delete("session/:sessionId", c.DeleteSession)
}

// chatIdQuery parses the chatId query parameter.
func chatIdQuery(ctx *fiber.Ctx) (uuid.UUID, error) {
	sessionId, err := uuid.Parse(ctx.Query("chatId"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid chat ID")
	}
	return sessionId, nil
}

// mapChatError translates service errors into HTTP statuses.
func mapChatError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrSessionForbidden):
		return fiber.NewError(fiber.StatusForbidden, "Session belongs to another user")
	default:
		return err
	}
}

func (c *chatController) Stream(ctx *fiber.Ctx) error {
	userId := serverutils.UserID(ctx)

	sessionId, err := chatIdQuery(ctx)
	if err != nil {
		return err
	}
	userQuery := ctx.Query("userQuery")
	if userQuery == "" {
		return fiber.NewError(fiber.StatusBadRequest, "userQuery is required")
	}

	// The run must outlive this handler: the stream writer below executes
	// after we return, and interruption goes through the stop endpoint.
	events, err := c.chatService.StreamChat(context.Background(), userId, sessionId, userQuery)
	if err != nil {
		return mapChatError(err)
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		streamEvents(w, events, func() {
			// Client disconnect takes the same cleanup path as an
			// explicit stop: interrupt the run so it deregisters and
			// persists its state.
			c.chatService.StopChat(sessionId)
		})
	}))

	return nil
}

// streamEvents writes one SSE frame per event. On the first write failure it
// invokes onDisconnect, then keeps draining the channel so the producer can
// finish.
func streamEvents(w *bufio.Writer, events <-chan dto.ChatEvent, onDisconnect func()) {
	clientGone := false
	for ev := range events {
		if clientGone {
			continue
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			clientGone = true
			onDisconnect()
			continue
		}
		if err := w.Flush(); err != nil {
			clientGone = true
			onDisconnect()
		}
	}
}

func (c *chatController) Stop(ctx *fiber.Ctx) error {
	sessionId, err := chatIdQuery(ctx)
	if err != nil {
		return err
	}

	// Stopping an idle session is a no-op, not an error.
	c.chatService.StopChat(sessionId)

	return ctx.JSON(serverutils.SuccessResponse[any]("Stop signal sent", nil))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userId := serverutils.UserID(ctx)

	sessionId, err := chatIdQuery(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetChatHistory(ctx.Context(), userId, sessionId)
	if err != nil {
		return mapChatError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat history", res))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId := serverutils.UserID(ctx)

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.CreateSession(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	userId := serverutils.UserID(ctx)

	res, err := c.chatService.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId := serverutils.UserID(ctx)

	sessionId, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session ID")
	}

	if err := c.chatService.DeleteSession(ctx.Context(), userId, sessionId); err != nil {
		return mapChatError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}
