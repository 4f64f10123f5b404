package handler

import (
	"bufio"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"instainstru/internal/http/middleware"
	"instainstru/internal/service"
)

// streamHeartbeat keeps idle SSE connections open through proxies.
var streamHeartbeat = 25 * time.Second

// ListConversations
//
// @Summary  My conversations
// @Tags     messaging
// @Produce  json
// @Security BearerAuth
// @Router   /api/v1/conversations [get]
func ListConversations(svc service.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		convs, err := svc.ListConversations(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": convs})
	}
}

// ListMessages returns messages newest first. Pass the oldest created_at as
// before to page back.
//
// @Summary  Conversation messages
// @Tags     messaging
// @Produce  json
// @Security BearerAuth
// @Param    id     path  string true  "Conversation ID"
// @Param    before query string false "RFC 3339 cursor"
// @Param    limit  query int    false "Page size" default(50)
// @Router   /api/v1/conversations/{id}/messages [get]
func ListMessages(svc service.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		before, ok := parseTime(c, "before")
		if !ok {
			return nil
		}
		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		msgs, err := svc.ListMessages(c.UserContext(), middleware.UserID(c), id, before, limit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": msgs})
	}
}

// SendMessage
//
// @Summary  Send a message
// @Tags     messaging
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body service.SendMessageInput true "Message"
// @Success  201 {object} model.Message
// @Router   /api/v1/messages [post]
func SendMessage(svc service.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SendMessageInput
		if !bindJSON(c, &in) {
			return nil
		}
		msg, err := svc.Send(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	}
}

// MarkConversationRead
//
// @Summary  Mark a conversation read
// @Tags     messaging
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "Conversation ID"
// @Router   /api/v1/conversations/{id}/read [post]
func MarkConversationRead(svc service.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		n, err := svc.MarkRead(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"marked": n})
	}
}

// StreamEvents pushes the caller's realtime events as server-sent events.
//
// @Summary  Realtime event stream
// @Tags     messaging
// @Produce  text/event-stream
// @Security BearerAuth
// @Router   /api/v1/messages/stream [get]
func StreamEvents(svc service.MessagingService, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		sub, err := svc.Subscribe(c.UserContext(), userID)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer sub.Close()
			ticker := time.NewTicker(streamHeartbeat)
			defer ticker.Stop()

			if _, err := w.WriteString(": connected\n\n"); err != nil || w.Flush() != nil {
				return
			}
			for {
				select {
				case ev, ok := <-sub.Events():
					if !ok {
						return
					}
					if _, err := w.Write(ev.SSE()); err != nil {
						return
					}
				case <-ticker.C:
					if _, err := w.WriteString(": ping\n\n"); err != nil {
						return
					}
				}
				if err := w.Flush(); err != nil {
					log.Debug().Err(err).Str("user_id", userID).Msg("event stream closed")
					return
				}
			}
		}))
		return nil
	}
}
