// FILE: internal/controller/assistant_controller.go
package controller

import (
	"errors"
	"fmt"

	"hana-assistant-be/internal/dto"
	"hana-assistant-be/internal/pkg/serverutils"
	"hana-assistant-be/internal/service"
	internalWS "hana-assistant-be/internal/websocket"
	"hana-assistant-be/pkg/assistant"
	"hana-assistant-be/pkg/voice"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Open(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	SetInput(ctx *fiber.Ctx) error
	ToggleListening(ctx *fiber.Ctx) error
	SetVoiceMode(ctx *fiber.Ctx) error
	CancelSpeech(ctx *fiber.Ctx) error
	SetLanguage(ctx *fiber.Ctx) error
	SetVisibility(ctx *fiber.Ctx) error
	NewSession(ctx *fiber.Ctx) error
	Continue(ctx *fiber.Ctx) error
	ExportTranscript(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type assistantController struct {
	service   service.IAssistantService
	hub       *internalWS.Hub
	jwtSecret string
}

func NewAssistantController(service service.IAssistantService, hub *internalWS.Hub, jwtSecret string) IAssistantController {
	return &assistantController{service: service, hub: hub, jwtSecret: jwtSecret}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant", serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/surfaces", c.Open)
	h.Get("/surfaces/:id", c.Get)
	h.Delete("/surfaces/:id", c.Close)
	h.Post("/surfaces/:id/messages", c.SendMessage)
	h.Put("/surfaces/:id/input", c.SetInput)
	h.Post("/surfaces/:id/mic", c.ToggleListening)
	h.Put("/surfaces/:id/voice-mode", c.SetVoiceMode)
	h.Post("/surfaces/:id/speech/cancel", c.CancelSpeech)
	h.Put("/surfaces/:id/language", c.SetLanguage)
	h.Put("/surfaces/:id/visibility", c.SetVisibility)
	h.Post("/surfaces/:id/session", c.NewSession)
	h.Post("/surfaces/:id/continue", c.Continue)
	h.Get("/surfaces/:id/transcript", c.ExportTranscript)
	h.Get("/surfaces/:id/ws", c.ServeWs)
}

func (c *assistantController) Open(ctx *fiber.Ctx) error {
	var req dto.OpenSurfaceRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Open(ctx.UserContext(), userIDOf(ctx), &req)
	if err != nil {
		return assistantError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Surface opened", res))
}

func (c *assistantController) Get(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Snapshot(ctx.UserContext(), userIDOf(ctx), surfaceID)
	if err != nil {
		return assistantError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *assistantController) Close(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Close(ctx.UserContext(), userIDOf(ctx), surfaceID); err != nil {
		return assistantError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Surface closed", nil))
}

func (c *assistantController) SendMessage(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userID := userIDOf(ctx)
	if err := c.service.SendMessage(ctx.UserContext(), userID, surfaceID, req.Text); err != nil {
		return assistantError(ctx, err)
	}
	return c.snapshot(ctx, userID, surfaceID, "Message answered")
}

func (c *assistantController) SetInput(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	var req dto.SetInputRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userID := userIDOf(ctx)
	if err := c.service.SetInput(ctx.UserContext(), userID, surfaceID, req.Text); err != nil {
		return assistantError(ctx, err)
	}
	return c.snapshot(ctx, userID, surfaceID, "Input updated")
}

func (c *assistantController) ToggleListening(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	userID := userIDOf(ctx)
	if err := c.service.ToggleListening(ctx.UserContext(), userID, surfaceID); err != nil {
		return assistantError(ctx, err)
	}
	return c.snapshot(ctx, userID, surfaceID, "Microphone toggled")
}

func (c *assistantController) SetVoiceMode(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	var req dto.VoiceModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID := userIDOf(ctx)
	if err := c.service.SetVoiceMode(ctx.UserContext(), userID, surfaceID, req.Enabled); err != nil {
		return assistantError(ctx, err)
	}
	return c.snapshot(ctx, userID, surfaceID, "Voice mode updated")
}

func (c *assistantController) CancelSpeech(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	userID := userIDOf(ctx)
	if err := c.service.CancelSpeech(ctx.UserContext(), userID, surfaceID); err != nil {
		return assistantError(ctx, err)
	}
	return c.snapshot(ctx, userID, surfaceID, "Speech cancelled")
}

func (c *assistantController) SetLanguage(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	var req dto.LanguageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userID := userIDOf(ctx)
	if err := c.service.SetLanguage(ctx.UserContext(), userID, surfaceID, req.Language); err != nil {
		return assistantError(ctx, err)
	}
	return c.snapshot(ctx, userID, surfaceID, "Language updated")
}

func (c *assistantController) SetVisibility(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	var req dto.VisibilityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID := userIDOf(ctx)
	if err := c.service.SetVisible(ctx.UserContext(), userID, surfaceID, req.Visible); err != nil {
		return assistantError(ctx, err)
	}
	return c.snapshot(ctx, userID, surfaceID, "Visibility updated")
}

func (c *assistantController) NewSession(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	userID := userIDOf(ctx)
	if err := c.service.NewSession(ctx.UserContext(), userID, surfaceID); err != nil {
		return assistantError(ctx, err)
	}
	return c.snapshot(ctx, userID, surfaceID, "New session started")
}

func (c *assistantController) Continue(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	userID := userIDOf(ctx)
	if err := c.service.Continue(ctx.UserContext(), userID, surfaceID); err != nil {
		return assistantError(ctx, err)
	}
	return c.snapshot(ctx, userID, surfaceID, "Session continued")
}

func (c *assistantController) ExportTranscript(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	fileName, body, err := c.service.ExportTranscript(ctx.UserContext(), userIDOf(ctx), surfaceID)
	if err != nil {
		return assistantError(ctx, err)
	}

	ctx.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return ctx.SendString(body)
}

func (c *assistantController) ServeWs(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	userID := userIDOf(ctx)
	greeting, err := c.service.Attach(ctx.UserContext(), userID, surfaceID)
	if err != nil {
		return assistantError(ctx, err)
	}

	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(c.hub, conn, surfaceID, userID, greeting)
	})(ctx)
}

func (c *assistantController) snapshot(ctx *fiber.Ctx, userID string, surfaceID uuid.UUID, message string) error {
	res, err := c.service.Snapshot(ctx.UserContext(), userID, surfaceID)
	if err != nil {
		return assistantError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func userIDOf(ctx *fiber.Ctx) string {
	userID, _ := ctx.Locals("user_id").(string)
	return userID
}

func surfaceIDOf(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid surface id")
	}
	return id, nil
}

// assistantError renders a service error with the HTTP status matching its code.
func assistantError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSurfaceNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrContinueBlocked), errors.Is(err, service.ErrPaymentDisabled):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, assistant.ErrSessionGated):
		status = fiber.StatusForbidden
	case errors.Is(err, assistant.ErrBlankMessage):
		status = fiber.StatusBadRequest
	case errors.Is(err, assistant.ErrBusy), errors.Is(err, assistant.ErrGateNotActive), errors.Is(err, assistant.ErrNoSession):
		status = fiber.StatusConflict
	case errors.Is(err, assistant.ErrClosed), errors.Is(err, assistant.ErrDiscarded):
		status = fiber.StatusGone
	case errors.Is(err, voice.ErrUnsupported):
		status = fiber.StatusNotImplemented
	}

	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    status,
		"message": err.Error(),
		"error":   service.ErrorCode(err),
	})
}
