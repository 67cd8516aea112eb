// FILE: internal/controller/payment_controller.go
package controller

import (
	"errors"

	"hana-assistant-be/internal/dto"
	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/internal/pkg/serverutils"
	"hana-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	Checkout(ctx *fiber.Ctx) error
	Webhook(ctx *fiber.Ctx) error
}

type paymentController struct {
	service   service.IPaymentService
	jwtSecret string
	logger    logger.ILogger
}

func NewPaymentController(service service.IPaymentService, jwtSecret string, log logger.ILogger) IPaymentController {
	return &paymentController{service: service, jwtSecret: jwtSecret, logger: log}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment")
	h.Post("/midtrans/notification", c.Webhook)

	// Protected Routes
	h.Post("/surfaces/:id/checkout", serverutils.JwtMiddleware(c.jwtSecret), c.Checkout)
}

func (c *paymentController) Checkout(ctx *fiber.Ctx) error {
	surfaceID, err := surfaceIDOf(ctx)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Checkout(ctx.UserContext(), userIDOf(ctx), surfaceID, &req)
	if err != nil {
		return assistantError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout created", res))
}

func (c *paymentController) Webhook(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		c.logger.Warn("PAYMENT_WEBHOOK", "Body parsing failed", map[string]interface{}{"error": err.Error()})
		return ctx.SendStatus(fiber.StatusBadRequest)
	}

	sigPreview := req.SignatureKey
	if len(sigPreview) > 8 {
		sigPreview = sigPreview[:8] + "..."
	}
	c.logger.Info("PAYMENT_WEBHOOK", "Received", map[string]interface{}{
		"order_id":      req.OrderId,
		"status":        req.TransactionStatus,
		"signature_key": sigPreview,
	})

	err := c.service.HandleNotification(ctx.UserContext(), &req)
	switch {
	case err == nil:
		return ctx.SendStatus(fiber.StatusOK)
	case errors.Is(err, service.ErrInvalidSignature), errors.Is(err, service.ErrInvalidOrder):
		return ctx.SendStatus(fiber.StatusBadRequest)
	default:
		c.logger.Error("PAYMENT_WEBHOOK", "Service handling failed", map[string]interface{}{"order_id": req.OrderId, "error": err.Error()})
		// 500 makes Midtrans retry the notification
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}
}
