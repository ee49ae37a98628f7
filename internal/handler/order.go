package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/middleware"
	"github.com/dukerupert/vanir/internal/service"
)

// OrderHandler serves the order API.
type OrderHandler struct {
	orders *service.OrderService
	logger zerolog.Logger
}

// NewOrderHandler creates the order handler.
func NewOrderHandler(orders *service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger.With().Str("component", "order_handler").Logger(),
	}
}

// createOrderRequest is the POST body. The tenant comes from the header, not
// the body, so a client cannot write into another tenant's namespace.
type createOrderRequest struct {
	CustomerEmail  string                   `json:"customerEmail"`
	CustomerName   string                   `json:"customerName"`
	CustomerPhone  string                   `json:"customerPhone"`
	CartID         string                   `json:"cartId"`
	CampaignCode   string                   `json:"campaignCode"`
	Campaign       *domain.CampaignSnapshot `json:"campaign"`
	BillingAddress *domain.Address          `json:"billingAddress"`
	PaymentMethod  string                   `json:"paymentMethod"`
}

type createOrderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Create handles POST /v1.0/orders. Creation is asynchronous: the request is
// validated and enqueued, and 202 hands back the order id to poll.
func (h *OrderHandler) Create(c echo.Context) error {
	var body createOrderRequest
	if err := c.Bind(&body); err != nil {
		return ErrorResponse(c, h.logger, domain.Invalid("handler.create_order", "request body is not valid JSON"))
	}

	req, err := h.orders.RequestCreation(c.Request().Context(), &domain.CreationRequest{
		TenantID:       middleware.TenantID(c),
		CustomerEmail:  body.CustomerEmail,
		CustomerName:   body.CustomerName,
		CustomerPhone:  body.CustomerPhone,
		CartID:         body.CartID,
		CampaignCode:   body.CampaignCode,
		Campaign:       body.Campaign,
		BillingAddress: body.BillingAddress,
		PaymentMethod:  body.PaymentMethod,
		RequestedBy:    "api",
	})
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	return c.JSON(http.StatusAccepted, createOrderResponse{
		OrderID: req.OrderID,
		Status:  "accepted",
	})
}

// Get handles GET /v1.0/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.orders.GetOrder(c.Request().Context(), middleware.TenantID(c), c.Param("id"))
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, order)
}

// updateOrderRequest is the PATCH body. Version is the optimistic-lock token
// the client read; zero lets the service use the current version.
type updateOrderRequest struct {
	Status         *domain.OrderStatus    `json:"status"`
	PaymentDetails *domain.PaymentDetails `json:"paymentDetails"`
	Active         *bool                  `json:"active"`
	Version        int64                  `json:"version"`
	UpdatedBy      string                 `json:"updatedBy"`
}

// Update handles PATCH /v1.0/orders/:id. A stale version returns 409 and the
// client is expected to re-read and retry.
func (h *OrderHandler) Update(c echo.Context) error {
	var body updateOrderRequest
	if err := c.Bind(&body); err != nil {
		return ErrorResponse(c, h.logger, domain.Invalid("handler.update_order", "request body is not valid JSON"))
	}

	updatedBy := body.UpdatedBy
	if updatedBy == "" {
		updatedBy = "api"
	}

	order, err := h.orders.UpdateOrder(c.Request().Context(), middleware.TenantID(c), c.Param("id"), service.UpdateRequest{
		Status:          body.Status,
		PaymentDetails:  body.PaymentDetails,
		Active:          body.Active,
		ExpectedVersion: body.Version,
		UpdatedBy:       updatedBy,
	})
	if err != nil {
		return ErrorResponse(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, order)
}
