// Package http exposes the dispatch service over HTTP with echo: the remaining time
// and status queries, and the courier, order and offer operations that feed the
// coordinator through the database.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/generated/servers"
	"dispatch/internal/pkg/errs"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

type (
	createCourierHandler interface {
		Handle(ctx context.Context, cmd commands.CreateCourierCommand) error
	}
	setCourierAvailabilityHandler interface {
		Handle(ctx context.Context, cmd commands.SetCourierAvailabilityCommand) error
	}
	createOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) error
	}
	requestCourierHandler interface {
		Handle(ctx context.Context, cmd commands.RequestCourierCommand) error
	}
	settleOfferHandler interface {
		Handle(ctx context.Context, cmd commands.SettleOfferCommand) error
	}
	getAllCouriersHandler interface {
		Handle(ctx context.Context, query queries.GetAllCouriersQuery) ([]queries.GetAllCouriersQueryResponse, error)
	}
	getActiveOrdersHandler interface {
		Handle(ctx context.Context, query queries.GetActiveOrdersQuery) ([]queries.GetActiveOrdersQueryResponse, error)
	}
	getRemainingTimeHandler interface {
		Handle(ctx context.Context, query queries.GetRemainingTimeQuery) (queries.GetRemainingTimeQueryResponse, error)
	}
	getDispatchStatusHandler interface {
		Handle(ctx context.Context, query queries.GetDispatchStatusQuery) (queries.GetDispatchStatusQueryResponse, error)
	}
)

// Handlers groups the use cases the server delegates to.
type Handlers struct {
	CreateCourier          createCourierHandler
	SetCourierAvailability setCourierAvailabilityHandler
	CreateOrder            createOrderHandler
	RequestCourier         requestCourierHandler
	SettleOffer            settleOfferHandler
	GetAllCouriers         getAllCouriersHandler
	GetActiveOrders        getActiveOrdersHandler
	GetRemainingTime       getRemainingTimeHandler
	GetDispatchStatus      getDispatchStatusHandler
}

// Server implements servers.ServerInterface. It coordinates between HTTP handlers
// and application use cases.
type Server struct {
	handlers Handlers
	clock    clockwork.Clock
	logger   *slog.Logger
}

var _ servers.ServerInterface = (*Server)(nil)

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(handlers Handlers, clock clockwork.Clock, logger *slog.Logger) *Server {
	return &Server{
		handlers: handlers,
		clock:    clock,
		logger:   logger.With("component", "http"),
	}
}

// RegisterRoutes mounts the health check, the API described by api/openapi.yml and
// its Swagger UI on e. API requests are validated against the document before they
// reach a handler.
func (s *Server) RegisterRoutes(e *echo.Echo) error {
	spec, err := servers.GetSwagger()
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	validator, err := requestValidator(spec)
	if err != nil {
		return err
	}
	if err = registerDocs(e, spec); err != nil {
		return err
	}

	e.HTTPErrorHandler = s.handleError
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	api := e.Group("", validator)
	servers.RegisterHandlers(api, s)
	return nil
}

// GetCouriers handles GET /api/v1/couriers - retrieves all couriers.
func (s *Server) GetCouriers(ctx echo.Context) error {
	couriers, err := s.handlers.GetAllCouriers.Handle(ctx.Request().Context(), queries.NewGetAllCouriersQuery())
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve couriers")
	}

	response := make([]servers.Courier, len(couriers))
	for i, courier := range couriers {
		response[i] = servers.Courier{
			Id:            courier.ID.Bytes(),
			Name:          courier.Name,
			Available:     courier.Available,
			Active:        courier.Active,
			RejectedCount: courier.RejectedCount,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// CreateCourier handles POST /api/v1/couriers - registers a new courier.
func (s *Server) CreateCourier(ctx echo.Context) error {
	var newCourier servers.CreateCourierJSONRequestBody
	if err := ctx.Bind(&newCourier); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCreateCourierCommand(newCourier.Name, deref(newCourier.FcmToken))
	if err != nil {
		return badRequest(ctx, "Invalid courier data: "+err.Error())
	}

	if err = s.handlers.CreateCourier.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to create courier")
	}

	return ctx.JSON(http.StatusCreated, servers.Created{Id: cmd.CourierID().Bytes()})
}

// SetCourierAvailability handles PUT /api/v1/couriers/{courierId}/availability.
func (s *Server) SetCourierAvailability(ctx echo.Context, courierId servers.CourierId) error {
	courierID, err := kernel.UUIDFromBytes(courierId[:])
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}

	var body servers.SetCourierAvailabilityJSONRequestBody
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewSetCourierAvailabilityCommand(courierID, body.Available, body.Active, body.FcmToken)
	if err != nil {
		return badRequest(ctx, "Invalid availability data: "+err.Error())
	}

	if err = s.handlers.SetCourierAvailability.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to update courier")
	}

	return ctx.NoContent(http.StatusNoContent)
}

// AcceptOffer handles POST /api/v1/couriers/{courierId}/offers/{orderId}/accept.
func (s *Server) AcceptOffer(ctx echo.Context, courierId servers.CourierId, orderId servers.OrderId) error {
	return s.settleOffer(ctx, courierId, orderId, true)
}

// RejectOffer handles POST /api/v1/couriers/{courierId}/offers/{orderId}/reject.
func (s *Server) RejectOffer(ctx echo.Context, courierId servers.CourierId, orderId servers.OrderId) error {
	return s.settleOffer(ctx, courierId, orderId, false)
}

func (s *Server) settleOffer(ctx echo.Context, courierId servers.CourierId, orderId servers.OrderId, accept bool) error {
	courierID, err := kernel.UUIDFromBytes(courierId[:])
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}
	orderID, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	cmd, err := commands.NewSettleOfferCommand(courierID, orderID, accept)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.handlers.SettleOffer.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to record the answer")
	}

	return ctx.NoContent(http.StatusAccepted)
}

// GetDispatchStatus handles GET /api/v1/dispatch/status.
func (s *Server) GetDispatchStatus(ctx echo.Context) error {
	result, err := s.handlers.GetDispatchStatus.Handle(ctx.Request().Context(), queries.NewGetDispatchStatusQuery())
	if err != nil {
		return s.fail(ctx, err, "Failed to read dispatch status")
	}

	return ctx.JSON(http.StatusOK, servers.DispatchStatus{
		Pending:  result.Pending,
		Locked:   result.Locked,
		Cooldown: result.Cooldown,
		Timers:   result.Timers,
		Cursor:   result.Cursor,
		At:       s.clock.Now().UTC(),
	})
}

// CreateOrder handles POST /api/v1/orders - stores a new order in status created.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body servers.CreateOrderJSONRequestBody
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	orderID := kernel.NewUUID()
	if body.Id != nil {
		parsed, err := kernel.UUIDFromBytes(body.Id[:])
		if err != nil {
			return badRequest(ctx, "Invalid order id")
		}
		orderID = parsed
	}

	storeID, err := kernel.UUIDFromBytes(body.StoreId[:])
	if err != nil {
		return badRequest(ctx, "Invalid store id")
	}

	var extra map[string]string
	if body.Extra != nil {
		extra = *body.Extra
	}
	payload, err := order.NewPayload(deref(body.CustomerName), body.Address, extra)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	cmd, err := commands.NewCreateOrderCommand(orderID, storeID, payload)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	if err = s.handlers.CreateOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to create order")
	}

	return ctx.JSON(http.StatusCreated, servers.Created{Id: orderID.Bytes()})
}

// GetActiveOrders handles GET /api/v1/orders/active.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	orders, err := s.handlers.GetActiveOrders.Handle(ctx.Request().Context(), queries.NewGetActiveOrdersQuery())
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve orders")
	}

	response := make([]servers.Order, len(orders))
	for i, o := range orders {
		response[i] = servers.Order{
			Id:                 o.ID.Bytes(),
			StoreId:            o.StoreID.Bytes(),
			Status:             o.Status,
			AssignmentAttempts: o.AssignmentAttempts,
		}
		if o.CourierID != nil {
			courierID := o.CourierID.Bytes()
			response[i].CourierId = &courierID
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetRemainingTime handles GET /api/v1/orders/{orderId}/remaining-time.
func (s *Server) GetRemainingTime(ctx echo.Context, orderId servers.OrderId) error {
	orderID, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	query, err := queries.NewGetRemainingTimeQuery(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := s.handlers.GetRemainingTime.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err, "Failed to compute remaining time")
	}

	return ctx.JSON(http.StatusOK, servers.RemainingTime{SecondsRemaining: result.SecondsRemaining})
}

// RequestCourier handles POST /api/v1/orders/{orderId}/request-courier.
func (s *Server) RequestCourier(ctx echo.Context, orderId servers.OrderId) error {
	orderID, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	cmd, err := commands.NewRequestCourierCommand(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err = s.handlers.RequestCourier.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to request a courier")
	}

	return ctx.NoContent(http.StatusAccepted)
}

// fail maps use case errors to status codes: not found is 404, validation is 400,
// anything else is logged and reported as 500 with the generic message.
func (s *Server) fail(ctx echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, servers.Error{Code: http.StatusNotFound, Message: err.Error()})
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return badRequest(ctx, err.Error())
	}

	s.logger.ErrorContext(ctx.Request().Context(), message,
		"method", ctx.Request().Method,
		"path", ctx.Path(),
		"error", err,
	)
	return ctx.JSON(http.StatusInternalServerError, servers.Error{Code: http.StatusInternalServerError, Message: message})
}

// handleError renders errors that escape the handlers, such as malformed path
// parameters or unknown routes, with the API's error body.
func (s *Server) handleError(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	code, message := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		message = fmt.Sprint(httpErr.Message)
	} else {
		s.logger.ErrorContext(ctx.Request().Context(), "Unhandled error",
			"method", ctx.Request().Method,
			"path", ctx.Path(),
			"error", err,
		)
	}

	if ctx.Request().Method == http.MethodHead {
		err = ctx.NoContent(code)
	} else {
		err = ctx.JSON(code, servers.Error{Code: code, Message: message})
	}
	if err != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "Failed to write error response", "error", err)
	}
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, servers.Error{Code: http.StatusBadRequest, Message: message})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
