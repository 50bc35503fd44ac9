package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/in/pgnotify"
	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// CompositionRoot owns the long-lived collaborators of the service and builds the
// handlers around them.
type CompositionRoot struct {
	cfg         Config
	gormDB      *gorm.DB
	uowFactory  ports.UnitOfWorkFactory
	clock       clockwork.Clock
	logger      *slog.Logger
	sender      ports.NotificationSender
	closeSender func() error
	coordinator *dispatch.Coordinator
}

// NewCompositionRoot wires the notification sender and the coordinator. Without an
// AMQP URL notifications are only logged.
func NewCompositionRoot(cfg Config, gormDB *gorm.DB, clock clockwork.Clock, logger *slog.Logger) (*CompositionRoot, error) {
	root := &CompositionRoot{
		cfg:         cfg,
		gormDB:      gormDB,
		uowFactory:  postgres.NewGormUnitOfWorkFactory(gormDB),
		clock:       clock,
		logger:      logger,
		closeSender: func() error { return nil },
	}

	if cfg.AMQPURL == "" {
		logger.Warn("AMQP_URL is not set, push notifications are only logged")
		root.sender = notify.NewLogSender(logger)
	} else {
		sender, err := notify.DialAMQPSender(cfg.AMQPURL, cfg.AMQPPushExchange, clock, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect notification sender: %w", err)
		}
		root.sender = sender
		root.closeSender = sender.Close
	}

	coordinator, err := dispatch.NewCoordinator(root.uowFactory, root.sender,
		services.NewRoundRobinSelector(), clock, cfg.Dispatch, logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create coordinator: %w", err), root.closeSender())
	}
	root.coordinator = coordinator

	return root, nil
}

// Close stops the coordinator's timers and disconnects the sender.
func (c *CompositionRoot) Close() error {
	c.coordinator.Close()
	return c.closeSender()
}

// Coordinator returns the shared dispatch coordinator.
func (c *CompositionRoot) Coordinator() *dispatch.Coordinator {
	return c.coordinator
}

// CreateFeeds returns the PostgreSQL change feeds the coordinator watches.
func (c *CompositionRoot) CreateFeeds() dispatch.Feeds {
	feeds := pgnotify.NewFeeds(c.cfg.DSN(), c.uowFactory, c.clock, c.logger)
	return dispatch.Feeds{Orders: feeds, Couriers: feeds, Offers: feeds}
}

// CreateJobManager returns the background jobs driving the coordinator.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.coordinator, c.cfg.Jobs, c.logger)
}

// CreateHTTPServer returns the HTTP server with every use case wired.
func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	createCourier := c.CreateCreateCourierCommandHandler()
	setAvailability := c.CreateSetCourierAvailabilityCommandHandler()
	createOrder := c.CreateCreateOrderCommandHandler()
	requestCourier := c.CreateRequestCourierCommandHandler()
	settleOffer := c.CreateSettleOfferCommandHandler()

	return httpin.NewServer(httpin.Handlers{
		CreateCourier:          &createCourier,
		SetCourierAvailability: &setAvailability,
		CreateOrder:            &createOrder,
		RequestCourier:         &requestCourier,
		SettleOffer:            &settleOffer,
		GetAllCouriers:         c.CreateGetAllCouriersQueryHandler(),
		GetActiveOrders:        c.CreateGetActiveOrdersQueryHandler(),
		GetRemainingTime:       c.CreateGetRemainingTimeQueryHandler(),
		GetDispatchStatus:      c.CreateGetDispatchStatusQueryHandler(),
	}, c.clock, c.logger)
}

func (c *CompositionRoot) CreateCreateCourierCommandHandler() commands.CreateCourierCommandHandler {
	var f commands.CourierUoWFactory = FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateCourierCommandHandler(f)
}

func (c *CompositionRoot) CreateSetCourierAvailabilityCommandHandler() commands.SetCourierAvailabilityCommandHandler {
	var f commands.CourierUoWFactory = FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
	return commands.NewSetCourierAvailabilityCommandHandler(f)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateRequestCourierCommandHandler() commands.RequestCourierCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRequestCourierCommandHandler(f)
}

func (c *CompositionRoot) CreateSettleOfferCommandHandler() commands.SettleOfferCommandHandler {
	var f commands.OfferUoWFactory = FuncOfferUoWFactory(func() commands.OfferUoW {
		return c.uowFactory.Create()
	})
	return commands.NewSettleOfferCommandHandler(f, c.clock)
}

func (c *CompositionRoot) CreateGetAllCouriersQueryHandler() queries.GetAllCouriersQueryHandler {
	return queries.NewGetAllCouriersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetRemainingTimeQueryHandler() queries.GetRemainingTimeQueryHandler {
	return queries.NewGetRemainingTimeQueryHandler(c.coordinator)
}

func (c *CompositionRoot) CreateGetDispatchStatusQueryHandler() queries.GetDispatchStatusQueryHandler {
	return queries.NewGetDispatchStatusQueryHandler(c.coordinator)
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncOfferUoWFactory func() commands.OfferUoW

func (f FuncOfferUoWFactory) Create() commands.OfferUoW {
	return f()
}
