package http

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	paymentUsecases "github.com/orris-inc/tenantbilling/internal/application/payment/usecases"
	planUsecases "github.com/orris-inc/tenantbilling/internal/application/plan/usecases"
	subUsecases "github.com/orris-inc/tenantbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/tenantbilling/internal/domain/audit"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/cache"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/config"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/pubsub"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/repository"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/scheduler"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/handlers"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/middleware"
	"github.com/orris-inc/tenantbilling/internal/shared/goroutine"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// Container holds the infrastructure, use cases, handlers and background
// services of one process. It wires everything together and provides
// Shutdown for graceful termination.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	catalog *plan.Catalog

	// Repositories
	subscriptionRepo *repository.SubscriptionRepositoryImpl
	planPriceRepo    *repository.PlanPriceRepositoryImpl
	auditLogRepo     *repository.AuditLogRepository

	// Caches and messaging
	snapshots  *cache.SubscriptionSnapshotCache
	priceCache planUsecases.PriceCache
	eventBus   *pubsub.RedisSubscriptionEventBus
	auditSink  audit.Sink

	// Use cases
	ucs *allUseCases

	// Handlers
	hdlrs *allHandlers

	// Middlewares
	authMiddleware        *middleware.AuthMiddleware
	sweepSecretMiddleware *middleware.SweepSecretMiddleware
	entitlementMiddleware *middleware.EntitlementMiddleware
	rateLimiter           *middleware.RateLimiter

	// Background services
	schedulerManager *scheduler.SchedulerManager
	eventBusCancel   context.CancelFunc
	eventBusDone     <-chan struct{}
	lifecycleMu      sync.Mutex
}

type allUseCases struct {
	provision       *subUsecases.ProvisionSubscriptionUseCase
	changePlan      *subUsecases.ChangePlanUseCase
	cancelDowngrade *subUsecases.CancelScheduledDowngradeUseCase
	cancel          *subUsecases.CancelSubscriptionUseCase
	reactivate      *subUsecases.ReactivateSubscriptionUseCase
	recordPayment   *subUsecases.RecordPaymentEventUseCase
	status          *subUsecases.GetSubscriptionStatusUseCase
	entitlement     *subUsecases.CheckEntitlementUseCase
	sweep           *subUsecases.SweepDueUseCase
	listPlans       *planUsecases.ListPlansUseCase
	planPrice       *planUsecases.PlanPriceUseCase
	checkout        *paymentUsecases.InitializeCheckoutUseCase
	ingestWebhook   *paymentUsecases.IngestWebhookUseCase
}

type allHandlers struct {
	subscription *handlers.SubscriptionHandler
	plan         *handlers.PlanHandler
	webhook      *handlers.WebhookHandler
	internal     *handlers.InternalHandler
	health       *handlers.HealthHandler
}

// NewContainer wires the process. redisClient may be nil when redis is
// disabled; shared caches and cross-instance events are then skipped.
func NewContainer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("container requires config and database")
	}

	c := &Container{
		engine:  gin.New(),
		db:      db,
		cfg:     cfg,
		log:     log,
		redis:   redisClient,
		catalog: plan.Default(),
	}

	c.initInfrastructure()
	if err := c.initUseCases(); err != nil {
		return nil, err
	}
	c.initHandlers()
	if err := c.initScheduler(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// SweepUseCase is exposed for the one-shot sweep command.
func (c *Container) SweepUseCase() *subUsecases.SweepDueUseCase {
	return c.ucs.sweep
}

// EntitlementMiddleware gates routes of co-hosted services by plan feature.
func (c *Container) EntitlementMiddleware() *middleware.EntitlementMiddleware {
	return c.entitlementMiddleware
}

// Start launches background services: the cross-instance snapshot
// invalidation listener and, when configured, the in-process sweep.
func (c *Container) Start() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.eventBus != nil && c.eventBusCancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		c.eventBusCancel = cancel
		c.eventBusDone = goroutine.Go(c.log, "subscription-event-listener", func() {
			if err := c.eventBus.Subscribe(ctx, c.onRemoteChange); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Warnw("subscription event listener stopped", "error", err)
			}
		})
	}

	if c.schedulerManager != nil {
		c.schedulerManager.Start()
	}
}

// onRemoteChange drops the local snapshot when another instance wrote the
// tenant's subscription.
func (c *Container) onRemoteChange(_ context.Context, event pubsub.SubscriptionChangeEvent) {
	if event.InstanceID == c.eventBus.InstanceID() {
		return
	}
	c.snapshots.Remove(event.TenantID)
	c.log.Debugw("subscription snapshot invalidated by peer",
		"tenant_id", event.TenantID,
		"change", event.Change,
		"peer", event.InstanceID,
	)
}

// Shutdown stops background services. The HTTP server, database and redis
// client are owned and closed by the caller.
func (c *Container) Shutdown() error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	var errs []error
	if c.schedulerManager != nil {
		if err := c.schedulerManager.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
		}
	}
	if c.eventBusCancel != nil {
		c.eventBusCancel()
		<-c.eventBusDone
		c.eventBusCancel = nil
	}
	return errors.Join(errs...)
}
