package http

import (
	"context"
	"fmt"

	paymentUsecases "github.com/orris-inc/tenantbilling/internal/application/payment/usecases"
	planUsecases "github.com/orris-inc/tenantbilling/internal/application/plan/usecases"
	subUsecases "github.com/orris-inc/tenantbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/tenantbilling/internal/domain/entitlement"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/auditlog"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/auth"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/cache"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/payment/paystack"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/pubsub"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/ratelimit"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/repository"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/scheduler"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/handlers"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/middleware"
	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	"github.com/orris-inc/tenantbilling/internal/shared/db"
)

const memoryLimiterKeys = 16384

func (c *Container) initInfrastructure() {
	log := c.log

	c.subscriptionRepo = repository.NewSubscriptionRepository(c.db, log.Named("repository.subscription"))
	c.planPriceRepo = repository.NewPlanPriceRepository(c.db, log.Named("repository.plan_price"))
	c.auditLogRepo = repository.NewAuditLogRepository(c.db, log.Named("repository.audit"))

	c.snapshots = cache.NewSubscriptionSnapshotCache(0, 0)
	c.auditSink = auditlog.NewRecorder(auditlog.MultiSink{
		auditlog.NewLogSink(log.Named("audit")),
		c.auditLogRepo,
	}, log)

	var limiter ratelimit.Limiter
	if c.redis != nil {
		c.priceCache = cache.NewRedisPlanPriceCache(c.redis, log.Named("cache.plan_price"))
		c.eventBus = pubsub.NewRedisSubscriptionEventBus(c.redis, log.Named("pubsub.subscription"))
		limiter = ratelimit.NewRedisLimiter(c.redis, c.cfg.RateLimit.Requests, c.cfg.RateLimit.Window)
	} else {
		log.Infow("redis disabled, using per-process caches and rate limits")
		limiter = ratelimit.NewMemoryLimiter(c.cfg.RateLimit.Requests, c.cfg.RateLimit.Window, memoryLimiterKeys)
	}

	c.authMiddleware = middleware.NewAuthMiddleware(
		auth.NewJWTService(c.cfg.Auth.JWT.Secret, c.cfg.Auth.JWT.Issuer),
		log.Named("middleware.auth"),
	)
	c.sweepSecretMiddleware = middleware.NewSweepSecretMiddleware(c.cfg.Sweeper.Secret, log.Named("middleware.internal"))
	if c.cfg.RateLimit.Enabled {
		c.rateLimiter = middleware.NewRateLimiter(limiter, log.Named("middleware.ratelimit"))
	}
}

func (c *Container) mutatorDeps() subUsecases.MutatorDeps {
	deps := subUsecases.MutatorDeps{
		Store:     c.subscriptionRepo,
		Snapshots: c.snapshots,
		Clock:     biztime.SystemClock{},
		Logger:    c.log.Named("subscription"),
	}
	if c.eventBus != nil {
		deps.Notifier = c.eventBus
	}
	return deps
}

func (c *Container) initUseCases() error {
	cfg := c.cfg
	deps := c.mutatorDeps()
	evaluator := entitlement.NewEvaluator(c.catalog, cfg.Billing.Production)
	clock := biztime.SystemClock{}

	sink := c.auditSink

	gateway := paystack.NewClient(cfg.Payment, c.log.Named("paystack"))
	parser := paystack.NewWebhookParser(cfg.Payment.Paystack.SecretKey, cfg.Billing.BillingPeriodDays)

	recordPayment := subUsecases.NewRecordPaymentEventUseCase(deps, c.catalog, cfg.Billing.MaxChargeFailures)
	listPlans := planUsecases.NewListPlansUseCase(c.catalog, c.planPriceRepo, c.priceCache, cfg.Billing.Currency, c.log.Named("plan"))

	c.ucs = &allUseCases{
		provision:       subUsecases.NewProvisionSubscriptionUseCase(deps, c.catalog, cfg.Billing.TrialLength(), sink),
		changePlan:      subUsecases.NewChangePlanUseCase(deps, c.catalog, sink),
		cancelDowngrade: subUsecases.NewCancelScheduledDowngradeUseCase(deps, sink),
		cancel:          subUsecases.NewCancelSubscriptionUseCase(deps, gateway, cfg.Payment.Timeout, sink),
		reactivate:      subUsecases.NewReactivateSubscriptionUseCase(deps, sink),
		recordPayment:   recordPayment,
		status:          subUsecases.NewGetSubscriptionStatusUseCase(c.subscriptionRepo, evaluator, clock, c.log.Named("subscription")),
		entitlement:     subUsecases.NewCheckEntitlementUseCase(c.subscriptionRepo, c.snapshots, evaluator, clock, c.log.Named("entitlement")),
		sweep:           subUsecases.NewSweepDueUseCase(deps, c.subscriptionRepo, cfg.Sweeper.Concurrency, 0),
		listPlans:       listPlans,
		planPrice:       planUsecases.NewPlanPriceUseCase(c.catalog, c.planPriceRepo, c.priceCache, sink, db.NewTransactionManager(c.db), clock, c.log.Named("plan")),
		checkout:        paymentUsecases.NewInitializeCheckoutUseCase(c.subscriptionRepo, listPlans, gateway, cfg.Billing.Currency, c.log.Named("checkout")),
		ingestWebhook:   paymentUsecases.NewIngestWebhookUseCase(parser, c.subscriptionRepo, recordPayment, sink, clock, c.log.Named("webhook")),
	}

	if cfg.Payment.Paystack.SecretKey == "" {
		c.log.Warnw("paystack secret key not configured; webhooks will be rejected and provider calls will fail")
	}
	return nil
}

func (c *Container) initHandlers() {
	log := c.log.Named("http")

	checks := map[string]handlers.Pinger{
		"database": handlers.PingerFunc(func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if c.redis != nil {
		checks["redis"] = handlers.PingerFunc(func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		})
	}

	c.entitlementMiddleware = middleware.NewEntitlementMiddleware(c.ucs.entitlement, log)
	c.hdlrs = &allHandlers{
		subscription: handlers.NewSubscriptionHandler(
			c.ucs.status,
			c.ucs.changePlan,
			c.ucs.cancelDowngrade,
			c.ucs.cancel,
			c.ucs.reactivate,
			c.ucs.checkout,
			c.ucs.entitlement,
			log,
		),
		plan:     handlers.NewPlanHandler(c.ucs.listPlans, c.ucs.planPrice, log),
		webhook:  handlers.NewWebhookHandler(c.ucs.ingestWebhook, log),
		internal: handlers.NewInternalHandler(c.ucs.sweep, c.ucs.provision, c.cfg.Sweeper.Timeout, log),
		health:   handlers.NewHealthHandler(checks),
	}
}

func (c *Container) initScheduler() error {
	if !c.cfg.Sweeper.InProcess {
		return nil
	}

	mgr, err := scheduler.NewSchedulerManager(c.log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	sweep := func(ctx context.Context) (scheduler.SweepStats, error) {
		result, err := c.ucs.sweep.Execute(ctx)
		if err != nil {
			return scheduler.SweepStats{}, err
		}
		return scheduler.SweepStats{
			Processed: result.Processed,
			Skipped:   result.Skipped,
			Failed:    result.Failed,
		}, nil
	}
	if err := mgr.RegisterSweepJob(sweep, c.cfg.Sweeper.Interval, c.cfg.Sweeper.Timeout); err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}

	c.schedulerManager = mgr
	return nil
}
