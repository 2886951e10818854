package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType       = "Content-Type"
	HeaderAuthorization     = "Authorization"
	HeaderXRequestID        = "X-Request-ID"
	HeaderCronSecret        = "X-Cron-Secret"
	HeaderPaystackSignature = "X-Paystack-Signature"
	HeaderDevOverride       = "X-Billing-Dev-Override"

	ContentTypeJSON = "application/json"

	// Context keys
	ContextKeyTenantID  = "tenant_id"
	ContextKeyRole      = "role"
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"

	// Roles carried in tenant tokens
	RoleOwner  = "owner"
	RoleMember = "member"

	// Database table names
	TableSubscriptions   = "subscriptions"
	TablePlanPrices      = "plan_price_overrides"
	TableBillingAuditLog = "billing_audit_log"

	// Redis keys and channels
	RedisKeyResolvedPrices   = "billing:plan_prices"
	RedisChannelSubscription = "billing:subscription:change"
	RedisKeyRateLimitPrefix  = "billing:ratelimit"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
)
