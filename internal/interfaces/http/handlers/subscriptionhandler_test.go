package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	paymentUsecases "github.com/orris-inc/tenantbilling/internal/application/payment/usecases"
	subdto "github.com/orris-inc/tenantbilling/internal/application/subscription/dto"
	"github.com/orris-inc/tenantbilling/internal/application/subscription/usecases"
	"github.com/orris-inc/tenantbilling/internal/domain/plan"
	"github.com/orris-inc/tenantbilling/internal/domain/subscription"
	"github.com/orris-inc/tenantbilling/internal/interfaces/http/handlers/testutil"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
	apperrors "github.com/orris-inc/tenantbilling/internal/shared/errors"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockStatusUC struct {
	result *subdto.StatusDTO
	err    error
	query  usecases.GetSubscriptionStatusQuery
}

func (m *mockStatusUC) Execute(ctx context.Context, query usecases.GetSubscriptionStatusQuery) (*subdto.StatusDTO, error) {
	m.query = query
	return m.result, m.err
}

type mockChangePlanUC struct {
	result *subdto.PlanChangeDTO
	err    error
	cmd    usecases.ChangePlanCommand
}

func (m *mockChangePlanUC) Execute(ctx context.Context, cmd usecases.ChangePlanCommand) (*subdto.PlanChangeDTO, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockCancelDowngradeUC struct {
	err error
}

func (m *mockCancelDowngradeUC) Execute(ctx context.Context, cmd usecases.CancelScheduledDowngradeCommand) (*subdto.SubscriptionDTO, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &subdto.SubscriptionDTO{TenantID: cmd.TenantID}, nil
}

type mockCancelUC struct {
	result *subdto.CancelDTO
	err    error
	cmd    usecases.CancelSubscriptionCommand
}

func (m *mockCancelUC) Execute(ctx context.Context, cmd usecases.CancelSubscriptionCommand) (*subdto.CancelDTO, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockReactivateUC struct {
	err error
}

func (m *mockReactivateUC) Execute(ctx context.Context, cmd usecases.ReactivateSubscriptionCommand) (*subdto.ReactivateDTO, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &subdto.ReactivateDTO{Subscription: &subdto.SubscriptionDTO{TenantID: cmd.TenantID}, KeptPlan: true}, nil
}

type mockCheckoutUC struct {
	err error
	cmd paymentUsecases.InitializeCheckoutCommand
}

func (m *mockCheckoutUC) Execute(ctx context.Context, cmd paymentUsecases.InitializeCheckoutCommand) (*paymentUsecases.CheckoutDTO, error) {
	m.cmd = cmd
	if m.err != nil {
		return nil, m.err
	}
	return &paymentUsecases.CheckoutDTO{AuthorizationURL: "https://checkout.test/x", Reference: "pay_x"}, nil
}

type mockEntitlementUC struct {
	allowed    bool
	staffQuery usecases.CheckStaffQuery
	feature    usecases.CheckFeatureQuery
}

func (m *mockEntitlementUC) CheckFeature(ctx context.Context, query usecases.CheckFeatureQuery) (*subdto.FeatureDecisionDTO, error) {
	m.feature = query
	return &subdto.FeatureDecisionDTO{Feature: string(query.Feature), Allowed: m.allowed, EffectivePlan: "professional"}, nil
}

func (m *mockEntitlementUC) CheckStaff(ctx context.Context, query usecases.CheckStaffQuery) (*subdto.StaffDecisionDTO, error) {
	m.staffQuery = query
	return &subdto.StaffDecisionDTO{CurrentCount: query.CurrentCount, Allowed: m.allowed, MaxStaff: "50"}, nil
}

type subscriptionMocks struct {
	status      *mockStatusUC
	changePlan  *mockChangePlanUC
	downgrade   *mockCancelDowngradeUC
	cancel      *mockCancelUC
	reactivate  *mockReactivateUC
	checkout    *mockCheckoutUC
	entitlement *mockEntitlementUC
}

func newTestSubscriptionHandler() (*SubscriptionHandler, *subscriptionMocks) {
	m := &subscriptionMocks{
		status:      &mockStatusUC{},
		changePlan:  &mockChangePlanUC{},
		downgrade:   &mockCancelDowngradeUC{},
		cancel:      &mockCancelUC{},
		reactivate:  &mockReactivateUC{},
		checkout:    &mockCheckoutUC{},
		entitlement: &mockEntitlementUC{},
	}
	h := NewSubscriptionHandler(m.status, m.changePlan, m.downgrade, m.cancel, m.reactivate, m.checkout, m.entitlement, logger.NewNop())
	return h, m
}

// =====================================================================
// Tests
// =====================================================================

func TestSubscriptionHandler_GetStatus_UsesTokenTenant(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()
	mocks.status.result = &subdto.StatusDTO{
		SubscriptionDTO: subdto.SubscriptionDTO{TenantID: "tenant_1", Plan: "starter", Status: "trialing", IsTrialActive: true},
		IsActive:        true,
	}

	c, w := testutil.NewTestContext(http.MethodGet, "/subscription?tenant_id=someone_else", nil)
	testutil.SetTenantContext(c, "tenant_1", constants.RoleMember, "user_1")

	handler.GetStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tenant_1", mocks.status.query.TenantID)

	var status map[string]any
	resp := testutil.DecodeData(t, w, &status)
	assert.True(t, resp.Success)
	assert.Equal(t, true, status["is_trial_active"])
	assert.Equal(t, "trialing", status["status"])
}

func TestSubscriptionHandler_GetStatus_NotFound(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()
	mocks.status.err = apperrors.NewNotFoundError("subscription not found").WithCause(subscription.ErrSubscriptionNotFound)

	c, w := testutil.NewTestContext(http.MethodGet, "/subscription", nil)
	testutil.SetTenantContext(c, "tenant_1", constants.RoleMember, "user_1")

	handler.GetStatus(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := testutil.Envelope(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "not_found", resp.Error.Type)
}

func TestSubscriptionHandler_ChangePlan(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()
	mocks.changePlan.result = &subdto.PlanChangeDTO{Outcome: "downgrade_scheduled"}

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/plan", ChangePlanRequest{Plan: "starter"})
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "user_7")

	handler.ChangePlan(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, plan.Starter, mocks.changePlan.cmd.TargetPlan)
	assert.Equal(t, "tenant_1", mocks.changePlan.cmd.TenantID)
	assert.Equal(t, "user_7", mocks.changePlan.cmd.Actor)
}

func TestSubscriptionHandler_ChangePlan_InvalidPlan(t *testing.T) {
	handler, _ := newTestSubscriptionHandler()

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/plan", map[string]string{"plan": "gold"})
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "user_7")

	handler.ChangePlan(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := testutil.Envelope(t, w)
	assert.Equal(t, "validation_error", resp.Error.Type)
}

func TestSubscriptionHandler_ChangePlan_Conflict(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()
	mocks.changePlan.err = apperrors.NewConflictError("subscription was modified concurrently")

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/plan", ChangePlanRequest{Plan: "enterprise"})
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "user_7")

	handler.ChangePlan(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubscriptionHandler_Cancel_OptionalBody(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()
	mocks.cancel.result = &subdto.CancelDTO{ProviderCancelled: false}

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/cancel", nil)
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "")

	handler.Cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tenant:tenant_1", mocks.cancel.cmd.Actor)

	c, w = testutil.NewTestContext(http.MethodPost, "/subscription/cancel", CancelSubscriptionRequest{Reason: "too expensive"})
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "user_1")

	handler.Cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "too expensive", mocks.cancel.cmd.Reason)
}

func TestSubscriptionHandler_CancelScheduledDowngrade_NothingScheduled(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()
	mocks.downgrade.err = apperrors.NewBadRequestError("no scheduled downgrade")

	c, w := testutil.NewTestContext(http.MethodDelete, "/subscription/scheduled-downgrade", nil)
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "user_1")

	handler.CancelScheduledDowngrade(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionHandler_Reactivate(t *testing.T) {
	handler, _ := newTestSubscriptionHandler()

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/reactivate", nil)
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "user_1")

	handler.Reactivate(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscriptionHandler_Checkout(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/checkout", CheckoutRequest{Plan: "professional", Email: "owner@acme.test"})
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "user_1")

	handler.Checkout(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, plan.Professional, mocks.checkout.cmd.TargetPlan)
	assert.Equal(t, "owner@acme.test", mocks.checkout.cmd.Email)

	c, w = testutil.NewTestContext(http.MethodPost, "/subscription/checkout", CheckoutRequest{Plan: "starter", Email: "owner@acme.test"})
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "user_1")
	handler.Checkout(c)
	assert.Equal(t, http.StatusBadRequest, w.Code, "starter is free")
}

func TestSubscriptionHandler_Checkout_ProviderDown(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()
	mocks.checkout.err = apperrors.NewExternalServiceError("payment provider unavailable")

	c, w := testutil.NewTestContext(http.MethodPost, "/subscription/checkout", CheckoutRequest{Plan: "enterprise", Email: "owner@acme.test"})
	testutil.SetTenantContext(c, "tenant_1", constants.RoleOwner, "user_1")

	handler.Checkout(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSubscriptionHandler_CheckFeature(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()
	mocks.entitlement.allowed = true

	c, w := testutil.NewTestContext(http.MethodGet, "/subscription/entitlements/features/reports", nil)
	testutil.SetTenantContext(c, "tenant_1", constants.RoleMember, "user_1")
	testutil.SetURLParam(c, "feature", "reports")
	c.Request.Header.Set(constants.HeaderDevOverride, "true")

	handler.CheckFeature(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, plan.Feature("reports"), mocks.entitlement.feature.Feature)
	assert.True(t, mocks.entitlement.feature.DevOverride)
}

func TestSubscriptionHandler_CheckStaff(t *testing.T) {
	handler, mocks := newTestSubscriptionHandler()

	c, w := testutil.NewTestContext(http.MethodGet, "/subscription/entitlements/staff", nil)
	testutil.SetTenantContext(c, "tenant_1", constants.RoleMember, "user_1")
	testutil.SetQueryParams(c, map[string]string{"current": "12"})

	handler.CheckStaff(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12, mocks.entitlement.staffQuery.CurrentCount)

	c, w = testutil.NewTestContext(http.MethodGet, "/subscription/entitlements/staff", nil)
	testutil.SetTenantContext(c, "tenant_1", constants.RoleMember, "user_1")
	testutil.SetQueryParams(c, map[string]string{"current": "many"})

	handler.CheckStaff(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
