package handler

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remotive/saleshub/internal/application/access"
	crmapp "github.com/remotive/saleshub/internal/application/crm"
	financeapp "github.com/remotive/saleshub/internal/application/finance"
	identityapp "github.com/remotive/saleshub/internal/application/identity"
	inventoryapp "github.com/remotive/saleshub/internal/application/inventory"
	messagingapp "github.com/remotive/saleshub/internal/application/messaging"
	onboardingapp "github.com/remotive/saleshub/internal/application/onboarding"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/messaging"
	"github.com/remotive/saleshub/internal/infrastructure/auth"
	"github.com/remotive/saleshub/internal/infrastructure/cache"
	"github.com/remotive/saleshub/internal/infrastructure/config"
	"github.com/remotive/saleshub/internal/infrastructure/notify"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/internal/interfaces/http/middleware"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// apiFixture is one dealership with an owner, a manager with one rep and a
// rep outside that team, plus handlers over the same SQLite database.
type apiFixture struct {
	d         *testutil.Dealership
	customers *persistence.GormCustomerRepository
	sender    *notify.MemorySender
	jwt       *auth.JWTService
	inboundSv *crmapp.InboundService

	authH       *AuthHandler
	userH       *UserHandler
	tenantH     *TenantHandler
	customerH   *CustomerHandler
	inboundH    *InboundHandler
	unitH       *UnitHandler
	financeH    *FinanceHandler
	onboardingH *OnboardingHandler

	owner   *identity.User
	manager *identity.User
	rep     *identity.User
	other   *identity.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	d := testutil.NewDealership(t, db, "PRAIRIE")
	events := testutil.NewRecordingPublisher()
	log := zap.NewNop()

	f := &apiFixture{
		d:         d,
		customers: persistence.NewGormCustomerRepository(db),
		sender:    notify.NewMemorySender(),
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "handler-test-secret-long-enough-for-hs256",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "saleshub-test",
			MaxRefreshCount:        3,
		}),
	}
	f.owner = d.AddUser(t, "olive@prairie.test", identity.RoleOwner, nil)
	f.manager = d.AddUser(t, "max@prairie.test", identity.RoleManager, nil)
	f.rep = d.AddUser(t, "sam@prairie.test", identity.RoleSalesperson, f.manager)
	f.other = d.AddUser(t, "ola@prairie.test", identity.RoleSalesperson, nil)

	activities := persistence.NewGormActivityRepository(db)
	blacklist := auth.NewInMemoryTokenBlacklist()
	throttle := cache.NewInMemoryLoginThrottle(cache.ThrottleConfig{MaxAttempts: 3, Window: time.Minute})
	assigner := crmapp.NewAssigner(d.Users, cache.NewInMemoryRoundRobin(), log)
	renderer, err := messaging.NewRenderer()
	require.NoError(t, err)

	customerSvc := crmapp.NewCustomerService(f.customers, activities, d.Users, assigner, events, 100, log)
	f.inboundSv = crmapp.NewInboundService(d.Tenants, f.customers, activities, d.Users, assigner, events, log)
	messageSvc := messagingapp.NewMessageService(persistence.NewGormMessageRepository(db),
		f.customers, activities, d.Users, d.Tenants, renderer, f.sender, events, log)

	f.authH = NewAuthHandler(identityapp.NewAuthService(d.Tenants, d.Users, f.jwt, blacklist, throttle, log))
	f.userH = NewUserHandler(identityapp.NewUserService(d.Users, blacklist, time.Hour, events, log))
	f.tenantH = NewTenantHandler(identityapp.NewTenantService(d.Tenants, d.Users, identity.DefaultDealershipSettings(), events, log))
	f.customerH = NewCustomerHandler(customerSvc, messageSvc)
	f.inboundH = NewInboundHandler(f.inboundSv)
	f.unitH = NewUnitHandler(inventoryapp.NewUnitService(persistence.NewGormUnitRepository(db), d.Tenants, f.customers, d.Users, log))
	f.financeH = NewFinanceHandler(financeapp.NewCalculatorService(d.Tenants, log))
	f.onboardingH = NewOnboardingHandler(onboardingapp.NewChecklistService(persistence.NewGormChecklistRepository(db), d.Users, log))
	return f
}

func (f *apiFixture) as(u *identity.User) access.Caller {
	return access.Caller{TenantID: f.d.TenantID(), UserID: u.ID, Role: u.Role}
}

// engine mounts the handlers under test. A non-nil caller is injected as
// the authenticated user, standing in for the JWT middleware.
func (f *apiFixture) engine(caller *access.Caller) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if caller != nil {
		r.Use(func(c *gin.Context) {
			middleware.SetCaller(c, *caller)
			c.Next()
		})
	}
	api := r.Group("/api/v1")

	api.POST("/auth/login", f.authH.Login)
	api.GET("/auth/me", f.authH.Me)

	api.GET("/users", f.userH.List)
	api.POST("/users", f.userH.Create)
	api.PATCH("/users/:id", f.userH.Update)

	api.POST("/tenant/inbound-key", f.tenantH.RotateInboundKey)
	api.POST("/leads/inbound", middleware.InboundAPIKey(f.inboundSv, zap.NewNop()), f.inboundH.Receive)

	api.GET("/crm/customers", f.customerH.List)
	api.POST("/crm/customers", f.customerH.Create)
	api.GET("/crm/customers/export", f.customerH.Export)
	api.POST("/crm/customers/import", f.customerH.Import)
	api.GET("/crm/customers/:id", f.customerH.Get)
	api.PUT("/crm/customers/:id/stage", f.customerH.ChangeStage)
	api.DELETE("/crm/customers/:id", f.customerH.Delete)
	api.POST("/crm/customers/:id/messages", f.customerH.SendMessage)
	api.GET("/crm/pipeline", f.customerH.Pipeline)

	api.POST("/inventory/units", f.unitH.Create)
	api.POST("/inventory/price-preview", f.unitH.PricePreview)
	api.GET("/inventory/summary", f.unitH.Summary)

	api.POST("/finance/calculate", f.financeH.Calculate)

	api.GET("/onboarding/me", f.onboardingH.Mine)
	api.POST("/onboarding/me/steps/:step", f.onboardingH.CompleteStep)
	api.GET("/onboarding/team", f.onboardingH.TeamProgress)
	return r
}

func (f *apiFixture) engineAs(u *identity.User) *gin.Engine {
	caller := f.as(u)
	return f.engine(&caller)
}

// seed stores a customer assigned to rep.
func (f *apiFixture) seed(t *testing.T, name, email, phone string, rep *identity.User) *crm.Customer {
	t.Helper()
	c, err := crm.NewCustomer(f.d.TenantID(), name, email, phone, crm.SourceWebsite)
	require.NoError(t, err)
	require.NoError(t, c.AssignTo(rep.ID, rep.ManagerID, nil))
	c.ClearDomainEvents()
	require.NoError(t, f.customers.Save(context.Background(), c))
	return c
}
