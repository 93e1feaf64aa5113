// Package testutil provides shared fixtures for SalesHub tests: an in-memory
// database with the full schema, a seeded dealership, event recorders and
// HTTP helpers.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestPassword satisfies the password policy for every seeded user.
const TestPassword = "Password123"

// NewSQLiteDB opens an isolated in-memory SQLite database with every table.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard, TranslateError: true})
	require.NoError(t, err, "Failed to open sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate sqlite schema")
	require.NoError(t, models.ApplyIndexes(db), "Failed to create sqlite indexes")
	return db
}

// MockDB wraps a GORM postgres dialector over sqlmock.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a sqlmock-backed database closed on test cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err, "Failed to open GORM connection")
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: sqlDB}
}

// ExpectationsWereMet fails the test on unmet sqlmock expectations.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// Dealership is one seeded tenant plus repositories over the same database.
type Dealership struct {
	DB      *gorm.DB
	Tenant  *identity.Tenant
	Tenants *persistence.GormTenantRepository
	Users   *persistence.GormUserRepository
}

// NewDealership seeds a tenant with the given code in db.
func NewDealership(t *testing.T, db *gorm.DB, code string) *Dealership {
	t.Helper()
	tenant, err := identity.NewTenant(code, code+" Trailers")
	require.NoError(t, err)
	d := &Dealership{
		DB:      db,
		Tenant:  tenant,
		Tenants: persistence.NewGormTenantRepository(db),
		Users:   persistence.NewGormUserRepository(db),
	}
	require.NoError(t, d.Tenants.Save(context.Background(), tenant))
	return d
}

// TenantID is a shorthand for d.Tenant.ID.
func (d *Dealership) TenantID() uuid.UUID {
	return d.Tenant.ID
}

// AddUser creates and saves an active user. manager may be nil.
func (d *Dealership) AddUser(t *testing.T, email string, role identity.Role, manager *identity.User) *identity.User {
	t.Helper()
	u, err := identity.NewUser(d.Tenant.ID, email, NameFromEmail(email), TestPassword, role)
	require.NoError(t, err)
	if manager != nil {
		require.NoError(t, u.AssignManager(manager))
	}
	u.ClearDomainEvents()
	require.NoError(t, d.Users.Save(context.Background(), u))
	return u
}

// NameFromEmail turns "jamie.rep@x" into "jamie.rep" for display names.
func NameFromEmail(email string) string {
	for i := range email {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}

// NewTestUUID returns a deterministic UUID derived from seed.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}
