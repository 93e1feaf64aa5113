package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory SQLite database with every table.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	require.NoError(t, models.ApplyIndexes(db))
	return db
}

func saveUser(t *testing.T, repo *GormUserRepository, tenantID uuid.UUID, email string, role identity.Role, manager *identity.User) *identity.User {
	t.Helper()
	u, err := identity.NewUser(tenantID, email, email, "Passw0rd!", role)
	require.NoError(t, err)
	if manager != nil {
		require.NoError(t, u.AssignManager(manager))
	}
	require.NoError(t, repo.Save(context.Background(), u))
	return u
}

func saveCustomer(t *testing.T, repo *GormCustomerRepository, tenantID uuid.UUID, name, email, phone string, rep *identity.User) *crm.Customer {
	t.Helper()
	c, err := crm.NewCustomer(tenantID, name, email, phone, crm.SourceWebsite)
	require.NoError(t, err)
	if rep != nil {
		require.NoError(t, c.AssignTo(rep.ID, rep.ManagerID, nil))
	}
	require.NoError(t, repo.Save(context.Background(), c))
	return c
}
