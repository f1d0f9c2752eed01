package seed_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"note-board/internal/domain"
	"note-board/internal/feature/identity"
	"note-board/internal/repo"
	"note-board/internal/seed"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(identity.Models()...))
	return db
}

func TestSeeder_GormStores(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	users, roles := repo.NewUserRepo(db), repo.NewRoleRepo(db)

	s, err := seed.New(roles, users, seed.Options{Domain: "a.com"}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Run(ctx))

	admin, err := users.FindByEmail(ctx, "administrator@a.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.EmailConfirmed)
	names, err := users.RoleNames(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleAdministrators, domain.RoleUsers}, names)

	guest, err := users.FindByEmail(ctx, "guest@a.com")
	require.NoError(t, err)
	require.NotNil(t, guest)
	assert.Equal(t, "Guest", guest.UserName)
	names, err = users.RoleNames(ctx, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleGuests}, names)

	counts := func() (r, u, l int64) {
		require.NoError(t, db.Model(&identity.RoleModel{}).Count(&r).Error)
		require.NoError(t, db.Model(&identity.UserModel{}).Count(&u).Error)
		require.NoError(t, db.Model(&identity.UserRoleModel{}).Count(&l).Error)
		return
	}
	r, u, l := counts()
	assert.EqualValues(t, 5, r)
	assert.EqualValues(t, 5, u)
	assert.EqualValues(t, 6, l)

	// 第二次启动不产生新记录
	require.NoError(t, s.Run(ctx))
	r2, u2, l2 := counts()
	assert.Equal(t, []int64{r, u, l}, []int64{r2, u2, l2})
}
