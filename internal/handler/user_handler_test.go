package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newProfiles(t *testing.T) repository.UserProfileRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.UserProfile{}))
	return repository.NewUserProfileRepository(db)
}

func TestUserHandler(t *testing.T) {
	profiles := newProfiles(t)
	_, err := profiles.Ensure(context.Background(), "seller-1", "hana@uni.example")
	require.NoError(t, err)
	h := NewUserHandler(profiles)
	e := echo.New()

	get := func(uid string, req identity.Requester, fn echo.HandlerFunc) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(identity.WithRequester(r.Context(), req))
		rec := httptest.NewRecorder()
		c := e.NewContext(r, rec)
		c.SetParamNames("uid")
		c.SetParamValues(uid)
		require.NoError(t, fn(c))
		return rec
	}

	rec := get("seller-1", identity.Requester{}, h.GetPublic)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":"seller-1","displayName":"hana"}`, rec.Body.String())

	rec = get("ghost", identity.Requester{}, h.GetPublic)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get("", identity.Requester{ID: "seller-1", Email: "hana@uni.example", IsAdmin: true}, h.Me)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAdmin":true`)

	rec = get("", identity.Requester{}, h.Me)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
