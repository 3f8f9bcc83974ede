package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/repos"
	"github.com/daleelapp/daleel-backend/internal/requestdata"
	"github.com/daleelapp/daleel-backend/internal/types"
)

func newAuthTestService(t *testing.T) AuthService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.User{}))
	log := logger.NewNop()
	return NewAuthService(db, log, repos.NewUserRepo(db, log), "test-secret", time.Hour)
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	auth := newAuthTestService(t)
	ctx := context.Background()

	user, err := auth.RegisterUser(ctx, RegisterInput{
		UniversityID: "4411001",
		Name:         "سارة",
		College:      "كلية الحاسب",
		Password:     "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, LangArabic, user.PreferredLanguage)
	assert.NotEqual(t, "s3cret", user.Password, "password must be stored hashed")

	token, loggedIn, err := auth.LoginUser(ctx, "4411001", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	ctx2, err := auth.SetContextFromToken(ctx, token)
	require.NoError(t, err)
	rd := requestdata.GetRequestData(ctx2)
	require.NotNil(t, rd)
	assert.Equal(t, user.ID, rd.UserID)
	assert.False(t, rd.IsAdmin)
}

func TestRegisterDuplicateUniversityID(t *testing.T) {
	auth := newAuthTestService(t)
	ctx := context.Background()

	_, err := auth.RegisterUser(ctx, RegisterInput{UniversityID: "1", Name: "a", Password: "p"})
	require.NoError(t, err)

	_, err = auth.RegisterUser(ctx, RegisterInput{UniversityID: "1", Name: "b", Password: "p"})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, apierr.CodeConflict, apiErr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	auth := newAuthTestService(t)
	ctx := context.Background()

	_, err := auth.RegisterUser(ctx, RegisterInput{UniversityID: "1", Name: "a", Password: "right"})
	require.NoError(t, err)

	_, _, err = auth.LoginUser(ctx, "1", "wrong")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)

	_, _, err = auth.LoginUser(ctx, "missing", "whatever")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}

func TestRegisterValidation(t *testing.T) {
	auth := newAuthTestService(t)
	_, err := auth.RegisterUser(context.Background(), RegisterInput{UniversityID: " ", Name: "a", Password: "p"})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	auth := newAuthTestService(t)
	_, err := auth.SetContextFromToken(context.Background(), "not.a.token")
	require.Error(t, err)
}
