package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jamjob-backend/internal/apperr"
	"jamjob-backend/internal/logger"
	"jamjob-backend/internal/models"
	"jamjob-backend/internal/repository"
	"jamjob-backend/internal/services"
	"jamjob-backend/internal/testutil"
)

func TestCreateOrGetOAuthUser(t *testing.T) {
	users := testutil.NewUserStore()
	svc := services.NewAccountService(users, logger.Discard())
	ctx := context.Background()

	p := services.OAuthProfile{Email: "a@example.com", GoogleID: "g-1", FirstName: "Ada"}
	user, created, err := svc.CreateOrGetOAuthUser(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, user.EmailVerified)
	assert.Zero(t, user.TotalJobsPosted)
	assert.False(t, user.ID.IsZero())

	p.FirstName = "Changed"
	again, created, err := svc.CreateOrGetOAuthUser(ctx, p)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Ada", again.FirstName)
}

func TestCreateOrGetOAuthUser_DuplicateThenGone(t *testing.T) {
	users := testutil.NewUserStore()
	users.CreateErr = repository.ErrDuplicate
	svc := services.NewAccountService(users, logger.Discard())

	user, created, err := svc.CreateOrGetOAuthUser(context.Background(), services.OAuthProfile{Email: "a@example.com"})
	assert.True(t, apperr.IsCode(err, apperr.CodeInternal))
	assert.Nil(t, user)
	assert.False(t, created)
}

func TestCreateOrGetOAuthUser_RequiresEmail(t *testing.T) {
	svc := services.NewAccountService(testutil.NewUserStore(), logger.Discard())

	_, _, err := svc.CreateOrGetOAuthUser(context.Background(), services.OAuthProfile{GoogleID: "g"})
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
}

func TestSignUpWithPassword(t *testing.T) {
	users := testutil.NewUserStore()
	svc := services.NewAccountService(users, logger.Discard())
	ctx := context.Background()

	user, err := svc.SignUpWithPassword(ctx, "b@example.com", "hunter22")
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)
	assert.Zero(t, user.TotalJobsPosted)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))

	_, err = svc.SignUpWithPassword(ctx, "b@example.com", "other")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	assert.Equal(t, "User already exists", apperr.Message(err))
}

func TestSignUpWithPassword_Validation(t *testing.T) {
	svc := services.NewAccountService(testutil.NewUserStore(), logger.Discard())
	ctx := context.Background()

	_, err := svc.SignUpWithPassword(ctx, "", "pw")
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))

	_, err = svc.SignUpWithPassword(ctx, "c@example.com", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))

	_, err = svc.SignUpWithPassword(ctx, "c@example.com", strings.Repeat("x", 80))
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
}

func TestGetUser(t *testing.T) {
	users := testutil.NewUserStore(&models.User{Email: "d@example.com", TotalJobsPosted: 1})
	svc := services.NewAccountService(users, logger.Discard())

	user, err := svc.GetUser(context.Background(), "d@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalJobsPosted)

	_, err = svc.GetUser(context.Background(), "missing@example.com")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	users.FindErr = testutil.ErrInjected
	_, err = svc.GetUser(context.Background(), "d@example.com")
	assert.True(t, apperr.IsCode(err, apperr.CodeInternal))
}
