package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fakeIssuer struct{}

func (f *fakeIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	return "token", now.Add(15 * time.Minute), nil
}

func newAuthUsecaseForTest() (*AuthUsecase, *UserRepoMock) {
	users := new(UserRepoMock)
	uc := NewAuthUsecase(users, NewBcryptPasswordHasher(4), NewBcryptPasswordVerifier(), &fakeIssuer{})
	return uc, users
}

func TestAuthUsecase_Register_Success(t *testing.T) {
	ctx := context.Background()
	uc, users := newAuthUsecaseForTest()

	users.On("FindByEmail", mock.Anything, "a@example.com").Return((*model.User)(nil), nil)
	users.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		u := args.Get(1).(*model.User)
		u.ID = 1
	}).Return(nil)

	u, err := uc.Register(ctx, RegisterInput{Email: "A@example.com", Password: "password1"})
	assert.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.NotEqual(t, "password1", u.PasswordHash)
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	uc, users := newAuthUsecaseForTest()

	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{ID: 1, Email: "a@example.com"}, nil)

	_, err := uc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperr.ErrEmailAlreadyUsed)
}

func TestAuthUsecase_Register_ShortPassword(t *testing.T) {
	uc, _ := newAuthUsecaseForTest()

	_, err := uc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "short"})

	var invalid *apperr.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestAuthUsecase_Login_Success(t *testing.T) {
	ctx := context.Background()
	uc, users := newAuthUsecaseForTest()

	hash, err := NewBcryptPasswordHasher(4).Hash("password1")
	assert.NoError(t, err)

	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, Email: "a@example.com", PasswordHash: hash, Role: model.RoleUser, IsActive: true,
	}, nil)

	out, err := uc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
	assert.NoError(t, err)
	assert.Equal(t, "token", out.Token.AccessToken)
	assert.Equal(t, int64(1), out.User.ID)
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	uc, users := newAuthUsecaseForTest()

	hash, err := NewBcryptPasswordHasher(4).Hash("password1")
	assert.NoError(t, err)

	users.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{
		ID: 1, Email: "a@example.com", PasswordHash: hash, IsActive: true,
	}, nil)

	_, err = uc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestAuthUsecase_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	uc, users := newAuthUsecaseForTest()

	users.On("FindByEmail", mock.Anything, "x@example.com").Return((*model.User)(nil), nil)

	_, err := uc.Login(ctx, LoginInput{Email: "x@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}
