package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
	"github.com/Coder20131462/Ecommerce-App/internal/domain/model"
	repo "github.com/Coder20131462/Ecommerce-App/internal/repository"
)

// パスワードをハッシュ化する約束
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

type AuthUsecase struct {
	users    repo.UserRepository
	hasher   PasswordHasher
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
}

func NewAuthUsecase(users repo.UserRepository, hasher PasswordHasher, verifier PasswordVerifier, issuer AccessTokenIssuer) *AuthUsecase {
	return &AuthUsecase{users: users, hasher: hasher, verifier: verifier, issuer: issuer}
}

type RegisterInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type LoginOutput struct {
	User  model.User  `json:"user"`
	Token AccessToken `json:"token"`
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// 会員登録。emailの一意性とパスワード最低文字数（8）だけを見る。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !emailRe.MatchString(email) {
		return model.User{}, apperr.NewInvalidInput("invalid email")
	}
	if len(in.Password) < 8 {
		return model.User{}, apperr.NewInvalidInput("password must be at least 8 characters")
	}

	existing, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if existing != nil {
		return model.User{}, apperr.ErrEmailAlreadyUsed
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return model.User{}, err
	}

	return *user, nil
}

// ログイン。失敗理由は区別せずInvalidCredentialsに寄せる。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return LoginOutput{}, apperr.ErrInvalidCredentials
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return LoginOutput{}, err
	}
	if user == nil || !user.IsActive {
		return LoginOutput{}, apperr.ErrInvalidCredentials
	}

	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return LoginOutput{}, apperr.ErrInvalidCredentials
	}

	now := time.Now()
	token, expiresAt, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return LoginOutput{}, err
	}

	return LoginOutput{
		User: *user,
		Token: AccessToken{
			AccessToken: token,
			ExpiresIn:   int(expiresAt.Sub(now).Seconds()),
		},
	}, nil
}

// 認証済みユーザー自身のプロフィール取得。
func (u *AuthUsecase) GetProfile(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, apperr.ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if user == nil || !user.IsActive {
		//削除・停止済みアカウントのトークンは無効扱い
		return model.User{}, apperr.ErrUnauthorized
	}

	return *user, nil
}
