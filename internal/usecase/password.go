package usecase

import "golang.org/x/crypto/bcrypt"

type bcryptPasswordHasher struct {
	cost int
}

// 会員登録で使う
func NewBcryptPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptPasswordHasher{cost: cost}
}

func (h *bcryptPasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type bcryptPasswordVerifier struct{}

// ログインで使う
func NewBcryptPasswordVerifier() PasswordVerifier {
	return &bcryptPasswordVerifier{}
}

func (v *bcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
