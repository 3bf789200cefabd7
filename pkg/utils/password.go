package utils

import "golang.org/x/crypto/bcrypt"

var passwordCost = bcrypt.DefaultCost

// ConfigurePasswordCost lowers the bcrypt work factor; only tests should call it.
func ConfigurePasswordCost(cost int) {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		passwordCost = cost
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
