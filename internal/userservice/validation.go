package userservice

import (
	"github.com/sushihentaime/devlog/internal/common"
)

func validateCredentials(v *common.Validator, username, password string) {
	v.Check(username != "", "username", "must be provided")
	v.Check(v.CheckStringLength(username, 0, 100), "username", "must not be more than 100 characters long")
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}

func validateOAuthCallback(v *common.Validator, state, code string) {
	v.Check(state != "", "state", "must be provided")
	v.Check(code != "", "code", "must be provided")
}

func ValidateToken(v *common.Validator, token string) {
	v.Check(token != "", "token", "must be provided")
}
