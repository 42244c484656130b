package commentservice

import (
	"github.com/sushihentaime/devlog/internal/common"
)

func validateAuthorName(v *common.Validator, name string) {
	v.Check(name != "", "author_name", "must be provided")
	v.Check(v.CheckStringLength(name, 0, 50), "author_name", "must not be more than 50 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(v.CheckStringLength(content, 0, 2000), "content", "must not be more than 2000 characters long")
}

// validatePassword rejects secrets bcrypt cannot hash.
func validatePassword(v *common.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}
