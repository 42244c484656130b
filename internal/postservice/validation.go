package postservice

import (
	"github.com/sushihentaime/devlog/internal/common"
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 200), "title", "must not be more than 200 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(!contentIsEmpty(content), "content", "must be provided")
}

func validateExcerpt(v *common.Validator, excerpt string) {
	v.Check(v.CheckStringLength(excerpt, 0, 500), "excerpt", "must not be more than 500 characters long")
}

// validateTags expects normalized tags.
func validateTags(v *common.Validator, tags []string) {
	v.Check(len(tags) <= MaxTagsPerPost, "tags", "must not contain more than 10 tags")
	for _, t := range tags {
		v.Check(v.CheckStringLength(t, 1, 50), "tags", "each tag must not be more than 50 characters long")
	}
}

func validateTagName(v *common.Validator, name string) {
	v.Check(name != "", "name", "must be provided")
	v.Check(v.CheckStringLength(name, 0, 50), "name", "must not be more than 50 characters long")
}

func validatePostInput(v *common.Validator, in *PostInput) {
	validateTitle(v, in.Title)
	validateContent(v, in.Content)
	validateExcerpt(v, in.Excerpt)
	validateTags(v, in.Tags)
}
