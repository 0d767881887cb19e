package forms

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"yatube/internal/models"
)

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

func init() {
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
}

// GroupForm is used by the admin CLI; groups are not created over HTTP.
type GroupForm struct {
	Title       string `validate:"required,max=200"`
	Slug        string `validate:"required,max=50,slug"`
	Description string
}

func (f GroupForm) Validate() (models.Group, FieldErrors) {
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Description = strings.TrimSpace(f.Description)

	errs := FieldErrors{}
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs.Add(strings.ToLower(fe.Field()), groupMessage(fe))
			}
		}
	}
	if len(errs) > 0 {
		return models.Group{}, errs
	}
	return models.Group{Title: f.Title, Slug: f.Slug, Description: f.Description}, nil
}

func groupMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	}
	return fe.Field() + " is invalid"
}
