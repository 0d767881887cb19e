// Package forms binds and validates submitted post fields. A validated
// PostDraft never carries an author; handlers set it from the session.
package forms

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"yatube/internal/db"
	"yatube/internal/models"
)

const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

var validate = validator.New()

// GroupLookup resolves the submitted group id.
type GroupLookup interface {
	GroupByID(ctx context.Context, id int64) (models.Group, error)
}

// PostForm holds the raw submitted values so a failed submission can be
// shown again exactly as typed.
type PostForm struct {
	Text  string
	Group string
}

// input is what the validator sees after normalisation.
type input struct {
	Text  string `validate:"required"`
	Group string `validate:"omitempty,number"`
}

// PostDraft is the validated subset of a post that a user may set.
type PostDraft struct {
	Text    string
	GroupID *int64
}

func BindPostForm(r *http.Request) PostForm {
	return PostForm{
		Text:  r.PostFormValue("text"),
		Group: strings.TrimSpace(r.PostFormValue("group")),
	}
}

// FormFromPost pre-fills the edit form with a post's current values.
func FormFromPost(p models.Post) PostForm {
	f := PostForm{Text: p.Text}
	if p.GroupID != nil {
		f.Group = strconv.FormatInt(*p.GroupID, 10)
	}
	return f
}

// Selected reports whether group id is the current choice; used by the template.
func (f PostForm) Selected(id int64) bool {
	return f.Group == strconv.FormatInt(id, 10)
}

// Validate checks the form. Field problems come back as FieldErrors;
// the error return is reserved for lookup failures other than not-found.
func (f PostForm) Validate(ctx context.Context, groups GroupLookup) (PostDraft, FieldErrors, error) {
	in := input{Text: strings.TrimSpace(f.Text), Group: f.Group}
	errs := FieldErrors{}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return PostDraft{}, nil, err
		}
		for _, fe := range verrs {
			errs.Add(strings.ToLower(fe.Field()), fieldMessage(fe))
		}
	}

	draft := PostDraft{Text: in.Text}
	if in.Group != "" && !errs.Has("group") {
		id, err := strconv.ParseInt(in.Group, 10, 64)
		if err != nil {
			errs.Add("group", MsgInvalidChoice)
		} else if _, err := groups.GroupByID(ctx, id); errors.Is(err, db.ErrNotFound) {
			errs.Add("group", MsgInvalidChoice)
		} else if err != nil {
			return PostDraft{}, nil, err
		} else {
			draft.GroupID = &id
		}
	}

	if len(errs) > 0 {
		return PostDraft{}, errs, nil
	}
	return draft, nil, nil
}

// ApplyTo merges the draft into p. Author, ID and CreatedAt are left alone.
func (d PostDraft) ApplyTo(p *models.Post) {
	p.Text = d.Text
	p.GroupID = d.GroupID
	p.Group = nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "number":
		return MsgInvalidChoice
	default:
		return fe.Field() + " is invalid"
	}
}
