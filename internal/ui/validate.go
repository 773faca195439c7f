package ui

import (
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxAvatarSize is the largest avatar accepted before upload.
const MaxAvatarSize = 5 * 1024 * 1024

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Attachment is an avatar file picked by the user.
type Attachment struct {
	Name        string    `validate:"-"`
	ContentType string    `validate:"startswith=image/"`
	Size        int64     `validate:"max=5242880"`
	Reader      io.Reader `validate:"-"`
}

// Form is the add/edit form state that must pass validation before any
// request is sent.
type Form struct {
	Name    string      `validate:"notblank,min=3"`
	Email   string      `validate:"notblank,useremail"`
	Avatar  *Attachment `validate:"-"`
	Preview string      `validate:"-"`
}

// FieldErrors maps a form field ("name", "email", "avatar") to its message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return strings.Join(parts, "; ")
}

var messages = map[string]string{
	"Name.notblank":          "Name is required",
	"Name.min":               "Minimum 3 characters",
	"Email.notblank":         "Email is required",
	"Email.useremail":        "Invalid email address",
	"ContentType.startswith": "Only image files allowed",
	"Size.max":               "Image must be less than 5MB",
}

var fieldKeys = map[string]string{
	"Name":        "name",
	"Email":       "email",
	"ContentType": "avatar",
	"Size":        "avatar",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	must(v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	must(v.RegisterValidation("useremail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Validate checks f and returns FieldErrors, or nil when f may be submitted.
// Each field reports at most one message, the first rule it breaks.
func Validate(f Form) error {
	errs := FieldErrors{}
	collect(errs, validate.Struct(f))
	if f.Avatar != nil {
		collect(errs, validate.Struct(f.Avatar))
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func collect(dst FieldErrors, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return
	}
	for _, fe := range verrs {
		key := fieldKeys[fe.StructField()]
		if _, seen := dst[key]; seen {
			continue
		}
		msg, ok := messages[fe.StructField()+"."+fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		dst[key] = msg
	}
}
