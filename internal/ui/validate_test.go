package ui

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	image := func(size int64) *Attachment {
		return &Attachment{Name: "a.png", ContentType: "image/png", Size: size}
	}

	tests := []struct {
		name string
		form Form
		want FieldErrors
	}{
		{"valid", Form{Name: "Ale", Email: "foo@bar.com"}, nil},
		{"empty name", Form{Name: "", Email: "foo@bar.com"}, FieldErrors{"name": "Name is required"}},
		{"blank name", Form{Name: "   ", Email: "foo@bar.com"}, FieldErrors{"name": "Name is required"}},
		{"short name", Form{Name: "Al", Email: "foo@bar.com"}, FieldErrors{"name": "Minimum 3 characters"}},
		{"empty email", Form{Name: "Ale", Email: ""}, FieldErrors{"email": "Email is required"}},
		{"email without tld", Form{Name: "Ale", Email: "foo@bar"}, FieldErrors{"email": "Invalid email address"}},
		{"email with space", Form{Name: "Ale", Email: "foo bar@baz.com"}, FieldErrors{"email": "Invalid email address"}},
		{"4MB image", Form{Name: "Ale", Email: "foo@bar.com", Avatar: image(4 << 20)}, nil},
		{"5MB image", Form{Name: "Ale", Email: "foo@bar.com", Avatar: image(MaxAvatarSize)}, nil},
		{"6MB image", Form{Name: "Ale", Email: "foo@bar.com", Avatar: image(6 << 20)}, FieldErrors{"avatar": "Image must be less than 5MB"}},
		{
			"small non-image",
			Form{Name: "Ale", Email: "foo@bar.com", Avatar: &Attachment{Name: "a.pdf", ContentType: "application/pdf", Size: 10}},
			FieldErrors{"avatar": "Only image files allowed"},
		},
		{
			"large non-image reports type",
			Form{Name: "Ale", Email: "foo@bar.com", Avatar: &Attachment{Name: "a.zip", ContentType: "application/zip", Size: 6 << 20}},
			FieldErrors{"avatar": "Only image files allowed"},
		},
		{
			"every field",
			Form{Name: "Al", Email: "", Avatar: &Attachment{Name: "a.txt", ContentType: "text/plain"}},
			FieldErrors{"name": "Minimum 3 characters", "email": "Email is required", "avatar": "Only image files allowed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.form)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var got FieldErrors
			if !errors.As(err, &got) {
				t.Fatalf("expected FieldErrors, got %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for field, msg := range tt.want {
				if got[field] != msg {
					t.Errorf("%s: expected %q, got %q", field, msg, got[field])
				}
			}
		})
	}
}

func TestFieldErrorsString(t *testing.T) {
	err := FieldErrors{"name": "Minimum 3 characters", "email": "Email is required"}
	if got := err.Error(); got != "email: Email is required; name: Minimum 3 characters" {
		t.Errorf("unexpected %q", got)
	}
}
