// Package ui holds the view logic of the user manager: the list view state
// machine with its form validation gate, and the dashboard derivations.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"userdesk/m/domain"
	"userdesk/m/internal/client"
)

// Notification texts shown after list view actions.
const (
	MsgUserAdded    = "User added successfully."
	MsgUserUpdated  = "User updated successfully."
	MsgUserDeleted  = "User deleted successfully."
	MsgSaveFailed   = "Something went wrong."
	MsgDeleteFailed = "Delete failed."
)

var (
	// ErrBusy is returned by Save or ConfirmDelete while a request is in flight.
	ErrBusy = errors.New("ui: request already in progress")
	// ErrNoModal is returned when an action needs a modal that is not open.
	ErrNoModal = errors.New("ui: no matching modal open")
	// ErrUnknownUser is returned by OpenEdit for an id missing from the list.
	ErrUnknownUser = errors.New("ui: user not in list")
)

// API is the subset of the client the list view drives.
type API interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, in client.UserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, in client.UserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	AvatarURL(path string) string
}

// Notifier shows transient success and failure messages. It is called
// without the view's lock held, so it may read view state.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Mode is the modal currently open. Only one is open at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAdd
	ModeEdit
	ModeDelete
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add-open"
	case ModeEdit:
		return "edit-open"
	case ModeDelete:
		return "delete-confirm"
	default:
		return "idle"
	}
}

// ListView is the users table with its add, edit and delete modals.
type ListView struct {
	api    API
	notify Notifier

	mu      sync.Mutex
	users   []domain.User
	mode    Mode
	target  int64
	form    Form
	errs    FieldErrors
	loading bool
}

func NewListView(api API, notify Notifier) *ListView {
	return &ListView{api: api, notify: notify, users: []domain.User{}}
}

// Load replaces the local list with the server's.
func (v *ListView) Load(ctx context.Context) error {
	users, err := v.api.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	v.mu.Lock()
	v.users = users
	v.mu.Unlock()
	return nil
}

// Users returns a copy of the local list.
func (v *ListView) Users() []domain.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.User(nil), v.users...)
}

// Mode returns the open modal and, for edit and delete, the target id.
func (v *ListView) Mode() (Mode, int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode, v.target
}

func (v *ListView) Form() Form {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

// Errors returns the field errors from the last validation or conflict.
func (v *ListView) Errors() FieldErrors {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(FieldErrors, len(v.errs))
	for k, msg := range v.errs {
		out[k] = msg
	}
	return out
}

func (v *ListView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// OpenAdd opens the add modal with an empty form.
func (v *ListView) OpenAdd() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reset()
	v.mode = ModeAdd
}

// OpenEdit opens the edit modal prefilled from the listed user. The avatar
// file stays empty; the preview shows the stored avatar.
func (v *ListView) OpenEdit(id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	u, ok := v.find(id)
	if !ok {
		return ErrUnknownUser
	}
	v.reset()
	v.mode = ModeEdit
	v.target = id
	v.form.Name = u.Name
	v.form.Email = u.Email
	if u.Avatar != nil {
		v.form.Preview = v.api.AvatarURL(*u.Avatar)
	}
	return nil
}

// OpenDelete asks for confirmation before deleting id.
func (v *ListView) OpenDelete(id int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reset()
	v.mode = ModeDelete
	v.target = id
}

// Close dismisses any modal and resets the form.
func (v *ListView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reset()
}

func (v *ListView) SetName(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.form.Name = name
}

// SetEmail also clears any email error, including a server conflict.
func (v *ListView) SetEmail(email string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.form.Email = email
	delete(v.errs, "email")
}

// AttachAvatar picks a file; a nil attachment keeps the current preview.
func (v *ListView) AttachAvatar(a *Attachment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.form.Avatar = a
	if a != nil {
		v.form.Preview = a.Name
	}
}

// Save validates the form and submits it. Validation failures return
// FieldErrors without any request. A conflict becomes the email field error
// and the modal stays open; other failures notify and keep it open too.
// On success the modal closes and the list is reloaded.
func (v *ListView) Save(ctx context.Context) error {
	v.mu.Lock()
	if v.mode != ModeAdd && v.mode != ModeEdit {
		v.mu.Unlock()
		return ErrNoModal
	}
	if v.loading {
		v.mu.Unlock()
		return ErrBusy
	}
	if err := Validate(v.form); err != nil {
		v.errs = err.(FieldErrors)
		v.mu.Unlock()
		return err
	}
	v.errs = FieldErrors{}
	v.loading = true
	mode, id, in := v.mode, v.target, v.input()
	v.mu.Unlock()

	var (
		saved *domain.User
		err   error
	)
	if mode == ModeEdit {
		saved, err = v.api.UpdateUser(ctx, id, in)
	} else {
		saved, err = v.api.CreateUser(ctx, in)
	}

	v.mu.Lock()
	v.loading = false
	if err != nil {
		conflict := false
		if apiErr, ok := client.AsAPIError(err); ok && apiErr.IsConflict() {
			v.errs = FieldErrors{"email": apiErr.Message}
			conflict = true
		}
		v.mu.Unlock()
		if !conflict {
			v.notify.Error(MsgSaveFailed)
		}
		return err
	}

	msg := MsgUserAdded
	if mode == ModeEdit {
		v.patch(*saved)
		msg = MsgUserUpdated
	}
	v.reset()
	v.mu.Unlock()

	v.notify.Success(msg)
	return v.Load(ctx)
}

// ConfirmDelete deletes the user awaiting confirmation. The confirmation
// is cleared whether or not the request succeeds.
func (v *ListView) ConfirmDelete(ctx context.Context) error {
	v.mu.Lock()
	if v.mode != ModeDelete {
		v.mu.Unlock()
		return ErrNoModal
	}
	if v.loading {
		v.mu.Unlock()
		return ErrBusy
	}
	v.loading = true
	id := v.target
	v.mu.Unlock()

	err := v.api.DeleteUser(ctx, id)

	v.mu.Lock()
	v.loading = false
	if err == nil {
		kept := v.users[:0:0]
		for _, u := range v.users {
			if u.ID != id {
				kept = append(kept, u)
			}
		}
		v.users = kept
	}
	v.reset()
	v.mu.Unlock()

	if err != nil {
		v.notify.Error(MsgDeleteFailed)
		return err
	}
	v.notify.Success(MsgUserDeleted)
	return nil
}

func (v *ListView) input() client.UserInput {
	in := client.UserInput{Name: v.form.Name, Email: v.form.Email}
	if a := v.form.Avatar; a != nil {
		in.File = &client.File{Name: a.Name, ContentType: a.ContentType, Reader: a.Reader}
	}
	return in
}

// patch replaces the listed copy of u with the server's record.
func (v *ListView) patch(u domain.User) {
	for i := range v.users {
		if v.users[i].ID == u.ID {
			v.users[i] = u
			return
		}
	}
}

func (v *ListView) find(id int64) (domain.User, bool) {
	for _, u := range v.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

func (v *ListView) reset() {
	v.mode = ModeIdle
	v.target = 0
	v.form = Form{}
	v.errs = FieldErrors{}
}
