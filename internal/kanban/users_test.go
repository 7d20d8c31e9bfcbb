package kanban

import (
	"context"
	"testing"

	"kanmind/internal/domain/errors"
	storage "kanmind/repository/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
		want  struct {
			err   error
			field string
		}
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Fullname: "Anna Bell", Email: "  Anna@Example.com ", Password: "pw-123456", RepeatedPassword: "pw-123456"},
		},
		{
			name:  "duplicate email",
			input: RegisterInput{Fullname: "Someone", Email: "taken@example.com", Password: "pw", RepeatedPassword: "pw"},
			want: struct {
				err   error
				field string
			}{err: errors.ErrValidationFailed, field: "email"},
		},
		{
			name:  "duplicate email differing in case",
			input: RegisterInput{Fullname: "Someone", Email: "TAKEN@example.com", Password: "pw", RepeatedPassword: "pw"},
			want: struct {
				err   error
				field string
			}{err: errors.ErrValidationFailed, field: "email"},
		},
		{
			name:  "password mismatch",
			input: RegisterInput{Fullname: "Anna", Email: "new@example.com", Password: "pw-1", RepeatedPassword: "pw-2"},
			want: struct {
				err   error
				field string
			}{err: errors.ErrValidationFailed, field: "repeated_password"},
		},
		{
			name:  "missing fullname",
			input: RegisterInput{Fullname: " ", Email: "new@example.com", Password: "pw", RepeatedPassword: "pw"},
			want: struct {
				err   error
				field string
			}{err: errors.ErrValidationFailed, field: "fullname"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewStorage()
			svc := NewService(store, discardLogger())
			_, err := svc.Register(ctx, RegisterInput{Fullname: "Taken", Email: "taken@example.com", Password: "pw", RepeatedPassword: "pw"})
			require.NoError(t, err)

			user, err := svc.Register(ctx, tt.input)
			if tt.want.err != nil {
				assert.ErrorIs(t, err, tt.want.err)
				assert.Contains(t, fieldErrors(t, err), tt.want.field)

				_, lookupErr := store.GetUserByEmail(ctx, NormalizeEmail(tt.input.Email))
				if tt.want.field != "email" {
					assert.ErrorIs(t, lookupErr, errors.ErrNotFound, "no account row is created")
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "anna@example.com", user.Email)
			assert.Equal(t, "Anna Bell", user.Fullname)
			assert.NotEqual(t, tt.input.Password, user.PasswordHash)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewStorage(), discardLogger())
	registered, err := svc.Register(ctx, RegisterInput{Fullname: "Anna", Email: "anna@example.com", Password: "pw-123456", RepeatedPassword: "pw-123456"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "valid credentials", email: "ANNA@example.com", password: "pw-123456"},
		{name: "wrong password", email: "anna@example.com", password: "nope", want: errors.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "pw-123456", want: errors.ErrInvalidCredentials},
		{name: "missing password", email: "anna@example.com", password: "", want: errors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(ctx, tt.email, tt.password)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.ErrorIs(t, err, errors.ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.ID, user.ID)
		})
	}
}

func TestLookupEmailAndCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.svc.LookupEmail(ctx, f.id("a"), " B@example.com")
	require.NoError(t, err)
	assert.Equal(t, f.id("b"), user.ID)

	_, err = f.svc.LookupEmail(ctx, f.id("a"), "ghost@example.com")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.svc.LookupEmail(ctx, f.id("a"), "")
	assert.ErrorIs(t, err, errors.ErrValidationFailed)

	_, err = f.svc.LookupEmail(ctx, "", "b@example.com")
	assert.ErrorIs(t, err, errors.ErrUnauthorized)

	current, err := f.svc.CurrentUser(ctx, f.id("c"))
	require.NoError(t, err)
	assert.Equal(t, "c@example.com", current.Email)

	_, err = f.svc.CurrentUser(ctx, "deleted")
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
}
