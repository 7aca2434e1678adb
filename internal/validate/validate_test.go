package validate

import (
	"strings"
	"testing"

	"github.com/pribylovaa/identity-service/internal/models"

	"github.com/stretchr/testify/require"
)

func TestEmail_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"alice@example.com",
		"Alice.Smith+tag@mail.example.co.uk",
		"a@b.io",
		"user_1@sub-domain.example.org",
	} {
		require.True(t, Email(s), s)
	}
}

// TestEmail_Invalid — всё, где нет '@' и домена с точкой, отвергается.
func TestEmail_Invalid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"",
		"alice",
		"alice@",
		"@example.com",
		"alice@example",
		"alice@.com",
		"alice@example.",
		"alice@@example.com",
		"alice @example.com",
		"alice@exa mple.com",
		"alice@example..com",
		strings.Repeat("a", 250) + "@example.com",
	} {
		require.False(t, Email(s), s)
	}
}

func TestPayload_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "ok", body: `{"email":"a@b.io","password":"Passw0rd"}`},
		{name: "missing_email", body: `{"password":"Passw0rd"}`, want: []string{"Missing required field: email"}},
		{name: "missing_both", body: `{}`, want: []string{"Missing required field: email", "Missing required field: password"}},
		{name: "null_is_missing", body: `{"email":null,"password":"x"}`, want: []string{"Missing required field: email"}},
		{name: "empty_is_missing", body: `{"email":"","password":"x"}`, want: []string{"Missing required field: email"}},
		{name: "wrong_type", body: `{"email":42,"password":["x"]}`, want: []string{
			"Invalid type for field: email (expected string)",
			"Invalid type for field: password (expected string)",
		}},
		{name: "unknown_fields_ignored", body: `{"email":"a@b.io","password":"x","extra":1}`},
		{name: "array_body", body: `[]`, want: []string{MsgNotObject}},
		{name: "null_body", body: `null`, want: []string{MsgNotObject}},
		{name: "empty_body", body: ``, want: []string{MsgNotObject}},
		{name: "broken_json", body: `{"email":`, want: []string{MsgNotObject}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Payload(KindRegister, []byte(tt.body))
			if tt.want == nil {
				require.True(t, res.Valid)
				require.Empty(t, res.Errors)
				return
			}

			require.False(t, res.Valid)
			require.Equal(t, tt.want, res.Errors)
		})
	}
}

func TestPayload_PerKindFields(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"Missing required field: refreshToken"}, Payload(KindRefresh, []byte(`{}`)).Errors)
	require.Equal(t, []string{"Missing required field: email"}, Payload(KindResetRequest, []byte(`{}`)).Errors)
	require.Equal(t, []string{
		"Missing required field: resetToken",
		"Missing required field: newPassword",
	}, Payload(KindResetComplete, []byte(`{}`)).Errors)
	require.Equal(t, []string{"Missing required field: displayName"}, Payload(KindProfileUpdate, []byte(`{}`)).Errors)
	require.False(t, Payload(Kind("bogus"), []byte(`{}`)).Valid)
}

func TestDecode_TypedRequests(t *testing.T) {
	t.Parallel()

	reg, res := Decode[models.RegisterRequest]([]byte(`{"email":"a@b.io","password":"Passw0rd"}`))
	require.True(t, res.Valid)
	require.Equal(t, models.RegisterRequest{Email: "a@b.io", Password: "Passw0rd"}, reg)

	rc, res := Decode[models.ResetCompleteRequest]([]byte(`{"resetToken":"t","newPassword":"NewPassw0rd1"}`))
	require.True(t, res.Valid)
	require.Equal(t, "t", rc.ResetToken)
	require.Equal(t, "NewPassw0rd1", rc.NewPassword)

	_, res = Decode[models.RefreshRequest]([]byte(`{"refreshToken":1}`))
	require.False(t, res.Valid)
	require.Equal(t, []string{"Invalid type for field: refreshToken (expected string)"}, res.Errors)
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, KindRegister, KindOf[models.RegisterRequest]())
	require.Equal(t, KindLogin, KindOf[models.LoginRequest]())
	require.Equal(t, KindRefresh, KindOf[models.RefreshRequest]())
	require.Equal(t, KindResetRequest, KindOf[models.ResetRequest]())
	require.Equal(t, KindResetComplete, KindOf[models.ResetCompleteRequest]())
	require.Equal(t, KindProfileUpdate, KindOf[models.ProfileUpdateRequest]())
}
