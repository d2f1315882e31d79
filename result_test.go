package goAccount

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestResultNames(t *testing.T) {
	cases := map[Result]string{
		ResultOK:                             "OK",
		ResultDatabaseError:                  "DATABASE_ERROR",
		ResultEmailAlreadyRegistered:         "EMAIL_ALREADY_REGISTERED",
		ResultUserNameAlreadyRegistered:      "USER_NAME_ALREADY_REGISTERED",
		ResultNoSuchUser:                     "NO_SUCH_USER",
		ResultInvalidPassword:                "INVALID_PASSWORD",
		ResultFailedToSendEmail:              "FAILED_TO_SEND_EMAIL",
		ResultNoValidPasswordResetToken:      "NO_VALID_PASSWORD_RESET_TOKEN",
		ResultRegistrationNotConfirmed:       "REGISTRATION_NOT_CONFIRMED",
		ResultRegistrationAlreadyConfirmed:   "REGISTRATION_ALREADY_CONFIRMED",
		ResultInvalidRegistrationControlCode: "INVALID_REGISTRATION_CONTROL_CODE",
	}
	if len(cases) != int(resultCount) {
		t.Fatalf("expected %d cases, got %d", resultCount, len(cases))
	}

	for r, want := range cases {
		if got := r.String(); got != want {
			t.Fatalf("Result(%d).String() = %q, want %q", r, got, want)
		}
		parsed, err := ParseResult(want)
		if err != nil || parsed != r {
			t.Fatalf("ParseResult(%q) = %v, %v", want, parsed, err)
		}
	}

	if got := Result(200).String(); got != "Result(200)" {
		t.Fatalf("unexpected unknown name %q", got)
	}
	if _, err := ParseResult("NOPE"); err == nil {
		t.Fatal("expected error for unknown name")
	}
}

func TestResultErr(t *testing.T) {
	if ResultOK.Err() != nil {
		t.Fatal("ResultOK must map to nil")
	}
	if !errors.Is(ResultInvalidPassword.Err(), ErrInvalidPassword) {
		t.Fatal("expected ErrInvalidPassword")
	}
	if !errors.Is(ResultFailedToSendEmail.Err(), ErrFailedToSendEmail) {
		t.Fatal("expected ErrFailedToSendEmail")
	}
	for r := ResultDatabaseError; r < resultCount; r++ {
		if r.Err() == nil {
			t.Fatalf("%s has no error", r)
		}
		if r.OK() {
			t.Fatalf("%s must not be OK", r)
		}
	}
	if Result(99).Err() == nil {
		t.Fatal("unknown result must produce an error")
	}
}

func TestResultJSON(t *testing.T) {
	payload := struct {
		Result Result `json:"result"`
	}{Result: ResultNoSuchUser}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"result":"NO_SUCH_USER"}` {
		t.Fatalf("unexpected json %s", data)
	}

	payload.Result = ResultOK
	if err := json.Unmarshal([]byte(`{"result":"INVALID_PASSWORD"}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Result != ResultInvalidPassword {
		t.Fatalf("unexpected result %s", payload.Result)
	}

	if err := json.Unmarshal([]byte(`{"result":"MAYBE"}`), &payload); err == nil {
		t.Fatal("expected unknown name to be rejected")
	}
	if _, err := Result(42).MarshalText(); err == nil {
		t.Fatal("expected unknown result to fail marshalling")
	}
}

func TestPasswordCheckResultNames(t *testing.T) {
	names := []string{"OK", "PASSWORD_EMPTY", "PASSWORD_TOO_SHORT", "PASSWORD_CONFIRMATION_EMPTY", "PASSWORD_CONFIRMATION_MISMATCH"}
	for i, want := range names {
		r := PasswordCheckResult(i)
		if r.String() != want {
			t.Fatalf("PasswordCheckResult(%d) = %q, want %q", i, r.String(), want)
		}
		text, err := r.MarshalText()
		if err != nil || string(text) != want {
			t.Fatalf("MarshalText = %q, %v", text, err)
		}
	}
	if !PasswordOK.OK() || PasswordTooShort.OK() {
		t.Fatal("unexpected OK() result")
	}
}
