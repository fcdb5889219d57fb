package jobs

import (
	"errors"
	"testing"
	"time"
)

func TestJobTypeIsValid(t *testing.T) {
	if !JobUserWelcome.IsValid() {
		t.Fatal("user.welcome should be valid")
	}

	if JobType("user.unknown").IsValid() {
		t.Fatal("unknown type should be invalid")
	}
}

func TestEncodeDecodeWelcome(t *testing.T) {
	in := UserWelcomePayload{
		UserID:      42,
		Name:        "alice",
		Email:       "alice@example.com",
		RequestedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := EncodePayload(JobUserWelcome, in)

	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	decoded, err := DecodePayload(JobUserWelcome, raw)

	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	out, ok := decoded.(UserWelcomePayload)

	if !ok {
		t.Fatalf("decoded payload has type %T", decoded)
	}

	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestEncodeRejectsMismatchedPayload(t *testing.T) {
	_, err := EncodePayload(JobUserWelcome, struct{ X int }{X: 1})

	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("got %v, want ErrPayloadTypeMismatch", err)
	}
}

func TestEncodeRejectsUnknownType(t *testing.T) {
	_, err := EncodePayload(JobType("bogus"), UserWelcomePayload{})

	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("got %v, want ErrInvalidJobType", err)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		jobType JobType
		raw     []byte
		want    error
	}{
		{"unknown type", JobType("bogus"), []byte(`{}`), ErrInvalidJobType},
		{"empty payload", JobUserWelcome, nil, ErrInvalidJobPayload},
		{"malformed json", JobUserWelcome, []byte(`{`), ErrInvalidJobPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.jobType, tt.raw)

			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload UserWelcomePayload
		wantErr bool
	}{
		{"valid", UserWelcomePayload{UserID: 1, Name: "alice"}, false},
		{"missing user id", UserWelcomePayload{Name: "alice"}, true},
		{"missing name", UserWelcomePayload{UserID: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(JobUserWelcome, tt.payload)

			if (err != nil) != tt.wantErr {
				t.Fatalf("got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}

	if err := ValidatePayload(JobUserWelcome, "not a payload"); !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("got %v, want ErrPayloadTypeMismatch", err)
	}
}
