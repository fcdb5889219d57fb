package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type JobType string

const (
	// JobUserWelcome greets a freshly registered user out of band.
	JobUserWelcome JobType = "user.welcome"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobUserWelcome:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidJobType      = errors.New("invalid job type")
	ErrInvalidJobPayload   = errors.New("invalid job payload")
	ErrPayloadTypeMismatch = errors.New("payload type mismatch for job type")
)

// UserWelcomePayload is kept minimal and ID-based; the worker loads details
// from the store when it needs more than what is carried here.
type UserWelcomePayload struct {
	UserID      int64     `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobUserWelcome:
		_, ok := payload.(UserWelcomePayload)

		if !ok {
			_, ok2 := payload.(*UserWelcomePayload)

			if !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals a raw payload into the typed struct for its job type.
func DecodePayload(t JobType, raw []byte) (any, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(raw) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch t {
	case JobUserWelcome:
		var p UserWelcomePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// ValidatePayload rejects payloads that are missing required identifiers.
func ValidatePayload(t JobType, payload any) error {
	switch t {
	case JobUserWelcome:
		p, ok := payload.(UserWelcomePayload)

		if !ok {
			pp, ok2 := payload.(*UserWelcomePayload)

			if !ok2 {
				return ErrPayloadTypeMismatch
			}
			p = *pp
		}

		if p.UserID <= 0 {
			return fmt.Errorf("%w: missing userId", ErrInvalidJobPayload)
		}
		if p.Name == "" {
			return fmt.Errorf("%w: missing name", ErrInvalidJobPayload)
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
