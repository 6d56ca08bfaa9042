package handler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"contactlink/internal/contact/service"
)

// IdentifyRequest is the body of POST /identify. Both fields are optional.
type IdentifyRequest struct {
	Email       optionalString `json:"email"`
	PhoneNumber optionalString `json:"phoneNumber"`
}

// ToInput converts the request into service input. Trimming and blank
// handling happen in the service.
func (r IdentifyRequest) ToInput() service.IdentifyInput {
	return service.IdentifyInput{Email: r.Email.value, PhoneNumber: r.PhoneNumber.value}
}

// optionalString accepts a JSON string, a JSON number (clients often send
// phone numbers numerically) or null. Numbers keep their literal text.
type optionalString struct {
	value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		o.value = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		o.value = &s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string, number or null, got %s", data)
	}
	s := n.String()
	o.value = &s
	return nil
}

func (o optionalString) MarshalJSON() ([]byte, error) {
	if o.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.value)
}
