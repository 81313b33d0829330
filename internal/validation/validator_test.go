// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package validation

import (
	"strings"
	"testing"
)

type intakeRequest struct {
	EventType    string `validate:"required,eventtype"`
	PlayerSerial string `validate:"required,gameserial"`
	Limit        int    `validate:"min=1,max=1000"`
}

func validIntakeRequest() intakeRequest {
	return intakeRequest{
		EventType:    "player_money_change",
		PlayerSerial: "A1B2C3D4E5F60718293A4B5C6D7E8F90",
		Limit:        50,
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	req := validIntakeRequest()
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("expected valid request, got: %v", err)
	}
}

func TestValidateStruct_EventType(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"simple", "player_chat", true},
		{"with digits", "zone2_capture", true},
		{"single letter", "x", true},
		{"uppercase", "PlayerChat", false},
		{"leading digit", "2fast", false},
		{"hyphen", "player-chat", false},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validIntakeRequest()
			req.EventType = tt.value
			err := ValidateStruct(&req)
			if tt.ok && err != nil {
				t.Errorf("event type %q rejected: %v", tt.value, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("event type %q accepted, want rejection", tt.value)
			}
		})
	}
}

func TestValidateStruct_GameSerial(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"upper hex", "A1B2C3D4E5F60718293A4B5C6D7E8F90", true},
		{"lower hex", "a1b2c3d4e5f60718293a4b5c6d7e8f90", true},
		{"too short", "a1b2c3", false},
		{"non hex", strings.Repeat("g", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validIntakeRequest()
			req.PlayerSerial = tt.value
			err := ValidateStruct(&req)
			if tt.ok && err != nil {
				t.Errorf("serial %q rejected: %v", tt.value, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("serial %q accepted, want rejection", tt.value)
			}
		})
	}
}

func TestValidateStruct_SingleErrorDetails(t *testing.T) {
	req := validIntakeRequest()
	req.Limit = 0

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("details field = %v, want Limit", apiErr.Details["field"])
	}
	if !strings.Contains(apiErr.Message, "at least 1") {
		t.Errorf("message %q does not describe the min bound", apiErr.Message)
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	req := intakeRequest{} // everything missing

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) < 2 {
		t.Fatalf("expected multiple errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("multi-error details missing 'fields' list")
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("combined message %q should join field messages", apiErr.Message)
	}
}
