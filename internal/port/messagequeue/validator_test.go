package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateValidTurnSelected(t *testing.T) {
	data := []byte(`{"turn_id":"t1","agents":["tools/weather/smhi-forecast"]}`)
	if err := Validate(SubjectTurnSelected, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateValidTurnReplanned(t *testing.T) {
	data := []byte(`{"turn_id":"t1","replans":1}`)
	if err := Validate(SubjectTurnReplanned, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateValidTurnFinalized(t *testing.T) {
	data := []byte(`{"turn_id":"t1","agents":["tools/weather/smhi-forecast"],"steps":5,"replans":0,"guard":false}`)
	if err := Validate(SubjectTurnFinalized, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateValidRetrievalScored(t *testing.T) {
	data := []byte(`{"query":"temperatur i goteborg","candidates":["tools/weather/smhi-forecast"],"duration_ms":3}`)
	if err := Validate(SubjectRetrievalScored, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	// Unknown subjects should pass (future-proof).
	data := []byte(`{"foo":"bar"}`)
	if err := Validate("unknown.subject", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	data := []byte(`{not valid json`)
	err := Validate(SubjectTurnFinalized, data)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected 'invalid JSON' in error, got: %v", err)
	}
}

func TestValidateInvalidSchema(t *testing.T) {
	// Valid JSON but structurally wrong for the payload.
	data := []byte(`"just a string"`)
	err := Validate(SubjectTurnSelected, data)
	if err == nil {
		t.Fatal("expected schema validation error")
	}
	if !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("expected 'schema validation failed' in error, got: %v", err)
	}
}

func TestValidateEmptyJSON(t *testing.T) {
	// Empty object is valid JSON and valid for all schemas (all fields are zero-value).
	data := []byte(`{}`)
	if err := Validate(SubjectTurnFinalized, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
