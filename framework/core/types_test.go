package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestOption_Some(t *testing.T) {
	opt := Some("value")
	if !opt.IsSome() {
		t.Error("Expected option to be Some")
	}
	if opt.IsNone() {
		t.Error("Expected option to not be None")
	}
	if opt.Value() != "value" {
		t.Errorf("Expected 'value', got %v", opt.Value())
	}
}

func TestOption_None(t *testing.T) {
	opt := None[string]()
	if opt.IsSome() {
		t.Error("Expected option to not be Some")
	}
	if opt.ValueOr("default") != "default" {
		t.Errorf("Expected 'default', got %v", opt.ValueOr("default"))
	}
	if opt.Ptr() != nil {
		t.Error("Expected nil pointer for None")
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on Value() of None")
		}
	}()
	_ = opt.Value()
}

func TestOption_FromPtr(t *testing.T) {
	s := "abc"
	if opt := FromPtr(&s); !opt.IsSome() || opt.Value() != "abc" {
		t.Errorf("Expected Some(abc), got %v", opt)
	}
	if opt := FromPtr[string](nil); opt.IsSome() {
		t.Error("Expected None for nil pointer")
	}
}

func TestOption_JSON(t *testing.T) {
	type payload struct {
		Sort Option[string] `json:"sort"`
	}

	data, err := json.Marshal(payload{Sort: None[string]()})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"sort":null}` {
		t.Errorf("Expected null sort, got %s", data)
	}

	data, err = json.Marshal(payload{Sort: Some("name")})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"sort":"name"}` {
		t.Errorf("Expected sort name, got %s", data)
	}

	var decoded payload
	if err := json.Unmarshal([]byte(`{"sort":null}`), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Sort.IsSome() {
		t.Error("Expected None after decoding null")
	}
}

func TestFrameworkError_Is(t *testing.T) {
	err := Wrap(errors.New("connection refused"), ErrNotFound, "lookup failed")
	if !errors.Is(err, ErrEntityNotFound) {
		t.Error("Expected errors.Is to match by code")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("Expected errors.Is not to match a different code")
	}
	if CodeOf(fmt.Errorf("outer: %w", err)) != ErrNotFound {
		t.Errorf("Expected code %s, got %s", ErrNotFound, CodeOf(err))
	}
}

func TestNotFoundError_CarriesID(t *testing.T) {
	err := fmt.Errorf("find category: %w", NewNotFoundError("Category", "fake-id"))

	if !errors.Is(err, ErrEntityNotFound) {
		t.Error("Expected NotFoundError to match ErrEntityNotFound")
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatal("Expected errors.As to find NotFoundError")
	}
	if nf.ID != "fake-id" {
		t.Errorf("Expected ID 'fake-id', got %s", nf.ID)
	}
	if nf.Error() != "Category not found using ID fake-id" {
		t.Errorf("Unexpected message: %s", nf.Error())
	}
	if CodeOf(err) != ErrNotFound {
		t.Errorf("Expected code %s, got %s", ErrNotFound, CodeOf(err))
	}
}

func TestEntityValidationError(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("name", "name is required")
	fields.Add("description", "description must be a string")

	err := NewEntityValidationError(fields)
	if !errors.Is(err, ErrValidation) {
		t.Error("Expected EntityValidationError to match ErrValidation")
	}
	if fields.String() != "description: description must be a string; name: name is required" {
		t.Errorf("Unexpected fields string: %s", fields.String())
	}
}
