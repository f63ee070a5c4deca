package httperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestBadRequest(t *testing.T) {
	err := NewBadRequest("name is required")
	if err.Error() != "name is required" {
		t.Fatalf("msg=%q", err.Error())
	}
	if !IsBadRequest(err) {
		t.Fatal("IsBadRequest=false")
	}
	if !IsBadRequest(fmt.Errorf("wrap: %w", err)) {
		t.Fatal("wrapped IsBadRequest=false")
	}
	if IsBadRequest(errors.New("other")) {
		t.Fatal("IsBadRequest matched plain error")
	}
	if IsConflict(err) {
		t.Fatal("IsConflict matched bad request")
	}
}

func TestConflict(t *testing.T) {
	err := NewConflict("move would create a cycle")
	if !IsConflict(err) {
		t.Fatal("IsConflict=false")
	}
	if IsBadRequest(err) {
		t.Fatal("IsBadRequest matched conflict")
	}
}
