package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestManifestAndPropertyKeys(t *testing.T) {
	if got := ManifestKey("C1", ""); got != "C1" {
		t.Errorf("Expected C1, got %q", got)
	}
	if got := ManifestKey("C1", "S2"); got != "C1-S2" {
		t.Errorf("Expected C1-S2, got %q", got)
	}
	if got := PropertyKey("C1", "S2", "narrador"); got != "C1-S2-narrador" {
		t.Errorf("Expected C1-S2-narrador, got %q", got)
	}
	if got := PropertyKey("C3", "", "intro"); got != "C3-intro" {
		t.Errorf("Expected C3-intro, got %q", got)
	}

	prop, ok := SplitPropertyKey("C1-S2-narrador", "C1", "S2")
	if !ok || prop != "narrador" {
		t.Errorf("Expected narrador, got %q (%v)", prop, ok)
	}
	if _, ok := SplitPropertyKey("C1-S3-narrador", "C1", "S2"); ok {
		t.Error("Expected key of another section to be rejected")
	}
}

func TestFolderPath(t *testing.T) {
	cases := map[string][3]string{
		"book1/C1/":    {"book1", "C1", ""},
		"book1/C1/S1/": {"/book1/", "C1", "S1"},
		"C2/S4/":       {"", "C2", "S4"},
	}
	for want, in := range cases {
		if got := FolderPath(in[0], in[1], in[2]); got != want {
			t.Errorf("FolderPath(%q, %q, %q) = %q, want %q", in[0], in[1], in[2], got, want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("bogus"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
	if !KindCompleted.IsMark() || KindComments.IsMark() {
		t.Error("IsMark classification is wrong")
	}
	if KindNotCompleted.TimestampField() != "not_completed_at" {
		t.Errorf("Unexpected timestamp field %q", KindNotCompleted.TimestampField())
	}
}

func TestFlexValues(t *testing.T) {
	var body struct {
		Version *FlexUint64      `json:"version"`
		Delete  FlexList[string] `json:"delete"`
	}
	if err := json.Unmarshal([]byte(`{"version":"7","delete":" a.mp3 "}`), &body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if v := OptionalVersion(body.Version); v == nil || *v != 7 {
		t.Errorf("Expected version 7, got %v", v)
	}
	if got := UniqueStrings(body.Delete); len(got) != 1 || got[0] != "a.mp3" {
		t.Errorf("Unexpected delete list %v", got)
	}

	body.Version = nil
	if err := json.Unmarshal([]byte(`{"delete":["a","a",""," b"]}`), &body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if OptionalVersion(body.Version) != nil {
		t.Error("Expected omitted version to stay nil")
	}
	if got := UniqueStrings(body.Delete); len(got) != 2 || got[1] != "b" {
		t.Errorf("Unexpected delete list %v", got)
	}
}

func TestCustomErrorUnwrap(t *testing.T) {
	cause := errors.New("authorizer down")
	err := NewCustomError(503, "data.authorization.unavailable", "unavailable", cause)
	if !errors.Is(err, cause) {
		t.Errorf("Expected the cause to be reachable through errors.Is")
	}
	if got := err.Error(); got != "503: unavailable [type: data.authorization.unavailable]" {
		t.Errorf("Unexpected message %q", got)
	}
}
