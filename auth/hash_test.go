package auth

import "testing"

func TestHashPayload(t *testing.T) {
	// sha256("") is a well-known constant.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashPayload(nil); got != want {
		t.Errorf("HashPayload(nil) = %q, want %q", got, want)
	}

	if HashPayload([]byte("a")) == HashPayload([]byte("b")) {
		t.Error("different payloads should hash differently")
	}
}
