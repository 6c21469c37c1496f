package cache

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestValidateKey tests key validation rules.
func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", ErrInvalidKey},
		{"valid key", "req:ns:GET /users:abc123", nil},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
		{"contains newline", "key\nwith\nnewlines", ErrInvalidKey},
		{"contains carriage return", "key\rwith\rreturns", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"max length exactly", strings.Repeat("x", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateKey(%q) = %v, want nil", tt.key, err)
				}
			} else {
				if err != tt.wantErr {
					t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
				}
			}
		})
	}
}

// TestSentinelErrors verifies sentinel errors are distinct and have expected messages.
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrNilEngine", ErrNilEngine, "cache: engine is nil"},
		{"ErrInvalidKey", ErrInvalidKey, "cache: key is invalid"},
		{"ErrKeyTooLong", ErrKeyTooLong, "cache: key exceeds max length"},
		{"ErrNilLoader", ErrNilLoader, "cache: loader is nil"},
		{"ErrBackingStore", ErrBackingStore, "cache: backing store failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("%s is nil", tt.name)
			}
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("%s.Error() = %q, want %q", tt.name, tt.err.Error(), tt.wantMsg)
			}
		})
	}

	// All sentinels must be distinct.
	all := []error{ErrNilEngine, ErrInvalidKey, ErrKeyTooLong, ErrNilLoader, ErrBackingStore}
	for i := range all {
		for j := range all {
			if i != j && errors.Is(all[i], all[j]) {
				t.Errorf("sentinel %d and %d are not distinct", i, j)
			}
		}
	}
}

// TestCodecError tests CodecError wrapping and detection.
func TestCodecError(t *testing.T) {
	cause := errors.New("boom")
	ce := &CodecError{Op: "encode", Err: cause}

	if !strings.Contains(ce.Error(), "encode") {
		t.Errorf("Error() = %q, want op mentioned", ce.Error())
	}
	if !errors.Is(ce, cause) {
		t.Error("CodecError should unwrap to its cause")
	}
	if !IsCodecError(ce) {
		t.Error("IsCodecError(ce) = false, want true")
	}
	if !IsCodecError(fmt.Errorf("wrapped: %w", ce)) {
		t.Error("IsCodecError should see through wrapping")
	}
	if IsCodecError(cause) {
		t.Error("IsCodecError(plain error) = true, want false")
	}
	if IsCodecError(nil) {
		t.Error("IsCodecError(nil) = true, want false")
	}
}
