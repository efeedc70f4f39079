package secpolicy

import "crypto/subtle"

const redacted = "[REDACTED]"

// SecretString holds a sensitive value whose String/GoString/MarshalJSON
// forms are all fixed to "[REDACTED]". Grounded on
// original_source/crates/skreaver-core/src/security/secret.rs's
// Secret<T: Zeroize>; Go has no Drop, so the automatic zeroize-on-drop
// guarantee becomes an explicit Destroy() that callers must defer — a
// deliberate, documented deviation (see DESIGN.md).
type SecretString struct {
	bytes []byte
}

// NewSecretString wraps value. The caller's copy of value is not touched;
// only the wrapper's internal copy is zeroed by Destroy.
func NewSecretString(value string) *SecretString {
	b := make([]byte, len(value))
	copy(b, value)
	return &SecretString{bytes: b}
}

// Expose is the only access method — there is no "into inner" that hands
// back ownership without the caller acknowledging they're exposing it.
func (s *SecretString) Expose() string {
	if s == nil {
		return ""
	}
	return string(s.bytes)
}

func (s *SecretString) String() string   { return redacted }
func (s *SecretString) GoString() string { return redacted }

// MarshalJSON always emits the redacted sentinel, never the secret value.
func (s *SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// ConstantTimeEqual compares two secrets without leaking timing
// information about where they first differ.
func (s *SecretString) ConstantTimeEqual(other *SecretString) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.bytes) != len(other.bytes) {
		return false
	}
	return subtle.ConstantTimeCompare(s.bytes, other.bytes) == 1
}

// Destroy zeroes the backing buffer. Callers must invoke it explicitly
// (typically via defer) once the secret is no longer needed; Go's garbage
// collector gives no drop hook to do this automatically.
func (s *SecretString) Destroy() {
	if s == nil {
		return
	}
	for i := range s.bytes {
		s.bytes[i] = 0
	}
}
