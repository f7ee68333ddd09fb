package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// FingerprintLength is the number of hex characters kept from the digest.
const FingerprintLength = 16

// Canonicalize produces a deterministic JSON encoding of v.
// Object keys are sorted, insignificant whitespace is dropped and HTML
// characters are not escaped, so two logically equal values always encode
// to the same bytes regardless of field order in the source payload.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	// Round-trip through a generic value so map keys get sorted and raw
	// messages lose their original formatting. Numbers stay textual.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Fingerprint returns the truncated xxHash64 hex digest of the canonical
// encoding of content. Content that cannot be canonicalized is hashed from
// its formatted representation so the call never fails.
func Fingerprint(content any) string {
	data, err := Canonicalize(content)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", content))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))[:FingerprintLength]
}
