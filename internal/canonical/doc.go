// Package canonical produces deterministic JSON and content digests.
//
// The encoding follows RFC 8785 with one relaxation: null is allowed,
// because open paired records carry null exit fields.
//
//   - Object keys sorted by UTF-16 code units
//   - No HTML escaping; U+2028 and U+2029 emitted literally
//   - Strings NFC-normalised
//   - Floats rejected
//
// Two runs over the same input tables produce byte-identical output and
// therefore the same digest.
package canonical
