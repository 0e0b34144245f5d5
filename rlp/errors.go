package rlp

import "errors"

// ErrValueTooLarge is returned when a value's Go type has no RLP encoding
// (this package only implements the encode side, for bools, unsigned
// integers, big.Int, byte strings and slices of these; strings, arrays,
// structs and signed integers are rejected with this error).
var ErrValueTooLarge = errors.New("rlp: value too large")
