package password

import (
	"errors"

	"golang.org/x/text/encoding/unicode"
)

// Encoding names the text encoding used to turn salt and password into digest input.
type Encoding string

const (
	// EncodingUTF8 feeds raw UTF-8 bytes to the digest.
	EncodingUTF8 Encoding = "utf-8"
	// EncodingUTF16 feeds big-endian UTF-16 with a leading byte-order mark,
	// matching hashes produced by older wide-character deployments.
	EncodingUTF16 Encoding = "utf-16"
)

type encodeFunc func(string) ([]byte, error)

func encoderFor(e Encoding) (encodeFunc, error) {
	switch e {
	case EncodingUTF8, "":
		return func(s string) ([]byte, error) { return []byte(s), nil }, nil
	case EncodingUTF16:
		enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
		return func(s string) ([]byte, error) {
			// an empty string carries no byte-order mark
			if s == "" {
				return nil, nil
			}
			return enc.NewEncoder().Bytes([]byte(s))
		}, nil
	default:
		return nil, errors.New("unsupported password encoding")
	}
}
