package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// CurrentSchemaVersion is the binary layout written by Encode.
	CurrentSchemaVersion uint8 = 3
	schemaVersionV1      uint8 = 1
	// v2 stored the rank as int32.
	schemaVersionV2 uint8 = 2
)

const flagConfirmed byte = 1 << 0

// legacyRank is assigned to v1 sessions, which predate the rank field.
const legacyRank int64 = 100

// Encode serializes s in the current schema.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}

	var buf bytes.Buffer
	buf.WriteByte(CurrentSchemaVersion)

	if err := binary.Write(&buf, binary.BigEndian, s.UserID); err != nil {
		return nil, err
	}

	if len(s.Name) > 255 {
		return nil, errors.New("name too long")
	}
	buf.WriteByte(byte(len(s.Name)))
	buf.WriteString(s.Name)

	if len(s.Email) > 255 {
		return nil, errors.New("email too long")
	}
	buf.WriteByte(byte(len(s.Email)))
	buf.WriteString(s.Email)

	if err := binary.Write(&buf, binary.BigEndian, s.Rank); err != nil {
		return nil, err
	}

	var flags byte
	if s.Confirmed {
		flags |= flagConfirmed
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses any supported schema. The SessionID is not part of the blob;
// callers set it from the key.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version < schemaVersionV1 || version > CurrentSchemaVersion {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}

	s := &Session{SchemaVersion: version}

	if err := binary.Read(reader, binary.BigEndian, &s.UserID); err != nil {
		return nil, err
	}

	if s.Name, err = readString(reader); err != nil {
		return nil, err
	}
	if s.Email, err = readString(reader); err != nil {
		return nil, err
	}

	if version >= schemaVersionV2 {
		if version == schemaVersionV2 {
			var rank int32
			if err := binary.Read(reader, binary.BigEndian, &rank); err != nil {
				return nil, err
			}
			s.Rank = int64(rank)
		} else if err := binary.Read(reader, binary.BigEndian, &s.Rank); err != nil {
			return nil, err
		}
		flags, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		s.Confirmed = flags&flagConfirmed != 0
	} else {
		// v1 only stored logged-in accounts, which are always confirmed
		s.Rank = legacyRank
		s.Confirmed = true
	}

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	return s, nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
