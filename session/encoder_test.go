package session

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

func TestEncodeDecodeCurrentSchema(t *testing.T) {
	in := &Session{
		SessionID: "ignored",
		UserID:    42,
		Name:      "alice",
		Email:     "alice@example.com",
		Rank:      400,
		Confirmed: true,
		CreatedAt: 1700000000,
		ExpiresAt: 1700003600,
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if data[0] != CurrentSchemaVersion {
		t.Fatalf("expected schema %d, got %d", CurrentSchemaVersion, data[0])
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.SessionID != "" {
		t.Fatal("session id is not part of the blob")
	}
	if out.UserID != 42 || out.Name != "alice" || out.Email != "alice@example.com" ||
		out.Rank != 400 || !out.Confirmed || out.CreatedAt != in.CreatedAt || out.ExpiresAt != in.ExpiresAt {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func legacyV1Blob(userID int64, name, email string, createdAt, expiresAt int64) []byte {
	var buf bytes.Buffer
	buf.WriteByte(schemaVersionV1)
	_ = binary.Write(&buf, binary.BigEndian, userID)
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	buf.WriteByte(byte(len(email)))
	buf.WriteString(email)
	_ = binary.Write(&buf, binary.BigEndian, createdAt)
	_ = binary.Write(&buf, binary.BigEndian, expiresAt)
	return buf.Bytes()
}

func TestDecodeLegacyV1(t *testing.T) {
	out, err := Decode(legacyV1Blob(7, "bob", "bob@example.com", 10, 20))
	if err != nil {
		t.Fatalf("decode v1: %v", err)
	}
	if out.SchemaVersion != schemaVersionV1 || out.Rank != legacyRank || !out.Confirmed {
		t.Fatalf("unexpected v1 defaults: %+v", out)
	}
	if out.UserID != 7 || out.Email != "bob@example.com" || out.ExpiresAt != 20 {
		t.Fatalf("unexpected v1 fields: %+v", out)
	}
}

func TestDecodeLegacyV2(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(schemaVersionV2)
	_ = binary.Write(&buf, binary.BigEndian, int64(8))
	buf.WriteByte(3)
	buf.WriteString("eve")
	buf.WriteByte(15)
	buf.WriteString("eve@example.com")
	_ = binary.Write(&buf, binary.BigEndian, int32(400))
	buf.WriteByte(0)
	_ = binary.Write(&buf, binary.BigEndian, int64(10))
	_ = binary.Write(&buf, binary.BigEndian, int64(20))

	out, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("decode v2: %v", err)
	}
	if out.SchemaVersion != schemaVersionV2 || out.Rank != 400 || out.Confirmed || out.ExpiresAt != 20 {
		t.Fatalf("unexpected v2 session: %+v", out)
	}
}

func TestEncodeKeepsRankBeyondInt32(t *testing.T) {
	in := &Session{UserID: 1, Rank: math.MaxInt32 + 1, CreatedAt: 1, ExpiresAt: 2}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Rank != in.Rank {
		t.Fatalf("rank = %d, want %d", out.Rank, in.Rank)
	}
}

func TestDecodeRejectsUnsupportedSchemaVersion(t *testing.T) {
	_, err := Decode([]byte{99})
	if err == nil || !strings.Contains(err.Error(), "unsupported session schema version") {
		t.Fatalf("expected unsupported schema version error, got %v", err)
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	data, err := Encode(&Session{UserID: 1, Name: "n", Email: "e@example.com", CreatedAt: 1, ExpiresAt: 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < len(data); i++ {
		if _, err := Decode(data[:i]); err == nil {
			t.Fatalf("expected error for %d-byte prefix", i)
		}
	}
}

func TestEncodeRejectsOversizedFields(t *testing.T) {
	if _, err := Encode(&Session{Name: strings.Repeat("x", 256)}); err == nil {
		t.Fatal("expected name length error")
	}
	if _, err := Encode(&Session{Email: strings.Repeat("x", 256)}); err == nil {
		t.Fatal("expected email length error")
	}
	if _, err := Encode(nil); err == nil {
		t.Fatal("expected nil session error")
	}
}

func FuzzSessionDecode(f *testing.F) {
	encoded, err := Encode(&Session{UserID: 1, Name: "user1", Email: "u@example.com", Rank: 100, CreatedAt: 1700000000, ExpiresAt: 1700003600})
	if err == nil {
		f.Add(encoded)
	}
	f.Add(legacyV1Blob(1, "a", "b", 1, 2))
	f.Add([]byte{})
	f.Add([]byte{CurrentSchemaVersion})

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if _, err := Encode(s); err != nil {
			t.Fatalf("decoded session failed to re-encode: %v", err)
		}
	})
}
