package refresh

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

// CurrentSchemaVersion is the first byte of every encoded record.
const CurrentSchemaVersion = 1

// ErrRecordCorrupt is returned when a stored record fails to decode.
var ErrRecordCorrupt = errors.New("refresh record corrupt")

// Record is the stored state of one refresh token. The token value itself is
// never stored; records are keyed by its digest.
type Record struct {
	AccountID string
	TokenID   string
	Expires   time.Time
}

// Digest maps a raw token value to its storage key component. The digest is
// one-way, so a dumped keyspace yields no redeemable tokens.
func Digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Encode packs a record into the compact binary layout the rotation script
// parses in place:
//
//	[version:1][acctLen:1][acct][tokenIDLen:1][tokenID][expiresUnix:8 BE]
func Encode(r *Record) ([]byte, error) {
	if len(r.AccountID) == 0 || len(r.AccountID) > 255 {
		return nil, ErrRecordCorrupt
	}
	if len(r.TokenID) == 0 || len(r.TokenID) > 255 {
		return nil, ErrRecordCorrupt
	}

	buf := make([]byte, 0, 3+len(r.AccountID)+len(r.TokenID)+8)
	buf = append(buf, CurrentSchemaVersion)
	buf = append(buf, byte(len(r.AccountID)))
	buf = append(buf, r.AccountID...)
	buf = append(buf, byte(len(r.TokenID)))
	buf = append(buf, r.TokenID...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.Expires.Unix()))

	return buf, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (*Record, error) {
	if len(data) < 2 || data[0] != CurrentSchemaVersion {
		return nil, ErrRecordCorrupt
	}

	idx := 1
	acctLen := int(data[idx])
	idx++
	if acctLen == 0 || len(data) < idx+acctLen+1 {
		return nil, ErrRecordCorrupt
	}
	acct := string(data[idx : idx+acctLen])
	idx += acctLen

	tokenIDLen := int(data[idx])
	idx++
	if tokenIDLen == 0 || len(data) < idx+tokenIDLen+8 {
		return nil, ErrRecordCorrupt
	}
	tokenID := string(data[idx : idx+tokenIDLen])
	idx += tokenIDLen

	expires := int64(binary.BigEndian.Uint64(data[idx : idx+8]))

	return &Record{
		AccountID: acct,
		TokenID:   tokenID,
		Expires:   time.Unix(expires, 0).UTC(),
	}, nil
}
