// Package seal computes the digest of a closed land record and signs it with
// the office credentials.
package seal

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const textHeader = "landrec-seal/v1"

// CanonicalText is the exact text a seal covers: the transaction UID, the land
// record UID and the recording act UIDs in land record index order. Any change
// to an act identifier or to the order changes the text.
func CanonicalText(transactionUID, landRecordUID string, actUIDs []string) string {
	var b strings.Builder
	b.WriteString(textHeader)
	b.WriteString("\ntransaction:")
	b.WriteString(transactionUID)
	b.WriteString("\nland_record:")
	b.WriteString(landRecordUID)
	b.WriteString("\nacts:")
	b.WriteString(strconv.Itoa(len(actUIDs)))
	for i, uid := range actUIDs {
		b.WriteString("\nact.")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(":")
		b.WriteString(uid)
	}
	b.WriteString("\n")
	return b.String()
}

// Digest returns the hex SHA-256 of the canonical text.
func Digest(transactionUID, landRecordUID string, actUIDs []string) string {
	sum := sha256.Sum256([]byte(CanonicalText(transactionUID, landRecordUID, actUIDs)))
	return hex.EncodeToString(sum[:])
}
