package domain

import (
	"strings"

	"github.com/google/uuid"
)

// UID prefixes for public identifiers shown on certificates and stamps.
const (
	UIDPrefixRealEstate  = "RE"
	UIDPrefixAssociation = "AS"
	UIDPrefixNoProperty  = "NP"
	UIDPrefixAct         = "RA"
	UIDPrefixLandRecord  = "LR"
	UIDPrefixBook        = "BK"
	UIDPrefixBookEntry   = "BE"
	UIDPrefixTransaction = "TR"
)

// NewUID returns a public identifier such as "LR-7F3A9C21B4D0". The random
// part comes from a version 4 UUID; collisions are caught by unique indexes.
func NewUID(prefix string) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + raw[:12]
}
