package duplicateKeys

import (
	"strings"

	"github.com/novonordisk-research/vcf-parser/models/constants"
)

// Resolution applied when one annotation field carries
// several entries for the same join key.
const (
	Unknown   constants.DuplicateKeyPolicy = ""
	LastWins  constants.DuplicateKeyPolicy = "last"
	FirstWins constants.DuplicateKeyPolicy = "first"
	Reject    constants.DuplicateKeyPolicy = "reject"
)

func CastToDuplicateKeyPolicy(text string) constants.DuplicateKeyPolicy {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "last", "last-wins":
		return LastWins
	case "first", "first-wins":
		return FirstWins
	case "reject", "error":
		return Reject
	default:
		return Unknown
	}
}
