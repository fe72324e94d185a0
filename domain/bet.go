package domain

import (
	"github.com/shopspring/decimal"
)

type BetType string

const (
	BetBorlette BetType = "borlette"
	BetBoulpe   BetType = "boulpe"
	BetLotto3   BetType = "lotto3"
	BetGrap     BetType = "grap"
	BetLotto4   BetType = "lotto4"
	BetLotto5   BetType = "lotto5"
	BetMarriage BetType = "marriage"
)

// Lotto4/lotto5 option identifiers. Option k pays Multipliers[k-1].
const (
	Option1 = "option1"
	Option2 = "option2"
	Option3 = "option3"
)

// MarriageSeparator is the canonical separator of the two marriage numbers.
const MarriageSeparator = "*"

// BetLine is a single line item of a ticket. It is immutable once the
// ticket is created; Multipliers is a snapshot of the catalog at that time.
type BetLine struct {
	Type        BetType         `json:"type"`
	Number      string          `json:"number"`
	Amount      decimal.Decimal `json:"amount"`
	Options     []string        `json:"options,omitempty"`
	Multipliers []int64         `json:"multipliers,omitempty"`
}

// HasOption reports whether the bettor selected the given option.
func (b BetLine) HasOption(option string) bool {
	for _, o := range b.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Multiplier returns the snapshotted multiplier for a 1-based tier, or zero.
func (b BetLine) Multiplier(tier int) int64 {
	if tier < 1 || tier > len(b.Multipliers) {
		return 0
	}
	return b.Multipliers[tier-1]
}
