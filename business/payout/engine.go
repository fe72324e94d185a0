// Package payout matches bet lines against published draw results.
//
// Everything here is pure: no I/O, no clock, no randomness. Identical
// inputs always yield identical outcomes, which is what makes a winnings
// report reproducible after the fact.
package payout

import (
	"strings"

	"borlette/domain"

	"github.com/shopspring/decimal"
)

// WinOutcome is one winning line of a ticket.
type WinOutcome struct {
	// LineIndex is the position of the line within its ticket.
	LineIndex int             `json:"line_index"`
	Line      domain.BetLine  `json:"line"`
	Tier      int             `json:"tier"`
	Options   []string        `json:"options,omitempty"`
	Payout    decimal.Decimal `json:"payout"`
}

// TicketOutcome aggregates the winning lines of one ticket.
type TicketOutcome struct {
	TicketID      uint            `json:"ticket_id"`
	TotalWinnings decimal.Decimal `json:"total_winnings"`
	WinningLines  []WinOutcome    `json:"winning_lines"`
}

func (o TicketOutcome) Won() bool {
	return len(o.WinningLines) > 0
}

// Evaluate returns the outcome of a single bet line, and false when it
// does not win. Payouts use the multipliers snapshotted on the line.
func Evaluate(bet domain.BetLine, result domain.DrawResult) (WinOutcome, bool) {
	lots := result.Lots()

	switch bet.Type {
	case domain.BetBorlette, domain.BetBoulpe:
		return evaluateTiered(bet, lots)
	case domain.BetLotto3, domain.BetGrap:
		if lots[0] != "" && bet.Number == lots[0] {
			return win(bet, 1, nil, bet.Multiplier(1))
		}
	case domain.BetLotto4, domain.BetLotto5:
		return evaluateOptions(bet, lots)
	case domain.BetMarriage:
		return evaluateMarriage(bet, lots)
	}

	return WinOutcome{}, false
}

// EvaluateTicket evaluates every line of t against r. A ticket that does
// not play r's draw, slot and date wins nothing.
func EvaluateTicket(t domain.Ticket, r domain.DrawResult) TicketOutcome {
	outcome := TicketOutcome{TicketID: t.ID, TotalWinnings: decimal.Zero}
	if !t.HasDraw(r.Draw) || t.DrawTime != r.DrawTime || t.DrawDate != r.DrawDate {
		return outcome
	}

	for i, line := range t.Bets {
		w, ok := Evaluate(line, r)
		if !ok {
			continue
		}
		w.LineIndex = i
		outcome.WinningLines = append(outcome.WinningLines, w)
		outcome.TotalWinnings = outcome.TotalWinnings.Add(w.Payout)
	}
	return outcome
}

// evaluateTiered pays the first lot, in order lot1, lot2, lot3, whose last
// two digits equal the number. A line wins at most once.
func evaluateTiered(bet domain.BetLine, lots [3]string) (WinOutcome, bool) {
	for i, lot := range lots {
		if lot == "" || tail2(lot) != bet.Number {
			continue
		}
		tier := i + 1
		if m := bet.Multiplier(tier); m > 0 {
			return win(bet, tier, nil, m)
		}
	}
	return WinOutcome{}, false
}

// evaluateOptions sums the multipliers of every selected option whose
// target matches. Option k's target concatenates the two-digit tails of the
// lots starting at lot k, wrapping around, truncated to the number's length.
func evaluateOptions(bet domain.BetLine, lots [3]string) (WinOutcome, bool) {
	digits := len(bet.Number)
	var total int64
	var matched []string
	firstTier := 0

	for tier := 1; tier <= len(bet.Multipliers) && tier <= len(lots); tier++ {
		option := optionName(tier)
		if !bet.HasOption(option) {
			continue
		}
		target := accumulate(lots, tier-1, digits)
		if target == "" || target != bet.Number {
			continue
		}
		total += bet.Multiplier(tier)
		matched = append(matched, option)
		if firstTier == 0 {
			firstTier = tier
		}
	}

	if len(matched) == 0 {
		return WinOutcome{}, false
	}
	return win(bet, firstTier, matched, total)
}

func evaluateMarriage(bet domain.BetLine, lots [3]string) (WinOutcome, bool) {
	left, right, ok := strings.Cut(bet.Number, domain.MarriageSeparator)
	if !ok {
		return WinOutcome{}, false
	}

	for i := 0; i < len(lots); i++ {
		for j := i + 1; j < len(lots); j++ {
			if lots[i] == "" || lots[j] == "" {
				continue
			}
			a, b := tail2(lots[i]), tail2(lots[j])
			if (left == a && right == b) || (left == b && right == a) {
				return win(bet, 1, nil, bet.Multiplier(1))
			}
		}
	}
	return WinOutcome{}, false
}

// AccumulatedTarget exposes the lotto4/lotto5 target for an option tier,
// mainly for result displays.
func AccumulatedTarget(result domain.DrawResult, tier, digits int) string {
	if tier < 1 || tier > 3 {
		return ""
	}
	return accumulate(result.Lots(), tier-1, digits)
}

func accumulate(lots [3]string, start, digits int) string {
	var sb strings.Builder
	for i := 0; i < len(lots) && sb.Len() < digits; i++ {
		lot := lots[(start+i)%len(lots)]
		if lot == "" {
			break
		}
		sb.WriteString(tail2(lot))
	}
	s := sb.String()
	if len(s) < digits {
		return ""
	}
	return s[:digits]
}

func tail2(lot string) string {
	if len(lot) <= 2 {
		return lot
	}
	return lot[len(lot)-2:]
}

func optionName(tier int) string {
	switch tier {
	case 1:
		return domain.Option1
	case 2:
		return domain.Option2
	case 3:
		return domain.Option3
	default:
		return ""
	}
}

func win(bet domain.BetLine, tier int, options []string, multiplier int64) (WinOutcome, bool) {
	if multiplier <= 0 {
		return WinOutcome{}, false
	}
	return WinOutcome{
		Line:    bet,
		Tier:    tier,
		Options: options,
		Payout:  bet.Amount.Mul(decimal.NewFromInt(multiplier)),
	}, true
}
