package catalog

import (
	"fmt"
	"strings"

	"borlette/domain"

	"github.com/go-playground/validator/v10"
)

// Entry describes one bet type: how many digits a number has, the payout
// multiplier of each tier (or option), and the extra pattern constraints.
type Entry struct {
	Type        domain.BetType `json:"type"`
	Digits      int            `json:"digits"`
	Multipliers []int64        `json:"multipliers"`
	// Options means the bettor selects option1..optionN, one per multiplier.
	Options bool `json:"options"`
	// Repdigit requires every digit of the number to be identical.
	Repdigit bool `json:"repdigit"`
	// Pair means the number is two Digits-long numbers joined by a separator.
	Pair bool `json:"pair"`
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	order    []domain.BetType
	entries  map[domain.BetType]Entry
	draws    []domain.Draw
	validate *validator.Validate
}

var defaultEntries = []Entry{
	{Type: domain.BetBorlette, Digits: 2, Multipliers: []int64{60, 20, 10}},
	{Type: domain.BetBoulpe, Digits: 2, Multipliers: []int64{60, 20, 10}, Repdigit: true},
	{Type: domain.BetLotto3, Digits: 3, Multipliers: []int64{500}},
	{Type: domain.BetGrap, Digits: 3, Multipliers: []int64{500}, Repdigit: true},
	{Type: domain.BetLotto4, Digits: 4, Multipliers: []int64{5000, 2500, 1000}, Options: true},
	{Type: domain.BetLotto5, Digits: 5, Multipliers: []int64{25000, 12500, 5000}, Options: true},
	{Type: domain.BetMarriage, Digits: 2, Multipliers: []int64{1000}, Pair: true},
}

var bothSlots = []domain.DrawTime{domain.DrawMorning, domain.DrawEvening}

var defaultDraws = []domain.Draw{
	{ID: "miami", Name: "Miami", Slots: bothSlots},
	{ID: "newyork", Name: "New York", Slots: bothSlots},
	{ID: "georgia", Name: "Georgia", Slots: bothSlots},
	{ID: "florida", Name: "Florida", Slots: bothSlots},
	{ID: "tennessee", Name: "Tennessee", Slots: bothSlots},
	{ID: "texas", Name: "Texas", Slots: bothSlots},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultEntries, defaultDraws)
	if err != nil {
		panic(err)
	}
	return c
}

func New(entries []Entry, draws []domain.Draw) (*Catalog, error) {
	c := &Catalog{
		entries:  make(map[domain.BetType]Entry, len(entries)),
		validate: validator.New(),
	}
	for _, e := range entries {
		if e.Digits <= 0 || len(e.Multipliers) == 0 {
			return nil, fmt.Errorf("catalog entry %s: digits and multipliers are required", e.Type)
		}
		for _, m := range e.Multipliers {
			if m <= 0 {
				return nil, fmt.Errorf("catalog entry %s: multipliers must be positive", e.Type)
			}
		}
		if _, dup := c.entries[e.Type]; dup {
			return nil, fmt.Errorf("catalog entry %s: duplicate", e.Type)
		}
		e.Multipliers = append([]int64(nil), e.Multipliers...)
		c.entries[e.Type] = e
		c.order = append(c.order, e.Type)
	}
	for _, d := range draws {
		if d.ID == "" || len(d.Slots) == 0 {
			return nil, fmt.Errorf("draw %q: id and slots are required", d.ID)
		}
		for _, s := range d.Slots {
			if !s.Valid() {
				return nil, fmt.Errorf("draw %s: unknown slot %q", d.ID, s)
			}
		}
		d.Slots = append([]domain.DrawTime(nil), d.Slots...)
		c.draws = append(c.draws, d)
	}
	return c, nil
}

func (c *Catalog) Entry(t domain.BetType) (Entry, bool) {
	e, ok := c.entries[t]
	if !ok {
		return Entry{}, false
	}
	e.Multipliers = append([]int64(nil), e.Multipliers...)
	return e, true
}

func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, t := range c.order {
		e, _ := c.Entry(t)
		out = append(out, e)
	}
	return out
}

func (c *Catalog) Draw(id string) (domain.Draw, bool) {
	for _, d := range c.draws {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Draw{}, false
}

func (c *Catalog) Draws() []domain.Draw {
	return append([]domain.Draw(nil), c.draws...)
}

// ValidateSlot checks that draw exists and runs at slot.
func (c *Catalog) ValidateSlot(draw string, slot domain.DrawTime) error {
	d, ok := c.Draw(draw)
	if !ok {
		return &domain.ValidationError{Field: "draw", Message: fmt.Sprintf("unknown draw %q", draw)}
	}
	if !d.HasSlot(slot) {
		return &domain.ValidationError{Field: "draw_time", Message: fmt.Sprintf("draw %s has no %q slot", draw, slot)}
	}
	return nil
}

// Validate checks a line against its bet type and returns the normalized
// line with the catalog multipliers snapshotted onto it. field prefixes the
// ValidationError field, e.g. "bets[2]".
func (c *Catalog) Validate(field string, line domain.BetLine) (domain.BetLine, error) {
	entry, ok := c.entries[line.Type]
	if !ok {
		return domain.BetLine{}, &domain.ValidationError{Field: field + ".type", Message: fmt.Sprintf("unsupported bet type %q", line.Type)}
	}

	if !line.Amount.IsPositive() {
		return domain.BetLine{}, &domain.ValidationError{Field: field + ".amount", Message: "amount must be greater than zero"}
	}
	if !line.Amount.Round(2).Equal(line.Amount) {
		return domain.BetLine{}, &domain.ValidationError{Field: field + ".amount", Message: "amount has more than two decimals"}
	}

	number, err := c.normalizeNumber(entry, strings.TrimSpace(line.Number))
	if err != nil {
		return domain.BetLine{}, &domain.ValidationError{Field: field + ".number", Message: err.Error()}
	}

	options, err := normalizeOptions(entry, line.Options)
	if err != nil {
		return domain.BetLine{}, &domain.ValidationError{Field: field + ".options", Message: err.Error()}
	}

	return domain.BetLine{
		Type:        entry.Type,
		Number:      number,
		Amount:      line.Amount,
		Options:     options,
		Multipliers: append([]int64(nil), entry.Multipliers...),
	}, nil
}

func (c *Catalog) normalizeNumber(entry Entry, number string) (string, error) {
	if entry.Pair {
		left, right, ok := splitPair(number)
		if !ok {
			return "", fmt.Errorf("%s number must be two %d-digit numbers joined by %q", entry.Type, entry.Digits, domain.MarriageSeparator)
		}
		for _, part := range []string{left, right} {
			if err := c.checkDigits(entry, part); err != nil {
				return "", err
			}
		}
		return left + domain.MarriageSeparator + right, nil
	}

	if err := c.checkDigits(entry, number); err != nil {
		return "", err
	}
	if entry.Repdigit && !isRepdigit(number) {
		return "", fmt.Errorf("%s number must repeat a single digit", entry.Type)
	}
	return number, nil
}

func (c *Catalog) checkDigits(entry Entry, number string) error {
	if err := c.validate.Var(number, fmt.Sprintf("required,number,len=%d", entry.Digits)); err != nil {
		return fmt.Errorf("%s number must be exactly %d digits", entry.Type, entry.Digits)
	}
	return nil
}

func normalizeOptions(entry Entry, options []string) ([]string, error) {
	if !entry.Options {
		if len(options) > 0 {
			return nil, fmt.Errorf("%s does not take options", entry.Type)
		}
		return nil, nil
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%s requires at least one option", entry.Type)
	}

	seen := make(map[string]bool, len(options))
	out := make([]string, 0, len(options))
	for _, o := range options {
		o = strings.ToLower(strings.TrimSpace(o))
		tier := OptionTier(o)
		if tier < 1 || tier > len(entry.Multipliers) {
			return nil, fmt.Errorf("unsupported option %q", o)
		}
		if seen[o] {
			return nil, fmt.Errorf("option %q selected twice", o)
		}
		seen[o] = true
		out = append(out, o)
	}
	return out, nil
}

// OptionTier maps "option1".."option3" to 1..3, anything else to 0.
func OptionTier(option string) int {
	switch option {
	case domain.Option1:
		return 1
	case domain.Option2:
		return 2
	case domain.Option3:
		return 3
	default:
		return 0
	}
}

func splitPair(number string) (string, string, bool) {
	for _, sep := range []string{domain.MarriageSeparator, "x", "X", "-"} {
		if left, right, ok := strings.Cut(number, sep); ok {
			return strings.TrimSpace(left), strings.TrimSpace(right), true
		}
	}
	return "", "", false
}

func isRepdigit(number string) bool {
	for i := 1; i < len(number); i++ {
		if number[i] != number[0] {
			return false
		}
	}
	return len(number) > 0
}
