package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type TicketStatus string

const (
	TicketPending   TicketStatus = "pending"
	TicketValidated TicketStatus = "validated"
)

type DrawTime string

const (
	DrawMorning DrawTime = "morning"
	DrawEvening DrawTime = "evening"
)

func (d DrawTime) Valid() bool {
	return d == DrawMorning || d == DrawEvening
}

// DateLayout is the format of DrawDate and result dates.
const DateLayout = "2006-01-02"

// CREATE TABLE tickets (
//     id              BIGSERIAL PRIMARY KEY,
//     reference       UUID UNIQUE NOT NULL,
//     ticket_number   TEXT UNIQUE NOT NULL,
//     agent_id        BIGINT NOT NULL,
//     supervisor1_id  BIGINT, supervisor2_id BIGINT, subsystem_id BIGINT,
//     draws           JSONB NOT NULL,
//     draw_time       TEXT NOT NULL,
//     draw_date       TEXT NOT NULL,   -- YYYY-MM-DD
//     bets            JSONB NOT NULL,
//     total           DECIMAL(18,2) NOT NULL,
//     status          TEXT NOT NULL DEFAULT 'pending',
//     ...
// );

// Ticket is created by an agent. The ancestry columns are a snapshot of the
// agent's chain at creation and are never recomputed.
type Ticket struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Reference     string `json:"reference" gorm:"column:reference;uniqueIndex;not null"`
	TicketNumber  string `json:"ticket_number" gorm:"column:ticket_number;uniqueIndex;not null"`
	AgentID       uint   `json:"agent_id" gorm:"column:agent_id;index;not null"`
	Ancestry      `gorm:"embedded"`
	Draws         datatypes.JSONSlice[string]  `json:"draws" gorm:"column:draws;type:jsonb;not null"`
	DrawTime      DrawTime                     `json:"draw_time" gorm:"column:draw_time;not null"`
	DrawDate      string                       `json:"draw_date" gorm:"column:draw_date;index;not null"`
	Bets          datatypes.JSONSlice[BetLine] `json:"bets" gorm:"column:bets;type:jsonb;not null"`
	Total         decimal.Decimal              `json:"total" gorm:"column:total;type:decimal(18,2);not null"`
	Status        TicketStatus                 `json:"status" gorm:"column:status;index;not null;default:pending"`
	ValidatedBy   uint                         `json:"validated_by,omitempty" gorm:"column:validated_by"`
	ValidatorRole string                       `json:"validator_role,omitempty" gorm:"column:validator_role"`
	ValidatedAt   *time.Time                   `json:"validated_at,omitempty" gorm:"column:validated_at"`
	Paid          bool                         `json:"paid" gorm:"column:paid;default:false"`
	CreatedAt     time.Time                    `json:"created_at"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// HasDraw reports whether the ticket plays the given draw.
func (t Ticket) HasDraw(draw string) bool {
	for _, d := range t.Draws {
		if d == draw {
			return true
		}
	}
	return false
}

// TicketDraft is what an agent submits.
type TicketDraft struct {
	Draws    []string
	DrawTime DrawTime
	Bets     []BetLine
}

// TicketBuilder assembles a Ticket, capturing the issuing agent's ancestry
// when the builder is created.
type TicketBuilder struct {
	t Ticket
}

func NewTicketBuilder(agent Principal) *TicketBuilder {
	return &TicketBuilder{t: Ticket{
		AgentID:  agent.ID,
		Ancestry: agent.Ancestry,
		Status:   TicketPending,
	}}
}

func (b *TicketBuilder) Number(n string) *TicketBuilder {
	b.t.TicketNumber = n
	return b
}

func (b *TicketBuilder) Reference(ref string) *TicketBuilder {
	b.t.Reference = ref
	return b
}

func (b *TicketBuilder) Draws(draws ...string) *TicketBuilder {
	b.t.Draws = append(datatypes.JSONSlice[string]{}, draws...)
	return b
}

func (b *TicketBuilder) DrawTime(d DrawTime) *TicketBuilder {
	b.t.DrawTime = d
	return b
}

func (b *TicketBuilder) DrawDate(date string) *TicketBuilder {
	b.t.DrawDate = date
	return b
}

func (b *TicketBuilder) CreatedAt(at time.Time) *TicketBuilder {
	b.t.CreatedAt = at
	return b
}

func (b *TicketBuilder) Bet(line BetLine) *TicketBuilder {
	b.t.Bets = append(b.t.Bets, line)
	return b
}

// Build computes the total stake: the sum of line amounts multiplied by the
// number of selected draws.
func (b *TicketBuilder) Build() (Ticket, error) {
	if b.t.AgentID == 0 {
		return Ticket{}, errors.New("ticket has no issuing agent")
	}
	if len(b.t.Draws) == 0 {
		return Ticket{}, &ValidationError{Field: "draws", Message: "at least one draw is required"}
	}
	if len(b.t.Bets) == 0 {
		return Ticket{}, &ValidationError{Field: "bets", Message: "at least one bet is required"}
	}

	sum := decimal.Zero
	for _, line := range b.t.Bets {
		sum = sum.Add(line.Amount)
	}
	total := sum.Mul(decimal.NewFromInt(int64(len(b.t.Draws))))
	if !total.IsPositive() {
		return Ticket{}, &ValidationError{Field: "bets", Message: "total stake must be greater than zero"}
	}

	t := b.t
	t.Total = total
	t.Draws = append(datatypes.JSONSlice[string]{}, b.t.Draws...)
	t.Bets = append(datatypes.JSONSlice[BetLine]{}, b.t.Bets...)
	return t, nil
}

// TicketFilter narrows a scoped ticket listing. Zero fields do not filter.
// From and To are inclusive draw dates in DateLayout.
type TicketFilter struct {
	Draw     string
	DrawTime DrawTime
	Status   TicketStatus
	AgentID  uint
	From     string
	To       string
}
