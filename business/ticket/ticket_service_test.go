//go:build !integration

package ticket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"borlette/business/catalog"
	"borlette/domain"
	"borlette/internal/repository/memory"

	"github.com/shopspring/decimal"
)

// 2026-03-02 03:00 UTC is still 2026-03-01 in the service timezone.
var (
	haiti    = time.FixedZone("HT", -5*60*60)
	fixedNow = time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
)

const drawDay = "2026-03-01"

type fixture struct {
	svc        *ticketService
	tickets    *memory.TicketRepository
	results    *memory.ResultRepository
	principals *memory.PrincipalRepository

	master, subsystem, sup2, sup1A, sup1B, agent1, agent2 domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		tickets:    memory.NewTicketRepository(),
		results:    memory.NewResultRepository(),
		principals: memory.NewPrincipalRepository(),
	}
	f.svc = NewTicketService(f.tickets, f.results, f.principals, memory.NewCounter(), catalog.Default(), haiti).
		WithClock(func() time.Time { return fixedNow })

	create := func(role domain.Role, username string, a domain.Ancestry) domain.Principal {
		p := domain.Principal{Role: role, Username: username, Password: "x", Ancestry: a, IsActive: true}
		if err := f.principals.Create(ctx, &p); err != nil {
			t.Fatalf("create %s: %v", username, err)
		}
		return p
	}

	f.master = create(domain.RoleMaster, "root", domain.Ancestry{})
	f.subsystem = create(domain.RoleSubsystem, "admin", domain.Ancestry{SubsystemID: 100})
	f.sup2 = create(domain.RoleSupervisor2, "s2", domain.Ancestry{SubsystemID: 100})
	f.sup1A = create(domain.RoleSupervisor1, "s1a", domain.Ancestry{Supervisor2ID: f.sup2.ID, SubsystemID: 100})
	f.sup1B = create(domain.RoleSupervisor1, "s1b", domain.Ancestry{Supervisor2ID: f.sup2.ID, SubsystemID: 100})
	f.agent1 = create(domain.RoleAgent, "a1", f.sup1A.ChildAncestry())
	f.agent2 = create(domain.RoleAgent, "a2", f.sup1B.ChildAncestry())
	return f
}

func borlette(number, amount string) domain.BetLine {
	return domain.BetLine{Type: domain.BetBorlette, Number: number, Amount: decimal.RequireFromString(amount)}
}

func (f *fixture) sell(t *testing.T, agent domain.Principal, draws []string, bets ...domain.BetLine) domain.Ticket {
	t.Helper()
	tk, err := f.svc.Create(context.Background(), agent, domain.TicketDraft{Draws: draws, DrawTime: domain.DrawMorning, Bets: bets})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return tk
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	tk := f.sell(t, f.agent1, []string{"miami", "newyork"}, borlette("45", "10"), borlette("12", "5"))

	if tk.ID == 0 || tk.TicketNumber != "00000001" || tk.Reference == "" {
		t.Errorf("identity not assigned: id=%d number=%q ref=%q", tk.ID, tk.TicketNumber, tk.Reference)
	}
	if !tk.Total.Equal(decimal.NewFromInt(30)) {
		t.Errorf("total = %s, want 30 (15 x 2 draws)", tk.Total)
	}
	if tk.Status != domain.TicketPending {
		t.Errorf("status = %s", tk.Status)
	}
	if tk.DrawDate != drawDay {
		t.Errorf("draw date = %s, want %s", tk.DrawDate, drawDay)
	}
	if tk.AgentID != f.agent1.ID || tk.Ancestry != f.agent1.Ancestry {
		t.Errorf("ancestry snapshot = %+v, want %+v", tk.Ancestry, f.agent1.Ancestry)
	}
	if len(tk.Bets[0].Multipliers) != 3 || tk.Bets[0].Multipliers[0] != 60 {
		t.Errorf("multipliers not snapshotted: %+v", tk.Bets[0])
	}

	next := f.sell(t, f.agent2, []string{"miami"}, borlette("01", "1"))
	if next.TicketNumber != "00000002" {
		t.Errorf("second ticket number = %s", next.TicketNumber)
	}
}

func TestCreate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grap := domain.BetLine{Type: domain.BetGrap, Number: "112", Amount: decimal.NewFromInt(1)}

	tests := []struct {
		name    string
		actor   domain.Principal
		draft   domain.TicketDraft
		wantErr any
	}{
		{"supervisor", f.sup1A, domain.TicketDraft{Draws: []string{"miami"}, DrawTime: domain.DrawMorning, Bets: []domain.BetLine{borlette("45", "1")}}, &domain.PermissionError{}},
		{"grap not repdigit", f.agent1, domain.TicketDraft{Draws: []string{"miami"}, DrawTime: domain.DrawMorning, Bets: []domain.BetLine{grap}}, &domain.ValidationError{}},
		{"no bets", f.agent1, domain.TicketDraft{Draws: []string{"miami"}, DrawTime: domain.DrawMorning}, &domain.ValidationError{}},
		{"no draws", f.agent1, domain.TicketDraft{DrawTime: domain.DrawMorning, Bets: []domain.BetLine{borlette("45", "1")}}, &domain.ValidationError{}},
		{"unknown draw", f.agent1, domain.TicketDraft{Draws: []string{"atlantis"}, DrawTime: domain.DrawMorning, Bets: []domain.BetLine{borlette("45", "1")}}, &domain.ValidationError{}},
		{"duplicate draw", f.agent1, domain.TicketDraft{Draws: []string{"miami", "miami"}, DrawTime: domain.DrawMorning, Bets: []domain.BetLine{borlette("45", "1")}}, &domain.ValidationError{}},
		{"bad slot", f.agent1, domain.TicketDraft{Draws: []string{"miami"}, DrawTime: "noon", Bets: []domain.BetLine{borlette("45", "1")}}, &domain.ValidationError{}},
		{"zero amount", f.agent1, domain.TicketDraft{Draws: []string{"miami"}, DrawTime: domain.DrawMorning, Bets: []domain.BetLine{borlette("45", "0")}}, &domain.ValidationError{}},
		{"unknown agent", domain.Principal{ID: 99, Role: domain.RoleAgent}, domain.TicketDraft{Draws: []string{"miami"}, DrawTime: domain.DrawMorning, Bets: []domain.BetLine{borlette("45", "1")}}, &domain.AuthError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.actor, tt.draft)
			if !sameErrorType(err, tt.wantErr) {
				t.Fatalf("err = %v (%T), want %T", err, err, tt.wantErr)
			}
		})
	}

	t.Run("inactive agent", func(t *testing.T) {
		if err := f.principals.SetActive(ctx, domain.RoleAgent, f.agent2.ID, false); err != nil {
			t.Fatal(err)
		}
		_, err := f.svc.Create(ctx, f.agent2, domain.TicketDraft{Draws: []string{"miami"}, DrawTime: domain.DrawMorning, Bets: []domain.BetLine{borlette("45", "1")}})
		var perr *domain.PermissionError
		if !errors.As(err, &perr) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})
}

func sameErrorType(err error, want any) bool {
	switch want.(type) {
	case *domain.PermissionError:
		var e *domain.PermissionError
		return errors.As(err, &e)
	case *domain.ValidationError:
		var e *domain.ValidationError
		return errors.As(err, &e)
	case *domain.NotFoundError:
		var e *domain.NotFoundError
		return errors.As(err, &e)
	case *domain.AuthError:
		var e *domain.AuthError
		return errors.As(err, &e)
	case *domain.ConflictError:
		var e *domain.ConflictError
		return errors.As(err, &e)
	}
	return false
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk := f.sell(t, f.agent1, []string{"miami"}, borlette("45", "10"))

	t.Run("agent cannot validate own ticket", func(t *testing.T) {
		_, err := f.svc.Validate(ctx, f.agent1, tk.ID)
		if !sameErrorType(err, &domain.PermissionError{}) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("out of scope supervisor sees not found", func(t *testing.T) {
		_, err := f.svc.Validate(ctx, f.sup1B, tk.ID)
		if !sameErrorType(err, &domain.NotFoundError{}) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("missing ticket", func(t *testing.T) {
		_, err := f.svc.Validate(ctx, f.master, 9999)
		if !sameErrorType(err, &domain.NotFoundError{}) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("in scope supervisor validates once", func(t *testing.T) {
		got, err := f.svc.Validate(ctx, f.sup1A, tk.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != domain.TicketValidated || got.ValidatedBy != f.sup1A.ID || got.ValidatorRole != "supervisor1" || got.ValidatedAt == nil {
			t.Errorf("validated ticket = %+v", got)
		}

		_, err = f.svc.Validate(ctx, f.sup2, tk.ID)
		if !sameErrorType(err, &domain.NotFoundError{}) {
			t.Fatalf("repeat validate err = %v, want NotFoundError", err)
		}
	})
}

func TestValidate_ConcurrentAtMostOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		tk := f.sell(t, f.agent1, []string{"miami"}, borlette("45", "1"))
		actors := []domain.Principal{f.sup1A, f.sup2, f.subsystem, f.master}

		var wg sync.WaitGroup
		errs := make(chan error, len(actors))
		for _, actor := range actors {
			wg.Add(1)
			go func(actor domain.Principal) {
				defer wg.Done()
				_, err := f.svc.Validate(ctx, actor, tk.ID)
				errs <- err
			}(actor)
		}
		wg.Wait()
		close(errs)

		successes, notFound := 0, 0
		for err := range errs {
			switch {
			case err == nil:
				successes++
			case sameErrorType(err, &domain.NotFoundError{}):
				notFound++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if successes != 1 || notFound != len(actors)-1 {
			t.Fatalf("round %d: successes=%d not_found=%d", round, successes, notFound)
		}
	}
}

func TestListScoped_NoLeakBetweenSupervisors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.sell(t, f.agent1, []string{"miami"}, borlette("45", "1"))
		f.sell(t, f.agent2, []string{"miami"}, borlette("12", "1"))
	}

	check := func(actor domain.Principal, wantAgent uint, want int) {
		t.Helper()
		got, err := f.svc.ListScoped(ctx, actor, ListQuery{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != want {
			t.Fatalf("%s sees %d tickets, want %d", actor.Username, len(got), want)
		}
		for _, tk := range got {
			if wantAgent != 0 && tk.AgentID != wantAgent {
				t.Fatalf("%s sees ticket %s of agent %d", actor.Username, tk.TicketNumber, tk.AgentID)
			}
		}
	}

	check(f.sup1A, f.agent1.ID, 3)
	check(f.sup1B, f.agent2.ID, 3)
	check(f.agent1, f.agent1.ID, 3)
	check(f.sup2, 0, 6)
	check(f.subsystem, 0, 6)
	check(f.master, 0, 6)
	check(domain.Principal{ID: 5, Role: domain.RoleUnknown}, 0, 0)
}

func TestListScoped_AncestrySnapshotSurvivesReassignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := f.sell(t, f.agent1, []string{"miami"}, borlette("45", "1"))

	moved := f.sup1B.ChildAncestry()
	if err := f.principals.UpdateAncestry(ctx, domain.RoleAgent, f.agent1.ID, moved); err != nil {
		t.Fatal(err)
	}
	fresh := f.sell(t, f.agent1, []string{"miami"}, borlette("45", "1"))

	if fresh.Supervisor1ID != f.sup1B.ID {
		t.Errorf("new ticket supervisor1 = %d, want %d", fresh.Supervisor1ID, f.sup1B.ID)
	}
	if _, err := f.svc.Get(ctx, f.sup1A, old.ID); err != nil {
		t.Errorf("original supervisor lost historical ticket: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.sup1A, fresh.ID); err == nil {
		t.Error("original supervisor sees ticket sold after reassignment")
	}
}

func TestListScoped_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.sell(t, f.agent1, []string{"miami"}, borlette("45", "1"))
	tk := f.sell(t, f.agent1, []string{"texas"}, borlette("45", "1"))
	if _, err := f.svc.Validate(ctx, f.master, tk.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		q    ListQuery
		want int
	}{
		{"today", ListQuery{Period: PeriodToday}, 2},
		{"yesterday", ListQuery{Period: PeriodYesterday}, 0},
		{"week", ListQuery{Period: PeriodWeek}, 2},
		{"draw", ListQuery{Draw: "texas"}, 1},
		{"status", ListQuery{Status: domain.TicketValidated}, 1},
		{"range", ListQuery{From: "2026-02-01", To: drawDay}, 2},
		{"agent", ListQuery{AgentID: f.agent2.ID}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.ListScoped(ctx, f.master, tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d tickets, want %d", len(got), tt.want)
			}
		})
	}

	pending, err := f.svc.Pending(ctx, f.sup1A)
	if err != nil || len(pending) != 1 {
		t.Errorf("pending = %d, %v", len(pending), err)
	}

	for _, bad := range []ListQuery{
		{Period: "decade"},
		{Period: PeriodToday, From: drawDay},
		{From: "01/03/2026"},
		{From: "2026-03-02", To: "2026-03-01"},
		{DrawTime: "noon"},
		{Status: "paid"},
		{Draw: "atlantis"},
	} {
		if _, err := f.svc.ListScoped(ctx, f.master, bad); !sameErrorType(err, &domain.ValidationError{}) {
			t.Errorf("query %+v: err = %v, want ValidationError", bad, err)
		}
	}
}

func TestPeriodRange(t *testing.T) {
	today := time.Date(2026, 3, 4, 12, 0, 0, 0, haiti)
	tests := []struct {
		period   string
		from, to string
	}{
		{PeriodToday, "2026-03-04", "2026-03-04"},
		{PeriodYesterday, "2026-03-03", "2026-03-03"},
		{PeriodWeek, "2026-02-26", "2026-03-04"},
		{PeriodMonth, "2026-03-01", "2026-03-04"},
	}
	for _, tt := range tests {
		from, to, err := PeriodRange(tt.period, today)
		if err != nil || from != tt.from || to != tt.to {
			t.Errorf("%s = %s..%s (%v), want %s..%s", tt.period, from, to, err, tt.from, tt.to)
		}
	}
}

func publish(t *testing.T, f *fixture, draw string, lot1, lot2, lot3 string) {
	t.Helper()
	err := f.results.Create(context.Background(), &domain.DrawResult{
		Draw: draw, DrawTime: domain.DrawMorning, DrawDate: drawDay,
		Lot1: lot1, Lot2: lot2, Lot3: lot3,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCheckWinners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	win1 := f.sell(t, f.agent1, []string{"miami"}, borlette("45", "10"))
	f.sell(t, f.agent1, []string{"miami"}, borlette("00", "10"))
	win2 := f.sell(t, f.agent2, []string{"newyork", "miami"},
		borlette("12", "5"),
		domain.BetLine{Type: domain.BetMarriage, Number: "45*99", Amount: decimal.NewFromInt(1)},
	)
	f.sell(t, f.agent2, []string{"texas"}, borlette("45", "10"))

	query := CheckQuery{Draw: "miami", DrawTime: domain.DrawMorning}

	t.Run("unpublished result", func(t *testing.T) {
		_, err := f.svc.CheckWinners(ctx, f.master, query)
		if !sameErrorType(err, &domain.NotFoundError{}) {
			t.Fatalf("err = %v", err)
		}
	})

	publish(t, f, "miami", "45", "12", "99")

	t.Run("master sees all winners", func(t *testing.T) {
		report, err := f.svc.CheckWinners(ctx, f.master, query)
		if err != nil {
			t.Fatal(err)
		}
		if report.TicketsChecked != 3 {
			t.Errorf("tickets checked = %d, want 3", report.TicketsChecked)
		}
		if len(report.Winners) != 2 {
			t.Fatalf("winners = %d, want 2", len(report.Winners))
		}
		if report.Winners[0].Ticket.ID != win1.ID || report.Winners[1].Ticket.ID != win2.ID {
			t.Errorf("winners not ordered by ticket number")
		}
		// 10x60 + 5x20 + 1x1000
		if !report.TotalWinnings.Equal(decimal.NewFromInt(1700)) {
			t.Errorf("total = %s, want 1700", report.TotalWinnings)
		}
	})

	t.Run("supervisor sees only own winners", func(t *testing.T) {
		report, err := f.svc.CheckWinners(ctx, f.sup1B, query)
		if err != nil {
			t.Fatal(err)
		}
		if len(report.Winners) != 1 || report.Winners[0].Ticket.AgentID != f.agent2.ID {
			t.Fatalf("winners = %+v", report.Winners)
		}
	})

	t.Run("invalid draw", func(t *testing.T) {
		_, err := f.svc.CheckWinners(ctx, f.master, CheckQuery{Draw: "atlantis", DrawTime: domain.DrawMorning})
		if !sameErrorType(err, &domain.ValidationError{}) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestMarkPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	winner := f.sell(t, f.agent1, []string{"miami"}, borlette("45", "10"))
	loser := f.sell(t, f.agent1, []string{"miami"}, borlette("00", "10"))
	publish(t, f, "miami", "45", "12", "99")

	if _, err := f.svc.MarkPaid(ctx, f.agent1, winner.ID); !sameErrorType(err, &domain.PermissionError{}) {
		t.Errorf("agent mark paid err = %v", err)
	}
	if _, err := f.svc.MarkPaid(ctx, f.sup1B, winner.ID); !sameErrorType(err, &domain.NotFoundError{}) {
		t.Errorf("out of scope mark paid err = %v", err)
	}
	if _, err := f.svc.MarkPaid(ctx, f.sup1A, loser.ID); !sameErrorType(err, &domain.ConflictError{}) {
		t.Errorf("losing ticket mark paid err = %v", err)
	}

	got, err := f.svc.MarkPaid(ctx, f.sup1A, winner.ID)
	if err != nil || !got.Paid {
		t.Fatalf("mark paid = %+v, %v", got, err)
	}
	if got.Status != domain.TicketPending {
		t.Errorf("paid flag changed status to %s", got.Status)
	}
	if _, err := f.svc.MarkPaid(ctx, f.sup1A, winner.ID); !sameErrorType(err, &domain.ConflictError{}) {
		t.Errorf("repeat mark paid err = %v", err)
	}
}
