//go:build !integration

package result

import (
	"context"
	"errors"
	"testing"
	"time"

	"borlette/business/catalog"
	"borlette/domain"
	"borlette/internal/repository/memory"

	"github.com/go-playground/validator/v10"
)

func newService() *resultService {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	return NewResultService(memory.NewResultRepository(), catalog.Default(), validator.New(), time.UTC).
		WithClock(func() time.Time { return now })
}

var admin = domain.Principal{ID: 3, Role: domain.RoleSubsystem, Ancestry: domain.Ancestry{SubsystemID: 100}}

func TestPublish(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	r, err := svc.Publish(ctx, admin, domain.DrawResult{Draw: "miami", DrawTime: domain.DrawEvening, Lot1: "123", Lot2: "45", Lot3: "67"})
	if err != nil {
		t.Fatal(err)
	}
	if r.ID == 0 || r.DrawDate != "2026-03-01" || r.PublishedBy != admin.ID || r.PublisherRole != "subsystem" {
		t.Errorf("published = %+v", r)
	}

	got, err := svc.Get(ctx, "miami", domain.DrawEvening, "2026-03-01")
	if err != nil || got.Lot1 != "123" {
		t.Fatalf("get = %+v, %v", got, err)
	}

	_, err = svc.Publish(ctx, admin, domain.DrawResult{Draw: "miami", DrawTime: domain.DrawEvening, Lot1: "999"})
	var cerr *domain.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("republish err = %v, want ConflictError", err)
	}

	list, err := svc.List(ctx, "")
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %d, %v", len(list), err)
	}
}

func TestPublish_Rejects(t *testing.T) {
	svc := newService()

	tests := []struct {
		name   string
		actor  domain.Principal
		result domain.DrawResult
		perm   bool
	}{
		{"supervisor", domain.Principal{ID: 1, Role: domain.RoleSupervisor2}, domain.DrawResult{Draw: "miami", DrawTime: domain.DrawMorning, Lot1: "12"}, true},
		{"agent", domain.Principal{ID: 1, Role: domain.RoleAgent}, domain.DrawResult{Draw: "miami", DrawTime: domain.DrawMorning, Lot1: "12"}, true},
		{"unknown draw", admin, domain.DrawResult{Draw: "atlantis", DrawTime: domain.DrawMorning, Lot1: "12"}, false},
		{"missing lot1", admin, domain.DrawResult{Draw: "miami", DrawTime: domain.DrawMorning}, false},
		{"lot too long", admin, domain.DrawResult{Draw: "miami", DrawTime: domain.DrawMorning, Lot1: "1234"}, false},
		{"lot not digits", admin, domain.DrawResult{Draw: "miami", DrawTime: domain.DrawMorning, Lot1: "1a"}, false},
		{"lot3 without lot2", admin, domain.DrawResult{Draw: "miami", DrawTime: domain.DrawMorning, Lot1: "12", Lot3: "34"}, false},
		{"bad date", admin, domain.DrawResult{Draw: "miami", DrawTime: domain.DrawMorning, DrawDate: "03/01/2026", Lot1: "12"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Publish(context.Background(), tt.actor, tt.result)
			if tt.perm {
				var perr *domain.PermissionError
				if !errors.As(err, &perr) {
					t.Fatalf("err = %v, want PermissionError", err)
				}
				return
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestGet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Publish(ctx, admin, domain.DrawResult{Draw: "georgia", DrawTime: domain.DrawMorning, Lot1: "45"}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx, "georgia", domain.DrawMorning, "")
	if err != nil || got.Lot1 != "45" {
		t.Fatalf("get today = %+v, %v", got, err)
	}

	_, err = svc.Get(ctx, "georgia", domain.DrawEvening, "")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("unpublished slot err = %v, want NotFoundError", err)
	}

	_, err = svc.Get(ctx, "georgia", "noon", "")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("bad slot err = %v, want ValidationError", err)
	}
}
