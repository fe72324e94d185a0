//go:build !integration

package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"borlette/business/ticket"
	"borlette/domain"
	"borlette/internal/middleware"

	"github.com/labstack/echo/v4"
)

type stubTicketService struct {
	TicketService
	draft domain.TicketDraft
	query ticket.ListQuery
}

func (s *stubTicketService) Create(_ context.Context, actor domain.Principal, draft domain.TicketDraft) (domain.Ticket, error) {
	s.draft = draft
	return domain.Ticket{ID: 1, AgentID: actor.ID, TicketNumber: "00000001"}, nil
}

func (s *stubTicketService) ListScoped(_ context.Context, _ domain.Principal, q ticket.ListQuery) ([]domain.Ticket, error) {
	s.query = q
	return nil, nil
}

func agentContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextPrincipal, domain.Principal{ID: 4, Role: domain.RoleAgent})
	return c, rec
}

func TestTicketHandler_Create(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		draws []string
		lines int
	}{
		{"draws and bets", `{"draws":["miami","texas"],"drawTime":"morning","bets":[{"type":"borlette","number":"12","amount":5}]}`, []string{"miami", "texas"}, 1},
		{"single draw and lineItems", `{"draw":"miami","drawTime":"morning","lineItems":[{"type":"lotto4","number":"1234","amount":"2.50","options":["option1"]},{"type":"borlette","number":"7","amount":1}]}`, []string{"miami"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubTicketService{}
			h := NewTicketHandler(svc, time.Second)
			c, rec := agentContext(http.MethodPost, "/tickets", tt.body)

			if err := h.Create(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d", rec.Code)
			}
			if strings.Join(svc.draft.Draws, ",") != strings.Join(tt.draws, ",") {
				t.Errorf("draws = %v, want %v", svc.draft.Draws, tt.draws)
			}
			if len(svc.draft.Bets) != tt.lines || svc.draft.DrawTime != domain.DrawMorning {
				t.Errorf("draft = %+v", svc.draft)
			}
		})
	}

	t.Run("decimal amount kept exact", func(t *testing.T) {
		svc := &stubTicketService{}
		c, _ := agentContext(http.MethodPost, "/tickets", `{"draw":"miami","drawTime":"morning","bets":[{"type":"borlette","number":"12","amount":"0.10"}]}`)
		if err := NewTicketHandler(svc, time.Second).Create(c); err != nil {
			t.Fatal(err)
		}
		if got := svc.draft.Bets[0].Amount.String(); got != "0.1" {
			t.Errorf("amount = %s", got)
		}
	})

	t.Run("missing drawTime reports json field", func(t *testing.T) {
		c, _ := agentContext(http.MethodPost, "/tickets", `{"draw":"miami","bets":[]}`)
		err := NewTicketHandler(&stubTicketService{}, time.Second).Create(c)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Field != "drawTime" {
			t.Fatalf("err = %v, want ValidationError on drawTime", err)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(`{}`))
		c := e.NewContext(req, httptest.NewRecorder())
		var aerr *domain.AuthError
		if err := NewTicketHandler(&stubTicketService{}, time.Second).Create(c); !errors.As(err, &aerr) {
			t.Fatalf("err = %v, want AuthError", err)
		}
	})
}

func TestTicketHandler_ListQuery(t *testing.T) {
	svc := &stubTicketService{}
	h := NewTicketHandler(svc, time.Second)

	c, rec := agentContext(http.MethodGet, "/tickets?period=week&draw=miami&drawTime=evening&status=pending&agentId=9", "")
	if err := h.List(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := ticket.ListQuery{Period: "week", Draw: "miami", DrawTime: domain.DrawEvening, Status: domain.TicketPending, AgentID: 9}
	if svc.query != want {
		t.Errorf("query = %+v, want %+v", svc.query, want)
	}

	c, _ = agentContext(http.MethodGet, "/tickets?agentId=abc", "")
	var verr *domain.ValidationError
	if err := h.List(c); !errors.As(err, &verr) || verr.Field != "agentId" {
		t.Fatalf("err = %v, want ValidationError on agentId", err)
	}
}
