package engine

import (
	"errors"
	"math"
	"testing"
)

func TestLoanRoundTrip(t *testing.T) {
	e := newTestEngine(t, nil)
	p := &e.state.Players[0]

	if err := e.TakeLoan("u1", 500); err != nil {
		t.Fatalf("TakeLoan: %v", err)
	}
	if p.Cash != 3500 || p.LoanDebt != 500 || p.Expenses != 2050 || p.Cashflow != 950 {
		t.Errorf("unexpected player after loan: %+v", p)
	}

	if err := e.RepayLoan("u1", 500); err != nil {
		t.Fatalf("RepayLoan: %v", err)
	}
	if p.Cash != 3000 || p.LoanDebt != 0 || p.Expenses != 2000 || p.Cashflow != 1000 {
		t.Errorf("unexpected player after repayment: %+v", p)
	}
}

func TestLoansAreNotTurnGated(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.TakeLoan("u2", 1000); err != nil {
		t.Fatalf("expected off-turn loan to succeed: %v", err)
	}
}

func TestTakeLoanRejects(t *testing.T) {
	huge := (math.MaxInt / 100) * 100

	tests := []struct {
		name     string
		userID   string
		amount   int
		debt     int
		uncapped bool
		want     error
	}{
		{"zero", "u1", 0, 0, false, ErrInvalidLoanAmount},
		{"negative", "u1", -100, 0, false, ErrInvalidLoanAmount},
		{"not a multiple", "u1", 150, 0, false, ErrInvalidLoanAmount},
		{"over the cap", "u1", 1000, 199500, false, ErrLoanCapExceeded},
		{"debt plus amount overflows", "u1", huge, 100, false, ErrLoanCapExceeded},
		{"uncapped past the debt limit", "u1", MaxLoanDebt + 100, 0, true, ErrLoanCapExceeded},
		{"uncapped overflow", "u1", huge, 100, true, ErrLoanCapExceeded},
		{"unknown player", "ghost", 100, 0, false, ErrPlayerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var config *GameConfig
			if tt.uncapped {
				config = DefaultConfig()
				config.MaxLoanPrincipal = 0
			}
			e := newTestEngine(t, config)
			e.state.Players[0].LoanDebt = tt.debt
			before := e.GetState()

			err := e.TakeLoan(tt.userID, tt.amount)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			after := e.GetState()
			a, b := after.Players[0], before.Players[0]
			if a.Cash != b.Cash || a.LoanDebt != b.LoanDebt || a.Expenses != b.Expenses || len(after.Log) != len(before.Log) {
				t.Error("rejected loan changed state")
			}
		})
	}
}

func TestUncappedLoans(t *testing.T) {
	config := DefaultConfig()
	config.MaxLoanPrincipal = 0
	e := newTestEngine(t, config)
	if err := e.TakeLoan("u1", 1000000); err != nil {
		t.Fatalf("expected uncapped loan, got %v", err)
	}
}

func TestRepayLoanRejects(t *testing.T) {
	tests := []struct {
		name   string
		amount int
		cash   int
		debt   int
		want   error
	}{
		{"more than debt", 600, 10000, 500, ErrRepayExceedsDebt},
		{"more than cash", 500, 400, 500, ErrInsufficientCash},
		{"not a multiple", 50, 10000, 500, ErrInvalidLoanAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, nil)
			p := &e.state.Players[0]
			p.Cash = tt.cash
			p.LoanDebt = tt.debt
			logLen := len(e.state.Log)

			err := e.RepayLoan("u1", tt.amount)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if p.Cash != tt.cash || p.LoanDebt != tt.debt || len(e.state.Log) != logLen {
				t.Error("rejected repayment changed state")
			}
		})
	}
}

func TestFastTrackTransition(t *testing.T) {
	e := newTestEngine(t, nil)
	p := &e.state.Players[0]
	p.PassiveIncome = 5000
	p.Position = 9
	p.recompute()

	if err := e.TakeLoan("u1", 100); err != nil {
		t.Fatalf("TakeLoan: %v", err)
	}
	if p.IsFastTrack {
		t.Fatal("player with a loan must not enter the fast track")
	}

	if err := e.RepayLoan("u1", 100); err != nil {
		t.Fatalf("RepayLoan: %v", err)
	}
	if !p.IsFastTrack {
		t.Fatal("expected fast track after paying off the loan")
	}
	if p.Position != 0 {
		t.Errorf("expected fast track start, got position %d", p.Position)
	}
	if p.Cash != 103000 {
		t.Errorf("expected bonus on top of 3000, got %d", p.Cash)
	}

	e.checkFastTrack(p)
	if p.Cash != 103000 {
		t.Error("second evaluation paid the bonus again")
	}
}

func TestFastTrackNeedsPassiveIncome(t *testing.T) {
	e := newTestEngine(t, nil)
	p := &e.state.Players[0]
	p.PassiveIncome = 3999
	p.recompute()

	e.checkFastTrack(p)
	if p.IsFastTrack {
		t.Error("3999 passive income does not cover 2 x 2000 expenses")
	}
}

func TestTransferFunds(t *testing.T) {
	e := newTestEngine(t, nil)

	if err := e.TransferFunds("u2", "u1", 1000); err != nil {
		t.Fatalf("TransferFunds: %v", err)
	}
	state := e.GetState()
	if state.Players[0].Cash != 4000 || state.Players[1].Cash != 2000 {
		t.Errorf("unexpected cash: %d / %d", state.Players[0].Cash, state.Players[1].Cash)
	}
	if state.Players[0].Cashflow != 1000 {
		t.Error("transfer must not change cashflow")
	}
}

func TestTransferFundsRejects(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		amount   int
		want     error
	}{
		{"to self", "u1", "u1", 10, ErrInvalidArgument},
		{"zero", "u1", "u2", 0, ErrInvalidArgument},
		{"too much", "u1", "u2", 3001, ErrInsufficientCash},
		{"unknown sender", "ghost", "u2", 10, ErrPlayerNotFound},
		{"unknown recipient", "u1", "ghost", 10, ErrPlayerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, nil)
			err := e.TransferFunds(tt.from, tt.to, tt.amount)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			state := e.GetState()
			if state.Players[0].Cash != 3000 || state.Players[1].Cash != 3000 {
				t.Error("rejected transfer moved cash")
			}
		})
	}
}

func TestMoney(t *testing.T) {
	tests := map[int]string{
		0:       "$0",
		999:     "$999",
		1000:    "$1,000",
		100000:  "$100,000",
		-2500:   "-$2,500",
		1234567: "$1,234,567",
	}
	for in, want := range tests {
		if got := money(in); got != want {
			t.Errorf("money(%d) = %s, want %s", in, got, want)
		}
	}
}
