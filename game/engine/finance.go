package engine

import "fmt"

// MaxLoanDebt bounds a player's outstanding loans when the ruleset sets a
// higher cap or none at all.
const MaxLoanDebt = 1_000_000_000_000

// TakeLoan lends amount to the player. The monthly carrying cost is added to
// expenses.
func (e *GameEngine) TakeLoan(userID string, amount int) error {
	player, err := e.player(userID)
	if err != nil {
		return err
	}
	if err := e.checkLoanAmount(amount); err != nil {
		return err
	}
	limit := e.config.MaxLoanPrincipal
	if limit <= 0 || limit > MaxLoanDebt {
		limit = MaxLoanDebt
	}
	if amount > limit-player.LoanDebt {
		return fmt.Errorf("%w: %s owes %s, limit is %s",
			ErrLoanCapExceeded, player.Name, money(player.LoanDebt), money(limit))
	}

	interest := e.loanInterest(amount)
	player.Cash += amount
	player.LoanDebt += amount
	player.Expenses += interest
	player.recompute()

	e.logf("%s took a loan of %s. Expenses +%s/mo", player.Name, money(amount), money(interest))
	return nil
}

// RepayLoan pays back part of the player's loan and re-checks the fast
// track condition.
func (e *GameEngine) RepayLoan(userID string, amount int) error {
	player, err := e.player(userID)
	if err != nil {
		return err
	}
	if err := e.checkLoanAmount(amount); err != nil {
		return err
	}
	if amount > player.LoanDebt {
		return fmt.Errorf("%w: %s owes %s", ErrRepayExceedsDebt, player.Name, money(player.LoanDebt))
	}
	if amount > player.Cash {
		return fmt.Errorf("%w: %s has %s", ErrInsufficientCash, player.Name, money(player.Cash))
	}

	interest := e.loanInterest(amount)
	player.Cash -= amount
	player.LoanDebt -= amount
	player.Expenses -= interest
	player.recompute()

	e.logf("%s repaid %s of their loan. Expenses -%s/mo", player.Name, money(amount), money(interest))
	e.checkFastTrack(player)
	return nil
}

// TransferFunds moves cash between two seated players. Cashflow is not affected.
func (e *GameEngine) TransferFunds(fromUserID, toUserID string, amount int) error {
	if fromUserID == toUserID {
		return fmt.Errorf("%w: cannot transfer to yourself", ErrInvalidArgument)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: transfer amount must be positive", ErrInvalidArgument)
	}
	from, err := e.player(fromUserID)
	if err != nil {
		return err
	}
	to, err := e.player(toUserID)
	if err != nil {
		return err
	}
	if amount > from.Cash {
		return fmt.Errorf("%w: %s has %s", ErrInsufficientCash, from.Name, money(from.Cash))
	}

	from.Cash -= amount
	to.Cash += amount
	e.logf("%s sent %s to %s", from.Name, money(amount), to.Name)
	return nil
}

func (e *GameEngine) checkLoanAmount(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidLoanAmount)
	}
	if amount%e.config.LoanStep != 0 {
		return fmt.Errorf("%w: amount must be a multiple of %s", ErrInvalidLoanAmount, money(e.config.LoanStep))
	}
	return nil
}

func (e *GameEngine) loanInterest(amount int) int {
	return amount * e.config.LoanInterestPercent / 100
}

// checkFastTrack moves the player to the fast track once passive income
// covers expenses by the configured multiple and the bank loan is paid off.
// It is a no-op for players already on the fast track.
func (e *GameEngine) checkFastTrack(player *PlayerState) {
	if player.IsFastTrack || player.LoanDebt != 0 {
		return
	}
	if player.PassiveIncome < player.Expenses*e.config.FastTrackMultiplier {
		return
	}

	player.IsFastTrack = true
	player.Position = 0
	player.Cash += e.config.FastTrackBonus
	e.logf("%s entered the Fast Track! +%s", player.Name, money(e.config.FastTrackBonus))
}
