package service

import "github.com/shopspring/decimal"

// PriceEnrollment returns the amount a student pays up front to join a class.
// Free classes cost nothing. Otherwise the prepayment unit is minSessionsToPay when set, else the
// class's total session count; a zero unit costs nothing.
func PriceEnrollment(sessionPrice decimal.Decimal, minSessionsToPay *int, totalSessions int) decimal.Decimal {
	if sessionPrice.IsZero() {
		return decimal.Zero
	}
	unit := totalSessions
	if minSessionsToPay != nil {
		unit = *minSessionsToPay
	}
	if unit <= 0 {
		return decimal.Zero
	}
	return sessionPrice.Mul(decimal.NewFromInt(int64(unit)))
}
