package dto

import "github.com/shopspring/decimal"

// DebtBreakdownItem is the per-class contribution to a student's debt. Net may be negative.
type DebtBreakdownItem struct {
	ClassID      string          `json:"classId"`
	ClassTitle   string          `json:"classTitle"`
	SessionCount int             `json:"sessionCount"`
	SessionPrice decimal.Decimal `json:"sessionPrice"`
	Cost         decimal.Decimal `json:"cost"`
	Fees         decimal.Decimal `json:"fees"`
	Paid         decimal.Decimal `json:"paid"`
	Net          decimal.Decimal `json:"net"`
}

// DebtSummary is the clamped total debt with its breakdown.
type DebtSummary struct {
	StudentID string              `json:"studentId"`
	Debt      decimal.Decimal     `json:"debt"`
	Breakdown []DebtBreakdownItem `json:"breakdown"`
}

// PricingQuery holds the inputs of the enrollment pricing rule.
type PricingQuery struct {
	SessionPrice     decimal.Decimal
	MinSessionsToPay *int
	TotalSessions    int
}

// PricingResult is the up-front amount for joining a class.
type PricingResult struct {
	Amount decimal.Decimal `json:"amount"`
}
