package service

import (
	"context"
	"log"
	"strings"
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/models"
	"resourceroom/internal/validation"
)

// DefaultBonusReason is recorded when a bonus is given without a reason
const DefaultBonusReason = "Great work!"

// BonusResult is the outcome of an awarded bonus
type BonusResult struct {
	Amount      int
	TotalTokens int
	Reason      string
}

// PurchaseResult is the outcome of an accepted purchase
type PurchaseResult struct {
	Item            string
	Cost            int
	RemainingTokens int
}

// TokenService moves token balances outside of check-ins: bonuses and purchases
type TokenService struct {
	students StudentStore
	sessions SessionStore
	clock    calendar.Clock
	loc      *time.Location
}

// NewTokenService creates a new token service
func NewTokenService(students StudentStore, sessions SessionStore, clock calendar.Clock, loc *time.Location) *TokenService {
	return &TokenService{
		students: students,
		sessions: sessions,
		clock:    clock,
		loc:      loc,
	}
}

// AwardBonus adds amount tokens to the balance and to today's session when the student
// has one. A blank reason becomes DefaultBonusReason.
func (s *TokenService) AwardBonus(ctx context.Context, teacherID, studentID string, amount int, reason string) (*BonusResult, error) {
	if amount <= 0 {
		return nil, validation.New("amount", "must be a positive number")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultBonusReason
	}

	total, err := s.students.AddTokens(ctx, teacherID, studentID, amount)
	if err != nil {
		return nil, translate(err, "award bonus")
	}

	day := calendar.DayStart(s.clock.Now(), s.loc)
	if _, err := s.sessions.AddBonus(ctx, teacherID, studentID, day, amount); err != nil {
		log.Printf("Bonus credited but session update failed (teacher=%s student=%s): %v", teacherID, studentID, err)
	}

	log.Printf("Bonus of %d tokens for student %s: %s", amount, studentID, reason)
	return &BonusResult{Amount: amount, TotalTokens: total, Reason: reason}, nil
}

// Purchase spends cost tokens on item. The balance never goes negative: when it does not
// cover the cost, ErrInsufficientTokens is returned and nothing changes.
func (s *TokenService) Purchase(ctx context.Context, teacherID, studentID, item string, cost int) (*PurchaseResult, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return nil, validation.New("item", "is required")
	}
	if cost <= 0 {
		return nil, validation.New("cost", "must be a positive number")
	}

	remaining, err := s.students.Purchase(ctx, teacherID, studentID, models.Purchase{
		Item:        item,
		Cost:        cost,
		PurchasedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, translate(err, "purchase")
	}

	return &PurchaseResult{Item: item, Cost: cost, RemainingTokens: remaining}, nil
}
