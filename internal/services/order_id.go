package services

import (
	"context"
	"fmt"
	"time"

	"balance-topup/internal/utils"
)

const orderIDMaxAttempts = 10

// OrderIDGenerator produces order ids of the form VB{unix-ms}{100-999}
type OrderIDGenerator struct {
	MaxAttempts int
	now         func() time.Time
	suffix      func() (int64, error)
}

func NewOrderIDGenerator() *OrderIDGenerator {
	return &OrderIDGenerator{
		MaxAttempts: orderIDMaxAttempts,
		now:         time.Now,
		suffix:      utils.ThreeDigitSuffix,
	}
}

// Candidate returns a fresh id without checking uniqueness
func (g *OrderIDGenerator) Candidate() (string, error) {
	suffix, err := g.suffix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("VB%d%d", g.now().UnixMilli(), suffix), nil
}

// Allocate draws candidates and hands each to claim until one is claimed. claim
// reports false when the id is already taken; after MaxAttempts refusals the
// allocation fails with ErrIDAllocationExhausted.
func (g *OrderIDGenerator) Allocate(ctx context.Context, claim func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate, err := g.Candidate()
		if err != nil {
			return "", err
		}
		claimed, err := claim(ctx, candidate)
		if err != nil {
			return "", err
		}
		if claimed {
			return candidate, nil
		}
	}
	return "", ErrIDAllocationExhausted
}
