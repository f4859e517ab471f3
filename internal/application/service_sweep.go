package application

import (
	"context"
	"fmt"
)

// ExpireOverduePurchases moves completed purchases past their expiry to expired.
func (s *Service) ExpireOverduePurchases(ctx context.Context) (int64, error) {
	n, err := s.purchases.ExpireOverdue(ctx, s.nowFn())
	if err != nil {
		return 0, fmt.Errorf("expire purchases: %w", err)
	}
	if n > 0 {
		purchasesExpiredTotal.Add(float64(n))
	}
	return n, nil
}
