package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
	InsightSuccess InsightType = "success"
)

type Insight struct {
	Type    InsightType `json:"type"`
	Message string      `json:"message"`
}

// Insights runs the dead stock, peak hour and revenue growth checks in
// that order and keeps the ones that found something. The checks read
// the store separately and may see different snapshots.
func (s *Service) Insights(ctx context.Context) ([]Insight, error) {
	insights := make([]Insight, 0, 3)

	deadStock, err := s.deadStockInsight(ctx)
	if err != nil {
		return nil, err
	}
	if deadStock != nil {
		insights = append(insights, *deadStock)
	}

	peak, err := s.peakHourInsight(ctx)
	if err != nil {
		return nil, err
	}
	if peak != nil {
		insights = append(insights, *peak)
	}

	growth, err := s.revenueGrowthInsight(ctx)
	if err != nil {
		return nil, err
	}
	if growth != nil {
		insights = append(insights, *growth)
	}

	return insights, nil
}

func (s *Service) deadStockInsight(ctx context.Context) (*Insight, error) {
	names, err := s.store.UnsoldItemNames(ctx, deadStockLimit)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	return &Insight{
		Type: InsightWarning,
		Message: fmt.Sprintf("Dead Stock Alert: '%s' have determined 0 sales. Consider removing or promoting them.",
			strings.Join(names, ", ")),
	}, nil
}

func (s *Service) peakHourInsight(ctx context.Context) (*Insight, error) {
	hours, err := s.PeakHours(ctx)
	if err != nil {
		return nil, err
	}
	if len(hours) == 0 {
		return nil, nil
	}
	hour := hours[0].Hour
	return &Insight{
		Type: InsightInfo,
		Message: fmt.Sprintf("Peak Business Hour: The busiest time is %d:00 - %d:00. Ensure distinct staffing levels.",
			hour, hour+1),
	}, nil
}

func (s *Service) revenueGrowthInsight(ctx context.Context) (*Insight, error) {
	today := startOfDay(s.now().In(s.loc))
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	stamps, err := s.store.OrderStamps(ctx, yesterday)
	if err != nil {
		return nil, err
	}

	revToday, revYesterday := decimal.Zero, decimal.Zero
	for _, stamp := range stamps {
		created := stamp.CreatedAt.In(s.loc)
		switch {
		case created.Before(yesterday), !created.Before(tomorrow):
		case created.Before(today):
			revYesterday = revYesterday.Add(stamp.TotalAmount)
		default:
			revToday = revToday.Add(stamp.TotalAmount)
		}
	}

	growth, ok := Growth(revToday, revYesterday)
	if !ok {
		return nil, nil
	}
	return &Insight{
		Type:    InsightSuccess,
		Message: fmt.Sprintf("Revenue Growth: Sales are up %s%% compared to yesterday!", growth.StringFixed(1)),
	}, nil
}

// Growth is the percentage increase of today over yesterday rounded to one
// decimal. ok is false unless yesterday is positive and today exceeds it.
func Growth(today, yesterday decimal.Decimal) (decimal.Decimal, bool) {
	if !yesterday.IsPositive() || !today.GreaterThan(yesterday) {
		return decimal.Zero, false
	}
	return today.Sub(yesterday).Div(yesterday).Mul(decimal.NewFromInt(100)).Round(1), true
}
