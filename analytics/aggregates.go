package analytics

import (
	"SmartRestaurant/models"
	"SmartRestaurant/repository"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

func (s *Service) DashboardStats(ctx context.Context) (DashboardStats, error) {
	orders, err := s.store.CountOrders(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	revenue, err := s.store.SumOrderTotals(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	customers, err := s.store.CountUsersByRole(ctx, models.RoleCustomer)
	if err != nil {
		return DashboardStats{}, err
	}

	return DashboardStats{
		TotalOrders:    orders,
		TotalRevenue:   money(revenue),
		TotalCustomers: customers,
	}, nil
}

// SalesTrend sums order totals per calendar day over the last days days.
// Days without orders are omitted.
func (s *Service) SalesTrend(ctx context.Context, days int) ([]SalesPoint, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidArgument, days)
	}

	//超過可表示範圍的天數等同查詢全部訂單
	var since time.Time
	if days <= maxTrendDays {
		since = s.now().AddDate(0, 0, -days)
	}
	stamps, err := s.store.OrderStamps(ctx, since)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal)
	for _, stamp := range stamps {
		date := stamp.CreatedAt.In(s.loc).Format(time.DateOnly)
		totals[date] = totals[date].Add(stamp.TotalAmount)
	}

	dates := make([]string, 0, len(totals))
	for date := range totals {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	trend := make([]SalesPoint, 0, len(dates))
	for _, date := range dates {
		trend = append(trend, SalesPoint{Date: date, Amount: money(totals[date])})
	}
	return trend, nil
}

func (s *Service) TopSelling(ctx context.Context, limit int) ([]ItemSales, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	totals, err := s.store.TopSelling(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toItemSales(totals), nil
}

func (s *Service) LeastSelling(ctx context.Context, limit int) ([]ItemSales, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	totals, err := s.store.LeastSelling(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toItemSales(totals), nil
}

// PeakHours returns the busiest hours of the day by order count, busiest
// first; equal counts are listed by hour.
func (s *Service) PeakHours(ctx context.Context) ([]HourCount, error) {
	stamps, err := s.store.OrderStamps(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	var perHour [24]int
	for _, stamp := range stamps {
		perHour[stamp.CreatedAt.In(s.loc).Hour()]++
	}

	hours := make([]HourCount, 0, 24)
	for hour, count := range perHour {
		if count > 0 {
			hours = append(hours, HourCount{Hour: hour, Count: count})
		}
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return hours[i].Count > hours[j].Count
	})

	if len(hours) > peakHourLimit {
		hours = hours[:peakHourLimit]
	}
	return hours, nil
}

func checkLimit(limit int) error {
	if limit <= 0 || limit > MaxRankingLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidArgument, MaxRankingLimit, limit)
	}
	return nil
}

func toItemSales(totals []repository.ItemTotal) []ItemSales {
	sales := make([]ItemSales, 0, len(totals))
	for _, total := range totals {
		sales = append(sales, ItemSales{Name: total.Name, Value: total.Total})
	}
	return sales
}
