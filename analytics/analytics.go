// Package analytics computes sales aggregates, recommendations and
// textual insights from the order history. Nothing is cached between
// calls; every result is derived from the store on demand.
package analytics

import (
	"SmartRestaurant/models"
	"SmartRestaurant/repository"
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultTrendDays    = 30
	DefaultRankingLimit = 5
	MaxRankingLimit     = 50

	maxTrendDays            = 1_000_000
	peakHourLimit           = 5
	deadStockLimit          = 3
	userRecommendationLimit = 5
	itemRecommendationLimit = 3
)

var ErrInvalidArgument = errors.New("invalid argument")

// Store is the read-only view of the restaurant database the service needs.
type Store interface {
	CountOrders(ctx context.Context) (int64, error)
	SumOrderTotals(ctx context.Context) (decimal.Decimal, error)
	CountUsersByRole(ctx context.Context, role string) (int64, error)
	OrderStamps(ctx context.Context, since time.Time) ([]repository.OrderStamp, error)
	TopSelling(ctx context.Context, limit int) ([]repository.ItemTotal, error)
	LeastSelling(ctx context.Context, limit int) ([]repository.ItemTotal, error)
	UnsoldItemNames(ctx context.Context, limit int) ([]string, error)
	CustomerOrderIDs(ctx context.Context, customerID uint) ([]uint, error)
	FavoriteCategory(ctx context.Context, orderIDs []uint) (uint, bool, error)
	AvailableInCategory(ctx context.Context, categoryID uint, limit int) ([]models.MenuItem, error)
	MostOrdered(ctx context.Context, limit int) ([]models.MenuItem, error)
	BestSellers(ctx context.Context, limit int) ([]models.MenuItem, error)
	BoughtWith(ctx context.Context, itemID uint, limit int) ([]models.MenuItem, error)
}

type Service struct {
	store  Store
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewService buckets dates and hours in loc; a nil loc means time.Local.
func NewService(store Store, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

type DashboardStats struct {
	TotalOrders    int64   `json:"total_orders"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalCustomers int64   `json:"total_customers"`
}

type SalesPoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type ItemSales struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// money rounds to cents and leaves decimal arithmetic for the JSON boundary.
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
