package adapters

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-shop/internal/admin/domain"
	usersapp "go-shop/internal/users/application"
	apperrors "go-shop/pkg/errors"
)

// GormStatsRepository implements ports.StatsReader by aggregating across
// the store's tables
type GormStatsRepository struct {
	db *gorm.DB
}

// NewGormStatsRepository creates a new stats repository
func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

// Stats aggregates the dashboard numbers
func (r *GormStatsRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{}
	db := r.db.WithContext(ctx)

	var revenue decimal.NullDecimal
	if err := db.Table("orders").Select("SUM(total_price)").Scan(&revenue).Error; err != nil {
		return nil, apperrors.NewInternal("failed to sum revenue", err)
	}
	if revenue.Valid {
		stats.Revenue = revenue.Decimal
	}

	counts := []struct {
		table string
		where string
		dest  *int64
	}{
		{table: "orders", dest: &stats.OrderCount},
		{table: "orders", where: "status = 'pending'", dest: &stats.PendingOrders},
		{table: "products", dest: &stats.ProductCount},
		{table: "users", dest: &stats.CustomerCount},
		{table: "reviews", dest: &stats.ReviewCount},
	}
	for _, c := range counts {
		query := db.Table(c.table)
		if c.where != "" {
			query = query.Where(c.where)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, apperrors.NewInternal("failed to count "+c.table, err)
		}
	}

	return stats, nil
}

// CustomerBridge implements ports.CustomerDirectory on the users context
type CustomerBridge struct {
	users *usersapp.UserUseCase
}

// NewCustomerBridge creates a new customer directory bridge
func NewCustomerBridge(users *usersapp.UserUseCase) *CustomerBridge {
	return &CustomerBridge{users: users}
}

// ListCustomers returns every customer, newest first
func (b *CustomerBridge) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	users, err := b.users.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	customers := make([]*domain.Customer, len(users))
	for i, user := range users {
		customers[i] = &domain.Customer{
			ID:       user.ID,
			Email:    user.Email,
			Name:     user.Name,
			JoinedAt: user.CreatedAt,
		}
	}
	return customers, nil
}
