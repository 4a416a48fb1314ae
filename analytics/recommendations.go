package analytics

import (
	"SmartRestaurant/models"
	"context"

	"go.uber.org/zap"
)

// RecommendForUser suggests available items from the customer's most
// ordered category. Customers without history, or whose favourite
// category has nothing available, get the globally most ordered items.
func (s *Service) RecommendForUser(ctx context.Context, userID uint) ([]models.MenuItem, error) {
	orderIDs, err := s.store.CustomerOrderIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(orderIDs) > 0 {
		categoryID, found, err := s.store.FavoriteCategory(ctx, orderIDs)
		if err != nil {
			return nil, err
		}
		if found {
			items, err := s.store.AvailableInCategory(ctx, categoryID, userRecommendationLimit)
			if err != nil {
				return nil, err
			}
			if len(items) > 0 {
				return items, nil
			}
		}
	}

	s.logger.Debug("user recommendation fallback", zap.Uint("user_id", userID))
	return s.userFallback(ctx)
}

func (s *Service) userFallback(ctx context.Context) ([]models.MenuItem, error) {
	items, err := s.store.MostOrdered(ctx, userRecommendationLimit)
	if err != nil {
		return nil, err
	}
	return nonNil(items), nil
}

// RecommendForItem lists what is most often ordered together with itemID,
// falling back to the best sellers by quantity.
func (s *Service) RecommendForItem(ctx context.Context, itemID uint) ([]models.MenuItem, error) {
	items, err := s.store.BoughtWith(ctx, itemID, itemRecommendationLimit)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}

	s.logger.Debug("item recommendation fallback", zap.Uint("item_id", itemID))
	items, err = s.store.BestSellers(ctx, itemRecommendationLimit)
	if err != nil {
		return nil, err
	}
	return nonNil(items), nil
}

func nonNil(items []models.MenuItem) []models.MenuItem {
	if items == nil {
		return []models.MenuItem{}
	}
	return items
}
