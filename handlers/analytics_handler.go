package handlers

import (
	"SmartRestaurant/analytics"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondAnalyticsError(c *gin.Context, message string, err error) {
	if errors.Is(err, analytics.ErrInvalidArgument) || errors.Is(err, ErrInvalidParameter) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": message,
			"error":   err.Error(),
		})
		return
	}

	zap.L().Error(message, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"message": message,
		"error":   err.Error(),
	})
}

// 查詢儀表板總計
func GetDashboardStatsHandler(c *gin.Context, svc *analytics.Service) {
	stats, err := svc.DashboardStats(c.Request.Context())
	if err != nil {
		respondAnalyticsError(c, "無法取得儀表板統計", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// 查詢每日營收趨勢
func GetSalesTrendsHandler(c *gin.Context, svc *analytics.Service) {
	days, err := positiveQuery(c, "days", analytics.DefaultTrendDays)
	if err != nil {
		respondAnalyticsError(c, "天數輸入錯誤", err)
		return
	}

	trend, err := svc.SalesTrend(c.Request.Context(), days)
	if err != nil {
		respondAnalyticsError(c, "無法取得營收趨勢", err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

func rankingLimit(c *gin.Context) (int, error) {
	limit, err := positiveQuery(c, "limit", analytics.DefaultRankingLimit)
	if err != nil {
		return 0, err
	}
	//限制最高查詢數量為50
	return capLimit(limit, analytics.MaxRankingLimit), nil
}

// 查詢熱銷菜色
func GetTopSellingHandler(c *gin.Context, svc *analytics.Service) {
	limit, err := rankingLimit(c)
	if err != nil {
		respondAnalyticsError(c, "查詢數量輸入錯誤", err)
		return
	}

	items, err := svc.TopSelling(c.Request.Context(), limit)
	if err != nil {
		respondAnalyticsError(c, "無法取得熱銷菜色", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// 查詢滯銷菜色
func GetLeastSellingHandler(c *gin.Context, svc *analytics.Service) {
	limit, err := rankingLimit(c)
	if err != nil {
		respondAnalyticsError(c, "查詢數量輸入錯誤", err)
		return
	}

	items, err := svc.LeastSelling(c.Request.Context(), limit)
	if err != nil {
		respondAnalyticsError(c, "無法取得滯銷菜色", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// 查詢尖峰時段
func GetPeakHoursHandler(c *gin.Context, svc *analytics.Service) {
	hours, err := svc.PeakHours(c.Request.Context())
	if err != nil {
		respondAnalyticsError(c, "無法取得尖峰時段", err)
		return
	}
	c.JSON(http.StatusOK, hours)
}

// 依使用者點餐紀錄推薦菜色
func GetUserRecommendationsHandler(c *gin.Context, svc *analytics.Service) {
	userID, err := idParam(c, "userID")
	if err != nil {
		respondAnalyticsError(c, "使用者ID輸入錯誤", err)
		return
	}

	items, err := svc.RecommendForUser(c.Request.Context(), userID)
	if err != nil {
		respondAnalyticsError(c, "無法取得推薦菜色", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// 推薦常被一起點的菜色
func GetItemRecommendationsHandler(c *gin.Context, svc *analytics.Service) {
	itemID, err := idParam(c, "itemID")
	if err != nil {
		respondAnalyticsError(c, "菜色ID輸入錯誤", err)
		return
	}

	items, err := svc.RecommendForItem(c.Request.Context(), itemID)
	if err != nil {
		respondAnalyticsError(c, "無法取得推薦菜色", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// 產生營運洞察
func GetInsightsHandler(c *gin.Context, svc *analytics.Service) {
	insights, err := svc.Insights(c.Request.Context())
	if err != nil {
		respondAnalyticsError(c, "無法產生營運洞察", err)
		return
	}
	c.JSON(http.StatusOK, insights)
}
