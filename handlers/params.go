package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

var ErrInvalidParameter = errors.New("invalid parameter")

// 讀取正整數查詢參數，未提供時回傳預設值
func positiveQuery(c *gin.Context, key string, defaultValue int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidParameter, key)
	}
	return value, nil
}

// 讀取路徑中的ID
func idParam(c *gin.Context, key string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidParameter, key)
	}
	return uint(value), nil
}

func capLimit(limit, max int) int {
	if limit > max {
		return max
	}
	return limit
}
