package handlers

import (
	"SmartRestaurant/models"
	"SmartRestaurant/testutil"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type menuListResponse struct {
	Items      []models.MenuItem `json:"items"`
	TotalCount int               `json:"totalCount"`
}

type menuItemResponse struct {
	Item models.MenuItem `json:"item"`
}

func newMenuRouter(db *gorm.DB, rdb *redis.Client) *gin.Engine {
	router := gin.New()
	router.GET("/items", func(c *gin.Context) { GetMenuItemListHandler(c, db, rdb) })
	router.GET("/items/:itemID", func(c *gin.Context) { GetMenuItemHandler(c, db) })
	router.POST("/items", func(c *gin.Context) { CreateMenuItemHandler(c, db, rdb) })
	router.PATCH("/items/:itemID", func(c *gin.Context) { UpdateMenuItemHandler(c, db, rdb) })
	router.DELETE("/items/:itemID", func(c *gin.Context) { DeleteMenuItemHandler(c, db, rdb) })
	router.GET("/categories", func(c *gin.Context) { GetCategoryListHandler(c, db) })
	router.POST("/categories", func(c *gin.Context) { CreateCategoryHandler(c, db) })
	router.DELETE("/categories/:categoryID", func(c *gin.Context) { DeleteCategoryHandler(c, db) })
	return router
}

type menuFixture struct {
	db     *gorm.DB
	rdb    *redis.Client
	router *gin.Engine
	mains  models.Category
	drinks models.Category
	burger models.MenuItem
	soda   models.MenuItem
	salad  models.MenuItem
}

func newMenuFixture(t *testing.T) *menuFixture {
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	seed := testutil.NewSeeder(t, db)
	f := &menuFixture{db: db, rdb: rdb, router: newMenuRouter(db, rdb)}
	f.mains = seed.Category("Mains")
	f.drinks = seed.Category("Drinks")
	f.burger = seed.MenuItem("Burger", f.mains.ID, "12.50", true)
	f.soda = seed.MenuItem("Soda", f.drinks.ID, "2.00", true)
	f.salad = seed.MenuItem("Salad", f.mains.ID, "8.00", false)
	return f
}

func itemNames(items []models.MenuItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}

func TestGetMenuItemListBuildsCache(t *testing.T) {
	f := newMenuFixture(t)

	w := perform(t, f.router, http.MethodGet, "/items?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[menuListResponse](t, w)
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, []string{"Burger", "Soda"}, itemNames(resp.Items))
	require.NotNil(t, resp.Items[0].Category)
	assert.Equal(t, "Mains", resp.Items[0].Category.Name)

	count, err := f.rdb.ZCard(context.Background(), menuItemsKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	//第二次讀取來自快取
	w = perform(t, f.router, http.MethodGet, "/items?offset=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[menuListResponse](t, w)
	assert.Equal(t, []string{"Salad"}, itemNames(resp.Items))
	assert.True(t, resp.Items[0].Price.Equal(f.salad.Price))
}

func TestGetMenuItemListFilters(t *testing.T) {
	f := newMenuFixture(t)

	w := perform(t, f.router, http.MethodGet, fmt.Sprintf("/items?category_id=%d", f.mains.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[menuListResponse](t, w)
	assert.Equal(t, []string{"Burger", "Salad"}, itemNames(resp.Items))

	w = perform(t, f.router, http.MethodGet, fmt.Sprintf("/items?category_id=%d&available=true", f.mains.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[menuListResponse](t, w)
	assert.Equal(t, []string{"Burger"}, itemNames(resp.Items))
	assert.Equal(t, 1, resp.TotalCount)

	w = perform(t, f.router, http.MethodGet, "/items?offset=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[menuListResponse](t, w)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 3, resp.TotalCount)
}

func TestGetMenuItemListRejectsBadQuery(t *testing.T) {
	f := newMenuFixture(t)

	for _, query := range []string{"limit=abc", "limit=0", "offset=-1", "category_id=x"} {
		w := perform(t, f.router, http.MethodGet, "/items?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestGetMenuItemListWithoutRedis(t *testing.T) {
	f := newMenuFixture(t)
	router := newMenuRouter(f.db, nil)

	w := perform(t, router, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[menuListResponse](t, w)
	assert.Equal(t, []string{"Burger", "Soda", "Salad"}, itemNames(resp.Items))
}

func TestMenuItemWritesKeepCacheInStep(t *testing.T) {
	f := newMenuFixture(t)
	ctx := context.Background()

	require.Equal(t, http.StatusOK, perform(t, f.router, http.MethodGet, "/items", nil).Code)

	w := perform(t, f.router, http.MethodPost, "/items", gin.H{
		"name":        "Fries",
		"price":       3.5,
		"category_id": f.mains.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[menuItemResponse](t, w).Item
	assert.True(t, created.IsAvailable)
	assert.Equal(t, "3.5", created.Price.String())
	require.NotNil(t, created.Category)
	assert.Equal(t, "Mains", created.Category.Name)

	count, err := f.rdb.ZCard(ctx, menuItemsKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	w = perform(t, f.router, http.MethodPatch, fmt.Sprintf("/items/%d", f.burger.ID), gin.H{
		"is_available": false,
		"price":        "13.00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[menuItemResponse](t, w).Item
	assert.False(t, updated.IsAvailable)
	assert.Equal(t, "Burger", updated.Name)

	w = perform(t, f.router, http.MethodGet, "/items?available=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Soda", "Fries"}, itemNames(decode[menuListResponse](t, w).Items))

	w = perform(t, f.router, http.MethodDelete, fmt.Sprintf("/items/%d", f.soda.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	count, err = f.rdb.ZCard(ctx, menuItemsKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	w = perform(t, f.router, http.MethodGet, fmt.Sprintf("/items/%d", f.soda.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = perform(t, f.router, http.MethodDelete, fmt.Sprintf("/items/%d", f.soda.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateMenuItemBeforeCacheExists(t *testing.T) {
	f := newMenuFixture(t)

	w := perform(t, f.router, http.MethodPost, "/items", gin.H{
		"name":         "Tea",
		"price":        1.8,
		"category_id":  f.drinks.ID,
		"is_available": false,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.False(t, decode[menuItemResponse](t, w).Item.IsAvailable)

	w = perform(t, f.router, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, decode[menuListResponse](t, w).TotalCount)
}

func TestCreateMenuItemValidation(t *testing.T) {
	f := newMenuFixture(t)

	cases := map[string]gin.H{
		"missing name":     {"price": 3, "category_id": f.mains.ID},
		"zero price":       {"name": "Water", "price": 0, "category_id": f.drinks.ID},
		"unknown category": {"name": "Water", "price": 1, "category_id": 999},
	}
	for name, body := range cases {
		w := perform(t, f.router, http.MethodPost, "/items", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestUpdateMenuItemErrors(t *testing.T) {
	f := newMenuFixture(t)

	w := perform(t, f.router, http.MethodPatch, "/items/999", gin.H{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(t, f.router, http.MethodPatch, "/items/abc", gin.H{"name": "Ghost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(t, f.router, http.MethodPatch, fmt.Sprintf("/items/%d", f.burger.ID), gin.H{"price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(t, f.router, http.MethodPatch, fmt.Sprintf("/items/%d", f.burger.ID), gin.H{"category_id": 999})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMenuItemDetail(t *testing.T) {
	f := newMenuFixture(t)

	w := perform(t, f.router, http.MethodGet, fmt.Sprintf("/items/%d", f.burger.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	item := decode[menuItemResponse](t, w).Item
	assert.Equal(t, "Burger", item.Name)
	assert.Equal(t, "12.5", item.Price.String())

	w = perform(t, f.router, http.MethodGet, "/items/0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryHandlers(t *testing.T) {
	f := newMenuFixture(t)

	w := perform(t, f.router, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	categories := decode[struct {
		Categories []models.Category `json:"categories"`
	}](t, w).Categories
	require.Len(t, categories, 2)
	assert.Equal(t, "Drinks", categories[0].Name)

	w = perform(t, f.router, http.MethodPost, "/categories", gin.H{"name": "Mains"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(t, f.router, http.MethodPost, "/categories", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(t, f.router, http.MethodPost, "/categories", gin.H{"name": "Desserts"})
	require.Equal(t, http.StatusCreated, w.Code)
	desserts := decode[struct {
		Category models.Category `json:"category"`
	}](t, w).Category

	w = perform(t, f.router, http.MethodDelete, fmt.Sprintf("/categories/%d", f.mains.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(t, f.router, http.MethodDelete, fmt.Sprintf("/categories/%d", desserts.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	//已刪除的同名分類重新建立時還原原本的資料
	w = perform(t, f.router, http.MethodPost, "/categories", gin.H{"name": "Desserts"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	restored := decode[struct {
		Category models.Category `json:"category"`
	}](t, w).Category
	assert.Equal(t, desserts.ID, restored.ID)
	assert.Equal(t, "Desserts", restored.Name)

	w = perform(t, f.router, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	categories = decode[struct {
		Categories []models.Category `json:"categories"`
	}](t, w).Categories
	assert.Len(t, categories, 3)

	w = perform(t, f.router, http.MethodPost, "/categories", gin.H{"name": "Desserts"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(t, f.router, http.MethodDelete, "/categories/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMenuHandlersStopOnCancelledRequest(t *testing.T) {
	f := newMenuFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	send := func(method, path string, body string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(ctx)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusInternalServerError, send(http.MethodDelete, fmt.Sprintf("/categories/%d", f.drinks.ID), ""))
	assert.Equal(t, http.StatusInternalServerError, send(http.MethodPost, "/categories", `{"name":"Sides"}`))
	assert.Equal(t, http.StatusInternalServerError, send(http.MethodPatch, fmt.Sprintf("/items/%d", f.soda.ID), `{"name":"Cola"}`))
	assert.Equal(t, http.StatusInternalServerError,
		send(http.MethodPost, "/items", fmt.Sprintf(`{"name":"Tea","price":2,"category_id":%d}`, f.drinks.ID)))

	var categories []models.Category
	require.NoError(t, f.db.Order("id ASC").Find(&categories).Error)
	assert.Len(t, categories, 2)

	var soda models.MenuItem
	require.NoError(t, f.db.First(&soda, f.soda.ID).Error)
	assert.Equal(t, "Soda", soda.Name)
}
