package handlers

import (
	"SmartRestaurant/config"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var allowImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

func isValidImageExtensions(file *multipart.FileHeader) bool {
	fileExt := strings.ToLower(filepath.Ext(file.Filename))
	for _, allowExt := range allowImageExtensions {
		if fileExt == allowExt {
			return true
		}
	}
	return false
}

func makeUniqueFileName(file *multipart.FileHeader) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
}

// 上傳菜色圖片
func UploadImageHandler(c *gin.Context, cfg config.UploadConfig) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "綁定圖片失敗",
			"error":   err.Error(),
		})
		return
	}

	if !isValidImageExtensions(file) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "圖片檔案格式錯誤",
			"error":   "allowed: " + strings.Join(allowImageExtensions, ", "),
		})
		return
	}
	if file.Size > cfg.MaxFileBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "圖片檔案過大",
		})
		return
	}

	//檢查上傳資料夾是否存在，如不存在則創建
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "建立上傳資料夾失敗",
			"error":   err.Error(),
		})
		return
	}

	imageName := makeUniqueFileName(file)
	filePath := filepath.Join(cfg.Dir, imageName)
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		zap.L().Error("儲存圖片失敗", zap.String("path", filePath), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "儲存圖片失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"image_url": "/uploads/" + imageName,
		"filename":  imageName,
	})
}

// 刪除已上傳的圖片，檔名不得包含路徑
func DeleteImageHandler(c *gin.Context, cfg config.UploadConfig) {
	filename := c.Param("filename")
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "檔名輸入錯誤",
		})
		return
	}

	err := os.Remove(filepath.Join(cfg.Dir, filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "查無此圖片",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "刪除圖片失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "成功刪除圖片",
	})
}
