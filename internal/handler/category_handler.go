package handler

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskplanner/internal/repository"
)

type CategoryHandler struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewCategoryHandler(store *repository.Store, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{store: store, logger: logger}
}

type categoryIn struct {
	Title string `json:"title" binding:"required"`
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	category, err := h.store.GetCategory(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var in categoryIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	category, err := h.store.CreateCategory(c.Request.Context(), ownerID(c), normalizeTitle(in.Title))
	if err != nil {
		h.logger.Warn("CreateCategory failed", zap.Int("user_id", ownerID(c)), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in categoryIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	category, err := h.store.UpdateCategory(c.Request.Context(), ownerID(c), id, normalizeTitle(in.Title))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteCategory(c.Request.Context(), ownerID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// normalizeTitle trims and capitalizes the first rune, lowercasing the rest.
func normalizeTitle(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	runes := []rune(title)
	if len(runes) == 0 {
		return title
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
