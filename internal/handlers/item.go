package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-chat-service/internal/services"
)

// ItemHandler exposes the listing endpoints messages reference.
type ItemHandler struct {
	items services.Items
}

// NewItemHandler builds an ItemHandler.
func NewItemHandler(items services.Items) *ItemHandler {
	return &ItemHandler{items: items}
}

// CreateItem accepts a multipart form with title, description and images.
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	title := c.PostForm("title")
	description := c.PostForm("description")

	var images []services.ImageUpload
	var open []interface{ Close() error }
	defer func() {
		for _, f := range open {
			f.Close()
		}
	}()
	for _, header := range form.File["images"] {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
			return
		}
		open = append(open, file)
		images = append(images, services.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
	}

	item, err := h.items.CreateItem(c.Request.Context(), userID, title, description, images)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItem returns one listing.
func (h *ItemHandler) GetItem(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	itemID, ok := pathInt(c, "item_id")
	if !ok {
		return
	}

	item, err := h.items.GetItem(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
