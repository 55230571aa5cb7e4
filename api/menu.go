package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/api/web/templates"
	"github.com/floracafe/cafesite/describe"
	"github.com/floracafe/cafesite/store"
	"github.com/gin-gonic/gin"
)

func (ws *WebServer) handleListMenu(c *gin.Context) {
	items, err := ws.db.GetMenuItems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get menu: %v", err)})
		return
	}
	if items == nil {
		items = []store.MenuItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (ws *WebServer) handleUIMenu(c *gin.Context) {
	items, err := ws.db.GetMenuItems()
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("Error fetching menu: %v", err))
		return
	}
	renderComponent(c, http.StatusOK, templates.MenuList(items))
}

func validateMenuItem(req *models.MenuItemRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.ImageURL = strings.TrimSpace(req.ImageURL)

	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.Price < 0 {
		return errors.New("price must not be negative")
	}
	if !slices.Contains(store.MenuCategories, req.Category) {
		return fmt.Errorf("category must be one of %s", strings.Join(store.MenuCategories, ", "))
	}
	return nil
}

func (ws *WebServer) handleCreateMenuItem(c *gin.Context) {
	var req models.MenuItemRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := validateMenuItem(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	item := &store.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if err := ws.db.InsertMenuItem(item); err != nil {
		respondError(c, storeErrorStatus(err), fmt.Sprintf("Failed to add menu item: %v", err))
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (ws *WebServer) handleUpdateMenuItem(c *gin.Context) {
	id := c.Param("id")

	var req models.MenuItemRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := validateMenuItem(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	item, err := ws.db.GetMenuItem(id)
	if err != nil {
		respondError(c, storeErrorStatus(err), fmt.Sprintf("Menu item '%s' not found", id))
		return
	}
	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.Category = req.Category
	item.ImageURL = req.ImageURL

	if err := ws.db.UpdateMenuItem(item); err != nil {
		respondError(c, storeErrorStatus(err), fmt.Sprintf("Failed to update menu item: %v", err))
		return
	}
	c.JSON(http.StatusOK, item)
}

func (ws *WebServer) handleDeleteMenuItem(c *gin.Context) {
	id := c.Param("id")
	if err := ws.db.DeleteMenuItem(id); err != nil {
		respondError(c, storeErrorStatus(err), fmt.Sprintf("Failed to delete menu item: %v", err))
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Menu item '%s' deleted successfully", id)})
}

func (ws *WebServer) handleDescribeMenuItem(c *gin.Context) {
	if ws.describer == nil {
		respondError(c, http.StatusServiceUnavailable, "description generation is not configured")
		return
	}

	var req models.DescribeRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	description, err := ws.describer.Describe(c.Request.Context(), req.Name)
	if errors.Is(err, describe.ErrEmptyName) {
		respondError(c, http.StatusBadRequest, "Por favor, insira o nome do item primeiro.")
		return
	}
	if err != nil {
		slog.Error("failed to generate description", "item", req.Name, "error", err)
		respondError(c, http.StatusBadGateway, "Falha ao gerar descrição. Tente novamente.")
		return
	}

	if isHTMX(c) {
		c.String(http.StatusOK, description)
		return
	}
	c.JSON(http.StatusOK, models.DescribeResponse{Name: strings.TrimSpace(req.Name), Description: description})
}

func (ws *WebServer) handleGetContent(c *gin.Context) {
	content, err := ws.db.GetSiteContent()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get content: %v", err)})
		return
	}
	c.JSON(http.StatusOK, content)
}

func (ws *WebServer) handleUpdateContent(c *gin.Context) {
	var req store.SiteContent
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if strings.TrimSpace(req.Hero.Title) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "hero.title is required"})
		return
	}

	if err := ws.db.UpsertSiteContent(&req); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update content: %v", err)})
		return
	}
	c.JSON(http.StatusOK, req)
}
