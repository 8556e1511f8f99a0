package main

import (
	"net/http"
	"strconv"
	"strings"

	"bizbook/models"

	"github.com/gin-gonic/gin"
)

// createProductHandler accepts a multipart form so the optional photo can
// ride along with the product fields.
func createProductHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	name := strings.TrimSpace(c.PostForm("name"))
	sku := strings.TrimSpace(c.PostForm("sku"))
	if name == "" || sku == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and sku are required"})
		return
	}
	costPrice, err1 := strconv.ParseFloat(c.PostForm("costPrice"), 64)
	valuePrice, err2 := strconv.ParseFloat(c.PostForm("valuePrice"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "costPrice and valuePrice must be numbers"})
		return
	}
	stock := 1
	if v := c.PostForm("stock"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be an integer"})
			return
		}
		stock = n
	}
	purchaseDate, err := parseEntryDate(c.PostForm("purchaseDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format"})
		return
	}

	p := models.Product{
		UserID:       user.ID,
		Name:         name,
		Sku:          sku,
		CostPrice:    costPrice,
		ValuePrice:   valuePrice,
		Stock:        stock,
		Comment:      c.PostForm("comment"),
		Description:  c.PostForm("description"),
		PurchaseDate: purchaseDate,
	}
	if v := c.PostForm("soldPrice"); v != "" {
		if sp, err := strconv.ParseFloat(v, 64); err == nil {
			p.SoldPrice = &sp
		}
	}
	if v := c.PostForm("soldDate"); v != "" {
		sd, err := parseEntryDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format"})
			return
		}
		p.SoldDate = &sd
	}

	// Category must exist and belong to the caller.
	catID, err := strconv.ParseUint(c.PostForm("categoryId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "categoryId is required"})
		return
	}
	var category models.Category
	if err := db.Where("id = ? AND user_id = ?", catID, user.ID).First(&category).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category not found"})
		return
	}
	p.CategoryID = category.ID

	// Optional photo
	if file, err := c.FormFile("photo"); err == nil {
		storedName, err := saveProductPhoto(c, file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "photo save failed"})
			return
		}
		p.Photo = storedName
	}

	if err := db.Create(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "message": "product created successfully"})
}

func listProductsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var products []models.Product
	if err := db.Preload("Category").Where("user_id = ?", user.ID).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// getProductHandler returns a single product. The frontend re-fetches the
// full record after create to pick up server-computed fields.
func getProductHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var p models.Product
	if err := db.Preload("Category").First(&p, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if p.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func deleteProductHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var p models.Product
	if err := db.First(&p, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if p.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
		return
	}
	if err := db.Delete(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted successfully"})
}

func createCategoryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category name is required"})
		return
	}
	category := models.Category{Name: name, UserID: user.ID}
	if err := db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": category.ID, "name": category.Name})
}

func listCategoriesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var categories []models.Category
	if err := db.Where("user_id = ?", user.ID).Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, categories)
}
