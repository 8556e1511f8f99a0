package main

import (
	"net/http"

	"bizbook/models"

	"github.com/gin-gonic/gin"
)

// entryRequest is the shared JSON shape for revenue and expense creation.
// Counterparty/Reference carry customer/invoiceNumber for revenue and
// vendor/receiptNumber for expenses.
type entryRequest struct {
	Description   string  `json:"description" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	Category      string  `json:"category" binding:"required"`
	Date          string  `json:"date" binding:"required"`
	PaymentMethod string  `json:"paymentMethod"`
	Customer      string  `json:"customer"`
	InvoiceNumber string  `json:"invoiceNumber"`
	Vendor        string  `json:"vendor"`
	ReceiptNumber string  `json:"receiptNumber"`
	Notes         string  `json:"notes"`
}

func createRevenueHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	date, err := parseEntryDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format"})
		return
	}
	r := models.Revenue{
		UserID:        user.ID,
		Description:   req.Description,
		Amount:        req.Amount,
		Category:      req.Category,
		Date:          date,
		PaymentMethod: req.PaymentMethod,
		Customer:      req.Customer,
		InvoiceNumber: req.InvoiceNumber,
		Notes:         req.Notes,
	}
	if err := db.Create(&r).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": r.ID, "message": "revenue created successfully"})
}

func listRevenuesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Revenue
	if err := db.Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func deleteRevenueHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var r models.Revenue
	if err := db.First(&r, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if r.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
		return
	}
	if err := db.Delete(&r).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "revenue deleted successfully"})
}

func createExpenseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	date, err := parseEntryDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format"})
		return
	}
	e := models.Expense{
		UserID:        user.ID,
		Description:   req.Description,
		Amount:        req.Amount,
		Category:      req.Category,
		Date:          date,
		PaymentMethod: req.PaymentMethod,
		Vendor:        req.Vendor,
		ReceiptNumber: req.ReceiptNumber,
		Notes:         req.Notes,
	}
	if err := db.Create(&e).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": e.ID, "message": "expense created successfully"})
}

func listExpensesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Expense
	if err := db.Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func deleteExpenseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var e models.Expense
	if err := db.First(&e, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if e.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
		return
	}
	if err := db.Delete(&e).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "expense deleted successfully"})
}
