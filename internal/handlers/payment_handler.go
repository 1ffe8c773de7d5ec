package handlers

import (
	"net/http"

	"flowpay_backend/internal/middleware"
	"flowpay_backend/internal/models"
	"flowpay_backend/internal/services"
	"flowpay_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	payments.Use(middleware.AuthMiddleware())
	{
		payments.POST("/initiate", h.InitiatePayment)
		payments.GET("/verify/:reference", h.VerifyTransaction)
		payments.GET("", h.GetTransactions)
		payments.GET("/:transactionId", h.GetTransaction)

		// Возвраты доступны только администраторам
		payments.POST("/:transactionId/refund", middleware.RoleMiddleware(models.UserRoleAdmin), h.RefundTransaction)
	}
}

// InitiatePayment создает транзакцию и возвращает ссылку на оплату
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req models.InitiatePaymentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	userID := middleware.GetUserID(c)

	resp, err := h.paymentService.InitiatePayment(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// VerifyTransaction запрашивает у шлюза итоговый статус транзакции.
// Идемпотентен: вызывается и с redirect-страницы, и фоновой сверкой.
func (h *PaymentHandler) VerifyTransaction(c *gin.Context) {
	reference := c.Param("reference")

	result, err := h.paymentService.VerifyTransaction(c.Request.Context(), h.GetDB(c), reference)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RefundTransaction выполняет возврат платежа
func (h *PaymentHandler) RefundTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")

	var req models.RefundRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	result, err := h.paymentService.RefundTransaction(c.Request.Context(), h.GetDB(c), transactionID, req.Reason)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactions возвращает транзакции текущего пользователя
func (h *PaymentHandler) GetTransactions(c *gin.Context) {
	var filter models.TransactionFilter
	if !h.BindAndValidateQuery(c, &filter) {
		return
	}

	userID := middleware.GetUserID(c)

	txs, err := h.paymentService.GetUserTransactions(h.GetDB(c), userID, &filter)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txs, "count": len(txs)})
}

// GetTransaction возвращает одну транзакцию текущего пользователя
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")

	tx, err := h.paymentService.GetTransaction(h.GetDB(c), middleware.GetUserID(c), middleware.IsAdmin(c), transactionID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}
