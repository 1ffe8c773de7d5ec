package models

import (
	"github.com/shopspring/decimal"
)

// Запросы и ответы платежного API

type InitiatePaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required" validate:"required"`
	Currency      string          `json:"currency" validate:"omitempty,min=3,max=5"`
	CustomerEmail string          `json:"customer_email" validate:"omitempty,email"`
}

type InitiatePaymentResponse struct {
	TransactionReference string `json:"transaction_reference"`
	PaymentLink          string `json:"payment_link"`
}

type VerificationResult struct {
	TransactionReference string            `json:"transaction_reference"`
	Status               TransactionStatus `json:"status"`
	Amount               decimal.Decimal   `json:"amount"`
	Currency             string            `json:"currency"`
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"omitempty,min=3,max=255"`
}

type RefundResult struct {
	TransactionReference string          `json:"transaction_reference"`
	RefundStatus         string          `json:"refund_status"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
}

// TransactionFilter - фильтры списка транзакций пользователя
type TransactionFilter struct {
	Status   TransactionStatus `form:"status" validate:"omitempty,oneof=INITIATED PENDING SUCCESSFUL FAILED REFUNDED"`
	Currency string            `form:"currency" validate:"omitempty,min=3,max=5"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
