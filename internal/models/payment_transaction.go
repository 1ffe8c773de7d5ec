package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentTransaction - локальная аудит-запись платежа.
// Запись создается до первого сетевого вызова и никогда не удаляется ядром:
// при удалении владельца UserID обнуляется, транзакция остается.
type PaymentTransaction struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	UserID *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`

	// Назначается однократно, до первого вызова шлюза.
	// Идемпотентный ключ корреляции с шлюзом, формат FLW-<12 hex>.
	TransactionReference string `gorm:"size:100;uniqueIndex;not null" json:"transaction_reference"`

	// Идентификатор, который шлюз присваивает при успешной инициации
	GatewayTransactionID string `gorm:"size:100" json:"gateway_transaction_id,omitempty"`

	Amount   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency string          `gorm:"size:5;not null;default:'USD'" json:"currency"`

	Status TransactionStatus `gorm:"type:varchar(20);not null;default:'INITIATED'" json:"status"`

	// Зарезервировано, текущие потоки его не выставляют
	PaymentMethod PaymentMethod `gorm:"type:varchar(20)" json:"payment_method,omitempty"`

	CustomerEmail string `gorm:"size:254" json:"customer_email,omitempty"`

	// Последний сырой ответ шлюза, перезаписывается при каждом обмене.
	// Хранится независимо от исхода обмена - для аудита и ручной сверки.
	RawResponse datatypes.JSON `json:"raw_response,omitempty"`
}

// RefundWindow - срок, в течение которого разрешен возврат
const RefundWindow = 30 * 24 * time.Hour

// IsRefundable сообщает, проходит ли транзакция обе проверки возврата
func (t *PaymentTransaction) IsRefundable(now time.Time) bool {
	return t.Status == TransactionStatusSuccessful &&
		now.Sub(t.CreatedAt) <= RefundWindow
}
