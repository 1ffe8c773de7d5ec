package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Статус в конверте ответа, который шлюз присылает при успехе
const envelopeStatusSuccess = "success"

// Config - параметры подключения к Flutterwave.
// Передается явно при конструировании, клиент не читает глобальное состояние.
type Config struct {
	BaseURL     string
	SecretKey   string
	RedirectURL string
	Timeout     time.Duration
}

// Charge - запрос на создание платежа у шлюза
type Charge struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	CustomerName  string
	UserID        string
	TransactionID string
}

// ChargeResult - результат успешной инициации
type ChargeResult struct {
	ExternalID   string
	CheckoutLink string
	Raw          json.RawMessage
}

// VerifyResult - результат успешного запроса верификации
type VerifyResult struct {
	RemoteStatus string
	Raw          json.RawMessage
}

// RefundResult - результат успешного возврата
type RefundResult struct {
	Raw json.RawMessage
}

// Client - интерфейс шлюза. Оркестратор зависит от него, а не от HTTP-клиента,
// в тестах подменяется фейком.
type Client interface {
	CreateCharge(ctx context.Context, charge Charge) (*ChargeResult, error)
	VerifyCharge(ctx context.Context, externalID string) (*VerifyResult, error)
	IssueRefund(ctx context.Context, externalID string, amount decimal.Decimal, reason string) (*RefundResult, error)
}

// GatewayError - любой отказ шлюза: явное отклонение, не-2xx статус или
// ошибка транспорта. Raw хранит тело ответа, если оно было получено.
type GatewayError struct {
	Message string
	Code    string
	Raw     json.RawMessage
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flutterwave: %s (%v)", e.Message, e.Err)
	}
	return fmt.Sprintf("flutterwave: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

type client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient создает HTTP-клиент Flutterwave
func NewClient(cfg Config) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// конверт ответа шлюза: {status, message, data{...}}
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID     json.Number `json:"id"`
		Link   string      `json:"link"`
		Status string      `json:"status"`
	} `json:"data"`
}

type chargePayload struct {
	TxRef          string          `json:"tx_ref"`
	Amount         string          `json:"amount"`
	Currency       string          `json:"currency"`
	PaymentOptions string          `json:"payment_options"`
	RedirectURL    string          `json:"redirect_url"`
	Customer       customerPayload `json:"customer"`
	Meta           metaPayload     `json:"meta"`
}

type customerPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type metaPayload struct {
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
}

type refundPayload struct {
	ID string `json:"id"`
	// Сумма возврата уходит числом, без кавычек
	Amount json.Number `json:"amount"`
	Reason string      `json:"reason"`
}

func (c *client) CreateCharge(ctx context.Context, charge Charge) (*ChargeResult, error) {
	payload := chargePayload{
		TxRef:          charge.Reference,
		Amount:         charge.Amount.String(),
		Currency:       charge.Currency,
		PaymentOptions: "card,banktransfer,ussd",
		RedirectURL:    c.cfg.RedirectURL,
		Customer: customerPayload{
			Email: charge.CustomerEmail,
			Name:  charge.CustomerName,
		},
		Meta: metaPayload{
			UserID:        charge.UserID,
			TransactionID: charge.TransactionID,
		},
	}

	env, raw, err := c.do(ctx, http.MethodPost, "/payments", payload)
	if err != nil {
		return nil, err
	}

	return &ChargeResult{
		ExternalID:   env.Data.ID.String(),
		CheckoutLink: env.Data.Link,
		Raw:          raw,
	}, nil
}

func (c *client) VerifyCharge(ctx context.Context, externalID string) (*VerifyResult, error) {
	env, raw, err := c.do(ctx, http.MethodGet, "/transactions/"+externalID+"/verify", nil)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		RemoteStatus: env.Data.Status,
		Raw:          raw,
	}, nil
}

func (c *client) IssueRefund(ctx context.Context, externalID string, amount decimal.Decimal, reason string) (*RefundResult, error) {
	payload := refundPayload{
		ID:     externalID,
		Amount: json.Number(amount.String()),
		Reason: reason,
	}

	_, raw, err := c.do(ctx, http.MethodPost, "/transactions/refund", payload)
	if err != nil {
		return nil, err
	}

	return &RefundResult{Raw: raw}, nil
}

// do выполняет один синхронный вызов шлюза без ретраев.
// Любой исход, кроме 2xx со status=="success" в конверте, возвращается
// как *GatewayError.
func (c *client) do(ctx context.Context, method, path string, payload interface{}) (*envelope, json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, &GatewayError{Message: "failed to encode request", Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, nil, &GatewayError{Message: "failed to build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// DNS, таймаут, обрыв соединения
		return nil, nil, &GatewayError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &GatewayError{Message: "failed to read response body", Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, &GatewayError{
			Message: fmt.Sprintf("invalid gateway response (HTTP %d)", resp.StatusCode),
			Raw:     raw,
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.Status != envelopeStatusSuccess {
		gwErr := &GatewayError{
			Message: env.Message,
			Code:    env.Message,
			Raw:     raw,
		}
		if gwErr.Message == "" {
			gwErr.Message = fmt.Sprintf("gateway rejected the call (HTTP %d)", resp.StatusCode)
			gwErr.Code = "UNKNOWN_ERROR"
		}
		return nil, raw, gwErr
	}

	return &env, raw, nil
}
