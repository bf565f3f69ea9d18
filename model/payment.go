package model

const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

// PaymentAttempt is one hosted checkout opened for an order.
type PaymentAttempt struct {
	DTO
	OrdrId     uint    `gorm:"index;not null" json:"ordrId"`
	Reference  string  `gorm:"uniqueIndex;size:64" json:"reference"`
	Amount     float64 `gorm:"not null" json:"amount"`
	Tip        float64 `json:"tip"`
	Currency   string  `gorm:"size:3" json:"currency"`
	Status     string  `gorm:"size:16;default:'pending'" json:"status"`
	SuccessURL string  `json:"successUrl"`
	CancelURL  string  `json:"cancelUrl"`
	Ordr       Ordr    `gorm:"foreignKey:OrdrId" json:"-"`
}

type PaymentConfig struct {
	Merchant   string
	HashSecret string
	BaseURL    string
	ReturnURL  string
}

type PaymentRequest struct {
	Amount    float64
	Currency  string
	OrderInfo string
	Reference string
	IPAddr    string
}

type PaymentResult struct {
	IsSuccess bool    `json:"isSuccess"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Message   string  `json:"message"`
}

type CreatePaymentAttemptInput struct {
	OrdrId     uint     `json:"ordr_id" validate:"required,gt=0"`
	SuccessURL string   `json:"success_url" validate:"omitempty,url"`
	CancelURL  string   `json:"cancel_url" validate:"omitempty,url"`
	Tip        *float64 `json:"tip" validate:"omitempty,min=0"`
}

type CheckoutSessionInput struct {
	SuccessURL string   `json:"success_url" validate:"omitempty,url"`
	CancelURL  string   `json:"cancel_url" validate:"omitempty,url"`
	Tip        *float64 `json:"tip" validate:"omitempty,min=0"`
}
