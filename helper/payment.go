package helper

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"time"

	"smartmenu/model"
)

var ErrPaymentNotConfigured = errors.New("payment gateway is not configured")

// PaymentGateway builds signed hosted-checkout URLs and verifies the signed
// return callback.
type PaymentGateway struct {
	Config model.PaymentConfig
	Now    func() time.Time
}

func NewPaymentGateway(cfg model.PaymentConfig) *PaymentGateway {
	return &PaymentGateway{Config: cfg, Now: time.Now}
}

func (g *PaymentGateway) Configured() bool {
	return g != nil && g.Config.BaseURL != "" && g.Config.HashSecret != ""
}

// Amounts travel in minor units.
func minorUnits(amount float64) string {
	return strconv.FormatInt(int64(round2(amount)*100+0.5), 10)
}

func (g *PaymentGateway) BuildPaymentURL(req model.PaymentRequest) (string, error) {
	if !g.Configured() {
		return "", ErrPaymentNotConfigured
	}
	now := g.Now()
	params := url.Values{}
	params.Add("merchant", g.Config.Merchant)
	params.Add("amount", minorUnits(req.Amount))
	params.Add("currency", req.Currency)
	params.Add("reference", req.Reference)
	params.Add("order_info", req.OrderInfo)
	params.Add("ip_addr", req.IPAddr)
	params.Add("return_url", g.Config.ReturnURL)
	params.Add("created_at", now.UTC().Format("20060102150405"))
	params.Add("expires_at", now.UTC().Add(15*time.Minute).Format("20060102150405"))

	query := params.Encode()
	return g.Config.BaseURL + "?" + query + "&signature=" + g.sign(query), nil
}

// VerifyReturn checks the callback signature and reports whether the
// provider accepted the payment. query is not modified.
func (g *PaymentGateway) VerifyReturn(query url.Values) model.PaymentResult {
	if !g.Configured() {
		return model.PaymentResult{Message: ErrPaymentNotConfigured.Error()}
	}
	signature := query.Get("signature")
	rest := url.Values{}
	for k, v := range query {
		if k != "signature" {
			rest[k] = v
		}
	}
	if !hmac.Equal([]byte(signature), []byte(g.sign(rest.Encode()))) {
		return model.PaymentResult{Message: "invalid signature"}
	}
	ref := rest.Get("reference")
	if rest.Get("result") != "success" {
		return model.PaymentResult{Reference: ref, Message: "payment failed"}
	}
	minor, _ := strconv.ParseInt(rest.Get("amount"), 10, 64)
	return model.PaymentResult{IsSuccess: true, Reference: ref, Amount: float64(minor) / 100}
}

func (g *PaymentGateway) sign(data string) string {
	h := hmac.New(sha512.New, []byte(g.Config.HashSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Sign is exposed for the provider side of tests and sandboxes.
func (g *PaymentGateway) Sign(query url.Values) string {
	return g.sign(query.Encode())
}
