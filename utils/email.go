package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"smartmenu/config"
	"smartmenu/logger"
)

var mailLog = logger.New("smartmenu")

type ReceiptLine struct {
	Name  string
	Price string
}

// ReceiptData is what the bill receipt email shows.
type ReceiptData struct {
	Restaurant  string
	OrderID     uint
	Table       string
	Lines       []ReceiptLine
	Nett        string
	Covercharge string
	Service     string
	Tax         string
	Tip         string
	Gross       string
	Currency    string
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<h2>{{.Restaurant}}</h2>
<p>Order #{{.OrderID}}{{if .Table}} &middot; {{.Table}}{{end}}</p>
<table>
{{range .Lines}}<tr><td>{{.Name}}</td><td align="right">{{.Price}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Currency}}{{.Nett}}<br>
Cover charge: {{.Currency}}{{.Covercharge}}<br>
Service: {{.Currency}}{{.Service}}<br>
Tax: {{.Currency}}{{.Tax}}<br>
Tip: {{.Currency}}{{.Tip}}</p>
<p><strong>Total: {{.Currency}}{{.Gross}}</strong></p>
`))

func RenderReceipt(data ReceiptData) (string, error) {
	var body bytes.Buffer
	if err := receiptTemplate.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// SendReceiptEmail mails the bill receipt in the background. It does nothing
// when SMTP is not configured.
func SendReceiptEmail(s config.Settings, to string, data ReceiptData) {
	if s.SMTPHost == "" || to == "" {
		return
	}
	go func() {
		body, err := RenderReceipt(data)
		if err != nil {
			mailLog.Error("render_receipt", err, logger.Fields{"order_id": data.OrderID})
			return
		}

		m := gomail.NewMessage()
		m.SetHeader("From", s.SMTPFrom)
		m.SetHeader("To", to)
		m.SetHeader("Subject", fmt.Sprintf("%s receipt #%d", data.Restaurant, data.OrderID))
		m.SetBody("text/html", body)

		d := gomail.NewDialer(s.SMTPHost, s.SMTPPort, s.SMTPUsername, s.SMTPPassword)
		if err := d.DialAndSend(m); err != nil {
			mailLog.Error("send_receipt", err, logger.Fields{"order_id": data.OrderID})
			return
		}
		mailLog.Info("receipt_sent", logger.Fields{"order_id": data.OrderID})
	}()
}
