package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/signalflux/internal/utils/request"
)

const (
	username = "Trading Bot"

	colorSuccess = 0x00ff00
	colorFailure = 0xff0000
	colorInfo    = 0x0099ff

	footerText = "signalflux"
)

// URLSource supplies the current webhook URL, so updates through the
// configuration surface apply without rebuilding the notifier.
type URLSource interface {
	DiscordWebhookURL() string
}

// Webhook posts messages and embeds to a Discord channel webhook.
type Webhook struct {
	urls URLSource
	log  *slog.Logger
	http *resty.Client
}

// New creates a Discord webhook notifier.
func New(urls URLSource, log *slog.Logger) *Webhook {
	if log == nil {
		log = slog.Default()
	}
	return &Webhook{urls: urls, log: log, http: request.Request}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type payload struct {
	Content  string  `json:"content"`
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds,omitempty"`
}

func (w *Webhook) post(ctx context.Context, p payload) error {
	url := w.urls.DiscordWebhookURL()
	if url == "" {
		w.log.Warn("discord webhook URL not configured, dropping message")
		return nil
	}

	p.Username = username
	resp, err := w.http.R().SetContext(ctx).SetBody(p).Post(url)
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode())
	}
	return nil
}

// Send delivers a plain text message.
func (w *Webhook) Send(ctx context.Context, content string) error {
	return w.post(ctx, payload{Content: content})
}

// SendTradingAlert reports one routed order attempt as a colored embed.
func (w *Webhook) SendTradingAlert(ctx context.Context, symbol, action string, quantity, price decimal.Decimal, status, message string) error {
	color := colorFailure
	if status == "success" {
		color = colorSuccess
	}

	e := embed{
		Title:       "🔄 Trade Executed",
		Description: message,
		Color:       color,
		Fields: []embedField{
			{Name: "Symbol", Value: symbol, Inline: true},
			{Name: "Action", Value: action, Inline: true},
			{Name: "Quantity", Value: quantity.String(), Inline: true},
			{Name: "Price", Value: price.String(), Inline: true},
			{Name: "Status", Value: status, Inline: true},
			{Name: "Time", Value: time.Now().Format("2006-01-02 15:04:05"), Inline: true},
		},
	}
	e.Footer.Text = footerText

	return w.post(ctx, payload{Embeds: []embed{e}})
}

// SendErrorAlert reports a failure with optional detail.
func (w *Webhook) SendErrorAlert(ctx context.Context, errType, errMessage, details string) error {
	e := embed{
		Title: "❌ Error",
		Color: colorFailure,
		Fields: []embedField{
			{Name: "Type", Value: errType, Inline: true},
			{Name: "Message", Value: errMessage},
			{Name: "Time", Value: time.Now().Format("2006-01-02 15:04:05"), Inline: true},
		},
	}
	if details != "" {
		e.Fields = append(e.Fields, embedField{Name: "Details", Value: details})
	}
	e.Footer.Text = footerText

	return w.post(ctx, payload{Embeds: []embed{e}})
}

// SendStatusUpdate reports bot health with optional key/value fields.
func (w *Webhook) SendStatusUpdate(ctx context.Context, status string, details map[string]string) error {
	e := embed{
		Title: "📊 Status Update",
		Color: colorInfo,
		Fields: []embedField{
			{Name: "Status", Value: status, Inline: true},
			{Name: "Time", Value: time.Now().Format("2006-01-02 15:04:05"), Inline: true},
		},
	}
	names := make([]string, 0, len(details))
	for name := range details {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.Fields = append(e.Fields, embedField{Name: name, Value: details[name], Inline: true})
	}
	e.Footer.Text = footerText

	return w.post(ctx, payload{Embeds: []embed{e}})
}
