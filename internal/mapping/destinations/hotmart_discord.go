package destinations

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
)

const (
	platformDiscord     = "Discord"
	discordDefaultName  = "HookRelay"
	discordApprovedTint = 0x2ECC71
)

// HotmartDiscordSendMessage posts an approved hotmart purchase to a Discord channel webhook.
type HotmartDiscordSendMessage struct {
	fixedRoute
	poster Poster
	now    func() time.Time
}

func NewHotmartDiscordSendMessage(poster Poster) *HotmartDiscordSendMessage {
	return &HotmartDiscordSendMessage{
		fixedRoute: fixedRoute{route: mapping.Route{
			SourcePlatform: sourceHotmart,
			SourceEvent:    "PURCHASE_APPROVED",
			DestPlatform:   "discord",
			DestAction:     "send_message",
		}},
		poster: poster,
		now:    time.Now,
	}
}

type discordMessage struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title     string              `json:"title"`
	Color     int                 `json:"color"`
	Fields    []discordEmbedField `json:"fields"`
	Timestamp string              `json:"timestamp"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (m *HotmartDiscordSendMessage) MapAndDispatch(ctx context.Context, payload json.RawMessage, rule *models.Integration) (*mapping.Result, error) {
	webhookURL, err := mapping.RequireField(rule, platformDiscord, "webhookUrl")
	if err != nil {
		return nil, err
	}

	var purchase hotmartPurchase
	if err := mapping.Decode(platformDiscord, payload, &purchase); err != nil {
		return nil, err
	}

	username, ok := mapping.Field(rule, "username")
	if !ok {
		username = discordDefaultName
	}

	body := discordMessage{
		Username: username,
		Embeds: []discordEmbed{{
			Title: "Purchase approved",
			Color: discordApprovedTint,
			Fields: []discordEmbedField{
				{Name: "Buyer", Value: orDash(purchase.Buyer.Name)},
				{Name: "Email", Value: orDash(purchase.Buyer.Email)},
				{Name: "Product", Value: orDash(purchase.Product.Name)},
				{Name: "Price", Value: purchase.Purchase.Price.String(), Inline: true},
				{Name: "Transaction", Value: orDash(purchase.Purchase.Transaction), Inline: true},
			},
			Timestamp: m.now().UTC().Format(time.RFC3339),
		}},
	}

	resp, err := m.poster.Post(ctx, mapping.Request{Platform: platformDiscord, URL: webhookURL, Body: body})
	if err != nil {
		return nil, err
	}
	return dispatched(resp, body), nil
}

// discord rejects embed fields with empty values
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
