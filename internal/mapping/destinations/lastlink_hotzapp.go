package destinations

import (
	"context"
	"encoding/json"

	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
)

const platformHotzapp = "Hotzapp"

// LastlinkHotzappCreateProduct forwards an abandoned lastlink checkout to Hotzapp for recovery.
type LastlinkHotzappCreateProduct struct {
	fixedRoute
	poster Poster
}

func NewLastlinkHotzappCreateProduct(poster Poster) *LastlinkHotzappCreateProduct {
	return &LastlinkHotzappCreateProduct{
		fixedRoute: fixedRoute{route: mapping.Route{
			SourcePlatform: sourceLastlink,
			SourceEvent:    "abandoned.cart",
			DestPlatform:   "hotzapp",
			DestAction:     "create.product",
		}},
		poster: poster,
	}
}

type hotzappAbandonedCart struct {
	CreatedAt            string            `json:"created_at"`
	Name                 string            `json:"name"`
	Phone                string            `json:"phone"`
	Email                string            `json:"email"`
	AbandonedCheckoutURL string            `json:"abandoned_checkout_url"`
	LineItems            []hotzappLineItem `json:"line_items"`
}

type hotzappLineItem struct {
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	Price       json.Number `json:"price"`
}

func (m *LastlinkHotzappCreateProduct) MapAndDispatch(ctx context.Context, payload json.RawMessage, rule *models.Integration) (*mapping.Result, error) {
	endpoint, err := mapping.RequireField(rule, platformHotzapp, "url")
	if err != nil {
		return nil, err
	}
	apiKey, err := mapping.RequireField(rule, platformHotzapp, "apiKey")
	if err != nil {
		return nil, err
	}

	var event lastlinkEvent
	if err := mapping.Decode(platformHotzapp, payload, &event); err != nil {
		return nil, err
	}

	lineItems := make([]hotzappLineItem, 0, len(event.Data.Products))
	for _, product := range event.Data.Products {
		lineItems = append(lineItems, hotzappLineItem{
			ProductName: product.Name,
			Quantity:    1,
			Price:       money(product.Price),
		})
	}

	buyer := event.Data.Buyer
	body := hotzappAbandonedCart{
		CreatedAt:            event.CreatedAt,
		Name:                 buyer.Name,
		Phone:                buyer.phone(),
		Email:                buyer.Email,
		AbandonedCheckoutURL: event.Data.Offer.URL,
		LineItems:            lineItems,
	}

	resp, err := m.poster.Post(ctx, mapping.Request{
		Platform: platformHotzapp,
		URL:      endpoint,
		Headers:  map[string]string{"Authorization": "Bearer " + apiKey},
		Body:     body,
	})
	if err != nil {
		return nil, err
	}
	return dispatched(resp, body), nil
}
