package destinations

import (
	"context"
	"encoding/json"

	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
)

const platformAstromembers = "Astromembers"

// HotmartAstromembersCreateMember enrolls the buyer of an approved hotmart purchase on Astromembers.
type HotmartAstromembersCreateMember struct {
	fixedRoute
	poster Poster
}

func NewHotmartAstromembersCreateMember(poster Poster) *HotmartAstromembersCreateMember {
	return &HotmartAstromembersCreateMember{
		fixedRoute: fixedRoute{route: mapping.Route{
			SourcePlatform: sourceHotmart,
			SourceEvent:    "PURCHASE_APPROVED",
			DestPlatform:   "astromembers",
			DestAction:     "create_member",
		}},
		poster: poster,
	}
}

type astromembersMember struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	Document   string   `json:"document,omitempty"`
	CourseIDs  []string `json:"course_ids"`
	ExternalID string   `json:"external_id,omitempty"`
}

func (m *HotmartAstromembersCreateMember) MapAndDispatch(ctx context.Context, payload json.RawMessage, rule *models.Integration) (*mapping.Result, error) {
	endpoint, err := mapping.RequireField(rule, platformAstromembers, "url")
	if err != nil {
		return nil, err
	}
	apiKey, err := mapping.RequireField(rule, platformAstromembers, "apiKey")
	if err != nil {
		return nil, err
	}
	courseID, err := mapping.RequireField(rule, platformAstromembers, "courseId")
	if err != nil {
		return nil, err
	}

	var purchase hotmartPurchase
	if err := mapping.Decode(platformAstromembers, payload, &purchase); err != nil {
		return nil, err
	}

	courseIDs := []string{courseID}
	if dest, ok := rule.OrderBump.Translate(string(purchase.Product.ID)); ok {
		courseIDs = append(courseIDs, dest)
	}

	body := astromembersMember{
		Name:       purchase.Buyer.Name,
		Email:      purchase.Buyer.Email,
		Phone:      purchase.Buyer.phone(),
		Document:   purchase.Buyer.Document,
		CourseIDs:  courseIDs,
		ExternalID: purchase.Purchase.Transaction,
	}

	resp, err := m.poster.Post(ctx, mapping.Request{
		Platform: platformAstromembers,
		URL:      endpoint,
		Headers:  map[string]string{"x-api-key": apiKey},
		Body:     body,
	})
	if err != nil {
		return nil, err
	}
	return dispatched(resp, body), nil
}
