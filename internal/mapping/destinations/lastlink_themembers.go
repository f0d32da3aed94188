package destinations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
)

const (
	platformTheMembers       = "Themembers"
	defaultTheMembersBaseURL = "https://registration.themembers.dev.br"
)

// LastlinkThemembersCreateUser registers the buyer of a confirmed lastlink purchase on TheMembers.
type LastlinkThemembersCreateUser struct {
	fixedRoute
	poster  Poster
	baseURL string
	now     func() time.Time
}

func NewLastlinkThemembersCreateUser(poster Poster, baseURL string) *LastlinkThemembersCreateUser {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultTheMembersBaseURL
	}
	return &LastlinkThemembersCreateUser{
		fixedRoute: fixedRoute{route: mapping.Route{
			SourcePlatform: sourceLastlink,
			SourceEvent:    "purchase.confirmed",
			DestPlatform:   "themembers",
			DestAction:     "create.user",
		}},
		poster:  poster,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

type theMembersCreateUser struct {
	ProductID []string         `json:"product_id"`
	Users     []theMembersUser `json:"users"`
}

type theMembersUser struct {
	Name          string `json:"name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Document      string `json:"document"`
	Phone         string `json:"phone"`
	ReferenceID   string `json:"reference_id"`
	AccessionDate string `json:"accession_date"`
}

func (m *LastlinkThemembersCreateUser) MapAndDispatch(ctx context.Context, payload json.RawMessage, rule *models.Integration) (*mapping.Result, error) {
	productID, err := mapping.RequireField(rule, platformTheMembers, "productId")
	if err != nil {
		return nil, err
	}
	developerToken, err := mapping.RequireField(rule, platformTheMembers, "developerToken")
	if err != nil {
		return nil, err
	}
	platformToken, err := mapping.RequireField(rule, platformTheMembers, "platformToken")
	if err != nil {
		return nil, err
	}

	var event lastlinkEvent
	if err := mapping.Decode(platformTheMembers, payload, &event); err != nil {
		return nil, err
	}

	productIDs := []string{productID}
	for _, product := range event.Data.Products {
		if dest, ok := rule.OrderBump.Translate(string(product.ID)); ok {
			productIDs = append(productIDs, dest)
		}
	}

	buyer := event.Data.Buyer
	body := theMembersCreateUser{
		ProductID: productIDs,
		Users: []theMembersUser{{
			Name:          buyer.Name,
			LastName:      " ",
			Email:         buyer.Email,
			Document:      buyer.Document,
			Phone:         buyer.phone(),
			ReferenceID:   string(buyer.ID),
			AccessionDate: m.accessionDate(event.CreatedAt),
		}},
	}

	endpoint := fmt.Sprintf("%s/api/users/create/%s/%s", m.baseURL, url.PathEscape(developerToken), url.PathEscape(platformToken))
	resp, err := m.poster.Post(ctx, mapping.Request{Platform: platformTheMembers, URL: endpoint, Body: body})
	if err != nil {
		return nil, err
	}
	return dispatched(resp, body), nil
}

func (m *LastlinkThemembersCreateUser) accessionDate(createdAt string) string {
	if date, _, _ := strings.Cut(strings.TrimSpace(createdAt), "T"); date != "" {
		return date
	}
	return m.now().UTC().Format(time.DateOnly)
}
