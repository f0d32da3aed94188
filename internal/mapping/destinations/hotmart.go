package destinations

import (
	"strings"

	"github.com/shopspring/decimal"
)

const sourceHotmart = "hotmart"

// hotmartPurchase is the "data" object of a hotmart postback.
type hotmartPurchase struct {
	Product  hotmartProduct `json:"product"`
	Buyer    hotmartBuyer   `json:"buyer"`
	Purchase hotmartOrder   `json:"purchase"`
	Offer    *hotmartOffer  `json:"offer,omitempty"`
}

type hotmartProduct struct {
	ID    flexID `json:"id"`
	UCode string `json:"ucode"`
	Name  string `json:"name"`
}

type hotmartBuyer struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Document      string `json:"document"`
	CheckoutPhone string `json:"checkout_phone"`
	Phone         string `json:"phone"`
}

func (b hotmartBuyer) phone() string {
	return firstNonEmpty(b.CheckoutPhone, b.Phone)
}

type hotmartOrder struct {
	Transaction string       `json:"transaction"`
	Status      string       `json:"status"`
	Price       hotmartPrice `json:"price"`
}

type hotmartPrice struct {
	Value        decimal.NullDecimal `json:"value"`
	CurrencyCode string              `json:"currency_value"`
}

func (p hotmartPrice) String() string {
	amount := string(money(p.Value))
	if code := strings.TrimSpace(p.CurrencyCode); code != "" {
		return code + " " + amount
	}
	return amount
}

type hotmartOffer struct {
	Code string `json:"code"`
}
