package destinations

import "github.com/shopspring/decimal"

const sourceLastlink = "lastlink"

type lastlinkEvent struct {
	ID        string       `json:"Id"`
	Event     string       `json:"Event"`
	CreatedAt string       `json:"CreatedAt"`
	Data      lastlinkData `json:"Data"`
}

type lastlinkData struct {
	Buyer    lastlinkBuyer     `json:"Buyer"`
	Products []lastlinkProduct `json:"Products"`
	Offer    lastlinkOffer     `json:"Offer"`
}

type lastlinkBuyer struct {
	ID          flexID `json:"Id"`
	Name        string `json:"Name"`
	Email       string `json:"Email"`
	Document    string `json:"Document"`
	PhoneNumber string `json:"PhoneNumber"`
	Phone       string `json:"Phone"`
}

func (b lastlinkBuyer) phone() string {
	return firstNonEmpty(b.PhoneNumber, b.Phone)
}

type lastlinkProduct struct {
	ID    flexID              `json:"Id"`
	Name  string              `json:"Name"`
	Price decimal.NullDecimal `json:"Price"`
}

type lastlinkOffer struct {
	ID   flexID `json:"Id"`
	Name string `json:"Name"`
	URL  string `json:"Url"`
}
