package schema

import "encoding/json"

// Feed channel names. Channels the tracker does not know are ignored.
const (
	ChannelAccountUpdate     = "accountUpdate"
	ChannelPriceBroadcast    = "priceBroadcast"
	ChannelSubscriptionReply = "subscriptionResponse"
	ChannelPong              = "pong"
)

// Subscription stream types. The feed echoes them back as channel names.
const (
	SubscribeAccountUpdate  = "accountUpdate"
	SubscribePriceBroadcast = "priceBroadcast"
)

// Envelope is the outer shape of every inbound feed message.
type Envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// Subscription is the inner part of a subscribe request.
// User is set only for account-scoped streams, Dex only when a venue tag is
// configured.
type Subscription struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
	Dex  string `json:"dex,omitempty"`
}

// SubscribeRequest is the outbound subscribe message.
type SubscribeRequest struct {
	Method       string       `json:"method"`
	Subscription Subscription `json:"subscription"`
}

// PingRequest is the outbound keepalive message.
type PingRequest struct {
	Method string `json:"method"`
}

// MarginSummary carries the margin account component of an account update.
type MarginSummary struct {
	AccountValue string `json:"accountValue"`
}

// ClearinghouseState wraps the margin summary as delivered by the feed.
type ClearinghouseState struct {
	MarginSummary MarginSummary `json:"marginSummary"`
}

// SpotBalance is a single spot holding. Total and EntryNtl are decimal
// strings as delivered by the feed.
type SpotBalance struct {
	Coin     string `json:"coin"`
	Total    string `json:"total"`
	EntryNtl string `json:"entryNtl,omitempty"`
}

// SpotState wraps the spot balances of an account update.
type SpotState struct {
	Balances []SpotBalance `json:"balances"`
}

// AccountUpdate is the data payload of an accountUpdate message.
type AccountUpdate struct {
	User               string             `json:"user"`
	Time               int64              `json:"time"`
	ClearinghouseState ClearinghouseState `json:"clearinghouseState"`
	SpotState          SpotState          `json:"spotState"`
}

// PriceBroadcast is the data payload of a priceBroadcast message: the latest
// mid price per symbol, as decimal strings.
type PriceBroadcast struct {
	Mids map[string]string `json:"mids"`
}

// SubscriptionReply is the ack payload for a subscribe request.
type SubscriptionReply struct {
	Method       string       `json:"method"`
	Subscription Subscription `json:"subscription"`
}
