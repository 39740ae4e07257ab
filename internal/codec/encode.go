package codec

import (
	"encoding/json"

	"github.com/yanun0323/errors"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/pkg/exception"
)

// EncodeAccountSubscribe builds the subscribe request for one account's
// update stream.
func EncodeAccountSubscribe(account schema.Account, dex string) schema.SubscribeRequest {
	return schema.SubscribeRequest{
		Method: "subscribe",
		Subscription: schema.Subscription{
			Type: schema.SubscribeAccountUpdate,
			User: account.ID,
			Dex:  dex,
		},
	}
}

// EncodePriceSubscribe builds the pool-shared broadcast price subscription,
// issued once per connection.
func EncodePriceSubscribe(dex string) schema.SubscribeRequest {
	return schema.SubscribeRequest{
		Method: "subscribe",
		Subscription: schema.Subscription{
			Type: schema.SubscribePriceBroadcast,
			Dex:  dex,
		},
	}
}

// EncodePing builds the keepalive message.
func EncodePing() schema.PingRequest {
	return schema.PingRequest{Method: "ping"}
}

// EncodeFilteredUpdate re-encodes an account update through the typed schema,
// dropping fields the tracker does not know. Used by the raw-filtered
// persistence mode.
func EncodeFilteredUpdate(update *schema.AccountUpdate) ([]byte, error) {
	if update == nil {
		return nil, errors.Wrap(exception.ErrMessageParse, "nil account update")
	}
	data, err := json.Marshal(update)
	if err != nil {
		return nil, errors.Wrapf(exception.ErrMessageParse, "re-encode account update: %v", err)
	}
	env := schema.Envelope{Channel: schema.ChannelAccountUpdate, Data: data}
	return json.Marshal(env)
}
