package codec

import (
	"encoding/json"

	"github.com/yanun0323/errors"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
	"github.com/gareth0712/hyperliquid-client/pkg/exception"
)

// MessageKind tags a decoded inbound message.
type MessageKind uint8

const (
	KindUnknown MessageKind = iota
	KindAccountUpdate
	KindPriceBroadcast
	KindSubscriptionReply
	KindPong
)

func (k MessageKind) String() string {
	switch k {
	case KindAccountUpdate:
		return "accountUpdate"
	case KindPriceBroadcast:
		return "priceBroadcast"
	case KindSubscriptionReply:
		return "subscriptionReply"
	case KindPong:
		return "pong"
	default:
		return "unknown"
	}
}

// Message is a decoded inbound feed message. Exactly the field matching Kind
// is set; unknown channels produce KindUnknown with only Channel populated.
type Message struct {
	Kind           MessageKind
	Channel        string
	AccountUpdate  *schema.AccountUpdate
	PriceBroadcast *schema.PriceBroadcast
	Reply          *schema.SubscriptionReply
}

// Decode parses a raw inbound frame into a tagged message. A malformed
// envelope or payload yields an error wrapping exception.ErrMessageParse;
// messages on unknown channels are not an error.
func Decode(payload []byte) (Message, error) {
	var env schema.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Message{}, errors.Wrapf(exception.ErrMessageParse, "envelope: %v", err)
	}

	msg := Message{Channel: env.Channel}
	switch env.Channel {
	case schema.ChannelAccountUpdate:
		var update schema.AccountUpdate
		if err := json.Unmarshal(env.Data, &update); err != nil {
			return Message{}, errors.Wrapf(exception.ErrMessageParse, "account update: %v", err)
		}
		msg.Kind = KindAccountUpdate
		msg.AccountUpdate = &update
	case schema.ChannelPriceBroadcast:
		var prices schema.PriceBroadcast
		if err := json.Unmarshal(env.Data, &prices); err != nil {
			return Message{}, errors.Wrapf(exception.ErrMessageParse, "price broadcast: %v", err)
		}
		msg.Kind = KindPriceBroadcast
		msg.PriceBroadcast = &prices
	case schema.ChannelSubscriptionReply:
		var reply schema.SubscriptionReply
		if err := json.Unmarshal(env.Data, &reply); err != nil {
			return Message{}, errors.Wrapf(exception.ErrMessageParse, "subscription reply: %v", err)
		}
		msg.Kind = KindSubscriptionReply
		msg.Reply = &reply
	case schema.ChannelPong:
		msg.Kind = KindPong
	default:
		msg.Kind = KindUnknown
	}
	return msg, nil
}
