package simplex

import "encoding/json"

// EventType classifies decoded websocket events from the SimpleX CLI.
type EventType string

const (
	// EventMessage is an inbound direct text message.
	EventMessage EventType = "message"
	// EventContactRequest is a new contact asking to connect.
	EventContactRequest EventType = "contact_request"
	// EventProfile carries the bot's own profile, including the invitation link.
	EventProfile EventType = "profile"
	// EventSubscriptionEnd signals the CLI dropped the event subscription.
	EventSubscriptionEnd EventType = "subscription_end"
	// EventIgnored is anything the bot does not react to.
	EventIgnored EventType = "ignored"
)

// InboundMessage is one direct text message received by the bot.
type InboundMessage struct {
	SenderID   int64
	SenderName string
	Text       string
}

// ContactRequest is a pending connection request.
type ContactRequest struct {
	ContactID   int64
	DisplayName string
}

// Event is the decoded form of one websocket frame.
type Event struct {
	Type           EventType
	Message        *InboundMessage
	Contact        *ContactRequest
	InvitationLink string
}

// Wire shapes of the CLI's JSON responses. Only the fields the bot
// consumes are modeled.

type wireEnvelope struct {
	Resp wireResp `json:"resp"`
}

type wireResp struct {
	Type           string         `json:"type"`
	InvitationLink string         `json:"invitationLink"`
	Contact        *wireContact   `json:"contact"`
	ChatItems      []wireChatItem `json:"chatItems"`
}

type wireContact struct {
	ContactID        int64  `json:"contactId"`
	LocalDisplayName string `json:"localDisplayName"`
}

type wireChatItem struct {
	ChatInfo struct {
		Contact *wireContact `json:"contact"`
	} `json:"chatInfo"`
	ChatItem *struct {
		ChatDir struct {
			Type string `json:"type"`
		} `json:"chatDir"`
		Meta struct {
			ItemText string `json:"itemText"`
		} `json:"meta"`
	} `json:"chatItem"`
}

// DecodeEvent turns one raw websocket frame into an Event. Frames the
// bot has no use for decode to EventIgnored rather than an error.
func DecodeEvent(raw []byte) (*Event, error) {
	var envelope wireEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}

	switch envelope.Resp.Type {
	case "subscriptionEnd":
		return &Event{Type: EventSubscriptionEnd}, nil

	case "profile":
		return &Event{Type: EventProfile, InvitationLink: envelope.Resp.InvitationLink}, nil

	case "contactRequest":
		contact := envelope.Resp.Contact
		if contact == nil {
			return &Event{Type: EventIgnored}, nil
		}
		return &Event{
			Type: EventContactRequest,
			Contact: &ContactRequest{
				ContactID:   contact.ContactID,
				DisplayName: contact.LocalDisplayName,
			},
		}, nil

	case "newChatItems":
		if len(envelope.Resp.ChatItems) == 0 {
			return &Event{Type: EventIgnored}, nil
		}

		item := envelope.Resp.ChatItems[0]
		if item.ChatItem == nil || item.ChatItem.ChatDir.Type != "directRcv" || item.ChatInfo.Contact == nil {
			return &Event{Type: EventIgnored}, nil
		}

		return &Event{
			Type: EventMessage,
			Message: &InboundMessage{
				SenderID:   item.ChatInfo.Contact.ContactID,
				SenderName: item.ChatInfo.Contact.LocalDisplayName,
				Text:       item.ChatItem.Meta.ItemText,
			},
		}, nil
	}

	return &Event{Type: EventIgnored}, nil
}
