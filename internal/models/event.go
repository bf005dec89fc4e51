package models

import "time"

type EventType string

const (
	EventMessage           EventType = "message"
	EventFollow            EventType = "follow"
	EventUnfollow          EventType = "unfollow"
	EventJoin              EventType = "join"
	EventLeave             EventType = "leave"
	EventMemberJoined      EventType = "memberJoined"
	EventMemberLeft        EventType = "memberLeft"
	EventPostback          EventType = "postback"
	EventBeacon            EventType = "beacon"
	EventAccountLink       EventType = "accountLink"
	EventUnsend            EventType = "unsend"
	EventVideoPlayComplete EventType = "videoPlayComplete"
)

// WebhookPayload is the body LINE posts to the webhook URL.
type WebhookPayload struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type              EventType          `json:"type"`
	Mode              string             `json:"mode,omitempty"`
	Timestamp         int64              `json:"timestamp"`
	Source            *Source            `json:"source,omitempty"`
	WebhookEventID    string             `json:"webhookEventId,omitempty"`
	DeliveryContext   *DeliveryContext   `json:"deliveryContext,omitempty"`
	ReplyToken        string             `json:"replyToken,omitempty"`
	Message           *MessageContent    `json:"message,omitempty"`
	Postback          *Postback          `json:"postback,omitempty"`
	Joined            *Members           `json:"joined,omitempty"`
	Left              *Members           `json:"left,omitempty"`
	Beacon            *Beacon            `json:"beacon,omitempty"`
	Link              *AccountLink       `json:"link,omitempty"`
	Unsend            *Unsend            `json:"unsend,omitempty"`
	VideoPlayComplete *VideoPlayComplete `json:"videoPlayComplete,omitempty"`
}

// Time converts the millisecond timestamp.
func (e *Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

func (e *Event) IsRedelivery() bool {
	return e.DeliveryContext != nil && e.DeliveryContext.IsRedelivery
}

// UserID is empty for events from users who have not consented to share it.
func (e *Event) UserID() string {
	if e.Source == nil {
		return ""
	}
	return e.Source.UserID
}

type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

const (
	SourceUser  = "user"
	SourceGroup = "group"
	SourceRoom  = "room"
)

type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// ID returns the push target for this source: the group or room when the
// event happened in one, otherwise the user.
func (s *Source) ID() string {
	switch {
	case s.GroupID != "":
		return s.GroupID
	case s.RoomID != "":
		return s.RoomID
	default:
		return s.UserID
	}
}

type MessageContent struct {
	ID              string           `json:"id"`
	Type            string           `json:"type"`
	QuoteToken      string           `json:"quoteToken,omitempty"`
	QuotedMessageID string           `json:"quotedMessageId,omitempty"`
	Text            string           `json:"text,omitempty"`
	Emojis          []EventEmoji     `json:"emojis,omitempty"`
	Mention         *Mention         `json:"mention,omitempty"`
	ContentProvider *ContentProvider `json:"contentProvider,omitempty"`
	Duration        int64            `json:"duration,omitempty"`
	FileName        string           `json:"fileName,omitempty"`
	FileSize        int64            `json:"fileSize,omitempty"`
	Title           string           `json:"title,omitempty"`
	Address         string           `json:"address,omitempty"`
	Latitude        float64          `json:"latitude,omitempty"`
	Longitude       float64          `json:"longitude,omitempty"`
	PackageID       string           `json:"packageId,omitempty"`
	StickerID       string           `json:"stickerId,omitempty"`
	StickerResource string           `json:"stickerResourceType,omitempty"`
	Keywords        []string         `json:"keywords,omitempty"`
}

func (m *MessageContent) IsText() bool { return m != nil && m.Type == "text" }

type EventEmoji struct {
	Index     int    `json:"index"`
	Length    int    `json:"length"`
	ProductID string `json:"productId"`
	EmojiID   string `json:"emojiId"`
}

type Mention struct {
	Mentionees []Mentionee `json:"mentionees"`
}

type Mentionee struct {
	Index  int    `json:"index"`
	Length int    `json:"length"`
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
	IsSelf bool   `json:"isSelf,omitempty"`
}

type ContentProvider struct {
	Type               string `json:"type"`
	OriginalContentURL string `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string `json:"previewImageUrl,omitempty"`
}

type Postback struct {
	Data   string            `json:"data"`
	Params map[string]string `json:"params,omitempty"`
}

type Members struct {
	Members []Source `json:"members"`
}

type Beacon struct {
	HWID string `json:"hwid"`
	Type string `json:"type"`
	DM   string `json:"dm,omitempty"`
}

type AccountLink struct {
	Result string `json:"result"`
	Nonce  string `json:"nonce"`
}

type Unsend struct {
	MessageID string `json:"messageId"`
}

type VideoPlayComplete struct {
	TrackingID string `json:"trackingId"`
}

// ProcessedEvent is a ledger row for a webhook event that was handled.
type ProcessedEvent struct {
	ID             string    `json:"id"`
	WebhookEventID string    `json:"webhook_event_id"`
	EventType      EventType `json:"event_type"`
	ProcessedAt    time.Time `json:"processed_at"`
}
