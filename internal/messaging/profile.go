package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type Profile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
	Language      string `json:"language,omitempty"`
}

type BotInfo struct {
	UserID         string `json:"userId"`
	BasicID        string `json:"basicId"`
	PremiumID      string `json:"premiumId,omitempty"`
	DisplayName    string `json:"displayName"`
	PictureURL     string `json:"pictureUrl,omitempty"`
	ChatMode       string `json:"chatMode"`
	MarkAsReadMode string `json:"markAsReadMode"`
}

// GetProfile works for users who added the channel as a friend.
func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	var p Profile
	if _, err := c.call(ctx, http.MethodGet, "/v2/bot/profile/{userId}", "/v2/bot/profile/"+url.PathEscape(userID), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetBotInfo(ctx context.Context) (*BotInfo, error) {
	var info BotInfo
	if _, err := c.call(ctx, http.MethodGet, "/v2/bot/info", "/v2/bot/info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
