package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobwarden/internal/core"
)

var ErrRequestFailed = errors.New("chat API request failed")

// Wire shapes of the platform's REST API.
type wireUser struct {
	ID  string `json:"id"`
	Bot bool   `json:"bot,omitempty"`
}

type wireMessage struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	GuildID   string    `json:"guild_id,omitempty"`
	Author    wireUser  `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	ReferencedMessage *wireMessage `json:"referenced_message,omitempty"`
	Mentions          []wireUser   `json:"mentions,omitempty"`
}

type wireChannel struct {
	ID string `json:"id"`
}

func (m wireMessage) toCore() core.Message {
	msg := core.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		AuthorID:  m.Author.ID,
		AuthorBot: m.Author.Bot,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.ReferencedMessage != nil {
		msg.ReferenceID = m.ReferencedMessage.ID
	}
	for _, u := range m.Mentions {
		msg.Mentions = append(msg.Mentions, u.ID)
	}
	return msg
}

func (c *Client) RecentMessages(ctx context.Context, channelID string, limit int, before string) ([]core.Message, error) {
	req := c.r(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&[]wireMessage{})
	if before != "" {
		req.SetQueryParam("before", before)
	}

	res, err := req.Get("/channels/" + channelID + "/messages")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, res.Status())
	}

	wire := *res.Result().(*[]wireMessage)
	messages := make([]core.Message, len(wire))
	for i, m := range wire {
		messages[i] = m.toCore()
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, channelID, content string) (core.Message, error) {
	res, err := c.r(ctx).
		SetBody(map[string]string{"content": content}).
		SetResult(&wireMessage{}).
		Post("/channels/" + channelID + "/messages")
	if err != nil {
		return core.Message{}, err
	}
	if res.IsError() {
		return core.Message{}, fmt.Errorf("%w: %s", ErrRequestFailed, res.Status())
	}

	return res.Result().(*wireMessage).toCore(), nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	res, err := c.r(ctx).
		SetBody(map[string]string{"content": content}).
		Patch("/channels/" + channelID + "/messages/" + messageID)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrRequestFailed, res.Status())
	}
	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	res, err := c.r(ctx).
		Delete("/channels/" + channelID + "/messages/" + messageID)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrRequestFailed, res.Status())
	}
	return nil
}

func (c *Client) CreateThread(ctx context.Context, channelID, name string) (string, error) {
	res, err := c.r(ctx).
		SetBody(map[string]any{"name": name}).
		SetResult(&wireChannel{}).
		Post("/channels/" + channelID + "/threads")
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("%w: %s", ErrRequestFailed, res.Status())
	}

	return res.Result().(*wireChannel).ID, nil
}

func (c *Client) TimeoutMember(ctx context.Context, guildID, userID string, d time.Duration) error {
	until := time.Now().Add(d).UTC().Format(time.RFC3339)

	res, err := c.r(ctx).
		SetBody(map[string]string{"communication_disabled_until": until}).
		Patch("/guilds/" + guildID + "/members/" + userID)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrRequestFailed, res.Status())
	}
	return nil
}
