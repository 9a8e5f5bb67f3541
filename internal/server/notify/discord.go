package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"akeno/internal/types"

	"go.uber.org/zap"
)

// Embed colors
const (
	colorGreen  = 0x2ecc71
	colorRed    = 0xe74c3c
	colorOrange = 0xe67e22
	colorGrey   = 0x95a5a6
)

// DiscordConfig represents the Discord webhook notifier configuration
type DiscordConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Username   string `mapstructure:"username"`
	AvatarURL  string `mapstructure:"avatar_url"`
}

// DiscordNotifier posts operational events to a Discord webhook channel
type DiscordNotifier struct {
	config *DiscordConfig
	logger *zap.Logger
	client *http.Client
}

// DiscordMessage represents Discord message
type DiscordMessage struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed represents Discord embed
type DiscordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []DiscordField `json:"fields"`
	Footer      struct {
		Text    string `json:"text"`
		IconURL string `json:"icon_url,omitempty"`
	} `json:"footer"`
	Timestamp string `json:"timestamp"`
}

// DiscordField represents Discord field
type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// NewDiscordNotifier creates new Discord notifier
func NewDiscordNotifier(cfg *DiscordConfig, logger *zap.Logger) (*DiscordNotifier, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("discord notifier is disabled")
	}

	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("discord webhook URL is required")
	}

	return &DiscordNotifier{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true,
				DisableKeepAlives:   false,
				MaxIdleConnsPerHost: 5,
			},
		},
	}, nil
}

// NotifyCommandResult sends the outcome of an executed command
func (d *DiscordNotifier) NotifyCommandResult(username string, cmd types.GeneratedCommand, result types.ExecutionResult) error {
	color := colorGreen
	title := "Command succeeded"
	if !result.Success {
		color = colorRed
		title = "Command failed"
	}
	if result.TimedOut {
		color = colorOrange
		title = "Command timed out"
	}

	embed := DiscordEmbed{
		Title:       title,
		Description: fmt.Sprintf("```%s```", cmd.Command),
		Color:       color,
		Fields: []DiscordField{
			{Name: "Requested by", Value: username, Inline: true},
			{Name: "Platform", Value: string(cmd.Platform), Inline: true},
			{Name: "Duration", Value: result.Duration.Round(time.Millisecond).String(), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if result.Error != "" {
		embed.Fields = append(embed.Fields, DiscordField{Name: "Error", Value: truncateField(result.Error)})
	}
	embed.Footer.Text = "Akeno"

	return d.send(DiscordMessage{Embeds: []DiscordEmbed{embed}})
}

// NotifyCommandBlocked sends a security block notification
func (d *DiscordNotifier) NotifyCommandBlocked(username, command, reason string) error {
	embed := DiscordEmbed{
		Title:       "Command blocked",
		Description: fmt.Sprintf("```%s```", command),
		Color:       colorRed,
		Fields: []DiscordField{
			{Name: "Requested by", Value: username, Inline: true},
			{Name: "Reason", Value: reason, Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	embed.Footer.Text = "Akeno"

	return d.send(DiscordMessage{Embeds: []DiscordEmbed{embed}})
}

// NotifyApprovalExpired sends an approval timeout notification
func (d *DiscordNotifier) NotifyApprovalExpired(approval types.PendingApproval) error {
	embed := DiscordEmbed{
		Title:       "Approval expired",
		Description: fmt.Sprintf("```%s```", approval.Command.Command),
		Color:       colorGrey,
		Fields: []DiscordField{
			{Name: "Requested by", Value: approval.RequesterID, Inline: true},
			{Name: "Requested at", Value: approval.CreatedAt.UTC().Format(time.RFC3339), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	embed.Footer.Text = "Akeno"

	return d.send(DiscordMessage{Embeds: []DiscordEmbed{embed}})
}

// send sends Discord message
func (d *DiscordNotifier) send(msg DiscordMessage) error {
	msg.Username = d.config.Username
	msg.AvatarURL = d.config.AvatarURL

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	resp, err := d.client.Post(d.config.WebhookURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		if retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				time.Sleep(seconds)
				return d.send(msg)
			}
		}
		return fmt.Errorf("discord rate limit exceeded")
	}

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord api error: status code %d", resp.StatusCode)
	}

	return nil
}

func truncateField(s string) string {
	// Discord caps embed field values at 1024 chars
	if len(s) > 1000 {
		return s[:1000] + "..."
	}
	return s
}
