package types

import "time"

// AuditType represents the category of an audited action
type AuditType string

const (
	AuditCommand        AuditType = "command"
	AuditDiscordRole    AuditType = "discord_role"
	AuditDiscordChannel AuditType = "discord_channel"
	AuditDiscordMember  AuditType = "discord_member"
	AuditDiscordServer  AuditType = "discord_server"
)

// AuditEntry represents one immutable record of a command attempt and its outcome
type AuditEntry struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Username  string            `json:"username"`
	Command   string            `json:"command"`
	Type      AuditType         `json:"type"`
	Target    map[string]string `json:"target,omitempty"`
	Approved  bool              `json:"approved"`
	Executed  bool              `json:"executed"`
	Success   bool              `json:"success"`
	Output    string            `json:"output,omitempty"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Platform  Platform          `json:"platform,omitempty"`
	GuildID   string            `json:"guild_id,omitempty"`
	ChannelID string            `json:"channel_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// AuditQuery represents audit log query filters
type AuditQuery struct {
	UserID  string     `json:"user_id,omitempty"`
	Type    AuditType  `json:"type,omitempty"`
	Success *bool      `json:"success,omitempty"`
	Since   *time.Time `json:"since,omitempty"`
	Until   *time.Time `json:"until,omitempty"`
	GuildID string     `json:"guild_id,omitempty"`
	Limit   int        `json:"limit,omitempty"`
}
