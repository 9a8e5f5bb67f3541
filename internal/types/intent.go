package types

// IntentAction represents a symbolic admin operation extracted from free text
type IntentAction string

const (
	// Shell-backed operations
	ActionServiceRestart IntentAction = "service_restart"
	ActionServiceStop    IntentAction = "service_stop"
	ActionServiceStart   IntentAction = "service_start"
	ActionServiceStatus  IntentAction = "service_status"
	ActionDeploy         IntentAction = "deploy"
	ActionReboot         IntentAction = "reboot"
	ActionShutdown       IntentAction = "shutdown"
	ActionViewLogs       IntentAction = "view_logs"
	ActionSystemInfo     IntentAction = "system_info"
	ActionDiskUsage      IntentAction = "disk_usage"
	ActionMemoryUsage    IntentAction = "memory_usage"
	ActionCPUUsage       IntentAction = "cpu_usage"
	ActionUptime         IntentAction = "uptime"
	ActionNetworkInfo    IntentAction = "network_info"
	ActionProcessList    IntentAction = "process_list"
	ActionPackageUpdate  IntentAction = "package_update"
	ActionPackageUpgrade IntentAction = "package_upgrade"
	ActionPackageList    IntentAction = "package_list"
	ActionGitPull        IntentAction = "git_pull"
	ActionGitStatus      IntentAction = "git_status"
	ActionGitLog         IntentAction = "git_log"
	ActionNpmInstall     IntentAction = "npm_install"
	ActionEchoTest       IntentAction = "echo_test"

	// Discord-side operations, no shell command is generated for these
	ActionMemberKick    IntentAction = "member_kick"
	ActionMemberBan     IntentAction = "member_ban"
	ActionMemberUnban   IntentAction = "member_unban"
	ActionMemberTimeout IntentAction = "member_timeout"
	ActionRoleAdd       IntentAction = "role_add"
	ActionRoleRemove    IntentAction = "role_remove"
	ActionRoleCreate    IntentAction = "role_create"
	ActionRoleDelete    IntentAction = "role_delete"
	ActionChannelCreate IntentAction = "channel_create"
	ActionChannelDelete IntentAction = "channel_delete"
	ActionChannelLock   IntentAction = "channel_lock"
	ActionChannelUnlock IntentAction = "channel_unlock"
	ActionPurgeMessages IntentAction = "purge_messages"
	ActionServerInfo    IntentAction = "server_info"

	ActionUnknown IntentAction = "unknown"
)

// IsDiscordAction reports whether the action mutates Discord state
// instead of generating a shell command
func (a IntentAction) IsDiscordAction() bool {
	switch a {
	case ActionMemberKick, ActionMemberBan, ActionMemberUnban, ActionMemberTimeout,
		ActionRoleAdd, ActionRoleRemove, ActionRoleCreate, ActionRoleDelete,
		ActionChannelCreate, ActionChannelDelete, ActionChannelLock, ActionChannelUnlock,
		ActionPurgeMessages, ActionServerInfo:
		return true
	}
	return false
}

// IntentParams holds parameters extracted from the raw query
type IntentParams struct {
	UserID   string `json:"user_id,omitempty"`
	RoleName string `json:"role_name,omitempty"`
	Count    int    `json:"count,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Seconds  int    `json:"seconds,omitempty"`
}

// Intent represents a parsed admin intent
type Intent struct {
	Action        IntentAction `json:"action"`
	Params        IntentParams `json:"params"`
	Confidence    float64      `json:"confidence"`
	OriginalQuery string       `json:"original_query"`
}
