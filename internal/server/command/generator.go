package command

import (
	"fmt"
	"strconv"
	"strings"

	"akeno/internal/types"

	"go.uber.org/zap"
)

// Defaults holds static substitution defaults used when the intent
// carries no explicit parameter
type Defaults struct {
	ServiceName string `mapstructure:"service_name"`
	BotPath     string `mapstructure:"bot_path"`
	LogPath     string `mapstructure:"log_path"`
	LogLines    int    `mapstructure:"log_lines"`
	DelaySecs   int    `mapstructure:"delay_seconds"`
}

// SetDefaults fills in fallback values
func (d *Defaults) SetDefaults() {
	if d.ServiceName == "" {
		d.ServiceName = "akeno"
	}
	if d.BotPath == "" {
		d.BotPath = "/opt/akeno"
	}
	if d.LogPath == "" {
		d.LogPath = "/var/log/akeno.log"
	}
	if d.LogLines == 0 {
		d.LogLines = 50
	}
	if d.DelaySecs == 0 {
		d.DelaySecs = 60
	}
}

// templates is the [platform][action] command template table. Placeholders:
// {serviceName} {botPath} {logPath} {lines} {delay} {delaySeconds}
var templates = map[types.Platform]map[types.IntentAction]string{
	types.PlatformLinux: {
		types.ActionServiceRestart: "systemctl restart {serviceName}",
		types.ActionServiceStop:    "systemctl stop {serviceName}",
		types.ActionServiceStart:   "systemctl start {serviceName}",
		types.ActionServiceStatus:  "systemctl status {serviceName}",
		types.ActionDeploy:         "cd {botPath} && git pull",
		types.ActionReboot:         "shutdown -r +{delay}",
		types.ActionShutdown:       "shutdown -h +{delay}",
		types.ActionViewLogs:       "journalctl -u {serviceName} -n {lines} --no-pager",
		types.ActionSystemInfo:     "uname -a",
		types.ActionDiskUsage:      "df -h",
		types.ActionMemoryUsage:    "free -h",
		types.ActionCPUUsage:       "uptime",
		types.ActionUptime:         "uptime",
		types.ActionProcessList:    "ps aux",
		types.ActionPackageUpdate:  "apt update",
		types.ActionPackageUpgrade: "apt upgrade -y",
		types.ActionPackageList:    "apt list --upgradable",
		types.ActionGitPull:        "git pull",
		types.ActionGitStatus:      "git status",
		types.ActionGitLog:         "git log --oneline -n {lines}",
		types.ActionNpmInstall:     "npm ci",
		types.ActionEchoTest:       "echo ok",
	},
	types.PlatformDarwin: {
		types.ActionServiceRestart: "launchctl stop {serviceName}",
		types.ActionServiceStop:    "launchctl stop {serviceName}",
		types.ActionServiceStart:   "launchctl start {serviceName}",
		types.ActionServiceStatus:  "launchctl list {serviceName}",
		types.ActionDeploy:         "cd {botPath} && git pull",
		types.ActionReboot:         "shutdown -r +{delay}",
		types.ActionShutdown:       "shutdown -h +{delay}",
		types.ActionViewLogs:       "tail -n {lines} {logPath}",
		types.ActionSystemInfo:     "uname -a",
		types.ActionDiskUsage:      "df -h",
		types.ActionMemoryUsage:    "free -h",
		types.ActionCPUUsage:       "uptime",
		types.ActionUptime:         "uptime",
		types.ActionProcessList:    "ps aux",
		types.ActionPackageUpdate:  "brew update",
		types.ActionPackageUpgrade: "brew upgrade",
		types.ActionPackageList:    "brew list",
		types.ActionGitPull:        "git pull",
		types.ActionGitStatus:      "git status",
		types.ActionGitLog:         "git log --oneline -n {lines}",
		types.ActionNpmInstall:     "npm ci",
		types.ActionEchoTest:       "echo ok",
	},
	types.PlatformWindows: {
		types.ActionServiceRestart: `Restart-Service -Name "{serviceName}"`,
		types.ActionServiceStop:    `Stop-Service -Name "{serviceName}"`,
		types.ActionServiceStart:   `Start-Service -Name "{serviceName}"`,
		types.ActionServiceStatus:  "Get-Service {serviceName}",
		types.ActionDeploy:         "cd {botPath}; git pull",
		types.ActionReboot:         "shutdown /r /t {delaySeconds}",
		types.ActionShutdown:       "shutdown /s /t {delaySeconds}",
		types.ActionViewLogs:       "Get-EventLog Application -Newest {lines}",
		types.ActionSystemInfo:     "Get-ComputerInfo",
		types.ActionDiskUsage:      "Get-PSDrive C",
		types.ActionProcessList:    "Get-Process",
		types.ActionPackageUpdate:  "winget list",
		types.ActionPackageUpgrade: "winget upgrade --all",
		types.ActionPackageList:    "winget list",
		types.ActionGitPull:        "git pull",
		types.ActionGitStatus:      "git status",
		types.ActionGitLog:         "git log --oneline -n {lines}",
		types.ActionNpmInstall:     "npm ci",
		types.ActionEchoTest:       "echo ok",
	},
}

// Danger classification is keyed on the intent action, never derived from
// the rendered command text, so the flags are attached before any parsing
// ambiguity could occur.
var (
	confirmActions = map[types.IntentAction]bool{
		types.ActionServiceRestart: true,
		types.ActionServiceStop:    true,
		types.ActionDeploy:         true,
		types.ActionReboot:         true,
		types.ActionShutdown:       true,
		types.ActionPackageUpgrade: true,
		types.ActionGitPull:        true,
		types.ActionNpmInstall:     true,
	}

	doubleConfirmActions = map[types.IntentAction]bool{
		types.ActionReboot:   true,
		types.ActionShutdown: true,
	}

	downtimeActions = map[types.IntentAction]bool{
		types.ActionServiceRestart: true,
		types.ActionServiceStop:    true,
		types.ActionReboot:         true,
		types.ActionShutdown:       true,
	}
)

// descriptions are the operator-facing labels attached to generated commands
var descriptions = map[types.IntentAction]string{
	types.ActionServiceRestart: "Restart the bot service",
	types.ActionServiceStop:    "Stop the bot service",
	types.ActionServiceStart:   "Start the bot service",
	types.ActionServiceStatus:  "Show bot service status",
	types.ActionDeploy:         "Pull the latest code into the bot directory",
	types.ActionReboot:         "Reboot the machine",
	types.ActionShutdown:       "Shut the machine down",
	types.ActionViewLogs:       "Show recent service logs",
	types.ActionSystemInfo:     "Show system information",
	types.ActionDiskUsage:      "Show disk usage",
	types.ActionMemoryUsage:    "Show memory usage",
	types.ActionCPUUsage:       "Show CPU load",
	types.ActionUptime:         "Show uptime",
	types.ActionProcessList:    "List running processes",
	types.ActionPackageUpdate:  "Refresh the package index",
	types.ActionPackageUpgrade: "Upgrade installed packages",
	types.ActionPackageList:    "List upgradable packages",
	types.ActionGitPull:        "Pull the latest code",
	types.ActionGitStatus:      "Show repository status",
	types.ActionGitLog:         "Show recent commits",
	types.ActionNpmInstall:     "Install dependencies",
	types.ActionEchoTest:       "Echo test",
}

// GenerateOptions configures command generation
type GenerateOptions struct {
	Platform types.Platform
	Defaults *Defaults
}

// Generator renders abstract admin intents into concrete shell commands
type Generator struct {
	detector *Detector
	defaults Defaults
	logger   *zap.Logger
}

// NewGenerator creates a new command generator
func NewGenerator(detector *Detector, defaults Defaults, logger *zap.Logger) *Generator {
	defaults.SetDefaults()
	return &Generator{
		detector: detector,
		defaults: defaults,
		logger:   logger,
	}
}

// Generate renders an intent into a platform specific command. This sits
// on the hot path of interactive flows, so every failure mode returns a
// GeneratedCommand with Valid=false instead of an error value or panic.
func (g *Generator) Generate(intent types.Intent, opts GenerateOptions) types.GeneratedCommand {
	platform := opts.Platform
	if platform == "" {
		platform = g.detector.Local()
	}

	cmd := types.GeneratedCommand{
		IntentAction: intent.Action,
		Platform:     platform,
	}

	table, ok := templates[platform]
	if !ok {
		cmd.Error = fmt.Sprintf("unsupported platform: %s", platform)
		return cmd
	}

	tpl, ok := table[intent.Action]
	if !ok {
		cmd.Error = fmt.Sprintf("no command for action %q on platform %s", intent.Action, platform)
		return cmd
	}

	defaults := g.defaults
	if opts.Defaults != nil {
		defaults = *opts.Defaults
		defaults.SetDefaults()
	}

	cmd.Command = g.render(tpl, intent, defaults)
	cmd.Description = descriptions[intent.Action]
	cmd.RequiresConfirmation = confirmActions[intent.Action]
	cmd.RequiresDoubleConfirmation = doubleConfirmActions[intent.Action]
	cmd.CausesDowntime = downtimeActions[intent.Action]
	cmd.Valid = true

	g.logger.Debug("Generated command",
		zap.String("action", string(intent.Action)),
		zap.String("platform", string(platform)),
		zap.String("command", cmd.Command))

	return cmd
}

// render substitutes placeholders, preferring intent params over defaults
func (g *Generator) render(tpl string, intent types.Intent, defaults Defaults) string {
	lines := defaults.LogLines
	if intent.Params.Count > 0 {
		lines = intent.Params.Count
	}

	delaySecs := defaults.DelaySecs
	if intent.Params.Seconds > 0 {
		delaySecs = intent.Params.Seconds
	}
	delayMins := delaySecs / 60
	if delayMins < 1 {
		delayMins = 1
	}

	r := strings.NewReplacer(
		"{serviceName}", defaults.ServiceName,
		"{botPath}", defaults.BotPath,
		"{logPath}", defaults.LogPath,
		"{lines}", strconv.Itoa(lines),
		"{delay}", strconv.Itoa(delayMins),
		"{delaySeconds}", strconv.Itoa(delaySecs),
	)
	return r.Replace(tpl)
}
