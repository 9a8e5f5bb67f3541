package nlp

import (
	"testing"

	"akeno/internal/types"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestParseActions(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))

	testCases := []struct {
		query  string
		action types.IntentAction
	}{
		{"restart the bot", types.ActionServiceRestart},
		{"please restart the service", types.ActionServiceRestart},
		{"stop the bot", types.ActionServiceStop},
		{"is the bot running?", types.ActionServiceStatus},
		{"deploy the latest version", types.ActionDeploy},
		{"reboot the server", types.ActionReboot},
		{"shut down the machine", types.ActionShutdown},
		{"show me the logs", types.ActionViewLogs},
		{"how much disk space is left?", types.ActionDiskUsage},
		{"memory usage please", types.ActionMemoryUsage},
		{"what's the cpu load?", types.ActionCPUUsage},
		{"uptime", types.ActionUptime},
		{"kick <@123456789> for spamming", types.ActionMemberKick},
		{"ban <@42> because of repeated abuse", types.ActionMemberBan},
		{"give <@42> the moderator role", types.ActionRoleAdd},
		{"purge 10 messages", types.ActionPurgeMessages},
		{"create a channel for announcements", types.ActionChannelCreate},
		{"make me a sandwich", types.ActionUnknown},
		{"", types.ActionUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			intent := p.Parse(tc.query)
			assert.Equal(t, tc.action, intent.Action)
			assert.Equal(t, tc.query, intent.OriginalQuery)
		})
	}
}

func TestParseParams(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))

	t.Run("mention and reason", func(t *testing.T) {
		intent := p.Parse("kick <@123456789> for spamming")
		assert.Equal(t, types.ActionMemberKick, intent.Action)
		assert.Equal(t, "123456789", intent.Params.UserID)
		assert.Equal(t, "spamming", intent.Params.Reason)
	})

	t.Run("count", func(t *testing.T) {
		intent := p.Parse("purge 25 messages")
		assert.Equal(t, 25, intent.Params.Count)
	})

	t.Run("seconds from minutes", func(t *testing.T) {
		intent := p.Parse("shut down the server in 5 minutes")
		assert.Equal(t, types.ActionShutdown, intent.Action)
		assert.Equal(t, 300, intent.Params.Seconds)
	})

	t.Run("role name", func(t *testing.T) {
		intent := p.Parse("give <@42> the moderator role")
		assert.Equal(t, "42", intent.Params.UserID)
		assert.Equal(t, "moderator", intent.Params.RoleName)
	})

	t.Run("quoted role name", func(t *testing.T) {
		intent := p.Parse(`create a role called "Night Watch"`)
		assert.Equal(t, types.ActionRoleCreate, intent.Action)
		assert.Equal(t, "Night Watch", intent.Params.RoleName)
	})
}

func TestParseConfidence(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))

	known := p.Parse("restart the bot")
	assert.Greater(t, known.Confidence, 0.0)
	assert.LessOrEqual(t, known.Confidence, 1.0)

	polite := p.Parse("could you please restart the bot?")
	assert.GreaterOrEqual(t, polite.Confidence, known.Confidence)

	unknown := p.Parse("what is the meaning of life")
	assert.Equal(t, types.ActionUnknown, unknown.Action)
	assert.Equal(t, 0.0, unknown.Confidence)
}
