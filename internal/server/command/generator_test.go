package command

import (
	"testing"

	"akeno/internal/server/security"
	"akeno/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestGenerator(t *testing.T) *Generator {
	return NewGenerator(NewDetector(), Defaults{ServiceName: "akeno"}, zaptest.NewLogger(t))
}

func TestGenerateServiceRestart(t *testing.T) {
	g := newTestGenerator(t)

	testCases := []struct {
		platform types.Platform
		want     string
	}{
		{types.PlatformLinux, "systemctl restart akeno"},
		{types.PlatformDarwin, "launchctl stop akeno"},
		{types.PlatformWindows, `Restart-Service -Name "akeno"`},
	}

	for _, tc := range testCases {
		t.Run(string(tc.platform), func(t *testing.T) {
			cmd := g.Generate(types.Intent{Action: types.ActionServiceRestart},
				GenerateOptions{Platform: tc.platform})
			require.True(t, cmd.Valid)
			assert.Equal(t, tc.want, cmd.Command)
			assert.True(t, cmd.RequiresConfirmation)
			assert.True(t, cmd.CausesDowntime)
			assert.False(t, cmd.RequiresDoubleConfirmation)
		})
	}
}

// TestConfirmationFlagsOnAllPlatforms checks that confirmation-requiring
// intents carry the flag regardless of platform
func TestConfirmationFlagsOnAllPlatforms(t *testing.T) {
	g := newTestGenerator(t)

	actions := []types.IntentAction{
		types.ActionServiceRestart,
		types.ActionDeploy,
		types.ActionReboot,
		types.ActionPackageUpgrade,
		types.ActionGitPull,
	}
	platforms := []types.Platform{types.PlatformLinux, types.PlatformDarwin, types.PlatformWindows}

	for _, action := range actions {
		for _, platform := range platforms {
			cmd := g.Generate(types.Intent{Action: action}, GenerateOptions{Platform: platform})
			require.True(t, cmd.Valid, "%s on %s", action, platform)
			assert.True(t, cmd.RequiresConfirmation, "%s on %s", action, platform)
		}
	}
}

func TestGenerateDoubleConfirmation(t *testing.T) {
	g := newTestGenerator(t)

	cmd := g.Generate(types.Intent{Action: types.ActionShutdown}, GenerateOptions{Platform: types.PlatformLinux})
	require.True(t, cmd.Valid)
	assert.True(t, cmd.RequiresConfirmation)
	assert.True(t, cmd.RequiresDoubleConfirmation)
	assert.True(t, cmd.CausesDowntime)
}

// TestGenerateDeployUsesBotPath verifies the deploy command runs git
// from the configured bot directory
func TestGenerateDeployUsesBotPath(t *testing.T) {
	g := NewGenerator(NewDetector(), Defaults{BotPath: "/srv/akeno"}, zaptest.NewLogger(t))

	cmd := g.Generate(types.Intent{Action: types.ActionDeploy}, GenerateOptions{Platform: types.PlatformLinux})
	require.True(t, cmd.Valid)
	assert.Equal(t, "cd /srv/akeno && git pull", cmd.Command)

	cmd = g.Generate(types.Intent{Action: types.ActionDeploy}, GenerateOptions{Platform: types.PlatformWindows})
	require.True(t, cmd.Valid)
	assert.Equal(t, "cd /srv/akeno; git pull", cmd.Command)
}

// TestGenerateNeverPanics verifies bad input yields Valid=false with a
// non-empty error, not a panic
func TestGenerateNeverPanics(t *testing.T) {
	g := newTestGenerator(t)

	t.Run("unsupported platform", func(t *testing.T) {
		cmd := g.Generate(types.Intent{Action: types.ActionUptime}, GenerateOptions{Platform: "plan9"})
		assert.False(t, cmd.Valid)
		assert.NotEmpty(t, cmd.Error)
	})

	t.Run("unknown action", func(t *testing.T) {
		cmd := g.Generate(types.Intent{Action: types.ActionUnknown}, GenerateOptions{Platform: types.PlatformLinux})
		assert.False(t, cmd.Valid)
		assert.NotEmpty(t, cmd.Error)
	})

	t.Run("discord action has no template", func(t *testing.T) {
		cmd := g.Generate(types.Intent{Action: types.ActionMemberKick}, GenerateOptions{Platform: types.PlatformLinux})
		assert.False(t, cmd.Valid)
		assert.NotEmpty(t, cmd.Error)
	})
}

func TestGenerateParamSubstitution(t *testing.T) {
	g := newTestGenerator(t)

	t.Run("count overrides default lines", func(t *testing.T) {
		intent := types.Intent{
			Action: types.ActionViewLogs,
			Params: types.IntentParams{Count: 200},
		}
		cmd := g.Generate(intent, GenerateOptions{Platform: types.PlatformLinux})
		require.True(t, cmd.Valid)
		assert.Equal(t, "journalctl -u akeno -n 200 --no-pager", cmd.Command)
	})

	t.Run("default lines", func(t *testing.T) {
		cmd := g.Generate(types.Intent{Action: types.ActionViewLogs}, GenerateOptions{Platform: types.PlatformLinux})
		require.True(t, cmd.Valid)
		assert.Equal(t, "journalctl -u akeno -n 50 --no-pager", cmd.Command)
	})

	t.Run("shutdown delay minutes", func(t *testing.T) {
		intent := types.Intent{
			Action: types.ActionShutdown,
			Params: types.IntentParams{Seconds: 300},
		}
		cmd := g.Generate(intent, GenerateOptions{Platform: types.PlatformLinux})
		require.True(t, cmd.Valid)
		assert.Equal(t, "shutdown -h +5", cmd.Command)
	})

	t.Run("shutdown delay seconds on windows", func(t *testing.T) {
		intent := types.Intent{
			Action: types.ActionShutdown,
			Params: types.IntentParams{Seconds: 300},
		}
		cmd := g.Generate(intent, GenerateOptions{Platform: types.PlatformWindows})
		require.True(t, cmd.Valid)
		assert.Equal(t, "shutdown /s /t 300", cmd.Command)
	})
}

// TestGeneratedCommandsPassValidation keeps the template table and the
// whitelist in lockstep: everything the generator emits must validate
func TestGeneratedCommandsPassValidation(t *testing.T) {
	g := newTestGenerator(t)
	v := security.NewValidator(zaptest.NewLogger(t))

	for platform, table := range templates {
		for action := range table {
			cmd := g.Generate(types.Intent{Action: action}, GenerateOptions{Platform: platform})
			require.True(t, cmd.Valid, "%s on %s", action, platform)
			assert.NotEmpty(t, cmd.Command)
			assert.NotEmpty(t, cmd.Description)

			result := v.Validate(cmd.Command, "user-1")
			assert.True(t, result.Valid, "%q should be whitelisted", cmd.Command)
		}
	}
}
