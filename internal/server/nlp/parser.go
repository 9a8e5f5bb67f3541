package nlp

import (
	"regexp"
	"strconv"
	"strings"

	"akeno/internal/types"

	"go.uber.org/zap"
)

// rule maps query shapes to one intent action. Regexes are tried first
// across the whole list; keyword substrings are a fallback pass in the
// same order.
type rule struct {
	action   types.IntentAction
	regexes  []*regexp.Regexp
	keywords []string
}

var rules = []rule{
	{
		action: types.ActionServiceRestart,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\brestart\b.*\b(bot|service|daemon)\b`),
			regexp.MustCompile(`(?i)\b(bot|service|daemon)\b.*\brestart\b`),
		},
		keywords: []string{"restart bot", "restart service", "bounce the bot"},
	},
	{
		action: types.ActionServiceStop,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bstop\b.*\b(bot|service|daemon)\b`),
		},
		keywords: []string{"stop bot", "stop service"},
	},
	{
		action: types.ActionServiceStart,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bstart\b.*\b(bot|service|daemon)\b`),
		},
		keywords: []string{"start bot", "start service"},
	},
	{
		action: types.ActionServiceStatus,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(status|health)\b.*\b(bot|service|daemon)\b`),
			regexp.MustCompile(`(?i)\bis\s+the\s+(bot|service)\s+(up|running|alive)\b`),
		},
		keywords: []string{"bot status", "service status"},
	},
	{
		action: types.ActionDeploy,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bdeploy\b`),
			regexp.MustCompile(`(?i)\bupdate\s+the\s+bot\b`),
		},
		keywords: []string{"deploy", "ship it"},
	},
	{
		action: types.ActionReboot,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\breboot\b.*\b(server|machine|host|computer)\b`),
			regexp.MustCompile(`(?i)\brestart\b.*\b(server|machine|host|computer)\b`),
		},
		keywords: []string{"reboot server", "reboot machine"},
	},
	{
		action: types.ActionShutdown,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(shut\s*down|power\s*off|turn\s*off)\b`),
		},
		keywords: []string{"shutdown", "power off"},
	},
	{
		action: types.ActionViewLogs,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(show|view|check|tail)\b.*\blogs?\b`),
			regexp.MustCompile(`(?i)^logs?\b`),
		},
		keywords: []string{"logs", "log file"},
	},
	{
		action: types.ActionDiskUsage,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(disk|storage)\s+(space|usage|free)\b`),
			regexp.MustCompile(`(?i)\bhow\s+much\s+(disk|space)\b`),
		},
		keywords: []string{"disk usage", "disk space"},
	},
	{
		action: types.ActionMemoryUsage,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(memory|ram)\s+(usage|free|used)\b`),
		},
		keywords: []string{"memory usage", "ram"},
	},
	{
		action: types.ActionCPUUsage,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bcpu\b`),
			regexp.MustCompile(`(?i)\bload\s+average\b`),
		},
		keywords: []string{"cpu usage", "processor"},
	},
	{
		action: types.ActionUptime,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\buptime\b`),
			regexp.MustCompile(`(?i)\bhow\s+long\b.*\b(running|up)\b`),
		},
		keywords: []string{"uptime"},
	},
	{
		action: types.ActionNetworkInfo,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bnetwork\s+(info|status|interfaces?)\b`),
			regexp.MustCompile(`(?i)\bip\s+address\b`),
		},
		keywords: []string{"network info"},
	},
	{
		action: types.ActionProcessList,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(list|show)\b.*\bprocess(es)?\b`),
		},
		keywords: []string{"processes", "process list"},
	},
	{
		action: types.ActionSystemInfo,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bsystem\s+(info|information|details)\b`),
		},
		keywords: []string{"system info"},
	},
	{
		action: types.ActionPackageUpgrade,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bupgrade\b.*\bpackages?\b`),
			regexp.MustCompile(`(?i)\bpackages?\b.*\bupgrade\b`),
		},
		keywords: []string{"upgrade packages"},
	},
	{
		action: types.ActionPackageUpdate,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bupdate\b.*\bpackages?\b`),
			regexp.MustCompile(`(?i)\brefresh\s+package\s+(list|index)\b`),
		},
		keywords: []string{"update packages"},
	},
	{
		action: types.ActionPackageList,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\blist\b.*\bpackages?\b`),
		},
		keywords: []string{"list packages"},
	},
	{
		action: types.ActionGitPull,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(git\s+)?pull\b.*\b(code|changes|latest)?\b`),
		},
		keywords: []string{"git pull", "pull latest"},
	},
	{
		action: types.ActionGitStatus,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bgit\s+status\b`),
		},
		keywords: []string{"git status"},
	},
	{
		action: types.ActionGitLog,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(git\s+log|recent\s+commits?)\b`),
		},
		keywords: []string{"git log", "commits"},
	},
	{
		action: types.ActionNpmInstall,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bnpm\s+(install|ci)\b`),
			regexp.MustCompile(`(?i)\binstall\b.*\bdependencies\b`),
		},
		keywords: []string{"npm install"},
	},
	{
		action: types.ActionMemberKick,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bkick\b`),
		},
		keywords: []string{"kick"},
	},
	{
		action: types.ActionMemberBan,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bban\b`),
		},
		keywords: []string{"ban"},
	},
	{
		action: types.ActionMemberUnban,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bunban\b`),
		},
		keywords: []string{"unban"},
	},
	{
		action: types.ActionMemberTimeout,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(timeout|time\s+out|mute)\b`),
		},
		keywords: []string{"timeout", "mute"},
	},
	{
		action: types.ActionRoleAdd,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(give|add|assign)\b.*\brole\b`),
		},
		keywords: []string{"give role", "add role"},
	},
	{
		action: types.ActionRoleRemove,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(remove|take|revoke)\b.*\brole\b`),
		},
		keywords: []string{"remove role"},
	},
	{
		action: types.ActionRoleCreate,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(create|make|new)\b.*\brole\b`),
		},
		keywords: []string{"create role"},
	},
	{
		action: types.ActionRoleDelete,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bdelete\b.*\brole\b`),
		},
		keywords: []string{"delete role"},
	},
	{
		action: types.ActionChannelCreate,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(create|make|new)\b.*\bchannel\b`),
		},
		keywords: []string{"create channel"},
	},
	{
		action: types.ActionChannelDelete,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bdelete\b.*\bchannel\b`),
		},
		keywords: []string{"delete channel"},
	},
	{
		action: types.ActionChannelLock,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\block\b.*\bchannel\b`),
		},
		keywords: []string{"lock channel"},
	},
	{
		action: types.ActionChannelUnlock,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bunlock\b.*\bchannel\b`),
		},
		keywords: []string{"unlock channel"},
	},
	{
		action: types.ActionPurgeMessages,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(purge|clear|delete)\b.*\bmessages?\b`),
		},
		keywords: []string{"purge", "clear messages"},
	},
	{
		action: types.ActionServerInfo,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bserver\s+(info|information|stats)\b`),
		},
		keywords: []string{"server info"},
	},
	{
		action: types.ActionEchoTest,
		regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(echo|say)\s+`),
		},
		keywords: []string{"echo"},
	},
}

// Parameter extractors run as an independent second pass over the raw query
var (
	mentionRe    = regexp.MustCompile(`<@!?(\d+)>`)
	countRe      = regexp.MustCompile(`(?i)\b(\d+)\s+(messages?|lines?|times?|entries|commits?)\b`)
	bareCountRe  = regexp.MustCompile(`(?i)\b(last|top|first)\s+(\d+)\b`)
	secondsRe    = regexp.MustCompile(`(?i)\b(?:in|for|after)\s+(\d+)\s*(seconds?|secs?|minutes?|mins?|hours?)\b`)
	roleQuotedRe = regexp.MustCompile(`(?i)\brole\s+(?:named\s+|called\s+)?"([^"]+)"`)
	roleNamedRe  = regexp.MustCompile(`(?i)\brole\s+(?:named|called)\s+([\w-]+)`)
	rolePhraseRe = regexp.MustCompile(`(?i)\bthe\s+([\w-]+)\s+role\b`)
	reasonRe     = regexp.MustCompile(`(?i)\b(?:for|because(?:\s+of)?|reason:?)\s+(.+?)\s*$`)
)

// Parser maps free text to admin intents by pure pattern matching
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new intent parser
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse extracts an intent from a raw query. The regex pass runs first
// across all rules; only when nothing matches does the keyword substring
// pass run, in the same rule order. An unmatched query yields
// ActionUnknown with zero confidence.
func (p *Parser) Parse(query string) types.Intent {
	intent := types.Intent{
		Action:        types.ActionUnknown,
		OriginalQuery: query,
	}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return intent
	}
	lower := strings.ToLower(trimmed)

	matchedBy := ""
	for _, r := range rules {
		for _, re := range r.regexes {
			if re.MatchString(trimmed) {
				intent.Action = r.action
				matchedBy = "regex"
				break
			}
		}
		if matchedBy != "" {
			break
		}
	}

	if matchedBy == "" {
		for _, r := range rules {
			for _, kw := range r.keywords {
				if strings.Contains(lower, kw) {
					intent.Action = r.action
					matchedBy = "keyword"
					break
				}
			}
			if matchedBy != "" {
				break
			}
		}
	}

	if intent.Action == types.ActionUnknown {
		p.logger.Debug("No intent matched", zap.String("query", query))
		return intent
	}

	intent.Params = extractParams(trimmed)
	intent.Confidence = confidence(lower, intent.Action, matchedBy)

	p.logger.Debug("Parsed intent",
		zap.String("action", string(intent.Action)),
		zap.String("matched_by", matchedBy),
		zap.Float64("confidence", intent.Confidence))

	return intent
}

// extractParams pulls generic parameters out of the raw query,
// independent of which rule matched
func extractParams(query string) types.IntentParams {
	var params types.IntentParams

	if m := mentionRe.FindStringSubmatch(query); m != nil {
		params.UserID = m[1]
	}

	if m := countRe.FindStringSubmatch(query); m != nil {
		params.Count, _ = strconv.Atoi(m[1])
	} else if m := bareCountRe.FindStringSubmatch(query); m != nil {
		params.Count, _ = strconv.Atoi(m[2])
	}

	if m := secondsRe.FindStringSubmatch(query); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := strings.ToLower(m[2])
		switch {
		case strings.HasPrefix(unit, "min"):
			n *= 60
		case strings.HasPrefix(unit, "hour"):
			n *= 3600
		}
		params.Seconds = n
	}

	if m := roleQuotedRe.FindStringSubmatch(query); m != nil {
		params.RoleName = m[1]
	} else if m := roleNamedRe.FindStringSubmatch(query); m != nil {
		params.RoleName = m[1]
	} else if m := rolePhraseRe.FindStringSubmatch(query); m != nil {
		params.RoleName = m[1]
	}

	if m := reasonRe.FindStringSubmatch(query); m != nil {
		reason := m[1]
		// Strip a trailing mention so "kick for spamming <@1>" stays clean
		reason = strings.TrimSpace(mentionRe.ReplaceAllString(reason, ""))
		if reason != "" {
			params.Reason = reason
		}
	}

	return params
}

// confidence is a display-only heuristic and never gates execution
func confidence(lower string, action types.IntentAction, matchedBy string) float64 {
	score := 0.5
	if matchedBy == "keyword" {
		score = 0.3
	}

	for _, r := range rules {
		if r.action != action {
			continue
		}
		overlap := 0
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				overlap++
			}
		}
		score += float64(overlap) * 0.1
		break
	}

	if strings.Contains(lower, "?") {
		score += 0.05
	}
	for _, polite := range []string{"please", "kindly", "could you", "would you"} {
		if strings.Contains(lower, polite) {
			score += 0.05
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
