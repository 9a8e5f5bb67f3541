package security

import (
	"strings"

	"akeno/internal/types"

	"go.uber.org/zap"
)

// Validator classifies candidate shell commands as allowed, blocked or
// approval-required using the ordered rule lists in patterns.go
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a new command validator
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate checks a command against the dangerous-pattern list first,
// then the whitelist, then the approval list. Dangerous patterns always
// outrank whitelist membership: a crafted command matching both lists
// must never execute.
func (v *Validator) Validate(command string, userID string) types.ValidationResult {
	command = strings.TrimSpace(command)
	if command == "" {
		return types.ValidationResult{
			Blocked: true,
			Reason:  "empty command",
		}
	}

	// Dangerous patterns first, first match wins
	for _, rule := range DangerousPatterns {
		if rule.Pattern.MatchString(command) {
			v.logger.Warn("Blocked dangerous command",
				zap.String("user_id", userID),
				zap.String("command", command),
				zap.String("matched_rule", rule.Description))
			return types.ValidationResult{
				Blocked:          true,
				Reason:           "dangerous pattern: " + rule.Description,
				MatchedDangerous: rule.Description,
			}
		}
	}

	// Whitelist membership
	var matched *Rule
	for i := range WhitelistPatterns {
		if WhitelistPatterns[i].Pattern.MatchString(command) {
			matched = &WhitelistPatterns[i]
			break
		}
	}
	if matched == nil {
		v.logger.Warn("Blocked non-whitelisted command",
			zap.String("user_id", userID),
			zap.String("command", command))
		return types.ValidationResult{
			Blocked: true,
			Reason:  "not in whitelist",
		}
	}

	// Whitelisted commands may still need a human confirmation
	result := types.ValidationResult{
		Valid:            true,
		MatchedWhitelist: matched.Description,
	}
	for _, rule := range ApprovalPatterns {
		if rule.Pattern.MatchString(command) {
			result.RequiresApproval = true
			result.Reason = "requires approval: " + rule.Description
			break
		}
	}

	v.logger.Debug("Command accepted",
		zap.String("user_id", userID),
		zap.String("command", command),
		zap.String("matched_whitelist", matched.Description),
		zap.Bool("requires_approval", result.RequiresApproval))

	return result
}
