package service

import (
	"context"
	"fmt"

	"akeno/internal/types"

	"go.uber.org/zap"
)

// discordGatedActions require an approval before the chat adapter may
// carry them out
var discordGatedActions = map[types.IntentAction]bool{
	types.ActionMemberKick:    true,
	types.ActionMemberBan:     true,
	types.ActionRoleDelete:    true,
	types.ActionChannelDelete: true,
	types.ActionPurgeMessages: true,
}

// processDiscordAction handles intents that mutate Discord state. No
// shell command is generated; the action descriptor goes back to the
// chat adapter, which performs the API calls itself. Rate limiting,
// the approval gate and the audit trail still apply.
func (s *Service) processDiscordAction(ctx context.Context, req QueryRequest, intent types.Intent) QueryResponse {
	resp := QueryResponse{Intent: intent}

	limit, err := s.limiter.Record(ctx, req.UserID)
	if err != nil {
		s.logger.Error("Rate limiter failure", zap.String("user_id", req.UserID), zap.Error(err))
		resp.Status = StatusInvalid
		resp.Message = "rate limiter unavailable"
		return resp
	}
	resp.RateLimit = &limit
	if !limit.Allowed {
		resp.Status = StatusRateLimited
		resp.Message = "command budget exhausted, try again later"
		s.audit.Log(ctx, s.discordEntry(req, intent, false))
		return resp
	}

	if discordGatedActions[intent.Action] {
		pending := s.approvals.Create(descriptorCommand(intent), req.UserID)
		resp.Status = StatusPendingApproval
		resp.ApprovalID = pending.MessageID
		resp.Message = "approval required"

		go s.awaitDiscordAction(pending, req, intent)
		return resp
	}

	resp.Status = StatusDiscordAction
	s.audit.Log(ctx, s.discordEntry(req, intent, true))
	return resp
}

// awaitDiscordAction records the approval outcome of a gated action
func (s *Service) awaitDiscordAction(pending types.PendingApproval, req QueryRequest, intent types.Intent) {
	ctx := context.Background()

	resolution, err := s.approvals.Await(ctx, pending.MessageID)
	if err != nil {
		s.logger.Error("Approval wait failed",
			zap.String("approval_id", pending.MessageID),
			zap.Error(err))
		return
	}

	entry := s.discordEntry(req, intent, resolution == types.ResolutionApproved)
	s.audit.Log(ctx, entry)

	if resolution == types.ResolutionTimedOut && s.notifier != nil {
		if err := s.notifier.NotifyApprovalExpired(pending); err != nil {
			s.logger.Warn("Failed to send expiry notification", zap.Error(err))
		}
	}
}

// descriptorCommand wraps a discord action as a pseudo command so it can
// ride the shared approval gate
func descriptorCommand(intent types.Intent) types.GeneratedCommand {
	return types.GeneratedCommand{
		Command:      fmt.Sprintf("discord:%s", intent.Action),
		IntentAction: intent.Action,
		Description:  intent.OriginalQuery,
		Valid:        true,
	}
}

func (s *Service) discordEntry(req QueryRequest, intent types.Intent, approved bool) types.AuditEntry {
	target := make(map[string]string)
	if intent.Params.UserID != "" {
		target["user_id"] = intent.Params.UserID
	}
	if intent.Params.RoleName != "" {
		target["role_name"] = intent.Params.RoleName
	}
	if intent.Params.Reason != "" {
		target["reason"] = intent.Params.Reason
	}
	if intent.Params.Count > 0 {
		target["count"] = fmt.Sprintf("%d", intent.Params.Count)
	}

	return types.AuditEntry{
		UserID:    req.UserID,
		Username:  req.Username,
		Command:   fmt.Sprintf("discord:%s", intent.Action),
		Type:      auditTypeFor(intent.Action),
		Target:    target,
		Approved:  approved,
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
	}
}

func auditTypeFor(action types.IntentAction) types.AuditType {
	switch action {
	case types.ActionRoleAdd, types.ActionRoleRemove, types.ActionRoleCreate, types.ActionRoleDelete:
		return types.AuditDiscordRole
	case types.ActionChannelCreate, types.ActionChannelDelete, types.ActionChannelLock, types.ActionChannelUnlock, types.ActionPurgeMessages:
		return types.AuditDiscordChannel
	case types.ActionMemberKick, types.ActionMemberBan, types.ActionMemberUnban, types.ActionMemberTimeout:
		return types.AuditDiscordMember
	default:
		return types.AuditDiscordServer
	}
}
