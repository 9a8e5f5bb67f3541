package service

import (
	"context"
	"fmt"
	"time"

	"akeno/internal/server/approval"
	"akeno/internal/server/audit"
	"akeno/internal/server/command"
	"akeno/internal/server/credentials"
	"akeno/internal/server/nlp"
	"akeno/internal/server/notify"
	"akeno/internal/server/ratelimit"
	"akeno/internal/server/security"
	"akeno/internal/server/storage"
	"akeno/internal/types"

	"go.uber.org/zap"
)

// Response statuses
const (
	StatusExecuted        = "executed"
	StatusBlocked         = "blocked"
	StatusRateLimited     = "rate_limited"
	StatusPendingApproval = "pending_approval"
	StatusUnknownIntent   = "unknown_intent"
	StatusInvalid         = "invalid"
	StatusDiscordAction   = "discord_action"
)

// QueryRequest represents one admin query from the chat adapter
type QueryRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	Username  string `json:"username"`
	Query     string `json:"query" binding:"required"`
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`

	// ServerID targets a remote server with stored credentials instead
	// of the local host
	ServerID string `json:"server_id"`
}

// QueryResponse represents the pipeline outcome for one query
type QueryResponse struct {
	Status     string                  `json:"status"`
	Intent     types.Intent            `json:"intent"`
	Command    *types.GeneratedCommand `json:"command,omitempty"`
	Validation *types.ValidationResult `json:"validation,omitempty"`
	RateLimit  *types.RateLimitResult  `json:"rate_limit,omitempty"`
	ApprovalID string                  `json:"approval_id,omitempty"`
	Result     *types.ExecutionResult  `json:"result,omitempty"`
	Message    string                  `json:"message,omitempty"`
}

// Options configures pipeline behavior
type Options struct {
	ExecTimeout    time.Duration
	MaxOutputChars int
}

// Service wires the full pipeline: parse, generate, validate, rate-limit,
// approve, execute, audit
type Service struct {
	parser    *nlp.Parser
	generator *command.Generator
	validator *security.Validator
	limiter   ratelimit.Limiter
	approvals *approval.Manager
	runner    command.Runner
	detector  *command.Detector
	audit     *audit.Logger
	creds     *credentials.Store
	store     storage.Store
	notifier  *notify.DiscordNotifier // nil when disabled
	opts      Options
	logger    *zap.Logger
}

// New creates a new pipeline service. notifier may be nil.
func New(
	parser *nlp.Parser,
	generator *command.Generator,
	validator *security.Validator,
	limiter ratelimit.Limiter,
	approvals *approval.Manager,
	runner command.Runner,
	detector *command.Detector,
	auditLogger *audit.Logger,
	creds *credentials.Store,
	store storage.Store,
	notifier *notify.DiscordNotifier,
	opts Options,
	logger *zap.Logger,
) *Service {
	return &Service{
		parser:    parser,
		generator: generator,
		validator: validator,
		limiter:   limiter,
		approvals: approvals,
		runner:    runner,
		detector:  detector,
		audit:     auditLogger,
		creds:     creds,
		store:     store,
		notifier:  notifier,
		opts:      opts,
		logger:    logger,
	}
}

// ProcessQuery runs one admin query through the pipeline. When approval
// is required the call returns StatusPendingApproval immediately and the
// command executes in the background once the requester approves it.
func (s *Service) ProcessQuery(ctx context.Context, req QueryRequest) QueryResponse {
	intent := s.parser.Parse(req.Query)
	resp := QueryResponse{Intent: intent}

	if intent.Action == types.ActionUnknown {
		resp.Status = StatusUnknownIntent
		resp.Message = "could not understand the request"
		return resp
	}

	if intent.Action.IsDiscordAction() {
		return s.processDiscordAction(ctx, req, intent)
	}

	cmd := s.generate(ctx, req, intent)
	resp.Command = &cmd
	if !cmd.Valid {
		resp.Status = StatusInvalid
		resp.Message = cmd.Error
		return resp
	}

	validation := s.validator.Validate(cmd.Command, req.UserID)
	resp.Validation = &validation
	if !validation.Valid {
		resp.Status = StatusBlocked
		resp.Message = validation.Reason
		s.auditOutcome(ctx, req, cmd, types.AuditCommand, false, nil)
		if s.notifier != nil {
			if err := s.notifier.NotifyCommandBlocked(req.Username, cmd.Command, validation.Reason); err != nil {
				s.logger.Warn("Failed to send block notification", zap.Error(err))
			}
		}
		return resp
	}

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
		s.auditOutcome(ctx, req, cmd, types.AuditCommand, false, nil)
		return resp
	}

	needsApproval := cmd.RequiresConfirmation || cmd.RequiresDoubleConfirmation || validation.RequiresApproval
	if needsApproval {
		pending := s.approvals.Create(cmd, req.UserID)
		resp.Status = StatusPendingApproval
		resp.ApprovalID = pending.MessageID
		resp.Message = "approval required"

		go s.awaitAndExecute(pending, req, cmd)
		return resp
	}

	result := s.execute(ctx, req, cmd)
	resp.Result = &result
	resp.Status = StatusExecuted
	s.auditOutcome(ctx, req, cmd, types.AuditCommand, true, &result)
	return resp
}

// ResolveApproval applies an approve/cancel decision to a pending gate
func (s *Service) ResolveApproval(messageID, userID string, approve bool) error {
	return s.approvals.Resolve(messageID, userID, approve)
}

// SaveCredential stores remote access credentials for a server
func (s *Service) SaveCredential(ctx context.Context, cred types.Credential, secret string) error {
	return s.creds.Save(ctx, cred, secret)
}

// ListCredentials returns the secret-free credential listing
func (s *Service) ListCredentials(ctx context.Context) ([]types.CredentialInfo, error) {
	return s.creds.List(ctx)
}

// DeleteCredential removes a server's credentials
func (s *Service) DeleteCredential(ctx context.Context, serverID string) error {
	return s.creds.Delete(ctx, serverID)
}

// QueryAudit returns matching audit entries newest first
func (s *Service) QueryAudit(ctx context.Context, q types.AuditQuery) ([]types.AuditEntry, error) {
	return s.audit.Query(ctx, q)
}

// CleanupAudit deletes the oldest audit entries beyond the newest keep
func (s *Service) CleanupAudit(ctx context.Context, keep int) (int, error) {
	return s.audit.Cleanup(ctx, keep)
}

// CleanupAuditOlderThan deletes audit entries older than the given age
func (s *Service) CleanupAuditOlderThan(ctx context.Context, age time.Duration) (int, error) {
	return s.audit.CleanupOlderThan(ctx, age)
}

// HealthStatus represents service health
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Storage string `json:"storage"`
}

// HealthCheck pings the storage backend
func (s *Service) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true, Storage: s.store.Driver()}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("Storage health check failed", zap.Error(err))
		status.Healthy = false
	}
	return status
}

// PendingApproval returns the snapshot of a pending gate
func (s *Service) PendingApproval(messageID string) (types.PendingApproval, bool) {
	return s.approvals.Get(messageID)
}

// awaitAndExecute runs in the background while an approval gate is open
func (s *Service) awaitAndExecute(pending types.PendingApproval, req QueryRequest, cmd types.GeneratedCommand) {
	ctx := context.Background()

	resolution, err := s.approvals.Await(ctx, pending.MessageID)
	if err != nil {
		s.logger.Error("Approval wait failed",
			zap.String("approval_id", pending.MessageID),
			zap.Error(err))
		return
	}

	switch resolution {
	case types.ResolutionApproved:
		result := s.execute(ctx, req, cmd)
		entry := s.baseEntry(req, cmd, types.AuditCommand)
		entry.Approved = true
		entry.Executed = true
		entry.Success = result.Success
		entry.Output = result.Output
		entry.Error = result.Error
		entry.Duration = result.Duration
		s.audit.Log(ctx, entry)
		if s.notifier != nil {
			if err := s.notifier.NotifyCommandResult(req.Username, cmd, result); err != nil {
				s.logger.Warn("Failed to send result notification", zap.Error(err))
			}
		}
	case types.ResolutionTimedOut:
		s.audit.Log(ctx, s.baseEntry(req, cmd, types.AuditCommand))
		if s.notifier != nil {
			if err := s.notifier.NotifyApprovalExpired(pending); err != nil {
				s.logger.Warn("Failed to send expiry notification", zap.Error(err))
			}
		}
	default:
		s.audit.Log(ctx, s.baseEntry(req, cmd, types.AuditCommand))
	}
}

// generate renders the intent for the local platform or the remote
// target's platform
func (s *Service) generate(ctx context.Context, req QueryRequest, intent types.Intent) types.GeneratedCommand {
	opts := command.GenerateOptions{}
	if req.ServerID != "" {
		if cred, err := s.creds.Lookup(ctx, req.ServerID); err == nil {
			platform, _ := s.detector.Remote(cred.Host)
			opts.Platform = platform
		}
	}
	return s.generator.Generate(intent, opts)
}

// execute dispatches locally or over ssh when the request targets a
// server with stored credentials
func (s *Service) execute(ctx context.Context, req QueryRequest, cmd types.GeneratedCommand) types.ExecutionResult {
	opts := command.ExecuteOptions{
		Timeout:        s.opts.ExecTimeout,
		MaxOutputChars: s.opts.MaxOutputChars,
		Platform:       cmd.Platform,
	}

	if req.ServerID != "" {
		cred, err := s.creds.Lookup(ctx, req.ServerID)
		if err != nil {
			return types.ExecutionResult{
				Success:  false,
				Error:    "no credentials for server " + req.ServerID,
				ExitCode: -1,
			}
		}
		// Only ssh targets are executable; winrm credentials can be
		// stored but have no transport here
		if cred.Type != types.CredentialSSH {
			return types.ExecutionResult{
				Success:  false,
				Error:    fmt.Sprintf("credential type %q for server %s is not executable over ssh", cred.Type, req.ServerID),
				ExitCode: -1,
			}
		}
		opts.UseRemote = true
		opts.RemoteHost = cred.Host
		opts.RemoteUser = cred.Username
		opts.RemotePort = cred.Port
	}

	return s.runner.Execute(ctx, cmd.Command, opts)
}

func (s *Service) baseEntry(req QueryRequest, cmd types.GeneratedCommand, auditType types.AuditType) types.AuditEntry {
	return types.AuditEntry{
		UserID:    req.UserID,
		Username:  req.Username,
		Command:   cmd.Command,
		Type:      auditType,
		Platform:  cmd.Platform,
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
	}
}

// auditOutcome records a non-gated pipeline outcome
func (s *Service) auditOutcome(ctx context.Context, req QueryRequest, cmd types.GeneratedCommand, auditType types.AuditType, executed bool, result *types.ExecutionResult) {
	entry := s.baseEntry(req, cmd, auditType)
	entry.Approved = executed
	entry.Executed = executed
	if result != nil {
		entry.Success = result.Success
		entry.Output = result.Output
		entry.Error = result.Error
		entry.Duration = result.Duration
	}
	s.audit.Log(ctx, entry)
}
