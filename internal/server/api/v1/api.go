package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"akeno/internal/server/api/response"
	"akeno/internal/server/service"
	"akeno/internal/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// API represents the API
type API struct {
	service *service.Service
	logger  *zap.Logger
}

// NewAPI creates new API
func NewAPI(svc *service.Service, logger *zap.Logger) *API {
	return &API{
		service: svc,
		logger:  logger,
	}
}

// RegisterRoutes registers API routes
func (api *API) RegisterRoutes(r *gin.RouterGroup) {
	// Admin query pipeline
	r.POST("/query", api.processQuery)

	// Approval gates
	approvals := r.Group("/approvals")
	{
		approvals.GET("/:id", api.getApproval)
		approvals.POST("/:id/approve", api.approveApproval)
		approvals.POST("/:id/cancel", api.cancelApproval)
	}

	// Credentials
	creds := r.Group("/credentials")
	{
		creds.GET("", api.listCredentials)
		creds.PUT("/:server_id", api.saveCredential)
		creds.DELETE("/:server_id", api.deleteCredential)
	}

	// Audit log
	r.GET("/audit", api.queryAudit)

	// Health check
	r.GET("/health", api.healthCheck)
}

// processQuery handles one admin query through the full pipeline
func (api *API) processQuery(c *gin.Context) {
	resp := response.New(c, api.logger)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	var req service.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.Error("Invalid query request",
			zap.Error(err),
			zap.String("client_ip", c.ClientIP()))
		resp.BadRequest(fmt.Errorf("invalid query format: %v", err))
		return
	}

	result := api.service.ProcessQuery(ctx, req)
	resp.Success(result)
}

// getApproval handles retrieving a pending approval snapshot
func (api *API) getApproval(c *gin.Context) {
	resp := response.New(c, api.logger)

	id := c.Param("id")
	approval, ok := api.service.PendingApproval(id)
	if !ok {
		resp.NotFound(errors.New("approval not found"))
		return
	}

	resp.Success(approval)
}

// approveApproval handles approving a pending command
func (api *API) approveApproval(c *gin.Context) {
	api.resolveApproval(c, true)
}

// cancelApproval handles cancelling a pending command
func (api *API) cancelApproval(c *gin.Context) {
	api.resolveApproval(c, false)
}

func (api *API) resolveApproval(c *gin.Context, approve bool) {
	resp := response.New(c, api.logger)

	id := c.Param("id")

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(errors.New("user_id is required"))
		return
	}

	if err := api.service.ResolveApproval(id, req.UserID, approve); err != nil {
		switch {
		case errors.Is(err, types.ErrApprovalNotFound):
			resp.NotFound(errors.New("approval not found"))
		case errors.Is(err, types.ErrUnauthorized):
			resp.Forbidden(errors.New("only the requester may resolve this approval"))
		case errors.Is(err, types.ErrApprovalResolved):
			resp.Conflict(errors.New("approval already resolved"))
		default:
			api.logger.Error("Failed to resolve approval",
				zap.Error(err),
				zap.String("approval_id", id))
			resp.InternalError(errors.New("failed to resolve approval"))
		}
		return
	}

	resp.Success(gin.H{"status": "resolved"})
}

// listCredentials handles listing stored credentials without secrets
func (api *API) listCredentials(c *gin.Context) {
	resp := response.New(c, api.logger)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	infos, err := api.service.ListCredentials(ctx)
	if err != nil {
		api.logger.Error("Failed to list credentials", zap.Error(err))
		resp.InternalError(errors.New("failed to list credentials"))
		return
	}

	resp.Success(infos)
}

// saveCredential handles upserting credentials for a server
func (api *API) saveCredential(c *gin.Context) {
	resp := response.New(c, api.logger)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	serverID := c.Param("server_id")

	var req struct {
		Type     string `json:"type" binding:"required"`
		Host     string `json:"host" binding:"required"`
		Port     int    `json:"port"`
		Username string `json:"username" binding:"required"`
		Secret   string `json:"secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(fmt.Errorf("invalid credential format: %v", err))
		return
	}

	if req.Port == 0 {
		req.Port = 22
	}

	cred := types.Credential{
		ServerID: serverID,
		Type:     types.CredentialType(req.Type),
		Host:     req.Host,
		Port:     req.Port,
		Username: req.Username,
	}
	if err := api.service.SaveCredential(ctx, cred, req.Secret); err != nil {
		api.logger.Error("Failed to save credential",
			zap.Error(err),
			zap.String("server_id", serverID))
		resp.BadRequest(err)
		return
	}

	resp.Created(cred.Info())
}

// deleteCredential handles removing credentials for a server
func (api *API) deleteCredential(c *gin.Context) {
	resp := response.New(c, api.logger)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	serverID := c.Param("server_id")
	if err := api.service.DeleteCredential(ctx, serverID); err != nil {
		if errors.Is(err, types.ErrCredentialNotFound) {
			resp.NotFound(errors.New("credential not found"))
			return
		}
		api.logger.Error("Failed to delete credential",
			zap.Error(err),
			zap.String("server_id", serverID))
		resp.InternalError(errors.New("failed to delete credential"))
		return
	}

	resp.Success(gin.H{"status": "deleted"})
}

// queryAudit handles querying the audit log
func (api *API) queryAudit(c *gin.Context) {
	resp := response.New(c, api.logger)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	var query struct {
		UserID   string `form:"user_id"`
		Type     string `form:"type"`
		Success  *bool  `form:"success"`
		SinceStr string `form:"since"`
		UntilStr string `form:"until"`
		GuildID  string `form:"guild_id"`
		Limit    int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		resp.BadRequest(errors.New("invalid query parameters"))
		return
	}

	q := types.AuditQuery{
		UserID:  query.UserID,
		Type:    types.AuditType(query.Type),
		Success: query.Success,
		GuildID: query.GuildID,
		Limit:   query.Limit,
	}

	if query.SinceStr != "" {
		since, err := time.Parse(time.RFC3339, query.SinceStr)
		if err != nil {
			resp.BadRequest(fmt.Errorf("invalid since format: %v", err))
			return
		}
		q.Since = &since
	}
	if query.UntilStr != "" {
		until, err := time.Parse(time.RFC3339, query.UntilStr)
		if err != nil {
			resp.BadRequest(fmt.Errorf("invalid until format: %v", err))
			return
		}
		q.Until = &until
	}

	entries, err := api.service.QueryAudit(ctx, q)
	if err != nil {
		api.logger.Error("Failed to query audit log", zap.Error(err))
		resp.InternalError(errors.New("failed to query audit log"))
		return
	}

	resp.Success(entries)
}

// healthCheck handles health check requests
func (api *API) healthCheck(c *gin.Context) {
	resp := response.New(c, api.logger)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := api.service.HealthCheck(ctx)
	if !status.Healthy {
		resp.Error(http.StatusServiceUnavailable, errors.New("service unhealthy"))
		return
	}

	resp.Success(status)
}
