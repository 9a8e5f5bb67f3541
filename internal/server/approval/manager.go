package approval

import (
	"context"
	"sync"
	"time"

	"akeno/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is long enough to read a rendered command and
	// decide, short enough that a stale prompt cannot be approved later
	DefaultTimeout = 60 * time.Second

	// sweepAge is the hard upper bound for any pending entry, a safety
	// net independent of the interactive wait
	sweepAge = 5 * time.Minute

	sweepInterval = time.Minute
)

// entry couples the pending record with its resolution channel
type entry struct {
	approval types.PendingApproval
	done     chan types.ApprovalResolution
}

// Manager turns generated commands into single-transition confirmation
// gates bound to the requesting identity. Entries are keyed by the
// outbound prompt message ID, never by user or command, so simultaneous
// requests from one user stay independent.
type Manager struct {
	mu      sync.Mutex
	pending map[string]*entry
	timeout time.Duration
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a new approval manager and starts its sweep loop
func NewManager(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		pending: make(map[string]*entry),
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	go m.sweepLoop()
	return m
}

// Stop terminates the sweep loop
func (m *Manager) Stop() {
	m.cancel()
}

// Create registers a new pending approval and returns it. The caller
// presents the returned MessageID to the approver and passes it to Await.
func (m *Manager) Create(cmd types.GeneratedCommand, requesterID string) types.PendingApproval {
	approval := types.PendingApproval{
		MessageID:   uuid.New().String(),
		Command:     cmd,
		RequesterID: requesterID,
		CreatedAt:   time.Now(),
	}

	m.mu.Lock()
	m.pending[approval.MessageID] = &entry{
		approval: approval,
		done:     make(chan types.ApprovalResolution, 1),
	}
	m.mu.Unlock()

	m.logger.Info("Approval requested",
		zap.String("message_id", approval.MessageID),
		zap.String("requester_id", requesterID),
		zap.String("command", cmd.Command))

	return approval
}

// Get returns a snapshot of a pending approval
func (m *Manager) Get(messageID string) (types.PendingApproval, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pending[messageID]
	if !ok {
		return types.PendingApproval{}, false
	}
	return e.approval, true
}

// Resolve commits a terminal resolution. Only the original requester may
// resolve; anyone else gets ErrUnauthorized with no state change. A second
// resolution attempt gets ErrApprovalResolved.
func (m *Manager) Resolve(messageID, approverID string, approve bool) error {
	resolution := types.ResolutionCancelled
	if approve {
		resolution = types.ResolutionApproved
	}
	return m.commit(messageID, approverID, resolution)
}

// Await blocks until the approval is resolved or the timeout fires,
// whichever comes first. The loser of the race has no effect: the first
// committed resolution wins and is returned.
func (m *Manager) Await(ctx context.Context, messageID string) (types.ApprovalResolution, error) {
	m.mu.Lock()
	e, ok := m.pending[messageID]
	m.mu.Unlock()
	if !ok {
		return "", types.ErrApprovalNotFound
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case resolution := <-e.done:
		return resolution, nil
	case <-timer.C:
		return m.expire(messageID), nil
	case <-ctx.Done():
		return m.expire(messageID), ctx.Err()
	}
}

// expire marks an entry timed out unless a resolution raced ahead of the
// timer, in which case the committed resolution is returned
func (m *Manager) expire(messageID string) types.ApprovalResolution {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pending[messageID]
	if !ok {
		return types.ResolutionTimedOut
	}
	if e.approval.Resolved {
		return e.approval.Resolution
	}

	e.approval.Resolved = true
	e.approval.Resolution = types.ResolutionTimedOut
	m.logger.Info("Approval timed out",
		zap.String("message_id", messageID),
		zap.String("requester_id", e.approval.RequesterID))
	return types.ResolutionTimedOut
}

// commit is the single writer for state transitions
func (m *Manager) commit(messageID, approverID string, resolution types.ApprovalResolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pending[messageID]
	if !ok {
		return types.ErrApprovalNotFound
	}

	// Unauthorized attempts must not transition state
	if approverID != e.approval.RequesterID {
		m.logger.Warn("Unauthorized approval attempt",
			zap.String("message_id", messageID),
			zap.String("requester_id", e.approval.RequesterID),
			zap.String("approver_id", approverID))
		return types.ErrUnauthorized
	}

	if e.approval.Resolved {
		return types.ErrApprovalResolved
	}

	e.approval.Resolved = true
	e.approval.Resolution = resolution
	select {
	case e.done <- resolution:
	default:
	}

	m.logger.Info("Approval resolved",
		zap.String("message_id", messageID),
		zap.String("resolution", string(resolution)))
	return nil
}

// Remove drops an entry once the caller is done with it
func (m *Manager) Remove(messageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, messageID)
}

// sweepLoop garbage-collects resolved and stale entries. Stale unresolved
// entries are committed as timed out first so a delayed approver cannot
// revive them.
func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.pending {
		if now.Sub(e.approval.CreatedAt) < sweepAge {
			continue
		}
		if !e.approval.Resolved {
			e.approval.Resolved = true
			e.approval.Resolution = types.ResolutionTimedOut
			m.logger.Warn("Swept stale approval",
				zap.String("message_id", id))
		}
		delete(m.pending, id)
	}
}
