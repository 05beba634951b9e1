package nlu

import (
	"context"
	"fmt"

	"github.com/Comcast/chatflow/flow"
)

// SyncError reports a failed provider synchronization and which step
// of the protocol failed.
type SyncError struct {
	Op  string // "list", "delete", or "create"
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("intent sync failed (%s): %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Sync replaces the provider's intent set wholesale.
//
// The protocol is list, batch-delete (when anything exists), then
// batch-create: a full replacement, not a diff.  Between the delete
// and the create the provider has no intents at all; that window is a
// known consistency gap of this protocol.  Sync never retries on its
// own — a failed Replace is reported to the caller, who must keep the
// previous routing table authoritative.
type Sync struct {
	Provider Provider

	// Agent is the provider agent path used to build context
	// names.  Empty means DefaultAgent.
	Agent string
}

// Replace makes the provider's intent set exactly equal to the given
// compiled set.
func (s *Sync) Replace(ctx context.Context, compiled []flow.CompiledIntent) error {
	existing, err := s.Provider.ListIntents(ctx)
	if err != nil {
		return &SyncError{Op: "list", Err: err}
	}

	if len(existing) > 0 {
		if err := s.Provider.BatchDeleteIntents(ctx, existing); err != nil {
			return &SyncError{Op: "delete", Err: err}
		}
	}

	wire := make([]Intent, 0, len(compiled))
	for _, ci := range compiled {
		wire = append(wire, Wire(s.Agent, ci))
	}

	if err := s.Provider.BatchCreateIntents(ctx, wire); err != nil {
		return &SyncError{Op: "create", Err: err}
	}

	return nil
}
