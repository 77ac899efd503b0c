package queueaccess

import (
	"context"
	"errors"
	"fmt"

	"ytbili/internal/config"
	"ytbili/internal/daemonctl"
	"ytbili/internal/queue"
)

// Session represents a queue access handle and its cleanup function.
type Session struct {
	Access Access
	// Local is true when the daemon did not answer and the store is used directly.
	Local  bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback uses the daemon API when it answers a health probe and
// falls back to opening the queue database otherwise. Errors other than an
// unreachable daemon, such as a rejected token, are returned as is.
func OpenWithFallback(ctx context.Context, cfg *config.Config, client *daemonctl.Client) (Session, error) {
	if client == nil {
		client = daemonctl.NewClient(cfg)
	}
	err := client.Ping(ctx)
	if err == nil {
		return Session{Access: NewAPIAccess(client)}, nil
	}
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		return Session{}, err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(store, cfg),
		Local:  true,
		close:  store.Close,
	}, nil
}
