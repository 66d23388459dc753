package cli

import (
	"context"

	"github.com/google/uuid"

	"github.com/iudanet/syncstore/internal/callback"
	"github.com/iudanet/syncstore/internal/client/orchestrator"
	"github.com/iudanet/syncstore/internal/validation"
	"github.com/iudanet/syncstore/pkg/api"
)

// runWatch prints every update of the value until ctx is done. An empty
// valueID watches the whole database.
func (c *Cli) runWatch(ctx context.Context, dbID, valueID string) error {
	if valueID != "" {
		if err := validation.ValidateValueID(valueID); err != nil {
			return err
		}
	}
	if _, err := c.orch.Database(ctx, dbID); err != nil {
		return err
	}

	c.keepConnected(ctx)

	name := "watch-" + uuid.NewString()
	orchestrator.Observe(c.orch, name, func(m api.SetValueMessage) error {
		if m.Skip || m.DatabaseID != dbID || (valueID != "" && m.ValueID != valueID) {
			return nil
		}
		c.io.Printf("%s/%s #%d = %s\n", m.DatabaseID, m.ValueID, m.Counter, format(m.Value, m.Type))
		return nil
	}, callback.Options{})
	defer c.orch.RemoveObservers(api.KindSetValueMessage, name)

	c.io.Printf("Watching %s, press Ctrl+C to stop\n", target(dbID, valueID))
	<-ctx.Done()
	return nil
}

func target(dbID, valueID string) string {
	if valueID == "" {
		return dbID
	}
	return dbID + "/" + valueID
}
