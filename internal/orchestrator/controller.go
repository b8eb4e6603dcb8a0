package orchestrator

import (
	"context"

	"github.com/ASHUVINAYAK1/project-maker/internal/db"
	"github.com/ASHUVINAYAK1/project-maker/internal/store"
	"github.com/ASHUVINAYAK1/project-maker/internal/telemetry"
)

// Controller is the board-facing boundary: it applies drag-and-drop moves and
// fires automation when a feature enters the todo column.
type Controller struct {
	store *store.FeatureStore
	orch  *Orchestrator

	// trigger starts one automation run; replaced in tests.
	trigger func(featureID string)
}

// NewController wires the board boundary to the orchestrator.
func NewController(fs *store.FeatureStore, orch *Orchestrator) *Controller {
	c := &Controller{store: fs, orch: orch}
	c.trigger = func(featureID string) {
		go func() {
			if err := orch.RunFeature(context.Background(), featureID); err != nil {
				telemetry.LogError("Automation run failed", err, "feature", featureID)
			}
		}()
	}
	return c
}

// MoveFeature applies a status change and triggers exactly one automation run
// when the feature enters todo from any other status. The trigger is
// asynchronous; the move itself returns as soon as it is persisted.
// Re-dropping a feature already in todo does not re-trigger.
func (c *Controller) MoveFeature(featureID string, newStatus db.Status, newOrder *int) error {
	feature, err := c.store.Get(featureID)
	if err != nil {
		return err
	}
	previous := feature.Status

	if err := c.store.MoveToStatus(featureID, newStatus, newOrder); err != nil {
		return err
	}

	if newStatus == db.StatusTodo && previous != db.StatusTodo {
		c.trigger(featureID)
	}
	return nil
}
