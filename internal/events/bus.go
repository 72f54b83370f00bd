// Package events re-exports the platform event bus so modules only import
// internal/events.
package events

import (
	platformevents "movecrm_backend/platform/events"
	"movecrm_backend/platform/logger"
)

type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
