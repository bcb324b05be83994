package internal

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Event names recorded by the tracker
const (
	EventSubscriptionAdded   = "subscription_added"
	EventSubscriptionUpdated = "subscription_updated"
	EventSubscriptionDeleted = "subscription_deleted"
	EventExportJSON          = "export_json"
	EventExportCSV           = "export_csv"
	EventExportXLSX          = "export_xlsx"
	EventImportData          = "import_data"
	EventSimulationToggled   = "simulation_toggled"
	EventPageView            = "page_view"
)

// ExportEvent returns the event name for an export format
func ExportEvent(format string) string {
	return "export_" + format
}

// Tracker records usage events. Implementations must be safe for concurrent use.
type Tracker interface {
	Track(event string, props map[string]any)
}

// NopTracker discards every event
type NopTracker struct{}

func (NopTracker) Track(string, map[string]any) {}

// LogTracker writes events to a logger. When disabled, events are still
// visible at debug level.
type LogTracker struct {
	log     *logrus.Logger
	enabled bool

	mu     sync.Mutex
	counts map[string]int
}

func NewLogTracker(log *logrus.Logger, enabled bool) *LogTracker {
	return &LogTracker{log: log, enabled: enabled, counts: make(map[string]int)}
}

func (t *LogTracker) Track(event string, props map[string]any) {
	t.mu.Lock()
	t.counts[event]++
	t.mu.Unlock()

	entry := t.log.WithField("event", event)
	if len(props) > 0 {
		entry = entry.WithFields(logrus.Fields(props))
	}
	if t.enabled {
		entry.Info("analytics")
		return
	}
	entry.Debug("analytics (disabled)")
}

// Count returns how often an event was tracked since start
func (t *LogTracker) Count(event string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[event]
}
