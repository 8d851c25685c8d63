package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/electrotrack/internal/core/events"
	"github.com/frahmantamala/electrotrack/internal/metrics"
	"github.com/frahmantamala/electrotrack/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the event bus: publish synthetic events and check which subscribers react`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long: `Publish an event to an in-process bus with the metrics subscriber attached.
Use "workflow.status_changed" to publish a synthetic approval; any other type is sent as a plain event.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var (
	eventData   string
	eventLedger string
)

func publishTestEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)
	m := metrics.New(nil)
	m.Subscribe(eventBus)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	var event events.Event
	if eventType == events.EventTypeStatusChanged {
		event = events.NewStatusChangedEvent(eventLedger, 0, 0, 0, "approve", "pending", "approved")
	} else {
		event = events.BaseEvent{
			ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message": eventData,
				"source":  "cli-command",
			},
		}
	}

	logger.Info("publishing test event", "event_type", event.EventType(), "event_id", event.EventID())

	ctx := context.Background()
	if err := eventBus.Publish(ctx, event); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	eventBus.Wait()
	logger.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")
	publishEventCmd.Flags().StringVar(&eventLedger, "ledger", "work_report", "Ledger of a synthetic workflow.status_changed event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
