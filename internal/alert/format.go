package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event Event) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("usiop: %s", event.Type),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Asset:* %s (SCL-%d)", event.EmployeeID, event.Clearance)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Location:* %s", event.Location)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", event.Reason)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Session:* %s", event.SessionID)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event Event) ([]byte, error) {
	severity := "warning"
	switch event.Type {
	case "audit_sink_error":
		// A security decision that cannot be audited pages a human.
		severity = "critical"
	case "denied_omega7":
		severity = "error"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("usiop %s: %s", event.Type, event.Reason),
			"source":   "usiop",
			"severity": severity,
			"custom_details": map[string]any{
				"employee_id": event.EmployeeID,
				"scl_level":   event.Clearance,
				"location":    event.Location,
				"session_id":  event.SessionID,
				"keyword":     event.Keyword,
			},
		},
	}
	return json.Marshal(payload)
}
