package event

import (
	"context"
	"strconv"

	"github.com/yourusername/vefify-quiz/pkg/monitoring"
)

// MetricsHandler обновляет доменные счетчики Prometheus
func MetricsHandler(m *monitoring.Metrics) HandlerFunc {
	return func(_ context.Context, e Event) error {
		campaign := strconv.FormatUint(uint64(e.CampaignID), 10)
		m.EventsPublished.WithLabelValues(string(e.Type)).Inc()

		switch e.Type {
		case ParticipantRegistered:
			m.Registrations.WithLabelValues(campaign).Inc()
		case QuizCompleted:
			passed, _ := e.Data["passed"].(bool)
			m.Completions.WithLabelValues(campaign, strconv.FormatBool(passed)).Inc()
			if awarded, ok := e.Data["gift_awarded"].(bool); ok && !awarded {
				m.GiftAwards.WithLabelValues(campaign, "none").Inc()
			}
		case GiftAwarded:
			m.GiftAwards.WithLabelValues(campaign, "awarded").Inc()
		}
		return nil
	}
}
