package api

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// extractRequestMetrics times the stages of the extraction route, the only
// request in the system expected to take non-trivial wall-clock time.
type extractRequestMetrics struct {
	logger          *log.Logger
	start           time.Time
	authDuration    time.Duration
	loadDuration    time.Duration
	extractDuration time.Duration
	itemsReturned   int
	confidence      string
	errorStage      string
}

func newExtractRequestMetrics(logger *log.Logger) *extractRequestMetrics {
	return &extractRequestMetrics{
		logger: logger,
		start:  time.Now(),
	}
}

func (m *extractRequestMetrics) ObserveAuth(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.authDuration = duration
}

func (m *extractRequestMetrics) ObserveLoad(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.loadDuration = duration
}

func (m *extractRequestMetrics) ObserveExtract(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.extractDuration = duration
}

func (m *extractRequestMetrics) SetItemsReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.itemsReturned = count
}

func (m *extractRequestMetrics) SetConfidence(confidence string) {
	m.confidence = confidence
}

func (m *extractRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *extractRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":          "/api/notes/:id/extract",
		"status":         status,
		"total_ms":       durationToMillis(time.Since(m.start)),
		"items_returned": m.itemsReturned,
	}

	if m.authDuration > 0 {
		fields["auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.loadDuration > 0 {
		fields["load_ms"] = durationToMillis(m.loadDuration)
	}
	if m.extractDuration > 0 {
		fields["extract_ms"] = durationToMillis(m.extractDuration)
	}
	if m.confidence != "" {
		fields["confidence"] = m.confidence
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("extract.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
