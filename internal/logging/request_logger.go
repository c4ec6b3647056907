package logging

import (
	"encoding/json"
	"sync"
	"time"

	"vision_gateway/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Record is one audit line describing a completed (or failed) analysis
// request. Question text is truncated before logging; image payloads are
// never recorded.
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"request_id"`
	RemoteAddr     string    `json:"remote_addr"`
	Path           string    `json:"path"`
	Tier           string    `json:"tier"`
	Complexity     int       `json:"complexity"`
	HasImage       bool      `json:"has_image"`
	QualityScore   float64   `json:"quality_score"`
	CostSTX        float64   `json:"cost_stx"`
	Charged        bool      `json:"charged"`
	LatencyMS      int64     `json:"latency_ms"`
	Status         int       `json:"status"`
	Error          string    `json:"error,omitempty"`
	PaymentTxID    string    `json:"payment_tx,omitempty"`
	QuestionPrefix string    `json:"question_prefix,omitempty"`
}

// RequestLogger appends audit records as JSON lines to a rotated file.
// Writes are asynchronous; entries are dropped rather than blocking the
// request path when the queue is full.
type RequestLogger struct {
	out *lumberjack.Logger

	logCh  chan Record
	doneCh chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRequestLogger creates a RequestLogger writing to cfg.FilePath.
// bufferSize determines how many records can be queued before drops occur.
func NewRequestLogger(cfg config.RequestLoggerConfig, bufferSize int) *RequestLogger {
	logger := &RequestLogger{
		out: &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		},
		logCh:  make(chan Record, bufferSize),
		doneCh: make(chan struct{}),
	}

	logger.wg.Add(1)
	go logger.run()

	return logger
}

// Log queues a record for writing. If the queue is full, the record is dropped.
func (logger *RequestLogger) Log(record Record) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	// Cap the question prefix so audit lines stay small.
	if len(record.QuestionPrefix) > 120 {
		record.QuestionPrefix = record.QuestionPrefix[:120]
	}

	select {
	case logger.logCh <- record:
	default:
		// Queue full; dropping audit record.
	}
}

func (logger *RequestLogger) run() {
	defer logger.wg.Done()

	for {
		select {
		case record := <-logger.logCh:
			logger.writeRecord(record)
		case <-logger.doneCh:
			// Drain remaining records.
			for {
				select {
				case record := <-logger.logCh:
					logger.writeRecord(record)
				default:
					_ = logger.out.Close()
					return
				}
			}
		}
	}
}

func (logger *RequestLogger) writeRecord(record Record) {
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	_, _ = logger.out.Write(append(data, '\n'))
}

// Shutdown flushes queued records and closes the underlying file.
// Call Shutdown() from the application's graceful shutdown handler.
func (logger *RequestLogger) Shutdown() {
	logger.mu.Lock()
	if logger.closed {
		logger.mu.Unlock()
		return
	}
	logger.closed = true
	logger.mu.Unlock()

	close(logger.doneCh)
	logger.wg.Wait()
}
