package domain

import "time"

type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRetrying  DeliveryStatus = "retrying"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// Delivery is the journal record of one webhook delivery, including all retries.
type Delivery struct {
	UniqueId uint64 `gorm:"primaryKey;autoIncrement:true;column:id"`

	EventId EventIdentifier  `gorm:"column:event_id;index:idx_dl_event"`
	Stream  StreamIdentifier `gorm:"column:stream;index:idx_dl_stream"`
	Kind    EventKind        `gorm:"column:kind"`
	Url     string           `gorm:"column:url"`
	// Payload is the serialized request body. It is kept so that retries send
	// exactly the bytes of the first attempt.
	Payload string `gorm:"column:payload"`

	Status DeliveryStatus `gorm:"column:status;index:idx_dl_status"`
	// Attempts counts the requests that were already sent for this delivery.
	Attempts    int `gorm:"column:attempts"`
	MaxAttempts int `gorm:"column:max_attempts"`
	// ResponseStatus is the HTTP status code of the last attempt, 0 if the
	// receiver could not be reached at all.
	ResponseStatus int    `gorm:"column:response_status"`
	LastError      string `gorm:"column:last_error"`

	// NextAttemptAt is the earliest time for the next retry. It is nil once the
	// delivery reached a final state.
	NextAttemptAt *time.Time `gorm:"column:next_attempt_at;index:idx_dl_next"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

// Exhausted reports whether all allowed attempts have been used up.
func (d *Delivery) Exhausted() bool {
	return d.Attempts >= d.MaxAttempts
}

// NextBackoff returns the delay until the next attempt. The delay doubles with
// every sent attempt: base, 2*base, 4*base and so on.
func (d *Delivery) NextBackoff(base time.Duration) time.Duration {
	backoff := base
	for i := 1; i < d.Attempts; i++ {
		backoff *= 2
	}
	return backoff
}

// RecordSuccess finalizes the delivery after a successful attempt.
func (d *Delivery) RecordSuccess(responseStatus int) {
	d.Attempts++
	d.ResponseStatus = responseStatus
	d.LastError = ""
	d.Status = DeliveryStatusDelivered
	d.NextAttemptAt = nil
}

// RecordFailure registers a failed attempt. The delivery is scheduled for a
// retry with exponential backoff, or marked as failed once all attempts are used.
func (d *Delivery) RecordFailure(responseStatus int, cause string, now time.Time, backoffBase time.Duration) {
	d.Attempts++
	d.ResponseStatus = responseStatus
	d.LastError = cause

	if d.Exhausted() {
		d.Status = DeliveryStatusFailed
		d.NextAttemptAt = nil
		return
	}

	d.Status = DeliveryStatusRetrying
	next := now.Add(d.NextBackoff(backoffBase))
	d.NextAttemptAt = &next
}
