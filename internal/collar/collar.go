// Package collar defines the domain types shared by the alerting engine,
// the reminder scheduler, and the storage adapters: per-pet notification
// settings, geofences, reminders, and the append-only notification log.
//
// Pets are identified by the (owner uid, pet id) pair. Pet lifecycle is
// owned by the account service; this backend only reads and writes the
// sub-records below.
package collar

import "time"

// Metric names carried by collar telemetry updates.
const (
	MetricBPM         = "bpm"
	MetricTemperature = "temperature"
)

// Alert kinds. A kind identifies which condition triggered a notification
// and keys the per-pet cooldown state.
const (
	KindHRHigh   = "hr_high"
	KindHRLow    = "hr_low"
	KindTempHigh = "temp_high"
	KindTempLow  = "temp_low"
	KindGeofence = "geofence"
	KindReminder = "reminder"
)

// Settings are the per-pet alert thresholds. Written by the mobile app,
// read-only here. A missing record means alerting is not configured for
// the pet.
type Settings struct {
	HeartRateAlert bool    `json:"heartRateAlert"`
	MinHeartRate   float64 `json:"minHeartRate"`
	MaxHeartRate   float64 `json:"maxHeartRate"`
	TempAlert      bool    `json:"tempAlert"`
	MinTemp        float64 `json:"minTemp"`
	MaxTemp        float64 `json:"maxTemp"`
}

// Geofence is a circular boundary around a fixed center. Radius is in
// meters.
type Geofence struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
}

// Reminder is a scheduled task for a pet. The three sent-flags are
// one-shot: each flips false→true when its trigger window fires and is
// never reset. Completed reminders are excluded from sweeps.
type Reminder struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Notes             string    `json:"notes"`
	Due               time.Time `json:"date"`
	Completed         bool      `json:"completed"`
	OneHourNotifSent  bool      `json:"oneHourNotifSent"`
	DayNotifSent      bool      `json:"dayNotifSent"`
	TomorrowNotifSent bool      `json:"tomorrowNotifSent"`
}

// PetReminder pairs a reminder with the pet it belongs to, for sweeps
// that span all owners.
type PetReminder struct {
	UID   string
	PetID string
	Reminder
}

// ReminderFlag names one of the three one-shot sent-flags.
type ReminderFlag string

const (
	FlagOneHour  ReminderFlag = "one_hour_notif_sent"
	FlagDay      ReminderFlag = "day_notif_sent"
	FlagTomorrow ReminderFlag = "tomorrow_notif_sent"
)

// NotificationRecord is one entry in an owner's notification log. The log
// is append-only; entries are written before the push delivery attempt,
// so the log reflects intent, not delivery outcome.
type NotificationRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // epoch ms
	Type      string `json:"type"`
	PetID     string `json:"petId"`
	Source    string `json:"source"`
}
