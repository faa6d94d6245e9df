// Package clock provides the bot's civil-time source. Recorded timestamps use a
// fixed UTC+3 offset as a display convention, independent of the host timezone
// and without DST adjustments.
package clock

import "time"

const offsetHours = 3

// Zone is the fixed UTC+3 civil timezone used for recorded timestamps.
var Zone = time.FixedZone("UTC+3", offsetHours*60*60)

// nowFunc is overridable for tests.
var nowFunc = time.Now

// Now returns the current time in the configured civil timezone.
func Now() time.Time {
	return nowFunc().In(Zone)
}

// Format renders a timestamp in the configured civil timezone using the bot's
// standard layout.
func Format(t time.Time) string {
	return t.In(Zone).Format("2006-01-02 15:04:05")
}
