package alert

import (
	"context"
	"fmt"
	"math"

	"github.com/kohizeri/smartcollar-api/internal/collar"
	"github.com/kohizeri/smartcollar-api/internal/geo"
)

// EvaluateLocation checks the pet's position against its geofence. The
// boundary itself is inside the fence; only a distance strictly greater
// than the radius alerts. A position back inside resets the geofence
// cooldown.
func (e *Evaluator) EvaluateLocation(ctx context.Context, uid, petID string, lat, lon float64) {
	fence, err := e.store.Geofence(ctx, uid, petID)
	if err != nil {
		e.logger.Warn("load geofence failed, skipping evaluation",
			"uid", uid, "pet_id", petID, "error", err)
		return
	}
	if fence == nil {
		e.logger.Debug("no geofence configured", "uid", uid, "pet_id", petID)
		return
	}

	distance := geo.Distance(lat, lon, fence.Latitude, fence.Longitude)

	if distance > fence.Radius {
		if e.gate.ShouldSend(ctx, uid, petID, collar.KindGeofence) {
			body := fmt.Sprintf("Your pet has left the safe zone! Distance: %dm",
				int(math.Round(distance)))
			e.notifier.Dispatch(ctx, uid, "SmartCollar Alert: Geofence", body,
				collar.KindGeofence, petID)
		}
		return
	}

	e.gate.Reset(ctx, uid, petID, collar.KindGeofence)
}
