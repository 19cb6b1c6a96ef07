// Package simulate synthesizes canonical attack scenarios and pushes them
// through the normal ingestion path, for demos and integration tests. It
// never bypasses detection.
package simulate

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/invisible-tech/streamwatch/internal/engine"
	"github.com/invisible-tech/streamwatch/internal/types"
)

// Scenario names accepted by Run.
const (
	ScenarioBadGeoLogin  = "bad_geo_login"
	ScenarioRequestBurst = "request_burst"
	ScenarioDataExfil    = "data_exfil"
)

// Canonical scenario parameters.
const (
	burstEvents          = 150
	burstRequestsPerMin  = 5000
	exfilSizeMB          = 2048
	exfilDestination     = "external_server_suspicious.com"
	badGeoLoginGeography = "Russia"
)

// Scenarios lists the accepted scenario names.
func Scenarios() []string {
	return []string{ScenarioBadGeoLogin, ScenarioRequestBurst, ScenarioDataExfil}
}

// Run injects the named scenario into eng. Every synthesized event goes
// through Engine.Ingest, so detection, metrics, and broadcast behave exactly
// as they would for real telemetry.
func Run(eng *engine.Engine, scenario string) error {
	switch scenario {
	case ScenarioBadGeoLogin:
		_, _, err := eng.Ingest(badGeoLogin())
		return err
	case ScenarioRequestBurst:
		for i := 0; i < burstEvents; i++ {
			if _, _, err := eng.Ingest(burstEvent()); err != nil {
				return err
			}
		}
		return nil
	case ScenarioDataExfil:
		_, _, err := eng.Ingest(dataExfil())
		return err
	default:
		return fmt.Errorf("unknown scenario %q", scenario)
	}
}

func badGeoLogin() types.Event {
	return types.Event{
		ID:       "sim-" + uuid.NewString(),
		Category: types.CategoryLogin,
		Login: &types.LoginEvent{
			UserID:   fmt.Sprintf("user_%d", rand.Intn(100)),
			Geo:      badGeoLoginGeography,
			SourceIP: fmt.Sprintf("185.220.101.%d", rand.Intn(255)),
			Device:   "Windows Desktop",
		},
	}
}

func burstEvent() types.Event {
	return types.Event{
		ID:       "sim-" + uuid.NewString(),
		Category: types.CategoryNetwork,
		Network: &types.NetworkEvent{
			RequestsObserved: burstRequestsPerMin,
			SourceIP:         fmt.Sprintf("192.168.1.%d", rand.Intn(255)),
			Target:           "api-gateway",
		},
	}
}

func dataExfil() types.Event {
	return types.Event{
		ID:       "sim-" + uuid.NewString(),
		Category: types.CategoryFileTransfer,
		FileTransfer: &types.FileTransferEvent{
			UserID:      fmt.Sprintf("user_%d", rand.Intn(50)),
			SizeMB:      exfilSizeMB,
			Direction:   types.DirectionUpload,
			Destination: exfilDestination,
		},
	}
}
