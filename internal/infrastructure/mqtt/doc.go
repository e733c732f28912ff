// Package mqtt provides the MQTT connection used to mirror detector telemetry.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing of telemetry reports with the configured QoS
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// The collector upload over HTTP remains the system of record; MQTT is an
// optional live feed for dashboards and automation on the site bus.
//
//	Detector → HTTP  → Registry collector
//	         ↘ MQTT  → Broker → subscribers
//
// # Topics
//
//	graylogic/detector/{mac}/status     retained {"status":"online"|"offline",...}
//	graylogic/detector/{mac}/telemetry  report JSON, not retained
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, identity.MACAddress)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishTelemetry(payload)
package mqtt
