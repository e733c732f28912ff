// Package influxdb provides InfluxDB connectivity for the detector.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, health checks and blocking point writes. The telemetry
// dispatcher uses it to mirror each uploaded report as one point per
// reading in the detector_readings measurement:
//
//	detector_readings,mac=AA:BB:CC:DD:EE:FF,name=DHT-11,type=DHT humidity=40,temperature=21.5
//	detector_readings,mac=AA:BB:CC:DD:EE:FF,name=MQ-5,type=MQ mq_value=312i
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.WritePoints(ctx, points...)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
package influxdb
