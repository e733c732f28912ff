// Package telemetry builds the per-cycle telemetry report.
//
// The Collector visits enabled slots in ascending order and maps each to a
// reading through the sensor directory:
//
//	DHT  {"type":"DHT","name":"DHT-11","temperature":21.5,"humidity":40}
//	MQ   {"type":"MQ","name":"MQ-5","mqValue":312}
//
// DHT slots block for the model's minimum sampling period before the read.
// A failed DHT read still yields a reading; its values encode as null. A
// failed gas read is logged and omitted from that cycle's report.
package telemetry
