// Package sensor holds the detector's static slot catalogue and the
// peripheral drivers behind it.
//
// A detector has SlotCount positional slots. Each slot is bound for the
// lifetime of the process to one sensor kind and display name:
//
//	slot  kind      name
//	0     DHT       DHT-11
//	1     DHT       DHT-22
//	2     MQ        MQ-2
//	3     MQ        MQ-5
//	4     MQ        MQ-7
//	5     MQ        MQ-135
//	6     reserved  (iterated, never produces a reading)
//	7     unused    (never iterated)
//
// Drivers read the Linux IIO sysfs interface: humidity/temperature sensors
// through the dht11 kernel driver (which also serves DHT22 parts) and the gas
// sensors through an ADC channel exposed as a periph.io analog.PinADC.
package sensor
