package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// adcFunc is the pin function reported by IIOADC.
const adcFunc pin.Func = "ADC"

// IIO sysfs attribute names used by the Linux dht11 driver.
const (
	iioTemperatureFile = "in_temp_input"
	iioHumidityFile    = "in_humidityrelative_input"
)

// Thermohygrometer reads temperature and relative humidity.
//
// The method set mirrors periph's physic.SenseEnv so periph device drivers
// can be used directly.
type Thermohygrometer interface {
	Sense(env *physic.Env) error
}

// IIOThermohygrometer reads a DHT-11/DHT-22 through the Linux dht11 IIO driver.
type IIOThermohygrometer struct {
	dir string
}

// NewIIOThermohygrometer returns a driver for the IIO device directory dir
// (e.g. "/sys/bus/iio/devices/iio:device0").
func NewIIOThermohygrometer(dir string) *IIOThermohygrometer {
	return &IIOThermohygrometer{dir: dir}
}

// Sense implements Thermohygrometer.
//
// The dht11 driver reports milli-degrees Celsius and milli-percent relative
// humidity. A failed bus transaction surfaces as a read error on either file.
func (t *IIOThermohygrometer) Sense(env *physic.Env) error {
	milliC, err := readSysfsInt(filepath.Join(t.dir, iioTemperatureFile))
	if err != nil {
		return fmt.Errorf("%w: temperature: %w", ErrReadFailed, err)
	}
	milliRH, err := readSysfsInt(filepath.Join(t.dir, iioHumidityFile))
	if err != nil {
		return fmt.Errorf("%w: humidity: %w", ErrReadFailed, err)
	}

	env.Temperature = physic.ZeroCelsius + physic.Temperature(milliC)*physic.MilliKelvin
	env.Humidity = physic.RelativeHumidity(milliRH) * (physic.PercentRH / 1000) // #nosec G115 -- bounded by 100000
	return nil
}

// String implements fmt.Stringer.
func (t *IIOThermohygrometer) String() string {
	return "iio-dht(" + t.dir + ")"
}

// Celsius converts a sensed temperature to degrees Celsius.
func Celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
}

// Percent converts a sensed relative humidity to percent.
func Percent(h physic.RelativeHumidity) float64 {
	return float64(h) / float64(physic.PercentRH)
}

// IIOADC is an analog.PinADC backed by an IIO "in_voltageN_raw" attribute.
type IIOADC struct {
	rawPath string
	number  int
	maxRaw  int32
}

var _ analog.PinADC = (*IIOADC)(nil)

// NewIIOADC returns an ADC pin reading rawPath. maxRaw is the converter's
// full-scale raw value (1023 for a 10-bit converter).
func NewIIOADC(rawPath string, maxRaw int) *IIOADC {
	return &IIOADC{
		rawPath: rawPath,
		number:  channelNumber(rawPath),
		maxRaw:  int32(maxRaw), // #nosec G115 -- validated by config
	}
}

// Read implements analog.PinADC.
//
// Raw carries the converter count. V is populated only when the driver
// exposes a matching "_scale" attribute (millivolts per count).
func (a *IIOADC) Read() (analog.Sample, error) {
	raw, err := readSysfsInt(a.rawPath)
	if err != nil {
		return analog.Sample{}, fmt.Errorf("%w: %s: %w", ErrReadFailed, a.rawPath, err)
	}

	sample := analog.Sample{Raw: int32(raw)} // #nosec G115 -- ADC counts fit in int32
	if scale, err := readSysfsFloat(a.scalePath()); err == nil {
		sample.V = physic.ElectricPotential(float64(raw) * scale * float64(physic.MilliVolt))
	}
	return sample, nil
}

// Range implements analog.PinADC.
func (a *IIOADC) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{Raw: 0}, analog.Sample{Raw: a.maxRaw}
}

// String implements conn.Resource.
func (a *IIOADC) String() string { return a.Name() }

// Halt implements conn.Resource. Sysfs reads hold no state to release.
func (a *IIOADC) Halt() error { return nil }

// Name implements pin.Pin.
func (a *IIOADC) Name() string { return "iio-adc(" + a.rawPath + ")" }

// Number implements pin.Pin.
func (a *IIOADC) Number() int { return a.number }

// Function implements pin.Pin.
func (a *IIOADC) Function() string { return string(adcFunc) }

// Func implements pin.PinFunc.
func (a *IIOADC) Func() pin.Func { return adcFunc }

// SupportedFuncs implements pin.PinFunc.
func (a *IIOADC) SupportedFuncs() []pin.Func { return []pin.Func{adcFunc} }

// SetFunc implements pin.PinFunc.
func (a *IIOADC) SetFunc(f pin.Func) error {
	if f != adcFunc {
		return fmt.Errorf("sensor: %s only supports %s", a.Name(), adcFunc)
	}
	return nil
}

// scalePath maps ".../in_voltage0_raw" to ".../in_voltage0_scale".
func (a *IIOADC) scalePath() string {
	return strings.TrimSuffix(a.rawPath, "_raw") + "_scale"
}

// channelNumber extracts N from an "in_voltageN_raw" path, or -1.
func channelNumber(rawPath string) int {
	base := filepath.Base(rawPath)
	base = strings.TrimPrefix(base, "in_voltage")
	base = strings.TrimSuffix(base, "_raw")
	n, err := strconv.Atoi(base)
	if err != nil {
		return -1
	}
	return n
}

func readSysfsInt(path string) (int64, error) {
	data, err := os.ReadFile(path) //nolint:gosec // sysfs path from config
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

func readSysfsFloat(path string) (float64, error) {
	data, err := os.ReadFile(path) //nolint:gosec // sysfs path from config
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
}
