package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "graylogic/detector"

// Topics builds the topics owned by one detector:
//
//	{prefix}/{mac}/status     retained online/offline status (LWT)
//	{prefix}/{mac}/telemetry  one message per uploaded report
type Topics struct {
	base string
}

// NewTopics returns the topic builder for the device with the given MAC.
func NewTopics(prefix, mac string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{base: prefix + "/" + topicSegment(mac)}
}

// Status returns the device status topic.
func (t Topics) Status() string {
	return t.base + "/status"
}

// Telemetry returns the device telemetry topic.
func (t Topics) Telemetry() string {
	return t.base + "/telemetry"
}

// topicSegment strips MQTT wildcard and separator characters.
func topicSegment(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}
