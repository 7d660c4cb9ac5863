package tele

type Config struct { //nolint:maligned
	Enabled           bool   `hcl:"enable" yaml:"enable"`
	ClientID          string `hcl:"client_id" yaml:"client_id"`
	KeepaliveSec      int    `hcl:"keepalive_sec" yaml:"keepalive_sec"`
	MqttBroker        string `hcl:"mqtt_broker" yaml:"mqtt_broker"`
	MqttLogDebug      bool   `hcl:"mqtt_log_debug" yaml:"mqtt_log_debug"`
	MqttPassword      string `hcl:"mqtt_password" yaml:"mqtt_password"` // secret
	NetworkTimeoutSec int    `hcl:"network_timeout_sec" yaml:"network_timeout_sec"`
	Qos               int    `hcl:"qos" yaml:"qos"`
	TopicPrefix       string `hcl:"topic_prefix" yaml:"topic_prefix"`
}

const (
	DefaultClientID    = "sirfd"
	DefaultTopicPrefix = "sirf"
)

func (c *Config) clientID() string {
	if c.ClientID == "" {
		return DefaultClientID
	}
	return c.ClientID
}

func (c *Config) topicPrefix() string {
	if c.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return c.TopicPrefix
}
