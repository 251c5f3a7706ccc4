package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultWasherHref is the gateway thing mirroring the washer when no alias
// table is configured.
const DefaultWasherHref = "/things/zb-500b91400001e9d1"

// Config is the shared configuration file for all binaries. Each binary
// reads only the sections it needs.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Bridge BridgeConfig `yaml:"bridge"`
	Local  LocalConfig  `yaml:"local"`
	Washer WasherConfig `yaml:"washer"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BridgeConfig configures the cloud webhook server.
type BridgeConfig struct {
	Listen          string          `yaml:"listen"`
	AgentUserID     string          `yaml:"agent_user_id"`
	URLBaseOverride string          `yaml:"url_base_override"`
	UpstreamTimeout Duration        `yaml:"upstream_timeout"`
	DBPath          string          `yaml:"db_path"`
	WasherID        string          `yaml:"washer_id"`
	VirtualDevices  []VirtualDevice `yaml:"virtual_devices"`
	HomeGraph       HomeGraphConfig `yaml:"homegraph"`
	// OperatorToken is the gateway bearer token the MCP console acts with.
	OperatorToken string `yaml:"operator_token"`
}

// VirtualDevice is a device served from the state store instead of the
// gateway.
type VirtualDevice struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	VerificationID string `yaml:"verification_id"`
}

// HomeGraphConfig configures the outbound Home Graph client.
type HomeGraphConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
}

// LocalConfig configures the local discovery and dispatch agent.
type LocalConfig struct {
	Listen          string            `yaml:"listen"`
	LANPort         int               `yaml:"lan_port"`
	LeafDeviceID    string            `yaml:"leaf_device_id"`
	ProxyDeviceID   string            `yaml:"proxy_device_id"`
	ProxyPrefix     string            `yaml:"proxy_prefix"`
	URLBaseOverride string            `yaml:"url_base_override"`
	UpstreamTimeout Duration          `yaml:"upstream_timeout"`
	DeviceAliases   map[string]string `yaml:"device_aliases"`
	StaticAddresses map[string]string `yaml:"static_addresses"`
	UDP             UDPConfig         `yaml:"udp"`
	MDNS            MDNSConfig        `yaml:"mdns"`
}

// UDPConfig is the discovery broadcast contract shared by the agent and the
// washer.
type UDPConfig struct {
	Packet      string   `yaml:"packet"`
	PortOut     int      `yaml:"port_out"`
	PortIn      int      `yaml:"port_in"`
	Broadcast   string   `yaml:"broadcast"`
	ScanTimeout Duration `yaml:"scan_timeout"`
}

// MDNSConfig names the service type advertised by the gateway hub.
type MDNSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
	Domain  string `yaml:"domain"`
}

// WasherConfig configures the virtual washer simulator.
type WasherConfig struct {
	DeviceID       string     `yaml:"device_id"`
	ReportStateURL string     `yaml:"report_state_url"`
	HTTPListen     string     `yaml:"http_listen"`
	UDP            UDPConfig  `yaml:"udp"`
	MDNS           MDNSConfig `yaml:"mdns"`
}

// Duration unmarshals Go duration strings such as "8s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// Load reads the YAML file at path, expands environment variables and
// applies defaults. An empty path yields the defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Default returns a configuration holding only defaults.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	if c.Bridge.Listen == "" {
		c.Bridge.Listen = ":8080"
	}
	if c.Bridge.AgentUserID == "" {
		c.Bridge.AgentUserID = "123"
	}
	if c.Bridge.UpstreamTimeout.Duration == 0 {
		c.Bridge.UpstreamTimeout.Duration = 8 * time.Second
	}
	if c.Bridge.WasherID == "" {
		c.Bridge.WasherID = "washer"
	}

	if c.Local.Listen == "" {
		c.Local.Listen = ":8090"
	}
	if c.Local.LANPort == 0 {
		c.Local.LANPort = 3388
	}
	if c.Local.LeafDeviceID == "" {
		c.Local.LeafDeviceID = "washer"
	}
	if len(c.Local.DeviceAliases) == 0 {
		c.Local.DeviceAliases = map[string]string{c.Local.LeafDeviceID: DefaultWasherHref}
	}
	if c.Local.ProxyDeviceID == "" {
		c.Local.ProxyDeviceID = "hub"
	}
	if c.Local.ProxyPrefix == "" {
		c.Local.ProxyPrefix = "/things/zb"
	}
	if c.Local.UpstreamTimeout.Duration == 0 {
		c.Local.UpstreamTimeout.Duration = 8 * time.Second
	}
	c.Local.UDP.setDefaults()
	c.Local.MDNS.setDefaults()

	if c.Washer.DeviceID == "" {
		c.Washer.DeviceID = "deviceid123"
	}
	if c.Washer.HTTPListen == "" {
		c.Washer.HTTPListen = ":3388"
	}
	c.Washer.UDP.setDefaults()
	c.Washer.MDNS.setDefaults()

	if len(c.Bridge.VirtualDevices) == 0 {
		c.Bridge.VirtualDevices = []VirtualDevice{{
			ID:             c.Bridge.WasherID,
			Name:           "Washer",
			VerificationID: c.Washer.DeviceID,
		}}
	}
}

func (u *UDPConfig) setDefaults() {
	if u.Packet == "" {
		u.Packet = "HelloLocalHomeSDK"
	}
	if u.PortOut == 0 {
		u.PortOut = 3311
	}
	if u.PortIn == 0 {
		u.PortIn = 3312
	}
	if u.Broadcast == "" {
		u.Broadcast = "255.255.255.255"
	}
	if u.ScanTimeout.Duration == 0 {
		u.ScanTimeout.Duration = 2 * time.Second
	}
}

func (m *MDNSConfig) setDefaults() {
	if m.Service == "" {
		m.Service = "_webthing._tcp"
	}
	if m.Domain == "" {
		m.Domain = "local."
	}
}
