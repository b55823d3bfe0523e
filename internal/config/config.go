// Package config loads receiver settings from a JSON or YAML file. Every
// field is optional: omitted fields keep the value already in the
// receiver.Config the file is applied to, so partial files are safe.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/angle.receiver/internal/angle"
	"github.com/banshee-data/angle.receiver/internal/fsutil"
	"github.com/banshee-data/angle.receiver/internal/receiver"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// File is the on-disk schema. Durations are strings such as "2s" or "500ms".
type File struct {
	// Network
	DataPort          *int    `json:"data_port,omitempty" yaml:"data_port,omitempty"`
	DiscoveryPort     *int    `json:"discovery_port,omitempty" yaml:"discovery_port,omitempty"`
	ListenIP          *string `json:"listen_ip,omitempty" yaml:"listen_ip,omitempty"`
	BroadcastIP       *string `json:"broadcast_ip,omitempty" yaml:"broadcast_ip,omitempty"`
	DiscoveryInterval *string `json:"discovery_interval,omitempty" yaml:"discovery_interval,omitempty"`
	ConnectionTimeout *string `json:"connection_timeout,omitempty" yaml:"connection_timeout,omitempty"`

	// Processing
	RotationAxis      *string  `json:"rotation_axis,omitempty" yaml:"rotation_axis,omitempty"`
	AngleMultiplier   *float64 `json:"angle_multiplier,omitempty" yaml:"angle_multiplier,omitempty"`
	AngleOffset       *float64 `json:"angle_offset,omitempty" yaml:"angle_offset,omitempty"`
	EnableSmoothing   *bool    `json:"enable_smoothing,omitempty" yaml:"enable_smoothing,omitempty"`
	SmoothingSpeed    *float64 `json:"smoothing_speed,omitempty" yaml:"smoothing_speed,omitempty"`
	AutoApplyRotation *bool    `json:"auto_apply_rotation,omitempty" yaml:"auto_apply_rotation,omitempty"`

	// Loop
	TickInterval     *string `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"`
	StatsLogInterval *string `json:"stats_log_interval,omitempty" yaml:"stats_log_interval,omitempty"`
}

func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// Load reads a config file from disk. The format follows the extension:
// .json, .yaml or .yml.
func Load(path string) (*File, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS is Load against an arbitrary filesystem.
func LoadFS(fsys fsutil.FileSystem, path string) (*File, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	f := &File{}
	if ext == ".json" {
		err = json.Unmarshal(data, f)
	} else {
		err = yaml.Unmarshal(data, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext[1:], err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return f, nil
}

// Validate checks the values that cannot be clamped: ports, addresses,
// durations and the axis name. Out-of-range tunables are clamped later by
// receiver.Config.Normalize.
func (f *File) Validate() error {
	if f.DataPort != nil && (*f.DataPort < 0 || *f.DataPort > 65535) {
		return fmt.Errorf("data_port must be between 0 and 65535, got %d", *f.DataPort)
	}
	if f.DiscoveryPort != nil && (*f.DiscoveryPort < 1 || *f.DiscoveryPort > 65535) {
		return fmt.Errorf("discovery_port must be between 1 and 65535, got %d", *f.DiscoveryPort)
	}
	for name, v := range map[string]*string{
		"discovery_interval": f.DiscoveryInterval,
		"connection_timeout": f.ConnectionTimeout,
		"tick_interval":      f.TickInterval,
		"stats_log_interval": f.StatsLogInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}
	for name, v := range map[string]*float64{
		"angle_multiplier": f.AngleMultiplier,
		"angle_offset":     f.AngleOffset,
		"smoothing_speed":  f.SmoothingSpeed,
	} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s must be a finite number, got %v", name, *v)
		}
	}
	if f.RotationAxis != nil {
		if _, err := angle.ParseAxis(*f.RotationAxis); err != nil {
			return err
		}
	}
	return nil
}

// Apply overlays the fields that are set onto base and normalises the
// result.
func (f *File) Apply(base receiver.Config) (receiver.Config, error) {
	if err := f.Validate(); err != nil {
		return base, err
	}
	c := base
	if f.DataPort != nil {
		c.DataPort = *f.DataPort
	}
	if f.DiscoveryPort != nil {
		c.DiscoveryPort = *f.DiscoveryPort
	}
	if f.ListenIP != nil {
		c.ListenIP = *f.ListenIP
	}
	if f.BroadcastIP != nil {
		c.BroadcastIP = *f.BroadcastIP
	}
	setDuration(&c.DiscoveryInterval, f.DiscoveryInterval)
	setDuration(&c.ConnectionTimeout, f.ConnectionTimeout)
	setDuration(&c.TickInterval, f.TickInterval)
	setDuration(&c.StatsLogInterval, f.StatsLogInterval)
	if f.RotationAxis != nil {
		c.RotationAxis, _ = angle.ParseAxis(*f.RotationAxis)
	}
	if f.AngleMultiplier != nil {
		c.AngleMultiplier = *f.AngleMultiplier
	}
	if f.AngleOffset != nil {
		c.AngleOffset = *f.AngleOffset
	}
	if f.EnableSmoothing != nil {
		c.EnableSmoothing = *f.EnableSmoothing
	}
	if f.SmoothingSpeed != nil {
		c.SmoothingSpeed = *f.SmoothingSpeed
	}
	if f.AutoApplyRotation != nil {
		c.AutoApplyRotation = *f.AutoApplyRotation
	}
	return c.Normalize()
}

func setDuration(dst *time.Duration, v *string) {
	if v == nil || *v == "" {
		return
	}
	if d, err := time.ParseDuration(*v); err == nil {
		*dst = d
	}
}

// FromReceiver renders a receiver.Config in the file schema with every
// field set. The HTTP API uses it to report the active configuration.
func FromReceiver(c receiver.Config) *File {
	return &File{
		DataPort:          ptrInt(c.DataPort),
		DiscoveryPort:     ptrInt(c.DiscoveryPort),
		ListenIP:          ptrString(c.ListenIP),
		BroadcastIP:       ptrString(c.BroadcastIP),
		DiscoveryInterval: ptrString(c.DiscoveryInterval.String()),
		ConnectionTimeout: ptrString(c.ConnectionTimeout.String()),
		RotationAxis:      ptrString(c.RotationAxis.String()),
		AngleMultiplier:   ptrFloat64(c.AngleMultiplier),
		AngleOffset:       ptrFloat64(c.AngleOffset),
		EnableSmoothing:   ptrBool(c.EnableSmoothing),
		SmoothingSpeed:    ptrFloat64(c.SmoothingSpeed),
		AutoApplyRotation: ptrBool(c.AutoApplyRotation),
		TickInterval:      ptrString(c.TickInterval.String()),
		StatsLogInterval:  ptrString(c.StatsLogInterval.String()),
	}
}

// LoadReceiverConfig loads path and applies it to receiver.DefaultConfig.
// An empty path yields the defaults.
func LoadReceiverConfig(path string) (receiver.Config, error) {
	if path == "" {
		return receiver.DefaultConfig(), nil
	}
	f, err := Load(path)
	if err != nil {
		return receiver.Config{}, err
	}
	return f.Apply(receiver.DefaultConfig())
}
