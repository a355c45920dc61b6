package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"plotbot/internal/plotter/models"
	preview "plotbot/internal/preview/models"
)

// ============================================================
// Device Configuration File
// ============================================================

const DefaultListen = "127.0.0.1:8080"

// rawDevice повторяет config.json; все ключи необязательны.
type rawDevice struct {
	Listen          *string             `json:"listen"`
	Device          *string             `json:"device"`
	SVGDir          *string             `json:"svg_dir"`
	IntervalSeconds *uint64             `json:"interval_seconds"`
	TimeLimits      *preview.TimeLimits `json:"time_limits"`
}

// Device содержит разобранную конфигурацию устройства. Active == false, если нет
// device, svg_dir или interval_seconds: тогда доступен только предпросмотр.
type Device struct {
	Listen          string
	Device          string
	SVGDir          string
	IntervalSeconds uint64
	TimeLimits      *models.TimeLimits
	Active          bool
}

// LoadDevice читает файл конфигурации устройства
func LoadDevice(path string) (*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseDevice(data)
}

func ParseDevice(data []byte) (*Device, error) {
	var raw rawDevice
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	d := &Device{Listen: DefaultListen, Active: true}
	if raw.Listen != nil {
		d.Listen = *raw.Listen
	}
	if raw.TimeLimits != nil {
		limits, err := models.ParseTimeLimits(raw.TimeLimits.StartTime, raw.TimeLimits.EndTime)
		if err != nil {
			return nil, fmt.Errorf("time_limits: %w", err)
		}
		d.TimeLimits = &limits
	}

	if raw.Device != nil {
		d.Device = *raw.Device
	} else {
		log.Printf("[CONFIG] config is missing the device key")
		d.Active = false
	}
	if raw.SVGDir != nil {
		d.SVGDir = *raw.SVGDir
	} else {
		log.Printf("[CONFIG] config is missing the svg_dir key")
		d.Active = false
	}
	if raw.IntervalSeconds != nil {
		d.IntervalSeconds = *raw.IntervalSeconds
	} else {
		log.Printf("[CONFIG] config is missing the interval_seconds key")
		d.Active = false
	}
	return d, nil
}

func (d *Device) Interval() time.Duration {
	return time.Duration(d.IntervalSeconds) * time.Second
}

// Wire возвращает ответ для /config/
func (d *Device) Wire() preview.DeviceConfig {
	cfg := preview.DeviceConfig{
		Listen:          d.Listen,
		Device:          d.Device,
		SVGDir:          d.SVGDir,
		IntervalSeconds: d.IntervalSeconds,
	}
	if d.TimeLimits != nil {
		cfg.TimeLimits = d.TimeLimits.Wire()
	}
	return cfg
}
