package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"posture-service/internal/models"
	"posture-service/internal/source"
	"posture-service/internal/util"
)

// deviceGroupDelimiter separates device names and IP entries within one
// feed row; a row describes a group of devices sharing one
// vulnerability profile.
const deviceGroupDelimiter = ";"

// SyncDevices mirrors the device feed. Unlike the other reconcilers it
// deletes: the upstream feed is already a complete current-state
// snapshot, so the persisted set is made exactly equal to it.
func (s *SyncService) SyncDevices(ctx context.Context) models.SyncResult {
	started := time.Now()

	records, err := s.fetcher.Fetch(ctx, models.SourceDevice)
	if err != nil {
		return s.finish(ctx, models.SourceDevice, 0, started, err)
	}

	now := time.Now().UTC()

	// Fan out grouped rows and dedupe on the natural key; a later row
	// for the same (name, ip) wins.
	byKey := make(map[string]models.DeviceRecord)
	order := make([]string, 0, len(records))
	for _, rec := range records {
		names := strings.Split(rec.Str(source.HdrDeviceNames), deviceGroupDelimiter)
		ipEntries := strings.Split(rec.Str(source.HdrDeviceIPs), deviceGroupDelimiter)

		for i, rawName := range names {
			name := strings.TrimSpace(rawName)
			if name == "" {
				continue
			}

			var ip *string
			if i < len(ipEntries) {
				if extracted, ok := extractWrappedIP(ipEntries[i]); ok {
					ip = &extracted
				}
			}

			device := models.DeviceRecord{
				Name:            name,
				IP:              ip,
				Model:           rec.NullableStr(source.HdrDeviceModel),
				FirmwareSeries:  rec.NullableStr(source.HdrFirmwareSeries),
				FirmwareVersion: rec.NullableStr(source.HdrFirmwareVersion),
				UpdatePriority:  rec.StrOr(source.HdrUpdatePriority, models.PriorityMonitor),
				TotalCVEs:       rec.Int(source.HdrTotalCVEs),
				ActiveExploits:  rec.Int(source.HdrActiveExploits),
				CriticalCVEs:    rec.Int(source.HdrCriticalCVEs),
				MaxCVSS:         rec.Float(source.HdrMaxCVSS),
				Remediation:     rec.NullableStr(source.HdrRemediation),
				SyncedAt:        now,
			}

			key := device.Key()
			if _, seen := byKey[key]; !seen {
				order = append(order, key)
			}
			byKey[key] = device
		}
	}

	devices := make([]models.DeviceRecord, 0, len(byKey))
	for _, key := range order {
		devices = append(devices, byKey[key])
	}

	created, updated, deleted, err := s.devices.ReplaceAll(ctx, devices)
	if err != nil {
		return s.finish(ctx, models.SourceDevice, 0, started, err)
	}

	util.Info("Device mirror reconciled",
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("deleted", deleted))

	return s.finish(ctx, models.SourceDevice, created+updated, started, nil)
}

// extractWrappedIP pulls the IP out of a "name(ip)" feed entry.
func extractWrappedIP(entry string) (string, bool) {
	open := strings.Index(entry, "(")
	closing := strings.Index(entry, ")")
	if open < 0 || closing <= open {
		return "", false
	}
	ip := strings.TrimSpace(entry[open+1 : closing])
	if ip == "" {
		return "", false
	}
	return ip, true
}
