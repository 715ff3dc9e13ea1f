package models

import "time"

// Update-priority tiers for network devices, most urgent first
const (
	PriorityImmediate = "P0-Immediate"
	PriorityNextCycle = "P1-NextCycle"
	PriorityMonitor   = "P3-Monitor"
)

// DeviceRecord is one network device from the vulnerability tracker.
// Natural key: (Name, IP); IP may be absent. The device table is a full
// mirror of the latest feed, so sync deletes rows whose key disappears.
type DeviceRecord struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	IP              *string   `db:"ip" json:"ip,omitempty"`
	Model           *string   `db:"model" json:"model,omitempty"`
	FirmwareSeries  *string   `db:"firmware_series" json:"firmware_series,omitempty"`
	FirmwareVersion *string   `db:"firmware_version" json:"firmware_version,omitempty"`
	UpdatePriority  string    `db:"update_priority" json:"update_priority"`
	TotalCVEs       int       `db:"total_cves" json:"total_cves"`
	ActiveExploits  int       `db:"active_exploits" json:"active_exploits"`
	CriticalCVEs    int       `db:"critical_cves" json:"critical_cves"`
	MaxCVSS         float64   `db:"max_cvss" json:"max_cvss"`
	Remediation     *string   `db:"remediation" json:"remediation,omitempty"`
	SyncedAt        time.Time `db:"synced_at" json:"synced_at"`
}

// Key returns the natural key used for mirror reconciliation.
func (d DeviceRecord) Key() string {
	ip := ""
	if d.IP != nil {
		ip = *d.IP
	}
	return d.Name + "|" + ip
}
