package source

// Column headers are defined by the exporting systems and matched
// exactly; renaming a column upstream is a breaking change.

// Identity feed (training platform export)
const (
	HdrUserID        = "user_id"
	HdrEmail         = "email"
	HdrFirstName     = "first_name"
	HdrLastName      = "last_name"
	HdrDepartment    = "department"
	HdrDivision      = "division"
	HdrLocation      = "location"
	HdrTitle         = "title"
	HdrManagerName   = "manager_name"
	HdrManagerEmail  = "manager_email"
	HdrStatus        = "status"
	HdrRiskScore     = "current_risk_score"
	HdrPhishPronePct = "phish_prone_percentage"
	HdrLastSignIn    = "last_sign_in"
)

// Device feed (network configuration manager export). One row is a
// group of devices sharing a vulnerability profile.
const (
	HdrDeviceNames     = "AllDeviceNames"
	HdrDeviceIPs       = "AllDeviceIPs"
	HdrDeviceModel     = "Model"
	HdrFirmwareSeries  = "FirmwareSeries"
	HdrFirmwareVersion = "FirmwareVersion"
	HdrUpdatePriority  = "UpdatePriority"
	HdrTotalCVEs       = "TotalCVEs"
	HdrActiveExploits  = "ActiveExploits"
	HdrCriticalCVEs    = "CriticalCVEs"
	HdrMaxCVSS         = "MaxCVSS"
	HdrRemediation     = "Remediation"
)

// Alert feed. The EDR console exports with its own localized headers;
// they are matched byte for byte.
const (
	HdrAlertHostname = "端末名"
	HdrAlertTime     = "検知時刻"
	HdrAlertSeverity = "深刻度"
	HdrAlertRule     = "ルール名"
	HdrAlertDomain   = "ドメイン"
	HdrAlertFilePath = "ファイルパス"
	HdrAlertFileHash = "ファイルハッシュ"
	HdrAlertVerdict  = "サンドボックス判定"
)

// Breach feed (credential monitor export)
const (
	HdrBreachEmail      = "email"
	HdrBreachName       = "breach_name"
	HdrBreachDomain     = "domain"
	HdrBreachAlias      = "alias"
	HdrBreachDate       = "breach_date"
	HdrBreachDiscovered = "discovered_at"
)
