package cli

const (
	codeUsage   = "SAFERUN_E_USAGE"
	codeConfig  = "SAFERUN_E_CONFIG"
	codeIO      = "SAFERUN_E_IO"
	codeSpawn   = "SAFERUN_E_SPAWN"
	codeArchive = "SAFERUN_E_ARCHIVE"
)
