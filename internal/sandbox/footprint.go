package sandbox

import "hopm/internal/paths"

// DevNull is the null device granted to a detaching process.
const DevNull = "/dev/null"

// Grant labels used by the bootstrap sequence.
const (
	LabelRoot    = "root"
	LabelDevNull = "devnull"
	LabelLog     = "log"
	LabelConfig  = "config"
	LabelScanLog = "scanlog"
	LabelPidFile = "pidfile"
	LabelBinary  = "binary"
)

// Footprint lists, in bootstrap order, every grant the daemon makes for set.
// The null device and log file are skipped in debug mode; the scan log only
// when configured. A detaching parent additionally grants the binary right
// after the null device, then exits; that grant is not part of the footprint.
func Footprint(set paths.PathSet, debug bool) []Grant {
	grants := []Grant{{Label: LabelRoot, Path: set.Prefix, Rights: RightsRead}}
	if !debug {
		grants = append(grants,
			Grant{Label: LabelDevNull, Path: DevNull, Rights: RightsReadWrite},
			Grant{Label: LabelLog, Path: set.LogFile, Rights: RightsWriteCreate},
		)
	}
	grants = append(grants, Grant{Label: LabelConfig, Path: set.ConfigFile, Rights: RightsRead})
	if set.HasScanLog() {
		grants = append(grants, Grant{Label: LabelScanLog, Path: set.ScanLogFile, Rights: RightsWriteCreate})
	}
	return append(grants,
		Grant{Label: LabelPidFile, Path: set.PidFile, Rights: RightsWriteCreate},
		Grant{Label: LabelBinary, Path: set.RestartBinary, Rights: RightsExecute},
	)
}
