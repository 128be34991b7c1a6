package version

import "fmt"

const AppName = "vekimon"

type Version struct {
	MajorNumber int64
	MinorNumber int64
	PatchNumber int64
}

// String gives the dotted form, e.g. 0.3.1
func (m Version) String() string {
	return fmt.Sprintf("%d.%d.%d", m.MajorNumber, m.MinorNumber, m.PatchNumber)
}

// Banner is the name and version shown on the startup splash.
func (m Version) Banner() string {
	return AppName + " v" + m.String()
}

var (
	AppVersion = Version{
		MajorNumber: 1,
		MinorNumber: 0,
		PatchNumber: 0,
	}
)
