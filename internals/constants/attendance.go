package constants

// Attendance bands used by the dashboards. A record is in a band when its
// percentage is strictly below the bound.
const (
	LowAttendanceBelow      = 75.0
	CriticalAttendanceBelow = 65.0
)
