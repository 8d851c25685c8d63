package transport

import "github.com/frahmantamala/electrotrack/internal/core/role"

// Paths of the server-rendered pages that redirects point at.
const (
	ViewLogin             = "/login"
	ViewDashboard         = "/dashboard"
	ViewEmployeeDashboard = "/employee-dashboard"
	ViewUsers             = "/users"
	ViewUserAdd           = "/users/add"
	ViewAttendance        = "/attendance"
	ViewAttendanceManage  = "/attendance/manage"
	ViewWorkReports       = "/work-reports"
	ViewWorkReportAdd     = "/work-reports/add"
	ViewMaterialRequests  = "/material-requests"
	ViewMaterialAdd       = "/material-requests/add"
)

// LandingView is where a user lands after login.
func LandingView(r role.Role) string {
	if r.IsManagement() {
		return ViewDashboard
	}
	return ViewEmployeeDashboard
}
