// Package access maps roles to the views they may open.
package access

import (
	"upasthiti/internal/identity"
)

// View identifies a screen of the presentation layer.
type View string

const (
	ViewDashboard      View = "dashboard"
	ViewScanQR         View = "scan-qr"
	ViewAnalytics      View = "analytics"
	ViewAttendance     View = "attendance"
	ViewGenerateQR     View = "generate-qr"
	ViewWiFiTracking   View = "wifi-tracking"
	ViewFraudDetection View = "fraud-detection"
	ViewSettings       View = "settings"
)

// NavItem is one menu entry.
type NavItem struct {
	View  View   `json:"view"`
	Label string `json:"label"`
}

var studentNav = []NavItem{
	{ViewDashboard, "My Dashboard"},
	{ViewScanQR, "Scan QR"},
	{ViewAnalytics, "My Analytics"},
}

var facultyNav = []NavItem{
	{ViewDashboard, "Dashboard"},
	{ViewAttendance, "Attendance"},
	{ViewAnalytics, "Analytics"},
	{ViewGenerateQR, "Generate QR"},
	{ViewWiFiTracking, "Wi-Fi Tracking"},
	{ViewFraudDetection, "Fraud Detection"},
	{ViewSettings, "Settings"},
}

// Admins see the staff menu minus views bound to an owned subject list.
var adminNav = []NavItem{
	{ViewDashboard, "Admin Dashboard"},
	{ViewAttendance, "Attendance"},
	{ViewAnalytics, "Analytics"},
	{ViewWiFiTracking, "Wi-Fi Tracking"},
	{ViewFraudDetection, "Fraud Detection"},
	{ViewSettings, "Settings"},
}

func navFor(role identity.Role) []NavItem {
	switch role {
	case identity.RoleStudent:
		return studentNav
	case identity.RoleFaculty:
		return facultyNav
	case identity.RoleAdmin:
		return adminNav
	default:
		return nil
	}
}

// VisibleNavigation returns the ordered menu for role. Unknown roles get none.
func VisibleNavigation(role identity.Role) []NavItem {
	return append([]NavItem(nil), navFor(role)...)
}

// IsViewAllowed reports whether role may open view.
func IsViewAllowed(role identity.Role, view View) bool {
	for _, item := range navFor(role) {
		if item.View == view {
			return true
		}
	}
	return false
}

// ShowsSubjectSelector reports whether the role owns a subject list.
func ShowsSubjectSelector(role identity.Role) bool {
	switch role {
	case identity.RoleStudent, identity.RoleFaculty:
		return true
	default:
		return false
	}
}
