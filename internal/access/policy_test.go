package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"upasthiti/internal/identity"
)

func views(items []NavItem) []View {
	out := make([]View, 0, len(items))
	for _, it := range items {
		out = append(out, it.View)
	}
	return out
}

func TestVisibleNavigation_Student(t *testing.T) {
	t.Parallel()

	nav := VisibleNavigation(identity.RoleStudent)
	assert.Equal(t, []View{ViewDashboard, ViewScanQR, ViewAnalytics}, views(nav))
	assert.Equal(t, "My Dashboard", nav[0].Label)
	for _, forbidden := range []View{ViewGenerateQR, ViewAttendance, ViewWiFiTracking, ViewFraudDetection} {
		assert.NotContains(t, views(nav), forbidden)
		assert.False(t, IsViewAllowed(identity.RoleStudent, forbidden))
	}
}

func TestVisibleNavigation_Faculty(t *testing.T) {
	t.Parallel()

	nav := views(VisibleNavigation(identity.RoleFaculty))
	assert.Len(t, nav, 7)
	assert.NotContains(t, nav, ViewScanQR)
	assert.False(t, IsViewAllowed(identity.RoleFaculty, ViewScanQR))
	assert.True(t, IsViewAllowed(identity.RoleFaculty, ViewGenerateQR))
}

func TestVisibleNavigation_Admin(t *testing.T) {
	t.Parallel()

	nav := VisibleNavigation(identity.RoleAdmin)
	assert.NotContains(t, views(nav), ViewGenerateQR)
	assert.NotContains(t, views(nav), ViewScanQR)
	assert.Contains(t, views(nav), ViewFraudDetection)
	assert.Contains(t, views(nav), ViewSettings)
	assert.Equal(t, "Admin Dashboard", nav[0].Label)
}

func TestVisibleNavigation_ReturnsCopy(t *testing.T) {
	t.Parallel()

	nav := VisibleNavigation(identity.RoleStudent)
	nav[0].Label = "changed"
	assert.Equal(t, "My Dashboard", VisibleNavigation(identity.RoleStudent)[0].Label)
}

func TestPolicy_UnknownRoleGetsNothing(t *testing.T) {
	t.Parallel()

	assert.Empty(t, VisibleNavigation("guest"))
	assert.False(t, IsViewAllowed("guest", ViewDashboard))
	assert.False(t, IsViewAllowed(identity.RoleFaculty, View("nope")))
}

func TestShowsSubjectSelector(t *testing.T) {
	t.Parallel()

	assert.True(t, ShowsSubjectSelector(identity.RoleStudent))
	assert.True(t, ShowsSubjectSelector(identity.RoleFaculty))
	assert.False(t, ShowsSubjectSelector(identity.RoleAdmin))
}
