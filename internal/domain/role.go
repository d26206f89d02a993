package domain

// Role is the persisted role of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	// RoleResident is stored as "warga", the term used by the community.
	RoleResident Role = "warga"
)

// ParseRole accepts the persisted values plus "resident" as an alias of warga.
func ParseRole(s string) (Role, bool) {
	switch s {
	case string(RoleAdmin):
		return RoleAdmin, true
	case string(RoleResident), "resident":
		return RoleResident, true
	}
	return "", false
}

// Capability names a permission checked by services and middleware.
type Capability string

const (
	CapPayBills            Capability = "bills:pay"
	CapRaiseSOS            Capability = "sos:raise"
	CapPostForum           Capability = "forum:post"
	CapVote                Capability = "polls:vote"
	CapSubmitReport        Capability = "reports:submit"
	CapBookFacility        Capability = "facilities:book"
	CapSubmitSuggestion    Capability = "suggestions:submit"
	CapRequestLetter       Capability = "letters:request"
	CapAdminPortal         Capability = "admin:portal"
	CapManageBills         Capability = "bills:manage"
	CapManageUsers         Capability = "users:manage"
	CapManageAnnouncements Capability = "announcements:manage"
	CapManagePolls         Capability = "polls:manage"
	CapManageForum         Capability = "forum:manage"
	CapManageReports       Capability = "reports:manage"
	CapManageFacilities    Capability = "facilities:manage"
	CapManageBookings      Capability = "bookings:manage"
	CapManageLetters       Capability = "letters:manage"
	CapViewSOS             Capability = "sos:view"
	CapReadSuggestions     Capability = "suggestions:read"
)

var residentCapabilities = []Capability{
	CapPayBills,
	CapRaiseSOS,
	CapPostForum,
	CapVote,
	CapSubmitReport,
	CapBookFacility,
	CapSubmitSuggestion,
	CapRequestLetter,
}

var adminCapabilities = []Capability{
	CapAdminPortal,
	CapManageBills,
	CapManageUsers,
	CapManageAnnouncements,
	CapManagePolls,
	CapManageForum,
	CapManageReports,
	CapManageFacilities,
	CapManageBookings,
	CapManageLetters,
	CapViewSOS,
	CapReadSuggestions,
}

// capabilityTable maps each role to its granted capabilities; admin is a superset of warga.
var capabilityTable = buildCapabilityTable()

func buildCapabilityTable() map[Role]map[Capability]bool {
	resident := make(map[Capability]bool, len(residentCapabilities))
	admin := make(map[Capability]bool, len(residentCapabilities)+len(adminCapabilities))
	for _, c := range residentCapabilities {
		resident[c] = true
		admin[c] = true
	}
	for _, c := range adminCapabilities {
		admin[c] = true
	}
	return map[Role]map[Capability]bool{
		RoleResident: resident,
		RoleAdmin:    admin,
	}
}

// Can reports whether the role grants the capability. Unknown roles grant nothing.
func (r Role) Can(c Capability) bool {
	return capabilityTable[r][c]
}
