package domain

// Role is a coarse application role carried in the access token
type Role string

const (
	RoleBidder Role = "bidder"
	// RoleBureau covers bureau and post (AO) staff who manage handshakes, panels and rankings
	RoleBureau Role = "bureau_user"
	RoleCDO    Role = "cdo"
	// RoleSuperUser bypasses scope checks; used by system integrations
	RoleSuperUser Role = "superuser"
)

// IsValid checks if the Role is a valid enum value
func (r Role) IsValid() bool {
	switch r {
	case RoleBidder, RoleBureau, RoleCDO, RoleSuperUser:
		return true
	}
	return false
}
