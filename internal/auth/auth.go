package auth

// Authorizer answers administrator identity checks. Regular users need no
// allow-list; anyone may use the bot.
type Authorizer struct {
	adminIDs map[int64]bool
	admins   []int64
}

func NewAuthorizer(admins []int64) *Authorizer {
	adminMap := make(map[int64]bool, len(admins))
	ordered := make([]int64, 0, len(admins))
	for _, id := range admins {
		if adminMap[id] {
			continue
		}
		adminMap[id] = true
		ordered = append(ordered, id)
	}
	return &Authorizer{adminIDs: adminMap, admins: ordered}
}

func (a *Authorizer) IsAdmin(userID int64) bool {
	return a.adminIDs[userID]
}

// Admins returns the administrator ids in configuration order.
func (a *Authorizer) Admins() []int64 {
	out := make([]int64, len(a.admins))
	copy(out, a.admins)
	return out
}
