package domain

import "strings"

// Role is a single capability a principal may hold.
type Role uint8

const (
	RoleStudent Role = 1 << iota
	RoleTeacher
	RoleAdmin
)

// RoleSet is a set of role capabilities.
type RoleSet uint8

// NewRoleSet builds a set from individual roles.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= RoleSet(r)
	}
	return s
}

// ParseRoles accepts names such as "student", "ROLE_TEACHER" or "Admin". Unknown names are ignored.
func ParseRoles(names []string) RoleSet {
	var s RoleSet
	for _, n := range names {
		switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(n)), "ROLE_") {
		case "STUDENT":
			s |= RoleSet(RoleStudent)
		case "TEACHER":
			s |= RoleSet(RoleTeacher)
		case "ADMIN":
			s |= RoleSet(RoleAdmin)
		}
	}
	return s
}

func (s RoleSet) Has(r Role) bool { return s&RoleSet(r) != 0 }

// Any reports whether s holds at least one of roles.
func (s RoleSet) Any(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Names lists the roles in s in a stable order.
func (s RoleSet) Names() []string {
	out := make([]string, 0, 3)
	if s.Has(RoleStudent) {
		out = append(out, "STUDENT")
	}
	if s.Has(RoleTeacher) {
		out = append(out, "TEACHER")
	}
	if s.Has(RoleAdmin) {
		out = append(out, "ADMIN")
	}
	return out
}

// Principal is the authenticated actor making a request.
type Principal interface {
	ID() int64
	Username() string
	DisplayName() (string, bool)
	Email() (string, bool)
	Roles() RoleSet
}

// User is the concrete principal built from token claims.
type User struct {
	UserID    int64
	Login     string
	FirstName string
	LastName  string
	Mail      string
	RoleSet   RoleSet
}

func (u User) ID() int64        { return u.UserID }
func (u User) Username() string { return u.Login }
func (u User) Roles() RoleSet   { return u.RoleSet }

// DisplayName joins first and last name when at least one is present.
func (u User) DisplayName() (string, bool) {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return name, name != ""
}

func (u User) Email() (string, bool) {
	return u.Mail, u.Mail != ""
}

// ProfileOf snapshots the identity fields of p.
func ProfileOf(p Principal) StudentProfile {
	profile := StudentProfile{Username: p.Username()}
	if name, ok := p.DisplayName(); ok {
		profile.DisplayName = name
	}
	if email, ok := p.Email(); ok {
		profile.Email = email
	}
	return profile
}

// IsAdmin reports whether p holds the admin capability.
func IsAdmin(p Principal) bool {
	return p != nil && p.Roles().Has(RoleAdmin)
}

// IsQuizOwner reports whether p created or teaches q.
func IsQuizOwner(q Quiz, p Principal) bool {
	if p == nil {
		return false
	}
	id := p.ID()
	return (q.CreatorID != 0 && q.CreatorID == id) || (q.TeacherID != 0 && q.TeacherID == id)
}

// IsOwnerOrAdmin is the ownership test used by authoring and quiz-level result listing.
func IsOwnerOrAdmin(q Quiz, p Principal) bool {
	return IsQuizOwner(q, p) || IsAdmin(p)
}

// CanTakeQuizzes reports whether p may start and submit attempts.
func CanTakeQuizzes(p Principal) bool {
	return p != nil && p.Roles().Any(RoleStudent, RoleAdmin)
}

// CanReviewQuizzes reports whether p may author quizzes and list their results.
func CanReviewQuizzes(p Principal) bool {
	return p != nil && p.Roles().Any(RoleTeacher, RoleAdmin)
}
