package auth

import (
	"crypto/subtle"
	"fmt"
	"regexp"

	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/apperr"
)

// SignupPolicy decides which role a registration may claim.
// Elevated roles require a configuration-supplied verification code; there
// is no bypass credential of any kind.
type SignupPolicy struct {
	facultyCode  string
	adminCode    string
	studentEmail *regexp.Regexp // nil disables the format check
}

// NewSignupPolicy creates a signup policy. An invalid studentEmailPattern is
// reported as an error so misconfiguration fails at startup, not at signup.
func NewSignupPolicy(facultyCode, adminCode, studentEmailPattern string) (*SignupPolicy, error) {
	p := &SignupPolicy{facultyCode: facultyCode, adminCode: adminCode}
	if studentEmailPattern != "" {
		re, err := regexp.Compile(studentEmailPattern)
		if err != nil {
			return nil, fmt.Errorf("student email pattern: %w", err)
		}
		p.studentEmail = re
	}
	return p, nil
}

// Resolve validates the requested role against email format and verification
// code and returns the role to assign. Empty role defaults to Student.
func (p *SignupPolicy) Resolve(requested, email, verificationCode string) (models.Role, error) {
	role := models.RoleStudent
	if requested != "" {
		role = models.Role(requested)
		if !role.Valid() {
			return "", apperr.Invalid("invalid role")
		}
	}

	isStudentFormat := p.studentEmail != nil && p.studentEmail.MatchString(email)

	switch role {
	case models.RoleStudent:
		if p.studentEmail != nil && !isStudentFormat {
			return "", apperr.Invalid("invalid student email format")
		}
	case models.RoleFaculty, models.RoleAdmin:
		if isStudentFormat {
			return "", apperr.Invalid("faculty/admin cannot register with a student email")
		}
		want := p.facultyCode
		if role == models.RoleAdmin {
			want = p.adminCode
		}
		if want == "" {
			return "", apperr.Forbidden("registration for this role is disabled")
		}
		if verificationCode == "" {
			return "", apperr.Forbidden("verification code required")
		}
		if subtle.ConstantTimeCompare([]byte(verificationCode), []byte(want)) != 1 {
			return "", apperr.Forbidden("invalid verification code")
		}
	}
	return role, nil
}
