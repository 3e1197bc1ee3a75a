package auth

import (
	"testing"

	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/apperr"
)

func TestResolveDefaultsToStudent(t *testing.T) {
	p, err := NewSignupPolicy("", "", "")
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	role, err := p.Resolve("", "anyone@example.com", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if role != models.RoleStudent {
		t.Errorf("expected Student, got %s", role)
	}
}

func TestResolveStudentEmailPattern(t *testing.T) {
	p, err := NewSignupPolicy("fc-1", "ac-1", `^[a-z0-9.]+@student\.campus\.edu$`)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}

	if _, err := p.Resolve("Student", "jane.doe@student.campus.edu", ""); err != nil {
		t.Errorf("matching student email rejected: %v", err)
	}
	if _, err := p.Resolve("Student", "jane@gmail.com", ""); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("non-matching student email: expected Invalid, got %v", err)
	}
	// Elevated roles must not use a student-format address.
	if _, err := p.Resolve("Faculty", "jane.doe@student.campus.edu", "fc-1"); apperr.KindOf(err) != apperr.KindInvalid {
		t.Errorf("faculty with student email: expected Invalid, got %v", err)
	}
}

func TestResolveVerificationCodes(t *testing.T) {
	p, err := NewSignupPolicy("faculty-code", "admin-code", "")
	if err != nil {
		t.Fatalf("policy: %v", err)
	}

	cases := []struct {
		name     string
		role     string
		code     string
		wantRole models.Role
		wantKind apperr.Kind
	}{
		{"faculty correct code", "Faculty", "faculty-code", models.RoleFaculty, apperr.KindUnknown},
		{"admin correct code", "Admin", "admin-code", models.RoleAdmin, apperr.KindUnknown},
		{"faculty wrong code", "Faculty", "nope", "", apperr.KindForbidden},
		{"admin wrong code", "Admin", "faculty-code", "", apperr.KindForbidden},
		{"faculty missing code", "Faculty", "", "", apperr.KindForbidden},
		{"bogus role", "Superuser", "admin-code", "", apperr.KindInvalid},
	}
	for _, tc := range cases {
		role, err := p.Resolve(tc.role, "prof@campus.edu", tc.code)
		if tc.wantKind == apperr.KindUnknown {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
				continue
			}
			if role != tc.wantRole {
				t.Errorf("%s: expected %s, got %s", tc.name, tc.wantRole, role)
			}
			continue
		}
		if apperr.KindOf(err) != tc.wantKind {
			t.Errorf("%s: expected kind %v, got %v", tc.name, tc.wantKind, err)
		}
	}
}

func TestResolveDisabledRoles(t *testing.T) {
	// No codes configured: elevated signup is off entirely.
	p, err := NewSignupPolicy("", "", "")
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if _, err := p.Resolve("Faculty", "prof@campus.edu", "anything"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("faculty with no configured code: expected Forbidden, got %v", err)
	}
	if _, err := p.Resolve("Admin", "root@campus.edu", ""); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("admin with no configured code: expected Forbidden, got %v", err)
	}
}

func TestInvalidPatternFailsAtStartup(t *testing.T) {
	if _, err := NewSignupPolicy("", "", "["); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
