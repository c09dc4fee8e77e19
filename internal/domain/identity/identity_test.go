package identity

import "testing"

func TestIdentity_HasAnyRole(t *testing.T) {
	id := &Identity{ID: "u1", Roles: []string{"commercial", "supervisor"}}
	if !id.HasAnyRole("admin", "commercial") {
		t.Fatalf("expected OR match on commercial")
	}
	if id.HasAnyRole("admin") {
		t.Fatalf("did not expect admin")
	}
	var nilID *Identity
	if nilID.HasAnyRole("admin") {
		t.Fatalf("nil identity must not match any role")
	}
}

func TestIdentity_Class(t *testing.T) {
	staff := &Identity{ID: "u1", Roles: []string{RoleCommercial}}
	if staff.Class() != ClassCommercial {
		t.Fatalf("expected commercial class, got %s", staff.Class())
	}
	anon := &Identity{ID: "v1", Roles: []string{RoleVisitor}}
	if anon.Class() != ClassVisitor {
		t.Fatalf("expected visitor class, got %s", anon.Class())
	}
}

func TestRoomNames(t *testing.T) {
	if got := ChatRoom("c1"); got != "chat:c1" {
		t.Fatalf("unexpected chat room: %s", got)
	}
	if got := PresenceRoom(ClassCommercial, "u1"); got != "commercial:u1" {
		t.Fatalf("unexpected presence room: %s", got)
	}
	if !ValidRoleClass("visitor") || ValidRoleClass("bot") {
		t.Fatalf("role class validation broken")
	}
}
