package identity

// Room name helpers. Rooms follow the convention <kind>:<id>; presence rooms
// use the role class as the kind so one identity can be targeted across all
// of its connections.

// ChatRoom returns the room name for a chat.
func ChatRoom(chatID string) string { return "chat:" + chatID }

// VisitorRoom returns the room name for a visitor.
func VisitorRoom(visitorID string) string { return "visitor:" + visitorID }

// TenantRoom returns the room name for a tenant.
func TenantRoom(tenantID string) string { return "tenant:" + tenantID }

// PresenceRoom returns the presence room name for an identity id and class.
func PresenceRoom(class RoleClass, id string) string { return string(class) + ":" + id }
