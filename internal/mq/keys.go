package mq

// UserKey is the routing key for events addressed to one user.
func UserKey(userID string) string {
	return "chat.user." + userID
}
