package mq

import "testing"

func TestUserKey(t *testing.T) {
	if got := UserKey("42"); got != "chat.user.42" {
		t.Errorf("UserKey = %q", got)
	}
}
