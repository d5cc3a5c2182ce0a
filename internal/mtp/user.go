package mtp

import (
	"strconv"
	"strings"

	"github.com/gotd/td/tg"
)

// User adapts *tg.User to the Entity interface: unlike chats and channels,
// users carry no title of their own, so one is built from the profile name.
type User struct {
	*tg.User
}

func (u User) GetTitle() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if username, ok := u.GetUsername(); ok {
		return username
	}
	return "id:" + strconv.FormatInt(u.ID, 10)
}
