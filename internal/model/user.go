package model

// SharedUser is a person a task can be shared with. Users come from a fixed directory.
type SharedUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Email  string `json:"email"`
}

// CurrentUser stands in for the signed-in user; there is no authentication.
var CurrentUser = SharedUser{
	ID:     "current-user",
	Name:   "You",
	Avatar: "https://picsum.photos/seed/currentuser/100/100",
	Email:  "you@mentalist.app",
}

// KnownUsers is the directory of people tasks can be shared with.
func KnownUsers() []SharedUser {
	return []SharedUser{
		{ID: "u1", Name: "Alex River", Avatar: "https://picsum.photos/seed/alex/100/100", Email: "alex@example.com"},
		{ID: "u2", Name: "Sarah Sun", Avatar: "https://picsum.photos/seed/sarah/100/100", Email: "sarah@example.com"},
		{ID: "u3", Name: "Leo Night", Avatar: "https://picsum.photos/seed/leo/100/100", Email: "leo@example.com"},
	}
}

// FindUser looks a user up in the directory by id.
func FindUser(id string) (SharedUser, bool) {
	for _, u := range KnownUsers() {
		if u.ID == id {
			return u, true
		}
	}
	return SharedUser{}, false
}
