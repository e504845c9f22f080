package checkin

import (
	"math/rand"
	"strings"
)

// welcomeMessages is the pool of success templates; {name} is replaced
// with the attendee's first name.
var welcomeMessages = []string{
	"Welcome, {name}! Great seeing you!",
	"Hello {name}! You're checked in!",
	"Hey {name}! Thanks for joining!",
	"Glad you're here, {name}!",
	"Welcome aboard, {name}!",
	"Nice one, {name}! All set.",
	"Cheers, {name}! Welcome!",
	"Gotcha, {name}! You're in!",
	"{name} has successfully checked in!",
	"Check-in complete for {name}!",
}

func welcomeFor(name string) string {
	tmpl := welcomeMessages[rand.Intn(len(welcomeMessages))]
	return strings.ReplaceAll(tmpl, "{name}", name)
}
