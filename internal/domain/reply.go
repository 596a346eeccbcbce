package domain

type Markup int

const (
	MarkupNone Markup = iota
	// MarkupWebApp attaches an inline button that launches the web app.
	MarkupWebApp
	// MarkupRequestContact attaches a one-time reply keyboard asking for the phone number.
	MarkupRequestContact
	MarkupRemoveKeyboard
)

// Reply is one outbound message to the user who triggered an event.
type Reply struct {
	Text   string
	Markup Markup
}
