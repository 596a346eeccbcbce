package telegram

// The v5 client has no web_app button type yet, so the inline keyboard is
// encoded here. ReplyMarkup is marshalled to JSON as-is by the client.

type webAppInfo struct {
	URL string `json:"url"`
}

type webAppButton struct {
	Text   string     `json:"text"`
	WebApp webAppInfo `json:"web_app"`
}

type webAppKeyboard struct {
	InlineKeyboard [][]webAppButton `json:"inline_keyboard"`
}

func newWebAppKeyboard(text, url string) webAppKeyboard {
	return webAppKeyboard{InlineKeyboard: [][]webAppButton{{{Text: text, WebApp: webAppInfo{URL: url}}}}}
}
