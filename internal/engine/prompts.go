package engine

import (
	"fmt"

	"github.com/m3rciful/mediabot/internal/media"
)

// Callback keys carried by inline buttons.
const (
	KeyLogin   = "Login"
	KeyAudio   = "Audio"
	KeyVideo   = "Video"
	KeyConfirm = "Confirm"
	KeyCancel  = "Cancel"
)

var (
	buttonLogin   = Button{Text: "Login", Key: KeyLogin}
	buttonAudio   = Button{Text: "Audio", Key: KeyAudio}
	buttonVideo   = Button{Text: "Video", Key: KeyVideo}
	buttonConfirm = Button{Text: "Confirm", Key: KeyConfirm}
	buttonCancel  = Button{Text: "Cancel", Key: KeyCancel}
)

type prompt struct {
	text    string
	buttons []Button
}

// menu is the keyboard shown whenever the conversation rests in Initial.
func (e *Engine) menu() []Button {
	buttons := []Button{buttonLogin, buttonAudio}
	if e.opts.EnableVideo {
		buttons = append(buttons, buttonVideo)
	}
	return buttons
}

func (e *Engine) startPrompt() prompt {
	text := "💖 Welcome! Login, then Upload audio files"
	if e.opts.EnableVideo {
		text = "💖 Welcome! Login, then Upload audio or video files"
	}
	return prompt{text: text, buttons: []Button{buttonLogin}}
}

func (e *Engine) loginDonePrompt(u media.User) prompt {
	return prompt{
		text:    fmt.Sprintf("🧘 Authorized as %s (%s), choose next operation", u.Name, u.ID),
		buttons: e.menu(),
	}
}

func (e *Engine) succeededPrompt() prompt {
	return prompt{text: "✅ Operation Succeed, choose next operation", buttons: e.menu()}
}

func (e *Engine) cancelledPrompt() prompt {
	return prompt{text: "❎ Operation Cancelled, choose next operation", buttons: e.menu()}
}

func (e *Engine) failedPrompt() prompt {
	return prompt{text: "❌ Operation Failed, choose next operation", buttons: e.menu()}
}

func confirmPrompt(r media.Record) prompt {
	return prompt{
		text:    "🧾 Confirm? \r\n " + media.Summary(r),
		buttons: []Button{buttonCancel, buttonConfirm},
	}
}

var (
	loginPrompt      = prompt{text: "🧎 Please send me userId", buttons: []Button{buttonCancel}}
	audioPrompt      = prompt{text: "🎧 Send audio file (MP3)", buttons: []Button{buttonCancel}}
	photoPrompt      = prompt{text: "🖼️ Send photo file (JPG)", buttons: []Button{buttonCancel}}
	videoPrompt      = prompt{text: "🎬 Send video file (MP4)", buttons: []Button{buttonCancel}}
	processingPrompt = prompt{text: "🕐 Please wait, file processing...", buttons: []Button{buttonCancel}}
)
