package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates the type of prompt (command or filter).
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

// Prompt is a command/filter input bar.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	onSubmit func(mode PromptMode, text string)
	onChange func(mode PromptMode, text string)
	onCancel func()
	muted    bool
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := p.GetText()
			p.reset()
			if text == "" {
				if p.onCancel != nil {
					p.onCancel()
				}
				return
			}
			if p.onSubmit != nil {
				p.onSubmit(p.mode, text)
			}
		case tcell.KeyEscape:
			p.reset()
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})

	input.SetChangedFunc(func(text string) {
		if p.onChange != nil && !p.muted {
			p.onChange(p.mode, text)
		}
	})

	return p
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnChange sets the callback run on every edit, so filters apply as the
// user types.
func (p *Prompt) SetOnChange(fn func(mode PromptMode, text string)) {
	p.onChange = fn
}

// SetOnCancel sets the callback when the prompt is cancelled.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate shows the prompt in the specified mode with an empty line.
func (p *Prompt) Activate(mode PromptMode) {
	p.ActivateWith(mode, "")
}

// ActivateWith shows the prompt in mode with text already typed.
func (p *Prompt) ActivateWith(mode PromptMode, text string) {
	p.mode = mode
	p.muted = true
	p.SetText(text)
	p.muted = false
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Filter ")
	}
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}

// reset empties the line without firing the change callback.
func (p *Prompt) reset() {
	p.muted = true
	p.SetText("")
	p.muted = false
}
