package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatr/internal/tui/ui"
)

// LoginView asks for a username or email and a password.
type LoginView struct {
	*tview.Flex
	theme    *ui.Theme
	form     *tview.Form
	message  *tview.TextView
	busy     bool
	onSubmit func(user, password string)
}

// NewLoginView creates the login form for backend.
func NewLoginView(theme *ui.Theme, backend string) *LoginView {
	form := tview.NewForm().
		AddInputField("Username or email", "", 40, nil, nil).
		AddPasswordField("Password", "", 40, '*', nil)
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.TableCursorBg)
	form.SetButtonTextColor(theme.TableCursorFg)
	form.SetTitle(fmt.Sprintf(" Log in to %s ", tview.Escape(backend)))
	form.SetTitleColor(theme.TitleColor)

	message := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	message.SetBackgroundColor(theme.BgColor)
	message.SetTextColor(theme.FgColor)

	inner := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(form, 9, 0, true).
		AddItem(message, 2, 0, false).
		AddItem(nil, 0, 1, false)
	flex := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(inner, 64, 0, true).
		AddItem(nil, 0, 1, false)

	lv := &LoginView{
		Flex:    flex,
		theme:   theme,
		form:    form,
		message: message,
	}
	form.AddButton("Log in", lv.submit)
	return lv
}

// Name implements Component.
func (lv *LoginView) Name() string { return "Login" }

// FocusTarget implements Component.
func (lv *LoginView) FocusTarget() tview.Primitive { return lv.FocusForm() }

// Hints implements Component.
func (lv *LoginView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Log in"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// SetOnSubmit sets the callback run when the user presses Log in.
func (lv *LoginView) SetOnSubmit(fn func(user, password string)) {
	lv.onSubmit = fn
}

func (lv *LoginView) submit() {
	if lv.busy || lv.onSubmit == nil {
		return
	}
	user := lv.form.GetFormItem(0).(*tview.InputField).GetText()
	password := lv.form.GetFormItem(1).(*tview.InputField).GetText()
	lv.busy = true
	lv.ShowMessage("Logging in…")
	lv.onSubmit(user, password)
}

// Done re-enables the form after a login attempt. A non-empty msg is shown
// as the failure reason; the password is cleared either way.
func (lv *LoginView) Done(msg string) {
	lv.busy = false
	lv.form.GetFormItem(1).(*tview.InputField).SetText("")
	if msg == "" {
		lv.ShowMessage("")
		return
	}
	lv.ShowMessage(fmt.Sprintf("[%s]%s[-]", ui.ColorTag(lv.theme.FlashErrColor), tview.Escape(msg)))
}

// ShowMessage displays a status line under the form.
func (lv *LoginView) ShowMessage(msg string) {
	lv.message.Clear()
	_, _ = fmt.Fprint(lv.message, msg)
}

// FocusForm moves the form cursor to the first field and returns the form.
func (lv *LoginView) FocusForm() tview.Primitive {
	lv.form.SetFocus(0)
	return lv.form
}
