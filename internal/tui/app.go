package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/bus"
	"github.com/matheus3301/chatr/internal/chat"
	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/groups"
	"github.com/matheus3301/chatr/internal/notify"
	"github.com/matheus3301/chatr/internal/status"
	"github.com/matheus3301/chatr/internal/store"
	"github.com/matheus3301/chatr/internal/tui/keys"
	"github.com/matheus3301/chatr/internal/tui/ui"
	"github.com/matheus3301/chatr/internal/tui/views"
)

const (
	pageLogin         = "login"
	pageConversations = "conversations"
	pageThread        = "thread"
	pageDetails       = "details"
	pageUsers         = "users"
	pageHelp          = "help"
)

// pickMode is what choosing a user on the users page does.
type pickMode int

const (
	pickDirect pickMode = iota
	pickGroup
	pickAdd
)

// App is the main TUI application shell. Every field below is owned by the
// tview event goroutine; background work hands results back through
// QueueUpdateDraw.
type App struct {
	app      *tview.Application
	svc      *chat.Service
	profile  string
	backend  string
	logger   *zap.Logger
	theme    *ui.Theme
	registry *keys.Registry

	root      *tview.Flex
	pages     *ui.Pages
	crumbs    *ui.Crumbs
	menu      *ui.Menu
	info      *ui.SessionInfo
	logo      *ui.Logo
	prompt    *ui.Prompt
	flash     *ui.FlashModel
	flashBar  *ui.FlashBar
	statusBar *views.StatusBar

	login    *views.LoginView
	convList *views.ConversationList
	thread   *views.MessageThread
	details  *views.ConversationInfo
	users    *views.UsersView
	help     *views.HelpView

	components map[string]ui.Component

	sess      *chat.Session
	since     time.Time
	pick      pickMode
	pickChat  string
	groupName string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI for one profile. backend is shown on the login form.
func NewApp(svc *chat.Service, profile, backend string, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		svc:       svc,
		profile:   profile,
		backend:   backend,
		logger:    logger,
		theme:     theme,
		registry:  keys.NewRegistry(),
		pages:     ui.NewPages(),
		crumbs:    ui.NewCrumbs(theme),
		menu:      ui.NewMenu(theme),
		info:      ui.NewSessionInfo(theme),
		logo:      ui.NewLogo(theme),
		prompt:    ui.NewPrompt(theme),
		flash:     ui.NewFlashModel(),
		flashBar:  ui.NewFlashBar(theme),
		statusBar: views.NewStatusBar(theme),
		login:     views.NewLoginView(theme, backend),
		convList:  views.NewConversationList(theme),
		thread:    views.NewMessageThread(theme),
		details:   views.NewConversationInfo(theme),
		users:     views.NewUsersView(theme),
		help:      views.NewHelpView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.components = map[string]ui.Component{
		pageLogin:         a.login,
		pageConversations: a.convList,
		pageThread:        a.thread,
		pageDetails:       a.details,
		pageUsers:         a.users,
		pageHelp:          a.help,
	}

	a.statusBar.SetSession(profile, "")
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?',
		Description: "Help", Visible: true,
		Handler: func() { a.push(pageHelp) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyCtrlR, Description: "Reload", Visible: true,
		Handler: a.reload,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Description: "Quit", Visible: true,
		Handler: a.Stop,
	})

	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyRune, Rune: 'n',
		Description: "New chat", Visible: true,
		Handler: func() { a.openPicker(pickDirect, "") },
	})
	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyRune, Rune: 'g',
		Description: "New group", Visible: true,
		Handler: func() { a.activatePrompt(ui.PromptCommand, "group ") },
	})
	for n := 1; n <= 9; n++ {
		label := ""
		if n == 1 {
			label = "1-9"
		}
		a.registry.AddView(pageConversations, &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n), Label: label,
			Description: "Jump", Visible: n == 1,
			Handler: func() {
				if id := a.convList.ConversationByIndex(n); id != "" {
					a.showThread(id)
				}
			},
		})
	}

	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Description: "Compose", Visible: true,
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Description: "Details", Visible: true,
		Handler: a.showDetails,
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Description: "Reload", Visible: true,
		Handler: func() {
			if a.sess != nil {
				a.sess.Engine.Reload()
			}
		},
	})

	a.registry.AddView(pageDetails, &keys.Action{
		Key: tcell.KeyRune, Rune: 'a',
		Description: "Add member", Visible: true,
		Handler: func() {
			if conv, ok := a.detailsConversation(); ok && conv.IsGroup() {
				a.openPicker(pickAdd, conv.ID)
			}
		},
	})
	a.registry.AddView(pageDetails, &keys.Action{
		Key: tcell.KeyRune, Rune: 'x',
		Description: "Remove member", Visible: true,
		Handler: a.removeMember,
	})

	a.registry.AddView(pageUsers, &keys.Action{
		Key: tcell.KeyCtrlS, Description: "Create group",
		Handler: a.createGroup,
	})
	a.registry.AddView(pageUsers, &keys.Action{
		Key: tcell.KeyCtrlU, Description: "Clear picked",
		Handler: func() {
			if a.sess != nil && a.pick == pickGroup {
				a.sess.PickFor("")
				a.renderPicker()
			}
		},
	})
}

func (a *App) setupCallbacks() {
	a.login.SetOnSubmit(a.submitLogin)

	a.convList.SetSelectedFunc(func(row, _ int) {
		if id := a.convList.ConversationByIndex(row); id != "" {
			a.showThread(id)
		}
	})

	a.thread.SetOnSend(func(line string) {
		if a.sess == nil {
			return
		}
		in := chat.ParseInput(line)
		if in.IsEmpty() {
			return
		}
		a.sess.Submit(in)
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptCommand {
			a.runCommand(text)
		}
	})
	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.convList.SetFilter(text)
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.convList.ClearFilter()
		}
		a.hidePrompt()
	})

	a.pages.SetOnChange(func(stack []string) {
		names := make([]string, len(stack))
		for i, page := range stack {
			names[i] = a.components[page].Name()
		}
		a.crumbs.Update(names)
		a.updateMenu()
	})
}

func (a *App) setupLayout() {
	for name, c := range a.components {
		a.pages.AddPage(name, c, true, false)
	}

	header := tview.NewFlex().
		AddItem(a.info, 40, 0, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(a.logo, 20, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, ui.MenuRows, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.capture)
}

func (a *App) capture(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}

	focused := a.app.GetFocus()
	if focused == a.prompt.InputField {
		return event
	}
	page := a.pages.Current()

	if event.Key() == tcell.KeyEscape {
		if a.sess != nil {
			if _, ok := a.sess.Banner.Current(); ok {
				a.sess.Banner.Dismiss()
				return nil
			}
		}
		if focused == a.thread.Composer() {
			a.app.SetFocus(a.thread.Messages())
			return nil
		}
		a.back()
		return nil
	}
	if page == pageLogin {
		return event
	}
	if page == pageUsers && event.Key() == tcell.KeyTab {
		if focused == a.users.Input() {
			a.app.SetFocus(a.users.Results())
		} else {
			a.app.SetFocus(a.users.Input())
		}
		return nil
	}

	// Text fields get every printable key.
	if _, ok := focused.(*tview.InputField); ok {
		if event.Key() != tcell.KeyRune && a.registry.HandleEvent(page, event) {
			return nil
		}
		return event
	}

	if event.Key() == tcell.KeyRune {
		switch event.Rune() {
		case ':':
			a.activatePrompt(ui.PromptCommand, "")
			return nil
		case '/':
			if page == pageConversations {
				a.activatePrompt(ui.PromptFilter, a.convList.Filter())
				return nil
			}
		}
	}

	if a.registry.HandleEvent(page, event) {
		return nil
	}
	return event
}

// Run opens the stored session, if any, and blocks until the TUI exits.
func (a *App) Run() error {
	events, unsubscribe := a.svc.Bus().Subscribe("", 256)
	defer unsubscribe()
	go a.watch(events)

	if err := a.openSession(); err != nil {
		return err
	}
	err := a.app.Run()
	a.shutdown()
	return err
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.app.Stop()
}

func (a *App) shutdown() {
	a.cancel()
	if a.sess != nil {
		a.sess.Close()
		a.sess = nil
	}
}

// watch moves bus events onto the UI goroutine. The ticker keeps the clock
// and uptime current.
func (a *App) watch(events <-chan bus.Event) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case evt := <-events:
			a.app.QueueUpdateDraw(func() { a.handle(evt) })
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.renderStates()
				a.renderInfo()
				a.renderFlash()
			})
		}
	}
}

func (a *App) handle(evt bus.Event) {
	if a.sess == nil {
		return
	}
	switch evt.Kind {
	case bus.ConversationsLoaded, bus.ConversationSelected, bus.ConversationUnread:
		a.renderConversations()
	case bus.MessagesLoaded, bus.MessagePending, bus.MessageConfirmed, bus.MessageFailed:
		a.renderThread()
	case bus.SyncStatusChanged:
		a.renderStates()
	case bus.SearchResults:
		a.renderPicker()
	case bus.MembersChanged:
		a.renderDetails()
	case bus.SessionError, bus.SessionBannerCleared:
		a.renderFlash()
	case bus.SessionFatal:
		msg := "Session expired. Log in again."
		if err, ok := evt.Payload.(error); ok && !errors.Is(err, gateway.ErrUnauthorized) {
			msg = err.Error()
		}
		a.logger.Warn("session ended by backend", zap.Any("cause", evt.Payload))
		a.endSession(msg, true)
		return
	}
	a.renderInfo()
}

func (a *App) openSession() error {
	sess, err := a.svc.Open()
	if errors.Is(err, chat.ErrNotLoggedIn) {
		a.showLogin("")
		return nil
	}
	if err != nil {
		return err
	}
	a.attach(sess)
	return nil
}

func (a *App) submitLogin(user, password string) {
	go func() {
		_, err := a.svc.Login(a.ctx, user, password)
		var sess *chat.Session
		if err == nil {
			sess, err = a.svc.Open()
		}
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.login.Done(loginMessage(err))
				return
			}
			a.login.Done("")
			a.attach(sess)
		})
	}()
}

func loginMessage(err error) string {
	if errors.Is(err, gateway.ErrInvalidCredentials) {
		return "Invalid username or password."
	}
	var ne *notify.Error
	if errors.As(err, &ne) && ne.Kind == notify.Validation {
		return ne.Err.Error()
	}
	return err.Error()
}

func (a *App) attach(sess *chat.Session) {
	a.sess = sess
	a.since = time.Now()
	a.flash.Clear()
	a.thread.SetConversation(store.Conversation{})
	a.convList.ClearFilter()
	a.convList.Update(nil, "")
	a.statusBar.SetSession(a.profile, sess.Me.DisplayName)
	a.pages.Reset(pageConversations)
	a.focusCurrent()
	sess.Start(a.ctx)
	a.renderInfo()
	a.renderFlash()
}

// endSession drops the current session and returns to the login form. With
// forget set the stored token is removed too.
func (a *App) endSession(msg string, forget bool) {
	sess := a.sess
	a.sess = nil
	a.showLogin(msg)
	if sess == nil {
		return
	}
	go func() {
		sess.Close()
		if !forget {
			return
		}
		if err := a.svc.Logout(); err != nil {
			a.logger.Warn("clear stored login failed", zap.Error(err))
		}
	}()
}

func (a *App) showLogin(msg string) {
	a.flash.Clear()
	a.renderFlash()
	a.info.Update(nil)
	a.statusBar.SetSession(a.profile, "")
	a.statusBar.SetStates("", "")
	a.statusBar.SetPending(0)
	a.pages.Reset(pageLogin)
	a.login.Done(msg)
	a.focusCurrent()
}

func (a *App) push(page string) {
	a.pages.Push(page)
	a.focusCurrent()
}

func (a *App) back() {
	if a.pages.Depth() <= 1 {
		return
	}
	a.pages.Pop()
	a.focusCurrent()
}

func (a *App) focusCurrent() {
	if c, ok := a.components[a.pages.Current()]; ok {
		a.app.SetFocus(c.FocusTarget())
	}
	a.updateMenu()
}

func (a *App) updateMenu() {
	page := a.pages.Current()
	c, ok := a.components[page]
	if !ok {
		a.menu.Update(nil)
		return
	}
	a.menu.Update(append(c.Hints(), a.registry.Hints(page)...))
}

func (a *App) activatePrompt(mode ui.PromptMode, text string) {
	if a.sess == nil {
		return
	}
	a.prompt.ActivateWith(mode, text)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusCurrent()
}

func (a *App) reload() {
	if a.sess == nil {
		return
	}
	a.sess.Engine.RefreshAsync()
	if a.pages.Current() == pageThread {
		a.sess.Engine.Reload()
	}
	a.flash.Info("Reloading…")
	a.renderFlash()
}

func (a *App) showThread(id string) {
	if a.sess == nil {
		return
	}
	if err := a.sess.Select(id); err != nil {
		a.sess.Banner.Report(notify.Wrap(notify.Validation, "open conversation", err))
		return
	}
	conv, ok := a.sess.Conversations.Get(id)
	if !ok {
		conv = store.Conversation{ID: id, Name: id}
	}
	a.thread.SetConversation(conv)
	a.renderThread()
	a.renderStates()
	a.pages.PopTo(pageConversations)
	a.push(pageThread)
}

func (a *App) showDetails() {
	if a.sess == nil {
		return
	}
	id := a.thread.ConversationID()
	conv, ok := a.sess.Conversations.Get(id)
	if !ok {
		return
	}
	a.details.Update(conv, a.sess.Groups.Cached(id))
	a.push(pageDetails)
	if !conv.IsGroup() {
		return
	}
	sess := a.sess
	go func() {
		// Failures are on the banner; the cached roster stays shown.
		_, _ = sess.Groups.Members(a.ctx, id)
	}()
}

func (a *App) detailsConversation() (store.Conversation, bool) {
	if a.sess == nil {
		return store.Conversation{}, false
	}
	return a.sess.Conversations.Get(a.details.ConversationID())
}

func (a *App) removeMember() {
	conv, ok := a.detailsConversation()
	if !ok || !conv.IsGroup() {
		return
	}
	m, ok := a.details.SelectedMember()
	if !ok {
		return
	}
	sess := a.sess
	go func() {
		if err := sess.Groups.RemoveMember(a.ctx, conv.ID, m.ID); err == nil {
			a.app.QueueUpdateDraw(func() {
				a.flash.Info(fmt.Sprintf("Removed %s", m.Username))
				a.renderFlash()
			})
		}
	}()
}

func (a *App) openPicker(mode pickMode, chatID string) {
	if a.sess == nil {
		return
	}
	a.pick = mode
	a.pickChat = chatID
	switch mode {
	case pickDirect:
		a.sess.Users.Reset()
		a.users.Configure("Start a direct chat", nil, a.sess.Users.Update, a.chooseDirect)
	case pickGroup:
		a.sess.PickFor("")
		a.users.Configure(fmt.Sprintf("New group: %s", a.groupName), []ui.MenuHint{
			{Key: "Ctrl-S", Description: "Create group"},
			{Key: "Ctrl-U", Description: "Clear picked"},
		}, a.sess.Picker.Update, a.togglePick)
	case pickAdd:
		a.sess.PickFor(chatID)
		a.users.Configure("Add member", nil, a.sess.Picker.Update, a.chooseAdd)
	}
	a.push(pageUsers)
}

func (a *App) chooseDirect(m groups.Member) {
	sess := a.sess
	go func() {
		id, err := sess.Groups.CreatePrivate(a.ctx, m.ID)
		a.app.QueueUpdateDraw(func() {
			if a.sess != sess {
				return
			}
			if err != nil {
				a.reportLocal(err)
				return
			}
			a.showThread(id)
		})
	}()
}

func (a *App) togglePick(m groups.Member) {
	a.sess.TogglePick(m)
	a.renderPicker()
}

func (a *App) createGroup() {
	if a.sess == nil || a.pick != pickGroup {
		return
	}
	sess, name := a.sess, a.groupName
	go func() {
		id, err := sess.CreatePickedGroup(a.ctx, name)
		a.app.QueueUpdateDraw(func() {
			if a.sess != sess {
				return
			}
			if err != nil {
				a.reportLocal(err)
				return
			}
			a.showThread(id)
		})
	}()
}

func (a *App) chooseAdd(m groups.Member) {
	sess, chatID := a.sess, a.pickChat
	go func() {
		err := sess.Groups.AddMember(a.ctx, chatID, m)
		a.app.QueueUpdateDraw(func() {
			if a.sess != sess {
				return
			}
			if err != nil {
				a.reportLocal(err)
				return
			}
			a.flash.Info(fmt.Sprintf("Added %s", m.Username))
			a.pages.PopTo(pageDetails)
			a.focusCurrent()
			a.renderDetails()
			a.renderFlash()
		})
	}()
}

// reportLocal shows validation failures, which the components return
// without putting on the banner.
func (a *App) reportLocal(err error) {
	if a.sess != nil && notify.KindOf(err) == notify.Validation {
		a.sess.Banner.Report(err)
	}
}

func (a *App) renderConversations() {
	a.convList.Update(a.sess.Conversations.List(), a.sess.Conversations.Selected())
	if id := a.thread.ConversationID(); id != "" {
		if conv, ok := a.sess.Conversations.Get(id); ok {
			a.thread.SetConversation(conv)
		}
	}
	if a.pages.Contains(pageDetails) {
		a.renderDetails()
	}
}

func (a *App) renderThread() {
	id := a.thread.ConversationID()
	if id == "" {
		return
	}
	a.thread.Update(a.sess.Messages.List(id))
	a.statusBar.SetPending(a.sess.Messages.Pending(id))
}

func (a *App) renderStates() {
	if a.sess == nil {
		return
	}
	list := a.sess.Engine.ListState()
	msgs := a.sess.Engine.MessageState()
	a.statusBar.SetStates(string(list), string(msgs))
	a.convList.SetState(visibleState(list))
	a.thread.SetState(visibleState(msgs))
}

// visibleState hides the resting states from titles.
func visibleState(s status.State) string {
	switch s {
	case status.Loading, status.Errored:
		return string(s)
	}
	return ""
}

func (a *App) renderPicker() {
	if a.pages.Current() != pageUsers {
		return
	}
	switch a.pick {
	case pickDirect:
		a.users.Update(a.sess.Users.Results())
	case pickGroup:
		a.users.Update(a.sess.Picker.Results())
		a.users.SetPicked(a.sess.Picked())
	case pickAdd:
		a.users.Update(a.sess.Picker.Results())
	}
}

func (a *App) renderDetails() {
	conv, ok := a.detailsConversation()
	if !ok {
		return
	}
	a.details.Update(conv, a.sess.Groups.Cached(conv.ID))
}

func (a *App) renderFlash() {
	if a.sess != nil {
		if e, ok := a.sess.Banner.Current(); ok {
			a.flash.Sticky(e)
		} else if msg := a.flash.GetMessage(); msg != nil && msg.Expires.IsZero() {
			a.flash.Clear()
		}
	}
	a.flashBar.Update(a.flash.GetMessage())
}

func (a *App) renderInfo() {
	if a.sess == nil {
		a.info.Update(nil)
		return
	}
	convs := a.sess.Conversations.List()
	unread := 0
	for _, c := range convs {
		unread += c.Unread
	}
	pending := 0
	if id := a.thread.ConversationID(); id != "" {
		pending = a.sess.Messages.Pending(id)
	}
	a.info.Update(&ui.SessionData{
		Profile:       a.profile,
		User:          a.sess.Me.DisplayName,
		Backend:       a.backend,
		ListState:     string(a.sess.Engine.ListState()),
		Conversations: len(convs),
		Unread:        unread,
		Pending:       pending,
		Since:         a.since,
	})
}
