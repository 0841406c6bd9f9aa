package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/vanderheijden86/nodetree/pkg/store"
	"github.com/vanderheijden86/nodetree/pkg/tree"
)

type appMode int

const (
	modeTree appMode = iota
	modePager
	modeMove
	modeInput
	modeConfirmDelete
)

type inputPurpose int

const (
	inputAddFolder inputPurpose = iota
	inputRename
	inputReveal
)

// AppConfig wires an App to its data source.
type AppConfig struct {
	Title    string
	Worker   *BackgroundWorker // may be nil in tests
	Writer   *NodeWriter       // nil or store-less means read-only
	StateDir string            // where tree-state.json lives; empty disables it

	ShowOrder bool
	PageSize  int

	// GlamourStyle selects the pager markdown style; empty auto-detects.
	GlamourStyle string
	Renderer     *lipgloss.Renderer
	Logger       logrus.FieldLogger
}

// App is the root bubbletea model of the tree browser.
type App struct {
	title  string
	keys   KeyMap
	theme  Theme
	logger logrus.FieldLogger

	tree   TreeModel
	pager  PagerModel
	picker FolderPickerModel
	input  textinput.Model

	mode      appMode
	purpose   inputPurpose
	targetID  string // node the open prompt or confirm acts on
	selectNew string // id to reveal once the next snapshot lands

	worker   *BackgroundWorker
	writer   *NodeWriter
	snapshot *DataSnapshot

	status      string
	statusError bool
	width       int
	height      int

	copyText func(string) error
}

// NewApp builds the browser. The tree stays empty until the first
// SnapshotReadyMsg arrives.
func NewApp(cfg AppConfig) App {
	r := cfg.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	theme := DefaultTheme(r)
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Title == "" {
		cfg.Title = "nodetree"
	}

	tm := NewTreeModel(theme)
	tm.SetStateDir(cfg.StateDir)
	tm.SetShowOrder(cfg.ShowOrder)
	tm.SetPageSize(cfg.PageSize)

	ti := textinput.New()
	ti.CharLimit = 200

	return App{
		title:    cfg.Title,
		keys:     DefaultKeyMap(),
		theme:    theme,
		logger:   cfg.Logger,
		tree:     tm,
		pager:    NewPagerModel(theme, cfg.GlamourStyle),
		input:    ti,
		worker:   cfg.Worker,
		writer:   cfg.Writer,
		copyText: clipboard.WriteAll,
	}
}

// Init kicks off the first snapshot load.
func (a App) Init() tea.Cmd {
	return a.refresh(false)
}

func (a App) refresh(force bool) tea.Cmd {
	w := a.worker
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if force {
			w.ResetHash()
		}
		w.TriggerRefresh()
		return nil
	}
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.tree.SetSize(msg.Width, a.bodyHeight())
		a.pager.SetSize(msg.Width, msg.Height)
		a.picker.SetSize(msg.Width, msg.Height)
		a.input.Width = msg.Width - 30

	case SnapshotReadyMsg:
		a.applySnapshot(msg.Snapshot)

	case SnapshotErrorMsg:
		a.setError(msg.Err)

	case WriteResultMsg:
		cmds = append(cmds, a.handleWriteResult(msg))

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		var cmd tea.Cmd
		switch a.mode {
		case modePager:
			cmd = a.updatePager(msg)
		case modeMove:
			cmd = a.updateMove(msg)
		case modeInput:
			cmd = a.updateInput(msg)
		case modeConfirmDelete:
			cmd = a.updateConfirm(msg)
		default:
			cmd = a.updateTree(msg)
		}
		cmds = append(cmds, cmd)
	}

	if a.tree.TakeExpandDirty() && a.writer.IsAvailable() {
		cmds = append(cmds, a.writer.SyncExpanded(a.tree.Expanded()))
	}
	return a, tea.Batch(cmds...)
}

func (a *App) applySnapshot(snap *DataSnapshot) {
	if snap == nil {
		return
	}
	a.snapshot = snap
	a.tree.SetSnapshot(snap.Nodes)
	if a.selectNew != "" {
		a.tree.Reveal(a.selectNew)
		a.selectNew = ""
	}
	if n := snap.Report.ProblemCount(); n > 0 {
		a.logger.WithField("problems", n).Debug("snapshot has structural problems")
	}
}

func (a *App) handleWriteResult(msg WriteResultMsg) tea.Cmd {
	if msg.Error != nil {
		a.logger.WithError(msg.Error).WithField("op", msg.Operation.String()).Warn("write failed")
		a.setError(fmt.Errorf("%s failed: %w", msg.Operation, msg.Error))
		return nil
	}

	switch msg.Operation {
	case WriteOpSyncExpanded:
		return nil
	case WriteOpInsert:
		a.selectNew = msg.NodeID
		a.setStatus("Created " + msg.NodeID)
	case WriteOpDelete:
		a.setStatus(fmt.Sprintf("Deleted %d node(s)", len(msg.Removed)))
	case WriteOpMove:
		a.selectNew = msg.NodeID
		a.setStatus("Moved " + msg.NodeID)
	case WriteOpRename:
		a.setStatus("Renamed " + msg.NodeID)
	}
	return a.refresh(false)
}

func (a *App) setStatus(s string) {
	a.status = s
	a.statusError = false
}

func (a *App) setError(err error) {
	a.status = err.Error()
	a.statusError = true
}

func (a *App) updateTree(msg tea.KeyMsg) tea.Cmd {
	k := a.keys
	a.setStatus("")
	switch {
	case key.Matches(msg, k.Quit):
		return tea.Quit
	case key.Matches(msg, k.Up):
		a.tree.MoveUp()
	case key.Matches(msg, k.Down):
		a.tree.MoveDown()
	case key.Matches(msg, k.Top):
		a.tree.JumpToTop()
	case key.Matches(msg, k.Bottom):
		a.tree.JumpToBottom()
	case key.Matches(msg, k.PageUp):
		a.tree.PageUp()
	case key.Matches(msg, k.PageDown):
		a.tree.PageDown()
	case key.Matches(msg, k.Expand):
		a.tree.ExpandOrMoveToChild()
	case key.Matches(msg, k.Collapse):
		a.tree.CollapseOrJumpToParent()
	case key.Matches(msg, k.Toggle):
		a.tree.ToggleExpand()
	case key.Matches(msg, k.Parent):
		a.tree.JumpToParent()
	case key.Matches(msg, k.ExpandAll):
		a.tree.ExpandAll()
	case key.Matches(msg, k.CollapseAll):
		a.tree.CollapseAll()
	case key.Matches(msg, k.Copy):
		a.copyBreadcrumb()
	case key.Matches(msg, k.Reveal):
		return a.openInput(inputReveal, "", "Reveal: ", "node id or Folder/Sub/Folder")
	case key.Matches(msg, k.AddFolder):
		return a.startAddFolder()
	case key.Matches(msg, k.Rename):
		return a.startRename()
	case key.Matches(msg, k.Move):
		a.startMove()
	case key.Matches(msg, k.Delete):
		a.startDelete()
	case key.Matches(msg, k.Refresh):
		a.setStatus("Reloading...")
		return a.refresh(true)
	case key.Matches(msg, k.Report):
		a.openReport()
	case key.Matches(msg, k.Help):
		a.pager.SetContent("Keyboard Shortcuts", helpMarkdown(a.keys))
		a.mode = modePager
	}
	return nil
}

func (a *App) copyBreadcrumb() {
	crumb := a.tree.Breadcrumb()
	if crumb == "" {
		return
	}
	if err := a.copyText(crumb); err != nil {
		a.setError(fmt.Errorf("clipboard: %w", err))
		return
	}
	a.setStatus("Copied " + crumb)
}

func (a *App) openReport() {
	if a.snapshot == nil {
		a.setStatus("No snapshot loaded yet")
		return
	}
	a.pager.SetContent("Integrity Report", reportMarkdown(a.snapshot.Report))
	a.mode = modePager
}

func (a *App) requireWriter() bool {
	if a.writer.IsAvailable() {
		return true
	}
	a.setError(ErrReadOnlySource)
	return false
}

func (a *App) startAddFolder() tea.Cmd {
	if !a.requireWriter() {
		return nil
	}
	parentID, where := "", "top level"
	if rec, ok := a.tree.SelectedRow(); ok {
		if rec.IsFolder() {
			parentID, where = rec.ID, rec.Title
		} else if rec.ParentID != "" {
			parentID = rec.ParentID
			where = "parent of " + rec.Title
		}
	}
	return a.openInput(inputAddFolder, parentID, "New folder in "+where+": ", "title")
}

func (a *App) startRename() tea.Cmd {
	if !a.requireWriter() {
		return nil
	}
	rec, ok := a.tree.SelectedRow()
	if !ok {
		return nil
	}
	cmd := a.openInput(inputRename, rec.ID, "Rename: ", "")
	a.input.SetValue(rec.Title)
	a.input.CursorEnd()
	return cmd
}

func (a *App) startMove() {
	if !a.requireWriter() {
		return
	}
	rec, ok := a.tree.SelectedRow()
	if !ok {
		return
	}
	a.picker = NewFolderPickerModel(a.tree.Nodes(), rec.ID, a.theme)
	a.picker.SetSize(a.width, a.height)
	a.mode = modeMove
}

func (a *App) startDelete() {
	if !a.requireWriter() {
		return
	}
	rec, ok := a.tree.SelectedRow()
	if !ok {
		return
	}
	a.targetID = rec.ID
	a.mode = modeConfirmDelete
}

func (a *App) openInput(p inputPurpose, target, prompt, placeholder string) tea.Cmd {
	a.purpose = p
	a.targetID = target
	a.input.Prompt = prompt
	a.input.Placeholder = placeholder
	a.input.SetValue("")
	a.mode = modeInput
	return a.input.Focus()
}

func (a *App) closeModal() {
	a.mode = modeTree
	a.targetID = ""
	a.input.Blur()
}

func (a *App) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		a.closeModal()
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(a.input.Value())
		purpose, target := a.purpose, a.targetID
		a.closeModal()
		return a.submitInput(purpose, target, value)
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return cmd
}

func (a *App) submitInput(p inputPurpose, target, value string) tea.Cmd {
	if value == "" {
		return nil
	}
	switch p {
	case inputAddFolder:
		return a.writer.CreateFolder(target, value)
	case inputRename:
		return a.writer.Rename(target, value)
	case inputReveal:
		a.reveal(value)
	}
	return nil
}

// reveal selects a node by id, or walks a slash separated folder path from
// the top level and selects the deepest folder that matched.
func (a *App) reveal(query string) {
	nodes := a.tree.Nodes()
	for _, n := range nodes {
		if n.ID == query {
			if !a.tree.Reveal(query) {
				a.setError(fmt.Errorf("%s is not reachable from a root", query))
			}
			return
		}
	}

	res := tree.ResolveFolderPath(nodes, "", tree.SplitFolderPath(query))
	if len(res.MatchedIDs) == 0 {
		a.setError(fmt.Errorf("no folder matches %q", query))
		return
	}
	a.tree.Reveal(res.DeepestID)
	if !res.Complete() {
		a.setStatus("Not found: " + strings.Join(res.Remaining, " / "))
		return
	}
	a.setStatus("")
}

func (a *App) updateMove(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q":
		a.closeModal()
	case "j", "down":
		a.picker.MoveDown()
	case "k", "up":
		a.picker.MoveUp()
	case "enter":
		dest, ok := a.picker.Selected()
		id := a.picker.MovingID()
		a.closeModal()
		if ok {
			return a.writer.Move(id, dest.ParentID, store.AppendIndex)
		}
	}
	return nil
}

func (a *App) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		id := a.targetID
		a.closeModal()
		return a.writer.Delete(id)
	case "n", "N", "esc", "q":
		a.closeModal()
	}
	return nil
}

func (a *App) updatePager(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "?", "i":
		a.mode = modeTree
	case "j", "down":
		a.pager.ScrollDown(1)
	case "k", "up":
		a.pager.ScrollUp(1)
	case "ctrl+d", "pgdown", " ":
		a.pager.ScrollDown(a.height / 2)
	case "ctrl+u", "pgup":
		a.pager.ScrollUp(a.height / 2)
	}
	return nil
}

// bodyHeight is the tree height: the screen minus header and footer.
func (a *App) bodyHeight() int {
	h := a.height - 3
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the browser.
func (a App) View() string {
	if a.snapshot == nil && !a.tree.IsBuilt() {
		if a.status != "" {
			return a.status
		}
		return "Loading nodes..."
	}

	var body string
	switch a.mode {
	case modePager:
		body = a.overlay(a.pager.View())
	case modeMove:
		body = a.overlay(a.picker.View())
	default:
		body = a.tree.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(), body, a.renderFooter())
}

func (a *App) overlay(modal string) string {
	if a.width <= 0 || a.height <= 0 {
		return modal
	}
	return lipgloss.Place(a.width, a.bodyHeight(), lipgloss.Center, lipgloss.Center, modal)
}

func (a *App) renderHeader() string {
	r := a.theme.Renderer
	title := r.NewStyle().Bold(true).Foreground(a.theme.Primary).Render(a.title)

	total := 0
	if a.snapshot != nil {
		total = a.snapshot.NodeCount()
	}
	counts := r.NewStyle().Foreground(a.theme.Muted).
		Render(fmt.Sprintf("  %d nodes · %d visible", total, a.tree.NodeCount()))

	var badge string
	if a.snapshot != nil {
		if n := a.snapshot.Report.ProblemCount(); n > 0 {
			badge = r.NewStyle().Foreground(a.theme.Warning).Bold(true).
				Render(fmt.Sprintf("  ⚠ %d problem(s), press i", n))
		}
	}
	return title + counts + badge
}

func (a *App) renderFooter() string {
	r := a.theme.Renderer
	muted := r.NewStyle().Foreground(a.theme.Muted)

	var line1 string
	switch a.mode {
	case modeInput:
		line1 = a.input.View()
	case modeConfirmDelete:
		line1 = r.NewStyle().Foreground(a.theme.Danger).Bold(true).Render(a.confirmPrompt())
	default:
		line1 = r.NewStyle().Foreground(a.theme.Secondary).Render(a.tree.Breadcrumb())
	}

	line2 := muted.Render(a.shortHelp())
	if a.status != "" {
		style := r.NewStyle().Foreground(a.theme.Highlight)
		if a.statusError {
			style = r.NewStyle().Foreground(a.theme.Danger)
		}
		line2 = style.Render(a.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, line1, line2)
}

func (a *App) confirmPrompt() string {
	nodes := a.tree.Nodes()
	title := a.targetID
	for _, n := range nodes {
		if n.ID == a.targetID {
			title = n.Title
			break
		}
	}
	extra := len(tree.GetDescendants(nodes, a.targetID))
	if extra > 0 {
		return fmt.Sprintf("Delete %q and %d descendant(s)? y/n", title, extra)
	}
	return fmt.Sprintf("Delete %q? y/n", title)
}

func (a *App) shortHelp() string {
	parts := make([]string, 0, 6)
	for _, b := range a.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Tree exposes the tree model for tests and the CLI.
func (a *App) Tree() *TreeModel {
	return &a.tree
}

// Status returns the footer status and whether it is an error.
func (a *App) Status() (string, bool) {
	return a.status, a.statusError
}
