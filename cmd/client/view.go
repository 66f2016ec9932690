package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"crossx/internal/client"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	waitingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	expiredStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// view печатает изменения состояния. Render вызывается из цикла Reconciler,
// поэтому повторная печать одного и того же подавляется.
type view struct {
	mu        sync.Mutex
	out       io.Writer
	lastPhase client.Phase
	lastStat  string
	lastText  string
	lastSig   string
}

func newView(out io.Writer) *view {
	return &view{out: out, lastPhase: -1}
}

func (v *view) Render(s client.State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s.Phase != v.lastPhase {
		v.lastPhase = s.Phase
		v.printPhase(s)
	}

	// Countdown меняет статус каждую секунду, печатаем только смену минуты и смену фазы
	status := s.Status()
	if s.SessionActive && status != v.lastStat && (s.TimeLeftSeconds%60 == 0 || firstLine(status) != firstLine(v.lastStat)) {
		fmt.Fprintln(v.out, v.statusLine(s, status))
	}
	v.lastStat = status

	if s.SessionActive && s.Text != v.lastText {
		v.lastText = s.Text
		v.printText(s)
	}
	if sig := client.ImageSignature(s.Images); s.SessionActive && sig != v.lastSig {
		v.lastSig = sig
		v.printImages(s)
	}
}

func (v *view) printPhase(s client.State) {
	switch s.Phase {
	case client.PhaseSelecting:
		v.lastText, v.lastSig = "", ""
		fmt.Fprintln(v.out, titleStyle.Render("Cross-X: Share Images & Text"))
		if s.Notice != "" {
			fmt.Fprintln(v.out, errorStyle.Render(s.Notice))
		}
		fmt.Fprintln(v.out, faintStyle.Render("/create to start a room, /join <code> to enter one"))
	case client.PhaseExpired:
		fmt.Fprintln(v.out, expiredStyle.Render("Room Expired"))
		fmt.Fprintln(v.out, faintStyle.Render("/back to return to room selection"))
	case client.PhaseActiveWaiting:
		fmt.Fprintln(v.out, titleStyle.Render("Cross-X: Room "+s.RoomID))
	}
}

func (v *view) statusLine(s client.State, status string) string {
	if s.Connected {
		return statusStyle.Render(status)
	}
	return waitingStyle.Render(status)
}

func (v *view) printText(s client.State) {
	text := s.Text
	if text == "" {
		text = client.MsgNoText
	}
	fmt.Fprintln(v.out, boxStyle.Render(text))
}

func (v *view) printImages(s client.State) {
	if len(s.Images) == 0 {
		fmt.Fprintln(v.out, faintStyle.Render("(no images)"))
		return
	}
	fmt.Fprintln(v.out, titleStyle.Render(fmt.Sprintf("Images (%d)", len(s.Images))))
	for _, url := range s.Images {
		fmt.Fprintln(v.out, "  "+url)
	}
}

func (v *view) Text(s client.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.printText(s)
}

func (v *view) Images(s client.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.printImages(s)
}

func (v *view) Error(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, errorStyle.Render(err.Error()))
}

func (v *view) Help() {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, faintStyle.Render(strings.Join([]string{
		"type a line to share it as text",
		"/upload <path>  share an image",
		"/text /images   show shared content",
		"/close          close the room for everyone",
		"/leave          back to room selection",
		"/quit           exit",
	}, "\n")))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
