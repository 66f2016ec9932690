package client

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

type Phase int

const (
	// PhaseSelecting - нет комнаты, пользователь выбирает: создать или войти
	PhaseSelecting Phase = iota
	PhaseActiveWaiting
	PhaseActiveConnected
	// PhaseExpired - терминальная фаза сессии, выход только в PhaseSelecting
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseSelecting:
		return "selecting"
	case PhaseActiveWaiting:
		return "waiting"
	case PhaseActiveConnected:
		return "connected"
	case PhaseExpired:
		return "expired"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

const (
	MinRoomCodeLength = 4
	MaxRoomCodeLength = 6

	MsgInvalidRoomCode = "Enter a valid room code."
	MsgRoomNotFound    = "Room not found or expired."
	MsgRoomExpired     = "Room expired. Please create or join a new room."
	MsgNoText          = "(No text shared yet)"
)

// State - все, что клиент знает о текущей сессии. Меняется только из цикла Reconciler.
type State struct {
	Phase           Phase
	RoomID          string
	IsCreator       bool
	SessionActive   bool
	Connected       bool
	Text            string
	Images          []string
	LastKnownText   string
	LastImageSig    string
	TimeLeftSeconds int
	Notice          string
}

// NewSession - свежее состояние при входе в комнату
func NewSession(roomID string, isCreator bool, expiresAt, now time.Time) State {
	s := State{
		Phase:         PhaseActiveWaiting,
		RoomID:        roomID,
		IsCreator:     isCreator,
		SessionActive: true,
	}
	s.setTimeLeft(expiresAt, now)
	return s
}

// ApplyText обновляет текст; первый новый непустой текст помечает сессию подключенной
func (s *State) ApplyText(text string) {
	if !s.SessionActive {
		return
	}
	s.Text = text
	if text != "" && text != s.LastKnownText {
		s.LastKnownText = text
		s.markConnected()
	}
}

// ApplyImages обновляет галерею; непустой список с новой подписью помечает сессию подключенной
func (s *State) ApplyImages(urls []string) {
	if !s.SessionActive {
		return
	}
	s.Images = urls
	sig := ImageSignature(urls)
	if len(urls) > 0 && sig != s.LastImageSig {
		s.LastImageSig = sig
		s.markConnected()
	}
}

// ApplyPresence применяет ответ validate-room. Серверное время истечения всегда
// перезаписывает локальный отсчет.
func (s *State) ApplyPresence(valid bool, expiresAt *time.Time, now time.Time) {
	if !s.SessionActive {
		return
	}
	if !valid || expiresAt == nil {
		s.expire()
		return
	}
	s.setTimeLeft(*expiresAt, now)
}

// Tick - локальный отсчет между опросами присутствия
func (s *State) Tick() {
	if !s.SessionActive {
		return
	}
	s.TimeLeftSeconds--
	if s.TimeLeftSeconds <= 0 {
		s.expire()
	}
}

func (s *State) setTimeLeft(expiresAt, now time.Time) {
	s.TimeLeftSeconds = int(math.Floor(expiresAt.Sub(now).Seconds()))
	if s.TimeLeftSeconds <= 0 {
		s.expire()
	}
}

func (s *State) markConnected() {
	s.Connected = true
	if s.Phase == PhaseActiveWaiting {
		s.Phase = PhaseActiveConnected
	}
}

func (s *State) expire() {
	s.SessionActive = false
	s.Phase = PhaseExpired
	s.TimeLeftSeconds = 0
}

// Status - строка статуса как ее видит пользователь
func (s State) Status() string {
	switch s.Phase {
	case PhaseSelecting:
		return s.Notice
	case PhaseExpired:
		return MsgRoomExpired
	}

	var status string
	switch {
	case s.IsCreator && s.Connected:
		status = "Connected! Room ID: " + s.RoomID
	case s.IsCreator:
		status = "Waiting for another user to join Room ID: " + s.RoomID
	case s.Connected:
		status = "Connected to Room ID: " + s.RoomID
	default:
		status = "Waiting for room to be active..."
	}
	return status + "\nTime left: " + FormatTimeLeft(s.TimeLeftSeconds)
}

// FormatTimeLeft форматирует секунды как m:ss
func FormatTimeLeft(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func ImageSignature(urls []string) string {
	return strings.Join(urls, ",")
}

// ValidRoomCode - код комнаты из 4-6 латинских букв или цифр
func ValidRoomCode(code string) bool {
	if len(code) < MinRoomCodeLength || len(code) > MaxRoomCodeLength {
		return false
	}
	for _, r := range code {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
