package client

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestValidRoomCode(t *testing.T) {
	tests := map[string]bool{
		"abcd":    true,
		"ab12cd":  true,
		"AB12":    true,
		"abc":     false,
		"abcdefg": false,
		"ab-12":   false,
		"ab 12":   false,
		"абвг":    false,
		"":        false,
	}
	for code, want := range tests {
		if got := ValidRoomCode(code); got != want {
			t.Errorf("ValidRoomCode(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestFormatTimeLeft(t *testing.T) {
	tests := map[int]string{
		300: "5:00",
		61:  "1:01",
		9:   "0:09",
		0:   "0:00",
		-3:  "0:00",
	}
	for secs, want := range tests {
		if got := FormatTimeLeft(secs); got != want {
			t.Errorf("FormatTimeLeft(%d) = %q, want %q", secs, got, want)
		}
	}
}

func TestNewSessionFloorsTimeLeft(t *testing.T) {
	s := NewSession("ab12cd", true, epoch.Add(299*time.Second+900*time.Millisecond), epoch)
	if s.TimeLeftSeconds != 299 {
		t.Fatalf("TimeLeftSeconds = %d, want 299", s.TimeLeftSeconds)
	}
	if s.Phase != PhaseActiveWaiting || !s.SessionActive {
		t.Fatalf("new session = %+v", s)
	}

	expired := NewSession("ab12cd", false, epoch, epoch)
	if expired.Phase != PhaseExpired || expired.SessionActive {
		t.Fatalf("session entered at expiry = %+v, want expired", expired)
	}
}

func TestConnectedIsMonotonic(t *testing.T) {
	s := NewSession("ab12cd", true, epoch.Add(time.Minute), epoch)

	s.ApplyText("")
	s.ApplyImages(nil)
	if s.Connected {
		t.Fatal("empty polls marked session connected")
	}

	s.ApplyText("hello")
	if !s.Connected || s.Phase != PhaseActiveConnected {
		t.Fatalf("after new text: connected=%v phase=%v", s.Connected, s.Phase)
	}

	// Текст исчез (например, очистка комнаты), флаг остается
	s.ApplyText("")
	if !s.Connected {
		t.Fatal("connected reverted to false")
	}
}

func TestImagesSignatureMarksConnected(t *testing.T) {
	s := NewSession("ab12cd", false, epoch.Add(time.Minute), epoch)

	s.ApplyImages([]string{"u1"})
	if !s.Connected {
		t.Fatal("new image list did not mark connected")
	}
	if s.LastImageSig != "u1" {
		t.Fatalf("LastImageSig = %q", s.LastImageSig)
	}
	s.ApplyImages([]string{"u2", "u1"})
	if s.LastImageSig != "u2,u1" {
		t.Fatalf("LastImageSig = %q", s.LastImageSig)
	}
}

func TestPresenceOverwritesCountdown(t *testing.T) {
	s := NewSession("ab12cd", false, epoch.Add(time.Minute), epoch)
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	if s.TimeLeftSeconds != 55 {
		t.Fatalf("TimeLeftSeconds after 5 ticks = %d, want 55", s.TimeLeftSeconds)
	}

	// Сервер знает лучше: например, локальные тики отставали
	expiresAt := epoch.Add(time.Minute)
	s.ApplyPresence(true, &expiresAt, epoch.Add(2*time.Second))
	if s.TimeLeftSeconds != 58 {
		t.Fatalf("TimeLeftSeconds after presence = %d, want 58", s.TimeLeftSeconds)
	}

	s.ApplyPresence(false, nil, epoch.Add(3*time.Second))
	if s.Phase != PhaseExpired || s.SessionActive {
		t.Fatalf("invalid presence did not expire session: %+v", s)
	}
}

func TestCountdownReachingZeroExpires(t *testing.T) {
	s := NewSession("ab12cd", false, epoch.Add(2*time.Second), epoch)
	s.Tick()
	if s.Phase == PhaseExpired {
		t.Fatal("expired with 1s left")
	}
	s.Tick()
	if s.Phase != PhaseExpired {
		t.Fatalf("phase after countdown = %v, want expired", s.Phase)
	}

	// После истечения результаты опросов ничего не меняют
	s.ApplyText("late")
	if s.Text != "" || s.Connected {
		t.Fatalf("expired session accepted text: %+v", s)
	}
}

func TestStatusText(t *testing.T) {
	creator := NewSession("ab12cd", true, epoch.Add(90*time.Second), epoch)
	if got, want := creator.Status(), "Waiting for another user to join Room ID: ab12cd\nTime left: 1:30"; got != want {
		t.Errorf("creator waiting status = %q, want %q", got, want)
	}
	creator.ApplyText("hi")
	if got, want := creator.Status(), "Connected! Room ID: ab12cd\nTime left: 1:30"; got != want {
		t.Errorf("creator connected status = %q, want %q", got, want)
	}

	joiner := NewSession("ab12cd", false, epoch.Add(90*time.Second), epoch)
	if got, want := joiner.Status(), "Waiting for room to be active...\nTime left: 1:30"; got != want {
		t.Errorf("joiner waiting status = %q, want %q", got, want)
	}
	joiner.ApplyImages([]string{"u"})
	if got, want := joiner.Status(), "Connected to Room ID: ab12cd\nTime left: 1:30"; got != want {
		t.Errorf("joiner connected status = %q, want %q", got, want)
	}

	joiner.ApplyPresence(false, nil, epoch)
	if got := joiner.Status(); got != MsgRoomExpired {
		t.Errorf("expired status = %q", got)
	}
}
