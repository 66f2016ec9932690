package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crossx/internal/clock"
	"crossx/pkg/logger"
)

// fakeAPI - комнаты в памяти, время истечения задает тест
type fakeAPI struct {
	mu      sync.Mutex
	rooms   map[string]time.Time
	texts   map[string]string
	images  map[string][]string
	closed  []string
	created string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		rooms:  map[string]time.Time{},
		texts:  map[string]string{},
		images: map[string][]string{},
	}
}

func (f *fakeAPI) addRoom(id string, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[id] = expiresAt
}

func (f *fakeAPI) CreateRoom(context.Context) (*CreatedRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expiresAt := epoch.Add(5 * time.Minute)
	f.rooms[f.created] = expiresAt
	return &CreatedRoom{RoomID: f.created, URL: "/room/" + f.created, ExpiresAt: expiresAt}, nil
}

func (f *fakeAPI) ValidateRoom(_ context.Context, roomID string) (*Validation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expiresAt, ok := f.rooms[roomID]
	if !ok {
		return &Validation{}, nil
	}
	return &Validation{Valid: true, ExpiresAt: &expiresAt}, nil
}

func (f *fakeAPI) CloseRoom(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, roomID)
	f.closed = append(f.closed, roomID)
	return nil
}

func (f *fakeAPI) ShareText(_ context.Context, roomID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[roomID] = text
	return nil
}

func (f *fakeAPI) GetText(_ context.Context, roomID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[roomID], nil
}

func (f *fakeAPI) ListImages(_ context.Context, roomID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.images[roomID]...), nil
}

func (f *fakeAPI) UploadImage(_ context.Context, roomID, filename string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://cdn.test/" + filename
	f.images[roomID] = append([]string{url}, f.images[roomID]...)
	return url, nil
}

type harness struct {
	api      *fakeAPI
	clock    *clock.FakeClock
	location *MemoryLocation
	r        *Reconciler
	states   chan State
	cancel   context.CancelFunc
	done     chan error
}

func startHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		api:      newFakeAPI(),
		clock:    clock.Fake(epoch),
		location: &MemoryLocation{},
		states:   make(chan State, 256),
		done:     make(chan error, 1),
	}
	h.r = NewReconciler(h.api, h.location, h.clock, logger.Nop(),
		WithOnChange(func(s State) { h.states <- s }))

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.r.Run(ctx) }()
	<-h.r.Ready()

	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

// waitFor ждет опубликованное состояние, удовлетворяющее условию
func (h *harness) waitFor(t *testing.T, what string, cond func(State) bool) State {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-h.states:
			if cond(s) {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s; last state %+v", what, h.r.State())
		}
	}
}

func TestJoinRejectsBadCodes(t *testing.T) {
	h := startHarness(t)
	ctx := context.Background()

	if err := h.r.Join(ctx, "ab"); !errors.Is(err, ErrInvalidRoomCode) {
		t.Fatalf("Join(short) error = %v, want ErrInvalidRoomCode", err)
	}
	if got := h.r.State().Status(); got != MsgInvalidRoomCode {
		t.Fatalf("status = %q", got)
	}

	if err := h.r.Join(ctx, "zzzz99"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("Join(unknown) error = %v, want ErrRoomNotFound", err)
	}
	if got := h.r.State().Status(); got != MsgRoomNotFound {
		t.Fatalf("status = %q", got)
	}
	if h.clock.PendingCount() != 0 {
		t.Fatal("tickers started without a room")
	}
}

func TestCreatorBecomesConnectedWhenPeerShares(t *testing.T) {
	h := startHarness(t)
	ctx := context.Background()
	h.api.created = "ab12cd"

	roomID, err := h.r.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if h.location.RoomID != roomID {
		t.Fatalf("location = %q, want %q", h.location.RoomID, roomID)
	}
	h.waitFor(t, "waiting creator", func(s State) bool {
		return s.Phase == PhaseActiveWaiting && s.IsCreator && s.TimeLeftSeconds == 300
	})

	// Второе устройство делится текстом
	if err := h.api.ShareText(ctx, roomID, "from phone"); err != nil {
		t.Fatal(err)
	}
	h.clock.WaitForTimers(4)
	h.clock.Advance(3 * time.Second)

	s := h.waitFor(t, "connected", func(s State) bool { return s.Connected })
	if s.Text != "from phone" {
		t.Fatalf("text = %q", s.Text)
	}
	if s.Phase != PhaseActiveConnected {
		t.Fatalf("phase = %v, want connected", s.Phase)
	}
}

func TestCountdownExpiryStopsAllTickers(t *testing.T) {
	h := startHarness(t)
	ctx := context.Background()
	h.api.addRoom("ab12cd", epoch.Add(2*time.Second))

	if err := h.r.Join(ctx, "ab12cd"); err != nil {
		t.Fatal(err)
	}
	h.clock.WaitForTimers(4)

	h.clock.Advance(time.Second)
	h.waitFor(t, "one second left", func(s State) bool { return s.TimeLeftSeconds == 1 })

	h.clock.Advance(time.Second)
	h.waitFor(t, "expired", func(s State) bool { return s.Phase == PhaseExpired })

	if n := h.clock.PendingCount(); n != 0 {
		t.Fatalf("PendingCount() after expiry = %d, want 0", n)
	}

	// Выход из истекшей комнаты возвращает к выбору и стирает location
	if err := h.r.Leave(ctx); err != nil {
		t.Fatal(err)
	}
	if s := h.r.State(); s.Phase != PhaseSelecting || s.RoomID != "" {
		t.Fatalf("state after leave = %+v", s)
	}
	if h.location.RoomID != "" {
		t.Fatalf("location after leave = %q", h.location.RoomID)
	}
}

func TestPresenceInvalidExpiresSession(t *testing.T) {
	h := startHarness(t)
	ctx := context.Background()
	h.api.addRoom("ab12cd", epoch.Add(5*time.Minute))

	if err := h.r.Join(ctx, "ab12cd"); err != nil {
		t.Fatal(err)
	}
	h.clock.WaitForTimers(4)

	// Комнату закрыли с другого устройства
	if err := h.api.CloseRoom(ctx, "ab12cd"); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(2 * time.Second)

	h.waitFor(t, "expired", func(s State) bool { return s.Phase == PhaseExpired })
	if n := h.clock.PendingCount(); n != 0 {
		t.Fatalf("PendingCount() = %d, want 0", n)
	}
}

func TestResume(t *testing.T) {
	h := startHarness(t)
	ctx := context.Background()

	h.location.RoomID = "gone00"
	resumed, err := h.r.Resume(ctx)
	if err != nil || resumed {
		t.Fatalf("Resume(expired) = %v, %v; want false, nil", resumed, err)
	}
	if h.location.RoomID != "" {
		t.Fatal("location not cleared for invalid room")
	}

	h.api.addRoom("ab12cd", epoch.Add(time.Minute))
	h.location.RoomID = "ab12cd"
	resumed, err = h.r.Resume(ctx)
	if err != nil || !resumed {
		t.Fatalf("Resume(active) = %v, %v; want true, nil", resumed, err)
	}
	if s := h.r.State(); s.RoomID != "ab12cd" || s.IsCreator || !s.SessionActive {
		t.Fatalf("resumed state = %+v", s)
	}
}

func TestUploadAndCloseRoom(t *testing.T) {
	h := startHarness(t)
	ctx := context.Background()
	h.api.addRoom("ab12cd", epoch.Add(time.Minute))

	if err := h.r.Join(ctx, "ab12cd"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.r.UploadImage(ctx, "cat.png", []byte{1}); err != nil {
		t.Fatal(err)
	}
	h.waitFor(t, "gallery", func(s State) bool { return len(s.Images) == 1 })

	if err := h.r.CloseRoom(ctx); err != nil {
		t.Fatal(err)
	}
	if len(h.api.closed) != 1 || h.api.closed[0] != "ab12cd" {
		t.Fatalf("closed = %v", h.api.closed)
	}
	if s := h.r.State(); s.Phase != PhaseSelecting {
		t.Fatalf("phase after close = %v", s.Phase)
	}
	if err := h.r.ShareText(ctx, "x"); !errors.Is(err, ErrNoRoom) {
		t.Fatalf("ShareText() outside room error = %v, want ErrNoRoom", err)
	}
}

// Синхронная проверка без горутины Run: результаты применяются прямо из теста
func TestLateResultsAreDropped(t *testing.T) {
	r := NewReconciler(newFakeAPI(), &MemoryLocation{}, clock.Fake(epoch), logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.enter(ctx, "ab12cd", false, epoch.Add(time.Minute))
	first := r.session

	expiresAt := epoch.Add(time.Minute)
	r.apply(pollResult{session: first, kind: pollPresence, validation: &Validation{Valid: false}})
	if r.state.Phase != PhaseExpired {
		t.Fatalf("phase = %v, want expired", r.state.Phase)
	}

	// Ответ, отправленный до истечения, пришел после
	r.apply(pollResult{session: first, kind: pollText, text: "late"})
	if r.state.Text != "" || r.state.Connected {
		t.Fatalf("late text applied to expired session: %+v", r.state)
	}

	r.leave()
	r.enter(ctx, "ef34gh", false, expiresAt)
	r.apply(pollResult{session: first, kind: pollImages, images: []string{"old"}})
	if len(r.state.Images) != 0 || r.state.Connected {
		t.Fatalf("result of previous session applied: %+v", r.state)
	}

	r.apply(pollResult{session: r.session, kind: pollImages, images: []string{"new"}})
	if !r.state.Connected {
		t.Fatal("current session result was not applied")
	}
}
