package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"crossx/internal/clock"
	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"
)

var (
	ErrInvalidRoomCode = errors.New(MsgInvalidRoomCode)
	ErrRoomNotFound    = errors.New(MsgRoomNotFound)
	ErrNoRoom          = errors.New("not in a room")
	ErrStopped         = errors.New("reconciler is not running")
)

// Intervals - периоды опроса сервера и локального отсчета
type Intervals struct {
	Text      time.Duration
	Images    time.Duration
	Presence  time.Duration
	Countdown time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Text:      3 * time.Second,
		Images:    5 * time.Second,
		Presence:  2 * time.Second,
		Countdown: time.Second,
	}
}

type pollKind int

const (
	pollText pollKind = iota
	pollImages
	pollPresence
)

func (k pollKind) String() string {
	switch k {
	case pollText:
		return "text"
	case pollImages:
		return "images"
	default:
		return "presence"
	}
}

// pollResult помечен номером сессии: ответы старых сессий отбрасываются при получении
type pollResult struct {
	session    uint64
	kind       pollKind
	text       string
	images     []string
	validation *Validation
	err        error
}

type sessionTickers struct {
	text      *clock.Ticker
	images    *clock.Ticker
	presence  *clock.Ticker
	countdown *clock.Ticker
}

func (t *sessionTickers) stop() {
	for _, ticker := range []*clock.Ticker{t.text, t.images, t.presence, t.countdown} {
		if ticker != nil {
			ticker.Stop()
		}
	}
	*t = sessionTickers{}
}

func tickC(t *clock.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// Reconciler держит состояние сессии в одной горутине (Run) и синхронизирует его
// с сервером опросами. Сетевые вызовы идут в отдельных горутинах и возвращают
// результат в цикл через канал.
type Reconciler struct {
	api       API
	location  Location
	clock     clock.Clock
	intervals Intervals
	log       logger.Logger
	onChange  func(State)

	commands chan func(context.Context)
	results  chan pollResult
	running  chan struct{}

	// только для горутины Run
	state   State
	session uint64
	tickers sessionTickers

	mu       sync.RWMutex
	snapshot State
}

type Option func(*Reconciler)

// WithOnChange вызывается из цикла после каждого изменения состояния
func WithOnChange(fn func(State)) Option {
	return func(r *Reconciler) { r.onChange = fn }
}

func WithIntervals(intervals Intervals) Option {
	return func(r *Reconciler) { r.intervals = intervals }
}

func NewReconciler(api API, location Location, clk clock.Clock, log logger.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:       api,
		location:  location,
		clock:     clk,
		intervals: DefaultIntervals(),
		log:       log,
		commands:  make(chan func(context.Context)),
		results:   make(chan pollResult, 16),
		running:   make(chan struct{}),
		state:     State{Phase: PhaseSelecting},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.snapshot = r.state
	return r
}

// Run обрабатывает команды, тики и результаты опросов до отмены ctx
func (r *Reconciler) Run(ctx context.Context) error {
	close(r.running)
	defer r.tickers.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-r.commands:
			cmd(ctx)
		case res := <-r.results:
			r.apply(res)
		case <-tickC(r.tickers.text):
			r.poll(ctx, pollText)
		case <-tickC(r.tickers.images):
			r.poll(ctx, pollImages)
		case <-tickC(r.tickers.presence):
			r.poll(ctx, pollPresence)
		case <-tickC(r.tickers.countdown):
			r.state.Tick()
			r.changed()
		}
	}
}

// Ready закрывается, когда Run начал принимать команды
func (r *Reconciler) Ready() <-chan struct{} {
	return r.running
}

// State возвращает копию последнего опубликованного состояния
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// exec выполняет fn в горутине цикла и ждет завершения
func (r *Reconciler) exec(ctx context.Context, fn func(context.Context)) error {
	select {
	case <-r.running:
	default:
		return ErrStopped
	}

	done := make(chan struct{})
	wrapped := func(loopCtx context.Context) {
		defer close(done)
		fn(loopCtx)
	}

	select {
	case r.commands <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Create создает комнату на сервере и входит в нее как создатель
func (r *Reconciler) Create(ctx context.Context) (string, error) {
	room, err := r.api.CreateRoom(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}

	err = r.exec(ctx, func(loopCtx context.Context) {
		r.enter(loopCtx, room.RoomID, true, room.ExpiresAt)
	})
	return room.RoomID, err
}

// Join проверяет код и входит в существующую комнату
func (r *Reconciler) Join(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if !ValidRoomCode(code) {
		r.setNotice(ctx, MsgInvalidRoomCode)
		return ErrInvalidRoomCode
	}

	v, err := r.api.ValidateRoom(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to validate room: %w", err)
	}
	if !v.Valid || v.ExpiresAt == nil {
		r.setNotice(ctx, MsgRoomNotFound)
		return ErrRoomNotFound
	}

	return r.exec(ctx, func(loopCtx context.Context) {
		r.enter(loopCtx, code, false, *v.ExpiresAt)
	})
}

// Resume возвращается в комнату из сохраненного Location. Невалидная комната
// оставляет клиента в выборе комнаты и очищает Location.
func (r *Reconciler) Resume(ctx context.Context) (bool, error) {
	roomID, err := r.location.Load()
	if err != nil {
		return false, err
	}
	if roomID == "" {
		return false, nil
	}

	v, err := r.api.ValidateRoom(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("failed to validate room: %w", err)
	}
	if !v.Valid || v.ExpiresAt == nil {
		if err := r.location.Clear(); err != nil {
			r.log.Warn("Failed to clear location", "error", err)
		}
		return false, nil
	}

	err = r.exec(ctx, func(loopCtx context.Context) {
		r.enter(loopCtx, roomID, false, *v.ExpiresAt)
	})
	return err == nil, err
}

// Leave возвращает клиента к выбору комнаты. Работает и из активной, и из истекшей сессии.
func (r *Reconciler) Leave(ctx context.Context) error {
	return r.exec(ctx, func(context.Context) { r.leave() })
}

// CloseRoom закрывает комнату на сервере и выходит из нее
func (r *Reconciler) CloseRoom(ctx context.Context) error {
	roomID := r.State().RoomID
	if roomID == "" {
		return ErrNoRoom
	}
	if err := r.api.CloseRoom(ctx, roomID); err != nil {
		return fmt.Errorf("failed to close room: %w", err)
	}
	return r.Leave(ctx)
}

// ShareText отправляет текст и сразу запрашивает актуальный текст комнаты
func (r *Reconciler) ShareText(ctx context.Context, text string) error {
	roomID, err := r.activeRoom()
	if err != nil {
		return err
	}
	if err := r.api.ShareText(ctx, roomID, text); err != nil {
		return fmt.Errorf("failed to share text: %w", err)
	}
	return r.exec(ctx, func(loopCtx context.Context) { r.poll(loopCtx, pollText) })
}

// UploadImage загружает изображение и сразу обновляет галерею
func (r *Reconciler) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	roomID, err := r.activeRoom()
	if err != nil {
		return "", err
	}
	url, err := r.api.UploadImage(ctx, roomID, filename, data)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return url, r.exec(ctx, func(loopCtx context.Context) { r.poll(loopCtx, pollImages) })
}

func (r *Reconciler) activeRoom() (string, error) {
	s := r.State()
	if !s.SessionActive || s.RoomID == "" {
		return "", ErrNoRoom
	}
	return s.RoomID, nil
}

func (r *Reconciler) setNotice(ctx context.Context, notice string) {
	_ = r.exec(ctx, func(context.Context) {
		if r.state.Phase == PhaseSelecting {
			r.state.Notice = notice
			r.changed()
		}
	})
}

func (r *Reconciler) enter(ctx context.Context, roomID string, isCreator bool, expiresAt time.Time) {
	r.tickers.stop()
	r.session++
	r.state = NewSession(roomID, isCreator, expiresAt, r.clock.Now())

	if err := r.location.Save(roomID); err != nil {
		r.log.Warn("Failed to save location", "error", err, "room_id", roomID)
	}

	if r.state.SessionActive {
		r.tickers = sessionTickers{
			text:      r.clock.NewTicker(r.intervals.Text),
			images:    r.clock.NewTicker(r.intervals.Images),
			presence:  r.clock.NewTicker(r.intervals.Presence),
			countdown: r.clock.NewTicker(r.intervals.Countdown),
		}
		r.poll(ctx, pollText)
		r.poll(ctx, pollImages)
		r.poll(ctx, pollPresence)
	}

	r.log.Info("Entered room", "room_id", roomID, "creator", isCreator, "time_left", r.state.TimeLeftSeconds)
	r.changed()
}

func (r *Reconciler) leave() {
	r.tickers.stop()
	r.session++
	r.state = State{Phase: PhaseSelecting}

	if err := r.location.Clear(); err != nil {
		r.log.Warn("Failed to clear location", "error", err)
	}
	r.changed()
}

// poll запускает запрос в отдельной горутине; результат вернется через r.results
func (r *Reconciler) poll(ctx context.Context, kind pollKind) {
	if !r.state.SessionActive {
		return
	}
	session, roomID := r.session, r.state.RoomID

	go func() {
		res := pollResult{session: session, kind: kind}
		switch kind {
		case pollText:
			res.text, res.err = r.api.GetText(ctx, roomID)
		case pollImages:
			res.images, res.err = r.api.ListImages(ctx, roomID)
		case pollPresence:
			res.validation, res.err = r.api.ValidateRoom(ctx, roomID)
		}

		select {
		case r.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (r *Reconciler) apply(res pollResult) {
	if res.session != r.session || !r.state.SessionActive {
		r.log.Debug("Dropping stale poll result", "kind", res.kind.String(), "session", res.session)
		return
	}

	if res.err != nil {
		// Неактивную комнату обнаружит опрос присутствия
		if !errors.Is(res.err, apperrors.ErrRoomInactive) {
			r.log.Warn("Poll failed", "kind", res.kind.String(), "error", res.err, "room_id", r.state.RoomID)
		}
		return
	}

	switch res.kind {
	case pollText:
		r.state.ApplyText(res.text)
	case pollImages:
		r.state.ApplyImages(res.images)
	case pollPresence:
		r.state.ApplyPresence(res.validation.Valid, res.validation.ExpiresAt, r.clock.Now())
	}
	r.changed()
}

// changed останавливает тикеры истекшей сессии и публикует состояние
func (r *Reconciler) changed() {
	if !r.state.SessionActive {
		r.tickers.stop()
	}

	snapshot := r.state
	snapshot.Images = append([]string(nil), r.state.Images...)

	r.mu.Lock()
	r.snapshot = snapshot
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange(snapshot)
	}
}
