package session

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/study-groups-bot/internal/logging"
	"github.com/Spok95/study-groups-bot/internal/metrics"
)

// Op: вид запроса, у которого есть своё поколение. Новый Begin(op) делает все прежние ответы этого op устаревшими.
type Op string

const (
	OpLogin        Op = "login"
	OpGroups       Op = "groups"
	OpStats        Op = "stats"
	OpDistribution Op = "distribution"
	OpProfile      Op = "profile"
)

// ScheduleOp: отдельное поколение на расписание каждой группы.
func ScheduleOp(groupID int64) Op {
	return Op("schedules:" + strconv.FormatInt(groupID, 10))
}

// Token выдаётся на старте запроса; ответ применяется, только если токен всё ещё текущий.
type Token struct {
	op    Op
	seq   uint64
	epoch uint64
}

func (t Token) Op() Op { return t.op }

// Stopper: то, что возвращает time.AfterFunc; отдельный тип, чтобы в тестах подменять таймеры.
type Stopper interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Stopper

func realAfterFunc(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }

const DefaultWarningTTL = 6 * time.Second

type Store struct {
	mu    sync.Mutex
	state State
	epoch uint64
	seqs  map[Op]uint64

	warningTTL  time.Duration
	afterFunc   AfterFunc
	timer       Stopper
	timerNotice uint64
	onExpire    func(Notice)

	log *zap.Logger
}

type Option func(*Store)

func WithWarningTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.warningTTL = d
		}
	}
}

func WithAfterFunc(f AfterFunc) Option {
	return func(s *Store) {
		if f != nil {
			s.afterFunc = f
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = logging.OrNop(l) }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		state:      Initial(),
		seqs:       make(map[Op]uint64),
		warningTTL: DefaultWarningTTL,
		afterFunc:  realAfterFunc,
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnExpire: хук на автоснятие подсказки по таймеру (бот удаляет сообщение из чата).
// Вызывается вне блокировки.
func (s *Store) OnExpire(f func(Notice)) {
	s.mu.Lock()
	s.onExpire = f
	s.mu.Unlock()
}

// State: снимок текущего состояния. Срезы и map внутри не меняются после публикации.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Begin(op Op) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[op]++
	return Token{op: op, seq: s.seqs[op], epoch: s.epoch}
}

// Epoch: токен без поколения, устаревает только при выходе из сессии.
// Нужен для аддитивных операций (отзывы), где более новый запрос не отменяет предыдущий.
func (s *Store) Epoch() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Token{epoch: s.epoch}
}

// Current: не устарел ли токен (не было ли нового Begin того же op или выхода из сессии).
func (s *Store) Current(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(t)
}

func (s *Store) currentLocked(t Token) bool {
	if t.epoch != s.epoch {
		return false
	}
	return t.op == "" || s.seqs[t.op] == t.seq
}

// Apply применяет событие от ответа сервера. Устаревший ответ отбрасывается: false.
func (s *Store) Apply(t Token, e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(t) {
		metrics.StaleResponses.WithLabelValues(opLabel(t.op)).Inc()
		s.log.Debug("stale response dropped", zap.String("op", string(t.op)), zap.Uint64("seq", t.seq))
		return false
	}
	s.commitLocked(Reduce(s.state, e))
	return true
}

// Settle применяет служебное событие операции (сброс загрузки) только пока токен актуален.
// Устаревший токен молча пропускается: сам ответ уже учтён в Apply.
func (s *Store) Settle(t Token, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentLocked(t) {
		s.commitLocked(Reduce(s.state, e))
	}
}

// Dispatch: события без сетевого ответа (ввод пользователя, локальная валидация).
func (s *Store) Dispatch(e Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(Reduce(s.state, e))
	return s.state
}

// Reset при выходе начинает новую эпоху (все запросы в полёте устаревают), снимает таймер и сбрасывает состояние.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.commitLocked(Reduce(s.state, LoggedOut{}))
}

func (s *Store) commitLocked(next State) {
	prevID := noticeID(s.state.Notice)
	s.state = next
	if noticeID(next.Notice) == prevID {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.timerNotice = 0
	}
	if next.Notice != nil && next.Notice.Kind == NoticeWarning {
		id := next.Notice.ID
		s.timerNotice = id
		s.timer = s.afterFunc(s.warningTTL, func() { s.expire(id) })
		metrics.WarningsShown.Inc()
	}
}

// expire срабатывает по таймеру: снимаем подсказку, только если слот всё ещё занят ею же.
func (s *Store) expire(id uint64) {
	s.mu.Lock()
	if s.timerNotice == id {
		s.timer = nil
		s.timerNotice = 0
	}
	if noticeID(s.state.Notice) != id {
		s.mu.Unlock()
		return
	}
	n := *s.state.Notice
	s.state = Reduce(s.state, NoticeCleared{ID: id})
	hook := s.onExpire
	s.mu.Unlock()

	if hook != nil {
		hook(n)
	}
}

func opLabel(op Op) string {
	if op == "" {
		return "session"
	}
	if strings.HasPrefix(string(op), "schedules:") {
		return "schedules"
	}
	return string(op)
}
