package handlers

import (
	"sync"

	"github.com/Spok95/study-groups-bot/internal/controller"
	"github.com/Spok95/study-groups-bot/internal/session"
	"github.com/Spok95/study-groups-bot/internal/tg"
	"github.com/Spok95/study-groups-bot/internal/view"
)

type shownNotice struct {
	noticeID  uint64
	messageID int
}

// shown: последнее показанное сообщение слота по чату, чтобы не слать одно и то же дважды
// и чтобы по таймеру удалить именно его.
var shown = struct {
	mu sync.Mutex
	m  map[int64]shownNotice
}{m: make(map[int64]shownNotice)}

// showNotice отправляет текущий слот сообщения, если он ещё не показан.
func showNotice(bot tg.Sender, c *controller.Controller) {
	n := c.State().Notice
	if n == nil {
		return
	}
	chatID := c.ChatID()
	shown.mu.Lock()
	prev, ok := shown.m[chatID]
	shown.mu.Unlock()
	if ok && prev.noticeID == n.ID {
		return
	}
	msgID := send(bot, chatID, view.Notice(n), nil)

	shown.mu.Lock()
	shown.m[chatID] = shownNotice{noticeID: n.ID, messageID: msgID}
	shown.mu.Unlock()
}

// ExpireNotice: хук session.Store.OnExpire. Подсказка истекла, убираем её сообщение из чата.
func ExpireNotice(bot tg.Sender, chatID int64, n session.Notice) {
	shown.mu.Lock()
	cur, ok := shown.m[chatID]
	if ok && cur.noticeID == n.ID {
		delete(shown.m, chatID)
	}
	shown.mu.Unlock()
	if !ok || cur.noticeID != n.ID {
		return
	}
	_ = tg.Delete(bot, chatID, cur.messageID)
}

func forgetNotice(chatID int64) {
	shown.mu.Lock()
	delete(shown.m, chatID)
	shown.mu.Unlock()
}
