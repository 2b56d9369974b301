// Package notify — границы внешних коллабораторов: почта и realtime-события.
// Транспорты (SMTP, websocket) живут снаружи; здесь только контракты
// и процессные реализации для одного инстанса.
package notify

import (
	"context"
	"sync"
	"time"

	"quarters/internal/logs"
)

// Mailer — исходящая почта. Ошибки отправки — ExternalServiceError:
// вызывающий логирует и не откатывает основную операцию.
type Mailer interface {
	LeaseInvite(ctx context.Context, to string, leaseID uint, tok, propertyAddress, unitNumber string) error
	RentReminder(ctx context.Context, to, name string, amountCents int64, due time.Time) error
}

// LogMailer пишет письма в лог — заглушка до подключения SMTP-транспорта.
type LogMailer struct{}

func (LogMailer) LeaseInvite(_ context.Context, to string, leaseID uint, _, addr, unit string) error {
	logs.Logger.Infof("mail: lease invite to=%s lease=%d property=%q unit=%s", to, leaseID, addr, unit)
	return nil
}

func (LogMailer) RentReminder(_ context.Context, to, name string, amountCents int64, due time.Time) error {
	logs.Logger.Infof("mail: rent reminder to=%s name=%q amount=%d due=%s", to, name, amountCents, due.Format("2006-01-02"))
	return nil
}

// Имена событий realtime-канала.
const (
	EventSignatureUpdated = "signature:updated"
	EventStatsUpdated     = "stats:updated"
	EventLeaseExecuted    = "lease:executed"
)

// Event — сообщение подписчикам (по договору или по landlord).
type Event struct {
	Name       string `json:"name"`
	LeaseID    uint   `json:"lease_id,omitempty"`
	LandlordID uint   `json:"landlord_id,omitempty"`
}

type Broadcaster interface {
	Publish(Event)
}

// Hub — процессный fan-out; медленный подписчик событие теряет,
// Publish никогда не блокируется.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewHub() *Hub { return &Hub{subs: map[int]chan Event{}} }

func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe возвращает канал событий и функцию отписки.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 16)
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}
