package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"sudooom.im.mahjong/internal/game/event"
	"sudooom.im.mahjong/pkg/proto"
)

// Publisher 发布接口, *nats.Conn 满足该接口
type Publisher interface {
	Publish(subject string, data []byte) error
}

// EventPublisher 把牌桌事件逐个投递到接收者的会话 Subject, 实现 event.Sink
type EventPublisher struct {
	pub    Publisher
	logger *slog.Logger
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(pub Publisher) *EventPublisher {
	return &EventPublisher{
		pub:    pub,
		logger: slog.Default().With("component", "EventPublisher"),
	}
}

// Publish 按顺序发布. 单条失败不影响其余事件, 错误汇总返回.
func (p *EventPublisher) Publish(ctx context.Context, events []event.Event) error {
	var errs []error
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := json.Marshal(toDownstream(ev))
		if err != nil {
			p.logger.Error("Failed to marshal event", "type", ev.Type, "tableId", ev.TableID, "error", err)
			errs = append(errs, fmt.Errorf("marshal %s: %w", ev.Type, err))
			continue
		}

		for _, session := range ev.Recipients {
			subject := proto.BuildSessionEventsSubject(session)
			if err := p.pub.Publish(subject, data); err != nil {
				p.logger.Warn("Failed to publish event", "subject", subject, "type", ev.Type, "error", err)
				errs = append(errs, fmt.Errorf("publish %s to %s: %w", ev.Type, session, err))
			}
		}
	}
	return errors.Join(errs...)
}

func toDownstream(ev event.Event) proto.DownstreamEvent {
	return proto.DownstreamEvent{
		Type:     string(ev.Type),
		TableID:  ev.TableID,
		Seq:      ev.Seq,
		Audience: ev.Audience.String(),
		Payload:  ev.Payload,
		At:       ev.At.UnixMilli(),
	}
}
