package nats

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"sudooom.im.mahjong/pkg/proto"
)

// CommandHandler 上行消息处理器
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd *proto.Command)
	HandleSessionOffline(ctx context.Context, ev *proto.SessionOffline)
}

// SubscriberConfig Worker 配置
type SubscriberConfig struct {
	WorkerCount int // Worker 数量, 也是分片数
	BufferSize  int // 所有分片的缓冲总量
}

// CommandSubscriber 命令订阅器. 队列组内多个引擎实例分摊消息;
// 实例内按会话分片, 同一会话的命令总由同一个 worker 顺序处理.
type CommandSubscriber struct {
	nc           *nats.Conn
	handler      CommandHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	shards       []chan *proto.UpstreamMessage
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

// NewCommandSubscriber 创建命令订阅器
func NewCommandSubscriber(nc *nats.Conn, handler CommandHandler, config SubscriberConfig) *CommandSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 32
	}
	if config.BufferSize < config.WorkerCount {
		config.BufferSize = config.WorkerCount * 128
	}

	s := &CommandSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default().With("component", "CommandSubscriber"),
		config:  config,
		shards:  make([]chan *proto.UpstreamMessage, config.WorkerCount),
	}
	perShard := config.BufferSize / config.WorkerCount
	for i := range s.shards {
		s.shards[i] = make(chan *proto.UpstreamMessage, perShard)
	}
	return s
}

// Start 启动 worker 并订阅命令 Subject
func (s *CommandSubscriber) Start(ctx context.Context) error {
	cancel := s.startWorkers(ctx)

	sub, err := s.nc.QueueSubscribe(proto.SubjectEngineCommand, proto.QueueGroupEngine, func(msg *nats.Msg) {
		s.enqueue(msg.Data)
	})
	if err != nil {
		cancel()
		s.wg.Wait()
		return err
	}

	s.subscription = sub
	s.logger.Info("NATS subscriber started",
		"subject", proto.SubjectEngineCommand,
		"queue", proto.QueueGroupEngine,
		"workers", len(s.shards),
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

func (s *CommandSubscriber) startWorkers(ctx context.Context) context.CancelFunc {
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.wg.Add(len(s.shards))
	for _, shard := range s.shards {
		go s.worker(workerCtx, shard)
	}
	return cancel
}

// enqueue 解码后按会话投到对应分片, 分片已满时丢弃
func (s *CommandSubscriber) enqueue(data []byte) bool {
	msg, ok := s.decode(data)
	if !ok {
		return false
	}
	session := sessionOf(msg)
	select {
	case s.shards[s.shardFor(session)] <- msg:
		return true
	default:
		s.logger.Warn("Command shard full, dropping message", "session", session)
		return false
	}
}

func (s *CommandSubscriber) decode(data []byte) (*proto.UpstreamMessage, bool) {
	var msg proto.UpstreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Error("Failed to unmarshal message", "error", err)
		return nil, false
	}
	if msg.Command == nil && msg.SessionOffline == nil {
		s.logger.Warn("Empty upstream message")
		return nil, false
	}
	return &msg, true
}

func sessionOf(msg *proto.UpstreamMessage) string {
	if msg.Command != nil {
		return msg.Command.Session
	}
	return msg.SessionOffline.Session
}

func (s *CommandSubscriber) shardFor(session string) int {
	h := fnv.New32a()
	h.Write([]byte(session))
	return int(h.Sum32() % uint32(len(s.shards)))
}

func (s *CommandSubscriber) worker(ctx context.Context, shard <-chan *proto.UpstreamMessage) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-shard:
			s.dispatch(ctx, msg)
		}
	}
}

func (s *CommandSubscriber) dispatch(ctx context.Context, msg *proto.UpstreamMessage) {
	if msg.Command != nil {
		s.handler.HandleCommand(ctx, msg.Command)
		return
	}
	s.handler.HandleSessionOffline(ctx, msg.SessionOffline)
}

// Stop 先退订再停 worker. 分片通道不关闭, 迟到的回调最多写进缓冲区.
func (s *CommandSubscriber) Stop() error {
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()

	s.logger.Info("NATS subscriber stopped")
	return nil
}

// GetBufferUsage 所有分片的积压量与总容量
func (s *CommandSubscriber) GetBufferUsage() (current int, capacity int) {
	for _, shard := range s.shards {
		current += len(shard)
		capacity += cap(shard)
	}
	return current, capacity
}
