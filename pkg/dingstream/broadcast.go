package dingstream

import (
	"context"
	"strings"
	"sync"

	"github.com/amir-yaghoubi/mqttpattern"
	"go.uber.org/zap"
)

// matcher reports whether a consumer wants frames published on topic.
type matcher func(topic string) bool

// makeTopicMatcher builds the match function for a registered topic: "*" is
// a catch-all, MQTT-style patterns ("+"/"#") match structurally, anything
// else matches exactly.
func makeTopicMatcher(pattern string) matcher {
	if pattern == "*" {
		return func(string) bool { return true }
	}
	if strings.ContainsAny(pattern, "+#") {
		return func(topic string) bool {
			return mqttpattern.Matches(pattern, topic)
		}
	}
	return func(topic string) bool { return topic == pattern }
}

// CallbackHandler processes one CALLBACK frame delivered to a topic
// consumer. Returned errors are logged; they never stop the consumer.
type CallbackHandler func(ctx context.Context, frame *DownstreamFrame) error

// consumer is one topic listener: a buffered queue fed by the broadcast and
// drained by its own goroutine, so slow handlers never back-pressure the
// dispatcher.
type consumer struct {
	topic  string
	match  matcher
	handle CallbackHandler
	logger *zap.Logger

	queue     chan *DownstreamFrame
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newConsumer(topic string, handler CallbackHandler, queueSize int, logger *zap.Logger) *consumer {
	return &consumer{
		topic:  topic,
		match:  makeTopicMatcher(topic),
		handle: handler,
		logger: logger,
		queue:  make(chan *DownstreamFrame, queueSize),
		done:   make(chan struct{}),
	}
}

func (s *consumer) start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case frame := <-s.queue:
				s.dispatch(ctx, frame)
			case <-s.done:
				s.drain(ctx)
				return
			}
		}
	}()
}

func (s *consumer) dispatch(ctx context.Context, frame *DownstreamFrame) {
	if err := s.handle(ctx, frame); err != nil {
		s.logger.Warn("callback handler failed",
			zap.String("topic", frame.Headers.Topic),
			zap.String("messageId", frame.Headers.MessageID),
			zap.Error(err))
	}
}

// drain processes whatever is still queued at shutdown.
func (s *consumer) drain(ctx context.Context) {
	for {
		select {
		case frame := <-s.queue:
			s.dispatch(ctx, frame)
		default:
			return
		}
	}
}

// offer enqueues a frame without blocking. A full queue drops the frame for
// this consumer only.
func (s *consumer) offer(frame *DownstreamFrame) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.queue <- frame:
		return true
	default:
		s.logger.Warn("consumer queue full, frame dropped",
			zap.String("topic", s.topic),
			zap.String("messageId", frame.Headers.MessageID))
		return false
	}
}

func (s *consumer) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

// broadcast fans published CALLBACK frames out to every matching consumer.
// One consumer per registered topic; re-registering replaces the previous
// consumer rather than stacking another one.
type broadcast struct {
	mu        sync.Mutex
	consumers map[string]*consumer
	logger    *zap.Logger
}

func newBroadcast(logger *zap.Logger) *broadcast {
	return &broadcast{
		consumers: make(map[string]*consumer),
		logger:    logger,
	}
}

// register installs the consumer for its topic, closing any predecessor
// after its queue is drained.
func (b *broadcast) register(ctx context.Context, sub *consumer) {
	b.mu.Lock()
	prev := b.consumers[sub.topic]
	b.consumers[sub.topic] = sub
	b.mu.Unlock()

	if prev != nil {
		prev.close()
	}
	sub.start(ctx)
}

// publish delivers the frame to every consumer whose matcher accepts its
// topic. Never blocks on consumer progress.
func (b *broadcast) publish(frame *DownstreamFrame) {
	b.mu.Lock()
	matched := make([]*consumer, 0, len(b.consumers))
	for _, sub := range b.consumers {
		if sub.match(frame.Headers.Topic) {
			matched = append(matched, sub)
		}
	}
	b.mu.Unlock()

	if len(matched) == 0 {
		b.logger.Debug("callback frame with no consumer",
			zap.String("topic", frame.Headers.Topic))
		return
	}
	for _, sub := range matched {
		sub.offer(frame)
	}
}

func (b *broadcast) closeAll() {
	b.mu.Lock()
	subs := make([]*consumer, 0, len(b.consumers))
	for _, sub := range b.consumers {
		subs = append(subs, sub)
	}
	b.consumers = make(map[string]*consumer)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}
