package hostbus

import (
	"context"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// Metadata keys carried on every watermill message.
	metaKeyChannel = "channel"
	metaKeyKind    = "kind"
	metaKeyType    = "type"

	kindNull   = "null"
	kindValue  = "value"
	kindOpaque = "opaque" // present, but the codec could not encode it

	// Named channels travel on channelPrefix+name. The wildcard topic has no
	// prefix, so no channel name can collide with it.
	channelPrefix = "channel:"
	wildcardTopic = "wildcard"
)

// postedObject is the context key under which Post stores the posted value.
type postedObject struct{}

// WatermillBus implements Bus on top of watermill's in-process GoChannel.
//
// Every post becomes a watermill message whose payload is the object encoded
// with the bus Codec, but observers receive the posted Go value itself,
// carried in the message context, so a delivery is exactly what was posted.
// An absent object arrives as Null. Objects the codec cannot encode are
// still delivered; their messages carry an empty payload.
//
// Post returns once every current observer has taken the message off its
// subscription, so two posts from one goroutine reach each observer in order.
// Every observer gets its own SerialQueue between the subscription reader and
// the callback (or the observer's queue), so callbacks never run on the
// reader and posting from inside a callback is safe.
type WatermillBus struct {
	id      string
	pubsub  *gochannel.GoChannel
	codec   Codec
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics *metrics

	nextID atomic.Uint64
	mu     sync.Mutex
	subs   map[uint64]*subscription
	counts map[string]int
	closed bool
	wg     sync.WaitGroup
}

type subscription struct {
	id     uint64
	name   string
	sender any
	queue  Queue
	own    *SerialQueue
	fn     Observer
	live   atomic.Bool
	cancel context.CancelFunc
}

var _ Bus = (*WatermillBus)(nil)

// NewWatermillBus creates a bus backed by a fresh GoChannel.
func NewWatermillBus(opts ...Option) *WatermillBus {
	o := buildOptions(opts)
	id := uuid.NewString()
	logger := o.logger.With("component", "hostbus", "backend", "watermill", "bus_id", id)

	// watermill logs every publish without subscribers at info level.
	levels := map[slog.Level]slog.Level{slog.LevelInfo: slog.LevelDebug}
	var wmLogger watermill.LoggerAdapter = watermill.NopLogger{}
	if o.debug {
		wmLogger = watermill.NewSlogLoggerWithLevelMapping(logger, levels)
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("hostbus")
	}

	b := &WatermillBus{
		id: id,
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            o.buffer,
			BlockPublishUntilSubscriberAck: true,
			PreserveContext:                true,
		}, wmLogger),
		codec:  o.codec,
		tracer: tracer,
		logger: logger,
		subs:   make(map[uint64]*subscription),
		counts: make(map[string]int),
	}
	if o.registerer != nil {
		m, err := newMetrics(o.registerer, "watermill")
		if err != nil {
			logger.Warn("Metrics disabled", "error", err)
		} else {
			b.metrics = m
		}
	}
	return b
}

// ID returns the identifier stamped into the bus's tokens.
func (b *WatermillBus) ID() string {
	return b.id
}

func topicFor(name string) string {
	if name == "" {
		return wildcardTopic
	}
	return channelPrefix + name
}

func spanName(op, name string) string {
	if name == "" {
		name = "*"
	}
	return "hostbus." + op + "." + name
}

// AddObserver implements Bus. It returns the zero Token when the bus is
// closed.
func (b *WatermillBus) AddObserver(name string, sender any, queue Queue, fn Observer) Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Warn("AddObserver on closed bus", "channel", name, "error", ErrClosed)
		return Token{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := b.pubsub.Subscribe(ctx, topicFor(name))
	if err != nil {
		cancel()
		b.logger.Error("Failed to subscribe", "channel", name, "error", err)
		return Token{}
	}

	s := &subscription{
		id:     b.nextID.Add(1),
		name:   name,
		sender: sender,
		queue:  queue,
		own:    NewSerialQueue("hostbus:" + topicFor(name)),
		fn:     fn,
		cancel: cancel,
	}
	s.live.Store(true)
	b.subs[s.id] = s
	b.counts[name]++

	b.wg.Add(1)
	go b.read(s, messages)

	b.metrics.observerAdded(name)
	b.logger.Debug("Observer added", "channel", name, "token", s.id)
	return Token{bus: b.id, id: s.id}
}

// read drains one subscription. Messages are acked as soon as they are
// queued so that a callback posting on the same channel cannot wait on its
// own reader.
func (b *WatermillBus) read(s *subscription, messages <-chan *message.Message) {
	defer b.wg.Done()

	for msg := range messages {
		msg.Ack()
		if !s.live.Load() {
			continue
		}
		n, ok := b.notification(msg)
		if !ok {
			b.logger.Error("Message without posted object", "channel", s.name, "msg_id", msg.UUID)
			continue
		}
		if !matchesSender(s.sender, n.Object) {
			continue
		}

		ctx := msg.Context()
		work := func() {
			if !s.live.Load() {
				return
			}
			_, span := b.tracer.Start(ctx, spanName("deliver", n.Name),
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(
					attribute.String("messaging.system", "watermill"),
					attribute.String("messaging.operation", "process"),
					attribute.String("messaging.destination", n.Name),
					attribute.String("messaging.message_id", msg.UUID),
				),
			)
			defer span.End()

			b.metrics.delivered(n.Name)
			s.fn(n)
		}
		s.own.Dispatch(func() {
			if s.queue == nil {
				work()
				return
			}
			if s.live.Load() {
				s.queue.Dispatch(work)
			}
		})
	}
	b.logger.Debug("Subscription loop ended", "channel", s.name, "token", s.id)
}

func (b *WatermillBus) notification(msg *message.Message) (Notification, bool) {
	n := Notification{Name: msg.Metadata.Get(metaKeyChannel)}
	if msg.Metadata.Get(metaKeyKind) == kindNull {
		n.Object = Null
		return n, true
	}
	obj, ok := msg.Context().Value(postedObject{}).(postedValue)
	if !ok {
		return n, false
	}
	n.Object = obj.v
	return n, true
}

// postedValue wraps the object so that a posted nil interface and a missing
// context value stay distinguishable.
type postedValue struct {
	v any
}

// RemoveObserver implements Bus.
func (b *WatermillBus) RemoveObserver(tok Token, name string, sender any) {
	if tok.IsZero() || tok.bus != b.id {
		return
	}

	b.mu.Lock()
	s, ok := b.subs[tok.id]
	if !ok || (name != "" && s.name != name) || !matchesSender(sender, s.sender) {
		b.mu.Unlock()
		return
	}
	delete(b.subs, s.id)
	b.counts[s.name]--
	if b.counts[s.name] == 0 {
		delete(b.counts, s.name)
	}
	b.mu.Unlock()

	s.stop()
	b.metrics.observerRemoved(s.name)
	b.logger.Debug("Observer removed", "channel", s.name, "token", s.id)
}

func (s *subscription) stop() {
	s.live.Store(false)
	s.cancel()
	s.own.stop()
}

// Post implements Bus. Publish failures are logged; there is nobody to
// return them to.
func (b *WatermillBus) Post(name string, object any) {
	b.mu.Lock()
	closed := b.closed
	wildcard := b.counts[""] > 0
	b.mu.Unlock()
	if closed {
		b.logger.Warn("Post on closed bus", "channel", name, "error", ErrClosed)
		return
	}
	b.metrics.posted(name)

	ctx, span := b.tracer.Start(context.Background(), spanName("post", name),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.destination", name),
		),
	)
	defer span.End()

	msg := b.encode(ctx, name, object)
	span.SetAttributes(
		attribute.String("messaging.message_id", msg.UUID),
		attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
	)

	topics := []string{topicFor(name)}
	if name != "" && wildcard {
		topics = append(topics, wildcardTopic)
	}
	for _, topic := range topics {
		if err := b.pubsub.Publish(topic, msg); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			b.logger.Error("Failed to publish", "channel", name, "topic", topic, "msg_id", msg.UUID, "error", err)
		}
	}
}

func (b *WatermillBus) encode(ctx context.Context, name string, object any) *message.Message {
	var (
		payload []byte
		kind    = kindNull
	)
	if !IsAbsent(object) {
		ctx = context.WithValue(ctx, postedObject{}, postedValue{v: object})
		kind = kindValue
		data, err := b.codec.Marshal(object)
		if err != nil {
			kind = kindOpaque
			b.logger.Debug("Object not encodable, publishing without payload", "channel", name, "type", TypeTag(object), "error", err)
		} else {
			payload = data
		}
	}

	msg := message.NewMessageWithContext(ctx, watermill.NewUUID(), payload)
	msg.Metadata.Set(metaKeyChannel, name)
	msg.Metadata.Set(metaKeyKind, kind)
	if kind != kindNull {
		msg.Metadata.Set(metaKeyType, TypeTag(object))
	}
	return msg
}

// Events implements Bus.
func (b *WatermillBus) Events(ctx context.Context, name string) iter.Seq[Notification] {
	return streamEvents(ctx, b, b.metrics, name)
}

// ObserverCount implements Bus.
func (b *WatermillBus) ObserverCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[name]
}

// Shutdown closes the bus when it is owned by a service container.
func (b *WatermillBus) Shutdown() error {
	return b.Close()
}

// Close removes every observer and shuts the GoChannel down. It must not be
// called from inside an observer callback.
func (b *WatermillBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[uint64]*subscription)
	b.counts = make(map[string]int)
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
		b.metrics.observerRemoved(s.name)
	}
	err := b.pubsub.Close()
	b.wg.Wait()
	for _, s := range subs {
		_ = s.own.Close()
	}
	b.logger.Debug("Bus closed")
	return err
}
