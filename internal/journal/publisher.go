package journal

import (
	"context"
	"encoding/binary"
	"time"

	"execcore/internal/codec"
	"execcore/pkg/exception"

	"github.com/segmentio/kafka-go"
	"github.com/yanun0323/errors"
)

const seqHeader = "seq"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards records to a Kafka topic, keyed by symbol so one
// instrument stays on one partition. Values use the fixed binary event layout.
type Publisher struct {
	w    messageWriter
	msgs []kafka.Message
	slab []byte
}

func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "kafka brokers and topic are required")
	}
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.CRC32Balancer{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}), nil
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{w: w}
}

func (p *Publisher) Write(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	// the writer may hold values until the batch is acknowledged, so each call
	// gets a fresh slab
	const width = codec.EventPayloadSize + 8
	p.slab = make([]byte, len(records)*width)
	p.msgs = p.msgs[:0]
	for i, r := range records {
		chunk := p.slab[i*width : (i+1)*width]
		seq := chunk[codec.EventPayloadSize:]
		binary.BigEndian.PutUint64(seq, r.Seq)
		p.msgs = append(p.msgs, kafka.Message{
			Key:     codec.EventKey(r.Event),
			Value:   codec.EncodeEvent(chunk[:0:codec.EventPayloadSize], r.Event),
			Headers: []kafka.Header{{Key: seqHeader, Value: seq}},
		})
	}

	if err := p.w.WriteMessages(ctx, p.msgs...); err != nil {
		return errors.Wrapf(err, "publish %d events", len(records))
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
