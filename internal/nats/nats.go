package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	libnats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/zhulik/pips"

	"jobwarden/internal/config"
	"jobwarden/internal/core"
)

const (
	appName = "jobwarden"

	SubjectEvents = "jobwarden.event"
	SubjectAudit  = "jobwarden.audit"

	ConsumerModerator = "moderator"
	ConsumerArchiver  = "archiver"
)

type NATS struct {
	Logger *slog.Logger
	Config *config.Config

	JS jetstream.JetStream
	KV jetstream.KeyValue
}

func (n *NATS) Init(ctx context.Context) error {
	n.Logger = n.Logger.With("component", "nats")

	nc, err := libnats.Connect(n.Config.NATSURL)
	if err != nil {
		return err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return err
	}

	n.JS = js

	if n.Config.NATSInit {
		if err := n.initNATS(ctx); err != nil {
			return err
		}
	}

	kv, err := js.KeyValue(ctx, appName)
	if err != nil {
		return err
	}
	n.KV = kv

	return nil
}

func (n *NATS) HealthCheck(context.Context) error {
	_, err := n.JS.Conn().RTT()
	return err
}

func (n *NATS) Shutdown(context.Context) error {
	return n.JS.Conn().Drain()
}

// Publish publishes with a message ID header so JetStream deduplicates
// redelivered gateway events.
func (n *NATS) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	msg := &libnats.Msg{
		Subject: subject,
		Data:    data,
		Header: libnats.Header{
			libnats.MsgIdHdr: []string{msgID},
		},
	}
	_, err := n.JS.PublishMsg(ctx, msg)
	return err
}

// PublishAudit emits a moderation audit record for the archiver.
func (n *NATS) PublishAudit(ctx context.Context, rec core.AuditRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = n.JS.Publish(ctx, SubjectAudit, data)
	return err
}

// ConsumeToPipeline feeds a durable consumer's messages into the pipeline
// and blocks until the context is done or the pipeline fails.
func (n *NATS) ConsumeToPipeline(ctx context.Context, consumer string, pipeline *pips.Pipeline[jetstream.Msg, any]) error {
	cons, err := n.JS.Consumer(ctx, appName, consumer)
	if err != nil {
		return err
	}

	iter, err := cons.Messages()
	if err != nil {
		return err
	}

	ch := make(chan pips.D[jetstream.Msg])
	go func() {
		<-ctx.Done()
		iter.Stop()
	}()

	go func() {
		defer close(ch)
		for {
			msg, err := iter.Next()
			if err != nil {
				return
			}
			ch <- pips.NewD(msg)
		}
	}()

	return pipeline.
		Run(ctx, ch).
		Wait(ctx)
}

func (n *NATS) initNATS(ctx context.Context) error {
	n.Logger.Info("Initializing NATS")

	_, err := n.JS.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     appName,
		Subjects: []string{appName + ".*"},
		MaxAge:   24 * time.Hour,
	})
	if err != nil {
		return err
	}
	n.Logger.Info("Stream created or updated", "name", appName)

	for consumer, subject := range map[string]string{
		ConsumerModerator: SubjectEvents,
		ConsumerArchiver:  SubjectAudit,
	} {
		_, err = n.JS.CreateOrUpdateConsumer(ctx, appName, jetstream.ConsumerConfig{
			Durable:       consumer,
			FilterSubject: subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
		})
		if err != nil {
			return err
		}
		n.Logger.Info("Consumer created or updated", "name", consumer, "subject", subject)
	}

	_, err = n.JS.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: appName,
	})
	if err != nil {
		return err
	}
	n.Logger.Info("KeyValue created or updated", "name", appName)

	return nil
}
