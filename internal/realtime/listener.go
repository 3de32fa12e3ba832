package realtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/limbo/streek/pkg/entity"
)

// Channel is the notification channel the database triggers write to.
const Channel = "streek_changes"

// Stream yields raw notification payloads of one LISTEN session.
type Stream interface {
	Next(ctx context.Context) ([]byte, error)
	Close()
}

type Source interface {
	Listen(ctx context.Context, channel string) (Stream, error)
}

type Publisher interface {
	Publish(ev entity.ChangeEvent)
}

// PoolSource listens on a connection taken out of the pool.
type PoolSource struct {
	pool *pgxpool.Pool
}

func NewPoolSource(pool *pgxpool.Pool) *PoolSource {
	return &PoolSource{pool: pool}
}

func (ps *PoolSource) Listen(ctx context.Context, channel string) (Stream, error) {
	conn, err := ps.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.New("acquiring listen connection error: " + err.Error())
	}
	_, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize())
	if err != nil {
		conn.Release()
		return nil, errors.New("listen error: " + err.Error())
	}
	return &poolStream{conn: conn}, nil
}

type poolStream struct {
	conn *pgxpool.Conn
}

func (s *poolStream) Next(ctx context.Context) ([]byte, error) {
	n, err := s.conn.Conn().WaitForNotification(ctx)
	if err != nil {
		return nil, err
	}
	return []byte(n.Payload), nil
}

// Close takes the connection out of the pool so no LISTEN state leaks to other users of it.
func (s *poolStream) Close() {
	conn := s.conn.Hijack()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn.Close(ctx)
}

// Listener reads database change notifications and publishes them to the hub,
// reconnecting with exponential backoff when the connection drops.
type Listener struct {
	source     Source
	publisher  Publisher
	logger     *slog.Logger
	newBackOff func() *backoff.ExponentialBackOff
}

func NewListener(source Source, publisher Publisher) *Listener {
	return &Listener{
		source:    source,
		publisher: publisher,
		logger:    slog.Default().With(slog.String("component", "realtime_listener")),
		newBackOff: func() *backoff.ExponentialBackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// WithBackOff replaces the reconnect policy.
func (l *Listener) WithBackOff(newBackOff func() *backoff.ExponentialBackOff) *Listener {
	l.newBackOff = newBackOff
	return l
}

// Run blocks until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	b := l.newBackOff()
	op := func() error {
		stream, err := l.source.Listen(ctx, Channel)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer stream.Close()
		b.Reset()
		l.logger.Info("listening for changes", slog.String("channel", Channel))
		for {
			payload, err := stream.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return err
			}
			ev, err := Decode(payload)
			if err != nil {
				l.logger.Warn("dropping change", slog.String("error", err.Error()))
				continue
			}
			l.publisher.Publish(ev)
		}
	}
	err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		l.logger.Warn("change listener disconnected", slog.String("error", err.Error()), slog.Duration("retry_in", wait))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
