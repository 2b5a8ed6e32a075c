package app

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"GammaExposure/internal/data"
	"GammaExposure/internal/model"
)

// Stream is the streamer connection the pipeline reads from.
type Stream interface {
	Next(ctx context.Context) (*model.StreamMessage, error)
	Unsubscribe(ctx context.Context, service string) error
	Close() error
}

type PipelineConfig struct {
	Service string
	// UnsubscribeAfter is the number of data messages after which the
	// service is unsubscribed. Zero keeps the subscription.
	UnsubscribeAfter int
	// MaxHeartbeats is the number of notify messages after which the
	// stream is closed and the pipeline returns.
	MaxHeartbeats int
}

type PipelineStats struct {
	DataMessages int
	Heartbeats   int
	Responses    int
	Sales        int
	Unsubscribed bool
}

// RunPipeline consumes the stream until MaxHeartbeats notify messages
// have been seen, recording every time-and-sales print in store. The
// stream is closed on every return path.
func RunPipeline(ctx context.Context, s Stream, cfg PipelineConfig, store *data.TimeSaleStore) (PipelineStats, error) {
	var st PipelineStats
	defer s.Close()

	for {
		msg, err := s.Next(ctx)
		if err != nil {
			return st, err
		}

		switch {
		case msg.HasData():
			st.DataMessages++
			for _, d := range msg.Data {
				st.Sales += record(d, store)
			}
		case msg.HasNotify():
			st.Heartbeats++
			log.Debugf("[STREAM] notify: %+v", msg.Notify[0])
		case msg.HasResponse():
			st.Responses++
			for _, r := range msg.Response {
				log.Infof("[STREAM] %s/%s response: code=%d %s", r.Service, r.Command, r.Content.Code, r.Content.Msg)
			}
		}

		if cfg.UnsubscribeAfter > 0 && !st.Unsubscribed && st.DataMessages >= cfg.UnsubscribeAfter {
			if err := s.Unsubscribe(ctx, cfg.Service); err != nil {
				return st, err
			}
			st.Unsubscribed = true
		}

		if st.Heartbeats >= cfg.MaxHeartbeats {
			log.Infof("[STREAM] %d heartbeats received; closing", st.Heartbeats)
			return st, nil
		}
	}
}

func record(d model.StreamData, store *data.TimeSaleStore) int {
	if !strings.HasPrefix(d.Service, "TIMESALE") {
		log.Debugf("[STREAM] %s data ignored", d.Service)
		return 0
	}

	n := 0
	for _, c := range d.Content {
		sale, err := model.ParseTimeSale(c)
		if err != nil {
			log.Warnf("[STREAM] %s: %v", d.Service, err)
			continue
		}
		log.Infof("[STREAM] %s %s @ %s x %s", d.Service, sale.Symbol, sale.PriceDecimal().StringFixed(2), sale.SizeDecimal().String())
		if store != nil {
			store.Set(sale)
		}
		n++
	}
	return n
}
