package samealert

/*------------------------------------------------------------------
 *
 * Purpose:	Drive the whole decode chain from a PCM byte stream to
 *		routed alerts.
 *
 * Description:	One goroutine reads audio and runs demodulator, frame
 *		synchronizer, reconciler, parser, and router in
 *		sequence.  SAME decoding is strictly sequential -- bit
 *		timing depends on unbroken phase tracking -- so there
 *		is nothing to parallelize before the router.  The
 *		forwarder's I/O runs on its own goroutine behind a
 *		bounded queue so that a slow or reconnecting node never
 *		stalls bit timing.
 *
 *----------------------------------------------------------------*/

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

// Pipeline is one fully wired decoder instance.
type Pipeline struct {
	cfg       *Config
	demod     *Demodulator
	sync      *FrameSync
	router    *Router
	forwarder *Forwarder
	now       func() time.Time
}

// NewPipeline validates the configuration and wires all stages.
// The returned error is a ConfigError or a TransportError from the
// eager first connection; both are fatal at startup.
func NewPipeline(cfg *Config, dial DialFunc) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	locations, err := LoadLocationTable()
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded locations table", "counties", len(locations.byCode))

	var p = &Pipeline{cfg: cfg, now: time.Now}

	p.forwarder = NewForwarder(cfg, dial)
	if err := p.forwarder.Connect(); err != nil {
		return nil, err
	}

	p.router = NewRouter(cfg, locations, func() time.Time { return p.now() }, p.forwarder.Enqueue)
	p.sync = NewFrameSync(cfg.interBurstGapBits(), p.handleBatch, p.handleEOM)
	p.demod = NewDemodulator(cfg.SampleRate, cfg.SquelchLevel, p.sync.RecvBit)

	return p, nil
}

// Run consumes little-endian signed 16 bit mono PCM from audio until
// end of stream or cancellation.  Decode-stage failures never stop
// the run; they cost at most the current burst.
func (p *Pipeline) Run(ctx context.Context, audio io.Reader) error {
	var fwdCtx, cancelFwd = context.WithCancel(context.Background())
	go p.forwarder.Run(fwdCtx)

	defer func() {
		cancelFwd()
		p.forwarder.Stop()
	}()

	logger.Info("Monitoring for alerts", "alert_channel", p.cfg.AlertChannel)
	if p.cfg.TestChannel == TestChannelUnset {
		logger.Info("Test alerts will be ignored (no test channel configured)")
	} else {
		logger.Info("Test alerts will be forwarded", "test_channel", p.cfg.TestChannel)
	}

	var in = bufio.NewReaderSize(audio, 8192)
	var buf [2]byte

	for {
		if err := ctx.Err(); err != nil {
			p.sync.Flush()
			return nil
		}

		if _, err := io.ReadFull(in, buf[:]); err != nil {
			p.sync.Flush()
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				logger.Warn("Audio stream ended, no longer monitoring")
				return nil
			}
			return err
		}

		p.demod.ProcessSample(int16(binary.LittleEndian.Uint16(buf[:])))
	}
}

func (p *Pipeline) handleBatch(candidates []string) {
	header, err := Reconcile(candidates, p.cfg.ReconcileTolerance)
	if err != nil {
		metricReconcileFailures.Inc()
		logger.Warn("Discarding irreconcilable burst batch", "err", err)
		return
	}

	alert, err := ParseHeader(header, p.now())
	if err != nil {
		metricParseFailures.Inc()
		logger.Warn("Discarding malformed header", "err", err)
		return
	}

	logger.Info("Begin SAME voice message",
		"event", alert.EventCode, "station", alert.StationID, "header", alert.RawHeader)
	p.router.Handle(alert)
}

func (p *Pipeline) handleEOM() {
	logger.Info("End SAME voice message")
}
