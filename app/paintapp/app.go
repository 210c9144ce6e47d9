// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package paintapp defines the logic for the "lightpaint" app.
//
// The app loads images from a directory, paints them across a DotStar strip
// one column at a time, and optionally records or replays the painted
// frames. The strip is driven either through a local SPI device file or a
// networked UDP strip bridge.
package paintapp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/danjacques/golightpaint/capture"
	"github.com/danjacques/golightpaint/catalog"
	"github.com/danjacques/golightpaint/lightpaint"
	"github.com/danjacques/golightpaint/paint"
	"github.com/danjacques/golightpaint/pixel"
	"github.com/danjacques/golightpaint/strip"
	"github.com/danjacques/golightpaint/support/logging"
	"github.com/danjacques/golightpaint/support/network"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	// Status colors, dim so they are visible without being blinding.
	colorLoading    = pixel.P{Red: 1}
	colorProcessing = pixel.P{Red: 1, Green: 1}
	colorReady      = pixel.P{Green: 1}

	// colorSpeed shows the selected speed in interactive mode.
	colorSpeed = pixel.P{Blue: 0x80}

	// readyDelay is how long the "ready" indicator is shown before painting.
	readyDelay = 250 * time.Millisecond
)

// options holds the app's command-line configuration.
type options struct {
	images string
	index  int
	all    bool

	leds        int
	gamma       gammaFlag
	balance     balanceFlag
	avgCurrent  float64
	peakCurrent float64
	order       pixel.OrderFlag
	vflip       bool

	duration time.Duration
	passes   int
	pause    time.Duration
	fps      int

	encoder     string
	interactive bool

	device string
	udp    string

	record      string
	compression capture.CompressionFlag
	replay      string

	metrics string
	verbose bool
}

func defaultOptions() options {
	cfg := lightpaint.DefaultConfig()
	return options{
		leds:        144,
		gamma:       gammaFlag(cfg.Gamma),
		balance:     balanceFlag(cfg.MaxBrightness),
		avgCurrent:  cfg.AverageCurrent,
		peakCurrent: cfg.PeakCurrent,
		order:       pixel.OrderFlag(cfg.Order),
		duration:    2 * time.Second,
		passes:      1,
		pause:       time.Second,
		compression: capture.CompressionFlag(capture.CompressionSnappy),
	}
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.images, "images", o.images, "Directory containing images to paint.")
	fs.IntVar(&o.index, "index", o.index, "Index of the image to paint, in name order.")
	fs.BoolVar(&o.all, "all", o.all, "Paint every image in turn, starting at --index.")

	fs.IntVar(&o.leds, "leds", o.leds, "Number of LEDs in the strip.")
	fs.Var(&o.gamma, "gamma", "Gamma exponent, either one value or three comma-separated (R,G,B).")
	fs.Var(&o.balance, "balance", "Color balance, as the hex color of full-brightness white.")
	fs.Float64Var(&o.avgCurrent, "avg-ma", o.avgCurrent, "Average current budget across a pass, in mA.")
	fs.Float64Var(&o.peakCurrent, "peak-ma", o.peakCurrent, "Peak current budget for any single column, in mA.")
	fs.Var(&o.order, "order", "Strip color channel order (e.g., \"brg\").")
	fs.BoolVar(&o.vflip, "vflip", o.vflip, "The strip's input end is at the bottom of the image.")

	fs.DurationVar(&o.duration, "duration", o.duration, "Duration of each pass.")
	fs.IntVar(&o.passes, "passes", o.passes, "Number of passes to paint for each image.")
	fs.DurationVar(&o.pause, "pause", o.pause, "Pause in between passes.")
	fs.IntVar(&o.fps, "fps", o.fps, "If >0, limit painting to this many frames per second.")
	fs.StringVar(&o.encoder, "encoder", o.encoder,
		"If set, a mouse device (e.g., /dev/input/mouse0) whose horizontal motion drives each pass.")
	fs.BoolVar(&o.interactive, "interactive", o.interactive,
		"Read commands from standard input to select images and speeds, and to start passes.")

	fs.StringVar(&o.device, "device", o.device, "Path to the SPI device file driving the strip.")
	fs.StringVar(&o.udp, "udp", o.udp, "Address (host:port) of a UDP strip bridge.")

	fs.StringVar(&o.record, "record", o.record, "Record painted frames to this capture file.")
	fs.Var(&o.compression, "compression",
		fmt.Sprintf("Compression for recorded captures. Options are: %s", capture.CompressionFlagValues()))
	fs.StringVar(&o.replay, "replay", o.replay, "Replay this capture file instead of painting images.")

	fs.StringVar(&o.metrics, "metrics", o.metrics, "If set, serve Prometheus metrics on this address.")
	fs.BoolVarP(&o.verbose, "verbose", "v", o.verbose, "Enable verbose logging.")
}

func (o *options) validate() error {
	switch {
	case o.images == "" && o.replay == "":
		return errors.New("one of --images or --replay is required")
	case o.leds <= 0:
		return errors.Errorf("--leds must be positive, got %d", o.leds)
	case o.passes <= 0:
		return errors.Errorf("--passes must be positive, got %d", o.passes)
	case o.index < 0:
		return errors.Errorf("--index must not be negative, got %d", o.index)
	case o.device != "" && o.udp != "":
		return errors.New("--device and --udp are mutually exclusive")
	case o.interactive && o.replay != "":
		return errors.New("--interactive cannot be used with --replay")
	}
	return nil
}

// config builds the painter configuration described by the options.
func (o *options) config() lightpaint.Config {
	cfg := lightpaint.DefaultConfig()
	cfg.Gamma = [3]float64(o.gamma)
	cfg.MaxBrightness = [3]uint8(o.balance)
	cfg.AverageCurrent = o.avgCurrent
	cfg.PeakCurrent = o.peakCurrent
	cfg.Order = o.order.Value()
	cfg.VerticalFlip = o.vflip
	return cfg
}

// recordPath returns the capture path for the image at index. When several
// images are painted, each gets its own capture, named after the image.
func (o *options) recordPath(name string) string {
	if !o.all {
		return o.record
	}
	ext := filepath.Ext(o.record)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return fmt.Sprintf("%s.%s%s", strings.TrimSuffix(o.record, ext), base, ext)
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if !verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zl, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return zl.Sugar(), nil
}

// Main is the main entry point.
func Main() {
	opts := defaultOptions()
	fs := pflag.NewFlagSet(filepath.Base(os.Args[0]), pflag.ExitOnError)
	opts.addFlags(fs)
	_ = fs.Parse(os.Args[1:])

	logger, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not create logger: %s\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := opts.validate(); err != nil {
		logger.Errorf("Invalid options: %s", err)
		os.Exit(2)
	}

	c, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)
	go func() {
		if sig, ok := <-signalC; ok {
			logger.Infof("Received signal %s; stopping.", sig)
			cancelFunc()
		}
	}()
	defer signal.Stop(signalC)

	a := app{opts: &opts, logger: logger}
	if err := a.run(c); err != nil && errors.Cause(err) != context.Canceled {
		logger.Errorf("Failed: %s", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

type app struct {
	opts   *options
	logger logging.L

	// openSinkFunc, if not nil, replaces the configured strip sink.
	openSinkFunc func() (strip.Sink, error)
	// openEncoderFunc, if not nil, replaces the configured encoder device.
	openEncoderFunc func() (io.ReadCloser, error)
	// commands is the source of interactive commands. If nil, standard input
	// is used.
	commands io.Reader

	// encoder, if not nil, drives each pass instead of the clock.
	encoder *paint.EncoderSweep
}

func (a *app) run(c context.Context) error {
	if a.opts.metrics != "" {
		stop, err := a.serveMetrics()
		if err != nil {
			return err
		}
		defer stop()
	}

	sink, err := a.openSink()
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			a.logger.Warnf("Failed to close strip: %s", err)
		}
	}()

	p := paint.Player{
		Sink:   sink,
		Logger: a.logger,
	}
	if a.opts.fps > 0 {
		p.FrameInterval = time.Second / time.Duration(a.opts.fps)
	}

	if a.opts.replay != "" {
		return a.replay(c, &p)
	}

	if a.opts.encoder != "" || a.openEncoderFunc != nil {
		stop, err := a.startEncoder(c)
		if err != nil {
			return err
		}
		defer stop()
	}
	return a.paintImages(c, &p)
}

// startEncoder begins feeding the encoder device's motion into a.encoder. The
// returned function stops it.
func (a *app) startEncoder(c context.Context) (func(), error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if a.openEncoderFunc != nil {
		rc, err = a.openEncoderFunc()
	} else {
		rc, err = os.Open(a.opts.encoder)
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening encoder device")
	}

	a.encoder = &paint.EncoderSweep{}
	me := paint.MouseEncoder{
		Sweep:  a.encoder,
		Logger: logging.WithPrefix(a.logger, "encoder: "),
	}

	c, cancelFunc := context.WithCancel(c)
	go func() {
		// Once stopped, a failed read from the closed device is expected.
		if err := me.Run(c, rc); err != nil && c.Err() == nil {
			a.logger.Warnf("Encoder stopped: %s", err)
		}
	}()
	a.logger.Infof("Passes are driven by encoder %q.", a.opts.encoder)

	return func() {
		cancelFunc()
		if err := rc.Close(); err != nil {
			a.logger.Warnf("Failed to close encoder: %s", err)
		}
	}, nil
}

// sweep returns the Sweep for a single pass at speed.
func (a *app) sweep(speed paint.Speed) paint.Sweep {
	if a.encoder == nil {
		return paint.TimedSweep{Duration: speed.Duration()}
	}
	a.encoder.Scale = speed.EncoderScale()
	a.encoder.Reset()
	return a.encoder
}

func (a *app) openSink() (strip.Sink, error) {
	switch {
	case a.openSinkFunc != nil:
		return a.openSinkFunc()

	case a.opts.device != "":
		fd, err := os.OpenFile(a.opts.device, os.O_WRONLY, 0)
		if err != nil {
			return nil, errors.Wrap(err, "opening strip device")
		}
		a.logger.Infof("Painting to device %q.", a.opts.device)
		return strip.WriterSink(fd), nil

	case a.opts.udp != "":
		uo := network.UDPOptions{Address: a.opts.udp}
		rds := uo.ResilientSender()
		rds.Logger = logging.WithPrefix(a.logger, "udp: ")
		if err := rds.Connect(); err != nil {
			return nil, err
		}
		a.logger.Infof("Painting to UDP strip bridge %q.", a.opts.udp)
		return strip.DatagramSink(rds), nil

	default:
		a.logger.Warnf("No --device or --udp configured; frames will be discarded.")
		return strip.Discard, nil
	}
}

func (a *app) serveMetrics() (func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	paint.RegisterMonitoring(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := http.Server{Addr: a.opts.metrics, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Warnf("Metrics server failed: %s", err)
		}
	}()
	a.logger.Infof("Serving metrics on %q.", a.opts.metrics)

	return func() { _ = srv.Close() }, nil
}

func (a *app) replay(c context.Context, p *paint.Player) error {
	for pass := 0; pass < a.opts.passes; pass++ {
		if err := a.replayOnce(c, p); err != nil {
			return err
		}
		if err := a.pauseBetweenPasses(c, pass); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) replayOnce(c context.Context, p *paint.Player) error {
	r, err := capture.Open(a.opts.replay)
	if err != nil {
		return err
	}
	defer r.Close()

	md := r.Metadata()
	a.logger.Infof("Replaying %q (%dx%d, %s), created %s.",
		md.Name, md.Width, md.Height, r.Compression(), md.Created.Local().Format(time.RFC1123))

	if p.Frame == nil || p.Frame.Len() != md.Height {
		p.Frame = strip.NewFrame(md.Height)
	}
	st, err := p.Replay(c, r)
	if err != nil {
		return err
	}
	a.logger.Infof("Replayed %d frame(s) in %s.", st.Frames, st.Duration)
	return nil
}

func (a *app) paintImages(c context.Context, p *paint.Player) error {
	p.Frame = strip.NewFrame(a.opts.leds)

	cat, err := catalog.Scan(c, a.opts.images, catalog.Options{Logger: a.logger})
	if err != nil {
		return err
	}
	if cat.Len() == 0 {
		return errors.Errorf("no images found in %q", a.opts.images)
	}
	if a.opts.index >= cat.Len() {
		return errors.Errorf("--index %d out of range; found %d image(s)", a.opts.index, cat.Len())
	}

	speed := paint.SpeedFor(a.opts.leds, a.opts.duration)
	if a.opts.interactive {
		return a.interact(c, p, cat, speed)
	}

	last := a.opts.index
	if a.opts.all {
		last = cat.Len() - 1
	}
	if a.encoder == nil {
		a.logger.Infof("Painting each pass over %s.", speed.Duration())
	}

	for i := a.opts.index; i <= last; i++ {
		img, err := a.prepare(c, p, cat, i)
		if err != nil {
			return err
		}
		err = a.paintPasses(c, p, img, speed)
		img.release()
		if err != nil {
			return err
		}
	}
	return nil
}

// preparedImage is an image that is ready to paint.
type preparedImage struct {
	index int
	count int
	name  string
	lp    *lightpaint.Painter

	// close, if not nil, releases the image's resources.
	close func()
}

// release must be called once the image is no longer needed.

func (pi *preparedImage) release() {
	if pi.close != nil {
		pi.close()
	}
}

// prepare loads image i from cat and builds its Painter. If recording, the
// Player's Recorder is set for the image until it is released.
func (a *app) prepare(c context.Context, p *paint.Player, cat *catalog.Catalog, i int) (
	*preparedImage, error) {

	e := cat.Entry(i)
	a.logger.Infof("Loading %q (%dx%d %s)...", e.Name, e.Width, e.Height, e.Format)
	a.indicate(p, i, cat.Len(), colorLoading)

	start := time.Now()
	img, err := cat.Load(i, a.opts.leds)
	if err != nil {
		return nil, err
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	a.indicate(p, i, cat.Len(), colorProcessing)
	cfg := a.opts.config()
	lp, err := lightpaint.New(img.Bytes(), img.Width, img.Height, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "preparing %q", e.Name)
	}

	st := lp.Stats()
	a.logger.Infof("Prepared %q in %s: estimated peak %.0f mA, average %.0f mA; scale %.3f, max %v.",
		e.Name, time.Since(start), st.EstimatedPeak, st.EstimatedAverage, st.Scale, st.EffectiveMax)

	pi := preparedImage{
		index: i,
		count: cat.Len(),
		name:  e.Name,
		lp:    lp,
		close: lp.Release,
	}
	if a.opts.record == "" {
		return &pi, nil
	}

	path := a.opts.recordPath(e.Name)
	w, err := capture.Create(path, capture.MetadataFor(e.Name, &cfg, lp), a.opts.compression.Value())
	if err != nil {
		lp.Release()
		return nil, err
	}
	p.Recorder = w
	pi.close = func() {
		p.Recorder = nil
		lp.Release()

		if err := w.Close(); err != nil {
			a.logger.Warnf("Failed to close capture %q: %s", path, err)
			return
		}
		a.logger.Infof("Recorded %d frame(s) to %q.", w.Frames(), path)
	}
	return &pi, nil
}

// paintPasses shows the "ready" indicator, then paints the configured number
// of passes of img at speed.
func (a *app) paintPasses(c context.Context, p *paint.Player, img *preparedImage, speed paint.Speed) error {
	a.indicate(p, img.index, img.count, colorReady)
	if err := sleep(c, readyDelay); err != nil {
		return err
	}
	a.indicate(p, 0, 0, pixel.P{})

	for pass := 0; pass < a.opts.passes; pass++ {
		ps, err := p.Paint(c, img.lp, a.sweep(speed))
		if err != nil {
			return errors.Wrapf(err, "painting %q", img.name)
		}
		a.logger.Infof("Pass #%d of %q: %d frame(s) in %s.", pass+1, img.name, ps.Frames, ps.Duration)

		if err := a.pauseBetweenPasses(c, pass); err != nil {
			return err
		}
	}
	return nil
}

// Interactive commands, read one per line.
const (
	commandPaint  = "p"
	commandNext   = "n"
	commandPrev   = "b"
	commandFaster = "-"
	commandSlower = "+"
	commandQuit   = "q"
)

// interact selects images and speeds and paints passes as directed by
// commands read from a.commands, until the commands are exhausted or a quit
// command is read.
//
// An empty line is the same as the paint command.
func (a *app) interact(c context.Context, p *paint.Player, cat *catalog.Catalog, speed paint.Speed) error {
	r := a.commands
	if r == nil {
		r = os.Stdin
	}
	rc, cancelFunc := context.WithCancel(c)
	defer cancelFunc()
	lines, errC := readLines(rc, r)

	i := a.opts.index
	var img *preparedImage
	defer func() {
		if img != nil {
			img.release()
		}
	}()
	selectImage := func(next int) error {
		if img != nil {
			img.release()
			img = nil
		}
		i = (next + cat.Len()) % cat.Len()

		var err error
		img, err = a.prepare(c, p, cat, i)
		if err != nil {
			return err
		}
		a.indicate(p, i, cat.Len(), colorReady)
		return nil
	}

	if err := selectImage(i); err != nil {
		return err
	}
	a.logger.Infof("Enter %q (or an empty line) to paint, %q/%q to select an image, %q/%q to change speed, "+
		"or %q to quit.", commandPaint, commandNext, commandPrev, commandFaster, commandSlower, commandQuit)

	for {
		var line string
		select {
		case <-c.Done():
			return c.Err()
		case err := <-errC:
			return err
		case l, ok := <-lines:
			if !ok {
				// A read error is sent before lines is closed.
				select {
				case err := <-errC:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "", commandPaint:
			if err := a.paintPasses(c, p, img, speed); err != nil {
				return err
			}
			a.indicate(p, i, cat.Len(), colorReady)

		case commandNext:
			if err := selectImage(i + 1); err != nil {
				return err
			}

		case commandPrev:
			if err := selectImage(i - 1); err != nil {
				return err
			}

		case commandFaster, commandSlower:
			changed := speed.Shorter
			if line == commandSlower {
				changed = speed.Longer
			}
			if !changed() {
				a.logger.Infof("Speed is already at its limit (%s).", speed.Duration())
			}
			if err := a.showSpeed(c, p, speed); err != nil {
				return err
			}

		case commandQuit:
			return nil

		default:
			a.logger.Warnf("Unknown command %q.", line)
		}
	}
}

// showSpeed briefly shows the selected speed as a bar, longer for slower
// passes.
func (a *app) showSpeed(c context.Context, p *paint.Player, speed paint.Speed) error {
	a.logger.Infof("Each pass now takes %s.", speed.Duration())
	if err := p.Progress(float64(speed.Step+1)/float64(speed.Steps), colorSpeed, a.opts.order.Value()); err != nil {
		a.logger.Debugf("Could not show speed: %s", err)
	}
	if err := sleep(c, readyDelay); err != nil {
		return err
	}
	a.indicate(p, 0, 0, pixel.P{})
	return nil
}

// readLines reads lines from r in the background, so that a blocked read
// does not hold up cancellation. The lines channel is closed at EOF; a read
// error is sent to the error channel.
func readLines(c context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errC := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-c.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errC <- errors.Wrap(err, "reading commands")
		}
	}()
	return lines, errC
}

// indicate shows a status segment on the strip. Failures are logged only,
// since status display is advisory.
func (a *app) indicate(p *paint.Player, i, n int, color pixel.P) {
	if err := p.Segment(i, n, color, a.opts.order.Value()); err != nil {
		a.logger.Debugf("Could not show status: %s", err)
	}
}

func (a *app) pauseBetweenPasses(c context.Context, pass int) error {
	if pass == a.opts.passes-1 {
		return nil
	}
	return sleep(c, a.opts.pause)
}

func sleep(c context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.Done():
		return c.Err()
	case <-timer.C:
		return nil
	}
}
