// Package control serves the per-channel DAC and IIR filter settings over a
// line-oriented JSON protocol.
//
// Each request is one JSON object on its own line:
//
//	{"channel":0,"dac":{"out":0.5,"en":true}}                            set the DAC
//	{"channel":0,"iir":{"ba":[1,0,0,0,0],"y_offset":0,"y_min":-1,"y_max":1}}  set the filter
//	{"channel":0}                                                        read both
//
// and gets one JSON line back with the channel's resulting state:
//
//	{"code":200,"msg":"ok","channel":0,"dac":{"out":0.49987793,"en":true},"iir":{...}}
//
// Unknown keys, a wrong coefficient count and out of range values are
// errors. Errors use code 400 and leave every setting unchanged.
package control

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/randomizedcoder/adcstream/internal/dac"
	"github.com/randomizedcoder/adcstream/internal/iir"
	"github.com/randomizedcoder/adcstream/internal/metrics"
)

// Response codes.
const (
	CodeOK         = 200
	CodeBadRequest = 400
)

// maxLine bounds a single request line.
const maxLine = 64 * 1024

// DACSetting is the wire form of one DAC channel.
type DACSetting struct {
	Out float32 `json:"out"`
	En  bool    `json:"en"`
}

// IIRSetting is the wire form of one channel's filter. Omitted numbers
// decode as zero.
type IIRSetting struct {
	BA      []float32 `json:"ba"`
	YOffset float32   `json:"y_offset"`
	YMin    float32   `json:"y_min"`
	YMax    float32   `json:"y_max"`
}

func (w *IIRSetting) filter() (iir.IIR, error) {
	if len(w.BA) != iir.Order {
		return iir.IIR{}, fmt.Errorf("%w: ba needs %d coefficients, got %d", iir.ErrInvalid, iir.Order, len(w.BA))
	}
	f := iir.IIR{YOffset: w.YOffset, YMin: w.YMin, YMax: w.YMax}
	copy(f.BA[:], w.BA)
	return f, f.Validate()
}

func iirSetting(f iir.IIR) *IIRSetting {
	return &IIRSetting{
		BA:      append([]float32(nil), f.BA[:]...),
		YOffset: f.YOffset,
		YMin:    f.YMin,
		YMax:    f.YMax,
	}
}

// Request is one control request.
type Request struct {
	Channel *int        `json:"channel"`
	DAC     *DACSetting `json:"dac,omitempty"`
	IIR     *IIRSetting `json:"iir,omitempty"`
}

// Response is the reply to one Request.
type Response struct {
	Code    int         `json:"code"`
	Msg     string      `json:"msg"`
	Channel *int        `json:"channel,omitempty"`
	DAC     *DACSetting `json:"dac,omitempty"`
	IIR     *IIRSetting `json:"iir,omitempty"`
}

// Server applies control requests to a dac.Bank and an iir.Bank.
type Server struct {
	dacs        *dac.Bank
	filters     *iir.Bank
	channels    int
	readTimeout time.Duration
	log         *zap.Logger
	metrics     *metrics.Metrics

	wg sync.WaitGroup
}

// New creates a Server. Only channels present in both banks are
// addressable. A zero readTimeout means idle clients are never disconnected.
func New(dacs *dac.Bank, filters *iir.Bank, readTimeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Server {
	return &Server{
		dacs:        dacs,
		filters:     filters,
		channels:    min(dacs.Len(), filters.Len()),
		readTimeout: readTimeout,
		log:         log.Named("control"),
		metrics:     m,
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("control: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles clients concurrently until ctx is done, then closes ln,
// waits for open sessions to end and returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, endSessions := context.WithCancel(ctx)
	defer s.wg.Wait()
	defer endSessions()
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.log.Info("control listening", zap.Stringer("addr", ln.Addr()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("control: accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log := s.log.With(zap.Stringer("remote", conn.RemoteAddr()))
	log.Debug("control client connected")

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	enc := json.NewEncoder(conn)

	for {
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil && ctx.Err() == nil {
				log.Info("control client dropped", zap.Error(err))
			}
			return
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.Handle(line)
		s.metrics.ControlRequests.WithLabelValues(strconv.Itoa(resp.Code)).Inc()
		log.Debug("control request", zap.ByteString("req", line), zap.Int("code", resp.Code))

		if err := enc.Encode(resp); err != nil {
			log.Info("control client dropped", zap.Error(err))
			return
		}
	}
}

// Handle decodes and applies one request line. Either every setting in the
// request is applied or none is.
func (s *Server) Handle(line []byte) Response {
	var req Request
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return badRequest(fmt.Errorf("decode: %w", err))
	}
	if dec.More() {
		return badRequest(errors.New("decode: trailing data after request"))
	}
	if req.Channel == nil {
		return badRequest(errors.New("missing channel"))
	}
	ch := *req.Channel
	if ch < 0 || ch >= s.channels {
		return badRequest(fmt.Errorf("no such channel: %d", ch))
	}

	var filter iir.IIR
	if req.IIR != nil {
		f, err := req.IIR.filter()
		if err != nil {
			return badRequest(err)
		}
		filter = f
	}

	// The filter is validated and the channel is in range, so once the DAC
	// is accepted the filter set cannot fail.
	var (
		d   dac.CPUDAC
		err error
	)
	if req.DAC != nil {
		d, err = s.dacs.Set(ch, req.DAC.Out, req.DAC.En)
	} else {
		d, err = s.dacs.Get(ch)
	}
	if err != nil {
		return badRequest(err)
	}

	if req.IIR != nil {
		err = s.filters.Set(ch, filter)
	} else {
		filter, err = s.filters.Get(ch)
	}
	if err != nil {
		return badRequest(err)
	}

	return Response{
		Code:    CodeOK,
		Msg:     "ok",
		Channel: &ch,
		DAC:     &DACSetting{Out: d.ScaleOut(), En: d.Enabled()},
		IIR:     iirSetting(filter),
	}
}

func badRequest(err error) Response {
	return Response{Code: CodeBadRequest, Msg: err.Error()}
}
