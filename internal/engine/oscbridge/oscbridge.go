// Package oscbridge is an inbound OSC command producer: it listens for
// control messages and translates them into engine.Command values pushed
// through the engine's command bridge. This is the reverse of the
// teacher's own OSC usage, which sends outbound parameter messages to an
// external synth; here OSC is the *editor-side* transport instead.
package oscbridge

import (
	"fmt"
	"log"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/schollz/tracksampler/internal/device"
	"github.com/schollz/tracksampler/internal/engine"
	"github.com/schollz/tracksampler/internal/pattern"
)

// Sender is the subset of engine.Engine a Server needs, kept narrow so
// tests can exercise the message-to-command translation without a real
// bridge or a bound UDP socket. CurrentPattern lets handleSetPatternLength
// build a resized copy off the audio thread instead of resizing in place.
type Sender interface {
	Send(cmd engine.Command) bool
	CurrentPattern() *pattern.Pattern
}

// Server listens on a UDP address and dispatches recognized OSC
// addresses onto a Sender.
type Server struct {
	addr   string
	bridge Sender
	server *osc.Server
}

// New builds a Server bound to addr (e.g. ":9000") that pushes translated
// commands onto bridge.
func New(addr string, bridge Sender) *Server {
	s := &Server{addr: addr, bridge: bridge}

	d := osc.NewStandardDispatcher()
	d.AddMsgHandler("/transport/play", s.handleTogglePlay)
	d.AddMsgHandler("/transport/tempo", s.handleSetTempo)
	d.AddMsgHandler("/pattern/length", s.handleSetPatternLength)
	d.AddMsgHandler("/track/param", s.handleSetParam)
	d.AddMsgHandler("/track/column", s.handleSetColumnParams)

	s.server = &osc.Server{Addr: addr, Dispatcher: d}
	return s
}

// ListenAndServe blocks, serving OSC messages until the underlying
// connection errors out (typically on process shutdown).
func (s *Server) ListenAndServe() error {
	log.Printf("[OSCBRIDGE] listening on %s", s.addr)
	return s.server.ListenAndServe()
}

func (s *Server) handleTogglePlay(msg *osc.Message) {
	s.bridge.Send(engine.Command{Kind: engine.TogglePlay})
}

func (s *Server) handleSetTempo(msg *osc.Message) {
	bpm, err := float32Arg(msg, 0)
	if err != nil {
		log.Printf("[OSCBRIDGE] /transport/tempo: %v", err)
		return
	}
	s.bridge.Send(engine.Command{Kind: engine.SetTempo, BPM: float64(bpm)})
}

func (s *Server) handleSetPatternLength(msg *osc.Message) {
	if len(msg.Arguments) < 2 {
		log.Printf("[OSCBRIDGE] /pattern/length: expected 2 args, got %d", len(msg.Arguments))
		return
	}
	idx, ok1 := msg.Arguments[0].(int32)
	length, ok2 := msg.Arguments[1].(int32)
	if !ok1 || !ok2 {
		log.Printf("[OSCBRIDGE] /pattern/length: expected (int32, int32) args")
		return
	}

	current := s.bridge.CurrentPattern()
	if current == nil || current.Index != int(idx) {
		log.Printf("[OSCBRIDGE] /pattern/length: no active pattern %d to resize", idx)
		return
	}
	numTracks := 0
	if current.Len() > 0 {
		numTracks = len(current.Lines[0].Cells)
	}
	resized := pattern.Resized(current, int(length), numTracks)

	s.bridge.Send(engine.Command{Kind: engine.SetPatternLength, PatternIndex: int(idx), Length: int(length), Pattern: resized})
}

func (s *Server) handleSetColumnParams(msg *osc.Message) {
	if len(msg.Arguments) < 9 {
		log.Printf("[OSCBRIDGE] /track/column: expected 9 args, got %d", len(msg.Arguments))
		return
	}
	deviceID, ok1 := msg.Arguments[0].(int32)
	column, ok2 := msg.Arguments[1].(int32)
	pan, ok3 := msg.Arguments[2].(float32)
	filterEnabled, ok4 := msg.Arguments[3].(int32)
	filterHighPass, ok5 := msg.Arguments[4].(int32)
	filterCutoff, ok6 := msg.Arguments[5].(int32)
	reverse, ok7 := msg.Arguments[6].(int32)
	retrigMs, ok8 := msg.Arguments[7].(float32)
	retrigDecay, ok9 := msg.Arguments[8].(float32)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 || !ok8 || !ok9 {
		log.Printf("[OSCBRIDGE] /track/column: expected (int32,int32,float32,int32,int32,int32,int32,float32,float32) args")
		return
	}

	s.bridge.Send(engine.Command{
		Kind:     engine.SetColumnParams,
		DeviceID: int(deviceID),
		Column:   int(column),
		ColumnParams: device.ColumnParams{
			Pan:            pan,
			FilterEnabled:  filterEnabled != 0,
			FilterHighPass: filterHighPass != 0,
			FilterCutoff:   byte(filterCutoff),
			Reverse:        reverse != 0,
			RetrigEvery:    time.Duration(retrigMs) * time.Millisecond,
			RetrigDecay:    retrigDecay,
		},
	})
}

func (s *Server) handleSetParam(msg *osc.Message) {
	if len(msg.Arguments) < 3 {
		log.Printf("[OSCBRIDGE] /track/param: expected 3 args, got %d", len(msg.Arguments))
		return
	}
	deviceID, ok1 := msg.Arguments[0].(int32)
	paramID, ok2 := msg.Arguments[1].(int32)
	value, ok3 := msg.Arguments[2].(float32)
	if !ok1 || !ok2 || !ok3 {
		log.Printf("[OSCBRIDGE] /track/param: expected (int32, int32, float32) args")
		return
	}
	s.bridge.Send(engine.Command{
		Kind:     engine.SetParam,
		DeviceID: int(deviceID),
		ParamID:  int(paramID),
		Value:    float64(value),
	})
}

func float32Arg(msg *osc.Message, i int) (float32, error) {
	if i >= len(msg.Arguments) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	v, ok := msg.Arguments[i].(float32)
	if !ok {
		return 0, fmt.Errorf("argument %d is not a float32", i)
	}
	return v, nil
}
