package oscbridge

import (
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"

	"github.com/schollz/tracksampler/internal/engine"
	"github.com/schollz/tracksampler/internal/pattern"
)

type fakeSender struct {
	sent    []engine.Command
	current *pattern.Pattern
}

func (f *fakeSender) Send(cmd engine.Command) bool {
	f.sent = append(f.sent, cmd)
	return true
}

func (f *fakeSender) CurrentPattern() *pattern.Pattern {
	return f.current
}

func TestHandleTogglePlay(t *testing.T) {
	f := &fakeSender{}
	s := New(":0", f)
	s.handleTogglePlay(osc.NewMessage("/transport/play"))

	assert.Equal(t, []engine.Command{{Kind: engine.TogglePlay}}, f.sent)
}

func TestHandleSetTempo(t *testing.T) {
	f := &fakeSender{}
	s := New(":0", f)
	msg := osc.NewMessage("/transport/tempo")
	msg.Append(float32(140))
	s.handleSetTempo(msg)

	assert.Equal(t, []engine.Command{{Kind: engine.SetTempo, BPM: 140}}, f.sent)
}

func TestHandleSetTempoRejectsMissingArg(t *testing.T) {
	f := &fakeSender{}
	s := New(":0", f)
	s.handleSetTempo(osc.NewMessage("/transport/tempo"))

	assert.Empty(t, f.sent)
}

func TestHandleSetPatternLength(t *testing.T) {
	f := &fakeSender{current: pattern.New(2, 8, 4)}
	s := New(":0", f)
	msg := osc.NewMessage("/pattern/length")
	msg.Append(int32(2))
	msg.Append(int32(16))
	s.handleSetPatternLength(msg)

	if assert.Len(t, f.sent, 1) {
		cmd := f.sent[0]
		assert.Equal(t, engine.SetPatternLength, cmd.Kind)
		assert.Equal(t, 2, cmd.PatternIndex)
		assert.Equal(t, 16, cmd.Length)
		if assert.NotNil(t, cmd.Pattern) {
			assert.Equal(t, 16, cmd.Pattern.Len())
			assert.Equal(t, 2, cmd.Pattern.Index)
		}
	}
}

func TestHandleSetPatternLengthRejectsNoActivePattern(t *testing.T) {
	f := &fakeSender{}
	s := New(":0", f)
	msg := osc.NewMessage("/pattern/length")
	msg.Append(int32(2))
	msg.Append(int32(16))
	s.handleSetPatternLength(msg)

	assert.Empty(t, f.sent)
}

func TestHandleSetPatternLengthRejectsWrongIndex(t *testing.T) {
	f := &fakeSender{current: pattern.New(9, 8, 4)}
	s := New(":0", f)
	msg := osc.NewMessage("/pattern/length")
	msg.Append(int32(2))
	msg.Append(int32(16))
	s.handleSetPatternLength(msg)

	assert.Empty(t, f.sent)
}

func TestHandleSetParam(t *testing.T) {
	f := &fakeSender{}
	s := New(":0", f)
	msg := osc.NewMessage("/track/param")
	msg.Append(int32(1))
	msg.Append(int32(3))
	msg.Append(float32(0.5))
	s.handleSetParam(msg)

	assert.Equal(t, []engine.Command{{Kind: engine.SetParam, DeviceID: 1, ParamID: 3, Value: 0.5}}, f.sent)
}

func TestHandleSetParamRejectsWrongArgTypes(t *testing.T) {
	f := &fakeSender{}
	s := New(":0", f)
	msg := osc.NewMessage("/track/param")
	msg.Append("not-a-number")
	s.handleSetParam(msg)

	assert.Empty(t, f.sent)
}

func TestHandleSetColumnParams(t *testing.T) {
	f := &fakeSender{}
	s := New(":0", f)
	msg := osc.NewMessage("/track/column")
	msg.Append(int32(1))  // deviceID
	msg.Append(int32(0))  // column
	msg.Append(float32(-0.5))
	msg.Append(int32(1)) // filterEnabled
	msg.Append(int32(0)) // filterHighPass
	msg.Append(int32(64))
	msg.Append(int32(1)) // reverse
	msg.Append(float32(120))
	msg.Append(float32(0.8))
	s.handleSetColumnParams(msg)

	if assert.Len(t, f.sent, 1) {
		cmd := f.sent[0]
		assert.Equal(t, engine.SetColumnParams, cmd.Kind)
		assert.Equal(t, 1, cmd.DeviceID)
		assert.Equal(t, 0, cmd.Column)
		assert.Equal(t, float32(-0.5), cmd.ColumnParams.Pan)
		assert.True(t, cmd.ColumnParams.FilterEnabled)
		assert.False(t, cmd.ColumnParams.FilterHighPass)
		assert.Equal(t, byte(64), cmd.ColumnParams.FilterCutoff)
		assert.True(t, cmd.ColumnParams.Reverse)
		assert.Equal(t, 120*time.Millisecond, cmd.ColumnParams.RetrigEvery)
		assert.Equal(t, float32(0.8), cmd.ColumnParams.RetrigDecay)
	}
}

func TestHandleSetColumnParamsRejectsMissingArgs(t *testing.T) {
	f := &fakeSender{}
	s := New(":0", f)
	msg := osc.NewMessage("/track/column")
	msg.Append(int32(1))
	s.handleSetColumnParams(msg)

	assert.Empty(t, f.sent)
}
