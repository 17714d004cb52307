package client

import (
	"errors"
	"sync"
)

// Capture is an open microphone capture.
type Capture interface {
	// Stop ends the capture, releases the device and returns the recorded
	// audio. The device is released even when an error is returned.
	Stop() ([]byte, error)
}

// Microphone opens captures.
type Microphone interface {
	Start() (Capture, error)
}

// RecorderState is the state of a Recorder.
type RecorderState int

const (
	StateIdle RecorderState = iota
	StateRecording
)

func (s RecorderState) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// ErrRecordingFailed wraps errors from a capture that could not complete.
var ErrRecordingFailed = errors.New("recording failed")

// Recorder is the idle/recording toggle. Each completed recording is handed
// to submit exactly once.
type Recorder struct {
	mu      sync.Mutex
	mic     Microphone
	submit  func(audio []byte)
	state   RecorderState
	capture Capture
}

// NewRecorder creates an idle recorder.
func NewRecorder(mic Microphone, submit func(audio []byte)) *Recorder {
	return &Recorder{mic: mic, submit: submit}
}

// State returns the current state.
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Toggle starts a capture when idle and stops it when recording. It returns
// the state after the transition. A capture that fails to start leaves the
// recorder idle; a capture that fails to stop still returns to idle without
// submitting anything.
func (r *Recorder) Toggle() (RecorderState, error) {
	r.mu.Lock()

	if r.state == StateIdle {
		defer r.mu.Unlock()
		capture, err := r.mic.Start()
		if err != nil {
			return StateIdle, err
		}
		r.capture = capture
		r.state = StateRecording
		return StateRecording, nil
	}

	capture := r.capture
	r.capture = nil
	r.state = StateIdle
	r.mu.Unlock()

	audio, err := capture.Stop()
	if err != nil {
		return StateIdle, errors.Join(ErrRecordingFailed, err)
	}
	r.submit(audio)
	return StateIdle, nil
}
