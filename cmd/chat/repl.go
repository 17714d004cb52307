package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/capitalize-ai/multimodal-gateway/internal/client"
	"github.com/capitalize-ai/multimodal-gateway/internal/model"
	"github.com/capitalize-ai/multimodal-gateway/pkg/logger"
)

const helpText = `Commands:
  <text>          send a chat message
  /image <path>   describe an image file
  /record <path>  start a recording backed by an audio file
  /stop           finish the recording and transcribe it
  /file <path>    upload a file
  /files          list uploaded files
  /rm <id>        forget an uploaded file
  /clear          clear the conversation
  /health         show gateway health
  /info           show the gateway banner and endpoints
  /test           run a provider test call
  /quit           exit`

// gatewayStatus is the read-only part of the gateway API.
type gatewayStatus interface {
	Info(ctx context.Context) (*model.ServiceInfo, error)
	Health(ctx context.Context) (*model.HealthResponse, error)
	TestProvider(ctx context.Context) (*model.ProviderTestResponse, error)
}

type replConfig struct {
	In         io.Reader
	Out        io.Writer
	Assistant  string
	Backend    client.Backend
	Status     gatewayStatus
	Logger     *logger.Logger
	Dispatcher client.DispatcherConfig
}

// repl is the interactive loop. Conversation changes are printed as they
// happen, so replies from concurrent dispatches appear in completion order.
type repl struct {
	in         io.Reader
	out        io.Writer
	outMu      sync.Mutex
	conv       *client.Conversation
	artifacts  *client.Artifacts
	dispatcher *client.Dispatcher
	recorder   *client.Recorder
	mic        *fileMicrophone
	status     gatewayStatus
	logger     *logger.Logger
}

func newREPL(cfg replConfig) *repl {
	r := &repl{
		in:        cfg.In,
		out:       cfg.Out,
		conv:      client.NewConversation(cfg.Assistant),
		artifacts: client.NewArtifacts(),
		mic:       &fileMicrophone{},
		status:    cfg.Status,
		logger:    cfg.Logger,
	}
	r.dispatcher = client.NewDispatcher(r.conv, r.artifacts, cfg.Backend, r, cfg.Dispatcher)
	r.recorder = client.NewRecorder(r.mic, r.dispatcher.SubmitRecording)
	return r
}

// Notify implements client.Notifier.
func (r *repl) Notify(level client.NoticeLevel, message string) {
	r.printf("[%s] %s\n", level, message)
}

// Run reads commands until /quit, EOF or ctx is done, then waits for
// in-flight dispatches.
func (r *repl) Run(ctx context.Context) error {
	for _, e := range r.conv.Entries() {
		r.printEntry(e)
	}
	r.conv.OnChange(r.printEntry)
	r.printf("Type /help for commands.\n")

	defer r.dispatcher.Wait()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := r.handle(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) (quit bool) {
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.dispatcher.SendText(line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit", "/q":
		return true
	case "/help":
		r.printf("%s\n", helpText)
	case "/image":
		r.image(arg)
	case "/record":
		r.record(arg)
	case "/stop":
		r.stop()
	case "/file":
		r.file(arg)
	case "/files":
		r.listFiles()
	case "/rm":
		if r.artifacts.Remove(arg) {
			r.Notify(client.NoticeInfo, "File removed")
		} else {
			r.Notify(client.NoticeError, "No uploaded file with id "+arg)
		}
	case "/clear":
		r.conv.Clear()
		r.Notify(client.NoticeInfo, "Chat cleared")
	case "/health":
		r.checkHealth(ctx)
	case "/info":
		r.showInfo(ctx)
	case "/test":
		r.testProvider(ctx)
	default:
		r.Notify(client.NoticeError, "Unknown command "+cmd+". Type /help for commands.")
	}
	return false
}

func (r *repl) image(path string) {
	data, err := r.readFile(path)
	if err != nil {
		return
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		r.Notify(client.NoticeError, fmt.Sprintf("%s is not an image (%s)", path, mtype.String()))
		return
	}
	r.dispatcher.SubmitPhoto(fmt.Sprintf("data:%s;base64,%s", mtype.String(), base64.StdEncoding.EncodeToString(data)))
	r.Notify(client.NoticeSuccess, "Photo captured!")
}

func (r *repl) record(path string) {
	if r.recorder.State() == client.StateRecording {
		r.Notify(client.NoticeError, "Already recording. Use /stop first.")
		return
	}
	if path == "" {
		r.Notify(client.NoticeError, "Usage: /record <path>")
		return
	}
	r.mic.SetSource(path)
	if _, err := r.recorder.Toggle(); err != nil {
		r.logger.Debug("failed to start recording", zap.String("path", path), zap.Error(err))
		r.Notify(client.NoticeError, "Microphone access denied or not available")
		return
	}
	r.Notify(client.NoticeInfo, "Recording started... Speak now!")
}

func (r *repl) stop() {
	if r.recorder.State() != client.StateRecording {
		r.Notify(client.NoticeError, "Not recording.")
		return
	}
	if _, err := r.recorder.Toggle(); err != nil {
		r.logger.Debug("recording failed", zap.Error(err))
		r.Notify(client.NoticeError, "Voice processing failed")
	}
}

func (r *repl) file(path string) {
	data, err := r.readFile(path)
	if err != nil {
		return
	}
	r.dispatcher.DropFile(filepath.Base(path), data)
}

func (r *repl) listFiles() {
	files := r.artifacts.List()
	r.printf("Uploaded Files (%d)\n", len(files))
	for _, f := range files {
		r.printf("  %s  %s  %s  %d bytes\n", f.ID, f.Name, f.MimeType, f.SizeBytes)
	}
}

func (r *repl) checkHealth(ctx context.Context) {
	h, err := r.status.Health(ctx)
	if err != nil {
		r.Notify(client.NoticeError, "Gateway unreachable: "+err.Error())
		return
	}
	r.printf("status: %s, provider: %s, api key configured: %t\n", h.Status, h.OpenAI, h.APIKeyConfigured)
}

func (r *repl) showInfo(ctx context.Context) {
	info, err := r.status.Info(ctx)
	if err != nil {
		r.Notify(client.NoticeError, "Gateway unreachable: "+err.Error())
		return
	}
	r.printf("%s (v%s, provider: %s)\n", info.Message, info.Version, info.OpenAI)
	names := make([]string, 0, len(info.Endpoints))
	for name := range info.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.printf("  %-8s %s\n", name, info.Endpoints[name])
	}
}

func (r *repl) testProvider(ctx context.Context) {
	res, err := r.status.TestProvider(ctx)
	if err != nil {
		r.Notify(client.NoticeError, "Gateway unreachable: "+err.Error())
		return
	}
	if !res.Success {
		detail := res.Error
		if detail == "" {
			detail = string(res.Status)
		}
		r.Notify(client.NoticeError, res.Message+": "+detail)
		return
	}
	r.Notify(client.NoticeSuccess, res.Message+": "+res.Response)
}

func (r *repl) readFile(path string) ([]byte, error) {
	if path == "" {
		r.Notify(client.NoticeError, "Missing file path")
		return nil, errors.New("missing path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.Notify(client.NoticeError, "Cannot read "+path+": "+err.Error())
		return nil, err
	}
	return data, nil
}

func (r *repl) printEntry(e model.ConversationEntry) {
	r.printf("%s> %s\n", e.Sender, e.Text)
}

func (r *repl) printf(format string, args ...interface{}) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// fileMicrophone stands in for a capture device: a recording yields the
// contents of an audio file chosen when it starts.
type fileMicrophone struct {
	mu   sync.Mutex
	path string
}

func (m *fileMicrophone) SetSource(path string) {
	m.mu.Lock()
	m.path = path
	m.mu.Unlock()
}

func (m *fileMicrophone) Start() (client.Capture, error) {
	m.mu.Lock()
	path := m.path
	m.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &fileCapture{f: f}, nil
}

type fileCapture struct {
	f *os.File
}

func (c *fileCapture) Stop() ([]byte, error) {
	defer c.f.Close()
	return io.ReadAll(c.f)
}
