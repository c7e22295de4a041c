package llm

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SpeechTurn is one synthesized reply from a live session.
type SpeechTurn struct {
	Text      string `json:"text"`
	AudioData string `json:"audio_data"` // base64 PCM chunks, concatenated
	MimeType  string `json:"mime_type"`
}

// LiveConfig for a speech-capable session
type LiveConfig struct {
	APIKey  string
	URL     string // websocket endpoint; overridable for tests
	Model   string
	Voice   string
	Timeout time.Duration // per-turn deadline
}

// DefaultLiveConfig returns sensible defaults
func DefaultLiveConfig() LiveConfig {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	return LiveConfig{
		APIKey:  apiKey,
		URL:     "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent",
		Model:   "models/gemini-2.5-flash-native-audio-preview-09-2025",
		Voice:   "Zephyr",
		Timeout: 60 * time.Second,
	}
}

// LiveSession is a long-lived speech session over a websocket. The session
// is not safe for concurrent turns: a mutex keeps one turn in flight at a
// time, later callers block until the previous turn completes.
type LiveSession struct {
	cfg  LiveConfig
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewLiveSession creates a session. The connection is established lazily on
// the first turn.
func NewLiveSession(cfg LiveConfig) *LiveSession {
	def := DefaultLiveConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Voice == "" {
		cfg.Voice = def.Voice
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	return &LiveSession{cfg: cfg}
}

// wire types for the bidi endpoint

type liveSetup struct {
	Setup struct {
		Model            string `json:"model"`
		GenerationConfig struct {
			ResponseModalities []string `json:"responseModalities"`
			SpeechConfig       struct {
				VoiceConfig struct {
					PrebuiltVoiceConfig struct {
						VoiceName string `json:"voiceName"`
					} `json:"prebuiltVoiceConfig"`
				} `json:"voiceConfig"`
			} `json:"speechConfig"`
		} `json:"generationConfig"`
	} `json:"setup"`
}

type liveClientContent struct {
	ClientContent struct {
		Turns        []wireContent `json:"turns"`
		TurnComplete bool          `json:"turnComplete"`
	} `json:"clientContent"`
}

type liveServerMessage struct {
	SetupComplete *struct{} `json:"setupComplete"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"modelTurn"`
		TurnComplete bool `json:"turnComplete"`
	} `json:"serverContent"`
}

// Connect dials the live endpoint and performs the setup handshake.
func (s *LiveSession) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *LiveSession) connectLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	url := s.cfg.URL + "?key=" + s.cfg.APIKey
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial live session: %w", err)
	}

	setup := liveSetup{}
	setup.Setup.Model = s.cfg.Model
	setup.Setup.GenerationConfig.ResponseModalities = []string{"AUDIO"}
	setup.Setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = s.cfg.Voice

	if err := conn.WriteJSON(setup); err != nil {
		conn.Close()
		return fmt.Errorf("send setup: %w", err)
	}

	// Wait for the setup ack before declaring the session open
	var msg liveServerMessage
	conn.SetReadDeadline(time.Now().Add(s.cfg.Timeout))
	if err := conn.ReadJSON(&msg); err != nil {
		conn.Close()
		return fmt.Errorf("setup handshake: %w", err)
	}
	if msg.SetupComplete == nil {
		conn.Close()
		return fmt.Errorf("unexpected setup reply")
	}

	s.conn = conn
	return nil
}

// SendTurn sends one text turn and collects the full spoken reply. Turns are
// serialized: a second caller blocks until the first turn has drained.
func (s *LiveSession) SendTurn(ctx context.Context, text string) (*SpeechTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}

	content := liveClientContent{}
	content.ClientContent.Turns = []wireContent{{Role: "user", Parts: []wirePart{{Text: text}}}}
	content.ClientContent.TurnComplete = true

	if err := s.conn.WriteJSON(content); err != nil {
		s.dropLocked()
		return nil, fmt.Errorf("send turn: %w", err)
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	turn := &SpeechTurn{}
	for {
		s.conn.SetReadDeadline(deadline)

		var msg liveServerMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.dropLocked()
			return nil, fmt.Errorf("read turn: %w", err)
		}

		sc := msg.ServerContent
		if sc == nil {
			continue
		}
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				turn.Text += p.Text
				if p.InlineData != nil {
					turn.AudioData += p.InlineData.Data
					if p.InlineData.MimeType != "" {
						turn.MimeType = p.InlineData.MimeType
					}
				}
			}
		}
		if sc.TurnComplete {
			return turn, nil
		}
	}
}

// Close tears down the session. The next turn reconnects.
func (s *LiveSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// dropLocked discards a broken connection so the next turn redials.
func (s *LiveSession) dropLocked() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// IsConfigured checks if an API key is set
func (s *LiveSession) IsConfigured() bool {
	return s.cfg.APIKey != ""
}
