package conversation

import (
	"context"
	"fmt"

	"github.com/m3rciful/mediabot/internal/media"
)

// Step identifies where a chat currently is in the ingestion workflow.
type Step uint8

const (
	// Initial is the start state and the only resting state.
	Initial Step = iota
	LoginChosen
	AudioChosen
	AudioReceived
	PhotoReceived
	AudioProcessing
	VideoChosen
	VideoReceived
	VideoProcessing

	stepCount
)

var stepNames = [stepCount]string{
	Initial:         "Initial",
	LoginChosen:     "LoginChosen",
	AudioChosen:     "AudioChosen",
	AudioReceived:   "AudioReceived",
	PhotoReceived:   "PhotoReceived",
	AudioProcessing: "AudioProcessing",
	VideoChosen:     "VideoChosen",
	VideoReceived:   "VideoReceived",
	VideoProcessing: "VideoProcessing",
}

// Steps lists every declared step in order.
func Steps() []Step {
	out := make([]Step, 0, stepCount)
	for s := Initial; s < stepCount; s++ {
		out = append(out, s)
	}
	return out
}

// Valid reports whether s is one of the declared steps.
func (s Step) Valid() bool { return s < stepCount }

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", uint8(s))
	}
	return stepNames[s]
}

// MarshalText encodes the step by name.
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("conversation: invalid step %d", uint8(s))
	}
	return []byte(stepNames[s]), nil
}

// UnmarshalText decodes a step name produced by MarshalText.
func (s *Step) UnmarshalText(b []byte) error {
	name := string(b)
	for i, n := range stepNames {
		if n == name {
			*s = Step(i)
			return nil
		}
	}
	return fmt.Errorf("conversation: unknown step %q", name)
}

// Conversation is the per-chat workflow state.
type Conversation struct {
	Step         Step         `json:"step"`
	PendingAudio *media.Audio `json:"pendingAudio,omitempty"`
	PendingVideo *media.Video `json:"pendingVideo,omitempty"`
	User         *media.User  `json:"user,omitempty"`
	LastPromptID int          `json:"lastPromptId,omitempty"`
}

// Clone returns a copy that shares no pointers with c.
func (c Conversation) Clone() Conversation {
	out := c
	if c.PendingAudio != nil {
		a := c.PendingAudio.Clone()
		out.PendingAudio = &a
	}
	if c.PendingVideo != nil {
		v := c.PendingVideo.Clone()
		out.PendingVideo = &v
	}
	if c.User != nil {
		u := *c.User
		out.User = &u
	}
	return out
}

// normalize enforces that a resting conversation holds no pending media.
func (c *Conversation) normalize() {
	if c.Step == Initial {
		c.PendingAudio = nil
		c.PendingVideo = nil
	}
}

// Patch sets one top-level field of a conversation.
type Patch func(*Conversation)

// SetStep moves the conversation to st.
func SetStep(st Step) Patch {
	return func(c *Conversation) { c.Step = st }
}

// SetAudio replaces the pending audio record; nil clears it.
func SetAudio(a *media.Audio) Patch {
	return func(c *Conversation) {
		if a == nil {
			c.PendingAudio = nil
			return
		}
		cp := a.Clone()
		c.PendingAudio = &cp
	}
}

// SetVideo replaces the pending video record; nil clears it.
func SetVideo(v *media.Video) Patch {
	return func(c *Conversation) {
		if v == nil {
			c.PendingVideo = nil
			return
		}
		cp := v.Clone()
		c.PendingVideo = &cp
	}
}

// SetUser attaches or, with nil, detaches the authenticated user.
func SetUser(u *media.User) Patch {
	return func(c *Conversation) {
		if u == nil {
			c.User = nil
			return
		}
		cp := *u
		c.User = &cp
	}
}

// SetLastPrompt records the most recently sent prompt message.
func SetLastPrompt(id int) Patch {
	return func(c *Conversation) { c.LastPromptID = id }
}

// ClearMedia drops both pending records.
func ClearMedia() Patch {
	return func(c *Conversation) {
		c.PendingAudio = nil
		c.PendingVideo = nil
	}
}

// Apply merges patches onto a copy of base and returns the normalised result.
func Apply(base Conversation, patches ...Patch) Conversation {
	out := base.Clone()
	for _, p := range patches {
		if p != nil {
			p(&out)
		}
	}
	out.normalize()
	return out
}

// Store keeps conversations keyed by chat id.
type Store interface {
	// Get returns the conversation and whether it exists.
	Get(ctx context.Context, chatID int64) (Conversation, bool, error)
	// Upsert merges patches onto the existing or a fresh Initial conversation.
	Upsert(ctx context.Context, chatID int64, patches ...Patch) (Conversation, error)
}
