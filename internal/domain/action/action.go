// Package action provides the typed action requests accepted from the host.
package action

import "math"

// Verb identifies an action.
type Verb string

const (
	VerbTogglePlayback      Verb = "toggle_playback"
	VerbPlayMusic           Verb = "play_music"
	VerbQueueTrack          Verb = "queue_track"
	VerbPlayRandomMusic     Verb = "play_random_music"
	VerbPlaySpecialPlaylist Verb = "play_special_playlist"
	VerbVolume              Verb = "volume"
	VerbSeekPlayback        Verb = "seek_playback"
	VerbSkipNext            Verb = "skip_next"
	VerbSkipPrevious        Verb = "skip_previous"
	VerbRepeatMode          Verb = "repeat_mode"
	VerbShuffleMode         Verb = "shuffle_mode"
	VerbAddToFavorites      Verb = "add_to_favorites"
	VerbGetPlaylists        Verb = "get_playlists"
	VerbAddToPlaylist       Verb = "add_to_playlist"
	VerbListDevices         Verb = "list_devices"
	VerbTransferToDevice    Verb = "transfer_to_device"
)

// Request is an action as received from the host: a verb and loosely typed arguments.
type Request struct {
	Verb string            `json:"verb"`
	Args map[string]string `json:"args,omitempty"`
}

// Command is a validated, typed action.
type Command interface {
	Verb() Verb
}

// Volume modes.
const (
	VolumeSet      = "set"
	VolumeIncrease = "increase"
	VolumeDecrease = "decrease"
)

// Seek targets.
const (
	SeekForward   = "forward"
	SeekBackward  = "backward"
	SeekToTime    = "to_time"
	SeekToPercent = "to_percent"
	SeekMiddle    = "middle"
)

const (
	defaultVolumeStep   = 10
	defaultVolumeLevel  = 50
	defaultSeekSeconds  = 10
	defaultSeekPercent  = 50
	defaultSeekToSecond = 0
)

type TogglePlayback struct{}

func (*TogglePlayback) Verb() Verb { return VerbTogglePlayback }

// PlayMusic plays the best match for Name. Type narrows the search;
// "genre" searches playlists and prefers official ones.
type PlayMusic struct {
	Name string `mapstructure:"name" validate:"required"`
	Type string `mapstructure:"type" validate:"omitempty,oneof=track album artist playlist show episode genre"`
}

func (*PlayMusic) Verb() Verb { return VerbPlayMusic }

// QueueTrack appends the best track match for Name to the queue.
type QueueTrack struct {
	Name string `mapstructure:"name" validate:"required"`
	Type string `mapstructure:"type" default:"track" validate:"oneof=track album artist playlist show episode genre"`
}

func (*QueueTrack) Verb() Verb { return VerbQueueTrack }

type PlayRandomMusic struct{}

func (*PlayRandomMusic) Verb() Verb { return VerbPlayRandomMusic }

type PlaySpecialPlaylist struct {
	Name string `mapstructure:"name" validate:"required"`
}

func (*PlaySpecialPlaylist) Verb() Verb { return VerbPlaySpecialPlaylist }

// Volume sets or adjusts the volume. Value is a level for "set" and a step otherwise.
type Volume struct {
	Mode  string   `mapstructure:"type" default:"set" validate:"oneof=set increase decrease"`
	Value *float64 `mapstructure:"value" validate:"omitempty,gte=0"`
}

func (*Volume) Verb() Verb { return VerbVolume }

// Amount returns Value rounded to a whole percent, or the default for the mode.
func (v *Volume) Amount() int {
	if v.Value != nil {
		return int(math.Round(*v.Value))
	}
	if v.Mode == VolumeSet {
		return defaultVolumeLevel
	}
	return defaultVolumeStep
}

// Seek moves the playback position. Value is seconds, or a percentage for "to_percent".
type Seek struct {
	Target string   `mapstructure:"target" default:"forward" validate:"oneof=forward backward to_time to_percent middle"`
	Value  *float64 `mapstructure:"value" validate:"omitempty,gte=0"`
}

func (*Seek) Verb() Verb { return VerbSeekPlayback }

// Amount returns Value or the default for the target.
func (s *Seek) Amount() float64 {
	if s.Value != nil {
		return *s.Value
	}
	switch s.Target {
	case SeekToTime:
		return defaultSeekToSecond
	case SeekToPercent:
		return defaultSeekPercent
	default:
		return defaultSeekSeconds
	}
}

type SkipNext struct{}

func (*SkipNext) Verb() Verb { return VerbSkipNext }

type SkipPrevious struct{}

func (*SkipPrevious) Verb() Verb { return VerbSkipPrevious }

type RepeatMode struct {
	Mode string `mapstructure:"mode" default:"context" validate:"oneof=track context off"`
}

func (*RepeatMode) Verb() Verb { return VerbRepeatMode }

type ShuffleMode struct {
	Mode string `mapstructure:"mode" default:"on" validate:"oneof=on off"`
}

func (*ShuffleMode) Verb() Verb { return VerbShuffleMode }

// On reports whether shuffle should be enabled.
func (s *ShuffleMode) On() bool {
	return s.Mode == "on"
}

type AddToFavorites struct{}

func (*AddToFavorites) Verb() Verb { return VerbAddToFavorites }

type GetPlaylists struct{}

func (*GetPlaylists) Verb() Verb { return VerbGetPlaylists }

type AddToPlaylist struct {
	Playlist string `mapstructure:"playlist" validate:"required"`
}

func (*AddToPlaylist) Verb() Verb { return VerbAddToPlaylist }

type ListDevices struct{}

func (*ListDevices) Verb() Verb { return VerbListDevices }

type TransferToDevice struct {
	Device string `mapstructure:"device" validate:"required"`
}

func (*TransferToDevice) Verb() Verb { return VerbTransferToDevice }

var commands = map[Verb]func() Command{
	VerbTogglePlayback:      func() Command { return &TogglePlayback{} },
	VerbPlayMusic:           func() Command { return &PlayMusic{} },
	VerbQueueTrack:          func() Command { return &QueueTrack{} },
	VerbPlayRandomMusic:     func() Command { return &PlayRandomMusic{} },
	VerbPlaySpecialPlaylist: func() Command { return &PlaySpecialPlaylist{} },
	VerbVolume:              func() Command { return &Volume{} },
	VerbSeekPlayback:        func() Command { return &Seek{} },
	VerbSkipNext:            func() Command { return &SkipNext{} },
	VerbSkipPrevious:        func() Command { return &SkipPrevious{} },
	VerbRepeatMode:          func() Command { return &RepeatMode{} },
	VerbShuffleMode:         func() Command { return &ShuffleMode{} },
	VerbAddToFavorites:      func() Command { return &AddToFavorites{} },
	VerbGetPlaylists:        func() Command { return &GetPlaylists{} },
	VerbAddToPlaylist:       func() Command { return &AddToPlaylist{} },
	VerbListDevices:         func() Command { return &ListDevices{} },
	VerbTransferToDevice:    func() Command { return &TransferToDevice{} },
}

// Verbs returns all supported verbs.
func Verbs() []Verb {
	return []Verb{
		VerbTogglePlayback, VerbPlayMusic, VerbQueueTrack, VerbPlayRandomMusic,
		VerbPlaySpecialPlaylist, VerbVolume, VerbSeekPlayback, VerbSkipNext,
		VerbSkipPrevious, VerbRepeatMode, VerbShuffleMode, VerbAddToFavorites,
		VerbGetPlaylists, VerbAddToPlaylist, VerbListDevices, VerbTransferToDevice,
	}
}
