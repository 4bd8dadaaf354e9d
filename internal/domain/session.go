package domain

import (
	"math/rand/v2"
	"strconv"
	"time"
)

type Role string

const (
	RolePublisher  Role = "publisher"
	RoleSubscriber Role = "subscriber"
)

func (r Role) Valid() bool {
	return r == RolePublisher || r == RoleSubscriber
}

type Session struct {
	Id        string         `json:"id"`
	Role      Role           `json:"role"`
	Nick      string         `json:"nick"`
	Color     string         `json:"color"`
	UserAgent string         `json:"user_agent,omitempty"`
	State     *PlaybackState `json:"state,omitempty"`
	Latency   time.Duration  `json:"-"`
}

func (s Session) IsPublisher() bool {
	return s.Role == RolePublisher
}

const nickAttempts = 10

var subscriberNickPresets = []string{
	"macaw", "rhino", "addax", "gharial", "vaquita", "bonobo", "dhole", "panda",
	"red_wolf", "saiga", "hippo", "takhi", "fossa", "sangai",
	"dugong", "yak", "takin", "dingo", "gaur",
}

var palette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4", "#46f0f0",
	"#f032e6", "#9a6324", "#008080", "#800000", "#808000", "#000075",
}

type Generator interface {
	IntN(n int) int
}

type defaultGenerator struct{}

func (defaultGenerator) IntN(n int) int {
	return rand.IntN(n)
}

func defaultNick(g Generator, role Role) string {
	if role == RolePublisher {
		return strconv.Itoa(g.IntN(10000) + 1)
	}

	return subscriberNickPresets[g.IntN(len(subscriberNickPresets))]
}

func pickColor(g Generator) string {
	return palette[g.IntN(len(palette))]
}
